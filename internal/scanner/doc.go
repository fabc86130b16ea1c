// Package scanner drives one scan run: walk the configured sources, rewrite
// filenames through pattern rules, resolve identity against the metadata
// catalog, place files into the library, and record every outcome in the
// ledger. Source files are never modified or removed.
package scanner
