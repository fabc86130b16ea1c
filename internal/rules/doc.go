// Package rules applies configured filename-rewrite rules to scanned files.
// Rules run in declaration order within each pattern group; an ignore match
// short-circuits everything that follows. Rules rewrite only the in-memory
// filename stem, never the file on disk.
package rules
