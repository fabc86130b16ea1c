// Package catalog looks up movie and television metadata from TMDB. The scan
// pipeline depends only on the Catalog interface so tests can substitute a
// fixed-response implementation.
package catalog
