// Package textutil provides text processing helpers shared across the
// pipeline: placeholder template rendering, release-name title cleanup,
// and filename sanitization for generated library paths.
package textutil
