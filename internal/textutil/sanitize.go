package textutil

import "strings"

// pathSegmentReplacer maps path separators to dashes and removes the
// remaining filesystem-unsafe characters. The transformation is one-way.
var pathSegmentReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	"<", "",
	">", "",
	":", "",
	"\"", "",
	"|", "",
	"?", "",
	"*", "",
)

// SanitizePathSegment makes a generated name safe to use as a single path
// segment. Separators become dashes so a title like "AC/DC" keeps one
// directory level; angle brackets, colons, quotes, pipes, question marks,
// and asterisks are dropped. Configured root directories must never be
// passed through this function.
func SanitizePathSegment(segment string) string {
	return strings.TrimSpace(pathSegmentReplacer.Replace(segment))
}
