package textutil

import (
	"regexp"
	"strings"
)

// sceneTokens lists release tags that carry no title information. They are
// stripped when guessing a cleaner search title after a failed lookup.
var sceneTokens = []string{"HD", "1080p", "720p", "BluRay", "WEBRip", "x264", "YIFY", "DVDRip"}

var (
	bracketPattern    = regexp.MustCompile(`\[.*?\]|\(.*?\)`)
	sceneTokenPattern = func() *regexp.Regexp {
		escaped := make([]string, len(sceneTokens))
		for i, token := range sceneTokens {
			escaped[i] = regexp.QuoteMeta(token)
		}
		return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
	}()
)

// CleanTitle converts a release-style title fragment to a display title:
// dots and underscores become spaces and whitespace runs collapse.
func CleanTitle(title string) string {
	title = strings.NewReplacer(".", " ", "_", " ").Replace(title)
	return strings.Join(strings.Fields(title), " ")
}

// GuessTitle strips bracketed blocks and scene-release tokens from a title,
// producing a less specific query for a second-chance catalog search.
func GuessTitle(title string) string {
	title = bracketPattern.ReplaceAllString(title, "")
	title = sceneTokenPattern.ReplaceAllString(title, "")
	return strings.Join(strings.Fields(title), " ")
}
