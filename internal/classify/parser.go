package classify

import (
	"fmt"
	"regexp"
	"strconv"

	"mediasort/internal/services"
	"mediasort/internal/textutil"
)

// Parser extracts title, year, season, and episode fields from a filename
// stem using the configured naming patterns.
type Parser struct {
	movie *regexp.Regexp
	tv    *regexp.Regexp
}

// NewParser compiles the configured movie and tv patterns. Both are matched
// case-insensitively. The movie pattern must capture title and year; the tv
// pattern must capture title, season, and episode.
func NewParser(moviePattern, tvPattern string) (*Parser, error) {
	movie, err := compileNamingPattern("movie_pattern", moviePattern, "title", "year")
	if err != nil {
		return nil, err
	}
	tv, err := compileNamingPattern("tv_pattern", tvPattern, "title", "season", "episode")
	if err != nil {
		return nil, err
	}
	return &Parser{movie: movie, tv: tv}, nil
}

func compileNamingPattern(name, pattern string, required ...string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "config", name, "invalid regular expression", err)
	}
	groups := map[string]bool{}
	for _, group := range re.SubexpNames() {
		if group != "" {
			groups[group] = true
		}
	}
	for _, group := range required {
		if !groups[group] {
			return nil, services.Wrap(services.ErrConfiguration, "config", name,
				fmt.Sprintf("pattern is missing required capture group %q", group), nil)
		}
	}
	return re, nil
}

// TVRegex exposes the compiled tv pattern for media-type fallback.
func (p *Parser) TVRegex() *regexp.Regexp {
	return p.tv
}

// ParseMovie fills Title and Year from the file's current stem. A year set
// earlier by a pattern rule is kept in preference to the filename's. Returns
// false when the stem does not match or yields no usable title.
func (p *Parser) ParseMovie(file *FileInfo) bool {
	match := p.movie.FindStringSubmatch(file.Stem)
	if match == nil {
		return false
	}
	title := textutil.CleanTitle(group(p.movie, match, "title"))
	if title == "" {
		return false
	}
	file.Title = title
	if file.Year == 0 {
		file.Year = atoi(group(p.movie, match, "year"))
	}
	return file.Year != 0
}

// ParseTV fills Title, Season, and Episode from the file's current stem.
// A year capture is optional and recorded when present.
func (p *Parser) ParseTV(file *FileInfo) bool {
	match := p.tv.FindStringSubmatch(file.Stem)
	if match == nil {
		return false
	}
	title := textutil.CleanTitle(group(p.tv, match, "title"))
	seasonStr := group(p.tv, match, "season")
	episodeStr := group(p.tv, match, "episode")
	if title == "" || seasonStr == "" || episodeStr == "" {
		return false
	}
	file.Title = title
	// Season 0 is valid; specials live there.
	file.Season = atoi(seasonStr)
	file.Episode = atoi(episodeStr)
	if file.Year == 0 {
		file.Year = atoi(group(p.tv, match, "year"))
	}
	return true
}

func group(re *regexp.Regexp, match []string, name string) string {
	idx := re.SubexpIndex(name)
	if idx < 0 || idx >= len(match) {
		return ""
	}
	return match[idx]
}

func atoi(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
