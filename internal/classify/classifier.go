package classify

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"mediasort/internal/logging"
)

// Profile declares how files under one source subdirectory are handled. The
// path is relative to the source root; all files at or below it inherit the
// profile's settings.
type Profile struct {
	Path                 string   `toml:"path"`
	MediaType            string   `toml:"media_type,omitempty"`
	Ignore               bool     `toml:"ignore,omitempty"`
	DestinationSubfolder string   `toml:"destination_subfolder,omitempty"`
	PatternGroups        []string `toml:"pattern_groups,omitempty"`
}

// DefaultPatternGroup is applied when a matched profile names no groups.
const DefaultPatternGroup = "generic"

// Classifier assigns a media type and pattern groups to scanned files.
type Classifier struct {
	tvPattern *regexp.Regexp
	logger    *slog.Logger
}

// NewClassifier builds a Classifier. The tv pattern is used for filename
// fallback when no profile declares a media type.
func NewClassifier(tvPattern *regexp.Regexp, logger *slog.Logger) *Classifier {
	return &Classifier{
		tvPattern: tvPattern,
		logger:    logging.NewComponentLogger(logger, "classifier"),
	}
}

// ApplyProfile resolves the file's profile settings. Profiles are consulted
// in declaration order and the first directory match wins. Runs before
// pattern rules because the matched profile selects which rule groups apply.
func (c *Classifier) ApplyProfile(file *FileInfo, profiles []Profile) {
	for _, profile := range profiles {
		if !profileMatches(profile.Path, file.RelDir) {
			continue
		}
		c.applyProfile(file, profile)
		break
	}
	if len(file.PatternGroups) == 0 {
		file.PatternGroups = []string{DefaultPatternGroup}
	}
}

// ResolveMediaType decides movie vs tv by filename when no profile pinned a
// type. Runs after pattern rules so a rule-normalized stem can match the tv
// pattern.
func (c *Classifier) ResolveMediaType(file *FileInfo) {
	if file.MediaType != "" {
		return
	}
	if c.tvPattern != nil && c.tvPattern.MatchString(file.Stem) {
		file.MediaType = TypeTV
	} else {
		file.MediaType = TypeMovie
	}
	c.logger.Debug("classified by filename",
		logging.String(logging.FieldFile, file.RelPath()),
		logging.String("media_type", string(file.MediaType)))
}

// Classify applies the profile and resolves the media type in one step, for
// files that go through no rewrite rules.
func (c *Classifier) Classify(file *FileInfo, profiles []Profile) {
	c.ApplyProfile(file, profiles)
	c.ResolveMediaType(file)
}

func (c *Classifier) applyProfile(file *FileInfo, profile Profile) {
	file.ProfileDir = profile.Path
	file.Ignore = file.Ignore || profile.Ignore
	file.DestinationSubfolder = profile.DestinationSubfolder
	if len(profile.PatternGroups) > 0 {
		file.PatternGroups = append([]string(nil), profile.PatternGroups...)
	}
	if profile.MediaType == "" {
		return
	}
	mediaType, ok := ParseMediaType(profile.MediaType)
	if !ok {
		c.logger.Warn("profile declares unknown media type",
			logging.String("profile", profile.Path),
			logging.String("media_type", profile.MediaType))
		return
	}
	file.MediaType = mediaType
}

// profileMatches reports whether relDir is the profile directory itself or a
// descendant of it. Comparison is on whole path segments.
func profileMatches(profileDir, relDir string) bool {
	profileDir = filepath.ToSlash(strings.Trim(profileDir, "/"))
	relDir = filepath.ToSlash(relDir)
	if relDir == "." {
		relDir = ""
	}
	if profileDir == "" {
		return true
	}
	if relDir == profileDir {
		return true
	}
	return strings.HasPrefix(relDir, profileDir+"/")
}
