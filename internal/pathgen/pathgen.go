// Package pathgen renders destination paths for organized media from the
// configured naming templates. Generation is pure string work; nothing here
// touches the filesystem.
package pathgen

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"mediasort/internal/services"
	"mediasort/internal/textutil"
)

// Templates holds the naming templates applied to resolved metadata. The
// show template may contain slashes to produce nested folders; an empty
// episode template keeps the original filename.
type Templates struct {
	Movie   string
	TVShow  string
	Episode string
}

// MovieMeta is the resolved identity of a movie file.
type MovieMeta struct {
	Title string
	Year  int
}

// EpisodeMeta is the resolved identity of an episode file.
type EpisodeMeta struct {
	ShowTitle    string
	ShowYear     int
	Season       int
	Episode      int
	EpisodeTitle string
}

// Generator renders destination paths under a destination root.
type Generator struct {
	Templates      Templates
	MovieDir       string
	TVDir          string
	SeasonPadding  int
	EpisodePadding int
}

// MoviePath renders the full destination path for a movie file. The rendered
// folder name is sanitized; the original filename is kept as the leaf.
func (g Generator) MoviePath(destRoot, subfolder string, meta MovieMeta, originalName string) (string, error) {
	folder, err := textutil.RenderTemplate(g.Templates.Movie, map[string]string{
		"title": meta.Title,
		"year":  strconv.Itoa(meta.Year),
	})
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "pathgen", "movie", "render movie folder", err)
	}
	segments := []string{destRoot}
	if subfolder != "" {
		segments = append(segments, textutil.SanitizePathSegment(subfolder))
	}
	segments = append(segments, g.MovieDir, textutil.SanitizePathSegment(folder), originalName)
	return filepath.Join(segments...), nil
}

// EpisodePath renders the full destination path for an episode file. Slashes
// in the rendered show folder create nested directories; each resulting
// segment is sanitized independently.
func (g Generator) EpisodePath(destRoot, subfolder string, meta EpisodeMeta, originalName string) (string, error) {
	values := map[string]string{
		"title":         meta.ShowTitle,
		"year":          strconv.Itoa(meta.ShowYear),
		"season":        zeroPad(meta.Season, g.SeasonPadding),
		"episode":       zeroPad(meta.Episode, g.EpisodePadding),
		"episode_title": meta.EpisodeTitle,
	}

	// The template is split before rendering so that slashes written in the
	// template nest directories while slashes inside rendered values are
	// sanitized to dashes.
	var showSegments []string
	for _, part := range splitFolders(g.Templates.TVShow) {
		rendered, err := textutil.RenderTemplate(part, values)
		if err != nil {
			return "", services.Wrap(services.ErrConfiguration, "pathgen", "episode", "render show folder", err)
		}
		showSegments = append(showSegments, textutil.SanitizePathSegment(rendered))
	}

	leaf := originalName
	if g.Templates.Episode != "" {
		name, err := textutil.RenderTemplate(g.Templates.Episode, values)
		if err != nil {
			return "", services.Wrap(services.ErrConfiguration, "pathgen", "episode", "render episode name", err)
		}
		leaf = textutil.SanitizePathSegment(name) + filepath.Ext(originalName)
	}

	segments := []string{destRoot}
	if subfolder != "" {
		segments = append(segments, textutil.SanitizePathSegment(subfolder))
	}
	segments = append(segments, g.TVDir)
	segments = append(segments, showSegments...)
	segments = append(segments, leaf)
	return filepath.Join(segments...), nil
}

// splitFolders breaks a rendered folder template into path segments on both
// slash styles, dropping empties so "a//b" cannot climb or collapse oddly.
func splitFolders(folder string) []string {
	normalized := strings.ReplaceAll(folder, "\\", "/")
	parts := strings.Split(normalized, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" || trimmed == "." || trimmed == ".." {
			continue
		}
		segments = append(segments, trimmed)
	}
	return segments
}

func zeroPad(value, width int) string {
	if width <= 0 {
		return strconv.Itoa(value)
	}
	return fmt.Sprintf("%0*d", width, value)
}
