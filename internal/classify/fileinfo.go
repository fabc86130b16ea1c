package classify

import (
	"path/filepath"
	"strings"
	"time"
)

// MediaType distinguishes movies from television episodes.
type MediaType string

const (
	TypeMovie MediaType = "movie"
	TypeTV    MediaType = "tv"
)

// ParseMediaType converts a configuration string into a known MediaType.
func ParseMediaType(value string) (MediaType, bool) {
	switch MediaType(strings.ToLower(strings.TrimSpace(value))) {
	case TypeMovie:
		return TypeMovie, true
	case TypeTV:
		return TypeTV, true
	default:
		return "", false
	}
}

// FileInfo carries one file's state through the scan pipeline. It is created
// per file, mutated only by the classifier and the rule engine, and discarded
// once the file's outcome is recorded.
type FileInfo struct {
	// OriginalPath is the absolute path of the file on disk.
	OriginalPath string
	// RelDir is the file's parent directory relative to the source root,
	// "." for files directly under the root.
	RelDir string
	// Name is the original filename, never rewritten.
	Name string
	// Stem is the current filename without extension; pattern rules rewrite it.
	Stem string
	// Ext is the original extension including the leading dot.
	Ext string

	Size    int64
	ModTime time.Time

	MediaType MediaType
	Title     string
	Year      int
	Season    int
	Episode   int

	// Ignore is set by profile configuration or an ignore rule; an ignored
	// file is recorded as a successful no-op.
	Ignore bool

	// ProfileDir is the matched scan profile's directory, empty when the
	// file was classified by filename alone.
	ProfileDir           string
	DestinationSubfolder string
	PatternGroups        []string
}

// NewFileInfo builds a FileInfo for a discovered file.
func NewFileInfo(path, relDir string, size int64, modTime time.Time) *FileInfo {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	return &FileInfo{
		OriginalPath: path,
		RelDir:       relDir,
		Name:         name,
		Stem:         strings.TrimSuffix(name, ext),
		Ext:          ext,
		Size:         size,
		ModTime:      modTime,
	}
}

// ParentDirName returns the name of the file's immediate parent directory,
// used for folder-context captures in pattern rules.
func (f *FileInfo) ParentDirName() string {
	return filepath.Base(filepath.Dir(f.OriginalPath))
}

// RelPath returns the file's source-relative path, the first half of its
// ledger identity.
func (f *FileInfo) RelPath() string {
	if f.RelDir == "" || f.RelDir == "." {
		return f.Name
	}
	return filepath.Join(f.RelDir, f.Name)
}
