package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file location configuration.
type Paths struct {
	DestinationDir string `toml:"destination_dir"`
	LedgerPath     string `toml:"ledger_path"`
	LogDir         string `toml:"log_dir"`
	LockPath       string `toml:"lock_path"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// Library contains the destination directory structure.
type Library struct {
	MoviesDir string `toml:"movies_dir"`
	TVDir     string `toml:"tv_dir"`
}

// Naming contains the filename patterns and destination templates.
type Naming struct {
	MoviePattern    string `toml:"movie_pattern"`
	TVPattern       string `toml:"tv_pattern"`
	MovieTemplate   string `toml:"movie_template"`
	TVShowTemplate  string `toml:"tv_show_template"`
	EpisodeTemplate string `toml:"episode_template"`
	SeasonPadding   int    `toml:"season_padding"`
	EpisodePadding  int    `toml:"episode_padding"`
}

// Options contains scan behavior switches.
type Options struct {
	LinkFiles        bool     `toml:"link_files"`
	SkipExisting     bool     `toml:"skip_existing"`
	OnlyProfiledDirs bool     `toml:"only_profiled_dirs"`
	VideoExtensions  []string `toml:"video_extensions"`
}

// Scan contains daemon timing configuration.
type Scan struct {
	// IntervalMinutes is the pause between scan runs. Zero runs one scan
	// and exits.
	IntervalMinutes int `toml:"interval_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Source declares one directory to scan and the scan configuration file
// describing its profiles and pattern groups.
type Source struct {
	Path       string `toml:"path"`
	ScanConfig string `toml:"scan_config"`
}

// Config encapsulates all configuration values for mediasort.
//
// Configuration sections by subsystem:
//   - Paths: destination root, ledger database, logs, daemon lock
//   - TMDB: metadata lookups via The Movie Database
//   - Library: movies/tv subdirectories under the destination
//   - Naming: filename parse patterns and destination templates
//   - Options: link vs copy, skip-existing, extension filter
//   - Scan: daemon scan interval
//   - Logging: log format and level
//   - Sources: scanned directories and their scan configuration files
type Config struct {
	Paths   Paths    `toml:"paths"`
	TMDB    TMDB     `toml:"tmdb"`
	Library Library  `toml:"library"`
	Naming  Naming   `toml:"naming"`
	Options Options  `toml:"options"`
	Scan    Scan     `toml:"scan"`
	Logging Logging  `toml:"logging"`
	Sources []Source `toml:"sources"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mediasort/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is
// the resolved path; the third reports whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediasort.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon needs at startup.
// The destination is created on a best-effort basis so a scan can start
// while external storage is temporarily offline.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, filepath.Dir(c.Paths.LedgerPath), filepath.Dir(c.Paths.LockPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.DestinationDir) != "" {
		_ = os.MkdirAll(c.Paths.DestinationDir, 0o755)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
