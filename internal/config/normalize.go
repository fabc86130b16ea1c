package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// normalize expands paths, applies environment fallbacks, and lowercases
// enum-like fields. configDir anchors relative scan_config references.
func (c *Config) normalize(configDir string) error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeNaming()
	c.normalizeOptions()
	if err := c.normalizeSources(configDir); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DestinationDir, err = expandPath(c.Paths.DestinationDir); err != nil {
		return fmt.Errorf("paths.destination_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		c.Paths.LedgerPath = defaultLedgerPath
	}
	if c.Paths.LedgerPath, err = expandPath(c.Paths.LedgerPath); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockPath) == "" {
		c.Paths.LockPath = defaultLockPath
	}
	if c.Paths.LockPath, err = expandPath(c.Paths.LockPath); err != nil {
		return fmt.Errorf("paths.lock_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
}

func (c *Config) normalizeNaming() {
	if strings.TrimSpace(c.Naming.MoviePattern) == "" {
		c.Naming.MoviePattern = defaultMoviePattern
	}
	if strings.TrimSpace(c.Naming.TVPattern) == "" {
		c.Naming.TVPattern = defaultTVPattern
	}
	if strings.TrimSpace(c.Naming.MovieTemplate) == "" {
		c.Naming.MovieTemplate = defaultMovieTemplate
	}
	if strings.TrimSpace(c.Naming.TVShowTemplate) == "" {
		c.Naming.TVShowTemplate = defaultTVShowTemplate
	}
	if c.Naming.SeasonPadding < 0 {
		c.Naming.SeasonPadding = 0
	}
	if c.Naming.EpisodePadding < 0 {
		c.Naming.EpisodePadding = 0
	}
}

func (c *Config) normalizeOptions() {
	if len(c.Options.VideoExtensions) == 0 {
		c.Options.VideoExtensions = defaultVideoExtensions()
		return
	}
	exts := make([]string, 0, len(c.Options.VideoExtensions))
	seen := make(map[string]struct{}, len(c.Options.VideoExtensions))
	for _, ext := range c.Options.VideoExtensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = defaultVideoExtensions()
	}
	c.Options.VideoExtensions = exts
}

func (c *Config) normalizeSources(configDir string) error {
	for i := range c.Sources {
		source := &c.Sources[i]
		path := strings.TrimSpace(source.Path)
		if path == "" {
			continue
		}
		expanded, err := expandPath(path)
		if err != nil {
			return fmt.Errorf("sources[%d].path: %w", i, err)
		}
		source.Path = expanded

		scanConfig := strings.TrimSpace(source.ScanConfig)
		if scanConfig == "" {
			continue
		}
		if strings.HasPrefix(scanConfig, "~") || filepath.IsAbs(scanConfig) {
			if source.ScanConfig, err = expandPath(scanConfig); err != nil {
				return fmt.Errorf("sources[%d].scan_config: %w", i, err)
			}
			continue
		}
		// Relative scan_config paths resolve against the main config file.
		source.ScanConfig = filepath.Join(configDir, scanConfig)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
