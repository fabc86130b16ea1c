package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"mediasort/internal/classify"
	"mediasort/internal/textutil"
)

// Template placeholder keys are fixed; anything else in a template is a
// configuration error reported at load, not at render time.
var (
	movieTemplateKeys = map[string]struct{}{
		"title": {},
		"year":  {},
	}
	episodeTemplateKeys = map[string]struct{}{
		"title":         {},
		"year":          {},
		"season":        {},
		"episode":       {},
		"episode_title": {},
	}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateNaming(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/mediasort/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'mediasort config init')", defaultPath)
	}
	if _, err := language.Parse(c.TMDB.Language); err != nil {
		return fmt.Errorf("tmdb.language %q is not a valid IETF language tag: %w", c.TMDB.Language, err)
	}
	return nil
}

func (c *Config) validateLibrary() error {
	if c.Library.MoviesDir == "" {
		return errors.New("library.movies_dir must be set")
	}
	if c.Library.TVDir == "" {
		return errors.New("library.tv_dir must be set")
	}
	return nil
}

func (c *Config) validateNaming() error {
	if _, err := classify.NewParser(c.Naming.MoviePattern, c.Naming.TVPattern); err != nil {
		return err
	}
	if err := textutil.ValidateTemplate(c.Naming.MovieTemplate, movieTemplateKeys); err != nil {
		return fmt.Errorf("naming.movie_template: %w", err)
	}
	if err := textutil.ValidateTemplate(c.Naming.TVShowTemplate, episodeTemplateKeys); err != nil {
		return fmt.Errorf("naming.tv_show_template: %w", err)
	}
	if c.Naming.EpisodeTemplate != "" {
		if err := textutil.ValidateTemplate(c.Naming.EpisodeTemplate, episodeTemplateKeys); err != nil {
			return fmt.Errorf("naming.episode_template: %w", err)
		}
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.IntervalMinutes < 0 {
		return errors.New("scan.interval_minutes must be >= 0")
	}
	return nil
}

func (c *Config) validateSources() error {
	if len(c.Sources) == 0 {
		return errors.New("at least one [[sources]] entry must be configured")
	}
	seen := make(map[string]struct{}, len(c.Sources))
	for i, source := range c.Sources {
		if strings.TrimSpace(source.Path) == "" {
			return fmt.Errorf("sources[%d].path must be set", i)
		}
		if _, dup := seen[source.Path]; dup {
			return fmt.Errorf("sources[%d].path %q is listed twice", i, source.Path)
		}
		seen[source.Path] = struct{}{}
	}
	return nil
}
