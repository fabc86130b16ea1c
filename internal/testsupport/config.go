package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mediasort/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields, creates one scan source, and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.TMDB.APIKey = "test"
	cfgVal.Paths.DestinationDir = filepath.Join(base, "library")
	cfgVal.Paths.LedgerPath = filepath.Join(base, "ledger.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.LockPath = filepath.Join(base, "mediasort.lock")

	source := filepath.Join(base, "incoming")
	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatalf("mkdir source dir: %v", err)
	}
	cfgVal.Sources = []config.Source{{Path: source}}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTMDBKey sets the TMDB API key on the test config.
func WithTMDBKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIKey = key
	}
}

// WithScanInterval sets the daemon scan interval in minutes.
func WithScanInterval(minutes int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.IntervalMinutes = minutes
	}
}

// SourceDir returns the first scan source of a generated config.
func SourceDir(cfg *config.Config) string {
	return cfg.Sources[0].Path
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LedgerPath)
}

// WriteConfigFile marshals cfg to TOML under the config's base directory and
// returns the file path, for tests that drive the CLI end to end.
func WriteConfigFile(t testing.TB, cfg *config.Config) string {
	t.Helper()

	body, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
