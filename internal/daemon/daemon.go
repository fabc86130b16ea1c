package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"

	"mediasort/internal/catalog"
	"mediasort/internal/config"
	"mediasort/internal/ledger"
	"mediasort/internal/logging"
	"mediasort/internal/scanner"
)

// ErrAlreadyRunning reports that another process holds the daemon lock.
var ErrAlreadyRunning = errors.New("another mediasort instance is already running")

// ScanFunc executes one scan run against a freshly loaded snapshot.
type ScanFunc func(ctx context.Context, snapshot *config.Snapshot) (*scanner.Summary, error)

// Daemon owns the scan loop lifecycle.
type Daemon struct {
	configPath string
	base       *slog.Logger
	logger     *slog.Logger
	scan       ScanFunc
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithScanFunc overrides the production scan implementation.
func WithScanFunc(fn ScanFunc) Option {
	return func(d *Daemon) {
		if fn != nil {
			d.scan = fn
		}
	}
}

// New constructs a daemon reading configuration from configPath ("" selects
// the default locations).
func New(configPath string, logger *slog.Logger, opts ...Option) *Daemon {
	d := &Daemon{
		configPath: configPath,
		base:       logger,
		logger:     logging.NewComponentLogger(logger, "daemon"),
	}
	d.scan = d.scanOnce
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run scans until the context is cancelled. With a zero interval it performs
// a single scan and returns. Configuration errors are fatal; scan failures
// are logged and the loop continues.
func (d *Daemon) Run(ctx context.Context) error {
	cfg, snapshot, err := d.load()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	lock := flock.New(cfg.Paths.LockPath)
	acquired, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", cfg.Paths.LockPath, err)
	}
	if !acquired {
		return fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, cfg.Paths.LockPath)
	}
	defer func() { _ = lock.Unlock() }()

	for {
		if _, err := d.scan(ctx, snapshot); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.logger.Error("scan run failed", logging.Error(err))
		}

		interval := time.Duration(cfg.Scan.IntervalMinutes) * time.Minute
		if interval <= 0 {
			return nil
		}
		d.logger.Info("next scan scheduled", logging.Duration("in", interval))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		// A broken reload keeps the previous snapshot; edits take effect on
		// the first cycle where they parse.
		if next, nextSnapshot, err := d.load(); err != nil {
			d.logger.Error("configuration reload failed", logging.Error(err))
		} else {
			cfg, snapshot = next, nextSnapshot
		}
	}
}

func (d *Daemon) load() (*config.Config, *config.Snapshot, error) {
	cfg, path, _, err := config.Load(d.configPath)
	if err != nil {
		return nil, nil, err
	}
	snapshot, err := config.LoadSnapshot(cfg)
	if err != nil {
		return nil, nil, err
	}
	d.logger.Debug("configuration loaded", logging.String("path", path))
	return cfg, snapshot, nil
}

// scanOnce is the production ScanFunc: open the ledger, build the catalog,
// and run the scanner against the snapshot with the daemon's own logger.
func (d *Daemon) scanOnce(ctx context.Context, snapshot *config.Snapshot) (*scanner.Summary, error) {
	cfg := snapshot.Config

	store, err := ledger.Open(cfg.Paths.LedgerPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	cat, err := catalog.NewTMDB(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	if err != nil {
		return nil, err
	}

	s, err := scanner.New(snapshot, cat, store, d.base)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}
