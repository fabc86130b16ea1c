package scanner

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediasort/internal/catalog"
	"mediasort/internal/classify"
	"mediasort/internal/config"
	"mediasort/internal/ledger"
	"mediasort/internal/logging"
	"mediasort/internal/pathgen"
	"mediasort/internal/rules"
	"mediasort/internal/services"
)

// File dispositions recorded in the ledger.
const (
	DispositionLinked          = "linked"
	DispositionCopied          = "copied"
	DispositionSkippedExisting = "skipped-existing"
	DispositionIgnored         = "ignored"
	DispositionDuplicate       = "duplicate"
	DispositionParseFailure    = "parse-failure"
	DispositionNotFound        = "not-found"
	DispositionIOError         = "io-error"
)

// Ledger is the persistence surface the scanner needs. *ledger.Store
// satisfies it; tests substitute an in-memory fake.
type Ledger interface {
	RecordOutcome(ctx context.Context, rec ledger.Record) error
	PriorSuccesses(ctx context.Context, source string) (map[string]ledger.Prior, error)
	StartRun(ctx context.Context, runID string, startedAt time.Time) error
	FinishRun(ctx context.Context, runID string, finishedAt time.Time, seen, placed, skipped, failed int) error
}

// Summary reports what one scan run did.
type Summary struct {
	RunID         string
	Started       time.Time
	Finished      time.Time
	Seen          int
	Placed        int
	Skipped       int
	Failed        int
	ByDisposition map[string]int
}

// Scanner executes scan runs against a fixed configuration snapshot. Build a
// new Scanner per run; the snapshot never changes underneath it.
type Scanner struct {
	snapshot   *config.Snapshot
	catalog    catalog.Catalog
	ledger     Ledger
	engine     *rules.Engine
	classifier *classify.Classifier
	parser     *classify.Parser
	generator  pathgen.Generator
	extensions map[string]struct{}
	logger     *slog.Logger
}

// New wires a Scanner from a validated snapshot.
func New(snapshot *config.Snapshot, cat catalog.Catalog, led Ledger, logger *slog.Logger) (*Scanner, error) {
	cfg := snapshot.Config
	parser, err := classify.NewParser(cfg.Naming.MoviePattern, cfg.Naming.TVPattern)
	if err != nil {
		return nil, err
	}

	extensions := make(map[string]struct{}, len(cfg.Options.VideoExtensions))
	for _, ext := range cfg.Options.VideoExtensions {
		extensions[ext] = struct{}{}
	}

	return &Scanner{
		snapshot:   snapshot,
		catalog:    cat,
		ledger:     led,
		engine:     rules.NewEngine(cfg.Naming.SeasonPadding, cfg.Naming.EpisodePadding, logger),
		classifier: classify.NewClassifier(parser.TVRegex(), logger),
		parser:     parser,
		generator: pathgen.Generator{
			Templates: pathgen.Templates{
				Movie:   cfg.Naming.MovieTemplate,
				TVShow:  cfg.Naming.TVShowTemplate,
				Episode: cfg.Naming.EpisodeTemplate,
			},
			MovieDir:       cfg.Library.MoviesDir,
			TVDir:          cfg.Library.TVDir,
			SeasonPadding:  cfg.Naming.SeasonPadding,
			EpisodePadding: cfg.Naming.EpisodePadding,
		},
		extensions: extensions,
		logger:     logging.NewComponentLogger(logger, "scanner"),
	}, nil
}

// Run walks every configured source once and returns the run summary.
func (s *Scanner) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:         uuid.NewString(),
		Started:       time.Now(),
		ByDisposition: map[string]int{},
	}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, s.logger)

	if err := s.ledger.StartRun(ctx, summary.RunID, summary.Started); err != nil {
		logger.Warn("start run not recorded",
			logging.Error(services.Wrap(services.ErrLedger, "scanner", "start_run", "", err)))
	}

	logger.Info("scan run started", logging.Int("sources", len(s.snapshot.Sources)))

	for _, source := range s.snapshot.Sources {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		s.scanSource(services.WithSource(ctx, source.Path), source, summary)
	}

	summary.Finished = time.Now()
	if err := s.ledger.FinishRun(ctx, summary.RunID, summary.Finished,
		summary.Seen, summary.Placed, summary.Skipped, summary.Failed); err != nil {
		logger.Warn("finish run not recorded",
			logging.Error(services.Wrap(services.ErrLedger, "scanner", "finish_run", "", err)))
	}

	logger.Info("scan run finished",
		logging.Int("seen", summary.Seen),
		logging.Int("placed", summary.Placed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.Finished.Sub(summary.Started)))
	return summary, nil
}

func (s *Scanner) scanSource(ctx context.Context, source config.SourceSnapshot, summary *Summary) {
	logger := logging.WithContext(ctx, s.logger)

	priors, err := s.ledger.PriorSuccesses(ctx, source.Path)
	if err != nil {
		// A broken ledger degrades to a full rescan instead of aborting.
		logger.Warn("prior successes unavailable",
			logging.Error(services.Wrap(services.ErrLedger, "scanner", "prior_successes", "", err)))
		priors = map[string]ledger.Prior{}
	}

	walkErr := filepath.WalkDir(source.Path, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("walk error", logging.String("path", path), logging.Error(err))
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		// Pipes, sockets, and device nodes never enter the pipeline; linking
		// one would put a non-file in the library and copying one can block
		// forever.
		if !entry.Type().IsRegular() {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if _, ok := s.extensions[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			logger.Warn("stat failed", logging.String("path", path), logging.Error(err))
			return nil
		}
		rel, err := filepath.Rel(source.Path, path)
		if err != nil {
			logger.Warn("relative path failed", logging.String("path", path), logging.Error(err))
			return nil
		}
		relDir := filepath.Dir(rel)

		file := classify.NewFileInfo(path, relDir, info.Size(), info.ModTime())
		s.processFile(services.WithFile(ctx, file.RelPath()), source, file, priors, summary)
		return nil
	})
	if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
		logger.Warn("source walk aborted", logging.Error(walkErr))
	}
}

func (s *Scanner) record(ctx context.Context, rec ledger.Record) {
	if err := s.ledger.RecordOutcome(ctx, rec); err != nil {
		logging.WithContext(ctx, s.logger).Warn("outcome not recorded",
			logging.Error(services.Wrap(services.ErrLedger, "scanner", "record_outcome", "", err)))
	}
}
