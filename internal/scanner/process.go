package scanner

import (
	"context"
	"os"
	"path/filepath"

	"mediasort/internal/catalog"
	"mediasort/internal/classify"
	"mediasort/internal/config"
	"mediasort/internal/fileutil"
	"mediasort/internal/ledger"
	"mediasort/internal/logging"
	"mediasort/internal/pathgen"
	"mediasort/internal/services"
	"mediasort/internal/textutil"
)

// processFile runs one file through the pipeline: duplicate check, profile
// classification, pattern rules, identity resolution, path generation, and
// placement. Every terminal state is recorded in the ledger except the
// duplicate skip, which keeps the earlier record.
func (s *Scanner) processFile(
	ctx context.Context,
	source config.SourceSnapshot,
	file *classify.FileInfo,
	priors map[string]ledger.Prior,
	summary *Summary,
) {
	logger := logging.WithContext(ctx, s.logger)

	if prior, ok := priors[file.RelPath()]; ok &&
		prior.Size == file.Size && prior.ModTime.Equal(file.ModTime) {
		logger.Debug("unchanged since prior success")
		summary.Seen++
		s.count(summary, DispositionDuplicate, false)
		return
	}

	s.classifier.ApplyProfile(file, source.Profiles)
	if s.snapshot.Config.Options.OnlyProfiledDirs && file.ProfileDir == "" {
		logger.Debug("outside profiled directories")
		return
	}
	summary.Seen++

	base := ledger.Record{
		Source:  source.Path,
		RelPath: file.RelPath(),
		Size:    file.Size,
		ModTime: file.ModTime,
		RunID:   summary.RunID,
	}

	// Rules run on the profile-selected groups before the media type is
	// resolved, so a rewrite can normalize a stem into the tv pattern.
	base.RuleOutcomes = s.engine.Apply(ctx, file, source.RulesFor(file.PatternGroups))
	s.classifier.ResolveMediaType(file)
	base.MediaType = string(file.MediaType)

	if file.Ignore {
		base.Disposition = DispositionIgnored
		base.Success = true
		s.record(ctx, base)
		s.count(summary, DispositionIgnored, false)
		logger.Info("file ignored")
		return
	}

	destination, disposition, err := s.resolveAndPlace(ctx, file)
	base.DestinationPath = destination
	base.Disposition = disposition
	if err != nil {
		base.Error = err.Error()
		s.record(ctx, base)
		s.count(summary, disposition, true)
		logger.Warn("file not organized",
			logging.String("disposition", disposition),
			logging.Error(err))
		return
	}

	base.Success = true
	s.record(ctx, base)
	s.count(summary, disposition, false)
	logger.Info("file organized",
		logging.String("disposition", disposition),
		logging.String("destination", destination))
}

func (s *Scanner) count(summary *Summary, disposition string, failed bool) {
	summary.ByDisposition[disposition]++
	switch {
	case failed:
		summary.Failed++
	case disposition == DispositionLinked || disposition == DispositionCopied:
		summary.Placed++
	default:
		summary.Skipped++
	}
}

// resolveAndPlace resolves the file's identity against the catalog, renders
// its destination path, and places it. Returns the destination (when one was
// determined), the disposition, and the error for failed dispositions.
func (s *Scanner) resolveAndPlace(ctx context.Context, file *classify.FileInfo) (string, string, error) {
	var destination string
	var err error

	switch file.MediaType {
	case classify.TypeTV:
		destination, err = s.resolveEpisode(ctx, file)
	default:
		destination, err = s.resolveMovie(ctx, file)
	}
	if err != nil {
		switch {
		case services.IsNotFound(err) || services.IsTransient(err):
			return "", DispositionNotFound, err
		default:
			return "", DispositionParseFailure, err
		}
	}

	return s.place(file, destination)
}

func (s *Scanner) resolveMovie(ctx context.Context, file *classify.FileInfo) (string, error) {
	if !s.parser.ParseMovie(file) {
		return "", services.Wrap(services.ErrParse, "scanner", "parse_movie",
			"filename does not match the movie pattern", nil)
	}

	candidate, err := s.movieCandidate(ctx, file)
	if err != nil {
		return "", err
	}

	meta := pathgen.MovieMeta{Title: candidate.DisplayTitle(), Year: candidate.Year()}
	if meta.Year == 0 {
		meta.Year = file.Year
	}
	return s.generator.MoviePath(s.snapshot.Config.Paths.DestinationDir,
		file.DestinationSubfolder, meta, file.Name)
}

// movieCandidate searches the catalog for the parsed title, then retries
// once with a stripped-down guess when the exact title finds nothing. The
// first result wins; the catalog's own ranking is trusted.
func (s *Scanner) movieCandidate(ctx context.Context, file *classify.FileInfo) (*catalog.Candidate, error) {
	logger := logging.WithContext(ctx, s.logger)

	candidates, err := s.catalog.SearchMovie(ctx, file.Title, file.Year)
	if err != nil {
		logger.Debug("movie search failed", logging.Error(err))
	}
	if len(candidates) > 0 {
		return &candidates[0], nil
	}

	guess := textutil.GuessTitle(file.Title)
	if guess != "" && guess != file.Title {
		logger.Debug("retrying search with guessed title", logging.String("guess", guess))
		retried, retryErr := s.catalog.SearchMovie(ctx, guess, file.Year)
		if retryErr != nil {
			logger.Debug("guessed title search failed", logging.Error(retryErr))
		}
		if len(retried) > 0 {
			return &retried[0], nil
		}
		if err == nil {
			err = retryErr
		}
	}

	if err != nil {
		return nil, err
	}
	return nil, services.Wrap(services.ErrNotFound, "scanner", "search_movie",
		"no catalog match for "+file.Title, nil)
}

func (s *Scanner) resolveEpisode(ctx context.Context, file *classify.FileInfo) (string, error) {
	logger := logging.WithContext(ctx, s.logger)

	if !s.parser.ParseTV(file) {
		return "", services.Wrap(services.ErrParse, "scanner", "parse_tv",
			"filename does not match the tv pattern", nil)
	}

	candidates, err := s.catalog.SearchTV(ctx, file.Title, file.Year)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", services.Wrap(services.ErrNotFound, "scanner", "search_tv",
			"no catalog match for "+file.Title, nil)
	}
	show := candidates[0]

	meta := pathgen.EpisodeMeta{
		ShowTitle: show.DisplayTitle(),
		ShowYear:  show.Year(),
		Season:    file.Season,
		Episode:   file.Episode,
	}
	if meta.ShowYear == 0 {
		meta.ShowYear = file.Year
	}

	// A missing episode title degrades the rendered name, never the run.
	episode, err := s.catalog.EpisodeDetails(ctx, show.ID, file.Season, file.Episode)
	if err != nil {
		logger.Debug("episode details unavailable", logging.Error(err))
	} else if episode != nil {
		meta.EpisodeTitle = episode.Name
	}

	return s.generator.EpisodePath(s.snapshot.Config.Paths.DestinationDir,
		file.DestinationSubfolder, meta, file.Name)
}

// place links or copies the file to its destination. An existing destination
// is a successful skip under skip_existing and an overwrite otherwise.
func (s *Scanner) place(file *classify.FileInfo, destination string) (string, string, error) {
	opts := s.snapshot.Config.Options

	if _, err := os.Stat(destination); err == nil {
		if opts.SkipExisting {
			return destination, DispositionSkippedExisting, nil
		}
		if err := os.Remove(destination); err != nil {
			return destination, DispositionIOError,
				services.Wrap(services.ErrIO, "scanner", "overwrite", "remove existing destination", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return destination, DispositionIOError,
			services.Wrap(services.ErrIO, "scanner", "place", "create destination directory", err)
	}

	if opts.LinkFiles {
		if err := fileutil.LinkOrCopy(file.OriginalPath, destination); err != nil {
			return destination, DispositionIOError,
				services.Wrap(services.ErrIO, "scanner", "place", "link into library", err)
		}
		return destination, DispositionLinked, nil
	}

	if err := fileutil.CopyFileVerified(file.OriginalPath, destination); err != nil {
		return destination, DispositionIOError,
			services.Wrap(services.ErrIO, "scanner", "place", "copy into library", err)
	}
	return destination, DispositionCopied, nil
}
