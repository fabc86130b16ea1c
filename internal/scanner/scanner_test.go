package scanner_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"mediasort/internal/catalog"
	"mediasort/internal/classify"
	"mediasort/internal/config"
	"mediasort/internal/ledger"
	"mediasort/internal/logging"
	"mediasort/internal/rules"
	"mediasort/internal/scanner"
)

type fakeCatalog struct {
	movies       map[string][]catalog.Candidate
	shows        map[string][]catalog.Candidate
	episodes     map[string]*catalog.Episode
	movieQueries []string
	err          error
}

func (f *fakeCatalog) SearchMovie(_ context.Context, query string, _ int) ([]catalog.Candidate, error) {
	f.movieQueries = append(f.movieQueries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.movies[query], nil
}

func (f *fakeCatalog) SearchTV(_ context.Context, query string, _ int) ([]catalog.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.shows[query], nil
}

func (f *fakeCatalog) EpisodeDetails(_ context.Context, showID int64, season, episode int) (*catalog.Episode, error) {
	return f.episodes[fmt.Sprintf("%d/%d/%d", showID, season, episode)], nil
}

type fixture struct {
	sourceDir string
	destDir   string
	snapshot  *config.Snapshot
	catalog   *fakeCatalog
	store     *ledger.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	sourceDir := filepath.Join(root, "incoming")
	destDir := filepath.Join(root, "library")
	for _, dir := range []string{sourceDir, destDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.Paths.DestinationDir = destDir
	cfg.TMDB.APIKey = "test"
	cfg.Options.VideoExtensions = []string{".mkv"}
	cfg.Sources = []config.Source{{Path: sourceDir}}

	store, err := ledger.Open(filepath.Join(root, "ledger.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return &fixture{
		sourceDir: sourceDir,
		destDir:   destDir,
		snapshot: &config.Snapshot{
			Config:  &cfg,
			Sources: []config.SourceSnapshot{{Path: sourceDir, Groups: map[string][]rules.Rule{}}},
		},
		catalog: &fakeCatalog{
			movies:   map[string][]catalog.Candidate{},
			shows:    map[string][]catalog.Candidate{},
			episodes: map[string]*catalog.Episode{},
		},
		store: store,
	}
}

func (f *fixture) writeSource(t *testing.T, rel string) string {
	t.Helper()
	path := filepath.Join(f.sourceDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("payload for "+rel), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (f *fixture) run(t *testing.T) *scanner.Summary {
	t.Helper()
	s, err := scanner.New(f.snapshot, f.catalog, f.store, logging.NewNop())
	if err != nil {
		t.Fatalf("scanner.New: %v", err)
	}
	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return summary
}

func (f *fixture) entry(t *testing.T, relPath string) ledger.Entry {
	t.Helper()
	entries, err := f.store.Recent(context.Background(), 100)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	for _, entry := range entries {
		if entry.RelPath == relPath {
			return entry
		}
	}
	t.Fatalf("no ledger entry for %q in %+v", relPath, entries)
	return ledger.Entry{}
}

func TestMovieIsLinkedIntoLibrary(t *testing.T) {
	f := newFixture(t)
	src := f.writeSource(t, "The.Big.Film.1999.1080p.mkv")
	f.catalog.movies["The Big Film"] = []catalog.Candidate{
		{ID: 1, Title: "The Big Film", ReleaseDate: "1999-10-15"},
	}

	summary := f.run(t)

	dest := filepath.Join(f.destDir, "movies", "The Big Film (1999)", "The.Big.Film.1999.1080p.mkv")
	destInfo, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	srcInfo, _ := os.Stat(src)
	if !os.SameFile(srcInfo, destInfo) {
		t.Fatal("destination is not a hard link of the source")
	}
	if summary.Placed != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	entry := f.entry(t, "The.Big.Film.1999.1080p.mkv")
	if !entry.Success || entry.Disposition != scanner.DispositionLinked {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.DestinationPath != dest {
		t.Fatalf("destination = %q", entry.DestinationPath)
	}
}

func TestSecondRunSkipsUnchangedFiles(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "The.Big.Film.1999.mkv")
	f.catalog.movies["The Big Film"] = []catalog.Candidate{
		{ID: 1, Title: "The Big Film", ReleaseDate: "1999-01-01"},
	}

	first := f.run(t)
	if first.Placed != 1 {
		t.Fatalf("first run summary = %+v", first)
	}

	second := f.run(t)
	if second.Placed != 0 || second.Skipped != 1 {
		t.Fatalf("second run summary = %+v", second)
	}
	if second.ByDisposition[scanner.DispositionDuplicate] != 1 {
		t.Fatalf("dispositions = %v", second.ByDisposition)
	}
}

func TestModifiedFileIsReprocessed(t *testing.T) {
	f := newFixture(t)
	path := f.writeSource(t, "The.Big.Film.1999.mkv")
	f.catalog.movies["The Big Film"] = []catalog.Candidate{
		{ID: 1, Title: "The Big Film", ReleaseDate: "1999-01-01"},
	}

	f.run(t)
	if err := os.WriteFile(path, []byte("a different, longer payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	second := f.run(t)
	if second.ByDisposition[scanner.DispositionDuplicate] != 0 {
		t.Fatalf("changed file treated as duplicate: %+v", second.ByDisposition)
	}
	// Destination already exists from the first run, so the second pass is a
	// successful skip-existing.
	if second.ByDisposition[scanner.DispositionSkippedExisting] != 1 {
		t.Fatalf("dispositions = %v", second.ByDisposition)
	}
}

func TestEpisodeRuleRewriteAndPlacement(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "great.show.2x5.mkv")
	f.snapshot.Sources[0].Groups["generic"] = []rules.Rule{{
		Name:         "normalize-episode-tag",
		Regex:        `(?P<title>.+?)\.(?P<season>\d+)x(?P<episode>\d+)`,
		Substitution: "{title}.S{season}E{episode}",
	}}
	f.catalog.shows["great show"] = []catalog.Candidate{
		{ID: 7, Name: "Great Show", FirstAirDate: "2015-04-01"},
	}
	f.catalog.episodes["7/2/5"] = &catalog.Episode{Name: "The One", SeasonNumber: 2, EpisodeNumber: 5}

	summary := f.run(t)

	dest := filepath.Join(f.destDir, "tv", "Great Show", "Season 02", "great.show.2x5.mkv")
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	if summary.Placed != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	entry := f.entry(t, "great.show.2x5.mkv")
	if entry.MediaType != "tv" || entry.Disposition != scanner.DispositionLinked {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestIgnoreRuleRecordsSuccessWithoutPlacement(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "some.movie.2001.sample.mkv")
	f.snapshot.Sources[0].Groups["generic"] = []rules.Rule{{
		Regex:  `\bsample\b`,
		Ignore: true,
	}}

	summary := f.run(t)

	if summary.Placed != 0 || summary.Failed != 0 || summary.Skipped != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	entry := f.entry(t, "some.movie.2001.sample.mkv")
	if !entry.Success || entry.Disposition != scanner.DispositionIgnored {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.DestinationPath != "" {
		t.Fatalf("ignored file has destination %q", entry.DestinationPath)
	}
}

func TestParseFailureIsRecorded(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "no-year-anywhere.mkv")

	summary := f.run(t)

	if summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	entry := f.entry(t, "no-year-anywhere.mkv")
	if entry.Success || entry.Disposition != scanner.DispositionParseFailure || entry.Error == "" {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestMovieLookupRetriesWithGuessedTitle(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "Some.Film.YIFY.1080p.2003.mkv")
	// Only the stripped-down guess finds a match.
	f.catalog.movies["Some Film"] = []catalog.Candidate{
		{ID: 3, Title: "Some Film", ReleaseDate: "2003-06-01"},
	}

	summary := f.run(t)

	if summary.Placed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(f.catalog.movieQueries) != 2 || f.catalog.movieQueries[1] != "Some Film" {
		t.Fatalf("queries = %v, want exact then guess", f.catalog.movieQueries)
	}
}

func TestUnmatchedLookupIsRecordedNotFound(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "Obscure.Film.1971.mkv")

	summary := f.run(t)

	if summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	entry := f.entry(t, "Obscure.Film.1971.mkv")
	if entry.Success || entry.Disposition != scanner.DispositionNotFound {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestCopyModePlacesIndependentFile(t *testing.T) {
	f := newFixture(t)
	src := f.writeSource(t, "The.Big.Film.1999.mkv")
	f.snapshot.Config.Options.LinkFiles = false
	f.catalog.movies["The Big Film"] = []catalog.Candidate{
		{ID: 1, Title: "The Big Film", ReleaseDate: "1999-01-01"},
	}

	f.run(t)

	dest := filepath.Join(f.destDir, "movies", "The Big Film (1999)", "The.Big.Film.1999.mkv")
	destInfo, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	srcInfo, _ := os.Stat(src)
	if os.SameFile(srcInfo, destInfo) {
		t.Fatal("copy mode produced a hard link")
	}
	entry := f.entry(t, "The.Big.Film.1999.mkv")
	if entry.Disposition != scanner.DispositionCopied {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestSkipExistingDestination(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "The.Big.Film.1999.mkv")
	f.catalog.movies["The Big Film"] = []catalog.Candidate{
		{ID: 1, Title: "The Big Film", ReleaseDate: "1999-01-01"},
	}
	dest := filepath.Join(f.destDir, "movies", "The Big Film (1999)", "The.Big.Film.1999.mkv")
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dest, []byte("already here"), 0o644); err != nil {
		t.Fatal(err)
	}

	summary := f.run(t)

	if summary.Placed != 0 || summary.Skipped != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	entry := f.entry(t, "The.Big.Film.1999.mkv")
	if !entry.Success || entry.Disposition != scanner.DispositionSkippedExisting {
		t.Fatalf("entry = %+v", entry)
	}
	content, _ := os.ReadFile(dest)
	if string(content) != "already here" {
		t.Fatal("existing destination was overwritten")
	}
}

func TestOnlyProfiledDirsSkipsUnprofiledFiles(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "stray/The.Big.Film.1999.mkv")
	f.writeSource(t, "movies/Other.Film.2001.mkv")
	f.snapshot.Config.Options.OnlyProfiledDirs = true
	f.snapshot.Sources[0].Profiles = []classify.Profile{{Path: "movies", MediaType: "movie"}}
	f.catalog.movies["Other Film"] = []catalog.Candidate{
		{ID: 2, Title: "Other Film", ReleaseDate: "2001-01-01"},
	}

	summary := f.run(t)

	if summary.Seen != 1 || summary.Placed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	entries, err := f.store.Recent(context.Background(), 100)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if entry.RelPath == "stray/The.Big.Film.1999.mkv" {
			t.Fatal("unprofiled file was recorded")
		}
	}
}

func TestProfileDestinationSubfolder(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "docs/Deep.Sea.2006.mkv")
	f.snapshot.Sources[0].Profiles = []classify.Profile{{
		Path:                 "docs",
		MediaType:            "movie",
		DestinationSubfolder: "Documentaries",
	}}
	f.catalog.movies["Deep Sea"] = []catalog.Candidate{
		{ID: 4, Title: "Deep Sea", ReleaseDate: "2006-03-03"},
	}

	f.run(t)

	dest := filepath.Join(f.destDir, "Documentaries", "movies", "Deep Sea (2006)", "Deep.Sea.2006.mkv")
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
}

func TestNonRegularFilesAreSkipped(t *testing.T) {
	f := newFixture(t)
	fifo := filepath.Join(f.sourceDir, "Fifo.Film.1999.mkv")
	if err := syscall.Mkfifo(fifo, 0o644); err != nil {
		t.Skipf("mkfifo unsupported here: %v", err)
	}
	f.catalog.movies["Fifo Film"] = []catalog.Candidate{
		{ID: 9, Title: "Fifo Film", ReleaseDate: "1999-01-01"},
	}

	summary := f.run(t)

	// A named pipe with a video extension must terminate at discovery:
	// no lookup, no placement, no ledger entry.
	if summary.Seen != 0 || summary.Placed != 0 {
		t.Fatalf("summary = %+v, want the pipe never entering the pipeline", summary)
	}
	if len(f.catalog.movieQueries) != 0 {
		t.Fatalf("queries = %v, want none", f.catalog.movieQueries)
	}
	if _, err := os.Stat(filepath.Join(f.destDir, "movies")); !os.IsNotExist(err) {
		t.Fatal("library gained a destination for a non-regular file")
	}
}

func TestNonVideoFilesAreIgnored(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "readme.txt")
	f.writeSource(t, "poster.jpg")

	summary := f.run(t)

	if summary.Seen != 0 {
		t.Fatalf("summary = %+v, want nothing seen", summary)
	}
}
