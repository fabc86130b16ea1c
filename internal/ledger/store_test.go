package ledger_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mediasort/internal/ledger"
	"mediasort/internal/rules"
)

func mustOpen(t *testing.T) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordOutcomeAndPriorSuccesses(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()
	modTime := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	rec := ledger.Record{
		Source:          "/incoming",
		RelPath:         "shows/great.show.s01e01.mkv",
		Size:            4096,
		ModTime:         modTime,
		MediaType:       "tv",
		Disposition:     "linked",
		Success:         true,
		DestinationPath: "/library/tv/Great Show/Season 01/great.show.s01e01.mkv",
		RunID:           "run-1",
		RuleOutcomes: []rules.Outcome{
			{RuleID: "abc", Rule: "normalize", Applied: true},
		},
	}
	if err := store.RecordOutcome(ctx, rec); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	priors, err := store.PriorSuccesses(ctx, "/incoming")
	if err != nil {
		t.Fatalf("PriorSuccesses: %v", err)
	}
	prior, ok := priors["shows/great.show.s01e01.mkv"]
	if !ok {
		t.Fatalf("prior not found in %v", priors)
	}
	if prior.Size != 4096 || !prior.ModTime.Equal(modTime) {
		t.Fatalf("prior = %+v", prior)
	}
}

func TestRecordOutcomeUpsertsOnIdentity(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	rec := ledger.Record{
		Source:      "/incoming",
		RelPath:     "movie.mkv",
		Size:        1,
		ModTime:     time.Now(),
		Disposition: "io-error",
		Success:     false,
		Error:       "link failed",
	}
	if err := store.RecordOutcome(ctx, rec); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	rec.Disposition = "linked"
	rec.Success = true
	rec.Error = ""
	if err := store.RecordOutcome(ctx, rec); err != nil {
		t.Fatalf("RecordOutcome upsert: %v", err)
	}

	stats, err := store.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if stats.Total != 1 || stats.Succeeded != 1 || stats.Failed != 0 {
		t.Fatalf("stats = %+v, want single upserted success", stats)
	}
	if stats.ByDisposition["linked"] != 1 {
		t.Fatalf("dispositions = %v", stats.ByDisposition)
	}
}

func TestFailuresAreNotPriorSuccesses(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	rec := ledger.Record{
		Source:      "/incoming",
		RelPath:     "broken.mkv",
		Size:        1,
		ModTime:     time.Now(),
		Disposition: "parse-failure",
		Success:     false,
		Error:       "no pattern matched",
	}
	if err := store.RecordOutcome(ctx, rec); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	priors, err := store.PriorSuccesses(ctx, "/incoming")
	if err != nil {
		t.Fatalf("PriorSuccesses: %v", err)
	}
	if len(priors) != 0 {
		t.Fatalf("priors = %v, want none", priors)
	}
}

func TestScanRunLifecycle(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()
	start := time.Now()

	if err := store.StartRun(ctx, "run-42", start); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := store.FinishRun(ctx, "run-42", start.Add(time.Minute), 10, 7, 2, 1); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	for _, name := range []string{"a.mkv", "b.mkv"} {
		rec := ledger.Record{
			Source:      "/incoming",
			RelPath:     name,
			Size:        1,
			ModTime:     time.Now(),
			Disposition: "linked",
			Success:     true,
		}
		if err := store.RecordOutcome(ctx, rec); err != nil {
			t.Fatalf("RecordOutcome: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	entries, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].RelPath != "b.mkv" {
		t.Fatalf("order = [%s, %s]", entries[0].RelPath, entries[1].RelPath)
	}
}

func TestClear(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	rec := ledger.Record{
		Source:      "/incoming",
		RelPath:     "a.mkv",
		Size:        1,
		ModTime:     time.Now(),
		Disposition: "linked",
		Success:     true,
	}
	if err := store.RecordOutcome(ctx, rec); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	stats, err := store.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("stats = %+v after clear", stats)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.db")
	store, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	reopened, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = reopened.Close()
}
