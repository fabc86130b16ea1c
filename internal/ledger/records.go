package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"mediasort/internal/rules"
)

// Record is one file's outcome for the current run. The (Source, RelPath)
// pair is the file's identity; re-recording the same identity overwrites the
// previous row.
type Record struct {
	Source          string
	RelPath         string
	Size            int64
	ModTime         time.Time
	MediaType       string
	Disposition     string
	Success         bool
	Error           string
	DestinationPath string
	RuleOutcomes    []rules.Outcome
	RunID           string
}

// Prior is the remembered identity of a previously successful file.
type Prior struct {
	Size            int64
	ModTime         time.Time
	DestinationPath string
}

// Entry is a full ledger row as shown by the CLI.
type Entry struct {
	Source          string
	RelPath         string
	Size            int64
	ModTime         time.Time
	MediaType       string
	Disposition     string
	Success         bool
	Error           string
	DestinationPath string
	RunID           string
	ProcessedAt     time.Time
}

// RecordOutcome upserts one file outcome.
func (s *Store) RecordOutcome(ctx context.Context, rec Record) error {
	var outcomesJSON any
	if len(rec.RuleOutcomes) > 0 {
		encoded, err := json.Marshal(rec.RuleOutcomes)
		if err != nil {
			return fmt.Errorf("marshal rule outcomes: %w", err)
		}
		outcomesJSON = string(encoded)
	}

	return s.execRetry(ctx,
		`INSERT INTO scanned_files (
            source, rel_path, filename, size, mod_time, media_type,
            disposition, success, error, destination_path,
            rule_outcomes_json, run_id, processed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (source, rel_path) DO UPDATE SET
            filename = excluded.filename,
            size = excluded.size,
            mod_time = excluded.mod_time,
            media_type = excluded.media_type,
            disposition = excluded.disposition,
            success = excluded.success,
            error = excluded.error,
            destination_path = excluded.destination_path,
            rule_outcomes_json = excluded.rule_outcomes_json,
            run_id = excluded.run_id,
            processed_at = excluded.processed_at`,
		rec.Source,
		rec.RelPath,
		filepath.Base(rec.RelPath),
		rec.Size,
		rec.ModTime.UTC().Format(time.RFC3339Nano),
		nullableString(rec.MediaType),
		rec.Disposition,
		boolToInt(rec.Success),
		nullableString(rec.Error),
		nullableString(rec.DestinationPath),
		outcomesJSON,
		nullableString(rec.RunID),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
}

// PriorSuccesses returns the identities of files already organized from the
// given source, keyed by source-relative path.
func (s *Store) PriorSuccesses(ctx context.Context, source string) (map[string]Prior, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rel_path, size, mod_time, COALESCE(destination_path, '')
         FROM scanned_files
         WHERE source = ? AND success = 1`,
		source,
	)
	if err != nil {
		return nil, fmt.Errorf("query prior successes: %w", err)
	}
	defer rows.Close()

	priors := map[string]Prior{}
	for rows.Next() {
		var relPath, modTime, destination string
		var size int64
		if err := rows.Scan(&relPath, &size, &modTime, &destination); err != nil {
			return nil, fmt.Errorf("scan prior success: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, modTime)
		if err != nil {
			return nil, fmt.Errorf("parse mod time for %s: %w", relPath, err)
		}
		priors[relPath] = Prior{Size: size, ModTime: parsed, DestinationPath: destination}
	}
	return priors, rows.Err()
}

// StartRun records the beginning of a scan run.
func (s *Store) StartRun(ctx context.Context, runID string, startedAt time.Time) error {
	return s.execRetry(ctx,
		`INSERT INTO scan_runs (id, started_at) VALUES (?, ?)`,
		runID, startedAt.UTC().Format(time.RFC3339Nano),
	)
}

// FinishRun records a scan run's completion and counters.
func (s *Store) FinishRun(ctx context.Context, runID string, finishedAt time.Time, seen, placed, skipped, failed int) error {
	return s.execRetry(ctx,
		`UPDATE scan_runs SET finished_at = ?, files_seen = ?, files_placed = ?,
            files_skipped = ?, files_failed = ?
         WHERE id = ?`,
		finishedAt.UTC().Format(time.RFC3339Nano), seen, placed, skipped, failed, runID,
	)
}

// Stats summarizes the ledger for the CLI.
type Stats struct {
	Total         int
	Succeeded     int
	Failed        int
	ByDisposition map[string]int
}

// Summarize computes ledger-wide counts.
func (s *Store) Summarize(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByDisposition: map[string]int{}}

	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1),
            COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0)
         FROM scanned_files`)
	if err := row.Scan(&stats.Total, &stats.Succeeded, &stats.Failed); err != nil {
		return nil, fmt.Errorf("scan totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT disposition, COUNT(1) FROM scanned_files GROUP BY disposition`)
	if err != nil {
		return nil, fmt.Errorf("query dispositions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var disposition string
		var count int
		if err := rows.Scan(&disposition, &count); err != nil {
			return nil, fmt.Errorf("scan disposition: %w", err)
		}
		stats.ByDisposition[disposition] = count
	}
	return stats, rows.Err()
}

// Recent returns the most recently processed entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, rel_path, size, mod_time, COALESCE(media_type, ''),
            disposition, success, COALESCE(error, ''),
            COALESCE(destination_path, ''), COALESCE(run_id, ''), processed_at
         FROM scanned_files
         ORDER BY processed_at DESC
         LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Clear removes all ledger rows. Scan runs are kept; they describe history,
// not file identity.
func (s *Store) Clear(ctx context.Context) error {
	return s.execRetry(ctx, `DELETE FROM scanned_files`)
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var entry Entry
	var modTime, processedAt string
	var success int
	if err := scanner.Scan(
		&entry.Source, &entry.RelPath, &entry.Size, &modTime, &entry.MediaType,
		&entry.Disposition, &success, &entry.Error,
		&entry.DestinationPath, &entry.RunID, &processedAt,
	); err != nil {
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}
	entry.Success = success != 0
	var err error
	if entry.ModTime, err = time.Parse(time.RFC3339Nano, modTime); err != nil {
		return nil, fmt.Errorf("parse mod time: %w", err)
	}
	if entry.ProcessedAt, err = time.Parse(time.RFC3339Nano, processedAt); err != nil {
		return nil, fmt.Errorf("parse processed time: %w", err)
	}
	return &entry, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
