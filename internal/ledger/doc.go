// Package ledger persists the outcome of every scanned file in SQLite. The
// ledger is what makes scans idempotent: a file whose identity (path, size,
// modification time) matches a prior success is skipped on later runs.
package ledger
