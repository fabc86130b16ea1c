package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks failures detected before any file is touched.
	// These are fatal to the process.
	ErrConfiguration = errors.New("configuration error")
	// ErrRule marks a failure isolated to a single pattern rule. Evaluation
	// of later rules continues.
	ErrRule = errors.New("rule error")
	// ErrParse marks a filename the configured patterns could not parse.
	ErrParse = errors.New("parse failure")
	// ErrNotFound marks a metadata lookup that returned no candidate.
	ErrNotFound = errors.New("not found")
	// ErrIO marks a placement failure (link, copy, or directory creation).
	ErrIO = errors.New("io failure")
	// ErrLedger marks a ledger access failure. The scan continues without
	// prior-state knowledge rather than aborting.
	ErrLedger = errors.New("ledger error")
	// ErrTransient marks failures with no better classification.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error should abort the process rather than be
// recorded as a per-file outcome.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsNotFound reports whether an error represents a missing upstream record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransient reports whether an error is worth retrying on a later run.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
