// Package logging configures slog output for mediasort. It provides a
// single-line console handler for interactive use, a JSON handler for
// log files and pipes, attribute helper shims, and context-derived fields
// that tie log lines to a scan run and the file in flight.
package logging
