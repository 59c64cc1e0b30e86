// Package logging assembles the slog loggers used across SubInspector.
//
// It owns the console and JSON handlers, level parsing and output routing,
// the standard field keys, and context helpers that tag log lines with the
// audit run and the file being inspected. NewNop gives tests and wiring code
// a logger that discards everything.
package logging
