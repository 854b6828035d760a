// Package logging assembles structured slog loggers and formatting helpers used
// across texthighlight.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with run identifiers and stage names. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Console and JSON output default to stderr: stdout is reserved for the
// pipeline result printed by the CLI.
package logging
