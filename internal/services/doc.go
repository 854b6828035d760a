// Package services defines shared utilities consumed by the alignment pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and stage names for logging
//     and tracing.
//   - Structured error markers plus the Wrap helper that tag failures with the
//     pipeline's error taxonomy so the orchestrator can report a kind alongside
//     the diagnostic text.
//
// Use these helpers when wiring new pipeline steps so error reporting and
// observability stay uniform across the run.
package services
