// Package logging assembles the structured slog loggers used across catalogd.
//
// It owns the console/JSON handler construction, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with run IDs and stage names automatically. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
