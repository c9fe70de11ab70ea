// Package logging assembles structured slog loggers and formatting helpers used
// across voicecast.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with book and chapter ids, stage names, and correlation ids. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
