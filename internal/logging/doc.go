// Package logging assembles the structured slog loggers used across keepsake.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with the run ID, the file being processed, and the current stage.
// A no-op logger is provided for tests and for wiring that cannot fail.
package logging
