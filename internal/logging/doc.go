// Package logging assembles structured slog loggers and formatting helpers used
// across cocoprep jobs.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so job code can automatically
// tag log lines with the run ID, job, category, and split. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every job emits
// data with the same shape.
package logging
