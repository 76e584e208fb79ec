// Package logging assembles structured slog loggers and formatting helpers
// used across crate services.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes typed attribute helpers so cache and prefetch code emits log
// lines with a consistent shape. The package also provides a no-op logger for
// tests and wiring code that cannot fail.
package logging
