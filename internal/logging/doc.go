// Package logging assembles structured slog loggers and formatting helpers used
// across mpsync.
//
// It owns the configurable console/JSON handlers, the rotating log file sink,
// and context-aware helpers so phase code automatically tags log lines with
// the run ID, the phase name and the playlist track being processed. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
