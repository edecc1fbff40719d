// Package logging assembles structured slog loggers and formatting helpers used
// across nabscan.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes field helpers so the orchestrator, the scan scheduler,
// and the maintenance subsystem tag log lines with the same keys (group, mode,
// cycle). The package also provides a no-op logger for tests and wiring code
// that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components
// emit data with the same shape and routing guarantees as the rest of the
// system.
package logging
