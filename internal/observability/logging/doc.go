// Package logging provides log/slog helpers: JSON and text constructors driven by
// LOG_LEVEL, and context propagation of a run-scoped logger carrying run_id.
package logging
