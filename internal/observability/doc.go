// Package observability groups structured logging, Prometheus metrics and
// OpenTelemetry tracing helpers shared by the worker and the one-shot importer.
package observability
