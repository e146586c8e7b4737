// Package tracing exposes the OpenTelemetry tracer used for "import.run" and
// "fetch.source" spans.
package tracing
