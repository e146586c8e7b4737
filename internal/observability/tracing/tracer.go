package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanImportRun   = "import.run"
	SpanFetchSource = "fetch.source"
)

// Spans are no-ops until a TracerProvider is installed with otel.SetTracerProvider.
var tracer = otel.Tracer("sactech-events")

// GetTracer returns the importer tracer.
//
//	ctx, span := tracing.GetTracer().Start(ctx, tracing.SpanFetchSource)
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}

// Fail records err on span and marks it failed. A nil err is ignored.
func Fail(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
