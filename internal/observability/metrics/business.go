package metrics

import (
	"time"
)

// RecordSourceFetch records a successful adapter call.
func RecordSourceFetch(kind string, count int, duration time.Duration) {
	EventsFetchedTotal.WithLabelValues(kind).Add(float64(count))
	SourceFetchDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordSourceFetchError records a failed adapter call.
// errorType is a short classification such as "unknown_kind", "fetch" or "panic".
func RecordSourceFetchError(kind, errorType string) {
	SourceFetchErrorsTotal.WithLabelValues(kind, errorType).Inc()
}

// RecordImportRun records the outcome and duration of a controller run.
func RecordImportRun(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	ImportRunsTotal.WithLabelValues(status).Inc()
	ImportRunDuration.Observe(duration.Seconds())
}

// RecordEventImported records a newly created event.
func RecordEventImported(score int) {
	EventsImportedTotal.Inc()
	RelevanceScore.Observe(float64(score))
}

// RecordEventUpdated records an in-place refresh of an existing event.
func RecordEventUpdated() {
	EventsUpdatedTotal.Inc()
}

// RecordEventSkipped records an event the controller did not import.
func RecordEventSkipped(reason string) {
	EventsSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordEnrichment records a text-generation attempt made on behalf of an event.
// kind is "description" or "seo".
func RecordEnrichment(kind string, success bool) {
	status := "success"
	if !success {
		status = "fallback"
	}
	EnrichmentTotal.WithLabelValues(kind, status).Inc()
}
