package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Source fetch metrics
var (
	// EventsFetchedTotal counts raw events returned by adapters, by source kind
	EventsFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_fetched_total",
			Help: "Total number of raw events returned by source adapters",
		},
		[]string{"source_kind"},
	)

	// SourceFetchErrorsTotal counts adapter failures that made a source contribute nothing
	SourceFetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_source_fetch_errors_total",
			Help: "Total number of source fetches that failed",
		},
		[]string{"source_kind", "error_type"},
	)

	// SourceFetchDuration measures how long one adapter call takes
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "events_source_fetch_duration_seconds",
			Help:    "Duration of a single source fetch in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"source_kind"},
	)
)

// Import pipeline metrics
var (
	// ImportRunsTotal counts controller runs by outcome (success, failure)
	ImportRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_import_runs_total",
			Help: "Total number of import runs",
		},
		[]string{"status"},
	)

	// ImportRunDuration measures the wall time of a full import run
	ImportRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "events_import_run_duration_seconds",
			Help:    "Duration of an import run in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// EventsImportedTotal counts newly created events
	EventsImportedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_imported_total",
			Help: "Total number of events created in the event store",
		},
	)

	// EventsUpdatedTotal counts existing events refreshed in place
	EventsUpdatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_updated_total",
			Help: "Total number of existing events updated in place",
		},
	)

	// EventsSkippedTotal counts events that were not imported, by reason
	EventsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_skipped_total",
			Help: "Total number of fetched events that were not imported",
		},
		[]string{"reason"},
	)

	// RelevanceScore records the score distribution seen by the controller
	RelevanceScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "events_relevance_score",
			Help:    "Relevance scores of fetched events",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	// EnrichmentTotal counts text-generation outcomes at the controller
	EnrichmentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_enrichment_total",
			Help: "Total number of enrichment attempts by kind and outcome",
		},
		[]string{"kind", "status"},
	)
)
