package worker

import (
	"sactech-events/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics provides Prometheus metrics for the worker component.
// It embeds ConfigMetrics for configuration monitoring and adds scheduled
// import job metrics.
//
// Embedded metrics (from ConfigMetrics):
//   - worker_config_load_timestamp
//   - worker_config_validation_errors_total{field}
//   - worker_config_fallbacks_total{field}
//   - worker_config_fallback_active
//
// Worker-specific metrics:
//   - worker_job_runs_total{status}: scheduled runs by status (success/failure/skipped)
//   - worker_job_duration_seconds: duration histogram of scheduled runs
//   - worker_job_events_imported_total: events created by scheduled runs
//   - worker_job_last_success_timestamp: Unix timestamp of last successful run
//   - worker_schedule_changes_total: cadence reschedules
//
// Metrics are registered with the default registry, so NewWorkerMetrics may
// only be called once per process.
type WorkerMetrics struct {
	*config.ConfigMetrics

	// JobRunsTotal counts scheduled runs.
	// Labels: status (success, failure, skipped)
	JobRunsTotal *prometheus.CounterVec

	// JobDurationSeconds measures scheduled run duration.
	// Buckets: 1s, 5s, 30s, 1m, 5m, 15m, 30m
	JobDurationSeconds prometheus.Histogram

	// JobEventsImportedTotal accumulates created events across runs.
	JobEventsImportedTotal prometheus.Counter

	// JobLastSuccessTimestamp is set when a run completes without error.
	JobLastSuccessTimestamp prometheus.Gauge

	// ScheduleChangesTotal counts cadence changes picked up from the store.
	ScheduleChangesTotal prometheus.Counter
}

// NewWorkerMetrics creates and registers the worker metrics.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		JobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_job_runs_total",
			Help: "Total number of scheduled import runs by status",
		}, []string{"status"}),

		JobDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of scheduled import runs in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		JobEventsImportedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_job_events_imported_total",
			Help: "Total number of events created by scheduled import runs",
		}),

		JobLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful scheduled import run",
		}),

		ScheduleChangesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_schedule_changes_total",
			Help: "Total number of import cadence changes applied by the scheduler",
		}),
	}
}

// RecordJobRun increments the run counter for status.
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.JobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes a run duration in seconds.
func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.JobDurationSeconds.Observe(seconds)
}

// RecordEventsImported adds count created events.
func (m *WorkerMetrics) RecordEventsImported(count int) {
	m.JobEventsImportedTotal.Add(float64(count))
}

// RecordLastSuccess stamps the current time as the last successful run.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.JobLastSuccessTimestamp.SetToCurrentTime()
}

// RecordScheduleChange counts an applied cadence change.
func (m *WorkerMetrics) RecordScheduleChange() {
	m.ScheduleChangesTotal.Inc()
}
