package config

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics counts configuration fallbacks for one component. The worker
// shares one instance between its environment and the option store, so a bad
// stored min_relevance_score shows up next to a bad WORKER_TIMEZONE.
//
// Metrics, prefixed with the component name:
//   - {component}_config_load_timestamp
//   - {component}_config_validation_errors_total{field}
//   - {component}_config_fallbacks_total{field}
//   - {component}_config_fallback_active
//
// Every method is safe on a nil receiver; a nil ConfigMetrics only logs.
type ConfigMetrics struct {
	LoadTimestamp         prometheus.Gauge
	ValidationErrorsTotal *prometheus.CounterVec
	FallbacksTotal        *prometheus.CounterVec
	FallbackActive        prometheus.Gauge
}

// NewConfigMetrics registers the metrics for component with the default
// registry. Each component name may be used once per process.
func NewConfigMetrics(component string) *ConfigMetrics {
	name := func(suffix string) string { return component + "_config_" + suffix }
	return &ConfigMetrics{
		LoadTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: name("load_timestamp"),
			Help: "Unix timestamp of the last " + component + " configuration load",
		}),
		ValidationErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: name("validation_errors_total"),
			Help: "Invalid " + component + " configuration values by field",
		}, []string{"field"}),
		FallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: name("fallbacks_total"),
			Help: "Defaults applied in place of invalid " + component + " configuration values, by field",
		}, []string{"field"}),
		FallbackActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: name("fallback_active"),
			Help: "1 while any " + component + " configuration value runs on its default after a fallback",
		}),
	}
}

// RecordLoadTimestamp stamps the current time as the last load.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	if m != nil {
		m.LoadTimestamp.SetToCurrentTime()
	}
}

// SetFallbackActive sets the fallback gauge.
func (m *ConfigMetrics) SetFallbackActive(active bool) {
	if m == nil {
		return
	}
	v := 0.0
	if active {
		v = 1
	}
	m.FallbackActive.Set(v)
}

// Observe logs the warnings of result and counts a fallback for field. It
// reports whether a fallback was applied.
func (m *ConfigMetrics) Observe(field string, result ConfigLoadResult) bool {
	for _, w := range result.Warnings {
		slog.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", w))
	}
	if m != nil && result.FallbackApplied {
		m.ValidationErrorsTotal.WithLabelValues(field).Inc()
		m.FallbacksTotal.WithLabelValues(field).Inc()
	}
	return result.FallbackApplied
}
