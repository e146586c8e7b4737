package textgen

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opDescription = "description"
	opSEO         = "seo"

	statusSuccess    = "success"
	statusError      = "error"
	statusRejected   = "rejected"
	statusParseError = "parse_error"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textgen_requests_total",
			Help: "Text generation requests by provider, operation and status",
		},
		[]string{"provider", "operation", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "textgen_request_duration_seconds",
			Help:    "Text generation request duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 45},
		},
		[]string{"provider", "operation"},
	)
)

func recordRequest(provider, op, status string) {
	requestsTotal.WithLabelValues(provider, op, status).Inc()
}

func observeDuration(provider, op string, d time.Duration) {
	requestDuration.WithLabelValues(provider, op).Observe(d.Seconds())
}
