package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultDelivered = "delivered"
	resultFailed    = "failed"

	dropPoolFull    = "pool_full"
	dropCircuitOpen = "circuit_open"
)

var (
	eventNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_notifications_total",
		Help: "Imported-event notifications by channel and result (delivered, failed)",
	}, []string{"channel", "result"})

	eventNotificationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "events_notification_duration_seconds",
		Help:    "Time spent delivering one imported-event notification",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
	}, []string{"channel"})

	eventNotificationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_notifications_dropped_total",
		Help: "Imported-event notifications never attempted, by reason (pool_full, circuit_open)",
	}, []string{"channel", "reason"})

	notificationsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "events_notifications_in_flight",
		Help: "Notification goroutines currently waiting or sending",
	})
)

func recordResult(channel string, err error, d time.Duration) {
	result := resultDelivered
	if err != nil {
		result = resultFailed
	}
	eventNotifications.WithLabelValues(channel, result).Inc()
	eventNotificationSeconds.WithLabelValues(channel).Observe(d.Seconds())
}

func recordDropped(channel, reason string) {
	eventNotificationsDropped.WithLabelValues(channel, reason).Inc()
}
