package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alumnet_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alumnet_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// ChatConnections tracks open chat WebSocket connections.
	ChatConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alumnet_chat_connections",
			Help: "Number of open chat connections",
		},
	)

	// NotificationsDispatched counts dispatched notifications by type and delivery (pushed|stored).
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alumnet_notifications_dispatched_total",
			Help: "Total number of dispatched notifications",
		},
		[]string{"type", "delivery"},
	)

	// DigestEmails counts threshold-triggered digest emails by result (sent|failed).
	DigestEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alumnet_digest_emails_total",
			Help: "Total number of digest emails",
		},
		[]string{"result"},
	)
)
