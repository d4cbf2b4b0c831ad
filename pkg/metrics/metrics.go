package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "critalert_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// AlertsCreated counts critical alerts accepted into the store.
	AlertsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "critalert_alerts_created_total",
			Help: "Total number of critical alerts created",
		},
	)

	// AlertsClosed counts alert close transitions.
	AlertsClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "critalert_alerts_closed_total",
			Help: "Total number of alerts closed",
		},
	)

	// NotificationSends counts channel-level delivery attempts by channel (push|whatsapp)
	// and result (success|failure|skipped).
	NotificationSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "critalert_notification_sends_total",
			Help: "Notification delivery attempts per channel",
		},
		[]string{"channel", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "critalert_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
