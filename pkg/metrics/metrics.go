package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abordo_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// NotificationSyncs counts synchronizer operations by notification type, operation
	// (upsert|delete|recompute) and result (ok|error).
	NotificationSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abordo_notification_sync_total",
			Help: "Notification synchronizer operations",
		},
		[]string{"type", "op", "result"},
	)

	// ReminderEmails counts reminder send attempts by provider, stage and result (sent|failed).
	ReminderEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abordo_reminder_emails_total",
			Help: "Reminder email send attempts",
		},
		[]string{"provider", "stage", "result"},
	)

	// ReminderSweepDuration measures scheduled and on-demand dispatch runs.
	ReminderSweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "abordo_reminder_sweep_duration_seconds",
			Help:    "Duration of reminder dispatch runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// RealtimeConnections tracks open websocket subscribers.
	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "abordo_realtime_connections",
			Help: "Number of open realtime connections",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "abordo_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
