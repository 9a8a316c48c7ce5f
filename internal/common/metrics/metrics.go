package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpdatesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deal_updates_received_total",
			Help: "Webhook updates received, by update kind",
		},
		[]string{"kind"},
	)

	UpdatesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deal_updates_dropped_total",
			Help: "Updates dropped before routing, by reason",
		},
		[]string{"reason"},
	)

	MessagesRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deal_messages_routed_total",
			Help: "Messages routed, by flow",
		},
		[]string{"flow"},
	)

	FormatsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deal_formats_classified_total",
			Help: "Format verdicts produced by the classifier",
		},
		[]string{"kind"},
	)

	LinesParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deal_lines_parsed_total",
			Help: "Delimited lines parsed, by outcome and error code",
		},
		[]string{"outcome", "error_code"},
	)

	DealsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deal_submissions_total",
			Help: "Deals submitted to the record store, by store and status",
		},
		[]string{"store", "status"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deal_submission_duration_seconds",
			Help:    "Duration of a single store submission in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store"},
	)

	SessionLockWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deal_session_lock_wait_seconds",
			Help:    "Time spent waiting for a per-session lock",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deal_sessions_in_flight",
			Help: "Sessions currently holding a lock",
		},
	)
)
