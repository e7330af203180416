package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Conversation metrics
var (
	// InboundMessagesTotal tracks inbound WhatsApp messages by kind (text/media/duplicate)
	InboundMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvcollect_inbound_messages_total",
			Help: "Inbound WhatsApp messages by kind",
		},
		[]string{"kind"},
	)

	// RepliesTotal tracks outbound replies by delivery status
	RepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvcollect_replies_total",
			Help: "Outbound replies by delivery status",
		},
		[]string{"status"},
	)

	// ActiveLanes tracks per-user lanes currently alive in the admission pipeline
	ActiveLanes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pvcollect_active_lanes",
			Help: "Per-user lanes currently alive, by pipeline",
		},
		[]string{"pipeline"},
	)

	// SubmissionsTotal tracks submission wizard outcomes
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvcollect_submissions_total",
			Help: "Results submission outcomes",
		},
		[]string{"outcome"},
	)
)

// Backend metrics
var (
	// BackendRequestsTotal tracks backend calls by operation and outcome
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvcollect_backend_requests_total",
			Help: "Backend requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// BackendRetriesTotal tracks retried backend calls by operation
	BackendRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvcollect_backend_retries_total",
			Help: "Backend request retries by operation",
		},
		[]string{"operation"},
	)
)

// ActiveSessions tracks live conversation sessions
var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "pvcollect_active_sessions",
		Help: "Live conversation sessions",
	},
)
