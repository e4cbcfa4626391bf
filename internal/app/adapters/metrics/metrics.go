package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultDelivered = "delivered"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"

	ResultOK    = "ok"
	ResultError = "error"
)

var (
	// ActiveSessions - sessions currently present in the registry.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_sessions_active",
		Help: "Number of sessions currently registered for broadcast",
	})

	// SessionsTotal - sessions opened since start.
	SessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_sessions_total",
		Help: "Total number of sessions opened",
	})

	// MessagesReceived - inbound frames by outcome (broadcast, rejected, ignored, rate_limited).
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_received_total",
			Help: "Total number of inbound frames by outcome",
		},
		[]string{"outcome"},
	)

	// Deliveries - per-recipient results of broadcast and history sends.
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_deliveries_total",
			Help: "Total number of per-session deliveries by kind and result",
		},
		[]string{"kind", "result"},
	)

	// BroadcastDuration - time spent on one fan-out pass.
	BroadcastDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_broadcast_duration_seconds",
			Help:    "Time to deliver one message to every registered session",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 20),
		},
	)

	// StoreOperations - store calls by operation and result.
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_store_operations_total",
			Help: "Total number of message store operations by operation and result",
		},
		[]string{"op", "result"},
	)

	// StoreAvailable - 1 when a backend is connected, 0 in degraded mode.
	StoreAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_store_available",
		Help: "Whether the message store is reachable (1) or degraded (0)",
	})
)
