package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors for the real-time coordination core.
var (
	// ConnectedClients tracks the number of live websocket sessions
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pulse_connected_clients",
		Help: "Number of currently connected websocket clients",
	})

	// EventsReceived counts inbound client events by type
	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_events_received_total",
		Help: "Total inbound websocket events by type",
	}, []string{"type"})

	// MessagesDropped counts deliveries dropped because a send queue was full
	// or the target had no active session
	MessagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_messages_dropped_total",
		Help: "Total messages dropped during delivery",
	}, []string{"reason"})

	// PresenceTransitions counts presence status updates by resulting status
	PresenceTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_presence_transitions_total",
		Help: "Total presence status transitions by resulting status",
	}, []string{"status"})

	// ActiveCalls tracks call sessions in ringing or ongoing state
	ActiveCalls = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pulse_active_calls",
		Help: "Number of call sessions currently ringing or ongoing",
	})

	// SignalsRelayed counts signaling messages forwarded to a reachable target
	SignalsRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_signals_relayed_total",
		Help: "Total signaling messages relayed by kind",
	}, []string{"kind"})
)
