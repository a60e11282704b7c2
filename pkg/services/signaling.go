package services

import (
	"time"

	"github.com/jgirmay/PULSE_GO/pkg/metrics"
	"github.com/jgirmay/PULSE_GO/pkg/websocket"
)

// Notifier forwards a signaling payload to a single target identity.
// Delivery is best-effort: an unreachable target is not an error.
type Notifier interface {
	Relay(kind, senderID, targetID string, payload map[string]interface{}) bool
}

// SignalingRelay is the single forwarding path for all point-to-point
// call negotiation traffic: invitations, accept/reject/end notices and
// the WebRTC offer/answer/candidate primitives. It holds no state and
// resolves the target in the connection registry at send time.
type SignalingRelay struct {
	hub *websocket.Hub
}

// NewSignalingRelay creates a relay over the given hub
func NewSignalingRelay(hub *websocket.Hub) *SignalingRelay {
	return &SignalingRelay{hub: hub}
}

// Relay delivers the payload to the target's bound session. Unreachable
// targets drop the message silently: stale signaling is meaningless and
// queueing it would only add latency.
func (r *SignalingRelay) Relay(kind, senderID, targetID string, payload map[string]interface{}) bool {
	msg := &websocket.Message{
		Type:      kind,
		Data:      payload,
		Timestamp: time.Now(),
		UserID:    senderID,
	}

	if !r.hub.SendToUser(targetID, msg) {
		return false
	}

	metrics.SignalsRelayed.WithLabelValues(kind).Inc()
	return true
}
