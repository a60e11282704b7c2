package events

import (
	"log"
	"time"

	"github.com/jgirmay/PULSE_GO/pkg/websocket"
)

// Event constants for the core event vocabulary
const (
	EventStatusChange = "user_status_change"
	EventChatMessage  = "chat_message"
	EventTypingStart  = "typing_start"
	EventTypingEnd    = "typing_end"
	EventIncomingCall = "incoming_call"
	EventCallAccepted = "call_accepted"
	EventCallRejected = "call_rejected"
	EventCallEnded    = "call_ended"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice_candidate"
)

// Event represents an application event to be dispatched to connected clients
type Event struct {
	Type      string      // Event type constant (e.g., EventStatusChange)
	Room      string      // Optional: deliver to one room's sessions only
	UserID    string      // Optional: deliver only to this user's session
	Data      interface{} // Event payload
	Timestamp time.Time   // When event occurred
}

// EventDispatcher sends events to connected WebSocket clients
type EventDispatcher interface {
	Dispatch(event Event)
}

// HubInterface defines the hub operations the dispatcher needs
type HubInterface interface {
	Broadcast(msg *websocket.Message)
	BroadcastToRoom(roomID string, msg *websocket.Message, excludeID string)
	SendToUser(userID string, msg *websocket.Message) bool
}

// HubEventDispatcher implements EventDispatcher using the WebSocket hub
type HubEventDispatcher struct {
	hub HubInterface
}

// NewHubEventDispatcher creates a new event dispatcher backed by a WebSocket hub
func NewHubEventDispatcher(hub HubInterface) EventDispatcher {
	return &HubEventDispatcher{
		hub: hub,
	}
}

// Dispatch sends an event to connected WebSocket clients
// - If UserID is set, sends only to that user's bound session
// - If Room is set, sends to the sessions joined to that room
// - Otherwise, broadcasts to all connected clients
func (d *HubEventDispatcher) Dispatch(event Event) {
	if d.hub == nil {
		log.Printf("Warning: HubEventDispatcher received nil hub, skipping dispatch")
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	msg := &websocket.Message{
		Type:      event.Type,
		Data:      event.Data,
		Timestamp: event.Timestamp,
		UserID:    event.UserID,
		Room:      event.Room,
	}

	// Send to specific user
	if event.UserID != "" {
		d.hub.SendToUser(event.UserID, msg)
		return
	}

	// Send to room members
	if event.Room != "" {
		d.hub.BroadcastToRoom(event.Room, msg, "")
		return
	}

	// Broadcast to all clients
	d.hub.Broadcast(msg)
}
