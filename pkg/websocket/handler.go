package websocket

import (
	"context"
	"log"
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/google/uuid"

	"github.com/jgirmay/PULSE_GO/pkg/metrics"
	"github.com/jgirmay/PULSE_GO/pkg/models"
)

// PresenceUpdater is the slice of the presence service the handler needs
type PresenceUpdater interface {
	SetStatus(ctx context.Context, userID string, status models.PresenceStatus) error
}

// ActivityMonitor re-arms and cancels the per-identity inactivity timers
type ActivityMonitor interface {
	Reset(userID string)
	Touch(userID string)
	Cancel(userID string)
}

// Relayer forwards a signaling payload to a single target identity
type Relayer interface {
	Relay(kind, senderID, targetID string, payload map[string]interface{}) bool
}

// Archiver records relayed chat messages for later retrieval. May be
// nil when message history is disabled.
type Archiver interface {
	Archive(room, sender, content string)
}

// ClientHandler handles WebSocket client connections and drives the
// coordination core from inbound client events
type ClientHandler struct {
	Hub      *Hub
	presence PresenceUpdater
	tracker  ActivityMonitor
	relay    Relayer
	archive  Archiver
}

// NewClientHandler creates a new client handler
func NewClientHandler(hub *Hub, presence PresenceUpdater, tracker ActivityMonitor, relay Relayer, archive Archiver) *ClientHandler {
	return &ClientHandler{
		Hub:      hub,
		presence: presence,
		tracker:  tracker,
		relay:    relay,
		archive:  archive,
	}
}

// ServeHTTP handles WebSocket upgrades
func (h *ClientHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := UpgradeHTTP(w, r)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		http.Error(w, "Failed to upgrade connection", http.StatusBadRequest)
		return
	}

	client := &Client{
		ID:   uuid.New().String(),
		Hub:  h.Hub,
		Conn: conn,
		Send: make(chan *Message, 256),
	}

	h.Hub.Register(client)

	go h.readPump(client)
	go h.writePump(client)

	log.Printf("Client connected: %s (remote: %s)", client.ID, conn.RemoteAddr())
}

// readPump reads messages from the WebSocket connection
func (h *ClientHandler) readPump(client *Client) {
	defer h.handleDisconnect(client)

	for {
		msg, err := client.Conn.ReadMessage()
		if err != nil {
			if !client.Conn.IsClosed() {
				log.Printf("Client %s read error: %v", client.ID, err)
			}
			break
		}

		h.processMessage(client, msg)
	}
}

// writePump writes messages to the WebSocket connection
func (h *ClientHandler) writePump(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				// Channel closed
				client.Conn.WriteControl(gorillaws.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteMessage(msg); err != nil {
				log.Printf("Client %s write error: %v", client.ID, err)
				return
			}

		case <-ticker.C:
			// Send ping to keep connection alive
			if err := client.Conn.Ping(); err != nil {
				log.Printf("Client %s ping error: %v", client.ID, err)
				return
			}
		}
	}
}

// handleDisconnect runs the transport-close cascade: unbind the
// session, cancel the inactivity timer and flip presence to offline.
// A superseded session unbinds nothing and triggers no cascade.
func (h *ClientHandler) handleDisconnect(client *Client) {
	if userID, ok := h.Hub.UnbindSession(client.ID); ok {
		h.tracker.Cancel(userID)
		_ = h.presence.SetStatus(context.Background(), userID, models.StatusOffline)
	}

	h.Hub.Unregister(client)
	client.Close()
}

// processMessage handles incoming messages
func (h *ClientHandler) processMessage(client *Client, msg *Message) {
	metrics.EventsReceived.WithLabelValues(msg.Type).Inc()

	switch msg.Type {
	case "user_connected":
		h.handleUserConnected(client, msg)

	case "user_activity":
		h.handleUserActivity(client, msg)

	case "join_chat":
		h.Hub.JoinRoom(client, roomFrom(msg))

	case "leave_chat":
		h.Hub.LeaveRoom(client, roomFrom(msg))

	case "chat_message":
		h.handleChatMessage(client, msg)

	case "typing_start", "typing_end":
		h.handleTyping(client, msg)

	case "call_user":
		h.handleCallUser(client, msg)

	case "call_accepted":
		h.handleCallAnswer(client, msg, "call_accepted", "acceptor")

	case "call_rejected":
		h.handleCallAnswer(client, msg, "call_rejected", "rejector")

	case "call_ended":
		h.handleCallEnded(client, msg)

	case "offer":
		h.handleSignal(client, msg, "caller", "offer")

	case "answer":
		h.handleSignal(client, msg, "answerer", "answer")

	case "ice_candidate":
		h.handleSignal(client, msg, "sender", "candidate")

	default:
		log.Printf("Unknown message type from client %s: %s", client.ID, msg.Type)
	}
}

// handleUserConnected binds the announced identity to this session and
// starts its presence lifecycle
func (h *ClientHandler) handleUserConnected(client *Client, msg *Message) {
	userID := stringField(msg, "userId")
	if userID == "" {
		log.Printf("Missing userId in user_connected from client %s", client.ID)
		return
	}

	client.SetUserID(userID)
	h.Hub.Bind(userID, client)
	_ = h.presence.SetStatus(context.Background(), userID, models.StatusOnline)
	h.tracker.Reset(userID)

	log.Printf("Client %s announced identity: %s", client.ID, userID)
}

// handleUserActivity restarts the identity's decay clock
func (h *ClientHandler) handleUserActivity(client *Client, msg *Message) {
	userID := stringField(msg, "userId")
	if userID == "" {
		userID = client.UserID()
	}
	if userID == "" {
		return
	}
	h.tracker.Touch(userID)
}

// handleChatMessage fans a chat message out to its room, sender included
func (h *ClientHandler) handleChatMessage(client *Client, msg *Message) {
	room := stringField(msg, "chatGroup")
	if room == "" {
		log.Printf("Missing chatGroup in chat_message from client %s", client.ID)
		return
	}

	sender := stringField(msg, "sender")
	if sender != "" {
		h.tracker.Touch(sender)
	}

	if h.archive != nil {
		h.archive.Archive(room, sender, stringField(msg, "content"))
	}

	msg.ClientID = client.ID
	msg.Timestamp = time.Now()
	h.Hub.BroadcastToRoom(room, msg, "")
}

// handleTyping relays a typing indicator to the room, excluding the sender
func (h *ClientHandler) handleTyping(client *Client, msg *Message) {
	room := stringField(msg, "chatGroup")
	user := stringField(msg, "user")
	if room == "" || user == "" {
		return
	}

	h.tracker.Touch(user)

	h.Hub.BroadcastToRoom(room, &Message{
		Type:      msg.Type,
		Data:      map[string]interface{}{"user": user},
		Timestamp: time.Now(),
	}, client.ID)
}

// handleCallUser forwards a call invitation to the target as incoming_call
func (h *ClientHandler) handleCallUser(client *Client, msg *Message) {
	caller := stringField(msg, "caller")
	target := stringField(msg, "target")
	if target == "" {
		return
	}

	if caller != "" {
		h.tracker.Touch(caller)
	}

	h.relay.Relay("incoming_call", caller, target, map[string]interface{}{
		"callId": stringField(msg, "callId"),
		"caller": caller,
		"type":   stringField(msg, "type"),
	})
}

// handleCallAnswer forwards an accept or reject notice back to the caller
func (h *ClientHandler) handleCallAnswer(client *Client, msg *Message, kind, actorKey string) {
	actor := stringField(msg, actorKey)
	caller := stringField(msg, "caller")
	if caller == "" {
		return
	}

	if actor != "" {
		h.tracker.Touch(actor)
	}

	h.relay.Relay(kind, actor, caller, map[string]interface{}{
		"callId": stringField(msg, "callId"),
		actorKey: actor,
	})
}

// handleCallEnded notifies every listed participant that the call is over
func (h *ClientHandler) handleCallEnded(client *Client, msg *Message) {
	callID := stringField(msg, "callId")
	data, ok := msg.Data.(map[string]interface{})
	if !ok {
		return
	}
	participants, ok := data["participants"].([]interface{})
	if !ok {
		return
	}

	for _, p := range participants {
		participantID, ok := p.(string)
		if !ok {
			continue
		}
		h.tracker.Touch(participantID)
		h.relay.Relay("call_ended", client.UserID(), participantID, map[string]interface{}{
			"callId": callID,
		})
	}
}

// handleSignal forwards a WebRTC negotiation payload to its target
func (h *ClientHandler) handleSignal(client *Client, msg *Message, senderKey, payloadKey string) {
	sender := stringField(msg, senderKey)
	target := stringField(msg, "target")
	if target == "" {
		return
	}

	if sender != "" {
		h.tracker.Touch(sender)
	}

	data, _ := msg.Data.(map[string]interface{})
	h.relay.Relay(msg.Type, sender, target, map[string]interface{}{
		payloadKey: data[payloadKey],
		senderKey:  sender,
	})
}

// stringField extracts a string value from the message payload
func stringField(msg *Message, key string) string {
	data, ok := msg.Data.(map[string]interface{})
	if !ok {
		return ""
	}
	value, _ := data[key].(string)
	return value
}

// roomFrom extracts the room ID from a join/leave payload, accepting
// either a bare string or {roomId}
func roomFrom(msg *Message) string {
	if room, ok := msg.Data.(string); ok {
		return room
	}
	return stringField(msg, "roomId")
}
