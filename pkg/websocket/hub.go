package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/jgirmay/PULSE_GO/pkg/metrics"
)

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
	UserID    string      `json:"user_id,omitempty"`
	ClientID  string      `json:"client_id,omitempty"`
	Room      string      `json:"room,omitempty"`
}

// Client represents a connected WebSocket client.
// The user identity is empty until the client announces it.
type Client struct {
	ID   string
	Hub  *Hub
	Conn *Conn
	Send chan *Message

	mu     sync.RWMutex
	userID string
}

// UserID returns the announced identity, empty if not yet announced
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// SetUserID records the announced identity
func (c *Client) SetUserID(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
}

// SendMessage queues a message for the client, dropping it when the
// send queue is full
func (c *Client) SendMessage(msg *Message) {
	select {
	case c.Send <- msg:
	default:
		metrics.MessagesDropped.WithLabelValues("queue_full").Inc()
		log.Printf("Warning: Client %s send channel full", c.ID)
	}
}

// Close closes the client connection
func (c *Client) Close() {
	if c.Conn != nil {
		c.Conn.Close()
	}
}

// BroadcastMessage represents a message to broadcast
type BroadcastMessage struct {
	Message   *Message
	Room      string // empty = process-wide
	ExcludeID string // Exclude this client from broadcast
}

// Hub maintains active client connections, the identity bindings and
// the room membership tables. It is the single source of truth for
// whether an identity is currently reachable.
type Hub struct {
	// Map of client ID to client
	clients map[string]*Client

	// Identity binding: at most one session per identity
	users      map[string]string // user ID -> client ID
	identities map[string]string // client ID -> user ID (reverse index)

	// Room membership: room ID -> client ID -> client
	rooms map[string]map[string]*Client

	// Rooms joined per client, for O(1) cleanup on disconnect
	clientRooms map[string]map[string]struct{}

	// Channel for registering new clients
	register chan *Client

	// Channel for unregistering clients
	unregister chan *Client

	// Channel for broadcasting messages
	broadcast chan *BroadcastMessage

	// Mutex for protecting the maps
	mu sync.RWMutex

	// Stopped flag
	stopped bool
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		users:       make(map[string]string),
		identities:  make(map[string]string),
		rooms:       make(map[string]map[string]*Client),
		clientRooms: make(map[string]map[string]struct{}),
		register:    make(chan *Client, 256),
		unregister:  make(chan *Client, 256),
		broadcast:   make(chan *BroadcastMessage, 256),
	}
}

// Start begins the hub's event loop
func (h *Hub) Start() {
	go h.run()
	log.Println("WebSocket hub started")
}

// Stop gracefully stops the hub
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return
	}

	h.stopped = true

	// Close all client connections
	for id, client := range h.clients {
		client.Close()
		delete(h.clients, id)
	}

	close(h.register)
	close(h.unregister)
	close(h.broadcast)

	log.Println("WebSocket hub stopped")
}

// run processes hub events
func (h *Hub) run() {
	for {
		select {
		case client, ok := <-h.register:
			if !ok {
				return
			}
			h.registerClient(client)

		case client, ok := <-h.unregister:
			if !ok {
				return
			}
			h.unregisterClient(client)

		case msg, ok := <-h.broadcast:
			if !ok {
				return
			}
			h.deliverBroadcast(msg)
		}
	}
}

// Register queues a client for registration. No-op after Stop.
func (h *Hub) Register(client *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stopped {
		return
	}
	h.register <- client
}

// Unregister queues a client for removal. No-op after Stop.
func (h *Hub) Unregister(client *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stopped {
		return
	}
	h.unregister <- client
}

// registerClient adds a new client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	metrics.ConnectedClients.Set(float64(len(h.clients)))

	log.Printf("Client registered: %s (total: %d)", client.ID, len(h.clients))
}

// unregisterClient removes a client, its room memberships and any
// binding still pointing at it
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	delete(h.clients, client.ID)
	close(client.Send)

	// Remove room memberships
	for roomID := range h.clientRooms[client.ID] {
		if members, ok := h.rooms[roomID]; ok {
			delete(members, client.ID)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	delete(h.clientRooms, client.ID)

	// Defensive: drop a binding the handler did not unbind
	if userID, ok := h.identities[client.ID]; ok {
		delete(h.identities, client.ID)
		if h.users[userID] == client.ID {
			delete(h.users, userID)
		}
	}

	metrics.ConnectedClients.Set(float64(len(h.clients)))
	log.Printf("Client unregistered: %s (total: %d)", client.ID, len(h.clients))
}

// Bind associates an identity with a session. A prior binding for the
// same identity is superseded without notifying the old session.
func (h *Hub) Bind(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if oldClientID, ok := h.users[userID]; ok && oldClientID != client.ID {
		delete(h.identities, oldClientID)
	}

	h.users[userID] = client.ID
	h.identities[client.ID] = userID
}

// UnbindSession removes the binding owned by the given session and
// returns the identity it was bound to. A superseded session returns
// false: its identity already belongs to a newer session.
func (h *Hub) UnbindSession(clientID string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID, ok := h.identities[clientID]
	if !ok {
		return "", false
	}

	delete(h.identities, clientID)
	if h.users[userID] == clientID {
		delete(h.users, userID)
		return userID, true
	}
	return "", false
}

// Resolve returns the session currently bound to the identity.
// Callers must resolve immediately before each delivery, not cache.
func (h *Hub) Resolve(userID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clientID, ok := h.users[userID]
	if !ok {
		return nil, false
	}
	client, ok := h.clients[clientID]
	return client, ok
}

// JoinRoom adds a session to a room. Idempotent.
func (h *Hub) JoinRoom(client *Client, roomID string) {
	if roomID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[roomID] = members
	}
	members[client.ID] = client

	joined, ok := h.clientRooms[client.ID]
	if !ok {
		joined = make(map[string]struct{})
		h.clientRooms[client.ID] = joined
	}
	joined[roomID] = struct{}{}
}

// LeaveRoom removes a session from a room. No-op when absent.
func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[roomID]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if joined, ok := h.clientRooms[client.ID]; ok {
		delete(joined, roomID)
	}
}

// RoomMembers returns the number of sessions currently in a room
func (h *Hub) RoomMembers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Broadcast sends a message to all connected clients. No-op after Stop.
func (h *Hub) Broadcast(msg *Message) {
	h.queueBroadcast(&BroadcastMessage{Message: msg})
}

// BroadcastToRoom sends a message to every session joined to the room,
// optionally excluding the sender. No-op after Stop.
func (h *Hub) BroadcastToRoom(roomID string, msg *Message, excludeID string) {
	h.queueBroadcast(&BroadcastMessage{Message: msg, Room: roomID, ExcludeID: excludeID})
}

// queueBroadcast enqueues a broadcast, dropping it when the queue is
// full or the hub is stopped
func (h *Hub) queueBroadcast(bm *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stopped {
		return
	}

	select {
	case h.broadcast <- bm:
	default:
		metrics.MessagesDropped.WithLabelValues("broadcast_full").Inc()
		log.Printf("Warning: Broadcast channel full, dropping message")
	}
}

// SendToUser delivers a message to the session bound to the identity,
// dropping it silently when the identity is unreachable. The send
// happens under the read lock: unregisterClient closes Send under the
// write lock, so the channel cannot close mid-send.
func (h *Hub) SendToUser(userID string, msg *Message) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clientID, ok := h.users[userID]
	if !ok {
		metrics.MessagesDropped.WithLabelValues("unreachable").Inc()
		return false
	}
	client, ok := h.clients[clientID]
	if !ok {
		metrics.MessagesDropped.WithLabelValues("unreachable").Inc()
		return false
	}

	select {
	case client.Send <- msg:
	default:
		metrics.MessagesDropped.WithLabelValues("queue_full").Inc()
		log.Printf("Warning: Client %s send channel full", client.ID)
	}
	return true
}

// deliverBroadcast fans a broadcast out to its audience
func (h *Hub) deliverBroadcast(bm *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	audience := h.clients
	if bm.Room != "" {
		audience = h.rooms[bm.Room]
	}

	for clientID, client := range audience {
		if clientID == bm.ExcludeID {
			continue
		}

		select {
		case client.Send <- bm.Message:
		default:
			metrics.MessagesDropped.WithLabelValues("queue_full").Inc()
			log.Printf("Warning: Drop message for client %s (send channel full)", clientID)
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
