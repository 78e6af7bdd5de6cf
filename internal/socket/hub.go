// internal/socket/hub.go
package socket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Document messages
	MessageDocumentAdded   MessageType = "document_added"
	MessageDocumentChanged MessageType = "document_changed"
	MessageChangeReviewed  MessageType = "change_reviewed"

	// Comment messages
	MessageCommentAdded    MessageType = "comment_added"
	MessageCommentReplied  MessageType = "comment_replied"
	MessageCommentResolved MessageType = "comment_resolved"

	// Workspace messages
	MessageWorkspaceUpdated  MessageType = "workspace_updated"
	MessageParticipantJoined MessageType = "participant_joined"

	// User presence
	MessageUserOnline  MessageType = "user_online"
	MessageUserOffline MessageType = "user_offline"

	// System messages
	MessagePing MessageType = "ping"
	MessagePong MessageType = "pong"
)

// Message is the flat event envelope: {"type": ..., "timestamp": ..., ...payload}.
type Message struct {
	Type      MessageType
	Payload   map[string]interface{}
	Timestamp time.Time
}

func (m Message) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(m.Payload)+2)
	for k, v := range m.Payload {
		out[k] = v
	}
	out["type"] = m.Type
	out["timestamp"] = m.Timestamp
	return json.Marshal(out)
}

// Relay fans raw workspace frames out to other server instances.
type Relay interface {
	Publish(ctx context.Context, workspaceID string, data []byte) error
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Clients indexed by room for broadcasting
	roomClients map[string]map[*Client]bool

	// Broadcast to specific room
	roomBroadcast chan *RoomMessage

	relay Relay

	mu sync.RWMutex
}

// RoomMessage represents a message to be sent to a specific room
type RoomMessage struct {
	Room    string
	Message []byte
	Exclude *Client // Connection to skip, used when relaying a client's own frame
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		roomClients:   make(map[string]map[*Client]bool),
		roomBroadcast: make(chan *RoomMessage, 256),
	}
}

// SetRelay enables cross-instance fan-out. Must be called before Run.
func (h *Hub) SetRelay(r Relay) {
	h.relay = r
}

func workspaceRoom(workspaceID string) string {
	return "workspace:" + workspaceID
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	log.Println("[Hub] WebSocket hub started")

	for {
		select {
		case rm := <-h.roomBroadcast:
			h.broadcastToRoom(rm)

		case <-ctx.Done():
			log.Println("[Hub] WebSocket hub stopped")
			return
		}
	}
}

func (h *Hub) broadcastToRoom(rm *RoomMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.roomClients[rm.Room]
	if !ok {
		return
	}

	sentCount := 0
	for client := range clients {
		if client == rm.Exclude || !client.IsOpen() {
			continue
		}
		select {
		case client.Send <- rm.Message:
			sentCount++
		default:
			// Best effort: a full buffer drops the frame for this client only.
			log.Printf("[Hub] Send buffer full, dropping message: user=%s, id=%s", client.UserID, client.ID)
		}
	}
	log.Printf("[Hub] Broadcast to room %s: sent to %d clients", rm.Room, sentCount)
}

// ============================================
// Public Methods for Subscription Management
// ============================================

// Subscribe registers a client under its workspace room
func (h *Hub) Subscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := workspaceRoom(client.WorkspaceID)
	h.clients[client] = true
	if h.roomClients[room] == nil {
		h.roomClients[room] = make(map[*Client]bool)
	}
	h.roomClients[room][client] = true

	log.Printf("[Hub] ✅ Client subscribed: user=%s, room=%s, total_clients=%d",
		client.UserID, room, len(h.clients))
}

// Unsubscribe removes a client from the registry and closes its send
// channel. Safe to call more than once.
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	room := workspaceRoom(client.WorkspaceID)
	if clients, ok := h.roomClients[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.roomClients, room)
		}
	}

	client.markClosed()
	close(client.Send)
	log.Printf("[Hub] ❌ Client disconnected: user=%s, id=%s, total_clients=%d",
		client.UserID, client.ID, len(h.clients))
}

// ============================================
// Public Methods for Sending Messages
// ============================================

// Deliver queues a frame for local clients of a workspace only. It never
// blocks: when the queue is full the frame is dropped.
func (h *Hub) Deliver(workspaceID string, data []byte, exclude *Client) {
	rm := &RoomMessage{
		Room:    workspaceRoom(workspaceID),
		Message: data,
		Exclude: exclude,
	}
	select {
	case h.roomBroadcast <- rm:
	default:
		log.Printf("[Hub] Broadcast queue full, dropping message for room %s", rm.Room)
	}
}

// Fanout delivers locally and, when a relay is configured, to every other
// instance. Relay failures are logged and otherwise ignored.
func (h *Hub) Fanout(workspaceID string, data []byte, exclude *Client) {
	h.Deliver(workspaceID, data, exclude)

	if h.relay == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.relay.Publish(ctx, workspaceID, data); err != nil {
		log.Printf("[Hub] Relay publish failed: workspace=%s, err=%v", workspaceID, err)
	}
}

// ============================================
// Query Methods
// ============================================

// IsUserConnected checks if a user has a live connection to a workspace
func (h *Hub) IsUserConnected(workspaceID, userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.roomClients[workspaceRoom(workspaceID)] {
		if client.UserID == userID && client.IsOpen() {
			return true
		}
	}
	return false
}

// GetRoomClients returns the number of clients subscribed to a workspace
func (h *Hub) GetRoomClients(workspaceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.roomClients[workspaceRoom(workspaceID)])
}

// GetConnectedClientsCount returns total connected clients
func (h *Hub) GetConnectedClientsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
