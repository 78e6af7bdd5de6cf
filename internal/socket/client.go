// internal/socket/client.go
package socket

import (
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocket connection constants
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer (64KB)
	maxMessageSize int64 = 64 * 1024
)

// Connection states
const (
	StateConnecting int32 = iota
	StateOpen
	StateClosed
)

// Client represents a connected WebSocket client
type Client struct {
	ID          string
	UserID      string // claimed or authenticated user, may be empty
	WorkspaceID string
	Conn        *websocket.Conn
	Hub         *Hub
	Send        chan []byte

	// authenticated is true when UserID came from a verified token.
	authenticated bool
	state         atomic.Int32
	onClose       func(*Client)
}

// NewClient creates a new client in the connecting state
func NewClient(hub *Hub, workspaceID, userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:          uuid.New().String(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		Conn:        conn,
		Hub:         hub,
		Send:        make(chan []byte, 256),
	}
}

func (c *Client) MarkOpen() {
	c.state.CompareAndSwap(StateConnecting, StateOpen)
}

func (c *Client) markClosed() {
	c.state.Store(StateClosed)
}

func (c *Client) State() int32 {
	return c.state.Load()
}

func (c *Client) IsOpen() bool {
	return c.state.Load() == StateOpen
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unsubscribe(c)
		c.Conn.Close()
		if c.onClose != nil {
			c.onClose(c)
		}
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Client] WebSocket error for user %s: %v", c.UserID, err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection.
// Each frame is written as its own text message so peers can decode them
// independently.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage validates an inbound frame and relays it verbatim to the
// other connections of the workspace.
func (c *Client) handleMessage(message []byte) {
	var frame map[string]interface{}
	if err := json.Unmarshal(message, &frame); err != nil {
		log.Printf("[Client] Dropping non-object frame from user %s: %v", c.UserID, err)
		return
	}

	msgType, _ := frame["type"].(string)
	if msgType == "" {
		log.Printf("[Client] Dropping frame without type from user %s", c.UserID)
		return
	}

	if msgType == string(MessagePing) {
		c.sendPong()
		return
	}

	if c.authenticated {
		if claimed, present := frame["userId"]; present && claimed != c.UserID {
			log.Printf("[Client] Dropping frame with spoofed userId=%v from user %s", claimed, c.UserID)
			return
		}
	}

	c.Hub.Fanout(c.WorkspaceID, message, c)
}

func (c *Client) sendPong() {
	msg := Message{
		Type: MessagePong,
		Payload: map[string]interface{}{
			"time": time.Now().Unix(),
		},
		Timestamp: time.Now(),
	}
	data, _ := json.Marshal(msg)

	select {
	case c.Send <- data:
	default:
		log.Printf("[Client] Failed to send pong to user %s", c.UserID)
	}
}
