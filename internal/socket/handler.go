// internal/socket/handler.go
package socket

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin is enforced by the CORS layer for HTTP; sockets accept any.
		return true
	},
}

// Authenticator resolves a bearer token to a user id.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// PresenceTracker is told when a user's first connection to a workspace
// opens and when their last one closes.
type PresenceTracker interface {
	SetPresence(ctx context.Context, workspaceID, userID string, online bool) error
}

// Handler handles WebSocket connections
type Handler struct {
	Hub      *Hub
	auth     Authenticator
	presence PresenceTracker
}

// NewHandler creates a new WebSocket handler. auth and presence may be nil.
func NewHandler(hub *Hub, auth Authenticator, presence PresenceTracker) *Handler {
	return &Handler{
		Hub:      hub,
		auth:     auth,
		presence: presence,
	}
}

// HandleWebSocket handles WebSocket upgrade requests.
// Query: workspaceId (required), userId (optional), token (optional; browsers
// cannot set headers on the WebSocket handshake).
func (h *Handler) HandleWebSocket(c *gin.Context) {
	workspaceID := c.Query("workspaceId")
	if workspaceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "workspaceId is required"})
		return
	}

	userID := c.Query("userId")
	authenticated := false

	tokenString := c.Query("token")
	if tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if tokenString != "" && h.auth != nil {
		subject, err := h.auth.Authenticate(tokenString)
		if err != nil {
			log.Printf("[WebSocket] Token rejected: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid token"})
			return
		}
		if userID != "" && userID != subject {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "userId does not match token"})
			return
		}
		userID = subject
		authenticated = true
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WebSocket] Upgrade error: %v", err)
		return
	}

	log.Printf("[WebSocket] ✅ Client connected: workspace=%s, user=%s", workspaceID, userID)

	client := NewClient(h.Hub, workspaceID, userID, conn)
	client.authenticated = authenticated
	client.onClose = h.clientClosed

	h.Hub.Subscribe(client)
	client.MarkOpen()
	h.updatePresence(workspaceID, userID, true)

	go client.WritePump()
	go client.ReadPump()
}

func (h *Handler) clientClosed(client *Client) {
	if client.UserID == "" || h.Hub.IsUserConnected(client.WorkspaceID, client.UserID) {
		return
	}
	h.updatePresence(client.WorkspaceID, client.UserID, false)
}

func (h *Handler) updatePresence(workspaceID, userID string, online bool) {
	if h.presence == nil || userID == "" {
		return
	}
	if err := h.presence.SetPresence(context.Background(), workspaceID, userID, online); err != nil {
		log.Printf("[WebSocket] Presence not tracked: workspace=%s, user=%s, err=%v", workspaceID, userID, err)
	}
}
