package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/Marga-Ghale/protolab-backend/internal/api/middleware"
	"github.com/Marga-Ghale/protolab-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Workspace *WorkspaceHandler
	Document  *DocumentHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Workspace: &WorkspaceHandler{workspaceService: services.Workspace},
		Document: &DocumentHandler{
			workspaceService: services.Workspace,
			changeTracker:    services.Changes,
		},
	}
}

// RegisterRoutes mounts the collaboration API on a router group, normally
// /api/collab.
func (h *Handlers) RegisterRoutes(collab *gin.RouterGroup) {
	collab.POST("/workspace", h.Workspace.Create)
	collab.GET("/workspaces", h.Workspace.List)

	ws := collab.Group("/workspace/:workspaceId")
	{
		ws.GET("", h.Workspace.Get)
		ws.PATCH("/status", h.Workspace.UpdateStatus)
		ws.POST("/participant", h.Workspace.AddParticipant)
		ws.POST("/document", h.Document.Add)

		doc := ws.Group("/document/:docId")
		doc.GET("", h.Document.Get)
		doc.POST("/change", h.Document.RecordChange)
		doc.POST("/change/:changeId/review", h.Document.ReviewChange)
		doc.POST("/comment", h.Document.AddComment)
		doc.POST("/comment/:commentId/reply", h.Document.ReplyToComment)
		doc.POST("/comment/:commentId/resolve", h.Document.ResolveComment)
	}
}

// ============================================
// Helper Functions
// ============================================

func respondOK(c *gin.Context, status int, key string, value interface{}) {
	c.JSON(status, gin.H{"success": true, key: value})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
}

// respondError maps service errors onto status codes. Unknown errors are
// 500 and still carry their message.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	default:
		log.Printf("❌ [API] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

// actorFrom falls back to the session user when the body names nobody.
func actorFrom(c *gin.Context, userID, userName string) service.Actor {
	session := middleware.GetUserID(c)
	if userID == "" {
		userID = session
	}
	return service.Actor{
		UserID:        userID,
		UserName:      userName,
		SessionUserID: session,
	}
}
