package handlers

import (
	"net/http"

	"github.com/Marga-Ghale/protolab-backend/internal/models"
	"github.com/Marga-Ghale/protolab-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Document Handler
// ============================================

type DocumentHandler struct {
	workspaceService service.WorkspaceService
	changeTracker    service.ChangeTracker
}

func (h *DocumentHandler) Add(c *gin.Context) {
	var req models.AddDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	doc, err := h.workspaceService.AddDocument(c.Request.Context(), c.Param("workspaceId"), req.Name, req.Type, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "document", doc)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.workspaceService.GetDocument(c.Request.Context(), c.Param("workspaceId"), c.Param("docId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "document", doc)
}

// ============================================
// Changes
// ============================================

func (h *DocumentHandler) RecordChange(c *gin.Context) {
	var req models.RecordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	change, err := h.changeTracker.RecordChange(c.Request.Context(), service.RecordChangeInput{
		WorkspaceID: c.Param("workspaceId"),
		DocumentID:  c.Param("docId"),
		Type:        req.Type,
		Position:    req.Position,
		Length:      req.Length,
		Content:     req.Content,
		BaseVersion: req.BaseVersion,
		Actor:       actorFrom(c, req.UserID, req.UserName),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "change", change)
}

func (h *DocumentHandler) ReviewChange(c *gin.Context) {
	var req models.ReviewChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	change, err := h.changeTracker.ReviewChange(c.Request.Context(), service.ReviewChangeInput{
		WorkspaceID: c.Param("workspaceId"),
		DocumentID:  c.Param("docId"),
		ChangeID:    c.Param("changeId"),
		Approved:    *req.Approved,
		Reviewer:    actorFrom(c, req.ReviewerID, req.ReviewerName),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "change", change)
}

// ============================================
// Comments
// ============================================

func (h *DocumentHandler) AddComment(c *gin.Context) {
	var req models.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	comment, err := h.changeTracker.AddComment(c.Request.Context(), service.AddCommentInput{
		WorkspaceID: c.Param("workspaceId"),
		DocumentID:  c.Param("docId"),
		Content:     req.Content,
		Position:    req.Position,
		Actor:       actorFrom(c, req.UserID, req.UserName),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "comment", comment)
}

func (h *DocumentHandler) ReplyToComment(c *gin.Context) {
	var req models.ReplyCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	reply, err := h.changeTracker.ReplyToComment(c.Request.Context(), service.ReplyInput{
		WorkspaceID: c.Param("workspaceId"),
		DocumentID:  c.Param("docId"),
		CommentID:   c.Param("commentId"),
		Content:     req.Content,
		Actor:       actorFrom(c, req.UserID, req.UserName),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "comment", reply)
}

func (h *DocumentHandler) ResolveComment(c *gin.Context) {
	var req models.ResolveCommentRequest
	// An empty body is allowed; anonymous resolves are only rejected by role checks.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
	}

	comment, err := h.changeTracker.ResolveComment(c.Request.Context(),
		c.Param("workspaceId"), c.Param("docId"), c.Param("commentId"),
		actorFrom(c, req.UserID, ""))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "comment", comment)
}
