package handlers

import (
	"net/http"

	"github.com/Marga-Ghale/protolab-backend/internal/models"
	"github.com/Marga-Ghale/protolab-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Workspace Handler
// ============================================

type WorkspaceHandler struct {
	workspaceService service.WorkspaceService
}

func (h *WorkspaceHandler) Create(c *gin.Context) {
	var req models.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	participants := make([]service.ParticipantInput, len(req.Participants))
	for i, p := range req.Participants {
		participants[i] = service.ParticipantInput{Name: p.Name, Email: p.Email, Role: p.Role}
	}

	workspace, err := h.workspaceService.CreateWorkspace(c.Request.Context(), req.Name, req.Type, participants)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "workspace", workspace)
}

func (h *WorkspaceHandler) Get(c *gin.Context) {
	workspace, err := h.workspaceService.GetWorkspace(c.Request.Context(), c.Param("workspaceId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "workspace", workspace)
}

func (h *WorkspaceHandler) List(c *gin.Context) {
	workspaces, err := h.workspaceService.ListWorkspaces(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "workspaces", workspaces)
}

func (h *WorkspaceHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateWorkspaceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	workspace, err := h.workspaceService.UpdateStatus(c.Request.Context(), c.Param("workspaceId"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "workspace", workspace)
}

func (h *WorkspaceHandler) AddParticipant(c *gin.Context) {
	var req models.ParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	participant, err := h.workspaceService.AddParticipant(c.Request.Context(), c.Param("workspaceId"), service.ParticipantInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "participant", participant)
}
