package models

// ============================================
// Workspace DTOs
// ============================================

type ParticipantRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
	Role  string `json:"role,omitempty"`
}

// CreateWorkspaceRequest leaves name unchecked at bind time so the service
// reports the length rule with its own message.
type CreateWorkspaceRequest struct {
	Name         string               `json:"name"`
	Type         string               `json:"type" binding:"required"`
	Participants []ParticipantRequest `json:"participants" binding:"dive"`
}

type UpdateWorkspaceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ============================================
// Document DTOs
// ============================================

type AddDocumentRequest struct {
	Name    string `json:"name" binding:"required"`
	Type    string `json:"type,omitempty"`
	Content string `json:"content"`
}

type RecordChangeRequest struct {
	Type        string `json:"type" binding:"required"`
	Position    int    `json:"position"`
	Length      int    `json:"length,omitempty"`
	Content     string `json:"content"`
	UserID      string `json:"userId"`
	UserName    string `json:"userName"`
	BaseVersion *int   `json:"baseVersion,omitempty"`
}

type ReviewChangeRequest struct {
	Approved     *bool  `json:"approved" binding:"required"`
	ReviewerID   string `json:"reviewerId"`
	ReviewerName string `json:"reviewerName"`
}

// ============================================
// Comment DTOs
// ============================================

type AddCommentRequest struct {
	Content  string `json:"content" binding:"required"`
	Position int    `json:"position"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type ReplyCommentRequest struct {
	Content  string `json:"content" binding:"required"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type ResolveCommentRequest struct {
	UserID string `json:"userId"`
}
