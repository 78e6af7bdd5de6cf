package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/Marga-Ghale/protolab-backend/internal/repository"
	"github.com/Marga-Ghale/protolab-backend/internal/socket"
	"github.com/Marga-Ghale/protolab-backend/internal/types"
	"github.com/google/uuid"
)

const minWorkspaceNameLength = 3

// ============================================
// Workspace Service
// ============================================

type ParticipantInput struct {
	Name  string
	Email string
	Role  string
}

type WorkspaceService interface {
	CreateWorkspace(ctx context.Context, name, workspaceType string, participants []ParticipantInput) (*repository.Workspace, error)
	GetWorkspace(ctx context.Context, id string) (*repository.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]*repository.Workspace, error)
	UpdateStatus(ctx context.Context, id, status string) (*repository.Workspace, error)
	AddParticipant(ctx context.Context, workspaceID string, in ParticipantInput) (*repository.Participant, error)
	AddDocument(ctx context.Context, workspaceID, name, docType, content string) (*repository.WorkspaceDocument, error)
	GetDocument(ctx context.Context, workspaceID, documentID string) (*repository.WorkspaceDocument, error)
	SetPresence(ctx context.Context, workspaceID, userID string, online bool) error
	SweepPresence(ctx context.Context, timeout time.Duration, isConnected func(workspaceID, userID string) bool) int
}

type workspaceService struct {
	store     repository.WorkspaceStore
	publisher EventPublisher
	now       func() time.Time
}

func NewWorkspaceService(store repository.WorkspaceStore, publisher EventPublisher) WorkspaceService {
	return &workspaceService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *workspaceService) CreateWorkspace(ctx context.Context, name, workspaceType string, participants []ParticipantInput) (*repository.Workspace, error) {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < minWorkspaceNameLength {
		return nil, validationError("Workspace name must be at least 3 characters")
	}
	if !types.IsValidWorkspaceType(workspaceType) {
		return nil, validationError("Invalid workspace type: " + workspaceType)
	}

	now := s.now()
	ws := &repository.Workspace{
		ID:           uuid.New().String(),
		Name:         name,
		Type:         workspaceType,
		Participants: make([]repository.Participant, 0, len(participants)),
		Documents:    []repository.WorkspaceDocument{},
		Status:       types.WorkspaceActive,
		CreatedAt:    now,
		LastModified: now,
	}

	for _, in := range participants {
		p, err := newParticipant(in, now)
		if err != nil {
			return nil, err
		}
		if hasEmail(ws.Participants, p.Email) {
			return nil, validationError("Duplicate participant email: " + p.Email)
		}
		ws.Participants = append(ws.Participants, p)
	}

	if err := s.store.Create(ctx, ws); err != nil {
		return nil, err
	}

	log.Printf("[Workspace] Created workspace id=%s name=%q participants=%d", ws.ID, ws.Name, len(ws.Participants))
	return ws, nil
}

func (s *workspaceService) GetWorkspace(ctx context.Context, id string) (*repository.Workspace, error) {
	ws, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return ws, nil
}

func (s *workspaceService) ListWorkspaces(ctx context.Context) ([]*repository.Workspace, error) {
	return s.store.List(ctx)
}

func (s *workspaceService) UpdateStatus(ctx context.Context, id, status string) (*repository.Workspace, error) {
	if !types.IsValidWorkspaceStatus(status) {
		return nil, validationError("Invalid workspace status: " + status)
	}

	ws, err := s.store.Update(ctx, id, func(ws *repository.Workspace) error {
		ws.Status = status
		ws.LastModified = s.now()
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.publish(id, socket.MessageWorkspaceUpdated, map[string]interface{}{
		"status": ws.Status,
	})
	return ws, nil
}

func (s *workspaceService) AddParticipant(ctx context.Context, workspaceID string, in ParticipantInput) (*repository.Participant, error) {
	p, err := newParticipant(in, s.now())
	if err != nil {
		return nil, err
	}

	_, err = s.store.Update(ctx, workspaceID, func(ws *repository.Workspace) error {
		if hasEmail(ws.Participants, p.Email) {
			return conflictError("Participant with this email already exists")
		}
		ws.Participants = append(ws.Participants, p)
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.publish(workspaceID, socket.MessageParticipantJoined, map[string]interface{}{
		"participant": p,
	})
	return &p, nil
}

func (s *workspaceService) AddDocument(ctx context.Context, workspaceID, name, docType, content string) (*repository.WorkspaceDocument, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("Document name is required")
	}
	if docType == "" {
		docType = types.DocumentDraft
	}
	if !types.IsValidDocumentType(docType) {
		return nil, validationError("Invalid document type: " + docType)
	}

	doc := repository.WorkspaceDocument{
		ID:       uuid.New().String(),
		Name:     name,
		Type:     docType,
		Content:  content,
		Version:  1,
		Changes:  []repository.DocumentChange{},
		Comments: []repository.Comment{},
	}

	_, err := s.store.Update(ctx, workspaceID, func(ws *repository.Workspace) error {
		ws.Documents = append(ws.Documents, doc)
		ws.LastModified = s.now()
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.publish(workspaceID, socket.MessageDocumentAdded, map[string]interface{}{
		"document": doc,
	})
	return &doc, nil
}

func (s *workspaceService) GetDocument(ctx context.Context, workspaceID, documentID string) (*repository.WorkspaceDocument, error) {
	ws, err := s.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	doc := ws.FindDocument(documentID)
	if doc == nil {
		return nil, notFoundError("Document not found")
	}
	return doc, nil
}

// SetPresence flips a participant's online flag. Unknown participants are
// reported as not found and nothing is broadcast.
func (s *workspaceService) SetPresence(ctx context.Context, workspaceID, userID string, online bool) error {
	now := s.now()
	changed := false

	_, err := s.store.Update(ctx, workspaceID, func(ws *repository.Workspace) error {
		p := ws.FindParticipant(userID)
		if p == nil {
			return notFoundError("Participant not found")
		}
		changed = p.IsOnline != online
		p.IsOnline = online
		p.LastSeen = now
		return nil
	})
	if err != nil {
		return translateStoreError(err)
	}

	if changed {
		s.publishPresence(workspaceID, userID, online, now)
	}
	return nil
}

// SweepPresence marks participants offline whose last activity is older than
// timeout and who no longer hold a live connection. Returns how many changed.
func (s *workspaceService) SweepPresence(ctx context.Context, timeout time.Duration, isConnected func(workspaceID, userID string) bool) int {
	workspaces, err := s.store.List(ctx)
	if err != nil {
		log.Printf("[Workspace] Presence sweep failed: %v", err)
		return 0
	}

	cutoff := s.now().Add(-timeout)
	swept := 0
	for _, ws := range workspaces {
		for _, p := range ws.Participants {
			if !p.IsOnline || p.LastSeen.After(cutoff) || isConnected(ws.ID, p.ID) {
				continue
			}
			if err := s.SetPresence(ctx, ws.ID, p.ID, false); err != nil {
				log.Printf("[Workspace] Could not mark %s offline in %s: %v", p.ID, ws.ID, err)
				continue
			}
			swept++
		}
	}
	return swept
}

func (s *workspaceService) publishPresence(workspaceID, userID string, online bool, at time.Time) {
	msgType := socket.MessageUserOffline
	if online {
		msgType = socket.MessageUserOnline
	}
	s.publish(workspaceID, msgType, map[string]interface{}{
		"userId":   userID,
		"online":   online,
		"lastSeen": at,
	})
}

func (s *workspaceService) publish(workspaceID string, msgType socket.MessageType, payload map[string]interface{}) {
	if s.publisher != nil {
		s.publisher.Publish(workspaceID, msgType, payload)
	}
}

// ============================================
// Helpers
// ============================================

func newParticipant(in ParticipantInput, now time.Time) (repository.Participant, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return repository.Participant{}, validationError("Participant name is required")
	}
	role := in.Role
	if role == "" {
		role = types.RoleViewer
	}
	if !types.IsValidRole(role) {
		return repository.Participant{}, validationError("Invalid participant role: " + role)
	}
	return repository.Participant{
		ID:       uuid.New().String(),
		Name:     name,
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Role:     role,
		IsOnline: false,
		LastSeen: now,
	}, nil
}

func hasEmail(participants []repository.Participant, email string) bool {
	if email == "" {
		return false
	}
	for _, p := range participants {
		if p.Email == email {
			return true
		}
	}
	return false
}

func translateStoreError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFoundError("Workspace not found")
	}
	return err
}
