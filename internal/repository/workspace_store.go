package repository

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

var ErrNotFound = errors.New("workspace not found")

type Participant struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`
}

type Comment struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	Content    string    `json:"content"`
	Position   int       `json:"position"`
	Resolved   bool      `json:"resolved"`
	ResolvedBy string    `json:"resolvedBy,omitempty"`
	Replies    []Comment `json:"replies"`
	Timestamp  time.Time `json:"timestamp"`
}

type DocumentChange struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	UserName   string     `json:"userName"`
	Type       string     `json:"type"`
	Position   int        `json:"position"`
	Length     int        `json:"length,omitempty"`
	Content    string     `json:"content"`
	Timestamp  time.Time  `json:"timestamp"`
	Approved   bool       `json:"approved"`
	ReviewedBy string     `json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`
}

// Reviewed reports whether the change already went through review.
func (c *DocumentChange) Reviewed() bool {
	return c.ReviewedAt != nil
}

type WorkspaceDocument struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Type         string           `json:"type"`
	Content      string           `json:"content"`
	Version      int              `json:"version"`
	Changes      []DocumentChange `json:"changes"`
	Comments     []Comment        `json:"comments"`
	LastEditedBy string           `json:"lastEditedBy,omitempty"`
	LastEditedAt *time.Time       `json:"lastEditedAt,omitempty"`
}

type Workspace struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Type         string              `json:"type"`
	Participants []Participant       `json:"participants"`
	Documents    []WorkspaceDocument `json:"documents"`
	Status       string              `json:"status"`
	CreatedAt    time.Time           `json:"createdAt"`
	LastModified time.Time           `json:"lastModified"`
}

// FindDocument returns a pointer into ws.Documents, or nil.
func (ws *Workspace) FindDocument(id string) *WorkspaceDocument {
	for i := range ws.Documents {
		if ws.Documents[i].ID == id {
			return &ws.Documents[i]
		}
	}
	return nil
}

// FindParticipant returns a pointer into ws.Participants, or nil.
func (ws *Workspace) FindParticipant(id string) *Participant {
	for i := range ws.Participants {
		if ws.Participants[i].ID == id {
			return &ws.Participants[i]
		}
	}
	return nil
}

// FindChange returns a pointer into doc.Changes, or nil.
func (doc *WorkspaceDocument) FindChange(id string) *DocumentChange {
	for i := range doc.Changes {
		if doc.Changes[i].ID == id {
			return &doc.Changes[i]
		}
	}
	return nil
}

// FindComment searches top level comments and their replies.
func (doc *WorkspaceDocument) FindComment(id string) *Comment {
	return findComment(doc.Comments, id)
}

func findComment(comments []Comment, id string) *Comment {
	for i := range comments {
		if comments[i].ID == id {
			return &comments[i]
		}
		if found := findComment(comments[i].Replies, id); found != nil {
			return found
		}
	}
	return nil
}

// Clone returns a deep copy; nothing in the copy aliases ws.
func (ws *Workspace) Clone() *Workspace {
	if ws == nil {
		return nil
	}
	out := *ws
	out.Participants = append([]Participant{}, ws.Participants...)
	out.Documents = make([]WorkspaceDocument, len(ws.Documents))
	for i := range ws.Documents {
		out.Documents[i] = *ws.Documents[i].Clone()
	}
	return &out
}

func (doc *WorkspaceDocument) Clone() *WorkspaceDocument {
	out := *doc
	out.Changes = make([]DocumentChange, len(doc.Changes))
	for i, c := range doc.Changes {
		if c.ReviewedAt != nil {
			at := *c.ReviewedAt
			c.ReviewedAt = &at
		}
		out.Changes[i] = c
	}
	out.Comments = cloneComments(doc.Comments)
	if doc.LastEditedAt != nil {
		at := *doc.LastEditedAt
		out.LastEditedAt = &at
	}
	return &out
}

func cloneComments(comments []Comment) []Comment {
	out := make([]Comment, len(comments))
	for i, c := range comments {
		c.Replies = cloneComments(c.Replies)
		out[i] = c
	}
	return out
}

// ============================================
// Workspace Store
// ============================================

type WorkspaceStore interface {
	Create(ctx context.Context, ws *Workspace) error
	FindByID(ctx context.Context, id string) (*Workspace, error)
	List(ctx context.Context) ([]*Workspace, error)
	// Update runs fn against a private copy of the workspace and commits the
	// copy only when fn returns nil. The committed copy is returned.
	Update(ctx context.Context, id string, fn func(ws *Workspace) error) (*Workspace, error)
	Snapshot() []*Workspace
	Restore(workspaces []*Workspace)
}

type memoryWorkspaceStore struct {
	mu         sync.RWMutex
	workspaces map[string]*Workspace
	order      []string
}

func NewMemoryWorkspaceStore() WorkspaceStore {
	return &memoryWorkspaceStore{
		workspaces: make(map[string]*Workspace),
	}
}

func (s *memoryWorkspaceStore) Create(ctx context.Context, ws *Workspace) error {
	if ws == nil || ws.ID == "" {
		return errors.New("workspace id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.workspaces[ws.ID]; exists {
		return errors.New("workspace already exists")
	}
	s.workspaces[ws.ID] = ws.Clone()
	s.order = append(s.order, ws.ID)
	return nil
}

func (s *memoryWorkspaceStore) FindByID(ctx context.Context, id string) (*Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws, ok := s.workspaces[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ws.Clone(), nil
}

func (s *memoryWorkspaceStore) List(ctx context.Context) ([]*Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Workspace, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.workspaces[id].Clone())
	}
	return out, nil
}

func (s *memoryWorkspaceStore) Update(ctx context.Context, id string, fn func(ws *Workspace) error) (*Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.workspaces[id]
	if !ok {
		return nil, ErrNotFound
	}

	draft := current.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}
	s.workspaces[id] = draft
	return draft.Clone(), nil
}

func (s *memoryWorkspaceStore) Snapshot() []*Workspace {
	out, _ := s.List(context.Background())
	return out
}

// Restore replaces the registry contents. Intended for startup only.
func (s *memoryWorkspaceStore) Restore(workspaces []*Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workspaces = make(map[string]*Workspace, len(workspaces))
	s.order = s.order[:0]
	for _, ws := range workspaces {
		if ws == nil || ws.ID == "" {
			continue
		}
		if _, dup := s.workspaces[ws.ID]; dup {
			continue
		}
		s.workspaces[ws.ID] = ws.Clone()
		s.order = append(s.order, ws.ID)
	}
	log.Printf("[Store] Restored %d workspaces", len(s.order))
}
