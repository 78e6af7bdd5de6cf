package service

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Marga-Ghale/protolab-backend/internal/repository"
	"github.com/Marga-Ghale/protolab-backend/internal/socket"
	"github.com/Marga-Ghale/protolab-backend/internal/types"
	"github.com/google/uuid"
)

// ============================================
// Change Tracker
// ============================================

type RecordChangeInput struct {
	WorkspaceID string
	DocumentID  string
	Type        string
	Position    int
	Length      int
	Content     string
	// BaseVersion is the document version the author last saw.
	BaseVersion *int
	Actor       Actor
}

type AddCommentInput struct {
	WorkspaceID string
	DocumentID  string
	Content     string
	Position    int
	Actor       Actor
}

type ReplyInput struct {
	WorkspaceID string
	DocumentID  string
	CommentID   string
	Content     string
	Actor       Actor
}

type ReviewChangeInput struct {
	WorkspaceID string
	DocumentID  string
	ChangeID    string
	Approved    bool
	Reviewer    Actor
}

type ChangeTracker interface {
	RecordChange(ctx context.Context, in RecordChangeInput) (*repository.DocumentChange, error)
	AddComment(ctx context.Context, in AddCommentInput) (*repository.Comment, error)
	ReplyToComment(ctx context.Context, in ReplyInput) (*repository.Comment, error)
	ResolveComment(ctx context.Context, workspaceID, documentID, commentID string, actor Actor) (*repository.Comment, error)
	ReviewChange(ctx context.Context, in ReviewChangeInput) (*repository.DocumentChange, error)
}

type changeTracker struct {
	store          repository.WorkspaceStore
	permissions    PermissionService
	publisher      EventPublisher
	requireVersion bool
	now            func() time.Time
}

func NewChangeTracker(store repository.WorkspaceStore, permissions PermissionService, publisher EventPublisher, requireVersion bool) ChangeTracker {
	return &changeTracker{
		store:          store,
		permissions:    permissions,
		publisher:      publisher,
		requireVersion: requireVersion,
		now:            time.Now,
	}
}

// updateDocument runs fn on a private copy of the workspace after resolving
// the document; nothing is committed when fn fails.
func (t *changeTracker) updateDocument(ctx context.Context, workspaceID, documentID string, fn func(ws *repository.Workspace, doc *repository.WorkspaceDocument) error) error {
	_, err := t.store.Update(ctx, workspaceID, func(ws *repository.Workspace) error {
		doc := ws.FindDocument(documentID)
		if doc == nil {
			return notFoundError("Document not found")
		}
		return fn(ws, doc)
	})
	return translateStoreError(err)
}

func (t *changeTracker) RecordChange(ctx context.Context, in RecordChangeInput) (*repository.DocumentChange, error) {
	if !types.IsValidChangeType(in.Type) {
		return nil, validationError("Invalid change type: " + in.Type)
	}
	if strings.TrimSpace(in.Actor.UserID) == "" {
		return nil, validationError("userId is required")
	}
	if t.requireVersion && in.BaseVersion == nil {
		return nil, validationError("baseVersion is required")
	}

	now := t.now()
	change := repository.DocumentChange{
		ID:        uuid.New().String(),
		UserID:    in.Actor.UserID,
		UserName:  in.Actor.UserName,
		Type:      in.Type,
		Position:  in.Position,
		Length:    in.Length,
		Content:   in.Content,
		Timestamp: now,
		Approved:  false,
	}
	var version int

	err := t.updateDocument(ctx, in.WorkspaceID, in.DocumentID, func(ws *repository.Workspace, doc *repository.WorkspaceDocument) error {
		if in.Position < 0 || in.Length < 0 {
			return validationError("Position and length must not be negative")
		}
		if err := t.permissions.Check(ws, in.Actor, CapEdit); err != nil {
			return err
		}
		if in.BaseVersion != nil && *in.BaseVersion != doc.Version {
			return conflictError("Document has changed: expected version " +
				strconv.Itoa(*in.BaseVersion) + ", current version " + strconv.Itoa(doc.Version))
		}

		doc.Changes = append(doc.Changes, change)
		doc.Version++
		doc.LastEditedBy = in.Actor.UserID
		editedAt := now
		doc.LastEditedAt = &editedAt
		ws.LastModified = now
		version = doc.Version
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Changes] Recorded %s change %s on document %s (v%d)", change.Type, change.ID, in.DocumentID, version)
	t.publish(in.WorkspaceID, socket.MessageDocumentChanged, map[string]interface{}{
		"documentId": in.DocumentID,
		"change":     change,
		"version":    version,
	})
	return &change, nil
}

func (t *changeTracker) AddComment(ctx context.Context, in AddCommentInput) (*repository.Comment, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, validationError("Comment content is required")
	}
	comment := t.newComment(in.Actor, in.Content, in.Position)

	err := t.updateDocument(ctx, in.WorkspaceID, in.DocumentID, func(ws *repository.Workspace, doc *repository.WorkspaceDocument) error {
		if in.Position < 0 {
			return validationError("Position must not be negative")
		}
		if err := t.permissions.Check(ws, in.Actor, CapComment); err != nil {
			return err
		}
		doc.Comments = append(doc.Comments, comment)
		ws.LastModified = comment.Timestamp
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.publish(in.WorkspaceID, socket.MessageCommentAdded, map[string]interface{}{
		"documentId": in.DocumentID,
		"comment":    comment,
	})
	return &comment, nil
}

func (t *changeTracker) ReplyToComment(ctx context.Context, in ReplyInput) (*repository.Comment, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, validationError("Reply content is required")
	}

	var reply repository.Comment
	err := t.updateDocument(ctx, in.WorkspaceID, in.DocumentID, func(ws *repository.Workspace, doc *repository.WorkspaceDocument) error {
		parent := doc.FindComment(in.CommentID)
		if parent == nil {
			return notFoundError("Comment not found")
		}
		if err := t.permissions.Check(ws, in.Actor, CapComment); err != nil {
			return err
		}
		reply = t.newComment(in.Actor, in.Content, parent.Position)
		parent.Replies = append(parent.Replies, reply)
		ws.LastModified = reply.Timestamp
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.publish(in.WorkspaceID, socket.MessageCommentReplied, map[string]interface{}{
		"documentId": in.DocumentID,
		"parentId":   in.CommentID,
		"comment":    reply,
	})
	return &reply, nil
}

func (t *changeTracker) ResolveComment(ctx context.Context, workspaceID, documentID, commentID string, actor Actor) (*repository.Comment, error) {
	var resolved repository.Comment
	err := t.updateDocument(ctx, workspaceID, documentID, func(ws *repository.Workspace, doc *repository.WorkspaceDocument) error {
		comment := doc.FindComment(commentID)
		if comment == nil {
			return notFoundError("Comment not found")
		}
		if err := t.permissions.Check(ws, actor, CapComment); err != nil {
			return err
		}
		comment.Resolved = true
		comment.ResolvedBy = actor.UserID
		ws.LastModified = t.now()
		resolved = *comment
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.publish(workspaceID, socket.MessageCommentResolved, map[string]interface{}{
		"documentId": documentID,
		"commentId":  commentID,
		"resolvedBy": actor.UserID,
	})
	return &resolved, nil
}

// ReviewChange approves or rejects a pending change exactly once. Approval
// applies the change to the document content.
func (t *changeTracker) ReviewChange(ctx context.Context, in ReviewChangeInput) (*repository.DocumentChange, error) {
	if strings.TrimSpace(in.Reviewer.UserID) == "" {
		return nil, validationError("reviewerId is required")
	}

	now := t.now()
	var reviewed repository.DocumentChange
	var content string

	err := t.updateDocument(ctx, in.WorkspaceID, in.DocumentID, func(ws *repository.Workspace, doc *repository.WorkspaceDocument) error {
		change := doc.FindChange(in.ChangeID)
		if change == nil {
			return notFoundError("Change not found")
		}
		if err := t.permissions.Check(ws, in.Reviewer, CapReview); err != nil {
			return err
		}
		if change.Reviewed() {
			return conflictError("Change has already been reviewed")
		}

		change.Approved = in.Approved
		change.ReviewedBy = in.Reviewer.UserID
		reviewedAt, editedAt := now, now
		change.ReviewedAt = &reviewedAt
		if in.Approved {
			doc.Content = applyChange(doc.Content, change)
			doc.LastEditedBy = change.UserID
			doc.LastEditedAt = &editedAt
		}
		ws.LastModified = now

		reviewed = *change
		reviewed.ReviewedAt = &now
		content = doc.Content
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Changes] Change %s reviewed by %s: approved=%v", in.ChangeID, in.Reviewer.UserID, in.Approved)
	t.publish(in.WorkspaceID, socket.MessageChangeReviewed, map[string]interface{}{
		"documentId": in.DocumentID,
		"change":     reviewed,
		"content":    content,
	})
	return &reviewed, nil
}

func (t *changeTracker) newComment(actor Actor, content string, position int) repository.Comment {
	return repository.Comment{
		ID:        uuid.New().String(),
		UserID:    actor.UserID,
		UserName:  actor.UserName,
		Content:   content,
		Position:  position,
		Resolved:  false,
		Replies:   []repository.Comment{},
		Timestamp: t.now(),
	}
}

func (t *changeTracker) publish(workspaceID string, msgType socket.MessageType, payload map[string]interface{}) {
	if t.publisher != nil {
		t.publisher.Publish(workspaceID, msgType, payload)
	}
}
