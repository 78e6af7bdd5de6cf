package service

import (
	"context"
	"testing"

	"github.com/Marga-Ghale/protolab-backend/internal/repository"
	"github.com/Marga-Ghale/protolab-backend/internal/socket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDocument(t *testing.T, f *fixture, content string, participants ...ParticipantInput) (*repository.Workspace, *repository.WorkspaceDocument) {
	t.Helper()
	ctx := context.Background()
	ws, err := f.workspace.CreateWorkspace(ctx, "Grant Proposal Q2", "proposal", participants)
	require.NoError(t, err)
	doc, err := f.workspace.AddDocument(ctx, ws.ID, "Draft v1", "draft", content)
	require.NoError(t, err)
	return ws, doc
}

func currentDocument(t *testing.T, f *fixture, workspaceID, documentID string) *repository.WorkspaceDocument {
	t.Helper()
	doc, err := f.workspace.GetDocument(context.Background(), workspaceID, documentID)
	require.NoError(t, err)
	return doc
}

func intPtr(v int) *int { return &v }

func TestRecordChangeIncrementsVersion(t *testing.T) {
	f := newFixture(false, false)
	ctx := context.Background()
	ws, doc := seedDocument(t, f, "")

	for i := 1; i <= 3; i++ {
		change, err := f.changes.RecordChange(ctx, RecordChangeInput{
			WorkspaceID: ws.ID, DocumentID: doc.ID,
			Type: "insert", Position: 0, Content: "x",
			Actor: Actor{UserID: "u1", UserName: "Amina"},
		})
		require.NoError(t, err)
		assert.False(t, change.Approved, "new changes must be pending")
		assert.Empty(t, change.ReviewedBy)

		current := currentDocument(t, f, ws.ID, doc.ID)
		assert.Equal(t, 1+i, current.Version)
		assert.Empty(t, current.Content, "recording must not touch content")
		assert.Equal(t, "u1", current.LastEditedBy)
		assert.NotNil(t, current.LastEditedAt)
	}

	ev := f.publisher.last()
	assert.Equal(t, socket.MessageDocumentChanged, ev.msgType)
	assert.Equal(t, 4, ev.payload["version"])
}

func TestRecordChangeValidation(t *testing.T) {
	f := newFixture(false, false)
	ws, doc := seedDocument(t, f, "abc")

	cases := []struct {
		name string
		in   RecordChangeInput
		want error
	}{
		{name: "bad type", in: RecordChangeInput{Type: "move", Actor: Actor{UserID: "u"}}, want: ErrValidation},
		{name: "negative position", in: RecordChangeInput{Type: "insert", Position: -1, Actor: Actor{UserID: "u"}}, want: ErrValidation},
		{name: "negative length", in: RecordChangeInput{Type: "delete", Length: -2, Actor: Actor{UserID: "u"}}, want: ErrValidation},
		{name: "missing user", in: RecordChangeInput{Type: "insert"}, want: ErrValidation},
		{name: "missing workspace", in: RecordChangeInput{WorkspaceID: "nope", DocumentID: doc.ID, Type: "insert", Actor: Actor{UserID: "u"}}, want: ErrNotFound},
		{name: "missing document", in: RecordChangeInput{WorkspaceID: ws.ID, DocumentID: "nope", Type: "insert", Actor: Actor{UserID: "u"}}, want: ErrNotFound},
		{name: "missing workspace wins over negative position", in: RecordChangeInput{WorkspaceID: "nope", DocumentID: doc.ID, Type: "insert", Position: -1, Actor: Actor{UserID: "u"}}, want: ErrNotFound},
		{name: "missing document wins over negative length", in: RecordChangeInput{WorkspaceID: ws.ID, DocumentID: "nope", Type: "delete", Length: -1, Actor: Actor{UserID: "u"}}, want: ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.in.WorkspaceID == "" {
				tc.in.WorkspaceID, tc.in.DocumentID = ws.ID, doc.ID
			}
			before := f.publisher.count()

			_, err := f.changes.RecordChange(context.Background(), tc.in)
			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, before, f.publisher.count(), "failed change must not broadcast")
			assert.Equal(t, 1, currentDocument(t, f, ws.ID, doc.ID).Version, "failed change must not bump version")
		})
	}
}

func TestAddCommentNotFoundWinsOverNegativePosition(t *testing.T) {
	f := newFixture(false, false)
	_, doc := seedDocument(t, f, "")

	_, err := f.changes.AddComment(context.Background(), AddCommentInput{
		WorkspaceID: "nope", DocumentID: doc.ID, Content: "hi", Position: -1, Actor: Actor{UserID: "u"},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordChangeOptimisticConcurrency(t *testing.T) {
	f := newFixture(false, true)
	ctx := context.Background()
	ws, doc := seedDocument(t, f, "")

	base := RecordChangeInput{WorkspaceID: ws.ID, DocumentID: doc.ID, Type: "insert", Content: "a", Actor: Actor{UserID: "u1"}}

	_, err := f.changes.RecordChange(ctx, base)
	require.ErrorIs(t, err, ErrValidation, "baseVersion should be required")

	first := base
	first.BaseVersion = intPtr(1)
	_, err = f.changes.RecordChange(ctx, first)
	require.NoError(t, err)

	stale := base
	stale.BaseVersion = intPtr(1)
	_, err = f.changes.RecordChange(ctx, stale)
	require.ErrorIs(t, err, ErrConflict)

	current := currentDocument(t, f, ws.ID, doc.ID)
	assert.Equal(t, 2, current.Version)
	assert.Len(t, current.Changes, 1, "stale write must leave state untouched")
}

func TestReviewChangeApproveAppliesContent(t *testing.T) {
	f := newFixture(false, false)
	ctx := context.Background()
	ws, doc := seedDocument(t, f, " world")

	change, err := f.changes.RecordChange(ctx, RecordChangeInput{
		WorkspaceID: ws.ID, DocumentID: doc.ID, Type: "insert", Position: 0, Content: "Hello",
		Actor: Actor{UserID: "author", UserName: "Author"},
	})
	require.NoError(t, err)

	reviewed, err := f.changes.ReviewChange(ctx, ReviewChangeInput{
		WorkspaceID: ws.ID, DocumentID: doc.ID, ChangeID: change.ID, Approved: true,
		Reviewer: Actor{UserID: "rev-1", UserName: "Reviewer"},
	})
	require.NoError(t, err)
	assert.True(t, reviewed.Approved)
	assert.Equal(t, "rev-1", reviewed.ReviewedBy)
	assert.NotNil(t, reviewed.ReviewedAt)

	current := currentDocument(t, f, ws.ID, doc.ID)
	assert.Equal(t, "Hello world", current.Content)
	assert.Equal(t, 2, current.Version, "review must not bump version")

	stored := current.FindChange(change.ID)
	require.NotNil(t, stored)
	assert.True(t, stored.Approved)
	assert.Equal(t, "rev-1", stored.ReviewedBy)

	ev := f.publisher.last()
	assert.Equal(t, socket.MessageChangeReviewed, ev.msgType)
	assert.Equal(t, "Hello world", ev.payload["content"])
}

func TestReviewChangeRejectLeavesContent(t *testing.T) {
	f := newFixture(false, false)
	ctx := context.Background()
	ws, doc := seedDocument(t, f, "Original text")

	change, err := f.changes.RecordChange(ctx, RecordChangeInput{
		WorkspaceID: ws.ID, DocumentID: doc.ID, Type: "replace", Position: 0, Length: 8, Content: "New",
		Actor: Actor{UserID: "author"},
	})
	require.NoError(t, err)

	reviewed, err := f.changes.ReviewChange(ctx, ReviewChangeInput{
		WorkspaceID: ws.ID, DocumentID: doc.ID, ChangeID: change.ID, Approved: false,
		Reviewer: Actor{UserID: "rev-1"},
	})
	require.NoError(t, err)
	assert.False(t, reviewed.Approved)
	assert.Equal(t, "rev-1", reviewed.ReviewedBy)
	assert.Equal(t, "Original text", currentDocument(t, f, ws.ID, doc.ID).Content)
}

func TestReviewChangeOnlyOnce(t *testing.T) {
	f := newFixture(false, false)
	ctx := context.Background()
	ws, doc := seedDocument(t, f, "")

	change, err := f.changes.RecordChange(ctx, RecordChangeInput{
		WorkspaceID: ws.ID, DocumentID: doc.ID, Type: "insert", Content: "Hi", Actor: Actor{UserID: "a"},
	})
	require.NoError(t, err)
	in := ReviewChangeInput{WorkspaceID: ws.ID, DocumentID: doc.ID, ChangeID: change.ID, Approved: true, Reviewer: Actor{UserID: "r"}}

	_, err = f.changes.ReviewChange(ctx, in)
	require.NoError(t, err)
	_, err = f.changes.ReviewChange(ctx, in)
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "Hi", currentDocument(t, f, ws.ID, doc.ID).Content, "second review must not reapply")
}

func TestReviewChangeNotFound(t *testing.T) {
	f := newFixture(false, false)
	ws, doc := seedDocument(t, f, "")
	before := f.publisher.count()

	for _, in := range []ReviewChangeInput{
		{WorkspaceID: "nope", DocumentID: doc.ID, ChangeID: "c", Reviewer: Actor{UserID: "r"}},
		{WorkspaceID: ws.ID, DocumentID: "nope", ChangeID: "c", Reviewer: Actor{UserID: "r"}},
		{WorkspaceID: ws.ID, DocumentID: doc.ID, ChangeID: "nope", Reviewer: Actor{UserID: "r"}},
	} {
		_, err := f.changes.ReviewChange(context.Background(), in)
		assert.ErrorIs(t, err, ErrNotFound, "%+v", in)
	}
	assert.Equal(t, before, f.publisher.count(), "not found must not broadcast")
}

func TestCommentsRepliesAndResolve(t *testing.T) {
	f := newFixture(false, false)
	ctx := context.Background()
	ws, doc := seedDocument(t, f, "Market size")

	comment, err := f.changes.AddComment(ctx, AddCommentInput{
		WorkspaceID: ws.ID, DocumentID: doc.ID, Content: "Cite a source", Position: 3,
		Actor: Actor{UserID: "u1", UserName: "Amina"},
	})
	require.NoError(t, err)
	assert.False(t, comment.Resolved)
	assert.Equal(t, 3, comment.Position)
	assert.Equal(t, "Amina", comment.UserName)
	assert.Equal(t, socket.MessageCommentAdded, f.publisher.last().msgType)

	reply, err := f.changes.ReplyToComment(ctx, ReplyInput{
		WorkspaceID: ws.ID, DocumentID: doc.ID, CommentID: comment.ID, Content: "Added AfDB figures",
		Actor: Actor{UserID: "u2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, reply.Position, "reply should inherit parent position")

	resolved, err := f.changes.ResolveComment(ctx, ws.ID, doc.ID, comment.ID, Actor{UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, "u1", resolved.ResolvedBy)

	current := currentDocument(t, f, ws.ID, doc.ID)
	require.Len(t, current.Comments, 1)
	assert.Len(t, current.Comments[0].Replies, 1)
	assert.True(t, current.Comments[0].Resolved)

	_, err = f.changes.AddComment(ctx, AddCommentInput{WorkspaceID: ws.ID, DocumentID: doc.ID, Content: " "})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.changes.ReplyToComment(ctx, ReplyInput{WorkspaceID: ws.ID, DocumentID: doc.ID, CommentID: "nope", Content: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.changes.ResolveComment(ctx, ws.ID, "nope", comment.ID, Actor{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoleEnforcement(t *testing.T) {
	f := newFixture(true, false)
	ctx := context.Background()
	ws, doc := seedDocument(t, f, "",
		ParticipantInput{Name: "Owner", Role: "owner"},
		ParticipantInput{Name: "Editor", Role: "editor"},
		ParticipantInput{Name: "Reviewer", Role: "reviewer"},
		ParticipantInput{Name: "Viewer", Role: "viewer"},
	)
	owner, editor, reviewer, viewer := ws.Participants[0].ID, ws.Participants[1].ID, ws.Participants[2].ID, ws.Participants[3].ID

	record := func(userID string) error {
		_, err := f.changes.RecordChange(ctx, RecordChangeInput{
			WorkspaceID: ws.ID, DocumentID: doc.ID, Type: "insert", Content: "x", Actor: Actor{UserID: userID},
		})
		return err
	}

	assert.ErrorIs(t, record(viewer), ErrForbidden, "viewer edit")
	assert.ErrorIs(t, record(reviewer), ErrForbidden, "reviewer edit")
	assert.ErrorIs(t, record("outsider"), ErrForbidden, "outsider edit")
	require.NoError(t, record(editor), "editor edit")

	change := currentDocument(t, f, ws.ID, doc.ID).Changes[0]
	review := func(userID string) error {
		_, err := f.changes.ReviewChange(ctx, ReviewChangeInput{
			WorkspaceID: ws.ID, DocumentID: doc.ID, ChangeID: change.ID, Approved: true, Reviewer: Actor{UserID: userID},
		})
		return err
	}
	assert.ErrorIs(t, review(editor), ErrForbidden, "editor review")
	assert.NoError(t, review(reviewer), "reviewer review")

	_, err := f.changes.AddComment(ctx, AddCommentInput{WorkspaceID: ws.ID, DocumentID: doc.ID, Content: "hm", Actor: Actor{UserID: viewer}})
	assert.ErrorIs(t, err, ErrForbidden, "viewer comment")
	_, err = f.changes.AddComment(ctx, AddCommentInput{WorkspaceID: ws.ID, DocumentID: doc.ID, Content: "ok", Actor: Actor{UserID: owner}})
	assert.NoError(t, err, "owner comment")
}

func TestSessionMustMatchActor(t *testing.T) {
	f := newFixture(false, false)
	ws, doc := seedDocument(t, f, "")

	_, err := f.changes.RecordChange(context.Background(), RecordChangeInput{
		WorkspaceID: ws.ID, DocumentID: doc.ID, Type: "insert", Content: "x",
		Actor: Actor{UserID: "mallory", SessionUserID: "alice"},
	})
	assert.ErrorIs(t, err, ErrForbidden)
}
