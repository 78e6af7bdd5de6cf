package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Marga-Ghale/protolab-backend/internal/repository"
	"github.com/Marga-Ghale/protolab-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSaver struct{ calls atomic.Int32 }

func (c *countingSaver) Save(context.Context) (int, error) {
	c.calls.Add(1)
	return 0, nil
}

type noConnections struct{}

func (noConnections) IsUserConnected(string, string) bool { return false }

func newWorkspaceService() service.WorkspaceService {
	return service.NewWorkspaceService(repository.NewMemoryWorkspaceStore(), nil)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(newWorkspaceService(), noConnections{}, &countingSaver{}, "not a schedule", time.Minute)

	assert.Error(t, s.Start())
}

func TestManualTriggerSnapshot(t *testing.T) {
	saver := &countingSaver{}
	s := NewScheduler(newWorkspaceService(), noConnections{}, saver, "@every 1h", time.Minute)

	s.ManualTrigger("snapshot")
	assert.EqualValues(t, 1, saver.calls.Load())
}

func TestManualTriggerPresenceSweep(t *testing.T) {
	ctx := context.Background()
	svc := newWorkspaceService()
	ws, err := svc.CreateWorkspace(ctx, "Pitch Deck", "pitch_deck", []service.ParticipantInput{{Name: "Amina"}})
	require.NoError(t, err)
	userID := ws.Participants[0].ID
	require.NoError(t, svc.SetPresence(ctx, ws.ID, userID, true))

	s := NewScheduler(svc, noConnections{}, nil, "@every 1h", -time.Second)
	s.ManualTrigger("presence")

	got, err := svc.GetWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	assert.False(t, got.Participants[0].IsOnline, "idle participant should be marked offline")
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(newWorkspaceService(), noConnections{}, nil, "", time.Minute)

	require.NoError(t, s.Start())
	s.Stop()
}
