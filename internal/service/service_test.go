package service

import (
	"sync"

	"github.com/Marga-Ghale/protolab-backend/internal/repository"
	"github.com/Marga-Ghale/protolab-backend/internal/socket"
)

type publishedEvent struct {
	workspaceID string
	msgType     socket.MessageType
	payload     map[string]interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(workspaceID string, msgType socket.MessageType, payload map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{workspaceID, msgType, payload})
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func (p *recordingPublisher) last() publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type fixture struct {
	store     repository.WorkspaceStore
	publisher *recordingPublisher
	workspace WorkspaceService
	changes   ChangeTracker
}

func newFixture(enforceRoles, requireVersion bool) *fixture {
	store := repository.NewMemoryWorkspaceStore()
	pub := &recordingPublisher{}
	return &fixture{
		store:     store,
		publisher: pub,
		workspace: NewWorkspaceService(store, pub),
		changes:   NewChangeTracker(store, NewPermissionService(enforceRoles), pub, requireVersion),
	}
}
