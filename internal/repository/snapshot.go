package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "collab:workspaces"

// Cache is the subset of db.RedisDB used for registry snapshots.
type Cache interface {
	SetCache(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetCache(ctx context.Context, key string, dest interface{}) error
}

// Snapshotter copies the in-memory registry to and from a cache so that a
// restart does not lose every workspace.
type Snapshotter struct {
	cache Cache
	store WorkspaceStore
}

func NewSnapshotter(cache Cache, store WorkspaceStore) *Snapshotter {
	return &Snapshotter{cache: cache, store: store}
}

func (s *Snapshotter) Save(ctx context.Context) (int, error) {
	workspaces := s.store.Snapshot()
	if err := s.cache.SetCache(ctx, snapshotKey, workspaces, 0); err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}
	return len(workspaces), nil
}

// Load restores the registry from the last snapshot. A missing snapshot is
// not an error; the store is left untouched.
func (s *Snapshotter) Load(ctx context.Context) (int, error) {
	var workspaces []*Workspace
	if err := s.cache.GetCache(ctx, snapshotKey, &workspaces); err != nil {
		if IsCacheMiss(err) {
			log.Println("[Store] No snapshot found, starting empty")
			return 0, nil
		}
		return 0, fmt.Errorf("load snapshot: %w", err)
	}
	s.store.Restore(workspaces)
	return len(workspaces), nil
}

// IsCacheMiss reports whether err means the key does not exist.
func IsCacheMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}
