package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Marga-Ghale/protolab-backend/internal/service"
	"github.com/robfig/cron/v3"
)

const presenceSchedule = "@every 1m"

// SnapshotSaver persists the workspace registry.
type SnapshotSaver interface {
	Save(ctx context.Context) (int, error)
}

// ConnectionChecker reports whether a user still holds a live socket.
type ConnectionChecker interface {
	IsUserConnected(workspaceID, userID string) bool
}

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron             *cron.Cron
	workspaceService service.WorkspaceService
	connections      ConnectionChecker
	snapshots        SnapshotSaver
	snapshotSchedule string
	presenceTimeout  time.Duration
}

// NewScheduler creates a new scheduler. snapshots may be nil when no Redis
// is configured; the snapshot job is then not registered.
func NewScheduler(workspaceService service.WorkspaceService, connections ConnectionChecker, snapshots SnapshotSaver, snapshotSchedule string, presenceTimeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:             cron.New(),
		workspaceService: workspaceService,
		connections:      connections,
		snapshots:        snapshots,
		snapshotSchedule: snapshotSchedule,
		presenceTimeout:  presenceTimeout,
	}
}

// Start registers the jobs and starts the scheduler
func (s *Scheduler) Start() error {
	if s.snapshots != nil {
		if _, err := s.cron.AddFunc(s.snapshotSchedule, func() {
			s.saveSnapshot()
		}); err != nil {
			return fmt.Errorf("invalid snapshot schedule %q: %w", s.snapshotSchedule, err)
		}
	}

	// Mark idle participants offline
	if _, err := s.cron.AddFunc(presenceSchedule, func() {
		s.sweepPresence()
	}); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("[Cron] Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[Cron] Scheduler stopped")
}

func (s *Scheduler) saveSnapshot() {
	if s.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := s.snapshots.Save(ctx)
	if err != nil {
		log.Printf("[Cron] Error saving workspace snapshot: %v", err)
		return
	}
	log.Printf("[Cron] Saved snapshot of %d workspaces", n)
}

func (s *Scheduler) sweepPresence() {
	swept := s.workspaceService.SweepPresence(context.Background(), s.presenceTimeout, s.connections.IsUserConnected)
	if swept > 0 {
		log.Printf("[Cron] Marked %d idle participants offline", swept)
	}
}

// ManualTrigger runs a job immediately (for testing)
func (s *Scheduler) ManualTrigger(checkType string) {
	switch checkType {
	case "snapshot":
		s.saveSnapshot()
	case "presence":
		s.sweepPresence()
	default:
		log.Printf("[Cron] Unknown check type: %s", checkType)
	}
}
