package task

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/taskflow/backend/internal/domain/notification"
	"github.com/taskflow/backend/internal/domain/project"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
	"go.uber.org/zap"
)

// ExpirySweepService removes tasks whose approval is older than the retention window
type ExpirySweepService struct {
	tasks    *TaskService
	repo     task.TaskRepository
	projects project.ProjectRepository
	notifier Notifier
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
}

// NewExpirySweepService creates a new ExpirySweepService. Cleanup of each
// task goes through the same path as an explicit delete.
func NewExpirySweepService(tasks *TaskService, logger *zap.Logger) *ExpirySweepService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpirySweepService{
		tasks:    tasks,
		repo:     tasks.tasks,
		projects: tasks.projects,
		notifier: tasks.notifier,
		logger:   logger,
	}
}

// ErrSweepInProgress is returned when a sweep is requested while another one runs
var ErrSweepInProgress = shared.Conflict("An expiry sweep is already running")

// SweepExpired deletes every task approved at or before now minus the
// retention window. Tasks are processed independently: one failure does not
// stop the others.
func (s *ExpirySweepService) SweepExpired(ctx context.Context, now time.Time) (*SweepStats, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrSweepInProgress
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	stats := &SweepStats{ProcessedAt: now}
	cutoff := now.Add(-task.ApprovalRetention)

	expired, err := s.repo.FindApprovedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to find expired tasks", zap.Error(err))
		return nil, err
	}
	stats.TotalExpired = len(expired)
	if len(expired) == 0 {
		s.logger.Debug("No expired tasks found")
		return stats, nil
	}

	s.logger.Info("Found expired tasks to remove",
		zap.Int("count", len(expired)),
		zap.Time("cutoff", cutoff),
	)

	for _, t := range expired {
		if !t.IsExpired(now) {
			continue
		}
		blobsFailed, err := s.expire(ctx, t)
		stats.BlobsFailed += blobsFailed
		if err != nil {
			stats.Failed++
			s.logger.Error("Failed to remove expired task",
				zap.String("task_id", t.ID.String()),
				zap.Error(err),
			)
			continue
		}
		stats.Deleted++
	}

	s.logger.Info("Expiry sweep completed",
		zap.Int("total_expired", stats.TotalExpired),
		zap.Int("deleted", stats.Deleted),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

func (s *ExpirySweepService) expire(ctx context.Context, t *task.Task) (int, error) {
	purged, err := s.tasks.purgeActivities(ctx, []*task.Task{t})
	if err != nil {
		return 0, err
	}
	s.notifyOwner(ctx, t)
	if err := s.repo.Delete(ctx, t.ID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return purged.BlobsFailed, nil
		}
		return purged.BlobsFailed, err
	}
	s.tasks.announceDeleted(t)
	return purged.BlobsFailed, nil
}

func (s *ExpirySweepService) notifyOwner(ctx context.Context, t *task.Task) {
	proj, err := s.projects.FindByID(ctx, t.ProjectID)
	if err != nil {
		s.logger.Warn("Project lookup failed for expiry notification",
			zap.String("task_id", t.ID.String()),
			zap.Error(err),
		)
		return
	}
	note, err := notification.New(proj.OwnerID, notification.KindInfo,
		notification.TaskExpiredMessage(t.Title), proj.ID.String(),
		&notification.Metadata{TaskID: t.ID.String()})
	if err != nil {
		return
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Warn("Failed to notify owner of expired task",
			zap.String("task_id", t.ID.String()),
			zap.String("owner_id", proj.OwnerID),
			zap.Error(err),
		)
	}
}
