package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskRepository defines persistence for tasks and their assignee sets
type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	// Save overwrites the task, including assignees, attachments and comments
	Save(ctx context.Context, t *Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*Task, error)
	// FindByProject lists the tasks of a project, newest first
	FindByProject(ctx context.Context, projectID uuid.UUID) ([]*Task, error)
	// FindByAssignee lists the tasks assigned to userID, newest first
	FindByAssignee(ctx context.Context, userID string) ([]*Task, error)
	// FindApprovedBefore lists approved tasks with approvedAt <= cutoff
	FindApprovedBefore(ctx context.Context, cutoff time.Time) ([]*Task, error)
	// AddAssignee inserts userID into the assignee set; adding an existing assignee is a no-op
	AddAssignee(ctx context.Context, taskID uuid.UUID, userID string) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
}
