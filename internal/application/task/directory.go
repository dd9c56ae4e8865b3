package task

import (
	"context"

	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/task"
	"go.uber.org/zap"
)

// Directory resolves user ids to the display snapshots stored on comments and
// activities. Unknown users fall back to their id.
type Directory struct {
	users  identity.UserRepository
	logger *zap.Logger
}

// NewDirectory creates a new Directory
func NewDirectory(users identity.UserRepository, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{users: users, logger: logger}
}

// Snapshot captures the current name and photo of a user
func (d *Directory) Snapshot(ctx context.Context, userID string) task.ActorSnapshot {
	snap := task.ActorSnapshot{ID: userID, Name: userID}
	u, err := d.users.FindByID(ctx, userID)
	if err != nil {
		d.logger.Debug("User mirror not found for snapshot",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return snap
	}
	snap.Name = u.DisplayName()
	snap.Photo = u.Photo
	return snap
}

// Comment builds a comment authored by the user
func (d *Directory) Comment(ctx context.Context, userID, text string) task.Comment {
	snap := d.Snapshot(ctx, userID)
	return task.Comment{AuthorID: snap.ID, AuthorName: snap.Name, Text: text}
}
