package project

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/project"
	"github.com/taskflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RoomGuard decides which real-time rooms a connected user may subscribe to.
// Project rooms follow project visibility; org rooms require membership of
// that organization.
type RoomGuard struct {
	projects project.ProjectRepository
	logger   *zap.Logger
}

// NewRoomGuard creates a guard backed by the project store
func NewRoomGuard(projects project.ProjectRepository, logger *zap.Logger) *RoomGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomGuard{projects: projects, logger: logger}
}

// CanJoin reports whether actor may join room
func (g *RoomGuard) CanJoin(ctx context.Context, actor identity.Actor, room shared.Room) bool {
	switch {
	case room.HasPrefix(shared.UserRoomPrefix):
		return room == shared.UserRoom(actor.UserID)
	case room.HasPrefix(shared.OrgRoomPrefix):
		return actor.OrgID != "" && room == shared.OrgRoom(actor.OrgID)
	case room.HasPrefix(shared.ProjectRoomPrefix):
		id, err := uuid.Parse(strings.TrimPrefix(string(room), shared.ProjectRoomPrefix))
		if err != nil {
			return false
		}
		p, err := g.projects.FindByID(ctx, id)
		if err != nil {
			g.logger.Debug("Project room join refused",
				zap.String("room", string(room)),
				zap.String("user_id", actor.UserID),
				zap.Error(err),
			)
			return false
		}
		return p.CanView(actor)
	default:
		return false
	}
}
