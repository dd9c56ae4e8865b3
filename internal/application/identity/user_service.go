package identity

import (
	"context"
	"errors"

	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// UserService exposes the local user mirror
type UserService struct {
	userRepo identity.UserRepository
	provider IdentityProvider
	bus      shared.Broadcaster
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	provider IdentityProvider,
	bus shared.Broadcaster,
	logger *zap.Logger,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = shared.NopBroadcaster{}
	}
	return &UserService{
		userRepo: userRepo,
		provider: provider,
		bus:      bus,
		logger:   logger,
	}
}

// List returns every mirrored user
func (s *UserService) List(ctx context.Context) ([]UserDTO, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserDTO(u))
	}
	return out, nil
}

// Get returns a single mirrored user
func (s *UserService) Get(ctx context.Context, id string) (*UserDTO, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("User")
		}
		return nil, err
	}
	dto := ToUserDTO(u)
	return &dto, nil
}

// UpdateRole sets a user's global role at the identity provider and in the mirror
func (s *UserService) UpdateRole(ctx context.Context, actor identity.Actor, id string, req UpdateRoleRequest) (*UserDTO, error) {
	if !actor.IsAdmin() {
		return nil, shared.Forbidden("Only admins can change roles")
	}
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("User")
		}
		return nil, err
	}
	role := identity.Role(req.Role)
	if err := u.SetRole(role); err != nil {
		return nil, err
	}
	if err := s.provider.UpdateUserMetadataRole(ctx, id, role); err != nil {
		return nil, shared.UpstreamError("update user metadata", err)
	}
	if err := s.userRepo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}

	s.bus.Broadcast(shared.UserRoom(id), shared.EventSessionRefresh, SessionRefreshPayload{UserID: id, Reason: "role_changed"})
	if actor.OrgID != "" {
		s.bus.Broadcast(shared.OrgRoom(actor.OrgID), shared.EventTeamUpdated, TeamUpdatedPayload{
			OrgID:  actor.OrgID,
			UserID: id,
			Reason: "role_changed",
		})
	}
	s.logger.Info("User role updated",
		zap.String("user_id", id),
		zap.String("role", string(role)),
		zap.String("updated_by", actor.UserID),
	)
	dto := ToUserDTO(u)
	return &dto, nil
}
