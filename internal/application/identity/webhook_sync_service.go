package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// WebhookSyncService reconciles the local mirror with identity-provider
// lifecycle events. Each handler runs its steps independently: a failing step
// is logged and reported but never rolls back the steps already committed.
type WebhookSyncService struct {
	users       identity.UserRepository
	projects    ProjectDirectory
	requests    identity.AdminRequestRepository
	provider    IdentityProvider
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	bus         shared.Broadcaster
	logger      *zap.Logger
}

// NewWebhookSyncService creates a new WebhookSyncService. A nil idempotency
// store disables delivery deduplication.
func NewWebhookSyncService(
	users identity.UserRepository,
	projects ProjectDirectory,
	requests identity.AdminRequestRepository,
	provider IdentityProvider,
	idempotency shared.IdempotencyStore,
	bus shared.Broadcaster,
	logger *zap.Logger,
) *WebhookSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = shared.NopBroadcaster{}
	}
	return &WebhookSyncService{
		users:       users,
		projects:    projects,
		requests:    requests,
		provider:    provider,
		idempotency: idempotency,
		idemConfig:  shared.DefaultIdempotencyConfig(),
		bus:         bus,
		logger:      logger,
	}
}

// SetIdempotencyConfig sets the deduplication settings
func (s *WebhookSyncService) SetIdempotencyConfig(cfg shared.IdempotencyConfig) {
	s.idemConfig = cfg
}

// Process applies a verified delivery once. A redelivered id is acknowledged
// without side effects. When handling fails the id is released so the
// provider's retry is applied.
func (s *WebhookSyncService) Process(ctx context.Context, deliveryID string, evt SyncEvent) error {
	dedupe := s.idempotency != nil && s.idemConfig.Enabled && deliveryID != ""
	if dedupe {
		fresh, err := s.idempotency.MarkProcessed(ctx, deliveryID, s.idemConfig.TTL)
		if err != nil {
			// Proceed without deduplication.
			s.logger.Warn("Idempotency check failed",
				zap.String("delivery_id", deliveryID),
				zap.Error(err),
			)
			dedupe = false
		} else if !fresh {
			s.logger.Info("Duplicate webhook delivery ignored",
				zap.String("delivery_id", deliveryID),
				zap.String("type", evt.EventType()),
			)
			return nil
		}
	}

	err := s.Handle(ctx, evt)
	if err != nil && dedupe {
		if rerr := s.idempotency.Release(ctx, deliveryID); rerr != nil {
			s.logger.Warn("Failed to release webhook delivery id",
				zap.String("delivery_id", deliveryID),
				zap.Error(rerr),
			)
		}
	}
	return err
}

// Handle dispatches one event to its handler
func (s *WebhookSyncService) Handle(ctx context.Context, evt SyncEvent) error {
	start := time.Now()
	var err error
	switch e := evt.(type) {
	case UserCreated:
		err = s.userCreated(ctx, e)
	case UserUpdated:
		err = s.userUpdated(ctx, e)
	case UserDeleted:
		err = s.userDeleted(ctx, e)
	case MembershipChanged:
		err = s.membershipChanged(ctx, e)
	case MembershipDeleted:
		err = s.membershipDeleted(ctx, e)
	case OrganizationDeleted:
		err = s.organizationDeleted(ctx, e)
	default:
		s.logger.Debug("Ignoring unhandled webhook event", zap.String("type", evt.EventType()))
		return nil
	}

	if err != nil {
		s.logger.Error("Webhook event handling failed",
			zap.String("type", evt.EventType()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return err
	}
	s.logger.Info("Webhook event handled",
		zap.String("type", evt.EventType()),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (s *WebhookSyncService) userCreated(ctx context.Context, e UserCreated) error {
	if e.Email == "" {
		s.logger.Info("User has no primary email, skipping mirror", zap.String("user_id", e.UserID))
		return nil
	}
	u, err := identity.NewUser(e.UserID, e.Email)
	if err != nil {
		s.logger.Warn("Invalid user payload, skipping mirror",
			zap.String("user_id", e.UserID),
			zap.Error(err),
		)
		return nil
	}
	if err := u.ApplyProfile(identity.UserProfile{
		Username:  &e.Username,
		FirstName: &e.FirstName,
		LastName:  &e.LastName,
		Photo:     &e.Photo,
	}); err != nil {
		return err
	}
	if e.Role.IsGlobal() {
		u.Role = e.Role
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			s.logger.Info("User already mirrored", zap.String("user_id", e.UserID))
			return nil
		}
		return err
	}
	return nil
}

func (s *WebhookSyncService) userUpdated(ctx context.Context, e UserUpdated) error {
	u, err := s.users.FindByID(ctx, e.UserID)
	if errors.Is(err, shared.ErrNotFound) {
		if e.Profile.Email == nil || *e.Profile.Email == "" {
			s.logger.Info("Update for unknown user without email, skipping", zap.String("user_id", e.UserID))
			return nil
		}
		u, err = identity.NewUser(e.UserID, *e.Profile.Email)
		if err != nil {
			s.logger.Warn("Invalid user payload, skipping mirror",
				zap.String("user_id", e.UserID),
				zap.Error(err),
			)
			return nil
		}
		if err := u.ApplyProfile(e.Profile); err != nil {
			return err
		}
		if err := s.users.Create(ctx, u); err != nil && !errors.Is(err, shared.ErrAlreadyExists) {
			return err
		}
		return nil
	}
	if err != nil {
		return err
	}
	if err := u.ApplyProfile(e.Profile); err != nil {
		s.logger.Warn("Invalid profile fields in update",
			zap.String("user_id", e.UserID),
			zap.Error(err),
		)
		return nil
	}
	return s.users.Update(ctx, u)
}

func (s *WebhookSyncService) userDeleted(ctx context.Context, e UserDeleted) error {
	var errs []error
	if err := s.users.Delete(ctx, e.UserID); err != nil && !errors.Is(err, shared.ErrNotFound) {
		errs = append(errs, fmt.Errorf("delete user mirror: %w", err))
	}
	n, err := s.projects.RemoveUserEverywhere(ctx, e.UserID)
	if err != nil {
		errs = append(errs, fmt.Errorf("remove user from projects: %w", err))
	} else {
		s.logger.Info("Removed deleted user from projects",
			zap.String("user_id", e.UserID),
			zap.Int64("projects", n),
		)
	}
	return errors.Join(errs...)
}

func (s *WebhookSyncService) membershipChanged(ctx context.Context, e MembershipChanged) error {
	role := identity.GlobalRoleForOrgRole(e.OrgRole)
	var errs []error
	if err := s.users.UpdateRole(ctx, e.UserID, role); err != nil && !errors.Is(err, shared.ErrNotFound) {
		errs = append(errs, fmt.Errorf("update mirrored role: %w", err))
	}
	if err := s.provider.UpdateUserMetadataRole(ctx, e.UserID, role); err != nil {
		errs = append(errs, shared.UpstreamError("update user metadata", err))
	}
	s.bus.Broadcast(shared.OrgRoom(e.OrgID), shared.EventTeamUpdated, TeamUpdatedPayload{
		OrgID:  e.OrgID,
		UserID: e.UserID,
		Reason: "membership_changed",
	})
	return errors.Join(errs...)
}

func (s *WebhookSyncService) membershipDeleted(ctx context.Context, e MembershipDeleted) error {
	var errs []error
	if _, err := s.projects.RemoveUserFromOrg(ctx, e.OrgID, e.UserID); err != nil {
		errs = append(errs, fmt.Errorf("remove user from org projects: %w", err))
	}
	if err := s.users.UpdateRole(ctx, e.UserID, identity.RoleMember); err != nil && !errors.Is(err, shared.ErrNotFound) {
		errs = append(errs, fmt.Errorf("downgrade mirrored role: %w", err))
	}
	s.bus.Broadcast(shared.UserRoom(e.UserID), shared.EventSessionRefresh, SessionRefreshPayload{
		UserID: e.UserID,
		Reason: "membership_deleted",
	})
	s.bus.Broadcast(shared.OrgRoom(e.OrgID), shared.EventTeamUpdated, TeamUpdatedPayload{
		OrgID:  e.OrgID,
		UserID: e.UserID,
		Reason: "membership_deleted",
	})
	return errors.Join(errs...)
}

func (s *WebhookSyncService) organizationDeleted(ctx context.Context, e OrganizationDeleted) error {
	var errs []error
	stats, err := s.projects.DeleteByOrg(ctx, e.OrgID)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete organization projects: %w", err))
	}
	if stats != nil {
		s.logger.Info("Organization projects deleted",
			zap.String("org_id", e.OrgID),
			zap.Int("projects", stats.Projects),
			zap.Int64("tasks", stats.Tasks),
		)
	}
	if err := s.requests.DeleteByOrg(ctx, e.OrgID); err != nil {
		errs = append(errs, fmt.Errorf("delete organization requests: %w", err))
	}
	return errors.Join(errs...)
}
