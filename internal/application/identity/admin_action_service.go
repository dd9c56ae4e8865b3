package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AdminActionService implements the dual-control admin workflow: demoting an
// admin or deleting an organization needs a request by one admin and an
// approval by a different one.
type AdminActionService struct {
	requests identity.AdminRequestRepository
	users    identity.UserRepository
	provider IdentityProvider
	projects ProjectDirectory
	bus      shared.Broadcaster
	logger   *zap.Logger
}

// NewAdminActionService creates a new AdminActionService
func NewAdminActionService(
	requests identity.AdminRequestRepository,
	users identity.UserRepository,
	provider IdentityProvider,
	projects ProjectDirectory,
	bus shared.Broadcaster,
	logger *zap.Logger,
) *AdminActionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = shared.NopBroadcaster{}
	}
	return &AdminActionService{
		requests: requests,
		users:    users,
		provider: provider,
		projects: projects,
		bus:      bus,
		logger:   logger,
	}
}

var errOrgRequired = shared.Invalid("Organization ID required")

// ListPending returns the pending requests of the actor's organization
func (s *AdminActionService) ListPending(ctx context.Context, actor identity.Actor) ([]AdminRequestDTO, error) {
	if err := requireOrgAdmin(actor); err != nil {
		return nil, err
	}
	reqs, err := s.requests.FindByOrg(ctx, actor.OrgID)
	if err != nil {
		return nil, err
	}
	out := make([]AdminRequestDTO, 0, len(reqs))
	for _, r := range reqs {
		if r.Status == identity.AdminRequestPending {
			out = append(out, ToAdminRequestDTO(r))
		}
	}
	return out, nil
}

// RequestDemotion files a request to demote an admin of the actor's organization
func (s *AdminActionService) RequestDemotion(ctx context.Context, actor identity.Actor, req TargetUserRequest) (*AdminRequestDTO, error) {
	if err := requireOrgAdmin(actor); err != nil {
		return nil, err
	}
	r, err := identity.NewDemotionRequest(req.TargetUserID, actor.UserID, actor.OrgID)
	if err != nil {
		return nil, err
	}
	_, err = s.requests.FindPendingDemotion(ctx, req.TargetUserID, actor.OrgID)
	if err == nil {
		return nil, shared.Conflict("A demotion request for this user is already pending")
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if err := s.create(ctx, r, "A demotion request for this user is already pending"); err != nil {
		return nil, err
	}

	s.teamUpdated(actor.OrgID, req.TargetUserID, "demotion_requested")
	dto := ToAdminRequestDTO(r)
	return &dto, nil
}

// ApproveDemotion executes a pending demotion. The approver must differ from
// the requester; a self-approval is rejected before anything changes.
func (s *AdminActionService) ApproveDemotion(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	r, err := s.pendingForApproval(ctx, actor, id, identity.AdminRequestDemoteAdmin)
	if err != nil {
		return err
	}

	if err := s.provider.UpdateOrgMembershipRole(ctx, r.OrgID, r.TargetUserID, identity.OrgRoleMember); err != nil {
		return shared.UpstreamError("update organization membership", err)
	}
	if err := s.provider.UpdateUserMetadataRole(ctx, r.TargetUserID, identity.RoleMember); err != nil {
		return shared.UpstreamError("update user metadata", err)
	}
	s.mirrorRole(ctx, r.TargetUserID, identity.RoleMember)

	r.MarkApproved()
	if err := s.requests.Delete(ctx, r.ID); err != nil {
		return err
	}

	s.sessionRefresh(r.TargetUserID, "demoted")
	s.teamUpdated(r.OrgID, r.TargetUserID, "demoted")
	s.logger.Info("Admin demotion approved",
		zap.String("request_id", r.ID.String()),
		zap.String("target_user_id", r.TargetUserID),
		zap.String("requester_id", r.RequesterUserID),
		zap.String("approver_id", actor.UserID),
	)
	return nil
}

// RequestOrgDeletion files a request to delete the actor's organization
func (s *AdminActionService) RequestOrgDeletion(ctx context.Context, actor identity.Actor) (*AdminRequestDTO, error) {
	if err := requireOrgAdmin(actor); err != nil {
		return nil, err
	}
	r, err := identity.NewOrgDeletionRequest(actor.UserID, actor.OrgID)
	if err != nil {
		return nil, err
	}
	_, err = s.requests.FindPendingOrgDeletion(ctx, actor.OrgID)
	if err == nil {
		return nil, shared.Conflict("An organization deletion request is already pending")
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if err := s.create(ctx, r, "An organization deletion request is already pending"); err != nil {
		return nil, err
	}

	s.teamUpdated(actor.OrgID, "", "deletion_requested")
	dto := ToAdminRequestDTO(r)
	return &dto, nil
}

// ApproveOrgDeletion deletes the organization at the provider, cascades its
// projects and clears its admin requests.
func (s *AdminActionService) ApproveOrgDeletion(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	r, err := s.pendingForApproval(ctx, actor, id, identity.AdminRequestDeleteOrg)
	if err != nil {
		return err
	}

	if err := s.provider.DeleteOrganization(ctx, r.OrgID); err != nil {
		return shared.UpstreamError("delete organization", err)
	}
	stats, err := s.projects.DeleteByOrg(ctx, r.OrgID)
	if err != nil {
		return err
	}
	if err := s.requests.DeleteByOrg(ctx, r.OrgID); err != nil {
		return err
	}

	s.teamUpdated(r.OrgID, "", "organization_deleted")
	s.logger.Info("Organization deletion approved",
		zap.String("org_id", r.OrgID),
		zap.String("requester_id", r.RequesterUserID),
		zap.String("approver_id", actor.UserID),
		zap.Int("projects", stats.Projects),
	)
	return nil
}

// Promote makes a member of the actor's organization an admin. Promotion is
// single-step.
func (s *AdminActionService) Promote(ctx context.Context, actor identity.Actor, req TargetUserRequest) error {
	if err := requireOrgAdmin(actor); err != nil {
		return err
	}
	if err := s.provider.UpdateOrgMembershipRole(ctx, actor.OrgID, req.TargetUserID, identity.OrgRoleAdmin); err != nil {
		return shared.UpstreamError("update organization membership", err)
	}
	if err := s.provider.UpdateUserMetadataRole(ctx, req.TargetUserID, identity.RoleAdmin); err != nil {
		return shared.UpstreamError("update user metadata", err)
	}
	s.mirrorRole(ctx, req.TargetUserID, identity.RoleAdmin)

	s.sessionRefresh(req.TargetUserID, "promoted")
	s.teamUpdated(actor.OrgID, req.TargetUserID, "promoted")
	return nil
}

// Reject discards a pending request without executing it
func (s *AdminActionService) Reject(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	if err := requireOrgAdmin(actor); err != nil {
		return err
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if r.OrgID != actor.OrgID {
		return shared.Forbidden("Request belongs to another organization")
	}
	if err := s.requests.Delete(ctx, r.ID); err != nil {
		return err
	}
	s.teamUpdated(r.OrgID, r.TargetUserID, "request_rejected")
	return nil
}

func (s *AdminActionService) pendingForApproval(ctx context.Context, actor identity.Actor, id uuid.UUID, t identity.AdminRequestType) (*identity.AdminRequest, error) {
	if err := requireOrgAdmin(actor); err != nil {
		return nil, err
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.EnsureType(t); err != nil {
		return nil, err
	}
	if r.OrgID != actor.OrgID {
		return nil, shared.Forbidden("Request belongs to another organization")
	}
	if err := r.EnsureApprover(actor.UserID); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *AdminActionService) load(ctx context.Context, id uuid.UUID) (*identity.AdminRequest, error) {
	r, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Request")
		}
		return nil, err
	}
	return r, nil
}

func (s *AdminActionService) create(ctx context.Context, r *identity.AdminRequest, conflict string) error {
	if err := s.requests.Create(ctx, r); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return shared.Conflict(conflict)
		}
		return err
	}
	return nil
}

// mirrorRole updates the local copy after the provider accepted the change.
// A missing mirror row is caught up by the next user webhook.
func (s *AdminActionService) mirrorRole(ctx context.Context, userID string, role identity.Role) {
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		s.logger.Warn("Failed to update mirrored role",
			zap.String("user_id", userID),
			zap.String("role", string(role)),
			zap.Error(err),
		)
	}
}

func (s *AdminActionService) sessionRefresh(userID, reason string) {
	s.bus.Broadcast(shared.UserRoom(userID), shared.EventSessionRefresh, SessionRefreshPayload{UserID: userID, Reason: reason})
}

func (s *AdminActionService) teamUpdated(orgID, userID, reason string) {
	s.bus.Broadcast(shared.OrgRoom(orgID), shared.EventTeamUpdated, TeamUpdatedPayload{OrgID: orgID, UserID: userID, Reason: reason})
}

func requireOrgAdmin(actor identity.Actor) error {
	if !actor.IsAdmin() {
		return shared.Forbidden("Admin role required")
	}
	if actor.OrgID == "" {
		return errOrgRequired
	}
	return nil
}
