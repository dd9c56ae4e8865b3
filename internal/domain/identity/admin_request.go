package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
)

// AdminRequestType identifies the sensitive action awaiting a second admin
type AdminRequestType string

const (
	AdminRequestDemoteAdmin AdminRequestType = "DEMOTE_ADMIN"
	AdminRequestDeleteOrg   AdminRequestType = "DELETE_ORG"
)

// AdminRequestStatus is the request state. Requests are deleted once
// approved or rejected, so APPROVED only exists between execution and removal.
type AdminRequestStatus string

const (
	AdminRequestPending  AdminRequestStatus = "PENDING"
	AdminRequestApproved AdminRequestStatus = "APPROVED"
)

// AdminRequest is a pending dual-control action
type AdminRequest struct {
	shared.BaseEntity
	TargetUserID    string // empty for organization-level requests
	RequesterUserID string
	OrgID           string
	Type            AdminRequestType
	Status          AdminRequestStatus
}

// NewDemotionRequest creates a pending request to demote targetUserID in orgID
func NewDemotionRequest(targetUserID, requesterUserID, orgID string) (*AdminRequest, error) {
	if strings.TrimSpace(targetUserID) == "" {
		return nil, shared.Invalid("Target user is required")
	}
	if err := validateRequestScope(requesterUserID, orgID); err != nil {
		return nil, err
	}
	return &AdminRequest{
		BaseEntity:      shared.NewBaseEntity(),
		TargetUserID:    targetUserID,
		RequesterUserID: requesterUserID,
		OrgID:           orgID,
		Type:            AdminRequestDemoteAdmin,
		Status:          AdminRequestPending,
	}, nil
}

// NewOrgDeletionRequest creates a pending request to delete orgID
func NewOrgDeletionRequest(requesterUserID, orgID string) (*AdminRequest, error) {
	if err := validateRequestScope(requesterUserID, orgID); err != nil {
		return nil, err
	}
	return &AdminRequest{
		BaseEntity:      shared.NewBaseEntity(),
		RequesterUserID: requesterUserID,
		OrgID:           orgID,
		Type:            AdminRequestDeleteOrg,
		Status:          AdminRequestPending,
	}, nil
}

// EnsureType fails with a validation error when the request is of another type
func (r *AdminRequest) EnsureType(t AdminRequestType) error {
	if r.Type != t {
		return shared.Invalid("Invalid request type")
	}
	return nil
}

// EnsureApprover enforces that a different admin approves the request
func (r *AdminRequest) EnsureApprover(approverID string) error {
	if r.RequesterUserID == approverID {
		return shared.Forbidden("You cannot approve your own request. Another admin is required.")
	}
	return nil
}

// MarkApproved records that the effect has been executed
func (r *AdminRequest) MarkApproved() {
	r.Status = AdminRequestApproved
	r.Touch()
}

func validateRequestScope(requesterUserID, orgID string) error {
	if strings.TrimSpace(requesterUserID) == "" {
		return shared.Invalid("Requester is required")
	}
	if strings.TrimSpace(orgID) == "" {
		return shared.Invalid("Organization ID required")
	}
	return nil
}

// AdminRequestRepository persists dual-control requests
type AdminRequestRepository interface {
	Create(ctx context.Context, req *AdminRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*AdminRequest, error)
	// FindPendingDemotion returns the pending demotion for (target, org), or shared.ErrNotFound
	FindPendingDemotion(ctx context.Context, targetUserID, orgID string) (*AdminRequest, error)
	// FindPendingOrgDeletion returns the pending deletion for org, or shared.ErrNotFound
	FindPendingOrgDeletion(ctx context.Context, orgID string) (*AdminRequest, error)
	FindByOrg(ctx context.Context, orgID string) ([]*AdminRequest, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByOrg(ctx context.Context, orgID string) error
}
