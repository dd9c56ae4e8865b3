package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	identityapp "github.com/taskflow/backend/internal/application/identity"
	"github.com/taskflow/backend/internal/domain/identity"
)

// AdminActionService runs the dual-control admin requests
type AdminActionService interface {
	ListPending(ctx context.Context, actor identity.Actor) ([]identityapp.AdminRequestDTO, error)
	RequestDemotion(ctx context.Context, actor identity.Actor, req identityapp.TargetUserRequest) (*identityapp.AdminRequestDTO, error)
	ApproveDemotion(ctx context.Context, actor identity.Actor, id uuid.UUID) error
	RequestOrgDeletion(ctx context.Context, actor identity.Actor) (*identityapp.AdminRequestDTO, error)
	ApproveOrgDeletion(ctx context.Context, actor identity.Actor, id uuid.UUID) error
	Promote(ctx context.Context, actor identity.Actor, req identityapp.TargetUserRequest) error
	Reject(ctx context.Context, actor identity.Actor, id uuid.UUID) error
}

// AdminActionHandler handles /api/admin-actions
type AdminActionHandler struct {
	BaseHandler
	actions AdminActionService
}

// NewAdminActionHandler creates a new AdminActionHandler
func NewAdminActionHandler(actions AdminActionService) *AdminActionHandler {
	return &AdminActionHandler{actions: actions}
}

// ListPending handles GET /api/admin-actions/pending
func (h *AdminActionHandler) ListPending(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	resp, err := h.actions.ListPending(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RequestDemotion handles POST /api/admin-actions/demote/request
func (h *AdminActionHandler) RequestDemotion(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req identityapp.TargetUserRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.actions.RequestDemotion(h.mutationCtx(c), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ApproveDemotion handles POST /api/admin-actions/demote/approve/:requestId
func (h *AdminActionHandler) ApproveDemotion(c *gin.Context) {
	h.decide(c, h.actions.ApproveDemotion, "Demotion approved")
}

// RequestOrgDeletion handles POST /api/admin-actions/delete-org/request
func (h *AdminActionHandler) RequestOrgDeletion(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	resp, err := h.actions.RequestOrgDeletion(h.mutationCtx(c), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ApproveOrgDeletion handles POST /api/admin-actions/delete-org/approve/:requestId
func (h *AdminActionHandler) ApproveOrgDeletion(c *gin.Context) {
	h.decide(c, h.actions.ApproveOrgDeletion, "Organization deleted")
}

// Reject handles POST /api/admin-actions/reject/:requestId
func (h *AdminActionHandler) Reject(c *gin.Context) {
	h.decide(c, h.actions.Reject, "Request rejected")
}

// Promote handles POST /api/admin-actions/promote
func (h *AdminActionHandler) Promote(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req identityapp.TargetUserRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.actions.Promote(h.mutationCtx(c), actor, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Member promoted")
}

func (h *AdminActionHandler) decide(c *gin.Context, fn func(context.Context, identity.Actor, uuid.UUID) error, done string) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "requestId", "Request")
	if !ok {
		return
	}

	if err := fn(h.mutationCtx(c), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, done)
}
