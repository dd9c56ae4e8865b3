package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	notificationapp "github.com/taskflow/backend/internal/application/notification"
	"github.com/taskflow/backend/internal/domain/identity"
)

// NotificationService is the inbox of the calling user
type NotificationService interface {
	List(ctx context.Context, userID string) ([]notificationapp.NotificationResponse, error)
	Dismiss(ctx context.Context, userID string, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID string) (*notificationapp.MarkReadResult, error)
}

// InviteService runs the task invitation handshake
type InviteService interface {
	Invite(ctx context.Context, actor identity.Actor, req notificationapp.InviteRequest) (*notificationapp.NotificationResponse, error)
	Respond(ctx context.Context, actor identity.Actor, id uuid.UUID, action string) error
}

// NotificationHandler handles notification and invitation endpoints
type NotificationHandler struct {
	BaseHandler
	notifications NotificationService
	invites       InviteService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications NotificationService, invites InviteService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, invites: invites}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	resp, err := h.notifications.List(c.Request.Context(), actor.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Dismiss handles DELETE /api/notifications/:id
func (h *NotificationHandler) Dismiss(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "Notification")
	if !ok {
		return
	}

	if err := h.notifications.Dismiss(h.mutationCtx(c), actor.UserID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Dismissed")
}

// MarkAllRead handles PUT /api/notifications/mark-read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	resp, err := h.notifications.MarkAllRead(h.mutationCtx(c), actor.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Invite handles POST /api/notifications/invite
func (h *NotificationHandler) Invite(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req notificationapp.InviteRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.invites.Invite(h.mutationCtx(c), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Respond handles POST /api/notifications/:id/respond
func (h *NotificationHandler) Respond(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "Invitation")
	if !ok {
		return
	}
	var req notificationapp.RespondInviteRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.invites.Respond(h.mutationCtx(c), actor, id, req.Action); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Invitation answered")
}
