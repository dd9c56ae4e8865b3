package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	taskapp "github.com/taskflow/backend/internal/application/task"
	"github.com/taskflow/backend/internal/domain/identity"
)

// ActivityService is the per-task activity ledger
type ActivityService interface {
	List(ctx context.Context, actor identity.Actor, taskID uuid.UUID) ([]taskapp.ActivityResponse, error)
	AddComment(ctx context.Context, actor identity.Actor, taskID uuid.UUID, req taskapp.CommentRequest) (*taskapp.ActivityResponse, error)
	RecordUpload(ctx context.Context, actor identity.Actor, taskID uuid.UUID, req taskapp.UploadRequest) (*taskapp.ActivityResponse, error)
	Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) error
}

// ActivityHandler handles the activity feed of a task
type ActivityHandler struct {
	BaseHandler
	activities ActivityService
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(activities ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// List handles GET /api/tasks/:id/activities
func (h *ActivityHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	taskID, ok := h.pathUUID(c, "id", "Task")
	if !ok {
		return
	}

	resp, err := h.activities.List(c.Request.Context(), actor, taskID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddComment handles POST /api/tasks/:id/comments
func (h *ActivityHandler) AddComment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	taskID, ok := h.pathUUID(c, "id", "Task")
	if !ok {
		return
	}
	var req taskapp.CommentRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.activities.AddComment(h.mutationCtx(c), actor, taskID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// RecordUpload handles POST /api/tasks/:id/uploads
func (h *ActivityHandler) RecordUpload(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	taskID, ok := h.pathUUID(c, "id", "Task")
	if !ok {
		return
	}
	var req taskapp.UploadRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.activities.RecordUpload(h.mutationCtx(c), actor, taskID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Delete handles DELETE /api/activities/:id
func (h *ActivityHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "Activity")
	if !ok {
		return
	}

	if err := h.activities.Delete(h.mutationCtx(c), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Activity deleted")
}
