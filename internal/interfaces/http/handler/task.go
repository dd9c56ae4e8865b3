package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	taskapp "github.com/taskflow/backend/internal/application/task"
	"github.com/taskflow/backend/internal/domain/identity"
)

// TaskService is the task state machine as seen by HTTP
type TaskService interface {
	Create(ctx context.Context, actor identity.Actor, req taskapp.CreateTaskRequest) (*taskapp.TaskResponse, error)
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*taskapp.TaskResponse, error)
	ListByProject(ctx context.Context, actor identity.Actor, projectID uuid.UUID) ([]taskapp.TaskResponse, error)
	ListByAssignee(ctx context.Context, actor identity.Actor, userID string) ([]taskapp.TaskResponse, error)
	Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req taskapp.UpdateTaskRequest) (*taskapp.TaskResponse, error)
	Approve(ctx context.Context, actor identity.Actor, id uuid.UUID, req taskapp.ReviewRequest) (*taskapp.TaskResponse, error)
	Disapprove(ctx context.Context, actor identity.Actor, id uuid.UUID, req taskapp.ReviewRequest) (*taskapp.TaskResponse, error)
	Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) error
}

// TaskHandler handles task endpoints
type TaskHandler struct {
	BaseHandler
	tasks TaskService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(tasks TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// Create handles POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req taskapp.CreateTaskRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.tasks.Create(h.mutationCtx(c), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get handles GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "Task")
	if !ok {
		return
	}

	resp, err := h.tasks.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListByProject handles GET /api/tasks/project/:projectId
func (h *TaskHandler) ListByProject(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	projectID, ok := h.pathUUID(c, "projectId", "Project")
	if !ok {
		return
	}

	resp, err := h.tasks.ListByProject(c.Request.Context(), actor, projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListByAssignee handles GET /api/tasks/user/:userId
func (h *TaskHandler) ListByAssignee(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	resp, err := h.tasks.ListByAssignee(c.Request.Context(), actor, c.Param("userId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update handles PUT /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "Task")
	if !ok {
		return
	}
	var req taskapp.UpdateTaskRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.tasks.Update(h.mutationCtx(c), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Approve handles PUT /api/tasks/:id/approve
func (h *TaskHandler) Approve(c *gin.Context) {
	h.review(c, h.tasks.Approve)
}

// Disapprove handles PUT /api/tasks/:id/disapprove
func (h *TaskHandler) Disapprove(c *gin.Context) {
	h.review(c, h.tasks.Disapprove)
}

type reviewFunc func(context.Context, identity.Actor, uuid.UUID, taskapp.ReviewRequest) (*taskapp.TaskResponse, error)

func (h *TaskHandler) review(c *gin.Context, fn reviewFunc) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "Task")
	if !ok {
		return
	}
	var req taskapp.ReviewRequest
	// The review comment is optional, so is the body.
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}

	resp, err := fn(h.mutationCtx(c), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete handles DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "Task")
	if !ok {
		return
	}

	if err := h.tasks.Delete(h.mutationCtx(c), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Task deleted")
}
