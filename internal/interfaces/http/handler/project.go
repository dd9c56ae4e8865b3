package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	projectapp "github.com/taskflow/backend/internal/application/project"
	"github.com/taskflow/backend/internal/domain/identity"
)

// ProjectService covers projects and their member sets
type ProjectService interface {
	List(ctx context.Context, actor identity.Actor, filter projectapp.ListProjectsFilter) ([]projectapp.ProjectResponse, error)
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*projectapp.ProjectResponse, error)
	Create(ctx context.Context, actor identity.Actor, req projectapp.CreateProjectRequest) (*projectapp.ProjectResponse, error)
	UpdateSettings(ctx context.Context, actor identity.Actor, id uuid.UUID, req projectapp.UpdateProjectRequest) (*projectapp.ProjectResponse, error)
	Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) (*projectapp.CascadeStats, error)
	ListMembers(ctx context.Context, actor identity.Actor, id uuid.UUID) ([]projectapp.MemberResponse, error)
	AddMember(ctx context.Context, actor identity.Actor, id uuid.UUID, req projectapp.AddMemberRequest) (*projectapp.ProjectResponse, error)
	RemoveMember(ctx context.Context, actor identity.Actor, id uuid.UUID, userID string) (*projectapp.ProjectResponse, error)
}

// MeetingService covers the scheduled events of a project
type MeetingService interface {
	Create(ctx context.Context, actor identity.Actor, projectID uuid.UUID, req projectapp.CreateMeetingRequest) (*projectapp.MeetingResponse, error)
	ListUpcoming(ctx context.Context, actor identity.Actor, projectID uuid.UUID) ([]projectapp.MeetingResponse, error)
}

// ProjectHandler handles project, member and meeting endpoints
type ProjectHandler struct {
	BaseHandler
	projects ProjectService
	meetings MeetingService
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projects ProjectService, meetings MeetingService) *ProjectHandler {
	return &ProjectHandler{projects: projects, meetings: meetings}
}

// List handles GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter projectapp.ListProjectsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	resp, err := h.projects.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get handles GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "Project")
	if !ok {
		return
	}

	resp, err := h.projects.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req projectapp.CreateProjectRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.projects.Create(h.mutationCtx(c), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdateSettings handles PUT /api/projects/:id/settings
func (h *ProjectHandler) UpdateSettings(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "Project")
	if !ok {
		return
	}
	var req projectapp.UpdateProjectRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.projects.UpdateSettings(h.mutationCtx(c), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete handles DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "Project")
	if !ok {
		return
	}

	stats, err := h.projects.Delete(h.mutationCtx(c), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// ListMembers handles GET /api/projects/:id/members
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "Project")
	if !ok {
		return
	}

	resp, err := h.projects.ListMembers(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddMember handles PUT /api/projects/:id/members
func (h *ProjectHandler) AddMember(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "Project")
	if !ok {
		return
	}
	var req projectapp.AddMemberRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.projects.AddMember(h.mutationCtx(c), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveMember handles DELETE /api/projects/:id/members/:userId
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "Project")
	if !ok {
		return
	}

	resp, err := h.projects.RemoveMember(h.mutationCtx(c), actor, id, c.Param("userId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreateMeeting handles POST /api/projects/:id/events
func (h *ProjectHandler) CreateMeeting(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "Project")
	if !ok {
		return
	}
	var req projectapp.CreateMeetingRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.meetings.Create(h.mutationCtx(c), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListMeetings handles GET /api/projects/:id/events
func (h *ProjectHandler) ListMeetings(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "Project")
	if !ok {
		return
	}

	resp, err := h.meetings.ListUpcoming(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
