package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	projectapp "github.com/taskflow/backend/internal/application/project"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
)

type mockProjectService struct {
	mock.Mock
}

func projectResp(args mock.Arguments) (*projectapp.ProjectResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projectapp.ProjectResponse), args.Error(1)
}

func (m *mockProjectService) List(ctx context.Context, actor identity.Actor, filter projectapp.ListProjectsFilter) ([]projectapp.ProjectResponse, error) {
	args := m.Called(ctx, actor, filter)
	return args.Get(0).([]projectapp.ProjectResponse), args.Error(1)
}

func (m *mockProjectService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*projectapp.ProjectResponse, error) {
	return projectResp(m.Called(ctx, actor, id))
}

func (m *mockProjectService) Create(ctx context.Context, actor identity.Actor, req projectapp.CreateProjectRequest) (*projectapp.ProjectResponse, error) {
	return projectResp(m.Called(ctx, actor, req))
}

func (m *mockProjectService) UpdateSettings(ctx context.Context, actor identity.Actor, id uuid.UUID, req projectapp.UpdateProjectRequest) (*projectapp.ProjectResponse, error) {
	return projectResp(m.Called(ctx, actor, id, req))
}

func (m *mockProjectService) Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) (*projectapp.CascadeStats, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projectapp.CascadeStats), args.Error(1)
}

func (m *mockProjectService) ListMembers(ctx context.Context, actor identity.Actor, id uuid.UUID) ([]projectapp.MemberResponse, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).([]projectapp.MemberResponse), args.Error(1)
}

func (m *mockProjectService) AddMember(ctx context.Context, actor identity.Actor, id uuid.UUID, req projectapp.AddMemberRequest) (*projectapp.ProjectResponse, error) {
	return projectResp(m.Called(ctx, actor, id, req))
}

func (m *mockProjectService) RemoveMember(ctx context.Context, actor identity.Actor, id uuid.UUID, userID string) (*projectapp.ProjectResponse, error) {
	return projectResp(m.Called(ctx, actor, id, userID))
}

type mockMeetingService struct {
	mock.Mock
}

func (m *mockMeetingService) Create(ctx context.Context, actor identity.Actor, projectID uuid.UUID, req projectapp.CreateMeetingRequest) (*projectapp.MeetingResponse, error) {
	args := m.Called(ctx, actor, projectID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projectapp.MeetingResponse), args.Error(1)
}

func (m *mockMeetingService) ListUpcoming(ctx context.Context, actor identity.Actor, projectID uuid.UUID) ([]projectapp.MeetingResponse, error) {
	args := m.Called(ctx, actor, projectID)
	return args.Get(0).([]projectapp.MeetingResponse), args.Error(1)
}

func newProjectRouter(projects *mockProjectService, meetings *mockMeetingService, actor identity.Actor) http.Handler {
	h := NewProjectHandler(projects, meetings)
	r := newActorRouter(&actor)
	r.GET("/api/projects", h.List)
	r.GET("/api/projects/:id", h.Get)
	r.DELETE("/api/projects/:id", h.Delete)
	r.DELETE("/api/projects/:id/members/:userId", h.RemoveMember)
	r.GET("/api/projects/:id/events", h.ListMeetings)
	return r
}

func TestProjectHandler_ListPassesFilter(t *testing.T) {
	projects := new(mockProjectService)
	projects.On("List", mock.Anything, memberActor, projectapp.ListProjectsFilter{OrgID: "org-1", UserID: "user-m"}).
		Return([]projectapp.ProjectResponse{}, nil)

	w := doRequest(newProjectRouter(projects, new(mockMeetingService), memberActor),
		http.MethodGet, "/api/projects?org_id=org-1&user_id=user-m", "")

	assert.Equal(t, http.StatusOK, w.Code)
	projects.AssertExpectations(t)
}

func TestProjectHandler_GetHiddenProject(t *testing.T) {
	projects := new(mockProjectService)
	id := uuid.New()
	projects.On("Get", mock.Anything, memberActor, id).Return(nil, shared.Forbidden("You do not have access to this project"))

	w := doRequest(newProjectRouter(projects, new(mockMeetingService), memberActor), http.MethodGet, "/api/projects/"+id.String(), "")

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProjectHandler_DeleteReturnsCascadeStats(t *testing.T) {
	projects := new(mockProjectService)
	id := uuid.New()
	projects.On("Delete", mock.Anything, adminActor, id).Return(&projectapp.CascadeStats{Tasks: 3}, nil)

	w := doRequest(newProjectRouter(projects, new(mockMeetingService), adminActor), http.MethodDelete, "/api/projects/"+id.String(), "")

	assert.Equal(t, http.StatusOK, w.Code)
	projects.AssertExpectations(t)
}

func TestProjectHandler_RemoveOwnerIsRejected(t *testing.T) {
	projects := new(mockProjectService)
	id := uuid.New()
	projects.On("RemoveMember", mock.Anything, adminActor, id, "admin-1").
		Return(nil, shared.Invalid("The project owner cannot be removed"))

	w := doRequest(newProjectRouter(projects, new(mockMeetingService), adminActor),
		http.MethodDelete, "/api/projects/"+id.String()+"/members/admin-1", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectHandler_ListMeetings(t *testing.T) {
	meetings := new(mockMeetingService)
	id := uuid.New()
	meetings.On("ListUpcoming", mock.Anything, memberActor, id).
		Return([]projectapp.MeetingResponse{{Title: "Standup"}}, nil)

	w := doRequest(newProjectRouter(new(mockProjectService), meetings, memberActor), http.MethodGet, "/api/projects/"+id.String()+"/events", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Standup")
}
