package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	taskapp "github.com/taskflow/backend/internal/application/task"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/interfaces/http/dto"
)

type mockTaskService struct {
	mock.Mock
}

func (m *mockTaskService) Create(ctx context.Context, actor identity.Actor, req taskapp.CreateTaskRequest) (*taskapp.TaskResponse, error) {
	args := m.Called(ctx, actor, req)
	return taskResp(args)
}

func (m *mockTaskService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*taskapp.TaskResponse, error) {
	args := m.Called(ctx, actor, id)
	return taskResp(args)
}

func (m *mockTaskService) ListByProject(ctx context.Context, actor identity.Actor, projectID uuid.UUID) ([]taskapp.TaskResponse, error) {
	args := m.Called(ctx, actor, projectID)
	return args.Get(0).([]taskapp.TaskResponse), args.Error(1)
}

func (m *mockTaskService) ListByAssignee(ctx context.Context, actor identity.Actor, userID string) ([]taskapp.TaskResponse, error) {
	args := m.Called(ctx, actor, userID)
	return args.Get(0).([]taskapp.TaskResponse), args.Error(1)
}

func (m *mockTaskService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req taskapp.UpdateTaskRequest) (*taskapp.TaskResponse, error) {
	args := m.Called(ctx, actor, id, req)
	return taskResp(args)
}

func (m *mockTaskService) Approve(ctx context.Context, actor identity.Actor, id uuid.UUID, req taskapp.ReviewRequest) (*taskapp.TaskResponse, error) {
	args := m.Called(ctx, actor, id, req)
	return taskResp(args)
}

func (m *mockTaskService) Disapprove(ctx context.Context, actor identity.Actor, id uuid.UUID, req taskapp.ReviewRequest) (*taskapp.TaskResponse, error) {
	args := m.Called(ctx, actor, id, req)
	return taskResp(args)
}

func (m *mockTaskService) Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func taskResp(args mock.Arguments) (*taskapp.TaskResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taskapp.TaskResponse), args.Error(1)
}

func newTaskRouter(svc *mockTaskService, actor *identity.Actor) http.Handler {
	h := NewTaskHandler(svc)
	r := newActorRouter(actor)
	r.POST("/api/tasks", h.Create)
	r.GET("/api/tasks/project/:projectId", h.ListByProject)
	r.GET("/api/tasks/user/:userId", h.ListByAssignee)
	r.GET("/api/tasks/:id", h.Get)
	r.PUT("/api/tasks/:id", h.Update)
	r.PUT("/api/tasks/:id/approve", h.Approve)
	r.PUT("/api/tasks/:id/disapprove", h.Disapprove)
	r.DELETE("/api/tasks/:id", h.Delete)
	return r
}

func TestTaskHandler_Create(t *testing.T) {
	svc := new(mockTaskService)
	projectID := uuid.New()
	created := &taskapp.TaskResponse{ID: uuid.New(), Title: "Ship it", ProjectID: projectID}
	svc.On("Create", mock.Anything, adminActor, mock.MatchedBy(func(req taskapp.CreateTaskRequest) bool {
		return req.Title == "Ship it" && req.ProjectID == projectID && len(req.Assignees) == 2
	})).Return(created, nil)

	body := `{"title":"Ship it","project_id":"` + projectID.String() + `","priority":"HIGH","assignees":["a","b"]}`
	w := doRequest(newTaskRouter(svc, &adminActor), http.MethodPost, "/api/tasks", body)

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestTaskHandler_Create_RejectsUnknownPriority(t *testing.T) {
	svc := new(mockTaskService)
	body := `{"title":"x","project_id":"` + uuid.NewString() + `","priority":"URGENT"}`

	w := doRequest(newTaskRouter(svc, &adminActor), http.MethodPost, "/api/tasks", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskHandler_Unauthenticated(t *testing.T) {
	svc := new(mockTaskService)
	w := doRequest(newTaskRouter(svc, nil), http.MethodGet, "/api/tasks/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTaskHandler_Get_MalformedIDIsNotFound(t *testing.T) {
	svc := new(mockTaskService)
	w := doRequest(newTaskRouter(svc, &memberActor), http.MethodGet, "/api/tasks/12345", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskHandler_Update_Forbidden(t *testing.T) {
	svc := new(mockTaskService)
	id := uuid.New()
	svc.On("Update", mock.Anything, memberActor, id, mock.Anything).
		Return(nil, shared.Forbidden("Only assignees or admins can update this task"))

	w := doRequest(newTaskRouter(svc, &memberActor), http.MethodPut, "/api/tasks/"+id.String(), `{"status":"Done"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, decodeResponse(t, w).Error.Code)
}

func TestTaskHandler_Update_PassesPatch(t *testing.T) {
	svc := new(mockTaskService)
	id := uuid.New()
	svc.On("Update", mock.Anything, memberActor, id, mock.MatchedBy(func(req taskapp.UpdateTaskRequest) bool {
		return req.Status != nil && *req.Status == "Done" && req.Title == nil
	})).Return(&taskapp.TaskResponse{ID: id, Status: "Done"}, nil)

	w := doRequest(newTaskRouter(svc, &memberActor), http.MethodPut, "/api/tasks/"+id.String(), `{"status":"Done"}`)

	require.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestTaskHandler_ApproveWithoutBody(t *testing.T) {
	svc := new(mockTaskService)
	id := uuid.New()
	svc.On("Approve", mock.Anything, adminActor, id, taskapp.ReviewRequest{}).
		Return(&taskapp.TaskResponse{ID: id, IsApproved: true}, nil)

	w := doRequest(newTaskRouter(svc, &adminActor), http.MethodPut, "/api/tasks/"+id.String()+"/approve", "")

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestTaskHandler_DisapproveWithComment(t *testing.T) {
	svc := new(mockTaskService)
	id := uuid.New()
	svc.On("Disapprove", mock.Anything, adminActor, id, taskapp.ReviewRequest{Comment: "needs tests"}).
		Return(&taskapp.TaskResponse{ID: id, Status: "In Progress"}, nil)

	w := doRequest(newTaskRouter(svc, &adminActor), http.MethodPut, "/api/tasks/"+id.String()+"/disapprove", `{"comment":"needs tests"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestTaskHandler_ListByAssignee(t *testing.T) {
	svc := new(mockTaskService)
	svc.On("ListByAssignee", mock.Anything, memberActor, "user-m").
		Return([]taskapp.TaskResponse{{Title: "a"}, {Title: "b"}}, nil)

	w := doRequest(newTaskRouter(svc, &memberActor), http.MethodGet, "/api/tasks/user/user-m", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeResponse(t, w).Data, 2)
}

func TestTaskHandler_Delete(t *testing.T) {
	svc := new(mockTaskService)
	id := uuid.New()
	svc.On("Delete", mock.Anything, adminActor, id).Return(nil)

	w := doRequest(newTaskRouter(svc, &adminActor), http.MethodDelete, "/api/tasks/"+id.String(), "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Task deleted", decodeResponse(t, w).Message)
}

func TestTaskHandler_Update_SurvivesClientDisconnect(t *testing.T) {
	svc := new(mockTaskService)
	id := uuid.New()
	reqCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var errAfterDisconnect error
	svc.On("Update", mock.Anything, memberActor, id, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			// client hangs up between the blob deletes and the save
			cancel()
			errAfterDisconnect = ctx.Err()
		}).
		Return(&taskapp.TaskResponse{ID: id}, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/tasks/"+id.String(), strings.NewReader(`{"attachments":[]}`)).WithContext(reqCtx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newTaskRouter(svc, &memberActor).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Error(t, reqCtx.Err())
	assert.NoError(t, errAfterDisconnect)
}
