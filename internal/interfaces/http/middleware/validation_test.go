package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/interfaces/http/dto"
)

type createTaskInput struct {
	Title    string `json:"title" binding:"required,max=10"`
	Status   string `json:"status" binding:"omitempty,task_status"`
	Priority string `json:"priority" binding:"omitempty,task_priority"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.POST("/tasks", func(c *gin.Context) {
		var in createTaskInput
		if err := c.ShouldBindJSON(&in); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusCreated)
	})
	return router
}

func postTask(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "req-v")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleValidationError_Details(t *testing.T) {
	router := newValidationRouter()

	w := postTask(router, `{"title":"","status":"Blocked","priority":"URGENT"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-v", resp.Error.RequestID)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "This field is required", fields["title"])
	assert.Contains(t, fields["status"], "In Progress")
	assert.Contains(t, fields["priority"], "MEDIUM")
}

func TestHandleValidationError_ValidInput(t *testing.T) {
	router := newValidationRouter()
	w := postTask(router, `{"title":"ship","status":"Done","priority":"LOW"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandleValidationError_MalformedJSON(t *testing.T) {
	router := newValidationRouter()
	w := postTask(router, `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Error.Details)
}

func TestGetValidationMessage(t *testing.T) {
	type sample struct {
		Email string `validate:"email"`
		Min   string `validate:"min=5"`
		OneOf string `validate:"oneof=a b"`
		Type  string `validate:"task_type"`
	}
	v := validator.New()
	RegisterTaskValidations(v)

	err := v.Struct(sample{Email: "x", Min: "ab", OneOf: "c", Type: "EPIC"})
	require.Error(t, err)

	got := map[string]string{}
	for _, fe := range err.(validator.ValidationErrors) {
		got[fe.Field()] = getValidationMessage(fe)
	}
	assert.Equal(t, "Invalid email format", got["Email"])
	assert.Equal(t, "Must be at least 5 characters", got["Min"])
	assert.Equal(t, "Must be one of: a b", got["OneOf"])
	assert.Equal(t, "Unknown task type", got["Type"])
}
