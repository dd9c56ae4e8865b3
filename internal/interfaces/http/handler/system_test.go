package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	taskapp "github.com/taskflow/backend/internal/application/task"
)

type mockSweepRunner struct {
	mock.Mock
}

func (m *mockSweepRunner) RunOnce(ctx context.Context) (*taskapp.SweepStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taskapp.SweepStats), args.Error(1)
}

func sweepRequest(h *SweepHandler, token string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/api/internal/sweep", h.Run)
	req := httptest.NewRequest(http.MethodPost, "/api/internal/sweep", nil)
	if token != "" {
		req.Header.Set(SweepTokenHeader, token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSweepHandler(t *testing.T) {
	t.Run("disabled without token", func(t *testing.T) {
		runner := new(mockSweepRunner)
		w := sweepRequest(NewSweepHandler(runner, ""), "anything")
		assert.Equal(t, http.StatusNotFound, w.Code)
		runner.AssertNotCalled(t, "RunOnce", mock.Anything)
	})

	t.Run("wrong token", func(t *testing.T) {
		runner := new(mockSweepRunner)
		w := sweepRequest(NewSweepHandler(runner, "s3cret"), "guess")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		runner.AssertNotCalled(t, "RunOnce", mock.Anything)
	})

	t.Run("runs sweep", func(t *testing.T) {
		runner := new(mockSweepRunner)
		runner.On("RunOnce", mock.Anything).Return(&taskapp.SweepStats{TotalExpired: 2, Deleted: 2}, nil)
		w := sweepRequest(NewSweepHandler(runner, "s3cret"), "s3cret")
		assert.Equal(t, http.StatusOK, w.Code)
		runner.AssertExpectations(t)
	})

	t.Run("sweep error", func(t *testing.T) {
		runner := new(mockSweepRunner)
		runner.On("RunOnce", mock.Anything).Return(nil, errors.New("list expired: timeout"))
		w := sweepRequest(NewSweepHandler(runner, "s3cret"), "s3cret")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "timeout")
	})
}

type pingFunc func() error

func (f pingFunc) Ping() error { return f() }

type fixedCount int

func (n fixedCount) ClientCount() int { return int(n) }

func TestHealthHandler(t *testing.T) {
	serve := func(h *HealthHandler) *httptest.ResponseRecorder {
		r := gin.New()
		r.GET("/health", h.Health)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		return w
	}

	w := serve(NewHealthHandler(pingFunc(func() error { return nil }), fixedCount(4)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"connections":4`)

	w = serve(NewHealthHandler(pingFunc(func() error { return errors.New("refused") }), nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"degraded"`)

	slow := pingFunc(func() error { time.Sleep(3 * time.Second); return nil })
	w = serve(NewHealthHandler(slow, nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		origin, allowed string
		want            bool
	}{
		{"", "https://app.example.com", true},
		{"https://app.example.com", "", true},
		{"https://app.example.com", "https://app.example.com", true},
		{"https://APP.example.com", "https://app.example.com", true},
		{"https://evil.example.com", "https://app.example.com", false},
		{"http://app.example.com", "https://app.example.com", false},
		{"::not a url", "https://app.example.com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, originAllowed(tt.origin, tt.allowed), tt.origin)
	}
}
