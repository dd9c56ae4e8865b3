package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newLoggedRouter(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.DebugLevel)
	zl := zap.New(core)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("request_id", "req-42")
		c.Next()
	})
	r.Use(Recovery(zl), GinMiddleware(zl))
	return r, recorded
}

func requestLog(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	entries := recorded.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	return entries[0]
}

func TestGinMiddleware_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusBadGateway, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			r, recorded := newLoggedRouter(t)
			r.GET("/api/tasks", func(c *gin.Context) { c.Status(tt.status) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks?status=Done", nil))

			entry := requestLog(t, recorded)
			assert.Equal(t, tt.level, entry.Level)
			fields := entry.ContextMap()
			assert.Equal(t, "req-42", fields["request_id"])
			assert.Equal(t, "status=Done", fields["query"])
		})
	}
}

func TestGinMiddleware_ExposesRequestLogger(t *testing.T) {
	r, recorded := newLoggedRouter(t)
	r.GET("/api/projects", func(c *gin.Context) {
		c.Set("user_id", "user-1")
		GetGinLogger(c).Info("from handler")
		L(c.Request.Context()).Info("from service")
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/projects", nil))

	handlerLogs := recorded.FilterMessage("from handler").All()
	require.Len(t, handlerLogs, 1)
	assert.Equal(t, "/api/projects", handlerLogs[0].ContextMap()["path"])
	serviceLogs := recorded.FilterMessage("from service").All()
	require.Len(t, serviceLogs, 1)
	assert.Equal(t, "req-42", serviceLogs[0].ContextMap()["request_id"])
	assert.Equal(t, "user-1", requestLog(t, recorded).ContextMap()["user_id"])
}

func TestRecovery_ReturnsGenericError(t *testing.T) {
	r, recorded := newLoggedRouter(t)
	r.GET("/boom", func(c *gin.Context) { panic("nil task") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"ERR_INTERNAL","message":"Internal server error"}}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "nil task")
	assert.Equal(t, 1, recorded.FilterMessage("Panic recovered").Len())
}

func TestGetGinLogger_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}
