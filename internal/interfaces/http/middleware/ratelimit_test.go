package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClockedLimiter(t *testing.T, limit int, window time.Duration) (*RateLimiter, *time.Time) {
	t.Helper()
	limiter := NewRateLimiter(limit, window)
	t.Cleanup(limiter.Stop)
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows the full allowance then blocks", func(t *testing.T) {
		limiter, _ := newClockedLimiter(t, 3, time.Minute)

		for i := 0; i < 3; i++ {
			ok, remaining := limiter.Allow("client")
			assert.True(t, ok, "request %d should be allowed", i+1)
			assert.Equal(t, 2-i, remaining)
		}
		ok, remaining := limiter.Allow("client")
		assert.False(t, ok)
		assert.Zero(t, remaining)
	})

	t.Run("separate limits per client", func(t *testing.T) {
		limiter, _ := newClockedLimiter(t, 1, time.Minute)

		ok, _ := limiter.Allow("a")
		assert.True(t, ok)
		ok, _ = limiter.Allow("a")
		assert.False(t, ok)
		ok, _ = limiter.Allow("b")
		assert.True(t, ok)
	})

	t.Run("refills over the window", func(t *testing.T) {
		limiter, now := newClockedLimiter(t, 2, time.Minute)

		limiter.Allow("c")
		limiter.Allow("c")
		ok, _ := limiter.Allow("c")
		require.False(t, ok)

		*now = now.Add(30 * time.Second)
		ok, _ = limiter.Allow("c")
		assert.True(t, ok, "one token refills every window/limit")
	})

	t.Run("cleanup drops idle clients", func(t *testing.T) {
		limiter, now := newClockedLimiter(t, 2, time.Minute)
		limiter.Allow("idle")

		*now = now.Add(3 * time.Minute)
		limiter.cleanup()
		assert.Empty(t, limiter.limiters)
	})

	t.Run("defaults", func(t *testing.T) {
		limiter := NewRateLimiter(0, 0)
		defer limiter.Stop()
		assert.Equal(t, 5000, limiter.Limit())
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter, _ := newClockedLimiter(t, 2, time.Minute)

	router := gin.New()
	router.Use(RequestID(), RateLimit(limiter))
	router.GET("/api/tasks", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		return w
	}

	w := do()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, do().Code)

	w = do()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")
}

func TestRateLimitByKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter, _ := newClockedLimiter(t, 1, time.Minute)

	router := gin.New()
	router.Use(RateLimitByKey(limiter, func(c *gin.Context) string { return c.GetHeader("X-Key") }))
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, tc := range []struct {
		key  string
		want int
	}{
		{"a", http.StatusOK},
		{"a", http.StatusTooManyRequests},
		{"b", http.StatusOK},
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Key", tc.key)
		router.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, "key %s", tc.key)
	}
}
