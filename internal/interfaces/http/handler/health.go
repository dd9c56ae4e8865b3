package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping() error
}

// ConnectionCounter reports open real-time connections
type ConnectionCounter interface {
	ClientCount() int
}

// HealthHandler serves the liveness probe
type HealthHandler struct {
	db      Pinger
	sockets ConnectionCounter
	started time.Time
}

// NewHealthHandler creates a new HealthHandler. Either dependency may be nil.
func NewHealthHandler(db Pinger, sockets ConnectionCounter) *HealthHandler {
	return &HealthHandler{db: db, sockets: sockets, started: time.Now()}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Connections int    `json:"connections"`
	Uptime      string `json:"uptime"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:   "ok",
		Database: "ok",
		Uptime:   time.Since(h.started).Round(time.Second).String(),
	}
	if h.sockets != nil {
		resp.Connections = h.sockets.ClientCount()
	}

	status := http.StatusOK
	if h.db != nil {
		if err := pingWithin(c.Request.Context(), h.db, 2*time.Second); err != nil {
			resp.Status = "degraded"
			resp.Database = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, resp)
}

func pingWithin(ctx context.Context, p Pinger, d time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Ping() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
