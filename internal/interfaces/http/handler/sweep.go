package handler

import (
	"context"
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	taskapp "github.com/taskflow/backend/internal/application/task"
)

// SweepTokenHeader carries the shared secret of external schedulers
const SweepTokenHeader = "X-Sweep-Token"

// SweepRunner runs one expiry sweep
type SweepRunner interface {
	RunOnce(ctx context.Context) (*taskapp.SweepStats, error)
}

// SweepHandler lets an external scheduler trigger the expiry sweep
type SweepHandler struct {
	BaseHandler
	runner SweepRunner
	token  string
}

// NewSweepHandler creates a new SweepHandler. An empty token disables the endpoint.
func NewSweepHandler(runner SweepRunner, token string) *SweepHandler {
	return &SweepHandler{runner: runner, token: token}
}

// Run handles POST /api/internal/sweep
func (h *SweepHandler) Run(c *gin.Context) {
	if h.token == "" {
		h.NotFound(c, "Not found")
		return
	}
	given := c.GetHeader(SweepTokenHeader)
	if subtle.ConstantTimeCompare([]byte(given), []byte(h.token)) != 1 {
		h.Unauthorized(c, "Invalid sweep token")
		return
	}

	stats, err := h.runner.RunOnce(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
