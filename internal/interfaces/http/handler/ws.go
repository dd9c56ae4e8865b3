package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// SocketServer takes over an upgraded connection until it closes
type SocketServer interface {
	Serve(ctx context.Context, conn *websocket.Conn, actor identity.Actor)
}

// SocketHandler upgrades authenticated requests to the real-time channel
type SocketHandler struct {
	BaseHandler
	server   SocketServer
	upgrader websocket.Upgrader
}

// NewSocketHandler creates a new SocketHandler. Only allowedOrigin may open a
// socket from a browser; an empty value accepts any origin.
func NewSocketHandler(server SocketServer, allowedOrigin string) *SocketHandler {
	allowed := strings.TrimSuffix(strings.TrimSpace(allowedOrigin), "/")
	return &SocketHandler{
		server: server,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(r.Header.Get("Origin"), allowed)
			},
		},
	}
}

func originAllowed(origin, allowed string) bool {
	if origin == "" || allowed == "" || allowed == "*" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme+"://"+u.Host, allowed)
}

// Connect handles GET /ws
func (h *SocketHandler) Connect(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logger.L(c.Request.Context()).Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}
	h.server.Serve(c.Request.Context(), conn, actor)
}
