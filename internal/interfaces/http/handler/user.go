package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	identityapp "github.com/taskflow/backend/internal/application/identity"
	"github.com/taskflow/backend/internal/domain/identity"
)

// UserService reads and updates the local user mirror
type UserService interface {
	List(ctx context.Context) ([]identityapp.UserDTO, error)
	Get(ctx context.Context, id string) (*identityapp.UserDTO, error)
	UpdateRole(ctx context.Context, actor identity.Actor, id string, req identityapp.UpdateRoleRequest) (*identityapp.UserDTO, error)
}

// UserHandler handles user endpoints
type UserHandler struct {
	BaseHandler
	users UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List handles GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	resp, err := h.users.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	resp, err := h.users.Get(c.Request.Context(), actor.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateRole handles PUT /api/users/:id/role
func (h *UserHandler) UpdateRole(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req identityapp.UpdateRoleRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.users.UpdateRole(h.mutationCtx(c), actor, c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
