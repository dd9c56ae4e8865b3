package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/identity"
)

// UserDTO represents a mirrored user in API responses
type UserDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Name      string    `json:"name"`
	Photo     string    `json:"photo,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToUserDTO converts a domain user to its response form
func ToUserDTO(u *identity.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Name:      u.DisplayName(),
		Photo:     u.Photo,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UpdateRoleRequest sets a user's global role
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin member viewer"`
}

// TargetUserRequest names the user an admin action applies to
type TargetUserRequest struct {
	TargetUserID string `json:"target_user_id" binding:"required,max=128"`
}

// AdminRequestDTO represents a pending dual-control request
type AdminRequestDTO struct {
	ID              uuid.UUID `json:"id"`
	Type            string    `json:"type"`
	Status          string    `json:"status"`
	TargetUserID    string    `json:"target_user_id,omitempty"`
	RequesterUserID string    `json:"requester_user_id"`
	OrgID           string    `json:"org_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// ToAdminRequestDTO converts a domain admin request to its response form
func ToAdminRequestDTO(r *identity.AdminRequest) AdminRequestDTO {
	return AdminRequestDTO{
		ID:              r.ID,
		Type:            string(r.Type),
		Status:          string(r.Status),
		TargetUserID:    r.TargetUserID,
		RequesterUserID: r.RequesterUserID,
		OrgID:           r.OrgID,
		CreatedAt:       r.CreatedAt,
	}
}

// TeamUpdatedPayload is broadcast to an organization room when its roster changes
type TeamUpdatedPayload struct {
	OrgID  string `json:"org_id"`
	UserID string `json:"user_id,omitempty"`
	Reason string `json:"reason"`
}

// SessionRefreshPayload tells a user's clients to reload their session claims
type SessionRefreshPayload struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}
