package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/notification"
)

// NotificationResponse represents a notification in API responses and socket pushes
type NotificationResponse struct {
	ID        uuid.UUID              `json:"id"`
	UserID    string                 `json:"user_id"`
	Message   string                 `json:"message"`
	Type      string                 `json:"type"`
	ProjectID string                 `json:"project_id,omitempty"`
	Read      bool                   `json:"read"`
	Metadata  *notification.Metadata `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// ToNotificationResponse converts a domain notification to its response form
func ToNotificationResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Message:   n.Message,
		Type:      string(n.Kind),
		ProjectID: n.ProjectID,
		Read:      n.Read,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
	}
}

// ToNotificationResponses converts a list of notifications
func ToNotificationResponses(ns []*notification.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(ns))
	for _, n := range ns {
		out = append(out, ToNotificationResponse(n))
	}
	return out
}

// InviteRequest asks another user for help on a task
type InviteRequest struct {
	TaskID       uuid.UUID `json:"task_id" binding:"required"`
	TargetUserID string    `json:"target_user_id" binding:"required,max=128"`
}

// RespondInviteRequest answers a task invitation
type RespondInviteRequest struct {
	Action string `json:"action" binding:"required,oneof=ACCEPT DECLINE accept decline"`
}

// InviteAction is the normalized answer to an invitation
type InviteAction string

const (
	InviteAccept  InviteAction = "ACCEPT"
	InviteDecline InviteAction = "DECLINE"
)

// MarkReadResult reports how many notifications were marked read
type MarkReadResult struct {
	Updated int64 `json:"updated"`
}
