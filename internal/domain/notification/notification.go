package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
)

// Kind is a free-form tag clients use to render a notification
type Kind string

const (
	KindTaskAssign   Kind = "TASK_ASSIGN"
	KindTaskInvite   Kind = "TASK_INVITE"
	KindTaskApproved Kind = "TASK_APPROVED"
	KindTaskRejected Kind = "TASK_REJECTED"
	KindProjectAdd   Kind = "PROJECT_ADD"
	KindInfo         Kind = "INFO"
)

// Metadata carries references used by actionable notifications
type Metadata struct {
	TaskID   string `json:"task_id,omitempty"`
	SenderID string `json:"sender_id,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Notification is an addressed message for one recipient
type Notification struct {
	shared.BaseEntity
	UserID    string
	Message   string
	Kind      Kind
	ProjectID string
	Read      bool
	Metadata  *Metadata
}

// New creates an unread notification for userID
func New(userID string, kind Kind, message, projectID string, meta *Metadata) (*Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, shared.Invalid("Notification recipient is required")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, shared.Invalid("Notification message is required")
	}
	if kind == "" {
		kind = KindInfo
	}
	return &Notification{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Message:    message,
		Kind:       kind,
		ProjectID:  projectID,
		Metadata:   meta,
	}, nil
}

// IsAddressedTo reports whether userID is the recipient
func (n *Notification) IsAddressedTo(userID string) bool {
	return n.UserID == userID
}

// InviteTarget returns the task and sender of a TASK_INVITE notification
func (n *Notification) InviteTarget() (taskID uuid.UUID, senderID string, err error) {
	if n.Kind != KindTaskInvite || n.Metadata == nil {
		return uuid.Nil, "", shared.Invalid("Notification is not a task invitation")
	}
	taskID, err = uuid.Parse(n.Metadata.TaskID)
	if err != nil {
		return uuid.Nil, "", shared.Invalid("Invitation references an invalid task")
	}
	return taskID, n.Metadata.SenderID, nil
}

// Message builders

func TaskAssignedMessage(title string) string {
	return fmt.Sprintf("You have been assigned to task: %q", title)
}

func TaskInviteMessage(title string) string {
	return fmt.Sprintf("Help Request: Please help with task %q", title)
}

func TaskReadyForReviewMessage(title string) string {
	return fmt.Sprintf("Task %q was marked Done and is ready for review", title)
}

func TaskApprovedMessage(title string) string {
	return fmt.Sprintf("Task %q has been approved", title)
}

func TaskRejectedMessage(title, comment string) string {
	if comment = strings.TrimSpace(comment); comment != "" {
		return fmt.Sprintf("Task %q needs more work: %s", title, comment)
	}
	return fmt.Sprintf("Task %q needs more work", title)
}

func TaskExpiredMessage(title string) string {
	return fmt.Sprintf("Task %q was removed automatically 15 days after approval", title)
}

func ProjectAddedMessage(title string) string {
	return fmt.Sprintf("You have been added to the project: %q", title)
}

const (
	InviteAcceptedMessage = "Accepted: User has joined task"
	InviteDeclinedMessage = "Declined: User cannot help with task"
)

// Repository persists notifications
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	CreateMany(ctx context.Context, ns []*Notification) error
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	// FindByUser lists a user's notifications, newest first
	FindByUser(ctx context.Context, userID string) ([]*Notification, error)
	// Delete removes a notification; it returns shared.ErrNotFound when nothing was deleted,
	// which makes it usable as a claim on single-use notifications
	Delete(ctx context.Context, id uuid.UUID) error
	// MarkAllRead flags every unread notification of userID and returns how many changed
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}
