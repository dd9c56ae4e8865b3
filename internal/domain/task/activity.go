package task

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
)

// ActivityKind classifies an entry of the activity ledger
type ActivityKind string

const (
	ActivityComment        ActivityKind = "COMMENT"
	ActivityUpload         ActivityKind = "UPLOAD"
	ActivityStatusChange   ActivityKind = "STATUS_CHANGE"
	ActivityPriorityChange ActivityKind = "PRIORITY_CHANGE"
	ActivityAssignment     ActivityKind = "ASSIGNMENT"
)

// IsValid reports whether k is a known activity kind
func (k ActivityKind) IsValid() bool {
	switch k {
	case ActivityComment, ActivityUpload, ActivityStatusChange, ActivityPriorityChange, ActivityAssignment:
		return true
	}
	return false
}

// ActorSnapshot is the actor's name and photo copied at write time. It is
// never refreshed when the profile changes later.
type ActorSnapshot struct {
	ID    string
	Name  string
	Photo string
}

// FileMetadata describes the file of an UPLOAD entry
type FileMetadata struct {
	FileName string `json:"file_name,omitempty"`
	FileURL  string `json:"file_url,omitempty"`
	FileType string `json:"file_type,omitempty"`
}

// Activity is an append-only ledger entry scoped to a task
type Activity struct {
	shared.BaseEntity
	TaskID   uuid.UUID
	Actor    ActorSnapshot
	Kind     ActivityKind
	Content  string
	Metadata *FileMetadata
}

// NewActivity validates and creates a ledger entry
func NewActivity(taskID uuid.UUID, actor ActorSnapshot, kind ActivityKind, content string, meta *FileMetadata) (*Activity, error) {
	if taskID == uuid.Nil {
		return nil, shared.Invalid("Task ID is required")
	}
	if actor.ID == "" {
		return nil, shared.Invalid("Activity actor is required")
	}
	if !kind.IsValid() {
		return nil, shared.Invalid("Invalid activity type")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, shared.Invalid("Activity content is required")
	}
	if kind == ActivityUpload && (meta == nil || strings.TrimSpace(meta.FileURL) == "") {
		return nil, shared.Invalid("Upload activity requires a file URL")
	}
	var m *FileMetadata
	if meta != nil {
		copied := *meta
		m = &copied
	}
	return &Activity{
		BaseEntity: shared.NewBaseEntity(),
		TaskID:     taskID,
		Actor:      actor,
		Kind:       kind,
		Content:    content,
		Metadata:   m,
	}, nil
}

// ChangeActivity summarizes a task update as at most one ledger entry. A status
// change wins over a priority change when both happened. It returns nil when
// neither moved.
func ChangeActivity(taskID uuid.UUID, actor ActorSnapshot, c Change) (*Activity, error) {
	switch {
	case c.StatusChanged():
		return NewActivity(taskID, actor, ActivityStatusChange, "Changed status to "+string(c.StatusTo), nil)
	case c.PriorityChanged():
		return NewActivity(taskID, actor, ActivityPriorityChange, "Changed priority to "+string(c.PriorityTo), nil)
	}
	return nil, nil
}

// FileURL returns the uploaded file URL, or "" for other kinds
func (a *Activity) FileURL() string {
	if a.Kind != ActivityUpload || a.Metadata == nil {
		return ""
	}
	return a.Metadata.FileURL
}

// ActivityRepository persists the ledger. There is no update operation.
type ActivityRepository interface {
	Create(ctx context.Context, a *Activity) error
	FindByID(ctx context.Context, id uuid.UUID) (*Activity, error)
	// FindByTask lists the entries of a task, newest first
	FindByTask(ctx context.Context, taskID uuid.UUID) ([]*Activity, error)
	FindByTasks(ctx context.Context, taskIDs []uuid.UUID) ([]*Activity, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByTasks(ctx context.Context, taskIDs []uuid.UUID) (int64, error)
}
