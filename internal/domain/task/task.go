package task

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
)

// Status is the position of a task on the board
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	return s == StatusToDo || s == StatusInProgress || s == StatusDone
}

// Priority of a task
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// IsValid reports whether p is a known priority
func (p Priority) IsValid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Type is the category of a task
type Type string

const (
	TypeTask           Type = "TASK"
	TypeBug            Type = "BUG"
	TypeFeature        Type = "FEATURE"
	TypeImprovement    Type = "IMPROVEMENT"
	TypeDesign         Type = "DESIGN"
	TypeContentWriting Type = "CONTENT_WRITING"
	TypeSocialMedia    Type = "SOCIAL_MEDIA"
	TypeOther          Type = "OTHER"
)

var validTypes = []Type{
	TypeTask, TypeBug, TypeFeature, TypeImprovement,
	TypeDesign, TypeContentWriting, TypeSocialMedia, TypeOther,
}

// IsValid reports whether t is a known type
func (t Type) IsValid() bool {
	return slices.Contains(validTypes, t)
}

// ApprovalRetention is how long an approved task is kept before the sweep removes it
const ApprovalRetention = 15 * 24 * time.Hour

// Attachment is a file referenced by a task
type Attachment struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Kind       string    `json:"kind"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// CommentKind distinguishes review comments from discussion
type CommentKind string

const (
	CommentKindComment   CommentKind = "comment"
	CommentKindApproval  CommentKind = "approval"
	CommentKindRejection CommentKind = "rejection"
)

// Comment is an entry of the append-only review thread of a task
type Comment struct {
	AuthorID   string      `json:"author_id"`
	AuthorName string      `json:"author_name"`
	Text       string      `json:"text"`
	Kind       CommentKind `json:"kind"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Task is a unit of work inside a project.
// ApprovedAt is non-nil exactly when IsApproved is true.
type Task struct {
	shared.BaseEntity
	Title       string
	Description string
	Status      Status
	Priority    Priority
	Type        Type
	DueDate     *time.Time
	ProjectID   uuid.UUID
	Assignees   []string
	Attachments []Attachment
	IsApproved  bool
	ApprovedAt  *time.Time
	Comments    []Comment
}

// NewTaskInput holds the fields accepted on creation
type NewTaskInput struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	Type        Type
	DueDate     *time.Time
	ProjectID   uuid.UUID
	Assignees   []string
	Attachments []Attachment
}

// NewTask validates input and creates a task with defaults applied
func NewTask(in NewTaskInput, now time.Time) (*Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, shared.Invalid("Title is required")
	}
	if in.ProjectID == uuid.Nil {
		return nil, shared.Invalid("Project ID is required")
	}
	if in.DueDate != nil && in.DueDate.Before(startOfDay(now)) {
		return nil, shared.Invalid("Due date cannot be in the past")
	}

	t := &Task{
		BaseEntity:  shared.NewBaseEntityAt(now),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      defaultIfEmpty(in.Status, StatusToDo),
		Priority:    defaultIfEmpty(in.Priority, PriorityMedium),
		Type:        defaultIfEmpty(in.Type, TypeTask),
		DueDate:     in.DueDate,
		ProjectID:   in.ProjectID,
		Assignees:   uniqueIDs(in.Assignees),
		Attachments: slices.Clone(in.Attachments),
	}
	if err := t.validateEnums(); err != nil {
		return nil, err
	}
	if t.Status == StatusDone {
		return nil, shared.Invalid("A new task cannot start as Done")
	}
	return t, nil
}

// IsAssignee reports whether userID is assigned to the task
func (t *Task) IsAssignee(userID string) bool {
	return slices.Contains(t.Assignees, userID)
}

// AddAssignee adds userID with set semantics and reports whether it was added
func (t *Task) AddAssignee(userID string) bool {
	if userID == "" || t.IsAssignee(userID) {
		return false
	}
	t.Assignees = append(t.Assignees, userID)
	t.Touch()
	return true
}

// AddAttachment appends a file reference
func (t *Task) AddAttachment(a Attachment) error {
	if strings.TrimSpace(a.URL) == "" {
		return shared.Invalid("Attachment URL is required")
	}
	if a.UploadedAt.IsZero() {
		a.UploadedAt = time.Now()
	}
	t.Attachments = append(t.Attachments, a)
	t.Touch()
	return nil
}

// RemoveAttachmentURL drops every attachment pointing at url
func (t *Task) RemoveAttachmentURL(url string) bool {
	before := len(t.Attachments)
	t.Attachments = slices.DeleteFunc(t.Attachments, func(a Attachment) bool { return a.URL == url })
	if len(t.Attachments) == before {
		return false
	}
	t.Touch()
	return true
}

// AttachmentURLs returns the non-empty attachment URLs
func (t *Task) AttachmentURLs() []string {
	urls := make([]string, 0, len(t.Attachments))
	for _, a := range t.Attachments {
		if a.URL != "" {
			urls = append(urls, a.URL)
		}
	}
	return urls
}

// Approve marks a Done task as approved and records the review comment
func (t *Task) Approve(author Comment, now time.Time) error {
	if t.Status != StatusDone {
		return shared.Invalid("Only tasks marked Done can be approved")
	}
	if t.IsApproved {
		return shared.Conflict("Task is already approved")
	}
	t.IsApproved = true
	t.ApprovedAt = &now
	t.appendComment(author, CommentKindApproval, "Approved", now)
	return nil
}

// Disapprove clears approval, sends the task back to In Progress and records
// the rejection comment.
func (t *Task) Disapprove(author Comment, now time.Time) {
	t.IsApproved = false
	t.ApprovedAt = nil
	t.Status = StatusInProgress
	t.appendComment(author, CommentKindRejection, "Changes requested", now)
}

// IsExpired reports whether the approval is older than ApprovalRetention at now
func (t *Task) IsExpired(now time.Time) bool {
	return t.IsApproved && t.ApprovedAt != nil && !t.ApprovedAt.After(now.Add(-ApprovalRetention))
}

func (t *Task) appendComment(c Comment, kind CommentKind, fallback string, now time.Time) {
	c.Text = strings.TrimSpace(c.Text)
	if c.Text == "" {
		c.Text = fallback
	}
	c.Kind = kind
	c.CreatedAt = now
	t.Comments = append(t.Comments, c)
	t.UpdatedAt = now
}

func (t *Task) validateEnums() error {
	if !t.Status.IsValid() {
		return shared.Invalid("Invalid task status")
	}
	if !t.Priority.IsValid() {
		return shared.Invalid("Invalid task priority")
	}
	if !t.Type.IsValid() {
		return shared.Invalid("Invalid task type")
	}
	return nil
}

func defaultIfEmpty[T ~string](v, def T) T {
	if v == "" {
		return def
	}
	return v
}

func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
