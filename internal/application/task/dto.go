package task

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/task"
)

// AttachmentInput describes a file attached to a task
type AttachmentInput struct {
	Name string `json:"name" binding:"max=255"`
	URL  string `json:"url" binding:"required,url"`
	Kind string `json:"kind" binding:"max=100"`
}

func (a AttachmentInput) toDomain(now time.Time) task.Attachment {
	return task.Attachment{Name: a.Name, URL: a.URL, Kind: a.Kind, UploadedAt: now}
}

// CreateTaskRequest represents a request to create a new task
type CreateTaskRequest struct {
	Title       string            `json:"title" binding:"required,min=1,max=200"`
	Description string            `json:"description" binding:"max=5000"`
	Status      string            `json:"status" binding:"omitempty,task_status"`
	Priority    string            `json:"priority" binding:"omitempty,task_priority"`
	Type        string            `json:"type" binding:"omitempty,task_type"`
	DueDate     *time.Time        `json:"due_date"`
	ProjectID   uuid.UUID         `json:"project_id" binding:"required"`
	Assignees   []string          `json:"assignees"`
	Attachments []AttachmentInput `json:"attachments" binding:"omitempty,dive"`
}

func (r CreateTaskRequest) toInput(now time.Time) task.NewTaskInput {
	attachments := make([]task.Attachment, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		attachments = append(attachments, a.toDomain(now))
	}
	return task.NewTaskInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      task.Status(r.Status),
		Priority:    task.Priority(r.Priority),
		Type:        task.Type(r.Type),
		DueDate:     r.DueDate,
		ProjectID:   r.ProjectID,
		Assignees:   r.Assignees,
		Attachments: attachments,
	}
}

// UpdateTaskRequest represents a partial task update. Absent fields are left unchanged.
type UpdateTaskRequest struct {
	Title       *string            `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string            `json:"description" binding:"omitempty,max=5000"`
	Status      *string            `json:"status" binding:"omitempty,task_status"`
	Priority    *string            `json:"priority" binding:"omitempty,task_priority"`
	Type        *string            `json:"type" binding:"omitempty,task_type"`
	DueDate     *time.Time         `json:"due_date"`
	Assignees   *[]string          `json:"assignees"`
	Attachments *[]AttachmentInput `json:"attachments"`
}

func (r UpdateTaskRequest) toPatch(now time.Time) task.Patch {
	p := task.Patch{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Assignees:   r.Assignees,
	}
	if r.Status != nil {
		s := task.Status(*r.Status)
		p.Status = &s
	}
	if r.Priority != nil {
		pr := task.Priority(*r.Priority)
		p.Priority = &pr
	}
	if r.Type != nil {
		t := task.Type(*r.Type)
		p.Type = &t
	}
	if r.Attachments != nil {
		attachments := make([]task.Attachment, 0, len(*r.Attachments))
		for _, a := range *r.Attachments {
			attachments = append(attachments, a.toDomain(now))
		}
		p.Attachments = &attachments
	}
	return p
}

// ReviewRequest carries the reviewer's comment on approve or disapprove
type ReviewRequest struct {
	Comment string `json:"comment" binding:"max=2000"`
}

// TaskResponse represents a task in API responses
type TaskResponse struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	Priority    string            `json:"priority"`
	Type        string            `json:"type"`
	DueDate     *time.Time        `json:"due_date"`
	ProjectID   uuid.UUID         `json:"project_id"`
	Assignees   []string          `json:"assignees"`
	Attachments []task.Attachment `json:"attachments"`
	IsApproved  bool              `json:"is_approved"`
	ApprovedAt  *time.Time        `json:"approved_at"`
	Comments    []task.Comment    `json:"comments"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ToTaskResponse converts a domain task to its response form
func ToTaskResponse(t *task.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Type:        string(t.Type),
		DueDate:     t.DueDate,
		ProjectID:   t.ProjectID,
		Assignees:   t.Assignees,
		Attachments: t.Attachments,
		IsApproved:  t.IsApproved,
		ApprovedAt:  t.ApprovedAt,
		Comments:    t.Comments,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if resp.Assignees == nil {
		resp.Assignees = []string{}
	}
	if resp.Attachments == nil {
		resp.Attachments = []task.Attachment{}
	}
	if resp.Comments == nil {
		resp.Comments = []task.Comment{}
	}
	return resp
}

// ToTaskResponses converts a list of tasks
func ToTaskResponses(tasks []*task.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, ToTaskResponse(t))
	}
	return out
}

// TaskDeletedPayload is broadcast when a task disappears
type TaskDeletedPayload struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
}

// CommentRequest adds a comment to a task's activity feed
type CommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

// UploadRequest records a file uploaded to a task
type UploadRequest struct {
	FileName string `json:"file_name" binding:"required,max=255"`
	FileURL  string `json:"file_url" binding:"required,url"`
	FileType string `json:"file_type" binding:"max=100"`
}

// ActorResponse is the immutable author snapshot of an activity
type ActorResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
}

// ActivityResponse represents an activity entry in API responses
type ActivityResponse struct {
	ID        uuid.UUID          `json:"id"`
	TaskID    uuid.UUID          `json:"task_id"`
	User      ActorResponse      `json:"user"`
	Type      string             `json:"type"`
	Content   string             `json:"content"`
	Metadata  *task.FileMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// ToActivityResponse converts a domain activity to its response form
func ToActivityResponse(a *task.Activity) ActivityResponse {
	return ActivityResponse{
		ID:     a.ID,
		TaskID: a.TaskID,
		User: ActorResponse{
			ID:    a.Actor.ID,
			Name:  a.Actor.Name,
			Photo: a.Actor.Photo,
		},
		Type:      string(a.Kind),
		Content:   a.Content,
		Metadata:  a.Metadata,
		CreatedAt: a.CreatedAt,
	}
}

// ToActivityResponses converts a list of activities
func ToActivityResponses(as []*task.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(as))
	for _, a := range as {
		out = append(out, ToActivityResponse(a))
	}
	return out
}

// PurgeStats summarizes a cascading task removal
type PurgeStats struct {
	Tasks          int64 `json:"tasks"`
	Activities     int64 `json:"activities"`
	BlobsRequested int   `json:"blobs_requested"`
	BlobsFailed    int   `json:"blobs_failed"`
}

// SweepStats contains statistics about an expiry sweep run
type SweepStats struct {
	TotalExpired int       `json:"total_expired"`
	Deleted      int       `json:"deleted"`
	Failed       int       `json:"failed"`
	BlobsFailed  int       `json:"blobs_failed"`
	ProcessedAt  time.Time `json:"processed_at"`
}
