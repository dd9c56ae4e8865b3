package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/task"
)

// TaskModel is the persistence model for the Task domain entity.
type TaskModel struct {
	BaseModel
	Title       string        `gorm:"type:varchar(200);not null"`
	Description string        `gorm:"type:text"`
	Status      task.Status   `gorm:"type:varchar(20);not null;default:'To Do'"`
	Priority    task.Priority `gorm:"type:varchar(10);not null;default:'MEDIUM'"`
	Type        task.Type     `gorm:"type:varchar(20);not null;default:'TASK'"`
	DueDate     *time.Time
	ProjectID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	Attachments []task.Attachment   `gorm:"type:jsonb;serializer:json"`
	IsApproved  bool                `gorm:"not null;default:false"`
	ApprovedAt  *time.Time          `gorm:"index"`
	Comments    []task.Comment      `gorm:"type:jsonb;serializer:json"`
	Assignees   []TaskAssigneeModel `gorm:"foreignKey:TaskID"`
}

// TableName returns the table name for GORM
func (TaskModel) TableName() string {
	return "tasks"
}

// ToDomain converts the persistence model to a domain Task. Assignees must
// be preloaded in position order.
func (m *TaskModel) ToDomain() *task.Task {
	assignees := make([]string, 0, len(m.Assignees))
	for _, a := range m.Assignees {
		assignees = append(assignees, a.UserID)
	}
	attachments := m.Attachments
	if attachments == nil {
		attachments = []task.Attachment{}
	}
	comments := m.Comments
	if comments == nil {
		comments = []task.Comment{}
	}
	return &task.Task{
		BaseEntity:  m.BaseModel.ToDomain(),
		Title:       m.Title,
		Description: m.Description,
		Status:      m.Status,
		Priority:    m.Priority,
		Type:        m.Type,
		DueDate:     m.DueDate,
		ProjectID:   m.ProjectID,
		Assignees:   assignees,
		Attachments: attachments,
		IsApproved:  m.IsApproved,
		ApprovedAt:  m.ApprovedAt,
		Comments:    comments,
	}
}

// TaskModelFromDomain creates a persistence model without its assignee rows
func TaskModelFromDomain(t *task.Task) *TaskModel {
	m := &TaskModel{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		Type:        t.Type,
		DueDate:     t.DueDate,
		ProjectID:   t.ProjectID,
		Attachments: t.Attachments,
		IsApproved:  t.IsApproved,
		ApprovedAt:  t.ApprovedAt,
		Comments:    t.Comments,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}

// AssigneeRows builds the join rows for t in assignment order
func AssigneeRows(t *task.Task) []TaskAssigneeModel {
	rows := make([]TaskAssigneeModel, 0, len(t.Assignees))
	for i, userID := range t.Assignees {
		rows = append(rows, TaskAssigneeModel{TaskID: t.ID, UserID: userID, Position: i})
	}
	return rows
}

// TaskAssigneeModel is one row of a task's assignee set.
type TaskAssigneeModel struct {
	TaskID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID   string    `gorm:"type:varchar(64);primaryKey;index"`
	Position int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (TaskAssigneeModel) TableName() string {
	return "task_assignees"
}

// ActivityModel is one entry of a task's activity ledger.
type ActivityModel struct {
	BaseModel
	TaskID     uuid.UUID          `gorm:"type:uuid;not null;index"`
	ActorID    string             `gorm:"type:varchar(64);not null"`
	ActorName  string             `gorm:"type:varchar(200)"`
	ActorPhoto string             `gorm:"type:varchar(1000)"`
	Kind       task.ActivityKind  `gorm:"type:varchar(20);not null"`
	Content    string             `gorm:"type:text;not null"`
	Metadata   *task.FileMetadata `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (ActivityModel) TableName() string {
	return "activities"
}

// ToDomain converts the persistence model to a domain Activity
func (m *ActivityModel) ToDomain() *task.Activity {
	return &task.Activity{
		BaseEntity: m.BaseModel.ToDomain(),
		TaskID:     m.TaskID,
		Actor:      task.ActorSnapshot{ID: m.ActorID, Name: m.ActorName, Photo: m.ActorPhoto},
		Kind:       m.Kind,
		Content:    m.Content,
		Metadata:   m.Metadata,
	}
}

// ActivityModelFromDomain creates a persistence model from a domain Activity
func ActivityModelFromDomain(a *task.Activity) *ActivityModel {
	m := &ActivityModel{
		TaskID:     a.TaskID,
		ActorID:    a.Actor.ID,
		ActorName:  a.Actor.Name,
		ActorPhoto: a.Actor.Photo,
		Kind:       a.Kind,
		Content:    a.Content,
		Metadata:   a.Metadata,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}
