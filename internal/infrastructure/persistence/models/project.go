package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/project"
)

// ProjectModel is the persistence model for the Project domain entity.
type ProjectModel struct {
	BaseModel
	Title       string           `gorm:"type:varchar(100);not null"`
	Description string           `gorm:"type:text"`
	Status      project.Status   `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	Priority    project.Priority `gorm:"type:varchar(10);not null;default:'MEDIUM'"`
	StartDate   *time.Time
	DueDate     *time.Time
	OwnerID     string               `gorm:"type:varchar(64);not null;index"`
	OrgID       string               `gorm:"type:varchar(64);index"`
	Members     []ProjectMemberModel `gorm:"foreignKey:ProjectID"`
}

// TableName returns the table name for GORM
func (ProjectModel) TableName() string {
	return "projects"
}

// ToDomain converts the persistence model to a domain Project. Members must
// be preloaded in join order.
func (m *ProjectModel) ToDomain() *project.Project {
	members := make([]string, 0, len(m.Members))
	for _, mm := range m.Members {
		members = append(members, mm.UserID)
	}
	return &project.Project{
		BaseEntity:  m.BaseModel.ToDomain(),
		Title:       m.Title,
		Description: m.Description,
		Status:      m.Status,
		Priority:    m.Priority,
		StartDate:   m.StartDate,
		DueDate:     m.DueDate,
		OwnerID:     m.OwnerID,
		OrgID:       m.OrgID,
		Members:     members,
	}
}

// ProjectModelFromDomain creates a persistence model without its members
func ProjectModelFromDomain(p *project.Project) *ProjectModel {
	m := &ProjectModel{
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		Priority:    p.Priority,
		StartDate:   p.StartDate,
		DueDate:     p.DueDate,
		OwnerID:     p.OwnerID,
		OrgID:       p.OrgID,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// ProjectMemberModel is one row of a project's member set.
type ProjectMemberModel struct {
	ProjectID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:varchar(64);primaryKey;index"`
	Position  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProjectMemberModel) TableName() string {
	return "project_members"
}

// MeetingModel is the persistence model for a project meeting.
type MeetingModel struct {
	BaseModel
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Title       string    `gorm:"type:varchar(200);not null"`
	Description string    `gorm:"type:text"`
	MeetLink    string    `gorm:"type:varchar(1000)"`
	StartDate   time.Time `gorm:"not null;index"`
	CreatedBy   string    `gorm:"type:varchar(64);not null"`
}

// TableName returns the table name for GORM
func (MeetingModel) TableName() string {
	return "meetings"
}

// ToDomain converts the persistence model to a domain Meeting
func (m *MeetingModel) ToDomain() *project.Meeting {
	return &project.Meeting{
		BaseEntity:  m.BaseModel.ToDomain(),
		ProjectID:   m.ProjectID,
		Title:       m.Title,
		Description: m.Description,
		MeetLink:    m.MeetLink,
		StartDate:   m.StartDate,
		CreatedBy:   m.CreatedBy,
	}
}

// MeetingModelFromDomain creates a persistence model from a domain Meeting
func MeetingModelFromDomain(mt *project.Meeting) *MeetingModel {
	m := &MeetingModel{
		ProjectID:   mt.ProjectID,
		Title:       mt.Title,
		Description: mt.Description,
		MeetLink:    mt.MeetLink,
		StartDate:   mt.StartDate,
		CreatedBy:   mt.CreatedBy,
	}
	m.FromDomainBaseEntity(mt.BaseEntity)
	return m
}
