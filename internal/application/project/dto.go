package project

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/project"
)

// CreateProjectRequest represents a request to create a new project
type CreateProjectRequest struct {
	Title       string     `json:"title" binding:"required,min=1,max=100"`
	Description string     `json:"description" binding:"max=2000"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
	OrgID       string     `json:"org_id" binding:"max=128"`
}

// UpdateProjectRequest updates the project settings. Empty fields are left unchanged.
type UpdateProjectRequest struct {
	Title       string `json:"title" binding:"max=100"`
	Description string `json:"description" binding:"max=2000"`
	Status      string `json:"status"`
}

// ListProjectsFilter narrows the project listing
type ListProjectsFilter struct {
	OrgID  string `form:"org_id"`
	UserID string `form:"user_id"`
}

// ProjectResponse represents a project in API responses
type ProjectResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
	OwnerID     string     `json:"owner_id"`
	OrgID       string     `json:"org_id,omitempty"`
	Members     []string   `json:"members"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToProjectResponse converts a domain project to its response form
func ToProjectResponse(p *project.Project) ProjectResponse {
	members := p.Members
	if members == nil {
		members = []string{}
	}
	return ProjectResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Status:      string(p.Status),
		Priority:    string(p.Priority),
		StartDate:   p.StartDate,
		DueDate:     p.DueDate,
		OwnerID:     p.OwnerID,
		OrgID:       p.OrgID,
		Members:     members,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToProjectResponses converts a list of projects
func ToProjectResponses(ps []*project.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, ToProjectResponse(p))
	}
	return out
}

// AddMemberRequest adds a user to a project by email
type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// MemberResponse describes a project member
type MemberResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Photo   string `json:"photo,omitempty"`
	Role    string `json:"role"`
	IsOwner bool   `json:"is_owner"`
}

func toMemberResponse(u *identity.User, ownerID string) MemberResponse {
	return MemberResponse{
		ID:      u.ID,
		Email:   u.Email,
		Name:    u.DisplayName(),
		Photo:   u.Photo,
		Role:    string(u.Role),
		IsOwner: u.ID == ownerID,
	}
}

// MemberRemovedPayload is broadcast when a member leaves a project
type MemberRemovedPayload struct {
	ProjectID uuid.UUID `json:"project_id"`
	UserID    string    `json:"user_id"`
}

// ProjectDeletedPayload is broadcast when a project is deleted
type ProjectDeletedPayload struct {
	ID    uuid.UUID `json:"id"`
	OrgID string    `json:"org_id,omitempty"`
}

// CascadeStats summarizes a project deletion
type CascadeStats struct {
	Projects       int   `json:"projects"`
	Tasks          int64 `json:"tasks"`
	Activities     int64 `json:"activities"`
	BlobsRequested int   `json:"blobs_requested"`
	BlobsFailed    int   `json:"blobs_failed"`
}

// CreateMeetingRequest schedules a project meeting
type CreateMeetingRequest struct {
	Title       string    `json:"title" binding:"required,min=1,max=200"`
	Description string    `json:"description" binding:"max=2000"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	MeetLink    string    `json:"meet_link" binding:"omitempty,url"`
}

// MeetingResponse represents a meeting in API responses
type MeetingResponse struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	MeetLink    string    `json:"meet_link,omitempty"`
	StartDate   time.Time `json:"start_date"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToMeetingResponse converts a domain meeting to its response form
func ToMeetingResponse(m *project.Meeting) MeetingResponse {
	return MeetingResponse{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		Title:       m.Title,
		Description: m.Description,
		MeetLink:    m.MeetLink,
		StartDate:   m.StartDate,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
	}
}
