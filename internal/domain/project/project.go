package project

import (
	"slices"
	"strings"
	"time"

	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
)

// Status represents the lifecycle state of a project
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusOnHold    Status = "ON_HOLD"
	StatusArchived  Status = "ARCHIVED"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusOnHold, StatusArchived:
		return true
	}
	return false
}

// Priority of a project
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

const (
	// DefaultDescription is stored when a project is created without one
	DefaultDescription = "No Description"
	maxTitleLength     = 100
)

// Project is a workspace owning tasks. A project without OrgID is a personal
// workspace visible only to its owner.
type Project struct {
	shared.BaseEntity
	Title       string
	Description string
	Status      Status
	Priority    Priority
	StartDate   *time.Time
	DueDate     *time.Time
	OwnerID     string
	OrgID       string
	Members     []string
}

// NewProjectInput holds the fields accepted on creation
type NewProjectInput struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	StartDate   *time.Time
	DueDate     *time.Time
	OwnerID     string
	OrgID       string
}

// NewProject creates a project whose only member is its owner
func NewProject(in NewProjectInput) (*Project, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.OwnerID) == "" {
		return nil, shared.Invalid("Project owner is required")
	}

	p := &Project{
		BaseEntity:  shared.NewBaseEntity(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      in.Status,
		Priority:    in.Priority,
		StartDate:   in.StartDate,
		DueDate:     in.DueDate,
		OwnerID:     in.OwnerID,
		OrgID:       normalizeOrgID(in.OrgID),
		Members:     []string{in.OwnerID},
	}
	if p.Description == "" {
		p.Description = DefaultDescription
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if p.Priority == "" {
		p.Priority = PriorityMedium
	}
	if !p.Status.IsValid() {
		return nil, shared.Invalid("Invalid project status")
	}
	if !p.Priority.IsValid() {
		return nil, shared.Invalid("Invalid project priority")
	}
	if p.StartDate != nil && p.DueDate != nil && p.DueDate.Before(*p.StartDate) {
		return nil, shared.Invalid("Due date cannot be before start date")
	}
	return p, nil
}

// IsPersonal reports whether the project has no owning organization
func (p *Project) IsPersonal() bool {
	return p.OrgID == ""
}

// HasMember reports whether userID is in the member set
func (p *Project) HasMember(userID string) bool {
	return slices.Contains(p.Members, userID)
}

// CanView applies the visibility rule: personal projects are visible to the
// owner only, organization projects to listed members and admins acting
// inside that organization.
func (p *Project) CanView(actor identity.Actor) bool {
	if p.IsPersonal() {
		return actor.UserID == p.OwnerID
	}
	if actor.OrgID != p.OrgID {
		return false
	}
	return p.HasMember(actor.UserID) || actor.IsAdmin()
}

// AddMember appends userID to the member set
func (p *Project) AddMember(userID string) error {
	if p.HasMember(userID) {
		return shared.Conflict("User is already a member")
	}
	p.Members = append(p.Members, userID)
	p.Touch()
	return nil
}

// RemoveMember drops userID from the member set. The owner cannot be removed.
func (p *Project) RemoveMember(userID string) error {
	if userID == p.OwnerID {
		return shared.Invalid("The project owner cannot be removed")
	}
	p.Members = slices.DeleteFunc(p.Members, func(m string) bool { return m == userID })
	p.Touch()
	return nil
}

// SettingsPatch holds the editable settings; empty fields are kept
type SettingsPatch struct {
	Title       string
	Description string
	Status      Status
}

// UpdateSettings applies the non-empty fields of patch
func (p *Project) UpdateSettings(patch SettingsPatch) error {
	if patch.Title != "" {
		title, err := validateTitle(patch.Title)
		if err != nil {
			return err
		}
		p.Title = title
	}
	if d := strings.TrimSpace(patch.Description); d != "" {
		p.Description = d
	}
	if patch.Status != "" {
		if !patch.Status.IsValid() {
			return shared.Invalid("Invalid project status")
		}
		p.Status = patch.Status
	}
	p.Touch()
	return nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", shared.Invalid("Title is required")
	}
	if len([]rune(title)) > maxTitleLength {
		return "", shared.Invalid("Title is too long")
	}
	return title, nil
}

// normalizeOrgID treats the literal strings some clients send for a missing
// organization as absent.
func normalizeOrgID(orgID string) string {
	orgID = strings.TrimSpace(orgID)
	if orgID == "undefined" || orgID == "null" {
		return ""
	}
	return orgID
}
