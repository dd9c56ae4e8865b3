package project

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProjectRepository defines persistence for projects and their member sets
type ProjectRepository interface {
	Create(ctx context.Context, p *Project) error
	// Update saves scalar fields; the member set is changed only through AddMember/RemoveMember
	Update(ctx context.Context, p *Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
	// FindByOrgAndMember lists org projects whose member set contains userID, newest first
	FindByOrgAndMember(ctx context.Context, orgID, userID string) ([]*Project, error)
	// FindPersonalByOwner lists projects owned by ownerID without an organization, newest first
	FindPersonalByOwner(ctx context.Context, ownerID string) ([]*Project, error)
	FindByOrg(ctx context.Context, orgID string) ([]*Project, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// AddMember inserts userID into the member set; adding an existing member is a no-op
	AddMember(ctx context.Context, projectID uuid.UUID, userID string) error
	RemoveMember(ctx context.Context, projectID uuid.UUID, userID string) error
	// RemoveMemberEverywhere pulls userID from every project and returns the number of memberships removed
	RemoveMemberEverywhere(ctx context.Context, userID string) (int64, error)
	// RemoveMemberFromOrg pulls userID from every project of orgID
	RemoveMemberFromOrg(ctx context.Context, orgID, userID string) (int64, error)
}

// MeetingRepository defines persistence for project meetings
type MeetingRepository interface {
	Create(ctx context.Context, m *Meeting) error
	// FindUpcoming lists meetings of a project starting at or after from, soonest first
	FindUpcoming(ctx context.Context, projectID uuid.UUID, from time.Time) ([]*Meeting, error)
	DeleteByProject(ctx context.Context, projectID uuid.UUID) error
}
