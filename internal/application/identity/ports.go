package identity

import (
	"context"

	projectapp "github.com/taskflow/backend/internal/application/project"
	"github.com/taskflow/backend/internal/domain/identity"
)

// IdentityProvider is the external source of truth for roles and organizations
type IdentityProvider interface {
	// UpdateOrgMembershipRole changes a user's role inside an organization
	UpdateOrgMembershipRole(ctx context.Context, orgID, userID string, role identity.Role) error
	// UpdateUserMetadataRole stores the global role in the user's public metadata
	UpdateUserMetadataRole(ctx context.Context, userID string, role identity.Role) error
	// DeleteOrganization removes the organization. A missing organization is not an error.
	DeleteOrganization(ctx context.Context, orgID string) error
}

// ProjectDirectory is the part of the project service the identity flows depend on
type ProjectDirectory interface {
	DeleteByOrg(ctx context.Context, orgID string) (*projectapp.CascadeStats, error)
	RemoveUserEverywhere(ctx context.Context, userID string) (int64, error)
	RemoveUserFromOrg(ctx context.Context, orgID, userID string) (int64, error)
}
