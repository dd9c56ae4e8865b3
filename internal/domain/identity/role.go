package identity

// Role is either an organization-scoped role ("org:admin") or a personal
// global role ("admin") as issued by the identity provider.
type Role string

const (
	RoleViewer    Role = "viewer"
	RoleMember    Role = "member"
	RoleAdmin     Role = "admin"
	OrgRoleAdmin  Role = "org:admin"
	OrgRoleMember Role = "org:member"
)

// AdminRoles grants every privileged operation
var AdminRoles = []Role{OrgRoleAdmin, RoleAdmin}

// IsGlobal reports whether r can be stored as a personal role
func (r Role) IsGlobal() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// Actor is the authenticated caller of an operation, built from verified
// session claims.
type Actor struct {
	UserID       string
	OrgID        string // active organization context, empty for personal workspace
	OrgRole      Role
	PersonalRole Role
}

// EffectiveRole resolves the single role used for authorization:
// organization role when an organization context is active, otherwise the
// personal role, otherwise viewer.
func (a Actor) EffectiveRole() Role {
	if a.OrgID != "" && a.OrgRole != "" {
		return a.OrgRole
	}
	if a.PersonalRole != "" {
		return a.PersonalRole
	}
	return RoleViewer
}

// IsAdmin reports whether the actor holds any admin role
func (a Actor) IsAdmin() bool {
	return HasAnyRole(a, AdminRoles...)
}

// HasAnyRole reports whether the actor's effective role is in allowed
func HasAnyRole(a Actor, allowed ...Role) bool {
	effective := a.EffectiveRole()
	for _, r := range allowed {
		if r == effective {
			return true
		}
	}
	return false
}

// GlobalRoleForOrgRole maps an organization role to the mirrored global role
func GlobalRoleForOrgRole(orgRole Role) Role {
	if orgRole == OrgRoleAdmin {
		return RoleAdmin
	}
	return RoleMember
}
