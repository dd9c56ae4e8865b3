package identity

import "github.com/taskflow/backend/internal/domain/identity"

// Provider event type names
const (
	EventUserCreated         = "user.created"
	EventUserUpdated         = "user.updated"
	EventUserDeleted         = "user.deleted"
	EventMembershipCreated   = "organizationMembership.created"
	EventMembershipUpdated   = "organizationMembership.updated"
	EventMembershipDeleted   = "organizationMembership.deleted"
	EventOrganizationDeleted = "organization.deleted"
)

// SyncEvent is one decoded identity-provider lifecycle event. The concrete
// types below form a closed set; anything else decodes to UnknownEvent.
type SyncEvent interface {
	EventType() string
}

// UserCreated carries a newly registered user
type UserCreated struct {
	UserID    string
	Email     string // primary address, empty when the user has none
	Username  string
	FirstName string
	LastName  string
	Photo     string
	Role      identity.Role // from public metadata, may be empty
}

// EventType implements SyncEvent
func (UserCreated) EventType() string { return EventUserCreated }

// UserUpdated carries the profile fields present in the event
type UserUpdated struct {
	UserID  string
	Profile identity.UserProfile
}

// EventType implements SyncEvent
func (UserUpdated) EventType() string { return EventUserUpdated }

// UserDeleted reports a removed user
type UserDeleted struct {
	UserID string
}

// EventType implements SyncEvent
func (UserDeleted) EventType() string { return EventUserDeleted }

// MembershipChanged reports a created or updated organization membership
type MembershipChanged struct {
	Type    string
	OrgID   string
	UserID  string
	OrgRole identity.Role
}

// EventType implements SyncEvent
func (e MembershipChanged) EventType() string { return e.Type }

// MembershipDeleted reports a user leaving an organization
type MembershipDeleted struct {
	OrgID  string
	UserID string
}

// EventType implements SyncEvent
func (MembershipDeleted) EventType() string { return EventMembershipDeleted }

// OrganizationDeleted reports a removed organization
type OrganizationDeleted struct {
	OrgID string
}

// EventType implements SyncEvent
func (OrganizationDeleted) EventType() string { return EventOrganizationDeleted }

// UnknownEvent is any event type this service does not handle
type UnknownEvent struct {
	Type string
}

// EventType implements SyncEvent
func (e UnknownEvent) EventType() string { return e.Type }
