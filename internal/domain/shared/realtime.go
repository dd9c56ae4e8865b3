package shared

import "strings"

// Room is an addressable broadcast group on the real-time channel.
type Room string

// Room name prefixes
const (
	UserRoomPrefix    = "user_"
	ProjectRoomPrefix = "project_"
	OrgRoomPrefix     = "org_"
)

// UserRoom returns the private room of a user
func UserRoom(userID string) Room {
	return Room(UserRoomPrefix + userID)
}

// ProjectRoom returns the room of a project's collaborators
func ProjectRoom(projectID string) Room {
	return Room(ProjectRoomPrefix + projectID)
}

// OrgRoom returns the organization-wide room
func OrgRoom(orgID string) Room {
	return Room(OrgRoomPrefix + orgID)
}

// HasPrefix reports whether the room belongs to the given class
func (r Room) HasPrefix(prefix string) bool {
	return strings.HasPrefix(string(r), prefix) && len(r) > len(prefix)
}

// Real-time event names
const (
	EventConnected           = "connected"
	EventTaskCreated         = "task:created"
	EventTaskUpdated         = "task:updated"
	EventTaskDeleted         = "task:deleted"
	EventDashboardRefresh    = "dashboard:refresh"
	EventNotificationNew     = "notification:new"
	EventActivityCreated     = "activity:created"
	EventProjectCreated      = "project:created"
	EventProjectUpdated      = "project:updated"
	EventProjectMemberRemove = "project:member_removed"
	EventProjectDeleted      = "project:deleted"
	EventMeetingCreated      = "event:created"
	EventTeamUpdated         = "team:updated"
	EventSessionRefresh      = "session:refresh"
)

// Broadcaster publishes fire-and-forget events to rooms. Publishing to a room
// without subscribers is a no-op and delivery is at-most-once.
type Broadcaster interface {
	Broadcast(room Room, event string, payload any)
}

// NopBroadcaster discards every event
type NopBroadcaster struct{}

// Broadcast implements Broadcaster
func (NopBroadcaster) Broadcast(Room, string, any) {}
