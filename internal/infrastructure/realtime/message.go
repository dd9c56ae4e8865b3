package realtime

import (
	"github.com/goccy/go-json"
)

// Client-originated events
const (
	EventSetup        = "setup"
	EventJoinProject  = "join_project"
	EventJoinOrg      = "join_org"
	EventLeaveProject = "leave_project"
	EventPing         = "ping"
	EventPong         = "pong"
	EventError        = "error"
)

// Frame is the wire envelope for both directions
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// encodeFrame marshals an outgoing event once so every recipient shares the bytes
func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

// roomArg accepts either a bare string or {"id": "..."} as event data
func roomArg(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		ID        string `json:"id"`
		UserID    string `json:"userId"`
		ProjectID string `json:"projectId"`
		OrgID     string `json:"orgId"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	for _, v := range []string{obj.ID, obj.UserID, obj.ProjectID, obj.OrgID} {
		if v != "" {
			return v
		}
	}
	return ""
}
