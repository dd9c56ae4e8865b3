package project

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
)

// Meeting is a scheduled call attached to a project
type Meeting struct {
	shared.BaseEntity
	ProjectID   uuid.UUID
	Title       string
	Description string
	MeetLink    string
	StartDate   time.Time
	CreatedBy   string
}

// NewMeeting validates and creates a meeting
func NewMeeting(projectID uuid.UUID, title, description, meetLink string, start time.Time, createdBy string) (*Meeting, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.Invalid("Title is required")
	}
	if start.IsZero() {
		return nil, shared.Invalid("Start date is required")
	}
	meetLink = strings.TrimSpace(meetLink)
	if meetLink != "" {
		u, err := url.Parse(meetLink)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return nil, shared.Invalid("Meeting link must be an http(s) URL")
		}
	}
	return &Meeting{
		BaseEntity:  shared.NewBaseEntity(),
		ProjectID:   projectID,
		Title:       title,
		Description: strings.TrimSpace(description),
		MeetLink:    meetLink,
		StartDate:   start,
		CreatedBy:   createdBy,
	}, nil
}
