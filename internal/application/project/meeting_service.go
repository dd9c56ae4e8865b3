package project

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/project"
	"github.com/taskflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MeetingService schedules project meetings
type MeetingService struct {
	projects project.ProjectRepository
	meetings project.MeetingRepository
	bus      shared.Broadcaster
	logger   *zap.Logger
	clock    func() time.Time
}

// NewMeetingService creates a new MeetingService
func NewMeetingService(projects project.ProjectRepository, meetings project.MeetingRepository, bus shared.Broadcaster, logger *zap.Logger) *MeetingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = shared.NopBroadcaster{}
	}
	return &MeetingService{
		projects: projects,
		meetings: meetings,
		bus:      bus,
		logger:   logger,
		clock:    time.Now,
	}
}

// SetClock overrides the time source
func (s *MeetingService) SetClock(clock func() time.Time) {
	s.clock = clock
}

// Create schedules a meeting in a project the actor can see
func (s *MeetingService) Create(ctx context.Context, actor identity.Actor, projectID uuid.UUID, req CreateMeetingRequest) (*MeetingResponse, error) {
	if _, err := s.visibleProject(ctx, actor, projectID); err != nil {
		return nil, err
	}
	m, err := project.NewMeeting(projectID, req.Title, req.Description, req.MeetLink, req.StartDate, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.meetings.Create(ctx, m); err != nil {
		return nil, err
	}
	resp := ToMeetingResponse(m)
	s.bus.Broadcast(shared.ProjectRoom(projectID.String()), shared.EventMeetingCreated, resp)
	return &resp, nil
}

// ListUpcoming returns meetings starting from now, soonest first
func (s *MeetingService) ListUpcoming(ctx context.Context, actor identity.Actor, projectID uuid.UUID) ([]MeetingResponse, error) {
	if _, err := s.visibleProject(ctx, actor, projectID); err != nil {
		return nil, err
	}
	ms, err := s.meetings.FindUpcoming(ctx, projectID, s.clock())
	if err != nil {
		return nil, err
	}
	out := make([]MeetingResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, ToMeetingResponse(m))
	}
	return out, nil
}

func (s *MeetingService) visibleProject(ctx context.Context, actor identity.Actor, id uuid.UUID) (*project.Project, error) {
	p, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Project")
		}
		return nil, err
	}
	if !p.CanView(actor) {
		return nil, shared.Forbidden("You do not have access to this project")
	}
	return p, nil
}
