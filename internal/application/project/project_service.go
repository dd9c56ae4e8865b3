package project

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	taskapp "github.com/taskflow/backend/internal/application/task"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/notification"
	"github.com/taskflow/backend/internal/domain/project"
	"github.com/taskflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MembershipVerifier checks organization membership at the identity provider
type MembershipVerifier interface {
	IsOrgMember(ctx context.Context, orgID, userID string) (bool, error)
}

// TaskPurger removes every task of a project with its activities and files
type TaskPurger interface {
	PurgeProject(ctx context.Context, projectID uuid.UUID) (*taskapp.PurgeStats, error)
}

// ProjectService handles projects, their member sets and cascading deletion
type ProjectService struct {
	projects project.ProjectRepository
	meetings project.MeetingRepository
	users    identity.UserRepository
	verifier MembershipVerifier
	purger   TaskPurger
	notifier taskapp.Notifier
	bus      shared.Broadcaster
	logger   *zap.Logger
}

// ProjectServiceDeps groups the collaborators of ProjectService
type ProjectServiceDeps struct {
	Projects project.ProjectRepository
	Meetings project.MeetingRepository
	Users    identity.UserRepository
	Verifier MembershipVerifier
	Purger   TaskPurger
	Notifier taskapp.Notifier
	Bus      shared.Broadcaster
	Logger   *zap.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(deps ProjectServiceDeps) *ProjectService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := deps.Bus
	if bus == nil {
		bus = shared.NopBroadcaster{}
	}
	return &ProjectService{
		projects: deps.Projects,
		meetings: deps.Meetings,
		users:    deps.Users,
		verifier: deps.Verifier,
		purger:   deps.Purger,
		notifier: deps.Notifier,
		bus:      bus,
		logger:   logger,
	}
}

// List returns the projects visible in the current context. Within an
// organization these are the org projects listing the target user as a
// member; otherwise the caller's personal projects.
func (s *ProjectService) List(ctx context.Context, actor identity.Actor, filter ListProjectsFilter) ([]ProjectResponse, error) {
	orgID := cleanOrgID(filter.OrgID)
	if orgID == "" {
		orgID = actor.OrgID
	}
	if orgID == "" {
		ps, err := s.projects.FindPersonalByOwner(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		return ToProjectResponses(ps), nil
	}

	member := filter.UserID
	if member == "" {
		member = actor.UserID
	}
	if member != actor.UserID && !actor.IsAdmin() {
		return nil, shared.Forbidden("You can only list your own projects")
	}
	ps, err := s.projects.FindByOrgAndMember(ctx, orgID, member)
	if err != nil {
		return nil, err
	}
	return ToProjectResponses(ps), nil
}

// Get returns a single project visible to the actor
func (s *ProjectService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ProjectResponse, error) {
	p, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := ToProjectResponse(p)
	return &resp, nil
}

// Create creates a project owned by the actor. The organization comes from
// the request or, failing that, from the actor's active organization.
func (s *ProjectService) Create(ctx context.Context, actor identity.Actor, req CreateProjectRequest) (*ProjectResponse, error) {
	if !actor.IsAdmin() {
		return nil, shared.Forbidden("Only admins can create projects")
	}
	orgID := cleanOrgID(req.OrgID)
	if orgID == "" {
		orgID = actor.OrgID
	}
	p, err := project.NewProject(project.NewProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      project.Status(req.Status),
		Priority:    project.Priority(req.Priority),
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		OwnerID:     actor.UserID,
		OrgID:       orgID,
	})
	if err != nil {
		return nil, err
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}

	resp := ToProjectResponse(p)
	s.bus.Broadcast(s.audience(p), shared.EventProjectCreated, resp)
	s.logger.Info("Project created",
		zap.String("project_id", p.ID.String()),
		zap.String("org_id", p.OrgID),
	)
	return &resp, nil
}

// UpdateSettings changes title, description or status
func (s *ProjectService) UpdateSettings(ctx context.Context, actor identity.Actor, id uuid.UUID, req UpdateProjectRequest) (*ProjectResponse, error) {
	if !actor.IsAdmin() {
		return nil, shared.Forbidden("Only admins can update project settings")
	}
	p, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := p.UpdateSettings(project.SettingsPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      project.Status(req.Status),
	}); err != nil {
		return nil, err
	}
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, err
	}
	resp := ToProjectResponse(p)
	s.bus.Broadcast(shared.ProjectRoom(p.ID.String()), shared.EventProjectUpdated, resp)
	return &resp, nil
}

// Delete removes a project with its tasks, activities, files and meetings
func (s *ProjectService) Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) (*CascadeStats, error) {
	if !actor.IsAdmin() {
		return nil, shared.Forbidden("Only admins can delete projects")
	}
	p, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	stats := &CascadeStats{}
	if err := s.cascade(ctx, p, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// DeleteByOrg removes every project of an organization. Projects are processed
// independently and failures are joined into the returned error.
func (s *ProjectService) DeleteByOrg(ctx context.Context, orgID string) (*CascadeStats, error) {
	ps, err := s.projects.FindByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	stats := &CascadeStats{}
	var errs []error
	for _, p := range ps {
		if err := s.cascade(ctx, p, stats); err != nil {
			s.logger.Error("Failed to delete organization project",
				zap.String("org_id", orgID),
				zap.String("project_id", p.ID.String()),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("project %s: %w", p.ID, err))
		}
	}
	return stats, errors.Join(errs...)
}

func (s *ProjectService) cascade(ctx context.Context, p *project.Project, stats *CascadeStats) error {
	purged, err := s.purger.PurgeProject(ctx, p.ID)
	if err != nil {
		return err
	}
	if err := s.meetings.DeleteByProject(ctx, p.ID); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, p.ID); err != nil {
		return err
	}

	stats.Projects++
	stats.Tasks += purged.Tasks
	stats.Activities += purged.Activities
	stats.BlobsRequested += purged.BlobsRequested
	stats.BlobsFailed += purged.BlobsFailed

	s.bus.Broadcast(s.audience(p), shared.EventProjectDeleted, ProjectDeletedPayload{ID: p.ID, OrgID: p.OrgID})
	s.logger.Info("Project deleted",
		zap.String("project_id", p.ID.String()),
		zap.Int64("tasks", purged.Tasks),
		zap.Int("blobs_failed", purged.BlobsFailed),
	)
	return nil
}

// ListMembers returns the mirrored users of a project's member set
func (s *ProjectService) ListMembers(ctx context.Context, actor identity.Actor, id uuid.UUID) ([]MemberResponse, error) {
	p, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	users, err := s.users.FindByIDs(ctx, p.Members)
	if err != nil {
		return nil, err
	}
	out := make([]MemberResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toMemberResponse(u, p.OwnerID))
	}
	return out, nil
}

// AddMember adds a user, looked up by email, to the project. For organization
// projects the user must be a verified member of that organization.
func (s *ProjectService) AddMember(ctx context.Context, actor identity.Actor, id uuid.UUID, req AddMemberRequest) (*ProjectResponse, error) {
	p, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, shared.Forbidden("Only the owner or an admin can add members")
	}
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("User")
		}
		return nil, err
	}
	if p.HasMember(user.ID) {
		return nil, shared.Conflict("User is already a member")
	}
	if !p.IsPersonal() {
		ok, err := s.verifier.IsOrgMember(ctx, p.OrgID, user.ID)
		if err != nil {
			return nil, shared.UpstreamError("verify organization membership", err)
		}
		if !ok {
			return nil, shared.Invalid("User is not a member of this organization")
		}
	}
	if err := p.AddMember(user.ID); err != nil {
		return nil, err
	}
	if err := s.projects.AddMember(ctx, p.ID, user.ID); err != nil {
		return nil, err
	}

	note, err := notification.New(user.ID, notification.KindProjectAdd,
		notification.ProjectAddedMessage(p.Title), p.ID.String(),
		&notification.Metadata{SenderID: actor.UserID})
	if err == nil {
		if err := s.notifier.Notify(ctx, note); err != nil {
			s.logger.Warn("Failed to notify new project member",
				zap.String("project_id", p.ID.String()),
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
		}
	}

	resp := ToProjectResponse(p)
	s.bus.Broadcast(shared.ProjectRoom(p.ID.String()), shared.EventProjectUpdated, resp)
	return &resp, nil
}

// RemoveMember removes a user from the project. The owner cannot be removed.
func (s *ProjectService) RemoveMember(ctx context.Context, actor identity.Actor, id uuid.UUID, userID string) (*ProjectResponse, error) {
	if !actor.IsAdmin() {
		return nil, shared.Forbidden("Only admins can remove members")
	}
	p, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !p.HasMember(userID) {
		return nil, shared.NotFound("Member")
	}
	if err := p.RemoveMember(userID); err != nil {
		return nil, err
	}
	if err := s.projects.RemoveMember(ctx, p.ID, userID); err != nil {
		return nil, err
	}

	payload := MemberRemovedPayload{ProjectID: p.ID, UserID: userID}
	s.bus.Broadcast(shared.ProjectRoom(p.ID.String()), shared.EventProjectMemberRemove, payload)
	s.bus.Broadcast(shared.UserRoom(userID), shared.EventProjectMemberRemove, payload)
	resp := ToProjectResponse(p)
	s.bus.Broadcast(shared.ProjectRoom(p.ID.String()), shared.EventProjectUpdated, resp)
	return &resp, nil
}

// RemoveUserEverywhere drops a deleted user from every project
func (s *ProjectService) RemoveUserEverywhere(ctx context.Context, userID string) (int64, error) {
	return s.projects.RemoveMemberEverywhere(ctx, userID)
}

// RemoveUserFromOrg drops a user from every project of an organization
func (s *ProjectService) RemoveUserFromOrg(ctx context.Context, orgID, userID string) (int64, error) {
	return s.projects.RemoveMemberFromOrg(ctx, orgID, userID)
}

func (s *ProjectService) visible(ctx context.Context, actor identity.Actor, id uuid.UUID) (*project.Project, error) {
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

func (s *ProjectService) audience(p *project.Project) shared.Room {
	if p.IsPersonal() {
		return shared.UserRoom(p.OwnerID)
	}
	return shared.OrgRoom(p.OrgID)
}

func cleanOrgID(orgID string) string {
	orgID = strings.TrimSpace(orgID)
	if orgID == "undefined" || orgID == "null" {
		return ""
	}
	return orgID
}
