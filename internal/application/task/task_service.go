package task

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/application/attachment"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/notification"
	"github.com/taskflow/backend/internal/domain/project"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
	"go.uber.org/zap"
)

// TaskService implements the task state machine and approval workflow
type TaskService struct {
	tasks      task.TaskRepository
	activities task.ActivityRepository
	projects   project.ProjectRepository
	users      identity.UserRepository
	directory  *Directory
	notifier   Notifier
	mailer     Mailer
	runner     Runner
	cleaner    AttachmentCleaner
	bus        shared.Broadcaster
	logger     *zap.Logger
	clock      func() time.Time
}

// TaskServiceDeps groups the collaborators of TaskService
type TaskServiceDeps struct {
	Tasks      task.TaskRepository
	Activities task.ActivityRepository
	Projects   project.ProjectRepository
	Users      identity.UserRepository
	Notifier   Notifier
	Mailer     Mailer
	Runner     Runner
	Cleaner    AttachmentCleaner
	Bus        shared.Broadcaster
	Logger     *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(deps TaskServiceDeps) *TaskService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := deps.Bus
	if bus == nil {
		bus = shared.NopBroadcaster{}
	}
	return &TaskService{
		tasks:      deps.Tasks,
		activities: deps.Activities,
		projects:   deps.Projects,
		users:      deps.Users,
		directory:  NewDirectory(deps.Users, logger),
		notifier:   deps.Notifier,
		mailer:     deps.Mailer,
		runner:     deps.Runner,
		cleaner:    deps.Cleaner,
		bus:        bus,
		logger:     logger,
		clock:      time.Now,
	}
}

// SetClock overrides the time source
func (s *TaskService) SetClock(clock func() time.Time) {
	s.clock = clock
}

// Create persists a new task, notifies its assignees and announces it to the project room.
// Assignment emails are sent in detached background work.
func (s *TaskService) Create(ctx context.Context, actor identity.Actor, req CreateTaskRequest) (*TaskResponse, error) {
	if !actor.IsAdmin() {
		return nil, shared.Forbidden("Only admins can create tasks")
	}
	proj, err := s.projects.FindByID(ctx, req.ProjectID)
	if err != nil {
		return nil, notFoundAs(err, "Project")
	}
	if !proj.CanView(actor) {
		return nil, shared.Forbidden("You do not have access to this project")
	}

	now := s.clock()
	t, err := task.NewTask(req.toInput(now), now)
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}

	recipients := without(t.Assignees, actor.UserID)
	s.notifyAssigned(ctx, t, recipients)
	s.emailAssigned(t, recipients)

	resp := ToTaskResponse(t)
	s.bus.Broadcast(shared.ProjectRoom(t.ProjectID.String()), shared.EventTaskCreated, resp)

	s.logger.Info("Task created",
		zap.String("task_id", t.ID.String()),
		zap.String("project_id", t.ProjectID.String()),
		zap.Int("assignees", len(t.Assignees)),
	)
	return &resp, nil
}

// Get returns a task visible to the actor
func (s *TaskService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*TaskResponse, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !t.IsAssignee(actor.UserID) {
		return nil, errNotAssigned
	}
	resp := ToTaskResponse(t)
	return &resp, nil
}

// ListByProject returns the tasks of a project the actor can see, newest first
func (s *TaskService) ListByProject(ctx context.Context, actor identity.Actor, projectID uuid.UUID) ([]TaskResponse, error) {
	proj, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, notFoundAs(err, "Project")
	}
	if !proj.CanView(actor) {
		return nil, shared.Forbidden("You do not have access to this project")
	}
	tasks, err := s.tasks.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return ToTaskResponses(tasks), nil
}

// ListByAssignee returns the tasks assigned to a user. Only admins may look at other users.
func (s *TaskService) ListByAssignee(ctx context.Context, actor identity.Actor, userID string) ([]TaskResponse, error) {
	if userID == "" {
		userID = actor.UserID
	}
	if userID != actor.UserID && !actor.IsAdmin() {
		return nil, shared.Forbidden("You can only list your own tasks")
	}
	tasks, err := s.tasks.FindByAssignee(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToTaskResponses(tasks), nil
}

// Update applies a partial update. Assignees who are not admins may only
// change status and attachments; other fields are silently dropped.
func (s *TaskService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req UpdateTaskRequest) (*TaskResponse, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	admin := actor.IsAdmin()
	if !admin && !t.IsAssignee(actor.UserID) {
		return nil, errNotAssigned
	}

	patch := req.toPatch(s.clock())
	var change task.Change
	if admin {
		change, err = t.Apply(patch)
	} else {
		change, err = t.ApplyAsAssignee(patch)
	}
	if err != nil {
		return nil, err
	}

	// Removed files go before the new state is stored.
	if len(change.RemovedAttachments) > 0 {
		s.cleaner.DeleteAll(ctx, change.RemovedAttachments)
	}
	if err := s.tasks.Save(ctx, t); err != nil {
		return nil, err
	}

	s.recordChange(ctx, actor, t, change)
	if change.BecameDone() {
		s.notifyOwnerReview(ctx, actor, t)
	}
	if admin {
		s.notifyAssigned(ctx, t, without(change.AddedAssignees, actor.UserID))
	}

	resp := ToTaskResponse(t)
	s.bus.Broadcast(shared.ProjectRoom(t.ProjectID.String()), shared.EventTaskUpdated, resp)
	return &resp, nil
}

// Approve marks a finished task as approved and notifies its assignees
func (s *TaskService) Approve(ctx context.Context, actor identity.Actor, id uuid.UUID, req ReviewRequest) (*TaskResponse, error) {
	if !actor.IsAdmin() {
		return nil, shared.Forbidden("Only admins can approve tasks")
	}
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.Approve(s.directory.Comment(ctx, actor.UserID, req.Comment), s.clock()); err != nil {
		return nil, err
	}
	if err := s.tasks.Save(ctx, t); err != nil {
		return nil, err
	}

	s.notifyAssignees(ctx, t, actor.UserID, notification.KindTaskApproved, notification.TaskApprovedMessage(t.Title))

	resp := ToTaskResponse(t)
	s.bus.Broadcast(shared.ProjectRoom(t.ProjectID.String()), shared.EventTaskUpdated, resp)
	s.logger.Info("Task approved",
		zap.String("task_id", t.ID.String()),
		zap.String("approver_id", actor.UserID),
	)
	return &resp, nil
}

// Disapprove sends a task back to In Progress with the reviewer's comment
func (s *TaskService) Disapprove(ctx context.Context, actor identity.Actor, id uuid.UUID, req ReviewRequest) (*TaskResponse, error) {
	if !actor.IsAdmin() {
		return nil, shared.Forbidden("Only admins can disapprove tasks")
	}
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Disapprove(s.directory.Comment(ctx, actor.UserID, req.Comment), s.clock())
	if err := s.tasks.Save(ctx, t); err != nil {
		return nil, err
	}

	s.notifyAssignees(ctx, t, actor.UserID, notification.KindTaskRejected, notification.TaskRejectedMessage(t.Title, req.Comment))

	resp := ToTaskResponse(t)
	s.bus.Broadcast(shared.ProjectRoom(t.ProjectID.String()), shared.EventTaskUpdated, resp)
	return &resp, nil
}

// Delete removes a task together with its activities and every stored file
// referenced by either.
func (s *TaskService) Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return shared.Forbidden("Only admins can delete tasks")
	}
	t, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.purgeActivities(ctx, []*task.Task{t}); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, t.ID); err != nil {
		return err
	}
	s.announceDeleted(t)
	return nil
}

// PurgeProject removes every task of a project with their activities and files.
// Used by the project and organization cascades.
func (s *TaskService) PurgeProject(ctx context.Context, projectID uuid.UUID) (*PurgeStats, error) {
	tasks, err := s.tasks.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	stats, err := s.purgeActivities(ctx, tasks)
	if err != nil {
		return nil, err
	}
	n, err := s.tasks.DeleteByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	stats.Tasks = n
	return stats, nil
}

// purgeActivities deletes the blobs of the tasks and their activities, then
// the activity rows. Blob failures are logged, never returned.
func (s *TaskService) purgeActivities(ctx context.Context, tasks []*task.Task) (*PurgeStats, error) {
	stats := &PurgeStats{}
	if len(tasks) == 0 {
		return stats, nil
	}
	ids := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	activities, err := s.activities.FindByTasks(ctx, ids)
	if err != nil {
		return nil, err
	}

	urls := attachment.CollectURLs(tasks, activities)
	if len(urls) > 0 {
		report := s.cleaner.DeleteAll(ctx, urls)
		stats.BlobsRequested = report.Requested
		stats.BlobsFailed = len(report.Failed)
	}

	n, err := s.activities.DeleteByTasks(ctx, ids)
	if err != nil {
		return nil, err
	}
	stats.Activities = n
	return stats, nil
}

func (s *TaskService) announceDeleted(t *task.Task) {
	s.bus.Broadcast(shared.ProjectRoom(t.ProjectID.String()), shared.EventTaskDeleted, TaskDeletedPayload{
		ID:        t.ID,
		ProjectID: t.ProjectID,
	})
	for _, userID := range t.Assignees {
		s.bus.Broadcast(shared.UserRoom(userID), shared.EventDashboardRefresh, TaskDeletedPayload{
			ID:        t.ID,
			ProjectID: t.ProjectID,
		})
	}
}

func (s *TaskService) load(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Task")
	}
	return t, nil
}

func (s *TaskService) recordChange(ctx context.Context, actor identity.Actor, t *task.Task, change task.Change) {
	if !change.StatusChanged() && !change.PriorityChanged() {
		return
	}
	entry, err := task.ChangeActivity(t.ID, s.directory.Snapshot(ctx, actor.UserID), change)
	if err != nil || entry == nil {
		return
	}
	if err := s.activities.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to record task activity",
			zap.String("task_id", t.ID.String()),
			zap.String("type", string(entry.Kind)),
			zap.Error(err),
		)
		return
	}
	s.bus.Broadcast(shared.ProjectRoom(t.ProjectID.String()), shared.EventActivityCreated, ToActivityResponse(entry))
}

func (s *TaskService) notifyOwnerReview(ctx context.Context, actor identity.Actor, t *task.Task) {
	proj, err := s.projects.FindByID(ctx, t.ProjectID)
	if err != nil {
		s.logger.Warn("Project lookup failed for review notification",
			zap.String("task_id", t.ID.String()),
			zap.Error(err),
		)
		return
	}
	if proj.OwnerID == "" || proj.OwnerID == actor.UserID {
		return
	}
	note, err := notification.New(proj.OwnerID, notification.KindInfo,
		notification.TaskReadyForReviewMessage(t.Title), t.ProjectID.String(),
		&notification.Metadata{TaskID: t.ID.String(), SenderID: actor.UserID})
	if err != nil {
		return
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Warn("Failed to notify project owner",
			zap.String("task_id", t.ID.String()),
			zap.String("owner_id", proj.OwnerID),
			zap.Error(err),
		)
	}
}

func (s *TaskService) notifyAssigned(ctx context.Context, t *task.Task, recipients []string) {
	s.notifyUsers(ctx, t, recipients, "", notification.KindTaskAssign, notification.TaskAssignedMessage(t.Title))
}

func (s *TaskService) notifyAssignees(ctx context.Context, t *task.Task, senderID string, kind notification.Kind, message string) {
	s.notifyUsers(ctx, t, without(t.Assignees, senderID), senderID, kind, message)
}

func (s *TaskService) notifyUsers(ctx context.Context, t *task.Task, recipients []string, senderID string, kind notification.Kind, message string) {
	if len(recipients) == 0 {
		return
	}
	notes := make([]*notification.Notification, 0, len(recipients))
	for _, userID := range recipients {
		note, err := notification.New(userID, kind, message, t.ProjectID.String(),
			&notification.Metadata{TaskID: t.ID.String(), SenderID: senderID})
		if err != nil {
			continue
		}
		notes = append(notes, note)
	}
	if err := s.notifier.NotifyMany(ctx, notes); err != nil {
		s.logger.Warn("Failed to notify task assignees",
			zap.String("task_id", t.ID.String()),
			zap.String("type", string(kind)),
			zap.Error(err),
		)
	}
}

func (s *TaskService) emailAssigned(t *task.Task, recipients []string) {
	if len(recipients) == 0 || s.mailer == nil || s.runner == nil {
		return
	}
	snapshot := *t
	snapshot.Assignees = slices.Clone(t.Assignees)
	recipients = slices.Clone(recipients)

	s.runner.Go("task-assignment-email", func(ctx context.Context) error {
		users, err := s.users.FindByIDs(ctx, recipients)
		if err != nil {
			return fmt.Errorf("loading recipients: %w", err)
		}
		var errs []error
		for _, u := range users {
			if u.Email == "" {
				continue
			}
			if err := s.mailer.SendTaskAssigned(ctx, u, &snapshot); err != nil {
				errs = append(errs, fmt.Errorf("email to %s: %w", u.ID, err))
			}
		}
		return errors.Join(errs...)
	})
}

var errNotAssigned = shared.Forbidden("Access Denied. You are not assigned to this task.")

func notFoundAs(err error, resource string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NotFound(resource)
	}
	return err
}

func without(ids []string, exclude string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}
