package notification

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	taskapp "github.com/taskflow/backend/internal/application/task"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/notification"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
	"go.uber.org/zap"
)

// InviteService implements the task-invite handshake: an assignee asks another
// user for help and the invitee accepts or declines exactly once.
type InviteService struct {
	tasks         task.TaskRepository
	activities    task.ActivityRepository
	notifications notification.Repository
	notifier      taskapp.Notifier
	directory     *taskapp.Directory
	bus           shared.Broadcaster
	logger        *zap.Logger
}

// NewInviteService creates a new InviteService
func NewInviteService(
	tasks task.TaskRepository,
	activities task.ActivityRepository,
	notifications notification.Repository,
	notifier taskapp.Notifier,
	users identity.UserRepository,
	bus shared.Broadcaster,
	logger *zap.Logger,
) *InviteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = shared.NopBroadcaster{}
	}
	return &InviteService{
		tasks:         tasks,
		activities:    activities,
		notifications: notifications,
		notifier:      notifier,
		directory:     taskapp.NewDirectory(users, logger),
		bus:           bus,
		logger:        logger,
	}
}

// Invite sends a TASK_INVITE to the target user. Only assignees and admins
// may invite, and the target must not already be assigned.
func (s *InviteService) Invite(ctx context.Context, actor identity.Actor, req InviteRequest) (*NotificationResponse, error) {
	t, err := s.tasks.FindByID(ctx, req.TaskID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Task")
		}
		return nil, err
	}
	if !t.IsAssignee(actor.UserID) && !actor.IsAdmin() {
		return nil, shared.Forbidden("Only assignees can invite others to this task")
	}
	target := strings.TrimSpace(req.TargetUserID)
	if t.IsAssignee(target) {
		return nil, shared.Conflict("User is already assigned to this task")
	}

	note, err := notification.New(target, notification.KindTaskInvite,
		notification.TaskInviteMessage(t.Title), t.ProjectID.String(),
		&notification.Metadata{TaskID: t.ID.String(), SenderID: actor.UserID})
	if err != nil {
		return nil, err
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		return nil, err
	}
	resp := ToNotificationResponse(note)
	return &resp, nil
}

// Respond accepts or declines an invitation. The invitation is claimed by
// deleting it before any effect is applied, so a concurrent or repeated
// response finds nothing and gets NotFound.
func (s *InviteService) Respond(ctx context.Context, actor identity.Actor, id uuid.UUID, action string) error {
	act := InviteAction(strings.ToUpper(strings.TrimSpace(action)))
	if act != InviteAccept && act != InviteDecline {
		return shared.Invalid("Action must be ACCEPT or DECLINE")
	}

	note, err := s.notifications.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("Invitation")
		}
		return err
	}
	if !note.IsAddressedTo(actor.UserID) {
		return shared.Forbidden("Not authorized to respond to this invitation")
	}
	taskID, senderID, err := note.InviteTarget()
	if err != nil {
		return err
	}

	if err := s.notifications.Delete(ctx, note.ID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("Invitation")
		}
		return err
	}

	if act == InviteDecline {
		s.notifySender(ctx, senderID, notification.InviteDeclinedMessage, note.ProjectID, taskID, actor.UserID)
		return nil
	}

	if err := s.tasks.AddAssignee(ctx, taskID, actor.UserID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("Task")
		}
		return err
	}
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("Task")
		}
		return err
	}

	s.recordJoin(ctx, actor, t)
	s.bus.Broadcast(shared.ProjectRoom(t.ProjectID.String()), shared.EventTaskUpdated, taskapp.ToTaskResponse(t))
	s.notifySender(ctx, senderID, notification.InviteAcceptedMessage, note.ProjectID, taskID, actor.UserID)

	s.logger.Info("Task invitation accepted",
		zap.String("task_id", taskID.String()),
		zap.String("user_id", actor.UserID),
	)
	return nil
}

func (s *InviteService) recordJoin(ctx context.Context, actor identity.Actor, t *task.Task) {
	snap := s.directory.Snapshot(ctx, actor.UserID)
	entry, err := task.NewActivity(t.ID, snap, task.ActivityAssignment, snap.Name+" joined the task", nil)
	if err != nil {
		return
	}
	if err := s.activities.Create(ctx, entry); err != nil {
		s.logger.Warn("Failed to record assignment activity",
			zap.String("task_id", t.ID.String()),
			zap.Error(err),
		)
		return
	}
	s.bus.Broadcast(shared.ProjectRoom(t.ProjectID.String()), shared.EventActivityCreated, taskapp.ToActivityResponse(entry))
}

func (s *InviteService) notifySender(ctx context.Context, senderID, message, projectID string, taskID uuid.UUID, responderID string) {
	if senderID == "" {
		return
	}
	note, err := notification.New(senderID, notification.KindInfo, message, projectID,
		&notification.Metadata{TaskID: taskID.String(), SenderID: responderID})
	if err != nil {
		return
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Warn("Failed to notify invitation sender",
			zap.String("sender_id", senderID),
			zap.Error(err),
		)
	}
}
