package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
	"go.uber.org/zap"
)

// ActivityService exposes the per-task activity ledger
type ActivityService struct {
	tasks      task.TaskRepository
	activities task.ActivityRepository
	directory  *Directory
	cleaner    AttachmentCleaner
	bus        shared.Broadcaster
	logger     *zap.Logger
	clock      func() time.Time
}

// NewActivityService creates a new ActivityService
func NewActivityService(
	tasks task.TaskRepository,
	activities task.ActivityRepository,
	users identity.UserRepository,
	cleaner AttachmentCleaner,
	bus shared.Broadcaster,
	logger *zap.Logger,
) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = shared.NopBroadcaster{}
	}
	return &ActivityService{
		tasks:      tasks,
		activities: activities,
		directory:  NewDirectory(users, logger),
		cleaner:    cleaner,
		bus:        bus,
		logger:     logger,
		clock:      time.Now,
	}
}

// List returns a task's activity feed, newest first
func (s *ActivityService) List(ctx context.Context, actor identity.Actor, taskID uuid.UUID) ([]ActivityResponse, error) {
	if _, err := s.accessibleTask(ctx, actor, taskID); err != nil {
		return nil, err
	}
	entries, err := s.activities.FindByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return ToActivityResponses(entries), nil
}

// AddComment appends a comment entry to the task's feed
func (s *ActivityService) AddComment(ctx context.Context, actor identity.Actor, taskID uuid.UUID, req CommentRequest) (*ActivityResponse, error) {
	t, err := s.accessibleTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	entry, err := task.NewActivity(t.ID, s.directory.Snapshot(ctx, actor.UserID), task.ActivityComment, req.Content, nil)
	if err != nil {
		return nil, err
	}
	if err := s.activities.Create(ctx, entry); err != nil {
		return nil, err
	}
	resp := ToActivityResponse(entry)
	s.bus.Broadcast(shared.ProjectRoom(t.ProjectID.String()), shared.EventActivityCreated, resp)
	return &resp, nil
}

// RecordUpload attaches an uploaded file to the task and logs it in the feed
func (s *ActivityService) RecordUpload(ctx context.Context, actor identity.Actor, taskID uuid.UUID, req UploadRequest) (*ActivityResponse, error) {
	t, err := s.accessibleTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	meta := &task.FileMetadata{FileName: req.FileName, FileURL: req.FileURL, FileType: req.FileType}
	entry, err := task.NewActivity(t.ID, s.directory.Snapshot(ctx, actor.UserID), task.ActivityUpload, "Uploaded "+req.FileName, meta)
	if err != nil {
		return nil, err
	}
	if err := t.AddAttachment(task.Attachment{
		Name:       req.FileName,
		URL:        req.FileURL,
		Kind:       req.FileType,
		UploadedAt: s.clock(),
	}); err != nil {
		return nil, err
	}
	if err := s.tasks.Save(ctx, t); err != nil {
		return nil, err
	}
	if err := s.activities.Create(ctx, entry); err != nil {
		return nil, err
	}

	room := shared.ProjectRoom(t.ProjectID.String())
	s.bus.Broadcast(room, shared.EventTaskUpdated, ToTaskResponse(t))
	resp := ToActivityResponse(entry)
	s.bus.Broadcast(room, shared.EventActivityCreated, resp)
	return &resp, nil
}

// Delete removes an activity entry. Only its author or an admin may do so.
// Deleting an upload also removes the file and the matching task attachment.
func (s *ActivityService) Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	entry, err := s.activities.FindByID(ctx, id)
	if err != nil {
		return notFoundAs(err, "Activity")
	}
	if entry.Actor.ID != actor.UserID && !actor.IsAdmin() {
		return shared.Forbidden("Only the author or an admin can delete this entry")
	}

	if url := entry.FileURL(); url != "" {
		if err := s.detachFile(ctx, entry.TaskID, url); err != nil {
			return err
		}
		s.cleaner.DeleteAll(ctx, []string{url})
	}
	return s.activities.Delete(ctx, entry.ID)
}

func (s *ActivityService) detachFile(ctx context.Context, taskID uuid.UUID, url string) error {
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if !t.RemoveAttachmentURL(url) {
		return nil
	}
	if err := s.tasks.Save(ctx, t); err != nil {
		return err
	}
	s.bus.Broadcast(shared.ProjectRoom(t.ProjectID.String()), shared.EventTaskUpdated, ToTaskResponse(t))
	return nil
}

func (s *ActivityService) accessibleTask(ctx context.Context, actor identity.Actor, taskID uuid.UUID) (*task.Task, error) {
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, notFoundAs(err, "Task")
	}
	if !actor.IsAdmin() && !t.IsAssignee(actor.UserID) {
		return nil, errNotAssigned
	}
	return t, nil
}
