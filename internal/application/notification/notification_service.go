package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/notification"
	"github.com/taskflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// NotificationService handles a user's notification inbox
type NotificationService struct {
	repo   notification.Repository
	logger *zap.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo notification.Repository, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, logger: logger}
}

// List returns the user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, userID string) ([]NotificationResponse, error) {
	notes, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToNotificationResponses(notes), nil
}

// Dismiss deletes a notification addressed to the user
func (s *NotificationService) Dismiss(ctx context.Context, userID string, id uuid.UUID) error {
	note, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("Notification")
		}
		return err
	}
	if !note.IsAddressedTo(userID) {
		return shared.Forbidden("Not authorized to dismiss this notification")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("Notification")
		}
		return err
	}
	return nil
}

// MarkAllRead flags every unread notification of the user as read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (*MarkReadResult, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MarkReadResult{Updated: n}, nil
}
