package notification

import (
	"context"

	"github.com/taskflow/backend/internal/domain/notification"
	"github.com/taskflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Notifier persists notifications and pushes them to the recipient's user room.
// The push happens only after the row is stored, so a client reacting to
// notification:new can always load it.
type Notifier struct {
	repo   notification.Repository
	bus    shared.Broadcaster
	logger *zap.Logger
}

// NewNotifier creates a new Notifier
func NewNotifier(repo notification.Repository, bus shared.Broadcaster, logger *zap.Logger) *Notifier {
	if bus == nil {
		bus = shared.NopBroadcaster{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{repo: repo, bus: bus, logger: logger}
}

// Notify stores a single notification and pushes it
func (n *Notifier) Notify(ctx context.Context, note *notification.Notification) error {
	if err := n.repo.Create(ctx, note); err != nil {
		return err
	}
	n.push(note)
	return nil
}

// NotifyMany stores a batch of notifications in one write and pushes each one
func (n *Notifier) NotifyMany(ctx context.Context, notes []*notification.Notification) error {
	if len(notes) == 0 {
		return nil
	}
	if err := n.repo.CreateMany(ctx, notes); err != nil {
		return err
	}
	for _, note := range notes {
		n.push(note)
	}
	return nil
}

func (n *Notifier) push(note *notification.Notification) {
	n.bus.Broadcast(shared.UserRoom(note.UserID), shared.EventNotificationNew, ToNotificationResponse(note))
	n.logger.Debug("Notification pushed",
		zap.String("notification_id", note.ID.String()),
		zap.String("user_id", note.UserID),
		zap.String("type", string(note.Kind)),
	)
}
