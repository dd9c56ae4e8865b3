package task

import (
	"context"

	"github.com/taskflow/backend/internal/application/attachment"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/notification"
	"github.com/taskflow/backend/internal/domain/task"
)

// Notifier stores notifications and pushes them to their recipients
type Notifier interface {
	Notify(ctx context.Context, n *notification.Notification) error
	NotifyMany(ctx context.Context, ns []*notification.Notification) error
}

// Mailer sends transactional email about tasks
type Mailer interface {
	SendTaskAssigned(ctx context.Context, to *identity.User, t *task.Task) error
}

// Runner executes work detached from the request that scheduled it. The
// runner owns the error boundary: fn's error and panics are logged, never
// returned to the caller.
type Runner interface {
	Go(name string, fn func(ctx context.Context) error)
}

// AttachmentCleaner deletes blobs that are no longer referenced
type AttachmentCleaner interface {
	DeleteAll(ctx context.Context, urls []string) attachment.DeleteReport
}
