package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/domain/notification"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/testutil"
)

func TestNotifier_Notify_PersistsBeforePush(t *testing.T) {
	repo := new(testutil.MockNotificationRepository)
	bus := testutil.NewRecordingBroadcaster()
	notifier := NewNotifier(repo, bus, nil)
	ctx := context.Background()

	note, err := notification.New("user-a", notification.KindInfo, "hello", "", nil)
	require.NoError(t, err)

	repo.On("Create", ctx, note).Run(func(mock.Arguments) {
		assert.Empty(t, bus.Records(), "pushed before the row was stored")
	}).Return(nil)

	require.NoError(t, notifier.Notify(ctx, note))

	records := bus.Find(shared.EventNotificationNew)
	require.Len(t, records, 1)
	assert.Equal(t, shared.UserRoom("user-a"), records[0].Room)
	payload, ok := records[0].Payload.(NotificationResponse)
	require.True(t, ok)
	assert.Equal(t, note.ID, payload.ID)
	assert.False(t, payload.Read)
	repo.AssertExpectations(t)
}

func TestNotifier_Notify_StoreFailureSkipsPush(t *testing.T) {
	repo := new(testutil.MockNotificationRepository)
	bus := testutil.NewRecordingBroadcaster()
	notifier := NewNotifier(repo, bus, nil)
	ctx := context.Background()

	note, err := notification.New("user-a", notification.KindInfo, "hello", "", nil)
	require.NoError(t, err)
	repo.On("Create", ctx, note).Return(errors.New("db down"))

	assert.Error(t, notifier.Notify(ctx, note))
	assert.Empty(t, bus.Records())
}

func TestNotifier_NotifyMany_PushesEachRecipient(t *testing.T) {
	repo := new(testutil.MockNotificationRepository)
	bus := testutil.NewRecordingBroadcaster()
	notifier := NewNotifier(repo, bus, nil)
	ctx := context.Background()

	var notes []*notification.Notification
	for _, id := range []string{"user-a", "user-b"} {
		n, err := notification.New(id, notification.KindTaskAssign, "assigned", "", nil)
		require.NoError(t, err)
		notes = append(notes, n)
	}
	repo.On("CreateMany", ctx, notes).Return(nil).Once()

	require.NoError(t, notifier.NotifyMany(ctx, notes))
	require.NoError(t, notifier.NotifyMany(ctx, nil))

	assert.Equal(t,
		[]shared.Room{shared.UserRoom("user-a"), shared.UserRoom("user-b")},
		bus.Rooms(shared.EventNotificationNew))
	repo.AssertExpectations(t)
}

func TestNotificationService_Dismiss(t *testing.T) {
	note, err := notification.New("user-a", notification.KindInfo, "hello", "", nil)
	require.NoError(t, err)

	t.Run("recipient dismisses", func(t *testing.T) {
		repo := new(testutil.MockNotificationRepository)
		svc := NewNotificationService(repo, nil)
		ctx := context.Background()
		repo.On("FindByID", ctx, note.ID).Return(note, nil)
		repo.On("Delete", ctx, note.ID).Return(nil)

		require.NoError(t, svc.Dismiss(ctx, "user-a", note.ID))
		repo.AssertExpectations(t)
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		repo := new(testutil.MockNotificationRepository)
		svc := NewNotificationService(repo, nil)
		ctx := context.Background()
		repo.On("FindByID", ctx, note.ID).Return(note, nil)

		err := svc.Dismiss(ctx, "user-b", note.ID)

		assert.ErrorIs(t, err, shared.ErrForbidden)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("missing notification", func(t *testing.T) {
		repo := new(testutil.MockNotificationRepository)
		svc := NewNotificationService(repo, nil)
		ctx := context.Background()
		id := uuid.New()
		repo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		err := svc.Dismiss(ctx, "user-a", id)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Equal(t, "Notification not found", err.Error())
	})
}

func TestNotificationService_MarkAllRead(t *testing.T) {
	repo := new(testutil.MockNotificationRepository)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()
	repo.On("MarkAllRead", ctx, "user-a").Return(int64(4), nil)

	res, err := svc.MarkAllRead(ctx, "user-a")

	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Updated)
}

func TestNotificationService_List(t *testing.T) {
	repo := new(testutil.MockNotificationRepository)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()
	repo.On("FindByUser", ctx, "user-a").Return([]*notification.Notification{}, nil)

	list, err := svc.List(ctx, "user-a")

	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
