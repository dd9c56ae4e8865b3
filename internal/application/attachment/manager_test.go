package attachment

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/domain/task"
)

type MockBlobStore struct {
	mock.Mock
}

var _ BlobStore = (*MockBlobStore)(nil)

func (m *MockBlobStore) DeleteByURL(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func TestManager_DeleteAll(t *testing.T) {
	t.Run("skips empty input without touching the store", func(t *testing.T) {
		store := new(MockBlobStore)
		m := NewManager(store, nil)

		report := m.DeleteAll(context.Background(), nil)

		assert.Equal(t, 0, report.Requested)
		store.AssertNotCalled(t, "DeleteByURL", mock.Anything, mock.Anything)
	})

	t.Run("deletes distinct urls once each", func(t *testing.T) {
		store := new(MockBlobStore)
		store.On("DeleteByURL", mock.Anything, "u1").Return(nil).Once()
		store.On("DeleteByURL", mock.Anything, "u2").Return(nil).Once()
		m := NewManager(store, nil)

		report := m.DeleteAll(context.Background(), []string{"u1", "", "u2", "u1"})

		assert.Equal(t, 2, report.Requested)
		assert.Equal(t, 2, report.Deleted)
		assert.Empty(t, report.Failed)
		store.AssertExpectations(t)
	})

	t.Run("individual failures do not stop the batch", func(t *testing.T) {
		store := new(MockBlobStore)
		boom := errors.New("storage unavailable")
		store.On("DeleteByURL", mock.Anything, "u1").Return(boom)
		store.On("DeleteByURL", mock.Anything, "u2").Return(nil)
		store.On("DeleteByURL", mock.Anything, "u3").Return(nil)
		m := NewManager(store, nil)

		report := m.DeleteAll(context.Background(), []string{"u1", "u2", "u3"})

		assert.Equal(t, 3, report.Requested)
		assert.Equal(t, 2, report.Deleted)
		require.Len(t, report.Failed, 1)
		assert.Equal(t, "u1", report.Failed[0].URL)
		assert.ErrorIs(t, report.Failed[0].Err, boom)
	})
}

// countingStore tracks how many deletes run at once
type countingStore struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	failEven bool
}

func (s *countingStore) DeleteByURL(_ context.Context, url string) error {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	var i int
	fmt.Sscanf(url, "blob-%d", &i)
	if s.failEven && i%2 == 0 {
		return errors.New("gone")
	}
	return nil
}

func TestManager_DeleteAll_BoundedAndExhaustive(t *testing.T) {
	store := &countingStore{failEven: true}
	m := NewManager(store, nil)
	m.concurrency = 3

	urls := make([]string, 20)
	for i := range urls {
		urls[i] = fmt.Sprintf("blob-%d", i)
	}
	report := m.DeleteAll(context.Background(), urls)

	assert.Equal(t, 20, report.Requested)
	assert.Equal(t, 10, report.Deleted)
	assert.Len(t, report.Failed, 10)
	assert.LessOrEqual(t, store.peak.Load(), int32(3))
}

func TestCollectURLs(t *testing.T) {
	tk := &task.Task{Attachments: []task.Attachment{{URL: "a"}, {URL: ""}, {URL: "b"}}}
	actor := task.ActorSnapshot{ID: "u1"}
	upload, err := task.NewActivity(uuid.New(), actor, task.ActivityUpload, "uploaded", &task.FileMetadata{FileURL: "c"})
	require.NoError(t, err)
	comment, err := task.NewActivity(uuid.New(), actor, task.ActivityComment, "hi", nil)
	require.NoError(t, err)

	urls := CollectURLs([]*task.Task{tk}, []*task.Activity{upload, comment})

	assert.Equal(t, []string{"a", "b", "c"}, urls)
}
