package testutil

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/taskflow/backend/internal/application/attachment"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/notification"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
)

// BroadcastRecord is one event captured by RecordingBroadcaster
type BroadcastRecord struct {
	Room    shared.Room
	Event   string
	Payload any
}

// RecordingBroadcaster captures every broadcast for later assertions
type RecordingBroadcaster struct {
	mu      sync.Mutex
	records []BroadcastRecord
}

// NewRecordingBroadcaster creates an empty recorder
func NewRecordingBroadcaster() *RecordingBroadcaster {
	return &RecordingBroadcaster{}
}

// Broadcast implements shared.Broadcaster
func (b *RecordingBroadcaster) Broadcast(room shared.Room, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, BroadcastRecord{Room: room, Event: event, Payload: payload})
}

// Records returns a copy of the captured events in order
func (b *RecordingBroadcaster) Records() []BroadcastRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BroadcastRecord, len(b.records))
	copy(out, b.records)
	return out
}

// Find returns the captured events with the given name
func (b *RecordingBroadcaster) Find(event string) []BroadcastRecord {
	var out []BroadcastRecord
	for _, r := range b.Records() {
		if r.Event == event {
			out = append(out, r)
		}
	}
	return out
}

// Rooms returns the rooms that received the given event
func (b *RecordingBroadcaster) Rooms(event string) []shared.Room {
	var out []shared.Room
	for _, r := range b.Find(event) {
		out = append(out, r.Room)
	}
	return out
}

var _ shared.Broadcaster = (*RecordingBroadcaster)(nil)

// SyncRunner runs background work inline and keeps the returned errors
type SyncRunner struct {
	mu     sync.Mutex
	Names  []string
	Errors []error
}

// Go runs fn immediately
func (r *SyncRunner) Go(name string, fn func(ctx context.Context) error) {
	err := fn(context.Background())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Names = append(r.Names, name)
	if err != nil {
		r.Errors = append(r.Errors, err)
	}
}

// MockNotifier is a mock notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n *notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotifier) NotifyMany(ctx context.Context, ns []*notification.Notification) error {
	args := m.Called(ctx, ns)
	return args.Error(0)
}

// MockCleaner is a mock attachment cleaner that reports every URL as deleted
// unless the expectation returns a report.
type MockCleaner struct {
	mock.Mock
}

func (m *MockCleaner) DeleteAll(ctx context.Context, urls []string) attachment.DeleteReport {
	args := m.Called(ctx, urls)
	if r, ok := args.Get(0).(attachment.DeleteReport); ok {
		return r
	}
	return attachment.DeleteReport{Requested: len(urls), Deleted: len(urls)}
}

// MockMailer is a mock task mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendTaskAssigned(ctx context.Context, to *identity.User, t *task.Task) error {
	args := m.Called(ctx, to, t)
	return args.Error(0)
}

// MockIdentityProvider is a mock identity-provider client
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) UpdateOrgMembershipRole(ctx context.Context, orgID, userID string, role identity.Role) error {
	args := m.Called(ctx, orgID, userID, role)
	return args.Error(0)
}

func (m *MockIdentityProvider) UpdateUserMetadataRole(ctx context.Context, userID string, role identity.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *MockIdentityProvider) DeleteOrganization(ctx context.Context, orgID string) error {
	args := m.Called(ctx, orgID)
	return args.Error(0)
}

func (m *MockIdentityProvider) IsOrgMember(ctx context.Context, orgID, userID string) (bool, error) {
	args := m.Called(ctx, orgID, userID)
	return args.Bool(0), args.Error(1)
}

// MockBlobStore is a mock blob store
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) DeleteByURL(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

var _ attachment.BlobStore = (*MockBlobStore)(nil)
