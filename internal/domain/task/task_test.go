package task

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/domain/shared"
)

func newTestTask(t *testing.T) *Task {
	t.Helper()
	tk, err := NewTask(NewTaskInput{
		Title:     "Write docs",
		ProjectID: uuid.New(),
		Assignees: []string{"a", "b", "a", " "},
		Attachments: []Attachment{
			{Name: "spec.pdf", URL: "https://cdn/task-assets/spec.pdf"},
		},
	}, time.Now())
	require.NoError(t, err)
	return tk
}

func TestNewTask(t *testing.T) {
	t.Run("applies defaults and dedupes assignees", func(t *testing.T) {
		tk := newTestTask(t)

		assert.Equal(t, StatusToDo, tk.Status)
		assert.Equal(t, PriorityMedium, tk.Priority)
		assert.Equal(t, TypeTask, tk.Type)
		assert.Equal(t, []string{"a", "b"}, tk.Assignees)
		assert.False(t, tk.IsApproved)
		assert.Nil(t, tk.ApprovedAt)
	})

	t.Run("rejects due date in the past", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
		yesterday := now.AddDate(0, 0, -1)
		earlierToday := now.Add(-2 * time.Hour)

		_, err := NewTask(NewTaskInput{Title: "x", ProjectID: uuid.New(), DueDate: &yesterday}, now)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = NewTask(NewTaskInput{Title: "x", ProjectID: uuid.New(), DueDate: &earlierToday}, now)
		assert.NoError(t, err)
	})

	t.Run("rejects unknown enums", func(t *testing.T) {
		_, err := NewTask(NewTaskInput{Title: "x", ProjectID: uuid.New(), Priority: "URGENT"}, time.Now())
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = NewTask(NewTaskInput{Title: "x", ProjectID: uuid.New(), Type: "EPIC"}, time.Now())
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("requires title and project", func(t *testing.T) {
		_, err := NewTask(NewTaskInput{ProjectID: uuid.New()}, time.Now())
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = NewTask(NewTaskInput{Title: "x"}, time.Now())
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestTask_ApprovalInvariant(t *testing.T) {
	reviewer := Comment{AuthorID: "admin", AuthorName: "Ada"}
	now := time.Now()

	t.Run("approve requires Done", func(t *testing.T) {
		tk := newTestTask(t)

		err := tk.Approve(reviewer, now)

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.False(t, tk.IsApproved)
		assert.Nil(t, tk.ApprovedAt)
	})

	t.Run("approve sets flag timestamp and comment", func(t *testing.T) {
		tk := newTestTask(t)
		tk.Status = StatusDone

		require.NoError(t, tk.Approve(reviewer, now))

		assert.True(t, tk.IsApproved)
		require.NotNil(t, tk.ApprovedAt)
		assert.Equal(t, now, *tk.ApprovedAt)
		require.Len(t, tk.Comments, 1)
		assert.Equal(t, CommentKindApproval, tk.Comments[0].Kind)
		assert.Equal(t, "Approved", tk.Comments[0].Text)

		assert.ErrorIs(t, tk.Approve(reviewer, now), shared.ErrConflict)
	})

	t.Run("disapprove always lands in progress and unapproved", func(t *testing.T) {
		tk := newTestTask(t)
		tk.Status = StatusDone
		require.NoError(t, tk.Approve(reviewer, now))

		tk.Disapprove(Comment{AuthorID: "admin", Text: "missing tests"}, now)

		assert.Equal(t, StatusInProgress, tk.Status)
		assert.False(t, tk.IsApproved)
		assert.Nil(t, tk.ApprovedAt)
		require.Len(t, tk.Comments, 2)
		assert.Equal(t, CommentKindRejection, tk.Comments[1].Kind)
		assert.Equal(t, "missing tests", tk.Comments[1].Text)
	})

	t.Run("moving an approved task out of Done clears approval", func(t *testing.T) {
		tk := newTestTask(t)
		tk.Status = StatusDone
		require.NoError(t, tk.Approve(reviewer, now))

		todo := StatusToDo
		_, err := tk.Apply(Patch{Status: &todo})

		require.NoError(t, err)
		assert.False(t, tk.IsApproved)
		assert.Nil(t, tk.ApprovedAt)
	})
}

func TestTask_IsExpired(t *testing.T) {
	now := time.Now()
	old := now.Add(-20 * 24 * time.Hour)
	recent := now.Add(-5 * 24 * time.Hour)
	boundary := now.Add(-ApprovalRetention)

	assert.True(t, (&Task{IsApproved: true, ApprovedAt: &old}).IsExpired(now))
	assert.True(t, (&Task{IsApproved: true, ApprovedAt: &boundary}).IsExpired(now))
	assert.False(t, (&Task{IsApproved: true, ApprovedAt: &recent}).IsExpired(now))
	assert.False(t, (&Task{IsApproved: false}).IsExpired(now))
}

func TestTask_Assignees(t *testing.T) {
	tk := newTestTask(t)

	assert.True(t, tk.AddAssignee("c"))
	assert.False(t, tk.AddAssignee("c"))
	assert.False(t, tk.AddAssignee(""))
	assert.Equal(t, []string{"a", "b", "c"}, tk.Assignees)
}

func TestTask_Attachments(t *testing.T) {
	tk := newTestTask(t)

	require.NoError(t, tk.AddAttachment(Attachment{Name: "a.png", URL: "https://cdn/task-assets/a.png"}))
	assert.ErrorIs(t, tk.AddAttachment(Attachment{Name: "nourl"}), shared.ErrInvalidInput)
	assert.Len(t, tk.AttachmentURLs(), 2)

	assert.True(t, tk.RemoveAttachmentURL("https://cdn/task-assets/a.png"))
	assert.False(t, tk.RemoveAttachmentURL("https://cdn/task-assets/a.png"))
	assert.Equal(t, []string{"https://cdn/task-assets/spec.pdf"}, tk.AttachmentURLs())
}
