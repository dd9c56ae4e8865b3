package notification

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/domain/shared"
)

func TestNew(t *testing.T) {
	n, err := New("u1", "", "hello", "", nil)

	require.NoError(t, err)
	assert.Equal(t, KindInfo, n.Kind)
	assert.False(t, n.Read)
	assert.True(t, n.IsAddressedTo("u1"))
	assert.False(t, n.IsAddressedTo("u2"))

	_, err = New("", KindInfo, "hello", "", nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = New("u1", KindInfo, " ", "", nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestNotification_InviteTarget(t *testing.T) {
	taskID := uuid.New()
	invite, _ := New("u2", KindTaskInvite, TaskInviteMessage("Fix"), "", &Metadata{TaskID: taskID.String(), SenderID: "u1"})

	gotTask, sender, err := invite.InviteTarget()
	require.NoError(t, err)
	assert.Equal(t, taskID, gotTask)
	assert.Equal(t, "u1", sender)

	info, _ := New("u2", KindInfo, "x", "", nil)
	_, _, err = info.InviteTarget()
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	broken, _ := New("u2", KindTaskInvite, "x", "", &Metadata{TaskID: "nope"})
	_, _, err = broken.InviteTarget()
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestMessages(t *testing.T) {
	assert.Equal(t, `You have been assigned to task: "Fix login"`, TaskAssignedMessage("Fix login"))
	assert.Equal(t, `Help Request: Please help with task "Fix login"`, TaskInviteMessage("Fix login"))
	assert.Equal(t, `You have been added to the project: "Apollo"`, ProjectAddedMessage("Apollo"))
	assert.Equal(t, `Task "Fix" needs more work`, TaskRejectedMessage("Fix", " "))
	assert.Equal(t, `Task "Fix" needs more work: add tests`, TaskRejectedMessage("Fix", "add tests"))
}
