package project

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
)

func TestNewProject(t *testing.T) {
	t.Run("applies defaults and seeds owner as member", func(t *testing.T) {
		p, err := NewProject(NewProjectInput{Title: " Launch ", OwnerID: "owner", OrgID: "org_1"})

		require.NoError(t, err)
		assert.Equal(t, "Launch", p.Title)
		assert.Equal(t, DefaultDescription, p.Description)
		assert.Equal(t, StatusActive, p.Status)
		assert.Equal(t, PriorityMedium, p.Priority)
		assert.Equal(t, []string{"owner"}, p.Members)
		assert.False(t, p.IsPersonal())
	})

	t.Run("treats placeholder org ids as personal", func(t *testing.T) {
		p, err := NewProject(NewProjectInput{Title: "Solo", OwnerID: "owner", OrgID: "undefined"})

		require.NoError(t, err)
		assert.True(t, p.IsPersonal())
	})

	t.Run("rejects missing or long title", func(t *testing.T) {
		_, err := NewProject(NewProjectInput{OwnerID: "owner"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		long := make([]rune, 101)
		for i := range long {
			long[i] = 'a'
		}
		_, err = NewProject(NewProjectInput{Title: string(long), OwnerID: "owner"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects due date before start", func(t *testing.T) {
		start := time.Now()
		due := start.Add(-time.Hour)
		_, err := NewProject(NewProjectInput{Title: "x", OwnerID: "owner", StartDate: &start, DueDate: &due})

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := NewProject(NewProjectInput{Title: "x", OwnerID: "owner", Status: "DONE"})

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestProject_CanView(t *testing.T) {
	personal, _ := NewProject(NewProjectInput{Title: "mine", OwnerID: "owner"})
	orgProject, _ := NewProject(NewProjectInput{Title: "team", OwnerID: "owner", OrgID: "org_1"})
	require.NoError(t, orgProject.AddMember("member"))

	assert.True(t, personal.CanView(identity.Actor{UserID: "owner"}))
	assert.False(t, personal.CanView(identity.Actor{UserID: "admin", PersonalRole: identity.RoleAdmin}))

	assert.True(t, orgProject.CanView(identity.Actor{UserID: "member", OrgID: "org_1"}))
	assert.False(t, orgProject.CanView(identity.Actor{UserID: "stranger", OrgID: "org_1"}))
	assert.False(t, orgProject.CanView(identity.Actor{UserID: "member", OrgID: "org_2"}))
	assert.False(t, orgProject.CanView(identity.Actor{UserID: "member"}))
	assert.True(t, orgProject.CanView(identity.Actor{UserID: "boss", OrgID: "org_1", OrgRole: identity.OrgRoleAdmin}))
	assert.False(t, orgProject.CanView(identity.Actor{UserID: "boss", OrgID: "org_2", OrgRole: identity.OrgRoleAdmin}))
}

func TestProject_Members(t *testing.T) {
	p, _ := NewProject(NewProjectInput{Title: "team", OwnerID: "owner", OrgID: "org_1"})

	require.NoError(t, p.AddMember("u1"))
	assert.ErrorIs(t, p.AddMember("u1"), shared.ErrConflict)
	assert.Equal(t, []string{"owner", "u1"}, p.Members)

	require.NoError(t, p.RemoveMember("u1"))
	assert.False(t, p.HasMember("u1"))
	assert.ErrorIs(t, p.RemoveMember("owner"), shared.ErrInvalidInput)
}

func TestProject_UpdateSettings(t *testing.T) {
	p, _ := NewProject(NewProjectInput{Title: "team", Description: "desc", OwnerID: "owner"})

	require.NoError(t, p.UpdateSettings(SettingsPatch{Status: StatusOnHold}))
	assert.Equal(t, "team", p.Title)
	assert.Equal(t, "desc", p.Description)
	assert.Equal(t, StatusOnHold, p.Status)

	assert.ErrorIs(t, p.UpdateSettings(SettingsPatch{Status: "nope"}), shared.ErrInvalidInput)
}

func TestNewMeeting(t *testing.T) {
	projectID := uuid.New()
	start := time.Now().Add(24 * time.Hour)

	m, err := NewMeeting(projectID, "Standup", "", "https://meet.example.com/abc", start, "u1")
	require.NoError(t, err)
	assert.Equal(t, projectID, m.ProjectID)

	_, err = NewMeeting(projectID, "", "", "", start, "u1")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewMeeting(projectID, "Standup", "", "javascript:alert(1)", start, "u1")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewMeeting(projectID, "Standup", "", "", time.Time{}, "u1")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
