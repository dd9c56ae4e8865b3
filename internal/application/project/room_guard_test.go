package project

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/testutil"
)

func TestRoomGuard_CanJoin(t *testing.T) {
	ctx := context.Background()
	repo := new(testutil.MockProjectRepository)
	guard := NewRoomGuard(repo, nil)

	p := newOrgProject(t, "admin-1", "user-m")
	repo.On("FindByID", ctx, p.ID).Return(p, nil)
	missing := uuid.New()
	repo.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)

	outsider := identity.Actor{UserID: "stranger", OrgID: "org-2", OrgRole: identity.OrgRoleMember}

	tests := []struct {
		name  string
		actor identity.Actor
		room  shared.Room
		want  bool
	}{
		{"own user room", orgMember, shared.UserRoom("user-m"), true},
		{"other user room", orgMember, shared.UserRoom("admin-1"), false},
		{"own org room", orgMember, shared.OrgRoom("org-1"), true},
		{"foreign org room", outsider, shared.OrgRoom("org-1"), false},
		{"member joins project", orgMember, shared.ProjectRoom(p.ID.String()), true},
		{"outsider denied project", outsider, shared.ProjectRoom(p.ID.String()), false},
		{"member from another org context", identity.Actor{UserID: "user-m", OrgID: "org-2", OrgRole: identity.OrgRoleMember}, shared.ProjectRoom(p.ID.String()), false},
		{"malformed project id", orgMember, shared.ProjectRoom("nope"), false},
		{"unknown project", orgMember, shared.ProjectRoom(missing.String()), false},
		{"unknown room class", orgMember, shared.Room("lobby"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, guard.CanJoin(ctx, tt.actor, tt.room))
		})
	}
}
