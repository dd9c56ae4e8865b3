package identity

import (
	"net/mail"
	"strings"
	"time"

	"github.com/taskflow/backend/internal/domain/shared"
)

// User is the local mirror of an identity-provider account. The provider owns
// the record; the mirror is kept in step by webhook callbacks and role actions.
type User struct {
	ID        string // provider user id
	Email     string
	Username  string
	FirstName string
	LastName  string
	Photo     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserProfile carries the optional profile fields of a provider event.
// Nil fields are left untouched when applied to an existing mirror.
type UserProfile struct {
	Email     *string
	Username  *string
	FirstName *string
	LastName  *string
	Photo     *string
}

// NewUser creates a user mirror with the default member role
func NewUser(id, email string) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, shared.Invalid("User id cannot be empty")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &User{
		ID:        id,
		Email:     email,
		Role:      RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ApplyProfile patches the fields present in p
func (u *User) ApplyProfile(p UserProfile) error {
	if p.Email != nil {
		email, err := normalizeEmail(*p.Email)
		if err != nil {
			return err
		}
		u.Email = email
	}
	if p.Username != nil {
		u.Username = strings.TrimSpace(*p.Username)
	}
	if p.FirstName != nil {
		u.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		u.LastName = strings.TrimSpace(*p.LastName)
	}
	if p.Photo != nil {
		u.Photo = strings.TrimSpace(*p.Photo)
	}
	u.UpdatedAt = time.Now()
	return nil
}

// SetRole changes the mirrored global role
func (u *User) SetRole(role Role) error {
	if !role.IsGlobal() {
		return shared.Invalid("Role must be one of admin, member, viewer")
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	return nil
}

// DisplayName returns the best human-readable name for snapshots
func (u *User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	switch {
	case full != "":
		return full
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}

// GreetingName returns the first name, or "Member" when none is known
func (u *User) GreetingName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return "Member"
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", shared.Invalid("Email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", shared.Invalid("Invalid email format")
	}
	return email, nil
}
