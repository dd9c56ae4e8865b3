package identity

import "context"

// UserRepository defines the interface for user mirror persistence
type UserRepository interface {
	// Create inserts a new mirror; returns shared.ErrAlreadyExists on a unique-key collision
	Create(ctx context.Context, user *User) error

	// Update saves an existing mirror
	Update(ctx context.Context, user *User) error

	// Delete removes a mirror by provider id; deleting a missing user is not an error
	Delete(ctx context.Context, id string) error

	// FindByID finds a user by provider id
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByIDs returns the users among ids that exist
	FindByIDs(ctx context.Context, ids []string) ([]*User, error)

	// FindAll returns every mirrored user ordered by name
	FindAll(ctx context.Context) ([]*User, error)

	// UpdateRole sets the mirrored global role; a missing user is not an error
	UpdateRole(ctx context.Context, id string, role Role) error
}
