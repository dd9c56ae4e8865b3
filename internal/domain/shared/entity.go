package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and timestamps shared by every stored entity
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch bumps the update timestamp
func (e *BaseEntity) Touch() {
	e.TouchAt(time.Now())
}

// TouchAt sets the update timestamp to now. Timestamps never move backwards.
func (e *BaseEntity) TouchAt(now time.Time) {
	if now.After(e.UpdatedAt) {
		e.UpdatedAt = now
	}
}

// NewBaseEntity creates a base entity with a fresh id stamped with the current time
func NewBaseEntity() BaseEntity {
	return NewBaseEntityAt(time.Now())
}

// NewBaseEntityAt creates a base entity with a fresh id stamped with now
func NewBaseEntityAt(now time.Time) BaseEntity {
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
