package shared

import (
	"context"
	"time"
)

// IdempotencyStore records delivery ids of inbound callbacks so a redelivered
// event is acknowledged without being applied twice.
type IdempotencyStore interface {
	// MarkProcessed marks an id as processed with a TTL.
	// Returns true if the id was newly marked, false if it was already present.
	MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error)

	// IsProcessed checks if an id has already been processed
	IsProcessed(ctx context.Context, id string) (bool, error)

	// Release forgets an id so the sender may retry after a failed delivery
	Release(ctx context.Context, id string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a processed id is remembered
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
