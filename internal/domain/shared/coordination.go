package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which keys were already handled
type IdempotencyStore interface {
	// MarkProcessed returns true if key was newly marked, false if it was
	// marked before and the mark has not expired
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	IsProcessed(ctx context.Context, key string) (bool, error)

	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL after which the same key may be handled again
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     72 * time.Hour,
		Enabled: true,
	}
}

// Locker grants short-lived exclusive leases on string keys across instances
type Locker interface {
	// TryLock never blocks. acquired is false when another holder owns key.
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)

	// Unlock releases key only if it is still held with token
	Unlock(ctx context.Context, key, token string) error
}

// ErrLockNotHeld is returned by Unlock when the lease expired or belongs to someone else
var ErrLockNotHeld = NewDomainError("LOCK_NOT_HELD", "Lock is not held by this owner")
