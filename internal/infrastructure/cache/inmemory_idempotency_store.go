package cache

import (
	"context"
	"time"

	"github.com/messmate/backend/internal/domain/shared"
)

// InMemoryIdempotencyStore implements IdempotencyStore for a single instance
type InMemoryIdempotencyStore struct {
	marks *expiringMap
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{marks: newExpiringMap(5 * time.Minute)}
}

// MarkProcessed marks key as processed. Returns false if it already was.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	return s.marks.setNX(key, "1", ttl), nil
}

// IsProcessed checks if key has a live mark
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	_, ok := s.marks.get(key)
	return ok, nil
}

// Close stops the sweeper. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.marks.close()
	return nil
}

// Size returns the number of stored marks, expired ones included until swept
func (s *InMemoryIdempotencyStore) Size() int {
	return s.marks.size()
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
