package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultLockPrefix = "messmate:lock:"

// releaseScript deletes the key only while it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements shared.Locker with SET NX PX and a token-checked release
type RedisLocker struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisLocker creates a locker on an existing Redis client
func NewRedisLocker(client redis.UniversalClient, keyPrefix string) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = defaultLockPrefix
	}
	return &RedisLocker{client: client, keyPrefix: keyPrefix}
}

// TryLock acquires key for ttl without waiting
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.keyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Unlock releases key if token still owns it
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.keyPrefix + key}, token).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	if n == 0 {
		return shared.ErrLockNotHeld
	}
	return nil
}

var _ shared.Locker = (*RedisLocker)(nil)

// InMemoryLocker implements shared.Locker within one process
type InMemoryLocker struct {
	leases *expiringMap
}

// NewInMemoryLocker creates a new in-memory locker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{leases: newExpiringMap(time.Minute)}
}

// TryLock acquires key for ttl without waiting
func (l *InMemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	if !l.leases.setNX(key, token, ttl) {
		return "", false, nil
	}
	return token, true, nil
}

// Unlock releases key if token still owns it
func (l *InMemoryLocker) Unlock(_ context.Context, key, token string) error {
	if !l.leases.deleteIf(key, token) {
		return shared.ErrLockNotHeld
	}
	return nil
}

// Close stops the sweeper
func (l *InMemoryLocker) Close() error {
	l.leases.close()
	return nil
}

var _ shared.Locker = (*InMemoryLocker)(nil)
