package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist invalidates JWTs before they expire
type TokenBlacklist interface {
	// AddToBlacklist revokes one token by JTI until ttl elapses
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error

	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// InvalidateAccount rejects every token of the account issued up to now.
	// Used on password change and deactivation.
	InvalidateAccount(ctx context.Context, accountID string, ttl time.Duration) error

	IsAccountTokenInvalidated(ctx context.Context, accountID string, tokenIssuedAt time.Time) (bool, error)
}

// RedisTokenBlacklist implements TokenBlacklist using Redis
type RedisTokenBlacklist struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisTokenBlacklist creates a token blacklist on a shared Redis client
func NewRedisTokenBlacklist(client redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{
		client:    client,
		keyPrefix: "messmate:token:",
	}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) accountKey(accountID string) string {
	return b.keyPrefix + "account:" + accountID
}

// AddToBlacklist adds a token's JTI to the blacklist
func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsBlacklisted checks if a token's JTI is in the blacklist
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}

// InvalidateAccount stores the current Unix time as the account's cut-off
func (b *RedisTokenBlacklist) InvalidateAccount(ctx context.Context, accountID string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.accountKey(accountID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to invalidate account tokens: %w", err)
	}
	return nil
}

// IsAccountTokenInvalidated checks if a token was issued at or before the account's cut-off
func (b *RedisTokenBlacklist) IsAccountTokenInvalidated(ctx context.Context, accountID string, tokenIssuedAt time.Time) (bool, error) {
	raw, err := b.client.Get(ctx, b.accountKey(accountID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check account token invalidation: %w", err)
	}

	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse invalidation timestamp: %w", err)
	}
	return tokenIssuedAt.Unix() <= cutoff, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist keeps revocations in process memory.
// Revocations are not shared between instances.
type InMemoryTokenBlacklist struct {
	mu                       sync.RWMutex
	jtiBlacklist             map[string]time.Time // JTI -> expiration time
	accountInvalidationTimes map[string]time.Time
}

// NewInMemoryTokenBlacklist creates a new in-memory token blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		jtiBlacklist:             make(map[string]time.Time),
		accountInvalidationTimes: make(map[string]time.Time),
	}
}

// AddToBlacklist adds a token's JTI to the in-memory blacklist
func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtiBlacklist[jti] = time.Now().Add(ttl)
	return nil
}

// IsBlacklisted checks if a token's JTI is blacklisted (and not expired)
func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiration, exists := b.jtiBlacklist[jti]
	if !exists {
		return false, nil
	}
	if time.Now().After(expiration) {
		delete(b.jtiBlacklist, jti)
		return false, nil
	}
	return true, nil
}

// InvalidateAccount rejects every token of the account issued up to now
func (b *InMemoryTokenBlacklist) InvalidateAccount(_ context.Context, accountID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accountInvalidationTimes[accountID] = time.Now()
	return nil
}

// IsAccountTokenInvalidated checks if a token was issued at or before the account's cut-off
func (b *InMemoryTokenBlacklist) IsAccountTokenInvalidated(_ context.Context, accountID string, tokenIssuedAt time.Time) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cutoff, exists := b.accountInvalidationTimes[accountID]
	if !exists {
		return false, nil
	}
	// sub-second precision so tests can issue and invalidate within one second
	return tokenIssuedAt.UnixNano() <= cutoff.UnixNano(), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
