package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/messmate/backend/internal/domain/shared"
	"github.com/messmate/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backends are the coordination stores the application runs on. Client is
// nil when the in-memory fallback is in use.
type Backends struct {
	Client      *redis.Client
	Locker      shared.Locker
	Idempotency shared.IdempotencyStore
}

// Close releases the stores and the Redis client
func (b *Backends) Close() error {
	var errs []error
	if b.Idempotency != nil {
		errs = append(errs, b.Idempotency.Close())
	}
	if closer, ok := b.Locker.(interface{ Close() error }); ok {
		errs = append(errs, closer.Close())
	}
	if b.Client != nil {
		errs = append(errs, b.Client.Close())
	}
	return errors.Join(errs...)
}

// Factory creates coordination stores based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when
// Redis is disabled or unreachable. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Connect opens a Redis client and verifies it with PING
func (f *Factory) Connect(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         f.redisConfig.Addr(),
		Password:     f.redisConfig.Password,
		DB:           f.redisConfig.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", f.redisConfig.Addr(), err)
	}
	return client, nil
}

// InMemory returns process-local stores
func (f *Factory) InMemory() *Backends {
	return &Backends{
		Locker:      NewInMemoryLocker(),
		Idempotency: NewInMemoryIdempotencyStore(),
	}
}

// Create returns Redis-backed stores when Redis is enabled and reachable, and
// in-memory stores otherwise if fallback is allowed
func (f *Factory) Create(ctx context.Context) (*Backends, error) {
	if !f.redisConfig.Enabled {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis is disabled and in-memory fallback is not allowed")
		}
		f.logger.Info("Redis disabled, using in-memory locks and idempotency marks")
		return f.InMemory(), nil
	}

	client, err := f.Connect(ctx)
	if err == nil {
		f.logger.Info("Using Redis for locks and idempotency marks", zap.String("addr", f.redisConfig.Addr()))
		return &Backends{
			Client:      client,
			Locker:      NewRedisLocker(client, ""),
			Idempotency: NewRedisIdempotencyStore(client, ""),
		}, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory locks. "+
		"Rollover locks are then not shared between instances.",
		zap.Error(err),
	)
	return f.InMemory(), nil
}
