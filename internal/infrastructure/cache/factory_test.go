package cache

import (
	"context"
	"testing"

	"github.com/messmate/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func unreachableRedis() config.RedisConfig {
	return config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}
}

func TestFactory_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled redis uses in-memory stores", func(t *testing.T) {
		backends, err := NewFactory(config.RedisConfig{}, WithLogger(zaptest.NewLogger(t))).Create(ctx)
		require.NoError(t, err)
		defer backends.Close()

		assert.Nil(t, backends.Client)
		assert.IsType(t, &InMemoryLocker{}, backends.Locker)
		assert.IsType(t, &InMemoryIdempotencyStore{}, backends.Idempotency)
	})

	t.Run("unreachable redis falls back", func(t *testing.T) {
		backends, err := NewFactory(unreachableRedis(), WithLogger(zaptest.NewLogger(t))).Create(ctx)
		require.NoError(t, err)
		defer backends.Close()

		assert.Nil(t, backends.Client)
		assert.IsType(t, &InMemoryLocker{}, backends.Locker)
	})

	t.Run("fallback can be refused", func(t *testing.T) {
		_, err := NewFactory(unreachableRedis(), WithInMemoryFallback(false)).Create(ctx)
		assert.ErrorContains(t, err, "redis required but unavailable")

		_, err = NewFactory(config.RedisConfig{}, WithInMemoryFallback(false)).Create(ctx)
		assert.Error(t, err)
	})
}
