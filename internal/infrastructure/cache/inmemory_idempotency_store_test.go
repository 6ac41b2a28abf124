package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		ttl       time.Duration
		wait      time.Duration
		wantAgain bool
		wantSeen  bool
	}{
		{name: "duplicate delivery is refused", ttl: time.Hour, wantAgain: false, wantSeen: true},
		{name: "expired mark can be taken again", ttl: 10 * time.Millisecond, wait: 25 * time.Millisecond, wantAgain: true, wantSeen: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewInMemoryIdempotencyStore()
			defer store.Close()
			key := "archive-export:" + tt.name

			processed, err := store.IsProcessed(ctx, key)
			require.NoError(t, err)
			assert.False(t, processed)

			first, err := store.MarkProcessed(ctx, key, tt.ttl)
			require.NoError(t, err)
			assert.True(t, first)

			time.Sleep(tt.wait)

			processed, err = store.IsProcessed(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSeen, processed)

			again, err := store.MarkProcessed(ctx, key, tt.ttl)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAgain, again)
		})
	}
}

func TestInMemoryIdempotencyStore_ScopesAreSeparateKeys(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	for _, key := range []string{"archive-export:e1", "settlement-notice:e1", "archive-export:e1"} {
		_, err := store.MarkProcessed(ctx, key, time.Hour)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, store.Size())
}

func TestInMemoryIdempotencyStore_OneWinnerUnderContention(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := store.MarkProcessed(ctx, "settlement-notice:e2", time.Hour); err == nil && ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestExpiringMap(t *testing.T) {
	m := newExpiringMap(time.Hour)
	defer m.close()

	require.True(t, m.setNX("short", "a", 10*time.Millisecond))
	require.True(t, m.setNX("long", "b", time.Hour))

	assert.False(t, m.deleteIf("long", "other"), "value mismatch keeps the entry")
	v, ok := m.get("long")
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	time.Sleep(25 * time.Millisecond)
	_, ok = m.get("short")
	assert.False(t, ok)
	assert.Equal(t, 2, m.size(), "expired entries stay until swept")

	m.sweep()
	assert.Equal(t, 1, m.size())

	assert.True(t, m.deleteIf("long", "b"))
	assert.Equal(t, 0, m.size())
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
