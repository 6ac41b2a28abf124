package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage_UploadOnce(t *testing.T) {
	s := NewMemoryObjectStorage()
	ctx := context.Background()
	key := "settlement-archives/tenant/2024-03.json"

	exists, err := s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Upload(ctx, key, []byte(`{"v":1}`), "application/json"))
	require.NoError(t, s.Upload(ctx, key, []byte(`{"v":2}`), "application/json"))

	data, contentType, ok := s.Get(key)
	require.True(t, ok)
	assert.JSONEq(t, `{"v":1}`, string(data), "first write wins")
	assert.Equal(t, "application/json", contentType)

	exists, err = s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryObjectStorage_GenerateDownloadURL(t *testing.T) {
	s := NewMemoryObjectStorage()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		link, expiresAt, err := s.GenerateDownloadURL(ctx, "a/b/2024-03.json", time.Hour)
		require.NoError(t, err)
		assert.Contains(t, link, "http://localhost:8080/_storage/a/b/2024-03.json?expires=")
		assert.True(t, expiresAt.After(time.Now()))
	})

	t.Run("empty storage key", func(t *testing.T) {
		_, _, err := s.GenerateDownloadURL(ctx, "", time.Hour)
		assert.ErrorIs(t, err, ErrStorageKeyRequired)
	})
}

func TestMemoryObjectStorage_EmptyKey(t *testing.T) {
	s := NewMemoryObjectStorage()
	ctx := context.Background()

	assert.ErrorIs(t, s.Upload(ctx, "", nil, "application/json"), ErrStorageKeyRequired)
	exists, err := s.ObjectExists(ctx, "")
	assert.ErrorIs(t, err, ErrStorageKeyRequired)
	assert.False(t, exists)
}
