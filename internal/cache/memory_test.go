package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGet_NotFound(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemory[[]byte](time.Minute, 100)
	require.NoError(t, err)

	data, found, err := cache.Get(ctx, "nonexistent")

	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)
}

func TestMemorySetAndGet_Success(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemory[[]byte](time.Minute, 100)
	require.NoError(t, err)

	err = cache.Set(ctx, "alice/avatar-placeholder.64.png", []byte("png"))
	require.NoError(t, err)

	data, found, err := cache.Get(ctx, "alice/avatar-placeholder.64.png")

	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("png"), data)
}

func TestMemoryInvalidate_RemovesValue(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemory[[]byte](time.Minute, 100)
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, "key", []byte("png")))
	require.NoError(t, cache.Invalidate(ctx, "key"))

	_, found, err := cache.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemory[[]byte](100*time.Millisecond, 100)
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, "key", []byte("png")))

	_, found, err := cache.Get(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)

	time.Sleep(150 * time.Millisecond)

	_, found, err = cache.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)
}
