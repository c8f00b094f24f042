package hooks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/billscan/storage"
	"github.com/poiesic/billscan/storage/badger"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()

	t.Run("misses report not found", func(t *testing.T) {
		_, err := cache.Get(ctx, "absent")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("round-trips values", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "key", "value"))

		got, err := cache.Get(ctx, "key")
		require.NoError(t, err)
		assert.Equal(t, "value", got)
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("overwrites existing entries", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "key", "updated"))

		got, err := cache.Get(ctx, "key")
		require.NoError(t, err)
		assert.Equal(t, "updated", got)
	})
}

func TestBadgerCache(t *testing.T) {
	ctx := context.Background()

	backend, err := badger.OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	cache := NewBadgerCache(backend)

	t.Run("misses report not found", func(t *testing.T) {
		_, err := cache.Get(ctx, "absent")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("round-trips values", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "key", "value"))

		got, err := cache.Get(ctx, "key")
		require.NoError(t, err)
		assert.Equal(t, "value", got)
	})

	t.Run("entries are visible through the shared backend", func(t *testing.T) {
		other := NewBadgerCache(backend)

		got, err := other.Get(ctx, "key")
		require.NoError(t, err)
		assert.Equal(t, "value", got)
	})
}
