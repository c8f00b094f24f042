package legiscan

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/billscan/storage/badger"
)

func TestWarmCache(t *testing.T) {
	t.Run("warms every bill", func(t *testing.T) {
		store, err := badger.NewMemoryProvider()
		require.NoError(t, err)
		defer store.Close()

		doer := newScriptedDoer()
		billIDs := []int64{1, 2, 3, 4}
		for range billIDs {
			doer.enqueue("getBill", `{"status":"OK","bill":{"bill_id":1}}`)
		}

		client, err := NewClient("test-key", WithHTTPClient(doer), WithStorage(store))
		require.NoError(t, err)

		report, err := WarmCache(context.Background(), client, billIDs, 2)
		require.NoError(t, err)

		assert.Equal(t, len(billIDs), report.Warmed)
		assert.Zero(t, report.Failed)
		assert.Equal(t, len(billIDs), doer.requestCount())

		for _, billID := range billIDs {
			_, err := store.GetBillFromCache(context.Background(), billID)
			assert.NoError(t, err, fmt.Sprintf("bill %d should be cached", billID))
		}
	})

	t.Run("skips bills already in the cache", func(t *testing.T) {
		store, err := badger.NewMemoryProvider()
		require.NoError(t, err)
		defer store.Close()

		require.NoError(t, store.SaveBillToCache(context.Background(), 7, []byte(`{"bill_id":7}`)))

		doer := newScriptedDoer()
		client, err := NewClient("test-key", WithHTTPClient(doer), WithStorage(store))
		require.NoError(t, err)

		report, err := WarmCache(context.Background(), client, []int64{7}, 1)
		require.NoError(t, err)

		assert.Equal(t, 1, report.Warmed)
		assert.Zero(t, doer.requestCount())
	})

	t.Run("counts failures without aborting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		doer := newScriptedDoer()
		client, err := NewClient("test-key", WithHTTPClient(doer))
		require.NoError(t, err)

		report, err := WarmCache(ctx, client, []int64{1, 2, 3}, 2)
		require.NoError(t, err)

		assert.Zero(t, report.Warmed)
		assert.Equal(t, 3, report.Failed)
	})

	t.Run("defaults the worker count", func(t *testing.T) {
		doer := newScriptedDoer()
		doer.enqueue("getBill", `{"status":"OK","bill":{"bill_id":1}}`)

		client, err := NewClient("test-key", WithHTTPClient(doer))
		require.NoError(t, err)

		report, err := WarmCache(context.Background(), client, []int64{1}, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Warmed)
	})
}
