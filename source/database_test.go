package source

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/billscan/storage"
	"github.com/poiesic/billscan/storage/file"
)

func newSourceStore(t *testing.T) storage.Provider {
	t.Helper()
	store, err := file.NewProvider(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewDatabasePlugin(t *testing.T) {
	t.Run("requires a connection string", func(t *testing.T) {
		_, err := NewDatabasePlugin(Config{Dataset: "ct_bills_2025"})
		assert.ErrorIs(t, err, ErrConnStringRequired)
	})

	t.Run("requires a dataset name", func(t *testing.T) {
		_, err := NewDatabasePlugin(Config{ConnString: "postgres://localhost/billscan"})
		assert.ErrorIs(t, err, ErrDatasetRequired)
	})

	t.Run("an injected provider satisfies the connection requirement", func(t *testing.T) {
		plugin, err := NewDatabasePlugin(Config{Dataset: "ct_bills_2025"}, WithDatabaseStore(newSourceStore(t)))
		require.NoError(t, err)
		assert.Equal(t, TypeDatabase, plugin.Name())
	})
}

func TestDatabaseFetch(t *testing.T) {
	t.Run("loads the configured dataset", func(t *testing.T) {
		store := newSourceStore(t)
		doc, err := json.Marshal([]map[string]any{
			{"bill_id": 101, "bill_number": "SB001", "title": "An Act Concerning Hospice Care"},
			{"bill_id": 102, "bill_number": "SB002", "title": "An Act Concerning Road Repair"},
		})
		require.NoError(t, err)
		require.NoError(t, store.SaveRawData(context.Background(), "ct_bills_2025", doc))

		plugin, err := NewDatabasePlugin(Config{Dataset: "ct_bills_2025"}, WithDatabaseStore(store))
		require.NoError(t, err)

		records, err := plugin.Fetch(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, int64(101), records[0].BillID)
		assert.Equal(t, "SB001", records[0].BillNumber)
		assert.Equal(t, "An Act Concerning Hospice Care", records[0].Title)
	})

	t.Run("propagates a missing dataset", func(t *testing.T) {
		plugin, err := NewDatabasePlugin(Config{Dataset: "missing"}, WithDatabaseStore(newSourceStore(t)))
		require.NoError(t, err)

		_, err = plugin.Fetch(context.Background())
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
