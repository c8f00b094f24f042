package badger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/billscan/storage"
	"github.com/poiesic/billscan/storage/storagetest"
)

func newTestProvider(t *testing.T) storage.Provider {
	t.Helper()
	provider, err := NewMemoryProvider()
	require.NoError(t, err)
	return provider
}

func TestProvider_Contract(t *testing.T) {
	storagetest.TestProvider(t, newTestProvider)
}

func TestProvider_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	provider, err := Open(dir, false)
	require.NoError(t, err)

	require.NoError(t, provider.SaveRawData(ctx, "ct_bills_2025", json.RawMessage(`[{"bill_number": "HB05001", "title": "T"}]`)))
	require.NoError(t, provider.SaveBillTextToCache(ctx, 3215089, "Section 1."))
	require.NoError(t, provider.Close())

	reopened, err := Open(dir, false)
	require.NoError(t, err)
	defer reopened.Close()

	names, err := reopened.ListRawFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ct_bills_2025"}, names)

	text, err := reopened.GetBillTextFromCache(ctx, 3215089)
	require.NoError(t, err)
	assert.Equal(t, "Section 1.", text)
}

func TestProvider_KeysMirrorFileLayout(t *testing.T) {
	assert.Equal(t, "raw/ct_bills_2025.json", string(makeRawKey("ct_bills_2025")))
	assert.Equal(t, "raw/ct_bills_2025.json", string(makeRawKey("ct_bills_2025.json")))
	assert.Equal(t, "filtered/filter_results_run.json", string(makeFilteredKey("filter_results_run.json")))
	assert.Equal(t, "analyzed/analysis_20250115_093042_relevant.json", string(makeAnalyzedKey("20250115_093042", "relevant")))
	assert.Equal(t, "cache/bill_1891953.json", string(makeBillCacheKey(1891953)))
	assert.Equal(t, "cache/bill_text_3215089.txt", string(makeBillTextCacheKey(3215089)))
}

func TestOpenBackend_RejectsFilePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not_a_dir")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := OpenBackend(path, false)
	assert.ErrorContains(t, err, "is not a directory")
}
