package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/billscan/core"
	"github.com/poiesic/billscan/storage"
	"github.com/poiesic/billscan/storage/storagetest"
)

func newTestProvider(t *testing.T) storage.Provider {
	t.Helper()
	provider, err := NewProvider(t.TempDir())
	require.NoError(t, err)
	return provider
}

func TestProvider_Contract(t *testing.T) {
	storagetest.TestProvider(t, newTestProvider)
}

func TestNewProvider_CreatesLayout(t *testing.T) {
	dir := t.TempDir()

	provider, err := NewProvider(filepath.Join(dir, "data"))
	require.NoError(t, err)
	defer provider.Close()

	for _, sub := range []string{"raw", "filtered", "analyzed", "cache"} {
		info, err := os.Stat(filepath.Join(dir, "data", sub))
		require.NoError(t, err, "directory %q", sub)
		assert.True(t, info.IsDir())
	}
}

func TestProvider_OnDiskNames(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	provider, err := NewProvider(dir)
	require.NoError(t, err)
	defer provider.Close()

	require.NoError(t, provider.SaveRawData(ctx, "ct_bills_2025", json.RawMessage(`[]`)))
	require.NoError(t, provider.SaveFilteredResults(ctx, "ct_bills_2025", &core.FilterResults{}))
	require.NoError(t, provider.SaveAnalysisResults(ctx, "20250115_093042",
		core.NewResultsList(nil), core.NewResultsList(nil)))
	require.NoError(t, provider.SaveBillToCache(ctx, 1891953, json.RawMessage(`{}`)))
	require.NoError(t, provider.SaveBillTextToCache(ctx, 3215089, "text"))

	for _, path := range []string{
		"raw/ct_bills_2025.json",
		"filtered/filter_results_ct_bills_2025.json",
		"analyzed/analysis_20250115_093042_relevant.json",
		"analyzed/analysis_20250115_093042_not_relevant.json",
		"cache/bill_1891953.json",
		"cache/bill_text_3215089.txt",
	} {
		_, err := os.Stat(filepath.Join(dir, path))
		assert.NoError(t, err, "expected %q on disk", path)
	}
}

// Files written by older runs used bare run IDs without the
// filter_results_ prefix. The loader still resolves those.
func TestProvider_LoadsLegacyFilteredNames(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	provider, err := NewProvider(dir)
	require.NoError(t, err)
	defer provider.Close()

	legacy := filepath.Join(dir, "filtered", "old_run.json")
	require.NoError(t, os.WriteFile(legacy, []byte(`{"summary": {"total_analyzed": 3}}`), 0644))

	doc, err := provider.LoadFilteredResults(ctx, "old_run")
	require.NoError(t, err)

	var results core.FilterResults
	require.NoError(t, json.Unmarshal(doc, &results))
	assert.Equal(t, 3, results.Summary.TotalAnalyzed)
}

func TestProvider_SavedJSONIsIndented(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	provider, err := NewProvider(dir)
	require.NoError(t, err)
	defer provider.Close()

	require.NoError(t, provider.SaveFilteredResults(ctx, "run", &core.FilterResults{
		Summary: core.RunSummary{TotalAnalyzed: 1},
	}))

	data, err := os.ReadFile(filepath.Join(dir, "filtered", "filter_results_run.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"summary\"", "results are written indented for manual review")
}

func TestProvider_RawDataPreservedVerbatim(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	provider, err := NewProvider(dir)
	require.NoError(t, err)
	defer provider.Close()

	// Raw datasets come straight from upstream APIs and are stored
	// byte for byte, unknown fields included.
	raw := `[{"bill_id": 1, "bill_number": "HB01", "title": "T", "committee": {"name": "Public Health"}}]`
	require.NoError(t, provider.SaveRawData(ctx, "ct_bills_2025", json.RawMessage(raw)))

	data, err := os.ReadFile(filepath.Join(dir, "raw", "ct_bills_2025.json"))
	require.NoError(t, err)
	assert.Equal(t, raw, string(data))
}
