package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewFilesPlugin(t *testing.T) {
	t.Run("requires at least one pattern", func(t *testing.T) {
		_, err := NewFilesPlugin(Config{Type: TypeFiles})
		assert.ErrorIs(t, err, ErrNoPatterns)
	})
}

func TestFilesFetch(t *testing.T) {
	t.Run("loads bills from every matching file", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, filepath.Join(dir, "a.json"), `[
			{"bill_id": 101, "bill_number": "SB001", "title": "An Act Concerning Hospice Care", "url": "https://legiscan.com/CT/bill/SB001/2025"},
			{"bill_id": 102, "bill_number": "SB002", "title": "An Act Concerning Road Repair", "url": "https://legiscan.com/CT/bill/SB002/2025"}
		]`)
		writeDataset(t, filepath.Join(dir, "b.json"), `{"summary": {"masterlist": [
			{"bill_id": 201, "bill_number": "HB450", "title": "An Act Concerning Palliative Training", "url": "https://legiscan.com/CT/bill/HB450/2025"}
		]}}`)

		plugin, err := NewFilesPlugin(Config{Patterns: []string{filepath.Join(dir, "*.json")}})
		require.NoError(t, err)
		assert.Equal(t, TypeFiles, plugin.Name())

		records, err := plugin.Fetch(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "SB001", records[0].BillNumber)
		assert.Equal(t, int64(101), records[0].BillID)
		assert.Equal(t, "SB002", records[1].BillNumber)
		assert.Equal(t, "HB450", records[2].BillNumber)
	})

	t.Run("combines records across patterns in order", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, filepath.Join(dir, "second.json"), `[{"bill_number": "HB002", "title": "Second"}]`)
		writeDataset(t, filepath.Join(dir, "first.json"), `[{"bill_number": "HB001", "title": "First"}]`)

		plugin, err := NewFilesPlugin(Config{Patterns: []string{
			filepath.Join(dir, "second.json"),
			filepath.Join(dir, "first.json"),
		}})
		require.NoError(t, err)

		records, err := plugin.Fetch(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "HB002", records[0].BillNumber)
		assert.Equal(t, "HB001", records[1].BillNumber)
	})

	t.Run("skips files that do not parse", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, filepath.Join(dir, "bad.json"), `not json at all`)
		writeDataset(t, filepath.Join(dir, "good.json"), `[{"bill_number": "SB001", "title": "An Act"}]`)
		writeDataset(t, filepath.Join(dir, "unknown.json"), `{"hits": []}`)

		plugin, err := NewFilesPlugin(Config{Patterns: []string{filepath.Join(dir, "*.json")}})
		require.NoError(t, err)

		records, err := plugin.Fetch(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "SB001", records[0].BillNumber)
	})

	t.Run("returns nothing when no files match", func(t *testing.T) {
		plugin, err := NewFilesPlugin(Config{Patterns: []string{filepath.Join(t.TempDir(), "*.json")}})
		require.NoError(t, err)

		records, err := plugin.Fetch(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("fails on a malformed pattern", func(t *testing.T) {
		plugin, err := NewFilesPlugin(Config{Patterns: []string{"["}})
		require.NoError(t, err)

		_, err = plugin.Fetch(context.Background())
		assert.ErrorIs(t, err, filepath.ErrBadPattern)
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, filepath.Join(dir, "a.json"), `[{"bill_number": "SB001", "title": "An Act"}]`)

		plugin, err := NewFilesPlugin(Config{Patterns: []string{filepath.Join(dir, "*.json")}})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = plugin.Fetch(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
