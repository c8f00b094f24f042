package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTiming(t *testing.T) {
	t.Run("accepts every timing in the closed set", func(t *testing.T) {
		for _, want := range Timings() {
			got, err := ParseTiming(string(want))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("rejects anything else", func(t *testing.T) {
		_, err := ParseTiming("mid_filter")
		assert.ErrorIs(t, err, ErrUnknownTiming)
		assert.Contains(t, err.Error(), "mid_filter")
	})
}

func TestTimings(t *testing.T) {
	assert.Equal(t, []Timing{PreFilter, PostFilter, PreAnalysis, PostAnalysis}, Timings())
}

func TestDefaultCacheKey(t *testing.T) {
	t.Run("composes hook name and item id", func(t *testing.T) {
		key := DefaultCacheKey("legiscan", Context{ItemID: "1635636"})
		assert.Equal(t, "legiscan_1635636", key)
	})

	t.Run("disables caching without an item id", func(t *testing.T) {
		key := DefaultCacheKey("legiscan", Context{RunID: "20250115_093042"})
		assert.Empty(t, key)
	})
}
