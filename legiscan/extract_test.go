package legiscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultExtractor(t *testing.T) {
	extractor := DefaultExtractor{}

	t.Run("passes plain text through", func(t *testing.T) {
		got, err := extractor.Extract("text/plain", []byte("Section 1. Hospice care."))
		require.NoError(t, err)
		assert.Equal(t, "Section 1. Hospice care.", got)
	})

	t.Run("strips markup from html", func(t *testing.T) {
		doc := []byte(`<html><head><style>p{color:red}</style></head>
			<body><script>alert(1)</script><h1>HB 123</h1><p>An act.</p></body></html>`)

		got, err := extractor.Extract("text/html", doc)
		require.NoError(t, err)

		assert.Contains(t, got, "HB 123")
		assert.Contains(t, got, "An act.")
		assert.NotContains(t, got, "alert(1)")
		assert.NotContains(t, got, "color:red")
	})

	t.Run("handles a mime type with parameters", func(t *testing.T) {
		got, err := extractor.Extract("text/html; charset=UTF-8", []byte("<p>body</p>"))
		require.NoError(t, err)
		assert.Equal(t, "body", got)
	})

	t.Run("treats xhtml as html", func(t *testing.T) {
		got, err := extractor.Extract("application/xhtml+xml", []byte("<p>body</p>"))
		require.NoError(t, err)
		assert.Equal(t, "body", got)
	})

	t.Run("rejects binary formats", func(t *testing.T) {
		_, err := extractor.Extract("application/pdf", []byte("%PDF-1.4"))
		assert.ErrorIs(t, err, ErrUnsupportedMIME)
		assert.Contains(t, err.Error(), "application/pdf")
	})
}
