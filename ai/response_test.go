package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain json untouched",
			input:    `{"relevant": true}`,
			expected: `{"relevant": true}`,
		},
		{
			name:     "json fence",
			input:    "```json\n{\"relevant\": true}\n```",
			expected: `{"relevant": true}`,
		},
		{
			name:     "bare fence",
			input:    "```\n{\"relevant\": false}\n```",
			expected: `{"relevant": false}`,
		},
		{
			name:     "surrounding whitespace",
			input:    "  \n```json\n{}\n```  \n",
			expected: "{}",
		},
		{
			name:     "fence without newlines",
			input:    "```json{\"reason\": \"x\"}```",
			expected: `{"reason": "x"}`,
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripFences(tt.input))
		})
	}
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "valid json untouched",
			input:    `{"relevant": true, "reason": "covers hospice"}`,
			expected: `{"relevant": true, "reason": "covers hospice"}`,
		},
		{
			name:     "missing opening quote after comma",
			input:    `{"relevant": true, reason": "covers hospice"}`,
			expected: `{"relevant": true, "reason": "covers hospice"}`,
		},
		{
			name:     "missing opening quote after brace",
			input:    `{relevant": true}`,
			expected: `{"relevant": true}`,
		},
		{
			name:     "nested arrays untouched",
			input:    `{"results": [{"bill_number": "HB05001"}]}`,
			expected: `{"results": [{"bill_number": "HB05001"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repaired := RepairJSON(tt.input)
			assert.Equal(t, tt.expected, repaired)

			// The repaired text must be parseable
			var out map[string]any
			require.NoError(t, json.Unmarshal([]byte(repaired), &out))
		})
	}
}

func TestStripFencesThenRepair(t *testing.T) {
	// The parse path used by the pipeline passes: fences first, then repair.
	raw := "```json\n{\"relevant\": true, reason\": \"expands palliative coverage\"}\n```"

	cleaned := RepairJSON(StripFences(raw))

	var out struct {
		Relevant bool   `json:"relevant"`
		Reason   string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal([]byte(cleaned), &out))
	assert.True(t, out.Relevant)
	assert.Equal(t, "expands palliative coverage", out.Reason)
}
