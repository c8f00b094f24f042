package core

import (
	"testing"
	"time"
)

func TestDigestKey(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same digest",
			content:  "HB 5001 palliative care services",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "An act concerning the provision of hospice and palliative care services to terminally ill patients across the state",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key1 := DigestKey(tt.content)
			key2 := DigestKey(tt.content)

			if tt.wantSame && key1 != key2 {
				t.Errorf("DigestKey() produced different digests for same content: %s vs %s", key1, key2)
			}
			if len(key1) != 16 {
				t.Errorf("DigestKey() length = %d, want 16 hex chars", len(key1))
			}
		})
	}
}

func TestDigestKey_Different(t *testing.T) {
	key1 := DigestKey("HB 5001")
	key2 := DigestKey("HB 5002")

	if key1 == key2 {
		t.Errorf("DigestKey() produced same digest for different content")
	}
}

func TestNewRunID(t *testing.T) {
	ts := time.Date(2025, 1, 15, 9, 30, 42, 0, time.UTC)
	got := NewRunID(ts)
	want := "20250115_093042"

	if got != want {
		t.Errorf("NewRunID() = %v, want %v", got, want)
	}
}

func TestAnalysis_Failed(t *testing.T) {
	tests := []struct {
		name     string
		analysis Analysis
		want     bool
	}{
		{
			name:     "successful analysis",
			analysis: Analysis{IsRelevant: true, Summary: "Expands hospice coverage"},
			want:     false,
		},
		{
			name:     "degraded analysis",
			analysis: Analysis{Error: "JSON parsing failed", IsRelevant: false},
			want:     true,
		},
		{
			name:     "zero value",
			analysis: Analysis{},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.analysis.Failed(); got != tt.want {
				t.Errorf("Analysis.Failed() = %v, want %v", got, tt.want)
			}
		})
	}
}
