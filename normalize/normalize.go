// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package normalize converts filter-result documents from either
// recognized upstream shape into the canonical bill list the analysis
// pass consumes. Detection is by key presence; anything else fails
// loudly rather than guessing.
package normalize

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/poiesic/billscan/core"
)

// Recognized document formats.
const (
	// FormatAIFilter is the filter pass output: a summary block plus a
	// relevant_bills list with verbatim reasons.
	FormatAIFilter = "ai_filter"

	// FormatVectorSimilarity is the vector search export: a results list
	// scored by similarity, with bills keyed by "number".
	FormatVectorSimilarity = "vector_similarity"
)

const (
	keyRelevantBills = "relevant_bills"
	keyResults       = "results"
)

// Detect returns which recognized shape the document carries, without
// decoding the bills themselves.
func Detect(doc json.RawMessage) (string, error) {
	top, err := topLevel(doc)
	if err != nil {
		return "", err
	}
	if _, ok := top[keyRelevantBills]; ok {
		return FormatAIFilter, nil
	}
	if _, ok := top[keyResults]; ok {
		return FormatVectorSimilarity, nil
	}

	keys := make([]string, 0, len(top))
	for key := range top {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return "", &UnrecognizedFormatError{KeysFound: keys}
}

// Normalize converts a filter-result document of either shape into the
// canonical bill list.
func Normalize(doc json.RawMessage) ([]core.NormalizedBill, error) {
	format, err := Detect(doc)
	if err != nil {
		return nil, err
	}
	slog.Info("detected filter format", "format", format)

	switch format {
	case FormatAIFilter:
		return normalizeAIFilter(doc)
	default:
		return normalizeVector(doc)
	}
}

func normalizeAIFilter(doc json.RawMessage) ([]core.NormalizedBill, error) {
	var parsed struct {
		RelevantBills []core.FilteredBill `json:"relevant_bills"`
	}
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("normalize: decoding relevant_bills: %w", err)
	}

	bills := make([]core.NormalizedBill, 0, len(parsed.RelevantBills))
	for _, bill := range parsed.RelevantBills {
		bills = append(bills, core.NormalizedBill{
			BillNumber: bill.BillNumber,
			Title:      bill.Title,
			URL:        bill.URL,
			Reason:     bill.Reason,
		})
	}
	return bills, nil
}

// flexInt64 decodes ids that upstream exporters emit sometimes as JSON
// numbers and sometimes as quoted strings.
type flexInt64 int64

func (v *flexInt64) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*v = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing numeric field from %q: %w", s, err)
	}
	*v = flexInt64(n)
	return nil
}

type vectorBill struct {
	BillID          flexInt64 `json:"bill_id"`
	Number          string    `json:"number"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	StatusDate      string    `json:"status_date"`
	LastAction      string    `json:"last_action"`
	Year            flexInt64 `json:"year"`
	Session         string    `json:"session"`
	SimilarityScore float64   `json:"similarity_score"`
	Distance        float64   `json:"distance"`
}

func normalizeVector(doc json.RawMessage) ([]core.NormalizedBill, error) {
	var parsed struct {
		TotalResults int          `json:"total_results"`
		Results      []vectorBill `json:"results"`
	}
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("normalize: decoding results: %w", err)
	}

	bills := make([]core.NormalizedBill, 0, len(parsed.Results))
	for _, bill := range parsed.Results {
		bills = append(bills, core.NormalizedBill{
			BillNumber: bill.Number,
			Title:      bill.Title,
			URL:        bill.URL,
			Reason: fmt.Sprintf("Vector similarity match (score: %.4f, distance: %.4f)",
				bill.SimilarityScore, bill.Distance),
			ExtraMetadata: &core.ExtraMetadata{
				BillID:          int64(bill.BillID),
				StatusDate:      bill.StatusDate,
				LastAction:      bill.LastAction,
				Year:            int(bill.Year),
				Session:         bill.Session,
				SimilarityScore: bill.SimilarityScore,
				Distance:        bill.Distance,
			},
		})
	}
	return bills, nil
}

func topLevel(doc json.RawMessage) (map[string]json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(doc, &top); err != nil {
		return nil, fmt.Errorf("normalize: decoding document: %w", err)
	}
	return top, nil
}
