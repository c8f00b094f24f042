package normalize

import (
	"encoding/json"
	"sort"
)

// FormatInfo describes a filter-result document without normalizing it.
// Fields lists the keys present on the first bill, sorted.
type FormatInfo struct {
	Format              string   `json:"format"`
	BillCount           int      `json:"bill_count"`
	HasSummary          bool     `json:"has_summary"`
	HasSimilarityScores bool     `json:"has_similarity_scores"`
	Fields              []string `json:"fields"`
}

// Inspect reports the shape and contents of a filter-result document for
// pre-flight diagnostics.
func Inspect(doc json.RawMessage) (*FormatInfo, error) {
	format, err := Detect(doc)
	if err != nil {
		return nil, err
	}

	top, err := topLevel(doc)
	if err != nil {
		return nil, err
	}

	info := &FormatInfo{Format: format}

	var bills []json.RawMessage
	switch format {
	case FormatAIFilter:
		_ = json.Unmarshal(top[keyRelevantBills], &bills)
		_, info.HasSummary = top["summary"]
	case FormatVectorSimilarity:
		_ = json.Unmarshal(top[keyResults], &bills)
		info.HasSimilarityScores = true
	}
	info.BillCount = len(bills)

	if len(bills) > 0 {
		var first map[string]json.RawMessage
		if err := json.Unmarshal(bills[0], &first); err == nil {
			for key := range first {
				info.Fields = append(info.Fields, key)
			}
			sort.Strings(info.Fields)
		}
	}
	return info, nil
}
