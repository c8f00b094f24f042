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

package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ResultsPayload is the persisted shape of one analysis-results bucket.
// Historically the bucket was written either as a bare JSON array of
// records or as an envelope {summary, timing_stats, results}; both forms
// remain on disk, so both must round-trip. The two cases are made explicit
// here instead of being guessed at each call site: storage backends accept
// and return a ResultsPayload and never inspect raw JSON themselves.
type ResultsPayload struct {
	Summary     *RunSummary  `json:"summary,omitempty"`
	TimingStats *TimingStats `json:"timing_stats,omitempty"`
	Results     []AnalysisRecord

	// enveloped records which JSON form the payload came from or will
	// marshal to. A bare array is the zero value.
	enveloped bool
}

// NewResultsList wraps records as a bare-array payload.
func NewResultsList(records []AnalysisRecord) ResultsPayload {
	return ResultsPayload{Results: records}
}

// NewResultsEnvelope wraps records with summary and timing metadata.
func NewResultsEnvelope(records []AnalysisRecord, summary *RunSummary, stats *TimingStats) ResultsPayload {
	return ResultsPayload{
		Summary:     summary,
		TimingStats: stats,
		Results:     records,
		enveloped:   true,
	}
}

// Enveloped reports whether the payload carries the envelope form.
func (p ResultsPayload) Enveloped() bool {
	return p.enveloped
}

// Len returns the number of records regardless of form.
func (p ResultsPayload) Len() int {
	return len(p.Results)
}

// resultsEnvelope is the concrete envelope wire shape.
type resultsEnvelope struct {
	Summary     *RunSummary      `json:"summary,omitempty"`
	TimingStats *TimingStats     `json:"timing_stats,omitempty"`
	Results     []AnalysisRecord `json:"results"`
}

// MarshalJSON writes the payload back in the form it was constructed
// with, keeping previously written files byte-stable across rewrites.
func (p ResultsPayload) MarshalJSON() ([]byte, error) {
	if !p.enveloped {
		if p.Results == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(p.Results)
	}
	return json.Marshal(resultsEnvelope{
		Summary:     p.Summary,
		TimingStats: p.TimingStats,
		Results:     p.Results,
	})
}

// UnmarshalJSON accepts either a bare array of records or the
// {summary, timing_stats, results} envelope.
func (p *ResultsPayload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return fmt.Errorf("results payload: empty document")
	}

	switch trimmed[0] {
	case '[':
		var records []AnalysisRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("results payload: %w", err)
		}
		*p = ResultsPayload{Results: records}
		return nil
	case '{':
		var env resultsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return fmt.Errorf("results payload: %w", err)
		}
		*p = ResultsPayload{
			Summary:     env.Summary,
			TimingStats: env.TimingStats,
			Results:     env.Results,
			enveloped:   true,
		}
		return nil
	default:
		return fmt.Errorf("results payload: document is neither an array nor an object")
	}
}
