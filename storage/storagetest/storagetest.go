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

// Package storagetest runs one behavioral suite against every
// storage.Provider implementation. Backends are required to be
// functionally substitutable, so each backend package wires its
// constructor into TestProvider instead of writing its own copy of these
// cases.
package storagetest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/billscan/core"
	"github.com/poiesic/billscan/storage"
)

// Factory builds a fresh, empty provider for one test case. Providers are
// closed by the suite.
type Factory func(t *testing.T) storage.Provider

// TestProvider runs the full contract suite against the given backend.
func TestProvider(t *testing.T, newProvider Factory) {
	t.Run("RawDataRoundTrip", func(t *testing.T) { testRawDataRoundTrip(t, newProvider) })
	t.Run("RawDataNotFound", func(t *testing.T) { testRawDataNotFound(t, newProvider) })
	t.Run("FilteredResultsRoundTrip", func(t *testing.T) { testFilteredResultsRoundTrip(t, newProvider) })
	t.Run("FilteredResultsNameVariants", func(t *testing.T) { testFilteredResultsNameVariants(t, newProvider) })
	t.Run("AnalysisResultsRoundTrip", func(t *testing.T) { testAnalysisResultsRoundTrip(t, newProvider) })
	t.Run("AnalysisResultsEnvelope", func(t *testing.T) { testAnalysisResultsEnvelope(t, newProvider) })
	t.Run("AnalysisResultsNotFound", func(t *testing.T) { testAnalysisResultsNotFound(t, newProvider) })
	t.Run("BillCache", func(t *testing.T) { testBillCache(t, newProvider) })
	t.Run("BillTextCache", func(t *testing.T) { testBillTextCache(t, newProvider) })
	t.Run("Listings", func(t *testing.T) { testListings(t, newProvider) })
	t.Run("BillLookup", func(t *testing.T) { testBillLookup(t, newProvider) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, newProvider) })
}

func open(t *testing.T, newProvider Factory) (context.Context, storage.Provider) {
	t.Helper()
	provider := newProvider(t)
	t.Cleanup(func() {
		if err := provider.Close(); err != nil {
			t.Errorf("closing provider: %v", err)
		}
	})
	return context.Background(), provider
}

// Fixture datasets carry state and year fields because the relational
// backend keys dataset membership on them rather than on the saved name.
const rawDataset = `[
  {"bill_id": 1891953, "bill_number": "HB05001", "state": "CT", "session": "2025 Regular Session", "year": 2025, "status": 1, "title": "An Act Concerning Palliative Care", "description": "Expands access to palliative care services.", "url": "https://legiscan.com/CT/bill/HB05001/2025", "change_hash": "9c1f"},
  {"bill_id": 1891954, "bill_number": "SB00042", "state": "CT", "session": "2025 Regular Session", "year": 2025, "status": 1, "title": "An Act Concerning Road Maintenance", "description": "Road resurfacing schedules.", "url": "https://legiscan.com/CT/bill/SB00042/2025"}
]`

const nyDataset = `[
  {"bill_id": 2101001, "bill_number": "A01234", "state": "NY", "year": 2025, "title": "Hospice Facility Standards", "url": "https://legiscan.com/NY/bill/A01234/2025"},
  {"bill_id": 2101002, "bill_number": "S05678", "state": "NY", "year": 2025, "title": "Agricultural Zoning", "url": "https://legiscan.com/NY/bill/S05678/2025"}
]`

func testRawDataRoundTrip(t *testing.T, newProvider Factory) {
	ctx, p := open(t, newProvider)

	require.NoError(t, p.SaveRawData(ctx, "ct_bills_2025", json.RawMessage(rawDataset)))

	loaded, err := p.LoadRawData(ctx, "ct_bills_2025")
	require.NoError(t, err)

	bills, err := core.ExtractBills(loaded)
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, "HB05001", bills[0].BillNumber)
	assert.Equal(t, int64(1891953), bills[0].BillID)

	// A trailing ".json" on the name refers to the same dataset.
	viaExt, err := p.LoadRawData(ctx, "ct_bills_2025.json")
	require.NoError(t, err)
	extBills, err := core.ExtractBills(viaExt)
	require.NoError(t, err)
	assert.Equal(t, bills, extBills)
}

func testRawDataNotFound(t *testing.T, newProvider Factory) {
	ctx, p := open(t, newProvider)

	_, err := p.LoadRawData(ctx, "never_saved")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func filterFixture() *core.FilterResults {
	return &core.FilterResults{
		Summary: core.RunSummary{
			TotalAnalyzed:    2,
			RelevantCount:    1,
			NotRelevantCount: 1,
			SourceFile:       "ct_bills_2025",
		},
		RelevantBills: []core.FilteredBill{{
			BillNumber: "HB05001",
			Title:      "An Act Concerning Palliative Care",
			URL:        "https://legiscan.com/CT/bill/HB05001/2025",
			Reason:     "Directly addresses palliative care services",
		}},
		NotRelevantBills: []core.FilteredBill{{
			BillNumber: "SB00042",
			Title:      "An Act Concerning Road Maintenance",
			URL:        "https://legiscan.com/CT/bill/SB00042/2025",
			Reason:     "Road infrastructure, unrelated to healthcare",
		}},
	}
}

func testFilteredResultsRoundTrip(t *testing.T, newProvider Factory) {
	ctx, p := open(t, newProvider)
	require.NoError(t, p.SaveRawData(ctx, "ct_bills_2025", json.RawMessage(rawDataset)))

	saved := filterFixture()
	require.NoError(t, p.SaveFilteredResults(ctx, "ct_bills_2025", saved))

	doc, err := p.LoadFilteredResults(ctx, "ct_bills_2025")
	require.NoError(t, err)

	var loaded core.FilterResults
	require.NoError(t, json.Unmarshal(doc, &loaded))
	assert.Equal(t, saved.Summary, loaded.Summary)
	assert.Equal(t, saved.RelevantBills, loaded.RelevantBills)
}

func testFilteredResultsNameVariants(t *testing.T, newProvider Factory) {
	ctx, p := open(t, newProvider)
	require.NoError(t, p.SaveRawData(ctx, "ct_bills_2025", json.RawMessage(rawDataset)))

	require.NoError(t, p.SaveFilteredResults(ctx, "ct_bills_2025", filterFixture()))

	// Every historical addressing variant resolves to the same document.
	for _, runID := range []string{
		"ct_bills_2025",
		"filter_results_ct_bills_2025",
		"ct_bills_2025.json",
		"filter_results_ct_bills_2025.json",
	} {
		doc, err := p.LoadFilteredResults(ctx, runID)
		require.NoError(t, err, "variant %q", runID)
		assert.NotEmpty(t, doc)
	}

	_, err := p.LoadFilteredResults(ctx, "missing_run")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func analysisFixture() (core.ResultsPayload, core.ResultsPayload) {
	relevant := core.NewResultsList([]core.AnalysisRecord{{
		Bill: core.FilteredBill{
			BillNumber: "HB05001",
			Title:      "An Act Concerning Palliative Care",
			URL:        "https://legiscan.com/CT/bill/HB05001/2025",
			Reason:     "Directly addresses palliative care services",
		},
		Analysis: core.Analysis{
			IsRelevant:         true,
			RelevanceReasoning: "Expands hospice and palliative coverage",
			Summary:            "Requires insurers to cover palliative consultations.",
			Categories:         []string{"insurance", "palliative care"},
			Timing: &core.Timing{
				LegiScanAPISeconds: 0.8,
				AIAnalysisSeconds:  3.1,
				TotalSeconds:       4.2,
				CacheHit:           false,
			},
		},
	}})

	notRelevant := core.NewResultsList([]core.AnalysisRecord{{
		Bill: core.FilteredBill{
			BillNumber: "SB00042",
			Title:      "An Act Concerning Road Maintenance",
			URL:        "https://legiscan.com/CT/bill/SB00042/2025",
		},
		Analysis: core.Analysis{
			IsRelevant: false,
			Error:      "JSON parsing failed: unexpected token",
		},
	}})

	return relevant, notRelevant
}

func testAnalysisResultsRoundTrip(t *testing.T, newProvider Factory) {
	ctx, p := open(t, newProvider)
	require.NoError(t, p.SaveRawData(ctx, "ct_bills_2025", json.RawMessage(rawDataset)))

	relevant, notRelevant := analysisFixture()
	require.NoError(t, p.SaveAnalysisResults(ctx, "20250115_093042", relevant, notRelevant))

	gotRelevant, gotNotRelevant, err := p.LoadAnalysisResults(ctx, "20250115_093042")
	require.NoError(t, err)

	require.Equal(t, 1, gotRelevant.Len())
	require.Equal(t, 1, gotNotRelevant.Len())

	gotBill := gotRelevant.Results[0].Bill
	assert.Equal(t, "HB05001", gotBill.BillNumber)
	assert.Equal(t, "An Act Concerning Palliative Care", gotBill.Title)
	assert.Equal(t, "https://legiscan.com/CT/bill/HB05001/2025", gotBill.URL)

	gotAnalysis := gotRelevant.Results[0].Analysis
	assert.True(t, gotAnalysis.IsRelevant)
	assert.Equal(t, "Expands hospice and palliative coverage", gotAnalysis.RelevanceReasoning)
	assert.Equal(t, "Requires insurers to cover palliative consultations.", gotAnalysis.Summary)
	assert.Equal(t, []string{"insurance", "palliative care"}, gotAnalysis.Categories)
	require.NotNil(t, gotAnalysis.Timing)
	assert.InDelta(t, 4.2, gotAnalysis.Timing.TotalSeconds, 1e-9)

	// The degraded record carries only its error and the relevance flag.
	degraded := gotNotRelevant.Results[0].Analysis
	assert.True(t, degraded.Failed())
	assert.False(t, degraded.IsRelevant)
	assert.Equal(t, "JSON parsing failed: unexpected token", degraded.Error)
}

func testAnalysisResultsEnvelope(t *testing.T, newProvider Factory) {
	ctx, p := open(t, newProvider)
	require.NoError(t, p.SaveRawData(ctx, "ct_bills_2025", json.RawMessage(rawDataset)))

	relevant, _ := analysisFixture()
	envelope := core.NewResultsEnvelope(relevant.Results,
		&core.RunSummary{TotalAnalyzed: 1, RelevantCount: 1, SourceFile: "ct_bills_2025"},
		&core.TimingStats{TotalSeconds: 4.2, AvgSecondsPerBill: 4.2, CacheMisses: 1},
	)

	require.NoError(t, p.SaveAnalysisResults(ctx, "run_env", envelope, core.NewResultsList(nil)))

	gotRelevant, _, err := p.LoadAnalysisResults(ctx, "run_env")
	require.NoError(t, err)

	assert.True(t, gotRelevant.Enveloped(), "envelope form survives the round trip")
	require.NotNil(t, gotRelevant.Summary)
	assert.Equal(t, "ct_bills_2025", gotRelevant.Summary.SourceFile)
	require.NotNil(t, gotRelevant.TimingStats)
	assert.Equal(t, 1, gotRelevant.TimingStats.CacheMisses)
}

func testAnalysisResultsNotFound(t *testing.T, newProvider Factory) {
	ctx, p := open(t, newProvider)

	_, _, err := p.LoadAnalysisResults(ctx, "never_ran")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testBillCache(t *testing.T, newProvider Factory) {
	ctx, p := open(t, newProvider)

	_, err := p.GetBillFromCache(ctx, 1891953)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	payload := json.RawMessage(`{"bill_id": 1891953, "bill_number": "HB05001", "texts": [{"doc_id": 3215089, "type": "Introduced"}]}`)
	require.NoError(t, p.SaveBillToCache(ctx, 1891953, payload))

	cached, err := p.GetBillFromCache(ctx, 1891953)
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(cached), "a cache hit must be indistinguishable from a fresh fetch")
}

func testBillTextCache(t *testing.T, newProvider Factory) {
	ctx, p := open(t, newProvider)

	_, err := p.GetBillTextFromCache(ctx, 3215089)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	text := "Section 1. The Commissioner of Social Services shall establish\na palliative care program.\n"
	require.NoError(t, p.SaveBillTextToCache(ctx, 3215089, text))

	cached, err := p.GetBillTextFromCache(ctx, 3215089)
	require.NoError(t, err)
	assert.Equal(t, text, cached)
}

func testListings(t *testing.T, newProvider Factory) {
	ctx, p := open(t, newProvider)

	names, err := p.ListRawFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, p.SaveRawData(ctx, "ny_bills_2025", json.RawMessage(nyDataset)))
	require.NoError(t, p.SaveRawData(ctx, "ct_bills_2025", json.RawMessage(rawDataset)))

	names, err = p.ListRawFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ct_bills_2025", "ny_bills_2025"}, names)

	require.NoError(t, p.SaveFilteredResults(ctx, "ct_bills_2025", filterFixture()))

	runs, err := p.ListFilteredResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"filter_results_ct_bills_2025"}, runs)
}

func testBillLookup(t *testing.T, newProvider Factory) {
	ctx, p := open(t, newProvider)

	require.NoError(t, p.SaveRawData(ctx, "ct_bills_2025", json.RawMessage(rawDataset)))

	exists, err := p.BillExistsInRaw(ctx, "HB05001", "ct_bills_2025")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = p.BillExistsInRaw(ctx, "HB99999", "ct_bills_2025")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = p.BillExistsInRaw(ctx, "HB05001", "missing_dataset")
	require.NoError(t, err)
	assert.False(t, exists, "a missing dataset reports false, not an error")

	raw, err := p.GetBillByNumber(ctx, "HB05001", "ct_bills_2025")
	require.NoError(t, err)

	var bill map[string]any
	require.NoError(t, json.Unmarshal(raw, &bill))
	assert.Equal(t, "HB05001", bill["bill_number"])
	assert.Equal(t, "9c1f", bill["change_hash"], "lookup must preserve fields beyond the canonical record")

	_, err = p.GetBillByNumber(ctx, "HB99999", "ct_bills_2025")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testOverwrite(t *testing.T, newProvider Factory) {
	ctx, p := open(t, newProvider)

	require.NoError(t, p.SaveBillToCache(ctx, 7, json.RawMessage(`{"version": 1}`)))
	require.NoError(t, p.SaveBillToCache(ctx, 7, json.RawMessage(`{"version": 2}`)))

	cached, err := p.GetBillFromCache(ctx, 7)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version": 2}`, string(cached), "writes are whole-object overwrites")
}
