package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/billscan/core"
)

func TestBuildReport(t *testing.T) {
	relevant := []core.AnalysisRecord{
		{Analysis: core.Analysis{IsRelevant: true, Categories: []string{"Hospice", "Workforce"}}},
		{Analysis: core.Analysis{IsRelevant: true, Categories: []string{"Hospice", "Advance Directives"}}},
	}
	notRelevant := []core.AnalysisRecord{
		{Analysis: core.Analysis{Error: "JSON parsing failed: unexpected token"}},
		{Analysis: core.Analysis{RelevanceReasoning: "out of scope"}},
	}

	report := buildReport("ct_bills_2025",
		core.RunSummary{TotalAnalyzed: 4, RelevantCount: 2, NotRelevantCount: 2},
		core.TimingStats{TotalSeconds: 8, AvgSecondsPerBill: 2},
		relevant, notRelevant)

	assert.Equal(t, "ct_bills_2025", report.RunID)
	assert.Equal(t, 1, report.ErrorCount)
	assert.Equal(t, 8.0, report.TimingStats.TotalSeconds)

	assert.Equal(t, []CategoryCount{
		{Category: "Hospice", Count: 2},
		{Category: "Advance Directives", Count: 1},
		{Category: "Workforce", Count: 1},
	}, report.Categories)
}
