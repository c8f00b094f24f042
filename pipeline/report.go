package pipeline

import (
	"fmt"
	"sort"

	"github.com/poiesic/billscan/core"
)

// Report summarizes a completed analysis run. It is computed once from
// the finished result set, after the per-bill loop.
type Report struct {
	RunID       string
	Summary     core.RunSummary
	TimingStats core.TimingStats

	// ErrorCount is how many bills produced degraded error results.
	ErrorCount int

	// Categories is the category distribution over relevant bills,
	// most frequent first.
	Categories []CategoryCount
}

// CategoryCount is one entry in a run's category distribution.
type CategoryCount struct {
	Category string
	Count    int
}

func buildReport(runID string, summary core.RunSummary, stats core.TimingStats, relevant, notRelevant []core.AnalysisRecord) *Report {
	report := &Report{
		RunID:       runID,
		Summary:     summary,
		TimingStats: stats,
	}

	for _, record := range notRelevant {
		if record.Analysis.Failed() {
			report.ErrorCount++
		}
	}

	counts := make(map[string]int)
	for _, record := range relevant {
		if record.Analysis.Failed() {
			continue
		}
		for _, category := range record.Analysis.Categories {
			counts[category]++
		}
	}
	for category, count := range counts {
		report.Categories = append(report.Categories, CategoryCount{Category: category, Count: count})
	}
	sort.Slice(report.Categories, func(i, j int) bool {
		if report.Categories[i].Count != report.Categories[j].Count {
			return report.Categories[i].Count > report.Categories[j].Count
		}
		return report.Categories[i].Category < report.Categories[j].Category
	})

	return report
}

func (p *AnalysisPass) logReport(report *Report) {
	total := report.Summary.TotalAnalyzed
	relevantPct, notRelevantPct := 0.0, 0.0
	if total > 0 {
		relevantPct = float64(report.Summary.RelevantCount) / float64(total) * 100
		notRelevantPct = float64(report.Summary.NotRelevantCount) / float64(total) * 100
	}

	p.logger.Info("analysis pass complete",
		"total_analyzed", total,
		"relevant", report.Summary.RelevantCount,
		"relevant_pct", fmt.Sprintf("%.1f", relevantPct),
		"not_relevant", report.Summary.NotRelevantCount,
		"not_relevant_pct", fmt.Sprintf("%.1f", notRelevantPct),
		"errors", report.ErrorCount,
		"cache_hits", report.TimingStats.CacheHits,
		"cache_misses", report.TimingStats.CacheMisses)

	for _, entry := range report.Categories {
		p.logger.Info("category distribution", "category", entry.Category, "count", entry.Count)
	}
}
