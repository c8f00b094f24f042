package storage

import (
	"fmt"
	"strings"
)

// Persisted object naming shared by the path-keyed backends (file and
// badger). Keeping the rules here guarantees both backends resolve the
// same historical name variants, which the on-disk data from earlier
// releases still uses.

const (
	filterResultsPrefix = "filter_results_"
	analysisPrefix      = "analysis_"
	jsonExt             = ".json"
)

// RawName normalizes a raw dataset name by stripping a trailing ".json".
func RawName(name string) string {
	return strings.TrimSuffix(name, jsonExt)
}

// FilterResultsName returns the canonical stored name for a filter run.
// A runID that already carries the filter_results_ prefix is kept as-is
// so round-tripping a listed name never doubles the prefix.
func FilterResultsName(runID string) string {
	name := runID
	if !strings.HasPrefix(name, filterResultsPrefix) {
		name = filterResultsPrefix + name
	}
	return strings.TrimSuffix(name, jsonExt)
}

// FilterResultCandidates returns the stored-file names to probe for a
// filter run, in the fixed historical order: the bare runID, the prefixed
// runID, then both again with an explicit extension. Earlier releases
// wrote several of these variants, so the order is part of the contract.
func FilterResultCandidates(runID string) []string {
	patterns := []string{
		runID,
		filterResultsPrefix + runID,
		runID + jsonExt,
		filterResultsPrefix + runID + jsonExt,
	}

	candidates := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if !strings.HasSuffix(pattern, jsonExt) {
			pattern += jsonExt
		}
		candidates = append(candidates, pattern)
	}
	return candidates
}

// FilterRunKey reduces any accepted filter-results name variant to the
// bare run key. The relational backend stores this key, so every variant
// addresses the same rows there too.
func FilterRunKey(runID string) string {
	return strings.TrimPrefix(strings.TrimSuffix(runID, jsonExt), filterResultsPrefix)
}

// AnalysisResultsPrefix returns the filename prefix for an analysis run.
// The relevant and not-relevant buckets append "_relevant" and
// "_not_relevant" to it.
func AnalysisResultsPrefix(runID string) string {
	prefix := runID
	if !strings.HasPrefix(prefix, analysisPrefix) {
		prefix = analysisPrefix + prefix
	}
	return strings.TrimSuffix(prefix, jsonExt)
}

// AnalysisRunKey reduces an analysis run name to the bare run key.
func AnalysisRunKey(runID string) string {
	return strings.TrimPrefix(strings.TrimSuffix(runID, jsonExt), analysisPrefix)
}

// BillCacheName returns the cache object name for an upstream bill payload.
func BillCacheName(billID int64) string {
	return fmt.Sprintf("bill_%d.json", billID)
}

// BillTextCacheName returns the cache object name for extracted bill text.
func BillTextCacheName(docID int64) string {
	return fmt.Sprintf("bill_text_%d.txt", docID)
}
