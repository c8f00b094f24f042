package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// DigestKey generates a deterministic short digest from text content using
// BLAKE2b hashing. Identical content always produces the same digest, which
// makes it suitable for content-addressed cache keys.
func DigestKey(text string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// NewRunID returns a timestamp-based run identifier, e.g. "20250115_093042".
// Run identifiers key filter and analysis outputs; source-derived names
// (e.g. "ct_bills_2025") are equally valid run identifiers.
func NewRunID(now time.Time) string {
	return now.Format("20060102_150405")
}

// BillRecord is a single bill as fetched from the upstream legislative API.
// Records are immutable once fetched; the pipeline only reads them.
type BillRecord struct {
	BillID      int64  `json:"bill_id,omitempty"`
	BillNumber  string `json:"bill_number"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// FilterOutcome is one bill's verdict inside an AI filter response.
type FilterOutcome struct {
	BillNumber string `json:"bill_number"`
	IsRelevant bool   `json:"is_relevant"`
	Reason     string `json:"reason"`
}

// FilteredBill is a bill entry in a persisted filter-results document.
// ExtraMetadata carries format-specific extras (similarity scores, session
// info) that later stages may surface in prompts but never require.
type FilteredBill struct {
	BillNumber    string         `json:"bill_number"`
	Title         string         `json:"title"`
	URL           string         `json:"url"`
	Reason        string         `json:"reason,omitempty"`
	ExtraMetadata *ExtraMetadata `json:"extra_metadata,omitempty"`
}

// ExtraMetadata holds optional per-bill fields carried through from
// alternate upstream formats.
type ExtraMetadata struct {
	BillID          int64   `json:"bill_id,omitempty"`
	StatusDate      string  `json:"status_date,omitempty"`
	LastAction      string  `json:"last_action,omitempty"`
	Year            int     `json:"year,omitempty"`
	Session         string  `json:"session,omitempty"`
	SimilarityScore float64 `json:"similarity_score,omitempty"`
	Distance        float64 `json:"distance,omitempty"`
}

// RunSummary reports aggregate counts for one pass over a source file.
type RunSummary struct {
	TotalAnalyzed    int    `json:"total_analyzed"`
	RelevantCount    int    `json:"relevant_count"`
	NotRelevantCount int    `json:"not_relevant_count"`
	SourceFile       string `json:"source_file"`
}

// FilterResults is the persisted output of a complete filter pass.
type FilterResults struct {
	Summary          RunSummary     `json:"summary"`
	RelevantBills    []FilteredBill `json:"relevant_bills"`
	NotRelevantBills []FilteredBill `json:"not_relevant_bills,omitempty"`
}

// NormalizedBill is the canonical bill shape produced by the format
// normalizer, regardless of which upstream document shape it came from.
type NormalizedBill struct {
	BillNumber    string         `json:"bill_number"`
	Title         string         `json:"title"`
	URL           string         `json:"url"`
	Reason        string         `json:"reason"`
	ExtraMetadata *ExtraMetadata `json:"extra_metadata,omitempty"`
}

// Timing is the per-phase duration breakdown accumulated while analyzing
// a single bill.
type Timing struct {
	LegiScanAPISeconds    float64 `json:"legiscan_api_seconds"`
	TextExtractionSeconds float64 `json:"text_extraction_seconds"`
	AIAnalysisSeconds     float64 `json:"ai_analysis_seconds"`
	TotalSeconds          float64 `json:"total_seconds"`
	CacheHit              bool    `json:"cache_hit"`
}

// ExclusionCheck records whether a bill matched one of the configured
// exclusion rules during analysis.
type ExclusionCheck struct {
	IsExcluded bool   `json:"is_excluded"`
	Reason     string `json:"reason,omitempty"`
}

// SpecialFlags marks bills that reference adjacent legal instruments
// rather than (or in addition to) statute changes.
type SpecialFlags struct {
	ReferencesRegulation     bool   `json:"references_regulation"`
	RegulationDetails        string `json:"regulation_details,omitempty"`
	ReferencesExecutiveOrder bool   `json:"references_executive_order"`
	ExecutiveOrderDetails    string `json:"executive_order_details,omitempty"`
	ReferencesBallotMeasure  bool   `json:"references_ballot_measure"`
	BallotMeasureDetails     string `json:"ballot_measure_details,omitempty"`
}

// Analysis is the structured verdict produced by the analysis pass for a
// single bill. A failed analysis is a degraded Analysis carrying only
// Error and IsRelevant=false; it is never dropped, so aggregate counts
// stay consistent.
type Analysis struct {
	IsRelevant         bool            `json:"is_relevant"`
	RelevanceReasoning string          `json:"relevance_reasoning,omitempty"`
	Summary            string          `json:"summary,omitempty"`
	BillStatus         string          `json:"bill_status,omitempty"`
	LegislationType    string          `json:"legislation_type,omitempty"`
	Categories         []string        `json:"categories,omitempty"`
	Tags               []string        `json:"tags,omitempty"`
	KeyProvisions      []string        `json:"key_provisions,omitempty"`
	PalliativeImpact   string          `json:"palliative_care_impact,omitempty"`
	ExclusionCheck     *ExclusionCheck `json:"exclusion_check,omitempty"`
	SpecialFlags       *SpecialFlags   `json:"special_flags,omitempty"`

	// Populated by the pipeline, not the model.
	FullBillText string  `json:"full_bill_text,omitempty"`
	Timing       *Timing `json:"timing,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Failed reports whether this analysis is a degraded error placeholder.
func (a *Analysis) Failed() bool {
	return a.Error != ""
}

// AnalysisRecord pairs a bill with its analysis verdict.
type AnalysisRecord struct {
	Bill     FilteredBill `json:"bill"`
	Analysis Analysis     `json:"analysis"`
}

// TimingStats aggregates per-bill timings across an analysis run.
type TimingStats struct {
	TotalSeconds      float64 `json:"total_seconds"`
	AvgSecondsPerBill float64 `json:"avg_seconds_per_bill"`
	CacheHits         int     `json:"cache_hits"`
	CacheMisses       int     `json:"cache_misses"`
}

// PipelineRun is an audit row recorded by the relational storage backend
// at the end of each pass. It exists for cross-run reporting, not for
// pipeline correctness.
type PipelineRun struct {
	RunID          string    `json:"run_id"`
	Stage          string    `json:"stage"`
	Status         string    `json:"status"`
	BillsProcessed int       `json:"bills_processed"`
	BillsRelevant  int       `json:"bills_relevant"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Pipeline stages recorded in PipelineRun rows.
const (
	StageFilter   = "filter"
	StageAnalysis = "analysis"
)

// Pipeline run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)
