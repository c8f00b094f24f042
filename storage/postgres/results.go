package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/poiesic/billscan/core"
	"github.com/poiesic/billscan/storage"
)

const upsertFilterResultQuery = `
	INSERT INTO filter_results (bill_id, run_id, is_relevant, reason)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (bill_id, run_id) DO UPDATE SET
		is_relevant = EXCLUDED.is_relevant,
		reason = EXCLUDED.reason,
		filtered_at = CURRENT_TIMESTAMP
`

const upsertAnalysisResultQuery = `
	INSERT INTO analysis_results (
		bill_id, run_id, is_relevant, relevance_reasoning, summary,
		bill_status, legislation_type, categories, tags, key_provisions,
		palliative_care_impact, exclusion_check, special_flags,
		full_bill_text, timing, error
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (bill_id, run_id) DO UPDATE SET
		is_relevant = EXCLUDED.is_relevant,
		relevance_reasoning = EXCLUDED.relevance_reasoning,
		summary = EXCLUDED.summary,
		bill_status = EXCLUDED.bill_status,
		legislation_type = EXCLUDED.legislation_type,
		categories = EXCLUDED.categories,
		tags = EXCLUDED.tags,
		key_provisions = EXCLUDED.key_provisions,
		palliative_care_impact = EXCLUDED.palliative_care_impact,
		exclusion_check = EXCLUDED.exclusion_check,
		special_flags = EXCLUDED.special_flags,
		full_bill_text = EXCLUDED.full_bill_text,
		timing = EXCLUDED.timing,
		error = EXCLUDED.error,
		analyzed_at = CURRENT_TIMESTAMP
`

const upsertPipelineRunQuery = `
	INSERT INTO pipeline_runs (
		run_id, stage, status, bills_processed, bills_relevant,
		source_file, timing_stats, completed_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (run_id) DO UPDATE SET
		bills_processed = EXCLUDED.bills_processed,
		bills_relevant = EXCLUDED.bills_relevant,
		source_file = EXCLUDED.source_file,
		timing_stats = EXCLUDED.timing_stats,
		completed_at = EXCLUDED.completed_at,
		status = EXCLUDED.status
`

// SaveFilteredResults records one filter_results row per relevant bill.
// Bills that are not present in the bills table cannot be referenced and
// are skipped, matching the dataset-first ingestion order.
func (p *Provider) SaveFilteredResults(ctx context.Context, runID string, results *core.FilterResults) error {
	runKey := storage.FilterRunKey(runID)

	tx, err := p.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, bill := range results.RelevantBills {
		if bill.BillNumber == "" {
			continue
		}
		billID, found, err := lookupBillID(ctx, tx, bill.BillNumber)
		if err != nil {
			return err
		}
		if !found {
			p.logger.Warn("bill not in bills table, skipping filter row",
				"bill_number", bill.BillNumber, "run_id", runKey)
			continue
		}

		if _, err := tx.Exec(ctx, upsertFilterResultQuery, billID, runKey, true, bill.Reason); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, upsertPipelineRunQuery,
		runKey, core.StageFilter, core.StatusCompleted,
		results.Summary.TotalAnalyzed, results.Summary.RelevantCount,
		nilIfEmpty(results.Summary.SourceFile), nil, time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// LoadFilteredResults reassembles a filter-results document from the
// filter_results rows and the run's pipeline_runs summary.
func (p *Provider) LoadFilteredResults(ctx context.Context, runID string) (json.RawMessage, error) {
	runKey := storage.FilterRunKey(runID)

	query := `
		SELECT b.bill_number, COALESCE(b.title, ''), COALESCE(b.url, ''), COALESCE(f.reason, '')
		FROM filter_results f
		JOIN bills b ON f.bill_id = b.bill_id
		WHERE f.run_id = $1 AND f.is_relevant = TRUE
		ORDER BY b.bill_number
	`
	rows, err := p.db.Pool.Query(ctx, query, runKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relevant []core.FilteredBill
	for rows.Next() {
		var bill core.FilteredBill
		if err := rows.Scan(&bill.BillNumber, &bill.Title, &bill.URL, &bill.Reason); err != nil {
			return nil, err
		}
		relevant = append(relevant, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(relevant) == 0 {
		return nil, storage.ErrNotFound
	}

	results := core.FilterResults{RelevantBills: relevant}
	results.Summary = core.RunSummary{
		RelevantCount: len(relevant),
		SourceFile:    runKey,
	}

	var processed, relevantCount int
	var sourceFile *string
	err = p.db.Pool.QueryRow(ctx,
		`SELECT bills_processed, bills_relevant, source_file FROM pipeline_runs WHERE run_id = $1 AND stage = $2`,
		runKey, core.StageFilter,
	).Scan(&processed, &relevantCount, &sourceFile)
	if err == nil {
		results.Summary.TotalAnalyzed = processed
		results.Summary.RelevantCount = relevantCount
		results.Summary.NotRelevantCount = processed - len(relevant)
		if sourceFile != nil {
			results.Summary.SourceFile = *sourceFile
		}
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	return json.Marshal(results)
}

// ListFilteredResults reports stored filter runs using the canonical
// object names, so a listed name loads on any backend.
func (p *Provider) ListFilteredResults(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT 'filter_results_' || run_id AS name
		FROM filter_results
		ORDER BY name
	`
	return p.queryStrings(ctx, query)
}

// SaveAnalysisResults writes one analysis_results row per analyzed bill.
// Envelope metadata, when present on the relevant payload, is kept on the
// pipeline_runs row and reattached on load.
func (p *Provider) SaveAnalysisResults(ctx context.Context, runID string, relevant, notRelevant core.ResultsPayload) error {
	runKey := storage.AnalysisRunKey(runID)

	tx, err := p.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	buckets := []struct {
		records    []core.AnalysisRecord
		isRelevant bool
	}{
		{relevant.Results, true},
		{notRelevant.Results, false},
	}

	for _, bucket := range buckets {
		for _, record := range bucket.records {
			if record.Bill.BillNumber == "" {
				continue
			}
			billID, found, err := lookupBillID(ctx, tx, record.Bill.BillNumber)
			if err != nil {
				return err
			}
			if !found {
				p.logger.Warn("bill not in bills table, skipping analysis row",
					"bill_number", record.Bill.BillNumber, "run_id", runKey)
				continue
			}

			analysis := record.Analysis
			var timingJSON []byte
			if analysis.Timing != nil {
				timingJSON, _ = json.Marshal(analysis.Timing)
			}

			_, err = tx.Exec(ctx, upsertAnalysisResultQuery,
				billID, runKey, bucket.isRelevant,
				analysis.RelevanceReasoning, analysis.Summary,
				analysis.BillStatus, analysis.LegislationType,
				jsonStrings(analysis.Categories),
				jsonStrings(analysis.Tags),
				jsonStrings(analysis.KeyProvisions),
				analysis.PalliativeImpact,
				jsonPtr(analysis.ExclusionCheck),
				jsonPtr(analysis.SpecialFlags),
				nilIfEmpty(analysis.FullBillText),
				timingJSON,
				nilIfEmpty(analysis.Error),
			)
			if err != nil {
				return err
			}
		}
	}

	var sourceFile *string
	var timingStats []byte
	if relevant.Enveloped() {
		if relevant.Summary != nil {
			sourceFile = nilIfEmpty(relevant.Summary.SourceFile)
		}
		if relevant.TimingStats != nil {
			timingStats, _ = json.Marshal(relevant.TimingStats)
		}
	}

	_, err = tx.Exec(ctx, upsertPipelineRunQuery,
		runKey, core.StageAnalysis, core.StatusCompleted,
		relevant.Len()+notRelevant.Len(), relevant.Len(),
		sourceFile, timingStats, time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

const analysisResultColumns = `
	b.bill_number, COALESCE(b.title, ''), COALESCE(b.url, ''),
	a.is_relevant,
	COALESCE(a.relevance_reasoning, ''), COALESCE(a.summary, ''),
	COALESCE(a.bill_status, ''), COALESCE(a.legislation_type, ''),
	COALESCE(a.categories, '[]'::jsonb), COALESCE(a.tags, '[]'::jsonb),
	COALESCE(a.key_provisions, '[]'::jsonb),
	COALESCE(a.palliative_care_impact, ''),
	COALESCE(a.exclusion_check, '{}'::jsonb), COALESCE(a.special_flags, '{}'::jsonb),
	COALESCE(a.full_bill_text, ''), a.timing, COALESCE(a.error, '')
`

// LoadAnalysisResults partitions the run's rows back into the relevant
// and not-relevant payloads.
func (p *Provider) LoadAnalysisResults(ctx context.Context, runID string) (core.ResultsPayload, core.ResultsPayload, error) {
	runKey := storage.AnalysisRunKey(runID)

	query := `
		SELECT ` + analysisResultColumns + `
		FROM analysis_results a
		JOIN bills b ON a.bill_id = b.bill_id
		WHERE a.run_id = $1
		ORDER BY b.bill_number
	`
	rows, err := p.db.Pool.Query(ctx, query, runKey)
	if err != nil {
		return core.ResultsPayload{}, core.ResultsPayload{}, err
	}
	defer rows.Close()

	var relevantRecords, notRelevantRecords []core.AnalysisRecord
	for rows.Next() {
		record, isRelevant, err := scanAnalysisRecord(rows)
		if err != nil {
			return core.ResultsPayload{}, core.ResultsPayload{}, err
		}
		if isRelevant {
			relevantRecords = append(relevantRecords, record)
		} else {
			notRelevantRecords = append(notRelevantRecords, record)
		}
	}
	if err := rows.Err(); err != nil {
		return core.ResultsPayload{}, core.ResultsPayload{}, err
	}
	if len(relevantRecords) == 0 && len(notRelevantRecords) == 0 {
		return core.ResultsPayload{}, core.ResultsPayload{}, storage.ErrNotFound
	}

	relevant := core.NewResultsList(relevantRecords)
	notRelevant := core.NewResultsList(notRelevantRecords)

	// Reattach envelope metadata if the run recorded any.
	var processed, relevantCount int
	var sourceFile *string
	var timingStats []byte
	err = p.db.Pool.QueryRow(ctx,
		`SELECT bills_processed, bills_relevant, source_file, timing_stats FROM pipeline_runs WHERE run_id = $1 AND stage = $2`,
		runKey, core.StageAnalysis,
	).Scan(&processed, &relevantCount, &sourceFile, &timingStats)
	if err != nil && err != pgx.ErrNoRows {
		return core.ResultsPayload{}, core.ResultsPayload{}, err
	}
	if err == nil && (sourceFile != nil || len(timingStats) > 0) {
		summary := &core.RunSummary{
			TotalAnalyzed:    processed,
			RelevantCount:    relevantCount,
			NotRelevantCount: processed - relevantCount,
		}
		if sourceFile != nil {
			summary.SourceFile = *sourceFile
		}
		var stats *core.TimingStats
		if len(timingStats) > 0 {
			stats = &core.TimingStats{}
			if err := json.Unmarshal(timingStats, stats); err != nil {
				stats = nil
			}
		}
		relevant = core.NewResultsEnvelope(relevantRecords, summary, stats)
	}

	return relevant, notRelevant, nil
}

func scanAnalysisRecord(rows pgx.Rows) (core.AnalysisRecord, bool, error) {
	var (
		record     core.AnalysisRecord
		isRelevant bool

		categories, tags, keyProvisions []byte
		exclusionCheck, specialFlags    []byte
		timing                          []byte
	)

	err := rows.Scan(
		&record.Bill.BillNumber, &record.Bill.Title, &record.Bill.URL,
		&isRelevant,
		&record.Analysis.RelevanceReasoning, &record.Analysis.Summary,
		&record.Analysis.BillStatus, &record.Analysis.LegislationType,
		&categories, &tags, &keyProvisions,
		&record.Analysis.PalliativeImpact,
		&exclusionCheck, &specialFlags,
		&record.Analysis.FullBillText, &timing, &record.Analysis.Error,
	)
	if err != nil {
		return core.AnalysisRecord{}, false, err
	}

	record.Analysis.IsRelevant = isRelevant
	record.Analysis.Categories = unmarshalStrings(categories)
	record.Analysis.Tags = unmarshalStrings(tags)
	record.Analysis.KeyProvisions = unmarshalStrings(keyProvisions)
	record.Analysis.ExclusionCheck = unmarshalObject[core.ExclusionCheck](exclusionCheck)
	record.Analysis.SpecialFlags = unmarshalObject[core.SpecialFlags](specialFlags)
	if len(timing) > 0 {
		var t core.Timing
		if err := json.Unmarshal(timing, &t); err == nil {
			record.Analysis.Timing = &t
		}
	}

	return record, isRelevant, nil
}

// RecordPipelineRun upserts an audit row for a pass.
func (p *Provider) RecordPipelineRun(ctx context.Context, run *core.PipelineRun) error {
	_, err := p.db.Pool.Exec(ctx, upsertPipelineRunQuery,
		run.RunID, run.Stage, run.Status,
		run.BillsProcessed, run.BillsRelevant,
		nil, nil, run.CompletedAt,
	)
	return err
}

// GetPipelineRuns returns recorded runs, most recent first.
func (p *Provider) GetPipelineRuns(ctx context.Context) ([]*core.PipelineRun, error) {
	query := `
		SELECT run_id, stage, status, bills_processed, bills_relevant, completed_at
		FROM pipeline_runs
		ORDER BY started_at DESC
	`
	rows, err := p.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*core.PipelineRun
	for rows.Next() {
		var run core.PipelineRun
		var completedAt *time.Time
		if err := rows.Scan(&run.RunID, &run.Stage, &run.Status,
			&run.BillsProcessed, &run.BillsRelevant, &completedAt); err != nil {
			return nil, err
		}
		if completedAt != nil {
			run.CompletedAt = *completedAt
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

func lookupBillID(ctx context.Context, tx pgx.Tx, billNumber string) (int64, bool, error) {
	var billID int64
	err := tx.QueryRow(ctx,
		`SELECT bill_id FROM bills WHERE bill_number = $1 LIMIT 1`, billNumber,
	).Scan(&billID)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return billID, true, nil
}

// JSON column helpers. String slices and the flag structs contain only
// marshalable fields, so their Marshal calls cannot fail.

func jsonStrings(v []string) []byte {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return b
}

func jsonPtr[T any](v *T) []byte {
	if v == nil {
		return []byte("{}")
	}
	b, _ := json.Marshal(v)
	return b
}

func unmarshalStrings(b []byte) []string {
	var v []string
	if len(b) > 0 {
		_ = json.Unmarshal(b, &v)
	}
	if len(v) == 0 {
		return nil
	}
	return v
}

// unmarshalObject decodes a JSONB object column, mapping the empty
// object back to a nil pointer.
func unmarshalObject[T any](b []byte) *T {
	if len(b) == 0 || string(b) == "{}" {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal(b, v); err != nil {
		return nil
	}
	return v
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
