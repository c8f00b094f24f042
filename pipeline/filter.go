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

// Package pipeline implements the two AI passes over fetched bill data: a
// batched relevance filter and a per-bill deep analysis. Both passes run
// strictly sequentially; upstream rate limits are respected with fixed
// inter-call delays, not concurrency control. Failures are isolated to the
// batch or bill that caused them, so a run always finishes with a summary.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/billscan/ai"
	"github.com/poiesic/billscan/core"
	"github.com/poiesic/billscan/hooks"
	"github.com/poiesic/billscan/storage"
)

// DefaultBatchSize is how many bills share one filter model call.
const DefaultBatchSize = 50

// FilterConfig carries the tunable parameters of the filter pass. Zero
// fields fall back to DefaultFilterConfig values.
type FilterConfig struct {
	// Prompt is the system prompt sent with every batch.
	Prompt string

	// BatchSize is the number of bills per model call.
	BatchSize int

	// Temperature is the sampling temperature for filter calls.
	Temperature float64

	// MaxTokens caps the response size. Batches need room for one result
	// per bill, so this sits far above a single-item budget.
	MaxTokens int

	// BatchDelay is the pause between consecutive batches. A negative
	// value disables the pause.
	BatchDelay time.Duration

	// Timeout bounds each model call.
	Timeout time.Duration
}

// DefaultFilterConfig returns the production defaults.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		Prompt:      DefaultFilterPrompt,
		BatchSize:   DefaultBatchSize,
		Temperature: 0.3,
		MaxTokens:   8000,
		BatchDelay:  time.Second,
		Timeout:     3 * time.Minute,
	}
}

func (c FilterConfig) withDefaults() FilterConfig {
	defaults := DefaultFilterConfig()
	if c.Prompt == "" {
		c.Prompt = defaults.Prompt
	}
	if c.BatchSize < 1 {
		c.BatchSize = defaults.BatchSize
	}
	if c.Temperature == 0 {
		c.Temperature = defaults.Temperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaults.MaxTokens
	}
	if c.BatchDelay == 0 {
		c.BatchDelay = defaults.BatchDelay
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	return c
}

// FilterPass screens bills for relevance in batches, one model call per
// batch. It is stateless between runs beyond its configuration.
type FilterPass struct {
	provider ai.Provider
	store    storage.Provider
	hooks    *hooks.Manager
	cfg      FilterConfig
	logger   *slog.Logger
}

// FilterOption configures a FilterPass.
type FilterOption func(*FilterPass)

// WithFilterHooks attaches a hook manager. PreFilter hooks see the batch
// JSON before the model call; PostFilter hooks see the raw response before
// parsing.
func WithFilterHooks(manager *hooks.Manager) FilterOption {
	return func(p *FilterPass) {
		p.hooks = manager
	}
}

// NewFilterPass creates a filter pass over the given model provider and
// storage.
func NewFilterPass(provider ai.Provider, store storage.Provider, cfg FilterConfig, opts ...FilterOption) (*FilterPass, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if store == nil {
		return nil, ErrStorageRequired
	}

	p := &FilterPass{
		provider: provider,
		store:    store,
		cfg:      cfg.withDefaults(),
		logger:   slog.Default().With("component", "filter"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// FilterBatch classifies one already-chunked batch of bills with a single
// model call. The response must carry a results array; anything else is an
// InvalidResponseShapeError.
func (p *FilterPass) FilterBatch(ctx context.Context, batchJSON string) ([]core.FilterOutcome, error) {
	data := batchJSON
	if p.hooks != nil {
		data = p.hooks.Execute(ctx, hooks.PreFilter, data, hooks.Context{})
	}

	messages := []ai.Message{
		ai.SystemMessage(p.cfg.Prompt),
		ai.UserMessage(data),
	}

	cctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	response, err := p.provider.ChatCompletion(cctx, messages,
		ai.WithTemperature(p.cfg.Temperature),
		ai.WithMaxTokens(p.cfg.MaxTokens))
	if err != nil {
		return nil, err
	}

	if p.hooks != nil {
		response = p.hooks.Execute(ctx, hooks.PostFilter, response, hooks.Context{})
	}

	outcomes, err := parseFilterResponse(response)
	if err != nil {
		return nil, err
	}

	p.logger.Info("batch filter processed", "items", len(outcomes))
	return outcomes, nil
}

// filterEntry is one per-bill verdict inside the model's results array.
// Missing fields get the historical placeholder values.
type filterEntry struct {
	BillIdentifier string `json:"bill_identifier"`
	Relevant       bool   `json:"relevant"`
	Reason         string `json:"reason"`
}

func parseFilterResponse(response string) ([]core.FilterOutcome, error) {
	cleaned := ai.StripFences(response)
	if isJSONArray(json.RawMessage(cleaned)) {
		return nil, &InvalidResponseShapeError{Detail: "missing 'results' array"}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		if rerr := json.Unmarshal([]byte(ai.RepairJSON(cleaned)), &envelope); rerr != nil {
			return nil, fmt.Errorf("parsing filter response: %w", err)
		}
	}

	results, ok := envelope["results"]
	if !ok {
		return nil, &InvalidResponseShapeError{Detail: "missing 'results' array"}
	}
	if !isJSONArray(results) {
		return nil, &InvalidResponseShapeError{Detail: "'results' must be an array"}
	}

	var entries []filterEntry
	if err := json.Unmarshal(results, &entries); err != nil {
		return nil, fmt.Errorf("parsing filter results: %w", err)
	}

	outcomes := make([]core.FilterOutcome, 0, len(entries))
	for _, entry := range entries {
		if entry.BillIdentifier == "" {
			entry.BillIdentifier = "Unknown"
		}
		if entry.Reason == "" {
			entry.Reason = "No reason provided"
		}
		outcomes = append(outcomes, core.FilterOutcome{
			BillNumber: entry.BillIdentifier,
			IsRelevant: entry.Relevant,
			Reason:     entry.Reason,
		})
	}
	return outcomes, nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

// Run filters every bill in the named raw dataset and persists the
// partitioned results under the dataset's name. A failing batch is logged
// and skipped; the run continues and the final summary is always logged.
func (p *FilterPass) Run(ctx context.Context, sourceName string) (*core.FilterResults, error) {
	runID := storage.RawName(sourceName)

	doc, err := p.store.LoadRawData(ctx, runID)
	if err != nil {
		return nil, err
	}

	bills, err := core.ExtractBills(doc)
	if err != nil {
		return nil, err
	}
	if len(bills) == 0 {
		return nil, fmt.Errorf("%w: dataset %s", ErrNoBills, runID)
	}

	byNumber := make(map[string]core.BillRecord, len(bills))
	for _, bill := range bills {
		byNumber[bill.BillNumber] = bill
	}

	batches := (len(bills) + p.cfg.BatchSize - 1) / p.cfg.BatchSize
	p.logger.Info("starting filter pass", "source", runID, "bills", len(bills), "batches", batches)

	var outcomes []core.FilterOutcome
	failedBatches := 0
	for i := 0; i < batches; i++ {
		start := i * p.cfg.BatchSize
		end := min(start+p.cfg.BatchSize, len(bills))

		batchOutcomes, err := p.runBatch(ctx, bills[start:end])
		if err != nil {
			p.logger.Error("batch failed, skipping", "batch", i+1, "batches", batches, "err", err)
			failedBatches++
			continue
		}
		outcomes = append(outcomes, batchOutcomes...)

		if i < batches-1 && p.cfg.BatchDelay > 0 {
			time.Sleep(p.cfg.BatchDelay)
		}
	}

	results := partitionOutcomes(outcomes, byNumber, runID)

	p.logger.Info("filter pass complete",
		"total_analyzed", results.Summary.TotalAnalyzed,
		"relevant", results.Summary.RelevantCount,
		"not_relevant", results.Summary.NotRelevantCount,
		"failed_batches", failedBatches)

	if err := p.store.SaveFilteredResults(ctx, runID, results); err != nil {
		return nil, fmt.Errorf("saving filter results: %w", err)
	}

	status := core.StatusCompleted
	if failedBatches == batches {
		status = core.StatusFailed
	}
	p.recordRun(ctx, runID, status, results)

	return results, nil
}

func (p *FilterPass) runBatch(ctx context.Context, batch []core.BillRecord) ([]core.FilterOutcome, error) {
	batchJSON, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding batch: %w", err)
	}
	return p.FilterBatch(ctx, string(batchJSON))
}

// partitionOutcomes splits the concatenated batch outcomes into relevant
// and not-relevant bills, joining each outcome back to its source record.
// An outcome naming an unknown bill keeps placeholder title and URL rather
// than being dropped.
func partitionOutcomes(outcomes []core.FilterOutcome, byNumber map[string]core.BillRecord, sourceFile string) *core.FilterResults {
	results := &core.FilterResults{
		Summary: core.RunSummary{
			TotalAnalyzed: len(outcomes),
			SourceFile:    sourceFile,
		},
		RelevantBills:    []core.FilteredBill{},
		NotRelevantBills: []core.FilteredBill{},
	}

	for _, outcome := range outcomes {
		entry := core.FilteredBill{
			BillNumber: outcome.BillNumber,
			Title:      "Unknown",
			URL:        "N/A",
			Reason:     outcome.Reason,
		}
		if bill, ok := byNumber[outcome.BillNumber]; ok {
			entry.Title = bill.Title
			if bill.URL != "" {
				entry.URL = bill.URL
			}
		}

		if outcome.IsRelevant {
			results.RelevantBills = append(results.RelevantBills, entry)
		} else {
			results.NotRelevantBills = append(results.NotRelevantBills, entry)
		}
	}

	results.Summary.RelevantCount = len(results.RelevantBills)
	results.Summary.NotRelevantCount = len(results.NotRelevantBills)
	return results
}

func (p *FilterPass) recordRun(ctx context.Context, runID, status string, results *core.FilterResults) {
	recorder, ok := p.store.(storage.RunRecorder)
	if !ok {
		return
	}

	run := &core.PipelineRun{
		RunID:          runID,
		Stage:          core.StageFilter,
		Status:         status,
		BillsProcessed: results.Summary.TotalAnalyzed,
		BillsRelevant:  results.Summary.RelevantCount,
		CompletedAt:    time.Now().UTC(),
	}
	if err := recorder.RecordPipelineRun(ctx, run); err != nil {
		p.logger.Warn("could not record pipeline run", "run_id", runID, "err", err)
	}
}
