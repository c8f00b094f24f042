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

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/billscan/ai"
	"github.com/poiesic/billscan/core"
	"github.com/poiesic/billscan/hooks"
	"github.com/poiesic/billscan/legiscan"
	"github.com/poiesic/billscan/normalize"
	"github.com/poiesic/billscan/storage"
)

// AnalysisConfig carries the tunable parameters of the analysis pass.
// Zero fields fall back to DefaultAnalysisConfig values.
type AnalysisConfig struct {
	// AnalysisPrompt is the user prompt template. Its {data} placeholder
	// is replaced with the formatted bill block.
	AnalysisPrompt string

	// SystemPrompt frames the model's role and output schema.
	SystemPrompt string

	// Temperature is the sampling temperature for analysis calls.
	Temperature float64

	// MaxTokens caps each response.
	MaxTokens int

	// Timeout bounds each model call.
	Timeout time.Duration

	// APIDelay is the pause between consecutive bills. Zero is fine when
	// bill records come from cache.
	APIDelay time.Duration

	// Limit caps how many bills are analyzed. When the document holds
	// more, SelectSample picks which ones. Zero analyzes everything.
	Limit int
}

// DefaultAnalysisConfig returns the production defaults.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		AnalysisPrompt: DefaultAnalysisPrompt,
		SystemPrompt:   DefaultAnalysisSystemPrompt,
		Temperature:    0.3,
		MaxTokens:      2000,
		Timeout:        90 * time.Second,
	}
}

func (c AnalysisConfig) withDefaults() AnalysisConfig {
	defaults := DefaultAnalysisConfig()
	if c.AnalysisPrompt == "" {
		c.AnalysisPrompt = defaults.AnalysisPrompt
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = defaults.SystemPrompt
	}
	if c.Temperature == 0 {
		c.Temperature = defaults.Temperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaults.MaxTokens
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	return c
}

// AnalysisPass produces a structured verdict for each filtered bill. Each
// bill moves through enrich, prompt-format, classify, and persist stages
// in order; a failure at any stage degrades that bill's result and the
// loop moves on.
type AnalysisPass struct {
	provider ai.Provider
	store    storage.Provider
	client   *legiscan.Client
	hooks    *hooks.Manager
	cfg      AnalysisConfig
	source   string
	logger   *slog.Logger
}

// AnalysisOption configures an AnalysisPass.
type AnalysisOption func(*AnalysisPass)

// WithLegiScan enables the enrich stage: bill records and document text
// are fetched through the given cached client and spliced into the
// analysis prompt. Without it every bill is analyzed from metadata only.
func WithLegiScan(client *legiscan.Client) AnalysisOption {
	return func(p *AnalysisPass) {
		p.client = client
	}
}

// WithAnalysisHooks attaches a hook manager. PreAnalysis hooks see the
// formatted bill data before the model call; PostAnalysis hooks see the
// raw response before parsing.
func WithAnalysisHooks(manager *hooks.Manager) AnalysisOption {
	return func(p *AnalysisPass) {
		p.hooks = manager
	}
}

// WithSourceDataset pins the raw dataset used for bill id lookups. By
// default the dataset name is derived from the bills' LegiScan URLs.
func WithSourceDataset(name string) AnalysisOption {
	return func(p *AnalysisPass) {
		p.source = storage.RawName(name)
	}
}

// WithLimit caps the pass at n bills chosen by SelectSample. Zero or
// negative analyzes everything.
func WithLimit(n int) AnalysisOption {
	return func(p *AnalysisPass) {
		p.cfg.Limit = n
	}
}

// NewAnalysisPass creates an analysis pass over the given model provider
// and storage.
func NewAnalysisPass(provider ai.Provider, store storage.Provider, cfg AnalysisConfig, opts ...AnalysisOption) (*AnalysisPass, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if store == nil {
		return nil, ErrStorageRequired
	}

	p := &AnalysisPass{
		provider: provider,
		store:    store,
		cfg:      cfg.withDefaults(),
		logger:   slog.Default().With("component", "analysis"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run analyzes every bill in the named filter-results document and
// persists both verdict buckets under the bare run key. Per-bill failures
// become degraded not-relevant records; the loop always continues, and the
// final summary is always logged.
func (p *AnalysisPass) Run(ctx context.Context, runID string) (*Report, error) {
	doc, err := p.store.LoadFilteredResults(ctx, runID)
	if err != nil {
		return nil, err
	}

	bills, err := normalize.Normalize(doc)
	if err != nil {
		return nil, err
	}
	if len(bills) == 0 {
		return nil, fmt.Errorf("%w: filter results %s", ErrNoBills, runID)
	}

	if p.cfg.Limit > 0 && len(bills) > p.cfg.Limit {
		bills = SelectSample(bills, p.cfg.Limit)
		p.logger.Info("analyzing a sample of the filtered bills", "sample", len(bills), "limit", p.cfg.Limit)
	}

	runKey := storage.FilterRunKey(runID)
	ids := p.billIDs(ctx, bills)

	p.logger.Info("starting analysis pass", "run_id", runKey, "bills", len(bills))

	relevant := []core.AnalysisRecord{}
	notRelevant := []core.AnalysisRecord{}
	stats := core.TimingStats{}

	for i, bill := range bills {
		p.logger.Info("analyzing bill", "bill_number", bill.BillNumber, "index", i+1, "total", len(bills))

		billID := ids[bill.BillNumber]
		record := p.analyzeOne(ctx, runKey, bill, billID)

		if timing := record.Analysis.Timing; timing != nil {
			stats.TotalSeconds += timing.TotalSeconds
			if p.client != nil && billID != 0 {
				if timing.CacheHit {
					stats.CacheHits++
				} else {
					stats.CacheMisses++
				}
			}
		}

		if record.Analysis.IsRelevant {
			relevant = append(relevant, record)
		} else {
			notRelevant = append(notRelevant, record)
		}

		if i < len(bills)-1 && p.cfg.APIDelay > 0 {
			time.Sleep(p.cfg.APIDelay)
		}
	}

	stats.AvgSecondsPerBill = stats.TotalSeconds / float64(len(bills))

	summary := core.RunSummary{
		TotalAnalyzed:    len(bills),
		RelevantCount:    len(relevant),
		NotRelevantCount: len(notRelevant),
		SourceFile:       storage.FilterResultsName(runID),
	}

	report := buildReport(runKey, summary, stats, relevant, notRelevant)
	p.logReport(report)

	err = p.store.SaveAnalysisResults(ctx, runKey,
		core.NewResultsEnvelope(relevant, &summary, &stats),
		core.NewResultsList(notRelevant))
	if err != nil {
		return nil, fmt.Errorf("saving analysis results: %w", err)
	}

	status := core.StatusCompleted
	if report.ErrorCount == summary.TotalAnalyzed {
		status = core.StatusFailed
	}
	p.recordRun(ctx, runKey, status, report)

	return report, nil
}

// analyzeOne runs the per-bill stage machine. It never returns an error:
// classify failures produce a degraded record carrying the error text, so
// aggregate counts stay consistent.
func (p *AnalysisPass) analyzeOne(ctx context.Context, runID string, bill core.NormalizedBill, billID int64) core.AnalysisRecord {
	start := time.Now()
	timing := &core.Timing{}

	data := formatBillForAnalysis(bill)

	fullText := ""
	switch {
	case billID != 0 && p.client != nil:
		if fullText = p.enrich(ctx, bill.BillNumber, billID, timing); fullText != "" {
			data += legiscan.BillDetailsHeading + fullText
		}
	case billID != 0:
		p.logger.Warn("legiscan client not configured, analyzing with metadata only",
			"bill_number", bill.BillNumber)
	}

	hctx := hooks.Context{RunID: runID}
	if billID != 0 {
		hctx.ItemID = strconv.FormatInt(billID, 10)
	}
	if p.hooks != nil {
		data = p.hooks.Execute(ctx, hooks.PreAnalysis, data, hctx)
	}

	prompt := strings.ReplaceAll(p.cfg.AnalysisPrompt, "{data}", data)
	messages := []ai.Message{
		ai.SystemMessage(p.cfg.SystemPrompt),
		ai.UserMessage(prompt),
	}

	aiStart := time.Now()
	cctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	response, err := p.provider.ChatCompletion(cctx, messages,
		ai.WithTemperature(p.cfg.Temperature),
		ai.WithMaxTokens(p.cfg.MaxTokens))
	cancel()
	timing.AIAnalysisSeconds = time.Since(aiStart).Seconds()

	var analysis core.Analysis
	if err != nil {
		p.logger.Error("analysis call failed", "bill_number", bill.BillNumber, "err", err)
		analysis = core.Analysis{Error: err.Error()}
	} else {
		if p.hooks != nil {
			response = p.hooks.Execute(ctx, hooks.PostAnalysis, response, hctx)
		}
		analysis = parseAnalysis(response)
		if analysis.Failed() {
			p.logger.Error("could not parse analysis response", "bill_number", bill.BillNumber, "err", analysis.Error)
		} else {
			analysis.FullBillText = fullText
		}
	}

	timing.TotalSeconds = time.Since(start).Seconds()
	analysis.Timing = timing

	return core.AnalysisRecord{
		Bill: core.FilteredBill{
			BillNumber:    bill.BillNumber,
			Title:         bill.Title,
			URL:           bill.URL,
			Reason:        bill.Reason,
			ExtraMetadata: bill.ExtraMetadata,
		},
		Analysis: analysis,
	}
}

// enrich fetches the bill record and its latest document text through the
// cached client, timing each phase. Any failure returns what was
// assembled so far; the caller proceeds with metadata only.
func (p *AnalysisPass) enrich(ctx context.Context, billNumber string, billID int64, timing *core.Timing) string {
	if _, err := p.store.GetBillFromCache(ctx, billID); err == nil {
		timing.CacheHit = true
	}

	apiStart := time.Now()
	raw, err := p.client.GetBill(ctx, billID)
	timing.LegiScanAPISeconds = time.Since(apiStart).Seconds()
	if err != nil {
		p.logger.Warn("could not fetch bill, analyzing with metadata only",
			"bill_number", billNumber, "bill_id", billID, "err", err)
		return ""
	}

	bill, err := legiscan.ParseBill(raw)
	if err != nil {
		p.logger.Warn("could not decode bill record, analyzing with metadata only",
			"bill_number", billNumber, "bill_id", billID, "err", err)
		return ""
	}

	docText := ""
	if docID, ok := bill.LatestDocID(); ok {
		textStart := time.Now()
		docText, err = p.client.GetBillText(ctx, docID)
		timing.TextExtractionSeconds = time.Since(textStart).Seconds()
		if err != nil {
			p.logger.Warn("could not fetch bill text, formatting metadata only",
				"bill_number", billNumber, "doc_id", docID, "err", err)
			docText = ""
		}
	}

	return legiscan.FormatBillText(bill, docText)
}

// parseAnalysis decodes the model's verdict. A malformed response becomes
// a degraded not-relevant result instead of an error.
func parseAnalysis(response string) core.Analysis {
	cleaned := ai.StripFences(response)

	var analysis core.Analysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		var repaired core.Analysis
		if rerr := json.Unmarshal([]byte(ai.RepairJSON(cleaned)), &repaired); rerr != nil {
			return core.Analysis{Error: fmt.Sprintf("JSON parsing failed: %v", err)}
		}
		return repaired
	}
	return analysis
}

// formatBillForAnalysis renders the metadata block at the top of every
// analysis prompt.
func formatBillForAnalysis(bill core.NormalizedBill) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Bill Number**: %s\n", bill.BillNumber)
	fmt.Fprintf(&b, "**Title**: %s\n", bill.Title)
	fmt.Fprintf(&b, "**URL**: %s", bill.URL)

	if bill.Reason != "" {
		fmt.Fprintf(&b, "\n**Filter Reason**: %s", bill.Reason)
	}

	if extra := bill.ExtraMetadata; extra != nil {
		b.WriteString("\n\n**Additional Metadata**:")
		if extra.SimilarityScore != 0 {
			fmt.Fprintf(&b, "\n- Similarity Score: %.4f", extra.SimilarityScore)
		}
		if extra.Distance != 0 {
			fmt.Fprintf(&b, "\n- Distance: %.4f", extra.Distance)
		}
		if extra.StatusDate != "" {
			fmt.Fprintf(&b, "\n- Status Date: %s", extra.StatusDate)
		}
		if extra.LastAction != "" {
			fmt.Fprintf(&b, "\n- Last Action: %s", extra.LastAction)
		}
		if extra.Year != 0 {
			fmt.Fprintf(&b, "\n- Year: %d", extra.Year)
		}
		if extra.Session != "" {
			fmt.Fprintf(&b, "\n- Session: %s", extra.Session)
		}
	}

	return b.String()
}

// billIDs builds the bill number to upstream id index the enrich stage
// uses. Ids come from normalizer extra metadata when present, otherwise
// from the raw dataset the filter pass ran over. Bills without an id are
// analyzed from metadata only, never skipped.
func (p *AnalysisPass) billIDs(ctx context.Context, bills []core.NormalizedBill) map[string]int64 {
	return lookupBillIDs(ctx, p.store, p.logger, p.source, bills)
}

// lookupBillIDs resolves bill numbers to upstream ids, preferring
// normalizer extra metadata and falling back to the raw dataset named by
// source (empty derives it from the bills' URLs). Unresolvable bills are
// logged and left out of the map.
func lookupBillIDs(ctx context.Context, store storage.Provider, logger *slog.Logger, source string, bills []core.NormalizedBill) map[string]int64 {
	ids := make(map[string]int64, len(bills))
	needLookup := false
	for _, bill := range bills {
		if bill.ExtraMetadata != nil && bill.ExtraMetadata.BillID != 0 {
			ids[bill.BillNumber] = bill.ExtraMetadata.BillID
		} else {
			needLookup = true
		}
	}
	if !needLookup {
		return ids
	}

	if source == "" {
		source = deriveSourceName(bills)
	}

	doc, err := store.LoadRawData(ctx, source)
	if err != nil {
		logger.Warn("source dataset unavailable, bills without ids get metadata-only analysis",
			"source", source, "err", err)
		return ids
	}

	index, err := billIDIndex(doc)
	if err != nil {
		logger.Warn("could not index source dataset", "source", source, "err", err)
		return ids
	}

	for _, bill := range bills {
		if _, ok := ids[bill.BillNumber]; ok {
			continue
		}
		if id, ok := index[bill.BillNumber]; ok {
			ids[bill.BillNumber] = id
		} else {
			logger.Warn("could not find bill id, analyzing with metadata only",
				"bill_number", bill.BillNumber)
		}
	}
	return ids
}

func billIDIndex(doc json.RawMessage) (map[string]int64, error) {
	raws, err := core.ExtractRawBills(doc)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int64, len(raws))
	for _, raw := range raws {
		var probe struct {
			BillID     json.Number `json:"bill_id"`
			BillNumber string      `json:"bill_number"`
			Number     string      `json:"number"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			continue
		}

		number := probe.BillNumber
		if number == "" {
			number = probe.Number
		}
		id, err := probe.BillID.Int64()
		if number == "" || err != nil {
			continue
		}
		index[number] = id
	}
	return index, nil
}

var (
	statePattern = regexp.MustCompile(`legiscan\.com/([A-Z]{2})/`)
	yearPattern  = regexp.MustCompile(`/(\d{4})$`)
)

// deriveSourceName recovers the raw dataset name from bill URLs, e.g.
// https://legiscan.com/CT/bill/HB05485/2025 names ct_bills_2025. Bills
// from fallback partition entries carry no usable URL, so the first
// parsable one wins.
func deriveSourceName(bills []core.NormalizedBill) string {
	state, year := "ct", "2025"
	for _, bill := range bills {
		m := statePattern.FindStringSubmatch(bill.URL)
		if m == nil {
			continue
		}
		state = strings.ToLower(m[1])
		if y := yearPattern.FindStringSubmatch(bill.URL); y != nil {
			year = y[1]
		}
		break
	}
	return fmt.Sprintf("%s_bills_%s", state, year)
}

func (p *AnalysisPass) recordRun(ctx context.Context, runID, status string, report *Report) {
	recorder, ok := p.store.(storage.RunRecorder)
	if !ok {
		return
	}

	run := &core.PipelineRun{
		RunID:          runID,
		Stage:          core.StageAnalysis,
		Status:         status,
		BillsProcessed: report.Summary.TotalAnalyzed,
		BillsRelevant:  report.Summary.RelevantCount,
		CompletedAt:    time.Now().UTC(),
	}
	if err := recorder.RecordPipelineRun(ctx, run); err != nil {
		p.logger.Warn("could not record pipeline run", "run_id", runID, "err", err)
	}
}
