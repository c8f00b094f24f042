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

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/billscan/core"
)

// Mirror is a Provider that duplicates every write to a secondary
// backend. It exists for storage migrations: a team moving from files to
// the relational backend keeps the file tree current until the cutover
// completes. Reads always come from the primary, and a mirror-write
// failure never rolls back the primary write. In strict mode the failure
// is surfaced to the caller after the primary write has succeeded;
// otherwise it is logged and swallowed.
type Mirror struct {
	primary   Provider
	secondary Provider
	strict    bool
	logger    *slog.Logger
}

var _ Provider = (*Mirror)(nil)

// NewMirror wraps primary so that writes are duplicated to secondary.
func NewMirror(primary, secondary Provider, strict bool) Provider {
	return &Mirror{
		primary:   primary,
		secondary: secondary,
		strict:    strict,
		logger:    slog.Default().With("component", "storage.mirror"),
	}
}

// mirrored handles a secondary-write result according to the configured
// failure mode. The primary write has already succeeded by the time this
// runs.
func (m *Mirror) mirrored(op string, err error) error {
	if err == nil {
		return nil
	}
	if m.strict {
		return fmt.Errorf("dual write %s: %w", op, err)
	}
	m.logger.Warn("dual write failed", "op", op, "err", err)
	return nil
}

func (m *Mirror) SaveRawData(ctx context.Context, name string, data json.RawMessage) error {
	if err := m.primary.SaveRawData(ctx, name, data); err != nil {
		return err
	}
	return m.mirrored("raw data", m.secondary.SaveRawData(ctx, name, data))
}

func (m *Mirror) LoadRawData(ctx context.Context, name string) (json.RawMessage, error) {
	return m.primary.LoadRawData(ctx, name)
}

func (m *Mirror) SaveFilteredResults(ctx context.Context, runID string, results *core.FilterResults) error {
	if err := m.primary.SaveFilteredResults(ctx, runID, results); err != nil {
		return err
	}
	return m.mirrored("filtered results", m.secondary.SaveFilteredResults(ctx, runID, results))
}

func (m *Mirror) LoadFilteredResults(ctx context.Context, runID string) (json.RawMessage, error) {
	return m.primary.LoadFilteredResults(ctx, runID)
}

func (m *Mirror) SaveAnalysisResults(ctx context.Context, runID string, relevant, notRelevant core.ResultsPayload) error {
	if err := m.primary.SaveAnalysisResults(ctx, runID, relevant, notRelevant); err != nil {
		return err
	}
	return m.mirrored("analysis results", m.secondary.SaveAnalysisResults(ctx, runID, relevant, notRelevant))
}

func (m *Mirror) LoadAnalysisResults(ctx context.Context, runID string) (core.ResultsPayload, core.ResultsPayload, error) {
	return m.primary.LoadAnalysisResults(ctx, runID)
}

func (m *Mirror) GetBillFromCache(ctx context.Context, billID int64) (json.RawMessage, error) {
	return m.primary.GetBillFromCache(ctx, billID)
}

func (m *Mirror) SaveBillToCache(ctx context.Context, billID int64, data json.RawMessage) error {
	if err := m.primary.SaveBillToCache(ctx, billID, data); err != nil {
		return err
	}
	return m.mirrored("bill cache", m.secondary.SaveBillToCache(ctx, billID, data))
}

func (m *Mirror) GetBillTextFromCache(ctx context.Context, docID int64) (string, error) {
	return m.primary.GetBillTextFromCache(ctx, docID)
}

func (m *Mirror) SaveBillTextToCache(ctx context.Context, docID int64, text string) error {
	if err := m.primary.SaveBillTextToCache(ctx, docID, text); err != nil {
		return err
	}
	return m.mirrored("bill text cache", m.secondary.SaveBillTextToCache(ctx, docID, text))
}

func (m *Mirror) ListRawFiles(ctx context.Context) ([]string, error) {
	return m.primary.ListRawFiles(ctx)
}

func (m *Mirror) ListFilteredResults(ctx context.Context) ([]string, error) {
	return m.primary.ListFilteredResults(ctx)
}

func (m *Mirror) BillExistsInRaw(ctx context.Context, billNumber, name string) (bool, error) {
	return m.primary.BillExistsInRaw(ctx, billNumber, name)
}

func (m *Mirror) GetBillByNumber(ctx context.Context, billNumber, name string) (json.RawMessage, error) {
	return m.primary.GetBillByNumber(ctx, billNumber, name)
}

// Close closes both backends. The secondary is closed even if the primary
// fails; the primary's error wins.
func (m *Mirror) Close() error {
	primaryErr := m.primary.Close()
	if err := m.secondary.Close(); err != nil {
		m.logger.Error("error closing mirror backend", "err", err)
		if primaryErr == nil {
			primaryErr = err
		}
	}
	return primaryErr
}

// RecordPipelineRun forwards to the primary when it keeps an audit trail.
// Mirrored file backends do not record runs.
func (m *Mirror) RecordPipelineRun(ctx context.Context, run *core.PipelineRun) error {
	if rec, ok := m.primary.(RunRecorder); ok {
		return rec.RecordPipelineRun(ctx, run)
	}
	return nil
}

// GetPipelineRuns forwards to the primary when it keeps an audit trail.
func (m *Mirror) GetPipelineRuns(ctx context.Context) ([]*core.PipelineRun, error) {
	if rec, ok := m.primary.(RunRecorder); ok {
		return rec.GetPipelineRuns(ctx)
	}
	return nil, nil
}
