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

// Package file implements storage.Provider on a local directory tree.
// It is the default backend and defines the on-disk layout the other
// backends stay compatible with:
//
//	{data}/raw/{name}.json
//	{data}/filtered/filter_results_{run_id}.json
//	{data}/analyzed/analysis_{run_id}_relevant.json
//	{data}/analyzed/analysis_{run_id}_not_relevant.json
//	{data}/cache/bill_{bill_id}.json
//	{data}/cache/bill_text_{doc_id}.txt
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/poiesic/billscan/core"
	"github.com/poiesic/billscan/storage"
)

// Provider implements storage.Provider using JSON and text files under a
// single data directory.
type Provider struct {
	rawDir      string
	filteredDir string
	analyzedDir string
	cacheDir    string
	logger      *slog.Logger
}

var _ storage.Provider = (*Provider)(nil)

// NewProvider creates a file backend rooted at dataDir, creating the
// directory layout if it does not exist.
//
// Returns storage.Provider (not *Provider) to enforce abstraction and
// keep backends swappable.
func NewProvider(dataDir string) (storage.Provider, error) {
	p := &Provider{
		rawDir:      filepath.Join(dataDir, "raw"),
		filteredDir: filepath.Join(dataDir, "filtered"),
		analyzedDir: filepath.Join(dataDir, "analyzed"),
		cacheDir:    filepath.Join(dataDir, "cache"),
		logger:      slog.Default().With("component", "storage.file"),
	}

	for _, dir := range []string{p.rawDir, p.filteredDir, p.analyzedDir, p.cacheDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating storage directory %s: %w", dir, err)
		}
	}
	return p, nil
}

func (p *Provider) SaveRawData(_ context.Context, name string, data json.RawMessage) error {
	path := filepath.Join(p.rawDir, storage.RawName(name)+".json")
	return writeJSON(path, data)
}

func (p *Provider) LoadRawData(_ context.Context, name string) (json.RawMessage, error) {
	path := filepath.Join(p.rawDir, storage.RawName(name)+".json")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: raw data %s", storage.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading raw data %s: %w", name, err)
	}
	return data, nil
}

func (p *Provider) SaveFilteredResults(_ context.Context, runID string, results *core.FilterResults) error {
	path := filepath.Join(p.filteredDir, storage.FilterResultsName(runID)+".json")

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: filter results %s: %w", storage.ErrSerializationFailed, runID, err)
	}
	return writeJSON(path, data)
}

func (p *Provider) LoadFilteredResults(_ context.Context, runID string) (json.RawMessage, error) {
	for _, candidate := range storage.FilterResultCandidates(runID) {
		data, err := os.ReadFile(filepath.Join(p.filteredDir, candidate))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading filter results %s: %w", runID, err)
		}
	}
	return nil, fmt.Errorf("%w: filter results for run %s", storage.ErrNotFound, runID)
}

func (p *Provider) SaveAnalysisResults(_ context.Context, runID string, relevant, notRelevant core.ResultsPayload) error {
	prefix := storage.AnalysisResultsPrefix(runID)

	if err := p.writePayload(prefix+"_relevant.json", relevant); err != nil {
		return err
	}
	return p.writePayload(prefix+"_not_relevant.json", notRelevant)
}

func (p *Provider) writePayload(name string, payload core.ResultsPayload) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", storage.ErrSerializationFailed, name, err)
	}
	return writeJSON(filepath.Join(p.analyzedDir, name), data)
}

func (p *Provider) LoadAnalysisResults(_ context.Context, runID string) (core.ResultsPayload, core.ResultsPayload, error) {
	prefix := storage.AnalysisResultsPrefix(runID)

	relevant, foundRelevant, err := p.readPayload(prefix + "_relevant.json")
	if err != nil {
		return core.ResultsPayload{}, core.ResultsPayload{}, err
	}
	notRelevant, foundNotRelevant, err := p.readPayload(prefix + "_not_relevant.json")
	if err != nil {
		return core.ResultsPayload{}, core.ResultsPayload{}, err
	}

	if !foundRelevant && !foundNotRelevant {
		return core.ResultsPayload{}, core.ResultsPayload{}, fmt.Errorf("%w: analysis results for run %s", storage.ErrNotFound, runID)
	}
	return relevant, notRelevant, nil
}

func (p *Provider) readPayload(name string) (core.ResultsPayload, bool, error) {
	data, err := os.ReadFile(filepath.Join(p.analyzedDir, name))
	if os.IsNotExist(err) {
		return core.ResultsPayload{}, false, nil
	}
	if err != nil {
		return core.ResultsPayload{}, false, fmt.Errorf("reading analysis results %s: %w", name, err)
	}

	var payload core.ResultsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return core.ResultsPayload{}, false, fmt.Errorf("%w: %s: %w", storage.ErrSerializationFailed, name, err)
	}
	return payload, true, nil
}

func (p *Provider) GetBillFromCache(_ context.Context, billID int64) (json.RawMessage, error) {
	path := filepath.Join(p.cacheDir, storage.BillCacheName(billID))

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: cached bill %d", storage.ErrNotFound, billID)
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached bill %d: %w", billID, err)
	}
	return data, nil
}

func (p *Provider) SaveBillToCache(_ context.Context, billID int64, data json.RawMessage) error {
	return writeJSON(filepath.Join(p.cacheDir, storage.BillCacheName(billID)), data)
}

func (p *Provider) GetBillTextFromCache(_ context.Context, docID int64) (string, error) {
	path := filepath.Join(p.cacheDir, storage.BillTextCacheName(docID))

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: cached bill text %d", storage.ErrNotFound, docID)
	}
	if err != nil {
		return "", fmt.Errorf("reading cached bill text %d: %w", docID, err)
	}
	return string(data), nil
}

func (p *Provider) SaveBillTextToCache(_ context.Context, docID int64, text string) error {
	path := filepath.Join(p.cacheDir, storage.BillTextCacheName(docID))
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (p *Provider) ListRawFiles(_ context.Context) ([]string, error) {
	return listStems(p.rawDir)
}

func (p *Provider) ListFilteredResults(_ context.Context) ([]string, error) {
	return listStems(p.filteredDir)
}

func (p *Provider) BillExistsInRaw(ctx context.Context, billNumber, name string) (bool, error) {
	raw, err := p.LoadRawData(ctx, name)
	if err != nil {
		return false, nil
	}

	found, err := core.FindBillByNumber(raw, billNumber)
	if err != nil {
		return false, nil
	}
	return found != nil, nil
}

func (p *Provider) GetBillByNumber(ctx context.Context, billNumber, name string) (json.RawMessage, error) {
	raw, err := p.LoadRawData(ctx, name)
	if err != nil {
		return nil, err
	}

	found, err := core.FindBillByNumber(raw, billNumber)
	if err != nil {
		return nil, fmt.Errorf("searching %s for bill %s: %w", name, billNumber, err)
	}
	if found == nil {
		return nil, fmt.Errorf("%w: bill %s in %s", storage.ErrNotFound, billNumber, name)
	}
	return found, nil
}

// Close is a no-op; the file backend holds no open resources.
func (p *Provider) Close() error {
	return nil
}

func writeJSON(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// listStems returns the sorted basenames (without extension) of all JSON
// files in dir. A missing directory lists as empty.
func listStems(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
