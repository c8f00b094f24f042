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

package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/billscan/core"
)

// FilesPlugin reads bill datasets from files matched by glob patterns.
// Any dataset shape core.ExtractBills understands is accepted; a file
// that cannot be read or parsed is skipped so one bad export does not
// block the rest.
type FilesPlugin struct {
	patterns []string
	logger   *slog.Logger
}

var _ Plugin = (*FilesPlugin)(nil)

// NewFilesPlugin creates a files source over cfg.Patterns.
func NewFilesPlugin(cfg Config) (*FilesPlugin, error) {
	if len(cfg.Patterns) == 0 {
		return nil, ErrNoPatterns
	}
	return &FilesPlugin{
		patterns: cfg.Patterns,
		logger:   slog.Default().With("component", "source"),
	}, nil
}

// Name implements Plugin.
func (p *FilesPlugin) Name() string {
	return TypeFiles
}

// Fetch implements Plugin. Matches within a pattern are visited in
// lexical order; patterns are visited in configuration order.
func (p *FilesPlugin) Fetch(ctx context.Context) ([]core.BillRecord, error) {
	var records []core.BillRecord
	for _, pattern := range p.patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("matching pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			p.logger.Warn("no files matched pattern", "pattern", pattern)
			continue
		}

		for _, path := range matches {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			bills, err := readBillFile(path)
			if err != nil {
				p.logger.Error("skipping unreadable dataset file", "path", path, "err", err)
				continue
			}
			p.logger.Info("loaded bills from file", "path", path, "bills", len(bills))
			records = append(records, bills...)
		}
	}
	return records, nil
}

func readBillFile(path string) ([]core.BillRecord, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return core.ExtractBills(doc)
}
