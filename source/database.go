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

	"github.com/poiesic/billscan/core"
	"github.com/poiesic/billscan/storage"
	"github.com/poiesic/billscan/storage/postgres"
)

// DatabasePlugin reads one dataset's bill rows back out of the
// relational bills table. Without an injected provider it dials a
// dedicated pool per fetch and closes it before returning.
type DatabasePlugin struct {
	connString string
	dataset    string
	store      storage.Provider
	logger     *slog.Logger
}

var _ Plugin = (*DatabasePlugin)(nil)

// DatabaseOption configures a DatabasePlugin.
type DatabaseOption func(*DatabasePlugin)

// WithDatabaseStore reads bills through an already-open provider
// instead of dialing a second pool. Use it when the pipeline's own
// storage backend is the same database.
func WithDatabaseStore(store storage.Provider) DatabaseOption {
	return func(p *DatabasePlugin) {
		p.store = store
	}
}

// NewDatabasePlugin creates a database source for cfg.Dataset.
func NewDatabasePlugin(cfg Config, opts ...DatabaseOption) (*DatabasePlugin, error) {
	p := &DatabasePlugin{
		connString: cfg.ConnString,
		dataset:    cfg.Dataset,
		logger:     slog.Default().With("component", "source"),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.store == nil && p.connString == "" {
		return nil, ErrConnStringRequired
	}
	if p.dataset == "" {
		return nil, ErrDatasetRequired
	}
	return p, nil
}

// Name implements Plugin.
func (p *DatabasePlugin) Name() string {
	return TypeDatabase
}

// Fetch implements Plugin.
func (p *DatabasePlugin) Fetch(ctx context.Context) ([]core.BillRecord, error) {
	store := p.store
	if store == nil {
		opened, err := postgres.NewProvider(ctx, p.connString)
		if err != nil {
			return nil, err
		}
		defer opened.Close()
		store = opened
	}

	doc, err := store.LoadRawData(ctx, p.dataset)
	if err != nil {
		return nil, fmt.Errorf("loading dataset %s: %w", p.dataset, err)
	}

	records, err := core.ExtractBills(doc)
	if err != nil {
		return nil, err
	}
	p.logger.Info("loaded bills from database", "dataset", p.dataset, "bills", len(records))
	return records, nil
}
