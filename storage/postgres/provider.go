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

// Package postgres implements the storage.Provider contract on PostgreSQL.
// Bills are relational rows rather than opaque documents: raw datasets
// explode into the bills table on save and are reassembled on load, which
// is what makes cross-run SQL reporting possible. The full upstream
// payload is kept in a raw_data column so no field is lost in the
// translation.
package postgres

import (
	"context"
	"log/slog"

	"github.com/poiesic/billscan/storage"
)

// Provider implements storage.Provider backed by PostgreSQL.
type Provider struct {
	db     *DB
	logger *slog.Logger
}

var (
	_ storage.Provider    = (*Provider)(nil)
	_ storage.RunRecorder = (*Provider)(nil)
)

// NewProvider connects to the database, applies pending migrations and
// returns the provider. The provider owns the pool and closes it in Close.
func NewProvider(ctx context.Context, connString string) (storage.Provider, error) {
	db, err := NewDB(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := db.RunMigrations(connString); err != nil {
		db.Close()
		return nil, err
	}

	return &Provider{
		db:     db,
		logger: slog.Default().With("component", "postgres_storage"),
	}, nil
}

// Close closes the connection pool.
func (p *Provider) Close() error {
	p.db.Close()
	return nil
}
