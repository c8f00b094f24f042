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

// Package source loads bill records from places other than the managed
// pipeline flow: loose dataset files on disk, the relational bills
// table, or a live LegiScan search. Sources are selected by type name
// through a registry and combined by a Manager, so a run can be fed
// from several locations at once.
package source

import (
	"context"
	"time"

	"github.com/poiesic/billscan/core"
)

// Built-in source type names.
const (
	TypeFiles    = "files"
	TypeDatabase = "database"
	TypeAPI      = "api"
)

// Plugin loads bill records from one upstream location. Implementations
// validate their configuration at construction time so a misconfigured
// source fails before any fetch begins.
type Plugin interface {
	// Name reports the source type, e.g. "files".
	Name() string

	// Fetch loads every bill record the source holds.
	Fetch(ctx context.Context) ([]core.BillRecord, error)
}

// Config selects and parameterizes one bill source. Type names the
// plugin; each remaining field applies to the type named in its comment
// and is ignored by the others.
type Config struct {
	// Type is one of TypeFiles, TypeDatabase, or TypeAPI.
	Type string

	// Patterns are filepath.Glob patterns naming dataset files to
	// load. Used by the files source.
	Patterns []string

	// ConnString is the PostgreSQL connection string. Used by the
	// database source.
	ConnString string

	// Dataset names the dataset to load, e.g. "ct_bills_2025". Used by
	// the database source.
	Dataset string

	// Query is the LegiScan full-text search query. Used by the api
	// source.
	Query string

	// State restricts the search to a two-letter state code. Used by
	// the api source.
	State string

	// Year restricts the search to a session year. Used by the api
	// source.
	Year int

	// Delay is the pause between search page fetches. Used by the api
	// source.
	Delay time.Duration
}
