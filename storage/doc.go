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

// Package storage provides the persistence abstraction layer for billscan.
//
// This package defines the Provider interface that decouples storage
// implementation from pipeline logic. It allows physically different
// backends (local files, BadgerDB, PostgreSQL) to be used interchangeably:
// any test written against the Provider contract must pass against every
// backend given equivalent state.
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// backend constructors to enforce abstraction and keep backends swappable:
//
//	store, err := file.NewProvider(dataDir)  // returns storage.Provider
//
// This design decision prioritizes:
//   - Abstraction: Prevents accidental coupling to one backend's specifics
//   - Swappability: New backends slot in without touching pipeline code
//   - Testing: Consumers can use any backend (or a fake) without modification
//
// Internal package constructors may return concrete types since they are
// only used within the implementation package.
//
// # Backend Selection
//
// A Factory maps backend names to constructors. The map is built explicitly
// at startup and stays open for extension through Register; there is no
// package-level mutable registry. CreateFromEnv applies the STORAGE_BACKEND
// environment variable on top of the configured backend name.
//
// # Dual-Write Mode
//
// The relational backend optionally mirrors every write to a file backend
// for migration safety. Mirror failures never roll back the primary write;
// see Mirror for the exact semantics.
//
// # Error Conventions
//
// Lookups of required objects (raw datasets, filter results, analysis
// results) return ErrNotFound when absent. Cache getters also return
// ErrNotFound on a miss; cache consumers are expected to treat any getter
// error as a miss and fall through to the upstream fetch.
package storage
