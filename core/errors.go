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

package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidBillRecord indicates a BillRecord failed validation.
	ErrInvalidBillRecord = errors.New("invalid bill record")

	// ErrEmptyBillNumber indicates the BillNumber field is empty.
	ErrEmptyBillNumber = errors.New("bill number cannot be empty")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyRunID indicates a run identifier is empty.
	ErrEmptyRunID = errors.New("run id cannot be empty")

	// ErrUnknownDatasetShape indicates a raw dataset matched none of the
	// recognized document shapes.
	ErrUnknownDatasetShape = errors.New("unknown dataset shape")
)
