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

import "fmt"

// ValidateBillRecord validates a BillRecord according to domain rules.
//
// Validation rules:
//   - BillNumber must not be empty
//   - Title must not be empty
//
// NOT validated (optional upstream fields):
//   - BillID (0 is valid for sources that do not assign external ids)
//   - Description (falls back to Title when absent)
//   - URL
func ValidateBillRecord(record *BillRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidBillRecord)
	}

	if record.BillNumber == "" {
		return fmt.Errorf("%w: %w", ErrInvalidBillRecord, ErrEmptyBillNumber)
	}

	if record.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidBillRecord, ErrEmptyTitle)
	}

	return nil
}

// ValidateRunID validates that a run identifier is usable as a storage key.
func ValidateRunID(runID string) error {
	if runID == "" {
		return ErrEmptyRunID
	}
	return nil
}
