package core

import (
	"errors"
	"testing"
)

func TestValidateBillRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *BillRecord
		wantErr error
	}{
		{
			name: "valid record",
			record: &BillRecord{
				BillID:     1891953,
				BillNumber: "HB05001",
				Title:      "An Act Concerning Palliative Care",
				URL:        "https://legiscan.com/CT/bill/HB05001/2025",
			},
			wantErr: nil,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidBillRecord,
		},
		{
			name: "missing bill number",
			record: &BillRecord{
				Title: "An Act Concerning Palliative Care",
			},
			wantErr: ErrEmptyBillNumber,
		},
		{
			name: "missing title",
			record: &BillRecord{
				BillNumber: "HB05001",
			},
			wantErr: ErrEmptyTitle,
		},
		{
			name: "no bill id is valid",
			record: &BillRecord{
				BillNumber: "SB00123",
				Title:      "An Act Concerning Hospice Licensure",
			},
			wantErr: nil,
		},
		{
			name: "missing description is valid",
			record: &BillRecord{
				BillNumber: "HB06789",
				Title:      "An Act Establishing A Palliative Care Advisory Council",
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBillRecord(tt.record)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateBillRecord() unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateBillRecord() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRunID(t *testing.T) {
	if err := ValidateRunID("20250115_093042"); err != nil {
		t.Errorf("ValidateRunID() unexpected error: %v", err)
	}
	if err := ValidateRunID("ct_bills_2025"); err != nil {
		t.Errorf("ValidateRunID() unexpected error: %v", err)
	}
	if err := ValidateRunID(""); !errors.Is(err, ErrEmptyRunID) {
		t.Errorf("ValidateRunID(\"\") error = %v, want %v", err, ErrEmptyRunID)
	}
}
