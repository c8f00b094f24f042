package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestExtractBills_BareList(t *testing.T) {
	doc := json.RawMessage(`[
		{"bill_id": 101, "bill_number": "HB05001", "title": "Palliative Care Act", "description": "", "url": "https://legiscan.com/CT/bill/HB05001/2025"},
		{"bill_id": 102, "bill_number": "SB00042", "title": "Hospice Licensure", "description": "Licensure standards for hospice agencies"}
	]`)

	bills, err := ExtractBills(doc)
	if err != nil {
		t.Fatalf("ExtractBills() error: %v", err)
	}
	if len(bills) != 2 {
		t.Fatalf("ExtractBills() returned %d bills, want 2", len(bills))
	}
	if bills[0].BillNumber != "HB05001" {
		t.Errorf("bills[0].BillNumber = %q, want HB05001", bills[0].BillNumber)
	}
	if bills[0].Description != "Palliative Care Act" {
		t.Errorf("empty description should fall back to title, got %q", bills[0].Description)
	}
	if bills[1].Description != "Licensure standards for hospice agencies" {
		t.Errorf("non-empty description should be kept, got %q", bills[1].Description)
	}
}

func TestExtractBills_SearchResult(t *testing.T) {
	doc := json.RawMessage(`{
		"status": "OK",
		"searchresult": {
			"summary": {"page": "1 of 1", "count": 2},
			"1": {"bill_id": 202, "bill_number": "SB00042", "title": "Second"},
			"0": {"bill_id": 201, "bill_number": "HB05001", "title": "First"}
		}
	}`)

	bills, err := ExtractBills(doc)
	if err != nil {
		t.Fatalf("ExtractBills() error: %v", err)
	}
	if len(bills) != 2 {
		t.Fatalf("ExtractBills() returned %d bills, want 2", len(bills))
	}
	if bills[0].BillNumber != "HB05001" || bills[1].BillNumber != "SB00042" {
		t.Errorf("numbered entries out of order: %q, %q", bills[0].BillNumber, bills[1].BillNumber)
	}
}

func TestExtractBills_Masterlist(t *testing.T) {
	listDoc := json.RawMessage(`{"summary": {"masterlist": [
		{"bill_id": 301, "bill_number": "HB05001", "title": "First"}
	]}}`)

	bills, err := ExtractBills(listDoc)
	if err != nil {
		t.Fatalf("ExtractBills() error: %v", err)
	}
	if len(bills) != 1 || bills[0].BillID != 301 {
		t.Fatalf("ExtractBills() masterlist array = %+v", bills)
	}

	mapDoc := json.RawMessage(`{"summary": {"masterlist": {
		"session": {"session_id": 2025, "session_name": "2025 Regular Session"},
		"HB05001": {"bill_id": 301, "bill_number": "HB05001", "title": "First"},
		"SB00042": {"bill_id": 302, "bill_number": "SB00042", "title": "Second"}
	}}}`)

	bills, err = ExtractBills(mapDoc)
	if err != nil {
		t.Fatalf("ExtractBills() error: %v", err)
	}
	if len(bills) != 2 {
		t.Fatalf("masterlist map should skip the session entry, got %d bills", len(bills))
	}
}

func TestExtractBills_BillsKey(t *testing.T) {
	doc := json.RawMessage(`{"bills": [{"bill_id": 401, "bill_number": "HB01234", "title": "Some Act"}]}`)

	bills, err := ExtractBills(doc)
	if err != nil {
		t.Fatalf("ExtractBills() error: %v", err)
	}
	if len(bills) != 1 || bills[0].BillNumber != "HB01234" {
		t.Fatalf("ExtractBills() = %+v", bills)
	}
}

func TestExtractBills_UnknownShape(t *testing.T) {
	_, err := ExtractBills(json.RawMessage(`{"unexpected": true}`))
	if !errors.Is(err, ErrUnknownDatasetShape) {
		t.Errorf("ExtractBills() error = %v, want %v", err, ErrUnknownDatasetShape)
	}

	_, err = ExtractBills(json.RawMessage(`"just a string"`))
	if !errors.Is(err, ErrUnknownDatasetShape) {
		t.Errorf("ExtractBills() error = %v, want %v", err, ErrUnknownDatasetShape)
	}
}

func TestExtractBills_SkipsEntriesWithoutNumber(t *testing.T) {
	doc := json.RawMessage(`[
		{"bill_id": 501, "title": "No number"},
		{"bill_id": 502, "bill_number": "HB09999", "title": "Has number"}
	]`)

	bills, err := ExtractBills(doc)
	if err != nil {
		t.Fatalf("ExtractBills() error: %v", err)
	}
	if len(bills) != 1 || bills[0].BillNumber != "HB09999" {
		t.Fatalf("ExtractBills() = %+v, want only HB09999", bills)
	}
}

func TestFindBillByNumber(t *testing.T) {
	doc := json.RawMessage(`[
		{"bill_id": 601, "bill_number": "HB05001", "title": "First", "change_hash": "abc123"},
		{"bill_id": 602, "bill_number": "SB00042", "title": "Second"}
	]`)

	raw, err := FindBillByNumber(doc, "HB05001")
	if err != nil {
		t.Fatalf("FindBillByNumber() error: %v", err)
	}
	if raw == nil {
		t.Fatal("FindBillByNumber() returned nil for present bill")
	}

	var bill map[string]any
	if err := json.Unmarshal(raw, &bill); err != nil {
		t.Fatalf("returned bill is not valid JSON: %v", err)
	}
	if bill["change_hash"] != "abc123" {
		t.Errorf("FindBillByNumber() must preserve fields beyond the canonical record, got %v", bill)
	}

	raw, err = FindBillByNumber(doc, "HB00000")
	if err != nil {
		t.Fatalf("FindBillByNumber() error: %v", err)
	}
	if raw != nil {
		t.Errorf("FindBillByNumber() = %s, want nil for absent bill", raw)
	}
}

func TestFindBillByNumber_AltNumberField(t *testing.T) {
	doc := json.RawMessage(`[{"bill_id": 701, "number": "HB07777", "title": "Alt field"}]`)

	raw, err := FindBillByNumber(doc, "HB07777")
	if err != nil {
		t.Fatalf("FindBillByNumber() error: %v", err)
	}
	if raw == nil {
		t.Fatal("FindBillByNumber() should match the alternate number field")
	}
}
