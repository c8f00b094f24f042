package core

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Raw bill datasets arrive in several shapes depending on which upstream
// operation produced them:
//
//   - a bare JSON array of bill objects
//   - {"summary": {"masterlist": [...]}} or a masterlist keyed by number
//   - {"bills": [...]}
//   - {"status": "OK", "searchresult": {"0": {...}, ..., "summary": {...}}}
//
// ExtractRawBills flattens any of these into the individual bill objects
// without interpreting their contents.
func ExtractRawBills(doc json.RawMessage) ([]json.RawMessage, error) {
	var bills []json.RawMessage
	if err := json.Unmarshal(doc, &bills); err == nil {
		return bills, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(doc, &top); err != nil {
		return nil, ErrUnknownDatasetShape
	}

	if sr, ok := top["searchresult"]; ok {
		return extractNumberedEntries(sr)
	}

	if summary, ok := top["summary"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(summary, &inner); err == nil {
			if master, ok := inner["masterlist"]; ok {
				return extractMasterlist(master)
			}
		}
	}

	if raw, ok := top["bills"]; ok {
		if err := json.Unmarshal(raw, &bills); err != nil {
			return nil, ErrUnknownDatasetShape
		}
		return bills, nil
	}

	return nil, ErrUnknownDatasetShape
}

// ExtractBills decodes the bill objects of a raw dataset into BillRecords.
// Entries without a bill number are skipped; search-result entries with an
// empty description fall back to the title.
func ExtractBills(doc json.RawMessage) ([]BillRecord, error) {
	raws, err := ExtractRawBills(doc)
	if err != nil {
		return nil, err
	}

	records := make([]BillRecord, 0, len(raws))
	for _, raw := range raws {
		var rec BillRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		if rec.BillNumber == "" {
			continue
		}
		if rec.Description == "" {
			rec.Description = rec.Title
		}
		records = append(records, rec)
	}
	return records, nil
}

// FindBillByNumber returns the raw bill object with the given bill number,
// or nil if the dataset does not contain it.
func FindBillByNumber(doc json.RawMessage, billNumber string) (json.RawMessage, error) {
	raws, err := ExtractRawBills(doc)
	if err != nil {
		return nil, err
	}

	for _, raw := range raws {
		var probe struct {
			BillNumber string `json:"bill_number"`
			Number     string `json:"number"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			continue
		}
		if probe.BillNumber == billNumber || probe.Number == billNumber {
			return raw, nil
		}
	}
	return nil, nil
}

// extractNumberedEntries pulls the bill objects out of a search-result
// object whose bills live under ascending numeric keys next to metadata
// keys like "summary". Order follows the numeric keys so repeated
// extractions of the same document agree.
func extractNumberedEntries(sr json.RawMessage) ([]json.RawMessage, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(sr, &entries); err != nil {
		return nil, ErrUnknownDatasetShape
	}

	indices := make([]int, 0, len(entries))
	for key := range entries {
		if n, err := strconv.Atoi(key); err == nil {
			indices = append(indices, n)
		}
	}
	sort.Ints(indices)

	bills := make([]json.RawMessage, 0, len(indices))
	for _, n := range indices {
		raw := entries[strconv.Itoa(n)]
		if isJSONObject(raw) {
			bills = append(bills, raw)
		}
	}
	return bills, nil
}

// extractMasterlist accepts a masterlist that is either a plain array or
// an object keyed by bill number with a non-bill "session" entry mixed in.
func extractMasterlist(master json.RawMessage) ([]json.RawMessage, error) {
	var bills []json.RawMessage
	if err := json.Unmarshal(master, &bills); err == nil {
		return bills, nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(master, &entries); err != nil {
		return nil, ErrUnknownDatasetShape
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	bills = make([]json.RawMessage, 0, len(keys))
	for _, key := range keys {
		raw := entries[key]
		if !isJSONObject(raw) {
			continue
		}
		var probe struct {
			BillID json.Number `json:"bill_id"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil || probe.BillID == "" {
			continue
		}
		bills = append(bills, raw)
	}
	return bills, nil
}

func isJSONObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}
