package legiscan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BillDetailsHeading introduces a FormatBillText block appended to
// analysis data, so the model can tell fetched detail apart from the
// filter metadata above it.
const BillDetailsHeading = "\n\n## Full Bill Details from LegiScan API:\n\n"

// Bill is the subset of a LegiScan bill record the pipeline reads.
type Bill struct {
	BillID      int64         `json:"bill_id"`
	BillNumber  string        `json:"bill_number"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      json.Number   `json:"status"`
	StatusDate  string        `json:"status_date"`
	Texts       []TextVersion `json:"texts"`
	Sponsors    []Sponsor     `json:"sponsors"`
	Subjects    []Subject     `json:"subjects"`
}

// TextVersion is one document revision attached to a bill.
type TextVersion struct {
	DocID int64  `json:"doc_id"`
	Type  string `json:"type"`
	MIME  string `json:"mime"`
	Date  string `json:"date"`
}

// Sponsor is a legislator attached to a bill.
type Sponsor struct {
	Name string `json:"name"`
}

// Subject is a topic tag attached to a bill.
type Subject struct {
	SubjectName string `json:"subject_name"`
}

// ParseBill decodes a raw bill record as returned by GetBill.
func ParseBill(raw json.RawMessage) (*Bill, error) {
	var bill Bill
	if err := json.Unmarshal(raw, &bill); err != nil {
		return nil, fmt.Errorf("legiscan: decoding bill record: %w", err)
	}
	return &bill, nil
}

// LatestDocID returns the doc id of the most recent text version. The
// API lists versions oldest first.
func (b *Bill) LatestDocID() (int64, bool) {
	if len(b.Texts) == 0 {
		return 0, false
	}
	return b.Texts[len(b.Texts)-1].DocID, true
}

// FormatBillText renders a bill record and its document text into the
// plain-text block fed to analysis prompts. An empty docText leaves a
// reference to the document id so the reader knows full text exists.
func FormatBillText(bill *Bill, docText string) string {
	var parts []string

	if bill.BillNumber != "" {
		parts = append(parts, "Bill Number: "+bill.BillNumber)
	}
	if bill.Title != "" {
		parts = append(parts, "Title: "+bill.Title)
	}
	if bill.Description != "" {
		parts = append(parts, "Description: "+bill.Description)
	}
	if status := bill.Status.String(); status != "" && status != "0" {
		parts = append(parts, "Status: "+status)
	}
	if bill.StatusDate != "" {
		parts = append(parts, "Status Date: "+bill.StatusDate)
	}

	if len(bill.Texts) > 0 {
		latest := bill.Texts[len(bill.Texts)-1]
		versionType := latest.Type
		if versionType == "" {
			versionType = "Unknown"
		}
		parts = append(parts, fmt.Sprintf("\nBill Text (Version: %s):", versionType))
		if docText != "" {
			parts = append(parts, docText)
		} else {
			parts = append(parts, fmt.Sprintf("[Full text document ID: %d]", latest.DocID))
		}
	}

	if len(bill.Sponsors) > 0 {
		limit := len(bill.Sponsors)
		if limit > 3 {
			limit = 3
		}
		names := make([]string, 0, limit)
		for _, sponsor := range bill.Sponsors[:limit] {
			name := sponsor.Name
			if name == "" {
				name = "Unknown"
			}
			names = append(names, name)
		}
		parts = append(parts, "Sponsors: "+strings.Join(names, ", "))
	}

	if len(bill.Subjects) > 0 {
		names := make([]string, 0, len(bill.Subjects))
		for _, subject := range bill.Subjects {
			names = append(names, subject.SubjectName)
		}
		parts = append(parts, "Subjects: "+strings.Join(names, ", "))
	}

	return strings.Join(parts, "\n")
}
