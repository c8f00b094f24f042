package storage

import (
	"context"
	"encoding/json"

	"github.com/poiesic/billscan/core"
)

// Provider is the uniform persistence and cache contract used by every
// pipeline stage. Implementations must be safe for concurrent use, and all
// writes are whole-object overwrites: the pipeline never appends to or
// partially updates a persisted object.
type Provider interface {
	// SaveRawData persists a raw bill dataset under name. A trailing
	// ".json" on name is stripped before use.
	SaveRawData(ctx context.Context, name string, data json.RawMessage) error

	// LoadRawData returns the raw dataset saved under name.
	// Returns ErrNotFound if no dataset exists.
	LoadRawData(ctx context.Context, name string) (json.RawMessage, error)

	// SaveFilteredResults persists the output of a filter pass keyed by
	// runID. A "filter_results_" prefix already present on runID is kept,
	// not doubled.
	SaveFilteredResults(ctx context.Context, runID string, results *core.FilterResults) error

	// LoadFilteredResults returns the filter-results document for runID.
	// The document is returned raw because callers feed it through the
	// format normalizer, which accepts more than one upstream shape.
	// Historically valid key variants (with/without the filter_results_
	// prefix, with/without a .json extension) are tried in a fixed order
	// before failing with ErrNotFound.
	LoadFilteredResults(ctx context.Context, runID string) (json.RawMessage, error)

	// SaveAnalysisResults persists the relevant and not-relevant buckets
	// of an analysis run. Each bucket is a ResultsPayload and is written
	// in whichever form (bare list or envelope) it carries.
	SaveAnalysisResults(ctx context.Context, runID string, relevant, notRelevant core.ResultsPayload) error

	// LoadAnalysisResults returns both buckets for runID. A missing
	// bucket loads as an empty payload; if both are missing the call
	// fails with ErrNotFound.
	LoadAnalysisResults(ctx context.Context, runID string) (relevant, notRelevant core.ResultsPayload, err error)

	// GetBillFromCache returns the cached upstream payload for a bill id.
	// Returns ErrNotFound on a cache miss. Callers treat any error as a
	// miss and fall through to the upstream fetch.
	GetBillFromCache(ctx context.Context, billID int64) (json.RawMessage, error)

	// SaveBillToCache stores the upstream payload for a bill id,
	// overwriting any previous entry.
	SaveBillToCache(ctx context.Context, billID int64, data json.RawMessage) error

	// GetBillTextFromCache returns the cached extracted text for a
	// document id. Returns ErrNotFound on a cache miss.
	GetBillTextFromCache(ctx context.Context, docID int64) (string, error)

	// SaveBillTextToCache stores extracted document text keyed by
	// document id.
	SaveBillTextToCache(ctx context.Context, docID int64, text string) error

	// ListRawFiles returns the names of all stored raw datasets, sorted.
	ListRawFiles(ctx context.Context) ([]string, error)

	// ListFilteredResults returns the run identifiers of all stored
	// filter results, sorted.
	ListFilteredResults(ctx context.Context) ([]string, error)

	// BillExistsInRaw reports whether the named raw dataset contains a
	// bill with the given bill number. Unreadable or absent datasets
	// report false without error.
	BillExistsInRaw(ctx context.Context, billNumber, name string) (bool, error)

	// GetBillByNumber returns the raw bill object with the given bill
	// number from the named dataset. Returns ErrNotFound if the dataset
	// or the bill is absent.
	GetBillByNumber(ctx context.Context, billNumber, name string) (json.RawMessage, error)

	// Close releases backend resources. The provider must not be used
	// after Close returns.
	Close() error
}

// RunRecorder is implemented by backends that additionally keep an audit
// trail of pipeline runs. The file and badger backends do not; recording
// is best-effort and never pipeline-critical.
type RunRecorder interface {
	// RecordPipelineRun upserts one audit row keyed by (run_id, stage).
	RecordPipelineRun(ctx context.Context, run *core.PipelineRun) error

	// GetPipelineRuns returns all recorded runs ordered by completion
	// time, newest first.
	GetPipelineRuns(ctx context.Context) ([]*core.PipelineRun, error)
}
