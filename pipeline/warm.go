package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/billscan/normalize"
	"github.com/poiesic/billscan/storage"
)

// RunBillIDs resolves the upstream bill ids for every bill in the named
// filter-results document, in document order. It backs cache pre-warming
// ahead of an analysis run. source pins the raw dataset used for id
// lookups the same way WithSourceDataset does; empty derives it from the
// bills' URLs. Bills whose id cannot be resolved are logged and omitted.
func RunBillIDs(ctx context.Context, store storage.Provider, runID, source string) ([]int64, error) {
	if store == nil {
		return nil, ErrStorageRequired
	}

	doc, err := store.LoadFilteredResults(ctx, runID)
	if err != nil {
		return nil, err
	}

	bills, err := normalize.Normalize(doc)
	if err != nil {
		return nil, err
	}
	if len(bills) == 0 {
		return nil, fmt.Errorf("%w: filter results %s", ErrNoBills, runID)
	}

	logger := slog.Default().With("component", "analysis")
	if source != "" {
		source = storage.RawName(source)
	}
	ids := lookupBillIDs(ctx, store, logger, source, bills)

	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, bill := range bills {
		id, ok := ids[bill.BillNumber]
		if !ok || id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}
