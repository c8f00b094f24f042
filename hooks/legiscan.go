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

package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/poiesic/billscan/legiscan"
)

// BillFetcher is the slice of the LegiScan client the enrichment hook
// needs.
type BillFetcher interface {
	GetBill(ctx context.Context, billID int64) (json.RawMessage, error)
	GetBillText(ctx context.Context, docID int64) (string, error)
}

// LegiScanHook appends the full LegiScan record, including document text
// where available, to the analysis data of the bill named by the item id.
// Register it at PreAnalysis.
type LegiScanHook struct {
	client BillFetcher
	logger *slog.Logger
}

// NewLegiScanHook creates the enrichment hook over a bill fetcher,
// normally a cache-backed legiscan.Client.
func NewLegiScanHook(client BillFetcher) *LegiScanHook {
	return &LegiScanHook{
		client: client,
		logger: slog.Default().With("component", "hooks"),
	}
}

// Name implements Hook.
func (h *LegiScanHook) Name() string {
	return "legiscan"
}

// CacheKey implements Hook.
func (h *LegiScanHook) CacheKey(data string, hctx Context) string {
	return DefaultCacheKey(h.Name(), hctx)
}

// Process implements Hook. Data for items without a numeric bill id
// passes through untouched; fetch failures surface as errors so the
// manager keeps the metadata-only data.
func (h *LegiScanHook) Process(ctx context.Context, data string, hctx Context) (string, error) {
	if hctx.ItemID == "" {
		h.logger.Debug("no item id in context, skipping bill fetch")
		return data, nil
	}
	billID, err := strconv.ParseInt(hctx.ItemID, 10, 64)
	if err != nil {
		h.logger.Debug("item id is not a numeric bill id, skipping bill fetch", "item_id", hctx.ItemID)
		return data, nil
	}

	raw, err := h.client.GetBill(ctx, billID)
	if err != nil {
		return "", fmt.Errorf("fetching bill %d: %w", billID, err)
	}
	bill, err := legiscan.ParseBill(raw)
	if err != nil {
		return "", err
	}

	var docText string
	if docID, ok := bill.LatestDocID(); ok {
		docText, err = h.client.GetBillText(ctx, docID)
		if err != nil {
			h.logger.Warn("could not fetch bill text, formatting metadata only",
				"bill_id", billID, "doc_id", docID, "err", err)
			docText = ""
		}
	}

	return data + legiscan.BillDetailsHeading + legiscan.FormatBillText(bill, docText), nil
}
