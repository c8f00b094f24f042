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

// Package legiscan provides a client for the LegiScan bill data API:
// paginated search, full bill records, and bill text documents, with
// optional read-through caching on a storage.Provider.
package legiscan

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/billscan/storage"
)

const (
	// DefaultBaseURL is the public LegiScan API endpoint.
	DefaultBaseURL = "https://api.legiscan.com/"

	// EnvAPIKey names the environment variable read when no key is
	// passed to NewClient.
	EnvAPIKey = "LEGISCAN_API_KEY"

	requestTimeout = 30 * time.Second
	maxSearchPages = 100
)

// Doer issues HTTP requests. *http.Client satisfies it; tests substitute
// a scripted implementation.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the LegiScan API. With a storage provider attached, bill
// records and document texts are served read-through from its caches.
type Client struct {
	apiKey    string
	baseURL   string
	http      Doer
	store     storage.Provider
	extractor TextExtractor
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP transport.
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		c.http = doer
	}
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithStorage enables read-through caching of bill records and document
// texts on the provider's caches.
func WithStorage(store storage.Provider) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithTextExtractor replaces the document text extraction strategy.
func WithTextExtractor(extractor TextExtractor) Option {
	return func(c *Client) {
		c.extractor = extractor
	}
}

// NewClient creates a LegiScan API client. An empty apiKey falls back to
// the LEGISCAN_API_KEY environment variable.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set %s or pass a key", ErrMissingAPIKey, EnvAPIKey)
	}

	c := &Client{
		apiKey:    apiKey,
		baseURL:   DefaultBaseURL,
		http:      &http.Client{Timeout: requestTimeout},
		extractor: DefaultExtractor{},
		logger:    slog.Default().With("component", "legiscan"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// apiEnvelope is the common wrapper around every LegiScan response.
type apiEnvelope struct {
	Status       string          `json:"status"`
	Alert        *apiAlert       `json:"alert"`
	Bill         json.RawMessage `json:"bill"`
	Text         json.RawMessage `json:"text"`
	SearchResult json.RawMessage `json:"searchresult"`
}

type apiAlert struct {
	Message string `json:"message"`
}

func (e *apiEnvelope) alertMessage() string {
	if e.Alert == nil || e.Alert.Message == "" {
		return "Unknown error"
	}
	return e.Alert.Message
}

func (c *Client) call(ctx context.Context, op string, params map[string]string) (*apiEnvelope, error) {
	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("op", op)
	for key, value := range params {
		query.Set(key, value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("legiscan %s: %w", op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("legiscan %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("legiscan %s: unexpected status %s", op, resp.Status)
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("legiscan %s: decoding response: %w", op, err)
	}
	if envelope.Status != "OK" {
		return nil, &APIError{Op: op, Message: envelope.alertMessage()}
	}
	return &envelope, nil
}

// GetBill returns the full bill record for a LegiScan bill id, consulting
// the cache first when a storage provider is attached. Cache write
// failures are logged, never fatal.
func (c *Client) GetBill(ctx context.Context, billID int64) (json.RawMessage, error) {
	if c.store != nil {
		cached, err := c.store.GetBillFromCache(ctx, billID)
		if err == nil {
			c.logger.Debug("bill loaded from cache", "bill_id", billID)
			return cached, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Warn("error reading bill cache, fetching from api", "bill_id", billID, "err", err)
		}
	}

	c.logger.Info("fetching bill from api", "bill_id", billID)
	envelope, err := c.call(ctx, "getBill", map[string]string{"id": strconv.FormatInt(billID, 10)})
	if err != nil {
		return nil, err
	}
	if len(envelope.Bill) == 0 {
		return nil, &APIError{Op: "getBill", Message: "response missing bill"}
	}

	if c.store != nil {
		if err := c.store.SaveBillToCache(ctx, billID, envelope.Bill); err != nil {
			c.logger.Warn("could not cache bill", "bill_id", billID, "err", err)
		}
	}
	return envelope.Bill, nil
}

// documentPayload is the text object returned by getBillText.
type documentPayload struct {
	DocID int64  `json:"doc_id"`
	MIME  string `json:"mime"`
	Doc   string `json:"doc"`
}

// GetBillText fetches a bill text document by doc id and returns its
// decoded plain text, chosen by the document's declared MIME type.
// Extracted text is cached when a storage provider is attached.
func (c *Client) GetBillText(ctx context.Context, docID int64) (string, error) {
	if c.store != nil {
		cached, err := c.store.GetBillTextFromCache(ctx, docID)
		if err == nil {
			c.logger.Debug("bill text loaded from cache", "doc_id", docID)
			return cached, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Warn("error reading bill text cache, fetching from api", "doc_id", docID, "err", err)
		}
	}

	c.logger.Info("fetching bill text from api", "doc_id", docID)
	envelope, err := c.call(ctx, "getBillText", map[string]string{"id": strconv.FormatInt(docID, 10)})
	if err != nil {
		return "", err
	}

	var payload documentPayload
	if err := json.Unmarshal(envelope.Text, &payload); err != nil {
		return "", fmt.Errorf("legiscan getBillText: decoding text payload: %w", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(payload.Doc)
	if err != nil {
		return "", fmt.Errorf("legiscan getBillText: decoding document: %w", err)
	}

	text, err := c.extractor.Extract(payload.MIME, decoded)
	if err != nil {
		return "", err
	}

	if c.store != nil {
		if err := c.store.SaveBillTextToCache(ctx, docID, text); err != nil {
			c.logger.Warn("could not cache bill text", "doc_id", docID, "err", err)
		}
	}
	return text, nil
}

// BillSummary is one getSearch hit.
type BillSummary struct {
	BillID      int64  `json:"bill_id"`
	BillNumber  string `json:"bill_number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// SearchPage is one page of search results with its pagination state.
type SearchPage struct {
	Bills      []BillSummary
	Page       int
	TotalPages int
}

// Search runs a getSearch query for a single page. LegiScan returns hits
// under numeric keys beside a summary block, not in an array; hits are
// returned in key order.
func (c *Client) Search(ctx context.Context, query, state string, year, page int) (*SearchPage, error) {
	envelope, err := c.call(ctx, "getSearch", map[string]string{
		"query": query,
		"state": state,
		"year":  strconv.Itoa(year),
		"page":  strconv.Itoa(page),
	})
	if err != nil {
		return nil, err
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(envelope.SearchResult, &entries); err != nil {
		return nil, fmt.Errorf("legiscan getSearch: decoding searchresult: %w", err)
	}

	result := &SearchPage{Page: page, TotalPages: 1}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		if isDigits(key) {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})

	for _, key := range keys {
		var bill BillSummary
		if err := json.Unmarshal(entries[key], &bill); err != nil {
			c.logger.Warn("skipping malformed search hit", "key", key, "err", err)
			continue
		}
		result.Bills = append(result.Bills, bill)
	}

	if raw, ok := entries["summary"]; ok {
		current, total := parsePagination(raw, page)
		result.Page, result.TotalPages = current, total
	}
	return result, nil
}

// parsePagination reads the summary block's page position. The page field
// is usually a string like "1 of 30"; page_total is the fallback.
func parsePagination(raw json.RawMessage, fallbackPage int) (current, total int) {
	current, total = fallbackPage, 1

	var summary struct {
		Page      any         `json:"page"`
		PageTotal json.Number `json:"page_total"`
	}
	if err := json.Unmarshal(raw, &summary); err != nil {
		return current, total
	}

	pageText := fmt.Sprintf("%v", summary.Page)
	if parts := strings.Split(pageText, " of "); len(parts) == 2 {
		cur, errCur := strconv.Atoi(strings.TrimSpace(parts[0]))
		tot, errTot := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errCur == nil && errTot == nil {
			return cur, tot
		}
	}
	if n, err := summary.PageTotal.Int64(); err == nil && n > 0 {
		total = int(n)
	}
	return current, total
}

// SearchAll pages through every search result for a state and year,
// sleeping delay between page fetches. A failure after the first page
// returns the bills collected so far; page count is capped at 100.
func (c *Client) SearchAll(ctx context.Context, query, state string, year int, delay time.Duration) ([]BillSummary, error) {
	var all []BillSummary
	for page := 1; page <= maxSearchPages; page++ {
		result, err := c.Search(ctx, query, state, year, page)
		if err != nil {
			if len(all) == 0 {
				return nil, err
			}
			c.logger.Warn("search page failed, returning bills collected so far", "page", page, "err", err)
			break
		}

		if len(result.Bills) == 0 {
			c.logger.Info("no more bills found", "page", page)
			break
		}

		all = append(all, result.Bills...)
		c.logger.Info("fetched search page",
			"page", result.Page,
			"total_pages", result.TotalPages,
			"bills", len(result.Bills))

		if result.Page >= result.TotalPages {
			break
		}

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return all, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return all, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
