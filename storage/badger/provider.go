// Package badger implements the storage.Provider contract on BadgerDB.
// Objects are stored whole under path-like keys, so the value layout
// matches what the file backend writes to disk.
package badger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/billscan/core"
	"github.com/poiesic/billscan/storage"
)

// Provider implements storage.Provider for BadgerDB.
type Provider struct {
	backend *Backend
}

var _ storage.Provider = (*Provider)(nil)

// NewProvider wraps an open backend. The provider owns the backend from
// this point on and closes it in Close.
func NewProvider(backend *Backend) storage.Provider {
	return &Provider{backend: backend}
}

// Open opens a BadgerDB database at path and returns a provider backed
// by it. An empty path with inMemory set runs entirely in memory.
func Open(path string, inMemory bool) (storage.Provider, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	return NewProvider(backend), nil
}

// Close closes the underlying backend.
func (p *Provider) Close() error {
	return p.backend.Close()
}

func (p *Provider) SaveRawData(ctx context.Context, name string, data json.RawMessage) error {
	return p.setBytes(makeRawKey(name), data)
}

func (p *Provider) LoadRawData(ctx context.Context, name string) (json.RawMessage, error) {
	return p.getBytes(makeRawKey(name))
}

func (p *Provider) SaveFilteredResults(ctx context.Context, runID string, results *core.FilterResults) error {
	value, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	key := makeFilteredKey(storage.FilterResultsName(runID) + jsonExt)
	return p.setBytes(key, value)
}

func (p *Provider) LoadFilteredResults(ctx context.Context, runID string) (json.RawMessage, error) {
	for _, candidate := range storage.FilterResultCandidates(runID) {
		doc, err := p.getBytes(makeFilteredKey(candidate))
		if err == nil {
			return doc, nil
		}
		if err != storage.ErrNotFound {
			return nil, err
		}
	}
	return nil, storage.ErrNotFound
}

// SaveAnalysisResults writes both buckets in a single transaction, so a
// run never persists half its output.
func (p *Provider) SaveAnalysisResults(ctx context.Context, runID string, relevant, notRelevant core.ResultsPayload) error {
	relevantValue, err := json.Marshal(relevant)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	notRelevantValue, err := json.Marshal(notRelevant)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}

	return p.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeAnalyzedKey(runID, "relevant"), relevantValue); err != nil {
			return err
		}
		if err := tx.Set(makeAnalyzedKey(runID, "not_relevant"), notRelevantValue); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func (p *Provider) LoadAnalysisResults(ctx context.Context, runID string) (core.ResultsPayload, core.ResultsPayload, error) {
	relevant, foundRelevant, err := p.readPayload(makeAnalyzedKey(runID, "relevant"))
	if err != nil {
		return core.ResultsPayload{}, core.ResultsPayload{}, err
	}
	notRelevant, foundNotRelevant, err := p.readPayload(makeAnalyzedKey(runID, "not_relevant"))
	if err != nil {
		return core.ResultsPayload{}, core.ResultsPayload{}, err
	}
	if !foundRelevant && !foundNotRelevant {
		return core.ResultsPayload{}, core.ResultsPayload{}, storage.ErrNotFound
	}
	return relevant, notRelevant, nil
}

func (p *Provider) GetBillFromCache(ctx context.Context, billID int64) (json.RawMessage, error) {
	return p.getBytes(makeBillCacheKey(billID))
}

func (p *Provider) SaveBillToCache(ctx context.Context, billID int64, bill json.RawMessage) error {
	return p.setBytes(makeBillCacheKey(billID), bill)
}

func (p *Provider) GetBillTextFromCache(ctx context.Context, docID int64) (string, error) {
	data, err := p.getBytes(makeBillTextCacheKey(docID))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (p *Provider) SaveBillTextToCache(ctx context.Context, docID int64, text string) error {
	return p.setBytes(makeBillTextCacheKey(docID), []byte(text))
}

func (p *Provider) ListRawFiles(ctx context.Context) ([]string, error) {
	return p.listStems(rawPrefix)
}

func (p *Provider) ListFilteredResults(ctx context.Context) ([]string, error) {
	return p.listStems(filteredPrefix)
}

func (p *Provider) BillExistsInRaw(ctx context.Context, billNumber, name string) (bool, error) {
	doc, err := p.LoadRawData(ctx, name)
	if err != nil {
		return false, nil
	}
	bill, err := core.FindBillByNumber(doc, billNumber)
	if err != nil {
		return false, nil
	}
	return bill != nil, nil
}

func (p *Provider) GetBillByNumber(ctx context.Context, billNumber, name string) (json.RawMessage, error) {
	doc, err := p.LoadRawData(ctx, name)
	if err != nil {
		return nil, err
	}
	bill, err := core.FindBillByNumber(doc, billNumber)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, storage.ErrNotFound
	}
	return bill, nil
}

// Helper methods

// setBytes stores a value under key in its own write transaction.
func (p *Provider) setBytes(key, value []byte) error {
	// Copy so the caller may reuse its buffer after we return.
	stored := make([]byte, len(value))
	copy(stored, value)

	return p.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(key, stored); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// getBytes reads a value by key. Returns storage.ErrNotFound when the key
// does not exist.
func (p *Provider) getBytes(key []byte) ([]byte, error) {
	var result []byte
	err := p.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// readPayload reads and decodes one analysis bucket. The found flag is
// false when the key does not exist.
func (p *Provider) readPayload(key []byte) (core.ResultsPayload, bool, error) {
	data, err := p.getBytes(key)
	if err == storage.ErrNotFound {
		return core.ResultsPayload{}, false, nil
	}
	if err != nil {
		return core.ResultsPayload{}, false, err
	}

	var payload core.ResultsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return core.ResultsPayload{}, false, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return payload, true, nil
}

// listStems collects object stems under a key prefix. BadgerDB iterates
// in key order, so the result is already sorted.
func (p *Provider) listStems(prefix string) ([]string, error) {
	var stems []string
	err := p.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			stems = append(stems, stemFromKey(iter.Item().Key(), prefix))
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return stems, nil
}
