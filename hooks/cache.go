package hooks

import (
	"context"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/poiesic/billscan/storage"
	"github.com/poiesic/billscan/storage/badger"
)

// Cache stores hook results between runs. Implementations return
// storage.ErrNotFound on a miss; the manager treats every error as a
// miss, so a broken cache only costs re-execution.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// MemoryCache is a process-local Cache. Used in tests and for runs where
// cross-run hook caching is not wanted.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]string)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (c *MemoryCache) Set(ctx context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// badgerKeyPrefix keeps hook entries apart from pipeline objects when the
// cache shares a database with the badger storage backend.
const badgerKeyPrefix = "hooks/"

// BadgerCache is a Cache persisted in BadgerDB, so hook results survive
// across runs.
type BadgerCache struct {
	backend *badger.Backend
}

// NewBadgerCache wraps an open badger backend. The caller keeps ownership
// of the backend and closes it.
func NewBadgerCache(backend *badger.Backend) *BadgerCache {
	return &BadgerCache{backend: backend}
}

func (c *BadgerCache) Get(ctx context.Context, key string) (string, error) {
	var value []byte
	err := c.backend.WithTx(func(tx *badgerdb.Txn) error {
		item, err := tx.Get([]byte(badgerKeyPrefix + key))
		if err != nil {
			if err == badgerdb.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	}, false)
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func (c *BadgerCache) Set(ctx context.Context, key, value string) error {
	return c.backend.WithTx(func(tx *badgerdb.Txn) error {
		if err := tx.Set([]byte(badgerKeyPrefix+key), []byte(value)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
