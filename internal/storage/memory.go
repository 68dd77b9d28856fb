package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/coocood/freecache"
)

const DefaultMemoryStoreSize = 64 * 1024 * 1024

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps values in a freecache in-process cache. Entries never
// expire, but can be evicted when the cache is full, so it is meant for
// development and tests only. Single values are limited to 1/1024 of the size.
type MemoryStore struct {
	cache *freecache.Cache
}

func NewMemoryStore(sizeBytes int) *MemoryStore {
	if sizeBytes <= 0 {
		sizeBytes = DefaultMemoryStoreSize
	}
	return &MemoryStore{
		cache: freecache.NewCache(sizeBytes),
	}
}

func (ms *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	val, err := ms.cache.Get([]byte(key))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("memory store get [%s]: %w", key, err)
	}
	return val, nil
}

func (ms *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	if err := ms.cache.Set([]byte(key), value, 0); err != nil {
		return fmt.Errorf("memory store put [%s]: %w", key, err)
	}
	return nil
}
