// Package storage holds the key-value stores used to persist coach histories
// and user profiles. Values are opaque bytes (JSON documents in practice).
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// Store is a minimal key-value store.
// Get returns ErrNotFound when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

var _ Store = (*PrefixedStore)(nil)

// PrefixedStore is a view on a Store that namespaces all keys with a prefix.
type PrefixedStore struct {
	prefix string
	store  Store
}

func WithPrefix(store Store, prefix string) *PrefixedStore {
	return &PrefixedStore{
		prefix: prefix,
		store:  store,
	}
}

func (ps *PrefixedStore) Get(ctx context.Context, key string) ([]byte, error) {
	return ps.store.Get(ctx, ps.prefix+key)
}

func (ps *PrefixedStore) Put(ctx context.Context, key string, value []byte) error {
	return ps.store.Put(ctx, ps.prefix+key, value)
}

// UserKeyPrefix is the key namespace of a single user's data.
func UserKeyPrefix(userID string) string {
	return "fitmate_" + userID + "_"
}
