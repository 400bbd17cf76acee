// Package storage defines the key-value contract used to persist progress.
package storage

import (
	"context"
	"errors"
	"sort"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// KV is a durable key-value store. Implementations must be safe for
// concurrent use.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Deleter is implemented by stores that can remove a key.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Lister is implemented by stores that can enumerate keys.
type Lister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Batcher is implemented by stores that can write several keys atomically.
type Batcher interface {
	SetMany(ctx context.Context, values map[string][]byte) error
}

// SetMany writes values atomically if kv supports it, one by one otherwise.
func SetMany(ctx context.Context, kv KV, values map[string][]byte) error {
	if b, ok := kv.(Batcher); ok {
		return b.SetMany(ctx, values)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := kv.Set(ctx, k, values[k]); err != nil {
			return err
		}
	}
	return nil
}
