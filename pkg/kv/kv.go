// Package kv provides a key-value store abstraction for run and job
// metadata. This allows swapping backends (Valkey/Redis, in-memory,
// etc.) without changing the components that track run state.
package kv

import (
	"context"
	"time"
)

// Store is the key-value surface job tracking needs: TTL-aware reads
// and writes of small JSON blobs, an atomic create for new job records,
// and deletion when a run is purged.
type Store interface {
	// Set stores a value under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value by key. Returns ErrNotFound for missing keys.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// SetNX atomically stores a value only if the key is not already
	// present. Returns whether the value was stored.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Close releases the backend connection.
	Close() error
}
