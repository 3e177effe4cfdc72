package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned when a key is not found in the key/value store
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore defines TTL-aware key/value operations shared by the cache,
// user-state and dedup layers. Implementations must make every mutation
// atomic per key.
type KeyValueStore interface {
	// Get retrieves a value by key, returns ErrKeyNotFound if absent or expired
	Get(ctx context.Context, key string) ([]byte, error)

	// Set inserts or replaces a key. ttl of zero stores without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetIfAbsent atomically creates the key only when it does not already
	// exist. Returns true when this call created the key.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
