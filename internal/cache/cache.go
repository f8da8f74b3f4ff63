// Package cache provides the in-memory hot layer in front of the
// avatar file store. The store remains the source of truth; the hot
// layer only spares repeated disk reads for frequently served
// artifacts and is safe to lose at any time.
package cache

import (
	"context"
)

// Cache is a generic keyed cache.
type Cache[T any] interface {
	// Get retrieves a value from the cache.
	// Returns the value, whether it was found, and any error.
	Get(ctx context.Context, key string) (T, bool, error)

	// Set stores a value in the cache.
	Set(ctx context.Context, key string, value T) error

	// Invalidate removes a value from the cache.
	Invalidate(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// ByteCache caches raw artifact bytes, keyed by user and filename.
type ByteCache = Cache[[]byte]
