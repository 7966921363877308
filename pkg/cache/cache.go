// Package cache stores computed layouts and rendered artifacts.
//
// Layout is cheap compared to the round trip through the record store and
// rsvg-convert, but the server renders the same tree for every viewer, so
// both stages are cached by content hash. [FileCache] backs the CLI,
// [RedisCache] backs a shared server deployment and [NullCache] disables
// caching.
//
// Keys come from a [Keyer]. [ScopedKeyer] prefixes them so several owners
// can share one backend without collisions.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A non-positive ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Default lifetimes. Keys are content hashes, so entries never go stale;
// the TTL only bounds storage.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)
