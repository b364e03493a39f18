// Package cache stores rendered artifacts keyed by their inputs.
//
// Backends implement [Cache]: [FileCache] for CLI use, [RedisCache] for servers
// sharing results across instances and [NullCache] to disable caching. Keys are
// produced by a [Keyer] so that equal inputs always map to the same entry.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// TTLs for cached artifacts.
const (
	TTLPreview = 24 * time.Hour
	TTLProbe   = 7 * 24 * time.Hour
)
