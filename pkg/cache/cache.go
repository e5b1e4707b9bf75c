// Package cache provides the byte-level cache behind feed clients.
//
// Backends:
//   - FileCache: per-user on-disk cache for CLI usage (the default)
//   - RedisCache: shared cache for server deployments
//   - NullCache: caching disabled
//
// Use [Scoped] to namespace keys per source so two feeds never collide.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with per-entry TTL.
// A zero TTL means the entry never expires.
type Cache interface {
	// Get returns the cached value and whether it was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Scoped wraps a Cache, prefixing every key. It gives each package source
// its own namespace inside one shared backend.
type Scoped struct {
	inner  Cache
	prefix string
}

// NewScoped creates a scoped view of inner. The prefix is prepended
// verbatim to every key.
func NewScoped(inner Cache, prefix string) *Scoped {
	return &Scoped{inner: inner, prefix: prefix}
}

// Get retrieves a value under the prefixed key.
func (s *Scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

// Set stores a value under the prefixed key.
func (s *Scoped) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.inner.Set(ctx, s.prefix+key, data, ttl)
}

// Delete removes the prefixed key.
func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// Close is a no-op: the wrapped backend is shared and closed by its owner.
func (s *Scoped) Close() error { return nil }

var _ Cache = (*Scoped)(nil)
