// Package cachemanager is the small caching layer behind transcript
// discovery: a TTL'd in-memory store plus a read-through wrapper that
// runs a loader on miss. Scan results are cheap to hold and expensive to
// rebuild, so the watcher flushes the store instead of tracking keys.
package cachemanager

import (
	"context"
	"time"
)

// Store is the cache surface the read-through wrapper and the watcher
// invalidation path need.
type Store[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V, ttl time.Duration)
	Flush(ctx context.Context) error
}
