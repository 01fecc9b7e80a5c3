package cachemanager

import (
	"context"
	"time"
)

// ReadThrough serves Get from the store and falls back to a loader on
// miss, caching the loaded value. I is the loader's input, carried
// separately from the cache key so a stable key ("sessions:list") can
// front a parameterized load (the scan root).
type ReadThrough[V any, I any] struct {
	store  Store[V]
	load   func(ctx context.Context, input I) (V, error)
	bypass bool
}

// NewReadThrough wraps a store with a loader. bypass disables caching
// entirely; every Get runs the loader.
func NewReadThrough[V any, I any](
	store Store[V],
	load func(ctx context.Context, input I) (V, error),
	bypass bool,
) *ReadThrough[V, I] {
	return &ReadThrough[V, I]{
		store:  store,
		load:   load,
		bypass: bypass,
	}
}

// Get returns the cached value for key, or loads, caches, and returns a
// fresh one. Loader errors are returned without being cached.
func (r *ReadThrough[V, I]) Get(ctx context.Context, key string, input I, ttl time.Duration) (V, error) {
	if r.bypass {
		return r.load(ctx, input)
	}

	if value, ok := r.store.Get(ctx, key); ok {
		return value, nil
	}

	value, err := r.load(ctx, input)
	if err != nil {
		return value, err
	}

	r.store.Set(ctx, key, value, ttl)
	return value, nil
}
