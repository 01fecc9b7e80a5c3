package cachemanager

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/parley/internal/log"
)

// DefaultTTL bounds how long entries live when callers pass no TTL of
// their own.
const DefaultTTL = 10 * time.Minute

// DefaultCleanupInterval is how often expired entries are evicted.
const DefaultCleanupInterval = 30 * time.Minute

// MemoryStore is a go-cache backed Store. The useCase label tags log
// lines so cache activity for different callers can be told apart.
type MemoryStore[V any] struct {
	useCase string
	cache   *gocache.Cache
}

// NewMemoryStore creates an in-memory store with the given default TTL
// and cleanup interval.
func NewMemoryStore[V any](useCase string, defaultTTL, cleanupInterval time.Duration) *MemoryStore[V] {
	return &MemoryStore[V]{
		useCase: useCase,
		cache:   gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value by key. A stored value of the wrong type counts
// as a miss; go-cache holds interface{} values, so the assertion guards
// against a key collision between differently-typed stores.
func (s *MemoryStore[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V

	value, found := s.cache.Get(key)
	if !found {
		return zero, false
	}

	v, ok := value.(V)
	if !ok {
		log.Error(log.CatCache, "cached value has wrong type", "useCase", s.useCase, "key", key)
		return zero, false
	}

	log.Debug(log.CatCache, "cache hit", "useCase", s.useCase, "key", key)
	return v, true
}

// Set stores a value under key with the given TTL.
func (s *MemoryStore[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	s.cache.Set(key, value, ttl)
}

// Flush drops every entry.
func (s *MemoryStore[V]) Flush(ctx context.Context) error {
	s.cache.Flush()
	log.Debug(log.CatCache, "cache flushed", "useCase", s.useCase)
	return nil
}
