package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionEntry struct {
	SessionID string
	Project   string
}

func TestMemoryStore_SetGet(t *testing.T) {
	store := NewMemoryStore[[]sessionEntry]("discovery", DefaultTTL, DefaultCleanupInterval)
	entries := []sessionEntry{{SessionID: "abc-123", Project: "parley"}}

	store.Set(context.Background(), "sessions:list", entries, time.Minute)

	got, ok := store.Get(context.Background(), "sessions:list")
	require.True(t, ok)
	assert.Equal(t, entries, got)
}

func TestMemoryStore_Miss(t *testing.T) {
	store := NewMemoryStore[[]sessionEntry]("discovery", DefaultTTL, DefaultCleanupInterval)

	got, ok := store.Get(context.Background(), "sessions:list")
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestMemoryStore_WrongTypeIsMiss(t *testing.T) {
	store := NewMemoryStore[[]sessionEntry]("discovery", DefaultTTL, DefaultCleanupInterval)

	// A colliding key with a foreign type must read as a miss, not panic
	store.cache.Set("sessions:list", "not a session slice", DefaultTTL)

	got, ok := store.Get(context.Background(), "sessions:list")
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestMemoryStore_Flush(t *testing.T) {
	store := NewMemoryStore[[]sessionEntry]("discovery", DefaultTTL, DefaultCleanupInterval)
	store.Set(context.Background(), "sessions:list", []sessionEntry{{SessionID: "abc-123"}}, time.Minute)

	require.NoError(t, store.Flush(context.Background()))

	_, ok := store.Get(context.Background(), "sessions:list")
	assert.False(t, ok)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	store := NewMemoryStore[[]sessionEntry]("discovery", DefaultTTL, DefaultCleanupInterval)
	store.Set(context.Background(), "sessions:list", []sessionEntry{{SessionID: "abc-123"}}, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := store.Get(context.Background(), "sessions:list")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
