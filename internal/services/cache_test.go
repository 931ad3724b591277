package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCacheRoundTrip(t *testing.T) {
	cache := NewSnapshotCache(1, 30)

	_, ok := cache.Get("missing")
	assert.False(t, ok)

	cache.Set("key", []byte(`{"a":1}`))
	value, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"a":1}`), value)

	cache.Invalidate("key")
	_, ok = cache.Get("key")
	assert.False(t, ok)
}

func TestSnapshotCacheDisabled(t *testing.T) {
	cache := NewSnapshotCache(0, 30)

	cache.Set("key", []byte("value"))
	_, ok := cache.Get("key")
	assert.False(t, ok)
	assert.Zero(t, cache.HitRate())
	assert.Zero(t, cache.SizeMB())
}

func TestSnapshotCacheNilReceiver(t *testing.T) {
	var cache *SnapshotCache

	cache.Set("key", []byte("value"))
	cache.Invalidate("key")
	_, ok := cache.Get("key")
	assert.False(t, ok)
	assert.Zero(t, cache.HitRate())
	assert.Zero(t, cache.SizeMB())
}
