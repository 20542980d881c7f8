package permissions

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() CacheKey {
	return CacheKey{Subject: uuid.New(), Tenant: uuid.New()}
}

func TestCacheGetSet(t *testing.T) {
	cache := NewCache(10, 5*time.Minute, clock.NewMock())
	key := testKey()

	_, ok := cache.Get(key)
	assert.False(t, ok)

	cache.Set(key, NewGrantSet([]string{"cases:read"}))

	grants, ok := cache.Get(key)
	require.True(t, ok)
	assert.True(t, grants.Has("cases:read"))
}

func TestCacheTTLExpiry(t *testing.T) {
	mockClock := clock.NewMock()
	cache := NewCache(10, 5*time.Minute, mockClock)
	key := testKey()

	cache.Set(key, NewGrantSet([]string{"cases:read"}))

	mockClock.Add(5 * time.Minute)
	_, ok := cache.Get(key)
	assert.True(t, ok, "entry at exactly the TTL boundary is still valid")

	mockClock.Add(time.Second)
	_, ok = cache.Get(key)
	assert.False(t, ok, "entry past the TTL is a miss")

	stats := cache.Stats()
	assert.Equal(t, 0, stats.Size, "expired entry is removed on read")
}

func TestCacheSetResetsTTL(t *testing.T) {
	mockClock := clock.NewMock()
	cache := NewCache(10, 5*time.Minute, mockClock)
	key := testKey()

	cache.Set(key, NewGrantSet([]string{"cases:read"}))
	mockClock.Add(4 * time.Minute)
	cache.Set(key, NewGrantSet([]string{"cases:read", "cases:create"}))
	mockClock.Add(4 * time.Minute)

	grants, ok := cache.Get(key)
	require.True(t, ok)
	assert.True(t, grants.Has("cases:create"))
}

func TestCacheLRUEviction(t *testing.T) {
	cache := NewCache(2, 5*time.Minute, clock.NewMock())
	first := testKey()
	second := testKey()
	third := testKey()

	cache.Set(first, NewGrantSet([]string{"a:read"}))
	cache.Set(second, NewGrantSet([]string{"b:read"}))

	// Touch first so second becomes the LRU victim.
	_, ok := cache.Get(first)
	require.True(t, ok)

	cache.Set(third, NewGrantSet([]string{"c:read"}))

	_, ok = cache.Get(first)
	assert.True(t, ok)
	_, ok = cache.Get(second)
	assert.False(t, ok)
	_, ok = cache.Get(third)
	assert.True(t, ok)
	assert.Equal(t, 2, cache.Stats().Size)
}

func TestCacheInvalidateAndClear(t *testing.T) {
	cache := NewCache(10, 5*time.Minute, clock.NewMock())
	first := testKey()
	second := testKey()

	cache.Set(first, NewGrantSet([]string{"a:read"}))
	cache.Set(second, NewGrantSet([]string{"b:read"}))

	cache.Invalidate(first)
	_, ok := cache.Get(first)
	assert.False(t, ok)
	_, ok = cache.Get(second)
	assert.True(t, ok)

	cache.Clear()
	assert.Equal(t, 0, cache.Stats().Size)
}

func TestCacheStats(t *testing.T) {
	cache := NewCache(10, 5*time.Minute, clock.NewMock())
	key := testKey()

	cache.Set(key, NewGrantSet([]string{"cases:read"}))
	cache.Get(key)
	cache.Get(key)
	cache.Get(testKey())

	stats := cache.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 0.001)
	assert.Equal(t, 10, stats.MaxSize)
}

func TestCacheCleanupExpired(t *testing.T) {
	mockClock := clock.NewMock()
	cache := NewCache(10, 5*time.Minute, mockClock)

	stale := testKey()
	fresh := testKey()

	cache.Set(stale, NewGrantSet([]string{"a:read"}))
	mockClock.Add(4 * time.Minute)
	cache.Set(fresh, NewGrantSet([]string{"b:read"}))
	mockClock.Add(2 * time.Minute)

	removed := cache.CleanupExpired()
	assert.Equal(t, 1, removed)

	_, ok := cache.Get(fresh)
	assert.True(t, ok)
}
