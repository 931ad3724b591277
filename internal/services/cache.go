package services

import "github.com/coocood/freecache"

// SnapshotCache keeps serialized analytics snapshots for a short TTL so a
// burst of dashboard refreshes does not re-run the aggregate queries. Its
// hit/miss counters are what the performance panel reports as cache stats.
type SnapshotCache struct {
	cache  *freecache.Cache
	sizeMB int
	ttl    int
}

func NewSnapshotCache(sizeMB, ttlSeconds int) *SnapshotCache {
	if sizeMB <= 0 {
		return &SnapshotCache{}
	}
	if ttlSeconds <= 0 {
		ttlSeconds = 30
	}
	return &SnapshotCache{
		cache:  freecache.NewCache(sizeMB * 1024 * 1024),
		sizeMB: sizeMB,
		ttl:    ttlSeconds,
	}
}

func (c *SnapshotCache) Get(key string) ([]byte, bool) {
	if c == nil || c.cache == nil {
		return nil, false
	}
	value, err := c.cache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return value, true
}

func (c *SnapshotCache) Set(key string, value []byte) {
	if c == nil || c.cache == nil {
		return
	}
	_ = c.cache.Set([]byte(key), value, c.ttl)
}

func (c *SnapshotCache) Invalidate(key string) {
	if c == nil || c.cache == nil {
		return
	}
	_ = c.cache.Del([]byte(key))
}

func (c *SnapshotCache) HitRate() float64 {
	if c == nil || c.cache == nil {
		return 0
	}
	return c.cache.HitRate()
}

func (c *SnapshotCache) SizeMB() float64 {
	if c == nil {
		return 0
	}
	return float64(c.sizeMB)
}
