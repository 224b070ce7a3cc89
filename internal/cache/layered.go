package cache

import "time"

// LayeredCache checks memory first, then disk, promoting disk hits
type LayeredCache struct {
	memory       Cache
	disk         Cache
	promotionTTL time.Duration
}

// NewLayeredCache combines a fast and a persistent layer
func NewLayeredCache(memory, disk Cache, promotionTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory:       memory,
		disk:         disk,
		promotionTTL: promotionTTL,
	}
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if val, found := c.disk.Get(key); found {
		_ = c.memory.Set(key, val, c.promotionTTL)
		return val, true
	}

	return nil, false
}

// Set writes both layers; the disk layer keeps its own default TTL when ttl is 0
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

func (c *LayeredCache) Delete(key string) error {
	_ = c.memory.Delete(key)
	return c.disk.Delete(key)
}

func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	return c.disk.Clear()
}
