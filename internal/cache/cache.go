package cache

import (
	"sync"
	"time"
)

// Cache is a mutex-guarded TTL map. Expired entries are dropped lazily on read
// and swept on write once the map grows past sweepEvery entries.
type Cache struct {
	mu         sync.RWMutex
	ttl        time.Duration
	m          map[string]entry
	now        func() time.Time
	sweepEvery int
}

type entry struct {
	val any
	exp time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl:        ttl,
		m:          make(map[string]entry),
		now:        time.Now,
		sweepEvery: 1024,
	}
}

func (c *Cache) Get(key string) (any, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !now.Before(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}

	return e.val, true
}

func (c *Cache) Set(key string, val any) {
	c.SetWithTTL(key, val, c.ttl)
}

// SetWithTTL stores val until ttl elapses. Non-positive ttl is a no-op.
func (c *Cache) SetWithTTL(key string, val any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	now := c.now()

	c.mu.Lock()
	if len(c.m) >= c.sweepEvery {
		c.sweepLocked(now)
	}
	c.m[key] = entry{val: val, exp: now.Add(ttl)}
	c.mu.Unlock()
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.m = make(map[string]entry)
	c.mu.Unlock()
}

func (c *Cache) sweepLocked(now time.Time) {
	for k, e := range c.m {
		if !now.Before(e.exp) {
			delete(c.m, k)
		}
	}
}
