package machines

import (
	"sync"
	"time"
)

// ListCache holds the most recent machine listing for a short window so the
// dashboard and production views do not re-query on every request. Staleness
// is bounded by the TTL and by explicit invalidation after any write.
type ListCache struct {
	mu       sync.Mutex
	clock    func() time.Time
	ttl      time.Duration
	items    []Machine
	cachedAt time.Time
	valid    bool
}

// NewListCache constructs a cache with the provided TTL and clock.
func NewListCache(ttl time.Duration, clock func() time.Time) *ListCache {
	if clock == nil {
		clock = time.Now
	}
	return &ListCache{clock: clock, ttl: ttl}
}

// Get returns the cached listing when fresh, otherwise invokes loader and
// stores its result. A loader error leaves the cache untouched.
func (c *ListCache) Get(loader func() ([]Machine, error)) ([]Machine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.clock().Sub(c.cachedAt) < c.ttl {
		return c.items, nil
	}

	items, err := loader()
	if err != nil {
		return nil, err
	}
	c.items = items
	c.cachedAt = c.clock()
	c.valid = true
	return items, nil
}

// Invalidate drops the cached listing. Called after every machine write.
func (c *ListCache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.items = nil
	c.mu.Unlock()
}
