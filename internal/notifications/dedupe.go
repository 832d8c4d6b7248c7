package notifications

import (
	"sync"
	"time"
)

// DedupeCache remembers keys with insertion timestamps so repeated
// notifications for the same fact are suppressed within a TTL. It is an
// explicit, injected component: the clock is swappable and eviction runs
// on a caller-controlled cadence, so tests own time and runs stay
// isolated.
type DedupeCache struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewDedupeCache creates a dedupe cache with the given entry TTL.
func NewDedupeCache(ttl time.Duration) *DedupeCache {
	return &DedupeCache{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// NewDedupeCacheWithClock creates a dedupe cache with an injected clock.
func NewDedupeCacheWithClock(ttl time.Duration, now func() time.Time) *DedupeCache {
	return &DedupeCache{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  now,
	}
}

// Add records the key and reports whether it was new. A key whose entry
// has outlived the TTL counts as new again.
func (c *DedupeCache) Add(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if at, ok := c.seen[key]; ok && now.Sub(at) < c.ttl {
		return false
	}
	c.seen[key] = now
	return true
}

// EvictOlderThan removes entries inserted more than the duration ago and
// returns how many were removed. The scheduler invokes this on a fixed
// cadence.
func (c *DedupeCache) EvictOlderThan(d time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-d)
	evicted := 0
	for key, at := range c.seen {
		if at.Before(cutoff) {
			delete(c.seen, key)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of live entries.
func (c *DedupeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
