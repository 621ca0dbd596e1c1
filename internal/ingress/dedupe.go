package ingress

import (
	"sync"
	"time"
)

// dedupeCache tracks recently seen idempotency keys. Long-poll transports
// can redeliver an update after a reconnect; duplicates inside the TTL window
// are dropped. State is in-memory only: after a restart the transport offset
// itself prevents replays.
type dedupeCache struct {
	mu   sync.Mutex
	keys map[string]time.Time // key -> expiry
	ttl  time.Duration
	now  func() time.Time
}

func newDedupeCache(ttl time.Duration) *dedupeCache {
	return &dedupeCache{
		keys: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// CheckAndMark reports whether key was already seen, marking it either way.
// Expired entries are pruned opportunistically.
func (c *dedupeCache) CheckAndMark(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, expiry := range c.keys {
		if expiry.Before(now) {
			delete(c.keys, k)
		}
	}

	if expiry, ok := c.keys[key]; ok && expiry.After(now) {
		return true
	}

	c.keys[key] = now.Add(c.ttl)
	return false
}
