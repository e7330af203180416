package utils

import (
	"container/list"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type dedupeEntry struct {
	seenAt  time.Time
	element *list.Element
}

// DedupeCache remembers message ids for a TTL so webhook redeliveries are
// processed once. It is bounded: past maxSize the oldest id is forgotten.
type DedupeCache struct {
	mu      sync.Mutex
	seen    map[string]*dedupeEntry
	order   *list.List // oldest at front
	ttl     time.Duration
	maxSize int
	clock   clockwork.Clock
}

// NewDedupeCache creates an empty cache
func NewDedupeCache(ttl time.Duration, maxSize int, clock clockwork.Clock) *DedupeCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &DedupeCache{
		seen:    make(map[string]*dedupeEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		clock:   clock,
	}
}

// CheckAndMark returns true if key was already seen within the TTL.
// Otherwise it records key and returns false.
func (c *DedupeCache) CheckAndMark(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if entry, ok := c.seen[key]; ok {
		if now.Sub(entry.seenAt) < c.ttl {
			return true
		}
		entry.seenAt = now
		c.order.MoveToBack(entry.element)
		return false
	}

	if c.maxSize > 0 && len(c.seen) >= c.maxSize {
		if front := c.order.Front(); front != nil {
			c.order.Remove(front)
			delete(c.seen, front.Value.(string))
		}
	}
	c.seen[key] = &dedupeEntry{seenAt: now, element: c.order.PushBack(key)}
	return false
}

// Forget drops key so its next delivery is processed again
func (c *DedupeCache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.seen[key]; ok {
		c.order.Remove(entry.element)
		delete(c.seen, key)
	}
}

// EvictExpired drops expired keys and returns how many were removed
func (c *DedupeCache) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	evicted := 0
	for key, entry := range c.seen {
		if now.Sub(entry.seenAt) >= c.ttl {
			c.order.Remove(entry.element)
			delete(c.seen, key)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of remembered keys
func (c *DedupeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
