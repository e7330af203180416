package services

import (
	"container/list"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// TokenCache holds backend bearer tokens per WhatsApp user. It is bounded:
// beyond maxSize the least recently used token is dropped, which only costs
// that user a re-authentication.
type TokenCache struct {
	mu         sync.Mutex
	entries    map[string]*tokenEntry
	order      *list.List // least recently used at front
	maxSize    int
	defaultTTL time.Duration
	clock      clockwork.Clock
}

type tokenEntry struct {
	token     string
	expiresAt time.Time
	element   *list.Element
}

// NewTokenCache creates a token cache
func NewTokenCache(maxSize int, defaultTTL time.Duration, clock clockwork.Clock) *TokenCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenCache{
		entries:    make(map[string]*tokenEntry),
		order:      list.New(),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		clock:      clock,
	}
}

// Get returns the token of userID if present and not expired
func (c *TokenCache) Get(userID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[userID]
	if !ok {
		return "", false
	}
	if !c.clock.Now().Before(entry.expiresAt) {
		c.removeLocked(userID, entry)
		return "", false
	}
	c.order.MoveToBack(entry.element)
	return entry.token, true
}

// Set stores token for userID. A JWT's exp claim bounds the entry lifetime.
func (c *TokenCache) Set(userID, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.expiryFor(token)
	if entry, ok := c.entries[userID]; ok {
		entry.token = token
		entry.expiresAt = expiresAt
		c.order.MoveToBack(entry.element)
		return
	}

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		if front := c.order.Front(); front != nil {
			oldest := front.Value.(string)
			c.removeLocked(oldest, c.entries[oldest])
		}
	}
	c.entries[userID] = &tokenEntry{
		token:     token,
		expiresAt: expiresAt,
		element:   c.order.PushBack(userID),
	}
}

// Invalidate drops the token of userID (401 or logout)
func (c *TokenCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[userID]; ok {
		c.removeLocked(userID, entry)
	}
}

// EvictExpired removes expired tokens and returns how many were removed
func (c *TokenCache) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	evicted := 0
	for userID, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			c.removeLocked(userID, entry)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of cached tokens
func (c *TokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TokenCache) removeLocked(userID string, entry *tokenEntry) {
	c.order.Remove(entry.element)
	delete(c.entries, userID)
}

// expiryFor reads the exp claim without verifying the signature; the backend
// remains the judge of validity, this only avoids sending a token known to be stale.
func (c *TokenCache) expiryFor(token string) time.Time {
	fallback := c.clock.Now().Add(c.defaultTTL)

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fallback
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fallback
	}
	if exp.Time.Before(fallback) {
		return exp.Time
	}
	return fallback
}
