// Package cache holds raw REST response bodies for a short time so bursts of
// reads caused by a single user action hit the server once.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/planetfederal/gsconfig/config"
)

// ResponseCache maps a request key to the body last fetched for it.
// Entries older than the TTL are misses; there is no background expiry.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, body []byte)
	InvalidateAll(ctx context.Context)
}

type Clock func() time.Time

type entry struct {
	storedAt time.Time
	body     []byte
}

type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     Clock
	entries map[string]entry
}

type Option func(*MemoryCache)

func WithClock(clock Clock) Option {
	return func(c *MemoryCache) {
		if clock != nil {
			c.now = clock
		}
	}
}

func NewMemoryCache(ttl time.Duration, opts ...Option) *MemoryCache {
	if ttl <= 0 {
		ttl = config.DefaultCacheTTL
	}
	c := &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]entry{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *MemoryCache) TTL() time.Duration {
	return c.ttl
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, found := c.entries[key]
	if !found {
		return nil, false
	}
	if c.now().Sub(cached.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return cached.body, true
}

func (c *MemoryCache) Put(_ context.Context, key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{storedAt: c.now(), body: append([]byte(nil), body...)}
}

func (c *MemoryCache) InvalidateAll(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = map[string]entry{}
}

// Len counts stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
