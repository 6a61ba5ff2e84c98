// Package lru is in-process token cache.
// Use it only when the service runs as a single instance:
// revocation on other instance would not invalidate local entries.
package lru

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nkiryanov/tokenauth/internal/cache"
	"github.com/nkiryanov/tokenauth/internal/models"
)

type entry struct {
	token     models.Token
	expiresAt time.Time
	revoked   bool
}

type Cache struct {
	// Get may drop stale entry, so every access is serialized
	// or it could drop a revocation mark put in between
	mu    sync.Mutex
	cache *expirable.LRU[string, entry]
	now   func() time.Time
}

var _ cache.TokenCache = (*Cache)(nil)

// New creates cache that keeps at most size tokens, none of them longer than maxTTL
func New(size int, maxTTL time.Duration) *Cache {
	if size <= 0 {
		size = 1
	}

	return &Cache{
		cache: expirable.NewLRU[string, entry](size, nil, maxTTL),
		now:   time.Now,
	}
}

func (c *Cache) Get(_ context.Context, tokenHash string) (models.Token, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.cache.Get(tokenHash)
	if !ok {
		return models.Token{}, false, nil
	}

	// Shorter per entry ttl than cache wide one
	if !c.now().Before(e.expiresAt) {
		c.cache.Remove(tokenHash)
		return models.Token{}, false, nil
	}

	if e.revoked {
		return models.Token{}, false, nil
	}

	return e.token, true, nil
}

func (c *Cache) Add(_ context.Context, token models.Token, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.cache.Peek(token.TokenHash); ok && now.Before(e.expiresAt) {
		return nil
	}

	c.cache.Add(token.TokenHash, entry{token: token, expiresAt: now.Add(ttl)})
	return nil
}

func (c *Cache) Revoke(_ context.Context, ttl time.Duration, tokenHashes ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, h := range tokenHashes {
		if ttl <= 0 {
			c.cache.Remove(h)
			continue
		}
		c.cache.Add(h, entry{expiresAt: c.now().Add(ttl), revoked: true})
	}
	return nil
}

// Count of cache entries, revocation marks included
func (c *Cache) Len() int {
	return c.cache.Len()
}
