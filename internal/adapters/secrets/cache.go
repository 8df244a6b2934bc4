package secrets

import (
	"sync"
	"time"

	"github.com/kevin07696/order-service/internal/adapters/ports"
)

// secretCache keeps secrets in memory for a TTL. A zero TTL disables it.
type secretCache struct {
	entries map[string]cacheEntry
	now     func() time.Time
	mu      sync.Mutex
	ttl     time.Duration
}

type cacheEntry struct {
	secret    *ports.Secret
	expiresAt time.Time
}

func newSecretCache(ttl time.Duration) *secretCache {
	return &secretCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
		ttl:     ttl,
	}
}

func (c *secretCache) get(key string) *ports.Secret {
	if c.ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil
	}
	return entry.secret
}

func (c *secretCache) set(key string, secret *ports.Secret) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{secret: secret, expiresAt: c.now().Add(c.ttl)}
}
