package llmcap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
)

// cacheEntry mirrors the teacher's internal/llm/token_cache.go
// tokenCacheEntry: an expiring, LRU-touched value.
type cacheEntry struct {
	text       string
	usage      jobtypes.TokenUsage
	expiration time.Time
	lastAccess time.Time
}

// Cache is an in-memory, size- and TTL-bounded cache for deterministic
// (temperature 0) LLM completions, generalized from the teacher's
// token-count cache to cache full completions instead of just counts.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	maxSize int
	ttl     time.Duration
}

// NewCache builds a Cache and starts its background eviction loop, bound to
// the lifetime of the process (matching the teacher's fire-and-forget
// cleanupLoop goroutine).
func NewCache(maxSize int, ttl time.Duration) *Cache {
	c := &Cache{entries: map[string]cacheEntry{}, maxSize: maxSize, ttl: ttl}
	go c.cleanupLoop()
	return c
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.ttl / 2)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for k, e := range c.entries {
			if now.After(e.expiration) {
				delete(c.entries, k)
			}
		}
		c.mu.Unlock()
	}
}

// Get returns a cached completion if present and unexpired.
func (c *Cache) Get(key string) (string, jobtypes.TokenUsage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiration) {
		return "", jobtypes.TokenUsage{}, false
	}
	e.lastAccess = time.Now()
	c.entries[key] = e
	return e.text, e.usage, true
}

// Set stores a completion, evicting the least-recently-accessed entry first
// if the cache is at capacity.
func (c *Cache) Set(key, text string, usage jobtypes.TokenUsage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}
	now := time.Now()
	c.entries[key] = cacheEntry{text: text, usage: usage, expiration: now.Add(c.ttl), lastAccess: now}
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.lastAccess.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.lastAccess
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func cacheKeyFor(providerName, prompt, system string, opts CompletionOptions) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%d", providerName, opts.Model, system, prompt, opts.MaxTokens)
	return hex.EncodeToString(h.Sum(nil))
}
