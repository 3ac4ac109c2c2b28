// Package cache provides the process-wide TTL cache used for provider
// bootstrap state and translation memoization. Entries expire lazily on read.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value    any
	expireAt time.Time // zero means never expires
}

// TTLCache is a concurrency-safe key/value map with per-entry expiry.
type TTLCache struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

// New creates an empty TTLCache.
func New() *TTLCache {
	return &TTLCache{data: make(map[string]entry), now: time.Now}
}

// Get returns the value for key, or (nil, false) when absent or expired.
// An expired entry is deleted on read.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.data[key]
	if !ok {
		return nil, false
	}
	if !ent.expireAt.IsZero() && !ent.expireAt.After(c.now()) {
		delete(c.data, key)
		return nil, false
	}
	return ent.value, true
}

// Set stores value under key. A non-positive ttl means the entry never
// expires.
func (c *TTLCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ent := entry{value: value}
	if ttl > 0 {
		ent.expireAt = c.now().Add(ttl)
	}
	c.data[key] = ent
}

// Delete removes key if present.
func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Len reports the number of stored entries, including any not yet expired
// lazily.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Key serializes a tuple of key parts into a canonical cache key.
func Key(parts ...any) string {
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = fmt.Sprint(p)
	}
	return strings.Join(strs, "\x1f")
}

var global = New()

// Global returns the process-wide cache shared by providers and the
// translation client.
func Global() *TTLCache {
	return global
}
