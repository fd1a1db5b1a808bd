package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Window is how long an identical payload is rejected after first sight.
const Window = 3000 * time.Millisecond

// Cache is a short-window fingerprint guard against double submits (UI
// double-click, a retry racing a slow first attempt) producing two billable
// jobs from one intent. Best-effort and single-process only.
type Cache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]time.Time),
		ttl:     Window,
		now:     time.Now,
	}
}

// IsDuplicate reports whether an identical payload was seen inside the
// window. A hit does not refresh the timestamp; a miss records the payload
// and lets it proceed.
func (c *Cache) IsDuplicate(payload []byte) bool {
	fp := fingerprint(payload)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, seen := range c.entries {
		if now.Sub(seen) > c.ttl {
			delete(c.entries, k)
		}
	}

	if _, ok := c.entries[fp]; ok {
		return true
	}
	c.entries[fp] = now
	return false
}

func fingerprint(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
