package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DirectoryCache holds one rarely-changing listing, such as the languages an
// engine supports, for up to ttl.
type DirectoryCache struct {
	mu      sync.Mutex
	entries []string
	stored  time.Time
	present bool
	ttl     time.Duration

	now func() time.Time
	log *zap.SugaredLogger
}

// NewDirectoryCache returns an empty cache.
func NewDirectoryCache(ttl time.Duration, opts ...Option) *DirectoryCache {
	o := buildOptions(opts)
	return &DirectoryCache{
		ttl: ttl,
		now: o.now,
		log: o.logger.With("component", "cache.DirectoryCache"),
	}
}

// Get returns a copy of the listing while it is fresh. A stale listing is
// dropped.
func (c *DirectoryCache) Get() ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.present {
		return nil, false
	}
	if c.now().Sub(c.stored) > c.ttl {
		c.entries, c.present = nil, false
		c.log.Debugw("directory cache expired")
		return nil, false
	}
	c.log.Debugw("directory cache hit")
	return append([]string(nil), c.entries...), true
}

// Set replaces the listing and restarts its TTL.
func (c *DirectoryCache) Set(entries []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append([]string(nil), entries...)
	c.stored = c.now()
	c.present = true
	c.log.Infow("cached directory listing", "count", len(entries))
}

// Clear empties the slot.
func (c *DirectoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries, c.present = nil, false
	c.log.Infow("directory cache cleared")
}
