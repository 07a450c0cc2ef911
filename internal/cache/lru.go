// Package cache holds the in-process caches used by the transcription
// service: a generic LRU store with time-based expiry, a content-addressed
// wrapper for transcription results, and a single-slot cache for the
// supported-language listing.
package cache

import (
	"container/list"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Option configures a cache.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger *zap.SugaredLogger
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger attaches a logger. Cache events are logged at debug level.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, logger: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Stats is a point-in-time view of a ResultCache.
type Stats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"max_size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	TTL     float64 `json:"ttl"` // seconds
}

type entry[V any] struct {
	key    string
	value  V
	stored time.Time
}

// ResultCache is a fixed-capacity LRU store whose entries expire lazily once
// they are older than the TTL. The front of the recency list is the least
// recently used entry. All state is guarded by a single mutex.
type ResultCache[V any] struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List
	maxSize int
	ttl     time.Duration
	hits    int64
	misses  int64

	now func() time.Time
	log *zap.SugaredLogger
}

// NewResultCache returns an empty cache. maxSize below 1 is treated as 1.
func NewResultCache[V any](maxSize int, ttl time.Duration, opts ...Option) *ResultCache[V] {
	if maxSize < 1 {
		maxSize = 1
	}
	o := buildOptions(opts)
	return &ResultCache[V]{
		items:   make(map[string]*list.Element, maxSize),
		order:   list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     o.now,
		log:     o.logger.With("component", "cache.ResultCache"),
	}
}

// Get returns the value for key. Expired entries are removed and count as a
// miss. A hit moves the entry to the most-recently-used position.
func (c *ResultCache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		c.log.Debugw("cache miss", "key", key)
		return zero, false
	}

	ent := el.Value.(*entry[V])
	if c.expired(ent) {
		c.removeElement(el)
		c.misses++
		c.log.Debugw("cache entry expired", "key", key)
		return zero, false
	}

	c.order.MoveToBack(el)
	c.hits++
	c.log.Debugw("cache hit", "key", key)
	return ent.value, true
}

// Set stores value under key. An existing entry is overwritten and its
// timestamp refreshed; a new entry evicts the least recently used one when
// the cache is full.
func (c *ResultCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry[V])
		ent.value = value
		ent.stored = now
		c.order.MoveToBack(el)
		c.log.Debugw("cache updated", "key", key)
		return
	}

	if c.order.Len() >= c.maxSize {
		if oldest := c.order.Front(); oldest != nil {
			evicted := oldest.Value.(*entry[V]).key
			c.removeElement(oldest)
			c.log.Debugw("cache evicted", "key", evicted)
		}
	}

	c.items[key] = c.order.PushBack(&entry[V]{key: key, value: value, stored: now})
	c.log.Debugw("cache set", "key", key)
}

// Delete removes key if present.
func (c *ResultCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
		c.log.Debugw("cache deleted", "key", key)
	}
}

// Clear removes every entry and resets the hit and miss counters.
func (c *ResultCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element, c.maxSize)
	c.order.Init()
	c.hits = 0
	c.misses = 0
	c.log.Infow("cache cleared")
}

// Len returns the number of stored entries, expired ones included.
func (c *ResultCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats reports size, counters and the hit rate as a percentage rounded to
// two decimals.
func (c *ResultCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var rate float64
	if total := c.hits + c.misses; total > 0 {
		rate = float64(c.hits) / float64(total) * 100
	}
	return Stats{
		Size:    c.order.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: round2(rate),
		TTL:     c.ttl.Seconds(),
	}
}

func (c *ResultCache[V]) expired(ent *entry[V]) bool {
	return c.now().Sub(ent.stored) > c.ttl
}

// removeElement must be called with c.mu held.
func (c *ResultCache[V]) removeElement(el *list.Element) {
	ent := c.order.Remove(el).(*entry[V])
	delete(c.items, ent.key)
}
