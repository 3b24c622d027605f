// Package respcache provides the bounded response cache that sits in front
// of the API transport: TTL-based freshness plus LRU eviction once the
// entry table is full.
//
// Expiry is checked synchronously on access; there is no background reaper
// goroutine. All state transitions are serialized under one mutex.
package respcache

import (
	"container/list"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Stats is a read-only snapshot of cache effectiveness.
type Stats struct {
	Hits           uint64
	Misses         uint64
	TotalRequests  uint64
	HitRatePercent float64
	Size           int
	MaxSize        int
}

type entry struct {
	key     string
	payload []byte
	expiry  time.Time
}

// Cache maps request fingerprints to response payloads. Only idempotent
// reads belong here; mutating calls must go around it and invalidate.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	hits    uint64
	misses  uint64
	logger  *slog.Logger

	now func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger enables debug logging. Pass nil to disable (default).
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New creates a cache holding at most maxSize entries, each fresh for ttl.
// A ttl of zero or less means entries never expire by age.
func New(maxSize int, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Key builds the deterministic request fingerprint: method, path and the
// query string with parameters sorted by name.
func Key(method, path string, query url.Values) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte(' ')
	b.WriteString(path)
	if len(query) > 0 {
		b.WriteByte('?')
		b.WriteString(query.Encode()) // Encode sorts by key
	}
	return b.String()
}

// Get returns the payload stored under key if present and not expired, and
// marks the entry most recently used.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	e := el.Value.(*entry)
	if c.expired(e) {
		c.remove(el)
		c.misses++
		if c.logger != nil {
			c.logger.Debug("cache expired", "key", key)
		}
		return nil, false
	}
	c.order.MoveToFront(el)
	c.hits++
	return e.payload, true
}

// Set stores payload under key, evicting the least-recently-used entry
// first when the cache is at capacity.
func (c *Cache) Set(key string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		e.payload = payload
		e.expiry = c.expiryFrom(c.now())
		c.order.MoveToFront(el)
		return
	}

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		lru := c.order.Back()
		if lru != nil {
			victim := lru.Value.(*entry).key
			c.remove(lru)
			if c.logger != nil {
				c.logger.Debug("cache evicted", "key", victim)
			}
		}
	}

	el := c.order.PushFront(&entry{key: key, payload: payload, expiry: c.expiryFrom(c.now())})
	c.entries[key] = el
}

// Delete removes the entry stored under key, if any.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
}

// DeletePrefix removes every entry whose key starts with prefix and
// returns the number removed. Used to invalidate a budget's cached reads
// after a mutation under that budget.
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for key, el := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.remove(el)
			removed++
		}
	}
	if removed > 0 && c.logger != nil {
		c.logger.Debug("cache invalidated", "prefix", prefix, "removed", removed)
	}
	return removed
}

// Clear removes all entries. Hit and miss counters are preserved.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
	if c.logger != nil {
		c.logger.Info("cache cleared")
	}
}

// Stats returns current cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	var rate float64
	if total > 0 {
		rate = float64(c.hits) / float64(total) * 100
	}
	return Stats{
		Hits:           c.hits,
		Misses:         c.misses,
		TotalRequests:  total,
		HitRatePercent: rate,
		Size:           len(c.entries),
		MaxSize:        c.maxSize,
	}
}

func (c *Cache) expired(e *entry) bool {
	return !e.expiry.IsZero() && c.now().After(e.expiry)
}

// expiryFrom returns the expiry for an entry stored at now. The zero time
// marks entries that never expire.
func (c *Cache) expiryFrom(now time.Time) time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(c.ttl)
}

// remove unlinks an element from both structures. Callers must hold c.mu.
func (c *Cache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*entry).key)
}
