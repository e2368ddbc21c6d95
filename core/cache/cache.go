package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"expense-sync/core/utils"
)

// lowWaterFraction is the fill level eviction shrinks the cache down to.
const lowWaterFraction = 0.8

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Entries   int    `json:"entries"`
	Bytes     int64  `json:"bytes"`
	MaxBytes  int64  `json:"max_bytes"`
}

type entry struct {
	key       string
	value     any
	size      int64
	expiresAt time.Time
	elem      *list.Element
}

// Cache is a TTL response cache with a byte ceiling and LRU eviction.
//
// Keys are built with Key(scope, args...), so all entries for one scope share
// a prefix and can be dropped together after a write to that scope.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int64
	entries map[string]*entry
	lru     *list.List // front = most recently used
	bytes   int64

	hits      uint64
	misses    uint64
	evictions uint64

	log *zap.Logger
	now func() time.Time
}

// New creates a cache from the given configuration.
func New(cfg Config, log *zap.Logger) *Cache {
	ttl := cfg.TTLSeconds
	if ttl <= 0 {
		ttl = 3600
	}
	max := cfg.MaxBytes
	if max <= 0 {
		max = 100 << 20
	}
	return &Cache{
		ttl:     time.Duration(ttl) * time.Second,
		max:     max,
		entries: make(map[string]*entry),
		lru:     list.New(),
		log:     log,
		now:     time.Now,
	}
}

// Key builds a cache key from a scope and call arguments.
func Key(scope string, args ...string) string {
	if len(args) == 0 {
		return scope + "|"
	}
	return scope + "|" + strings.Join(args, "|")
}

// Get returns the cached value for key if present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.remove(e)
		c.misses++
		return nil, false
	}
	c.lru.MoveToFront(e.elem)
	c.hits++
	return e.value, true
}

// Set stores value under key, evicting old entries if the ceiling is hit.
// A value larger than the ceiling is not stored at all.
func (c *Cache) Set(key string, value any) {
	size := utils.Sizeof(value)
	if size > c.max {
		c.log.Warn("Value exceeds cache ceiling, not cached",
			zap.String("key", key), zap.Int64("size", size))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.remove(e)
	}

	e := &entry{
		key:       key,
		value:     value,
		size:      size,
		expiresAt: c.now().Add(c.ttl),
	}
	e.elem = c.lru.PushFront(e)
	c.entries[key] = e
	c.bytes += size

	if c.bytes > c.max {
		c.evict()
	}
}

// InvalidateScope drops every entry whose key belongs to scope.
func (c *Cache) InvalidateScope(scope string) int {
	prefix := scope + "|"

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.remove(e)
			removed++
		}
	}
	if removed > 0 {
		c.log.Debug("Cache scope invalidated",
			zap.String("scope", scope), zap.Int("entries", removed))
	}
	return removed
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.lru.Init()
	c.bytes = 0
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   len(c.entries),
		Bytes:     c.bytes,
		MaxBytes:  c.max,
	}
}

// evict removes least recently used entries until usage drops below the
// low-water mark. Callers must hold the lock.
func (c *Cache) evict() {
	target := int64(float64(c.max) * lowWaterFraction)
	for c.bytes > target {
		back := c.lru.Back()
		if back == nil {
			return
		}
		e := back.Value.(*entry)
		c.remove(e)
		c.evictions++
	}
	c.log.Debug("Cache evicted to low-water mark",
		zap.Int64("bytes", c.bytes), zap.Int("entries", len(c.entries)))
}

func (c *Cache) remove(e *entry) {
	c.lru.Remove(e.elem)
	delete(c.entries, e.key)
	c.bytes -= e.size
}
