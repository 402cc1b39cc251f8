package openweather

import (
	"context"
	"sync"
	"time"

	"github.com/emberwatch/fire-risk-service/internal/domain"
	"github.com/emberwatch/fire-risk-service/internal/observability"
)

// CachedSource wraps a WeatherSource with a TTL-bounded in-memory LRU cache
// keyed by cell id, so rapid re-predictions of the same region reuse live
// observations instead of hammering the upstream API.
type CachedSource struct {
	inner   domain.WeatherSource
	cache   *lruCache
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a weather source.
func NewCachedSource(inner domain.WeatherSource, maxEntries int, ttl time.Duration, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		ttl:     ttl,
		metrics: metrics,
	}
}

func (c *CachedSource) Fetch(ctx context.Context, cell domain.GridCell) (domain.Observation, error) {
	obs, status := c.cache.get(cell.ID, domain.Now())
	c.metrics.WeatherCache.WithLabelValues(string(status)).Inc()
	if status == cacheHit {
		return obs, nil
	}

	obs, err := c.inner.Fetch(ctx, cell)
	if err != nil {
		return obs, err
	}
	// Only cache live observations so a degraded upstream can recover
	// without waiting out stale entries.
	if obs.Source == domain.SourceLive {
		c.cache.put(cell.ID, obs, domain.Now().Add(c.ttl))
	}
	return obs, nil
}

type cacheStatus string

const (
	cacheHit     cacheStatus = "hit"
	cacheMiss    cacheStatus = "miss"
	cacheExpired cacheStatus = "expired"
)

// lruCache is a simple thread-safe LRU cache for weather observations with
// per-entry expiry.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key       string
	value     domain.Observation
	expiresAt time.Time
	prev      *entry
	next      *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string, now time.Time) (domain.Observation, cacheStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Observation{}, cacheMiss
	}
	if !now.Before(e.expiresAt) {
		delete(c.entries, key)
		c.remove(e)
		return domain.Observation{}, cacheExpired
	}
	c.moveToFront(e)
	return e.value, cacheHit
}

func (c *lruCache) put(key string, value domain.Observation, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
