package geoapify

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/couchcryptid/storm-radar-display/internal/observability"
)

// StaticMapFetcher is the basemap source wrapped by CachedBasemap.
type StaticMapFetcher interface {
	FetchStaticMap(ctx context.Context, lat, lon, zoom float64, width, height int) (image.Image, error)
}

// CachedBasemap wraps a StaticMapFetcher with an in-memory LRU cache. Basemaps
// for a fixed view never change, so a daemon only pays for the first fetch.
// Cached images are shared and must not be mutated by callers.
type CachedBasemap struct {
	inner   StaticMapFetcher
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedBasemap creates a cache decorator around a basemap fetcher.
func NewCachedBasemap(inner StaticMapFetcher, maxEntries int, metrics *observability.Metrics) *CachedBasemap {
	return &CachedBasemap{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedBasemap) FetchStaticMap(ctx context.Context, lat, lon, zoom float64, width, height int) (image.Image, error) {
	key := fmt.Sprintf("%.6f,%.6f|%g|%dx%d", lat, lon, zoom, width, height)
	if img, ok := c.cache.get(key); ok {
		c.metrics.BasemapCache.WithLabelValues("hit").Inc()
		return img, nil
	}
	c.metrics.BasemapCache.WithLabelValues("miss").Inc()

	img, err := c.inner.FetchStaticMap(ctx, lat, lon, zoom, width, height)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, img)
	return img, nil
}

// lruCache is a simple thread-safe LRU cache of decoded basemaps.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value image.Image
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
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

func (c *lruCache) unlink(e *entry) {
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
	c.unlink(c.tail)
}
