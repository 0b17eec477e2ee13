package geoapify

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/couchcryptid/storm-radar-display/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingFetcher struct {
	calls int
	err   error
}

func (m *countingFetcher) FetchStaticMap(_ context.Context, _, _, _ float64, w, h int) (image.Image, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return image.NewNRGBA(image.Rect(0, 0, w, h)), nil
}

// --- CachedBasemap tests ---

func TestCachedBasemap_Hit(t *testing.T) {
	inner := &countingFetcher{}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedBasemap(inner, 4, metrics)

	a, err := cached.FetchStaticMap(context.Background(), 29.6, -95.1, 6.5, 80, 48)
	require.NoError(t, err)
	b, err := cached.FetchStaticMap(context.Background(), 29.6, -95.1, 6.5, 80, 48)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.BasemapCache.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.BasemapCache.WithLabelValues("miss")))
}

func TestCachedBasemap_DifferentViewsMiss(t *testing.T) {
	inner := &countingFetcher{}
	cached := NewCachedBasemap(inner, 4, observability.NewMetricsForTesting())

	_, _ = cached.FetchStaticMap(context.Background(), 29.6, -95.1, 6.5, 80, 48)
	_, _ = cached.FetchStaticMap(context.Background(), 29.6, -95.1, 7, 80, 48)
	_, _ = cached.FetchStaticMap(context.Background(), 29.6, -95.1, 6.5, 40, 48)

	assert.Equal(t, 3, inner.calls)
}

func TestCachedBasemap_ErrorsNotCached(t *testing.T) {
	inner := &countingFetcher{err: errors.New("boom")}
	cached := NewCachedBasemap(inner, 4, observability.NewMetricsForTesting())

	_, err := cached.FetchStaticMap(context.Background(), 0, 0, 1, 8, 8)
	require.Error(t, err)
	_, err = cached.FetchStaticMap(context.Background(), 0, 0, 1, 8, 8)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, cached.cache.len())
}

// --- LRU cache unit tests ---

func img(w int) image.Image { return image.NewNRGBA(image.Rect(0, 0, w, 1)) }

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", img(1))
	c.put("b", img(2))

	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v.Bounds().Dx())

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", img(1))
	c.put("b", img(2))
	c.put("c", img(3)) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	_, ok = c.get("b")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", img(1))
	c.put("b", img(2))
	c.get("a")
	c.put("c", img(3))

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")
	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", img(1))
	c.put("a", img(5))

	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 5, v.Bounds().Dx())
	assert.Equal(t, 1, c.len())
}
