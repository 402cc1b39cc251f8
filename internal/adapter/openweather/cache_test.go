package openweather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberwatch/fire-risk-service/internal/domain"
)

// --- mock for cache tests ---

type countingSource struct {
	calls int
	obs   domain.Observation
	err   error
}

func (m *countingSource) Fetch(_ context.Context, _ domain.GridCell) (domain.Observation, error) {
	m.calls++
	if m.err != nil {
		return domain.Observation{}, m.err
	}
	return m.obs, nil
}

func liveObservation(temp float64) domain.Observation {
	return domain.Observation{
		Temperature: temp,
		Humidity:    40.0,
		WindSpeed:   12.0,
		Source:      domain.SourceLive,
	}
}

func cacheCell(id string) domain.GridCell {
	return domain.GridCell{ID: id, RegionID: "california"}
}

// --- CachedSource tests ---

func TestCachedSource_CacheHit(t *testing.T) {
	inner := &countingSource{obs: liveObservation(31.0)}
	cached := NewCachedSource(inner, 10, 10*time.Minute, testMetrics())

	first, err := cached.Fetch(context.Background(), cacheCell("california_grid_0_0"))
	require.NoError(t, err)
	second, err := cached.Fetch(context.Background(), cacheCell("california_grid_0_0"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedSource_DifferentCellsMiss(t *testing.T) {
	inner := &countingSource{obs: liveObservation(25.0)}
	cached := NewCachedSource(inner, 10, 10*time.Minute, testMetrics())

	_, _ = cached.Fetch(context.Background(), cacheCell("california_grid_0_0"))
	_, _ = cached.Fetch(context.Background(), cacheCell("california_grid_0_1"))

	assert.Equal(t, 2, inner.calls)
}

func TestCachedSource_ExpiryRefetches(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.August, 14, 12, 0, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() {
		domain.SetClock(nil)
	})

	inner := &countingSource{obs: liveObservation(29.0)}
	cached := NewCachedSource(inner, 10, 10*time.Minute, testMetrics())

	_, err := cached.Fetch(context.Background(), cacheCell("california_grid_1_1"))
	require.NoError(t, err)

	// Still fresh just before the TTL.
	fakeClock.Advance(9 * time.Minute)
	_, err = cached.Fetch(context.Background(), cacheCell("california_grid_1_1"))
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	fakeClock.Advance(2 * time.Minute)
	_, err = cached.Fetch(context.Background(), cacheCell("california_grid_1_1"))
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "expired entry should refetch")
}

func TestCachedSource_ErrorsNotCached(t *testing.T) {
	inner := &countingSource{err: errors.New("upstream down")}
	cached := NewCachedSource(inner, 10, 10*time.Minute, testMetrics())

	_, err := cached.Fetch(context.Background(), cacheCell("california_grid_0_0"))
	require.Error(t, err)
	_, err = cached.Fetch(context.Background(), cacheCell("california_grid_0_0"))
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedSource_SyntheticNotCached(t *testing.T) {
	obs := liveObservation(22.0)
	obs.Source = domain.SourceSynthetic
	inner := &countingSource{obs: obs}
	cached := NewCachedSource(inner, 10, 10*time.Minute, testMetrics())

	_, _ = cached.Fetch(context.Background(), cacheCell("california_grid_0_0"))
	_, _ = cached.Fetch(context.Background(), cacheCell("california_grid_0_0"))

	assert.Equal(t, 2, inner.calls, "synthetic fallback should not be cached")
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)
	now := time.Now()

	c.put("a", liveObservation(1.0), now.Add(time.Minute))
	c.put("b", liveObservation(2.0), now.Add(time.Minute))

	obs, status := c.get("a", now)
	assert.Equal(t, cacheHit, status)
	assert.Equal(t, 1.0, obs.Temperature)

	_, status = c.get("missing", now)
	assert.Equal(t, cacheMiss, status)
}

func TestLRUCache_Expiry(t *testing.T) {
	c := newLRUCache(3)
	now := time.Now()

	c.put("a", liveObservation(1.0), now.Add(time.Minute))

	_, status := c.get("a", now.Add(2*time.Minute))
	assert.Equal(t, cacheExpired, status)

	// Expired entries are dropped, so the next lookup is a plain miss.
	_, status = c.get("a", now)
	assert.Equal(t, cacheMiss, status)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)
	now := time.Now()
	expiry := now.Add(time.Minute)

	c.put("a", liveObservation(1.0), expiry)
	c.put("b", liveObservation(2.0), expiry)
	c.put("c", liveObservation(3.0), expiry) // evicts "a"

	_, status := c.get("a", now)
	assert.Equal(t, cacheMiss, status, "a should have been evicted")

	obs, status := c.get("b", now)
	assert.Equal(t, cacheHit, status)
	assert.Equal(t, 2.0, obs.Temperature)

	obs, status = c.get("c", now)
	assert.Equal(t, cacheHit, status)
	assert.Equal(t, 3.0, obs.Temperature)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)
	now := time.Now()
	expiry := now.Add(time.Minute)

	c.put("a", liveObservation(1.0), expiry)
	c.put("b", liveObservation(2.0), expiry)

	// Access "a" to promote it
	c.get("a", now)

	// Insert "c" - should evict "b" (LRU), not "a"
	c.put("c", liveObservation(3.0), expiry)

	_, status := c.get("a", now)
	assert.Equal(t, cacheHit, status, "a was accessed recently, should not be evicted")

	_, status = c.get("b", now)
	assert.Equal(t, cacheMiss, status, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)
	now := time.Now()

	c.put("a", liveObservation(1.0), now.Add(time.Minute))
	c.put("a", liveObservation(9.0), now.Add(2*time.Minute))

	obs, status := c.get("a", now)
	assert.Equal(t, cacheHit, status)
	assert.Equal(t, 9.0, obs.Temperature)
}
