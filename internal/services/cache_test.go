package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/riolauncher/eventbus"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, maxEntries int) (*Cache, *EventBus, *fakeClock) {
	t.Helper()

	deps := testDeps(t)
	deps.Config.Cache.MaxEntries = maxEntries
	deps.Config.Cache.TTL.Duration = time.Minute

	bus := NewEventBus(deps)
	cache := NewCache(deps, bus)
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	cache.now = clock.Now
	return cache, bus, clock
}

func evictions(bus *EventBus) []Evicted {
	var out []Evicted
	for _, e := range bus.History(eventbus.HistoryFilter{Event: eventbus.CacheEvicted}) {
		out = append(out, e.Payload.(Evicted))
	}
	return out
}

func TestCache_SetGet(t *testing.T) {
	t.Parallel()

	cache, _, _ := newTestCache(t, 10)

	cache.Set("theme", "dracula", 0)
	v, ok := cache.Get("theme")
	require.True(t, ok)
	assert.Equal(t, "dracula", v)

	cache.Set("theme", "nord", 0)
	v, _ = cache.Get("theme")
	assert.Equal(t, "nord", v)
	assert.Equal(t, 1, cache.Len())

	assert.True(t, cache.Delete("theme"))
	assert.False(t, cache.Delete("theme"))
	_, ok = cache.Get("theme")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	t.Parallel()

	cache, bus, clock := newTestCache(t, 10)

	cache.Set("short", 1, time.Second)
	cache.Set("long", 2, 0)

	clock.Advance(2 * time.Second)

	_, ok := cache.Get("short")
	assert.False(t, ok)
	_, ok = cache.Get("long")
	assert.True(t, ok)

	assert.Equal(t, []Evicted{{Key: "short", Reason: EvictedExpired}}, evictions(bus))
}

func TestCache_CapacityEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	cache, bus, _ := newTestCache(t, 2)

	cache.Set("a", 1, 0)
	cache.Set("b", 2, 0)
	cache.Get("a")
	cache.Set("c", 3, 0)

	_, ok := cache.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, cache.Len())
	assert.Equal(t, []Evicted{{Key: "b", Reason: EvictedCapacity}}, evictions(bus))
}

func TestCache_Sweep(t *testing.T) {
	t.Parallel()

	cache, bus, clock := newTestCache(t, 10)

	cache.Set("a", 1, time.Second)
	cache.Set("b", 2, time.Second)
	cache.Set("c", 3, time.Hour)

	clock.Advance(time.Minute)
	cache.Sweep()

	assert.Equal(t, 1, cache.Len())
	assert.ElementsMatch(
		t, []Evicted{
			{Key: "a", Reason: EvictedExpired},
			{Key: "b", Reason: EvictedExpired},
		}, evictions(bus),
	)
}

func TestCache_Lifecycle(t *testing.T) {
	t.Parallel()

	cache, bus, _ := newTestCache(t, 10)
	ctx := context.Background()

	require.NoError(t, cache.Initialize(ctx))
	cache.Set("a", 1, 0)
	cache.Set("b", 2, 0)

	require.NoError(t, cache.Cleanup(ctx))
	assert.Equal(t, 0, cache.Len())

	cleared := bus.History(eventbus.HistoryFilter{Event: eventbus.CacheCleared})
	require.Len(t, cleared, 1)
	assert.Equal(t, Cleared{Entries: 2}, cleared[0].Payload)

	require.NoError(t, cache.Initialize(ctx))
	require.NoError(t, cache.Cleanup(ctx))
}

func TestSweepInterval(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Second, sweepInterval(0))
	assert.Equal(t, time.Second, sweepInterval(time.Second))
	assert.Equal(t, 150*time.Second, sweepInterval(5*time.Minute))
}
