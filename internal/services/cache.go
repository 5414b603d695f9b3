package services

import (
	"container/list"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/danpasecinic/riolauncher/eventbus"
	"github.com/danpasecinic/riolauncher/lifecycle"
)

var _ lifecycle.Cache = (*Cache)(nil)

// EvictionReason tells subscribers of cache:evicted why an entry left.
type EvictionReason string

const (
	EvictedExpired  EvictionReason = "expired"
	EvictedCapacity EvictionReason = "capacity"
)

// Evicted is the payload of cache:evicted.
type Evicted struct {
	Key    string
	Reason EvictionReason
}

// Cleared is the payload of cache:cleared.
type Cleared struct {
	Entries int
}

type cacheEntry struct {
	key       string
	value     any
	expiresAt time.Time
}

// Cache is an in-memory LRU cache with per-entry expiry. Entries are
// dropped when they expire or when the cache is full, least recently used
// first, and every drop is announced on the bus.
type Cache struct {
	*lifecycle.Base

	bus        eventbus.Publisher
	ttl        time.Duration
	maxEntries int
	sweepEvery time.Duration
	now        func() time.Time

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List // front is most recently used

	stop chan struct{}
	done chan struct{}
}

func NewCache(deps Deps, bus eventbus.Publisher) *Cache {
	cfg := deps.config().Cache

	c := &Cache{
		bus:        bus,
		ttl:        cfg.TTL.Duration,
		maxEntries: cfg.MaxEntries,
		sweepEvery: sweepInterval(cfg.TTL.Duration),
		now:        time.Now,
		items:      make(map[string]*list.Element),
		order:      list.New(),
	}
	c.Base = lifecycle.NewBase(
		CacheName, deps.baseOptions(
			lifecycle.WithInit(c.start),
			lifecycle.WithCleanup(c.shutdown),
		)...,
	)
	return c
}

func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

func (c *Cache) start(context.Context) error {
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.sweepLoop(c.stop, c.done)
	return nil
}

func (c *Cache) shutdown(ctx context.Context) error {
	close(c.stop)
	select {
	case <-c.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	c.Clear()
	return nil
}

func (c *Cache) sweepLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Get returns the value stored under key if it has not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	elem, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.remove(elem)
		c.mu.Unlock()
		c.announce(Evicted{Key: key, Reason: EvictedExpired})
		return nil, false
	}

	c.order.MoveToFront(elem)
	c.mu.Unlock()
	return entry.value, true
}

// Set stores value under key for ttl, or for the configured TTL when ttl is
// not positive.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	expiresAt := c.now().Add(ttl)

	c.mu.Lock()
	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		c.mu.Unlock()
		return
	}

	c.items[key] = c.order.PushFront(&cacheEntry{key: key, value: value, expiresAt: expiresAt})

	var evicted []Evicted
	for c.maxEntries > 0 && len(c.items) > c.maxEntries {
		oldest := c.order.Back()
		c.remove(oldest)
		evicted = append(evicted, Evicted{Key: oldest.Value.(*cacheEntry).key, Reason: EvictedCapacity})
	}
	c.mu.Unlock()

	for _, e := range evicted {
		c.announce(e)
	}
}

// Delete removes key and reports whether it was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if ok {
		c.remove(elem)
	}
	return ok
}

// Len returns the number of stored entries, expired ones included until
// they are swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Sweep drops every expired entry.
func (c *Cache) Sweep() {
	now := c.now()

	c.mu.Lock()
	var evicted []Evicted
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		entry := elem.Value.(*cacheEntry)
		if now.After(entry.expiresAt) {
			c.remove(elem)
			evicted = append(evicted, Evicted{Key: entry.key, Reason: EvictedExpired})
		}
		elem = prev
	}
	c.mu.Unlock()

	for _, e := range evicted {
		c.announce(e)
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	n := len(c.items)
	c.items = make(map[string]*list.Element)
	c.order.Init()
	c.mu.Unlock()

	if n > 0 {
		c.bus.Emit(context.Background(), eventbus.CacheCleared, Cleared{Entries: n})
	}
}

// remove unlinks elem. Callers hold c.mu.
func (c *Cache) remove(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*cacheEntry).key)
}

func (c *Cache) announce(e Evicted) {
	c.Logger().Debug("cache entry evicted", zap.String("key", e.Key), zap.String("reason", string(e.Reason)))
	c.bus.Emit(context.Background(), eventbus.CacheEvicted, e)
}
