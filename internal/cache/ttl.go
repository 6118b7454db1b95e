package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiration
}

func (e entry[V]) expired(at time.Time) bool {
	return !e.expiresAt.IsZero() && at.After(e.expiresAt)
}

// TTLCache is a map-backed cache. Expired entries are skipped on read and
// removed by PurgeExpired; there is no background janitor.
type TTLCache[K comparable, V any] struct {
	// nil when the cache is used from a single goroutine
	mu *sync.RWMutex

	items map[K]entry[V]
	// gens counts writes and deletes per key; epoch counts Clear calls.
	// GetOrLoad stores its result only if neither moved while it loaded.
	gens  map[K]uint64
	epoch uint64
}

// Options controls construction of a TTLCache.
type Options struct {
	// ConcurrencySafe guards every operation with a RWMutex.
	ConcurrencySafe bool
}

// NewTTLCache constructs an empty cache.
func NewTTLCache[K comparable, V any](opts Options) *TTLCache[K, V] {
	var mu *sync.RWMutex
	if opts.ConcurrencySafe {
		mu = &sync.RWMutex{}
	}
	return &TTLCache[K, V]{
		mu:    mu,
		items: make(map[K]entry[V]),
		gens:  make(map[K]uint64),
	}
}

func (c *TTLCache[K, V]) lockR() func() {
	if c.mu == nil {
		return func() {}
	}
	c.mu.RLock()
	return c.mu.RUnlock
}

func (c *TTLCache[K, V]) lockW() func() {
	if c.mu == nil {
		return func() {}
	}
	c.mu.Lock()
	return c.mu.Unlock
}

// now is stubbed in tests.
var now = time.Now

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	unlock := c.lockR()
	defer unlock()

	var zero V
	e, ok := c.items[key]
	if !ok || e.expired(now()) {
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[K, V]) Set(key K, value V, ttl time.Duration) {
	unlock := c.lockW()
	defer unlock()

	c.put(key, value, ttl)
}

func (c *TTLCache[K, V]) put(key K, value V, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = now().Add(ttl)
	}
	c.items[key] = entry[V]{value: value, expiresAt: exp}
	c.gens[key]++
}

// GetOrLoad does not hold the lock while load runs, so two callers missing
// the same key may both load. A load that overlaps a Set, Delete or Clear of
// the key is returned to its caller but not cached.
func (c *TTLCache[K, V]) GetOrLoad(key K, ttl time.Duration, load func() (V, error)) (V, error) {
	unlock := c.lockR()
	e, ok := c.items[key]
	gen, epoch := c.gens[key], c.epoch
	unlock()
	if ok && !e.expired(now()) {
		return e.value, nil
	}

	v, err := load()
	if err != nil {
		var zero V
		return zero, err
	}

	unlock = c.lockW()
	defer unlock()
	if c.gens[key] == gen && c.epoch == epoch {
		c.put(key, v, ttl)
	}
	return v, nil
}

func (c *TTLCache[K, V]) Delete(key K) {
	unlock := c.lockW()
	defer unlock()
	delete(c.items, key)
	c.gens[key]++
}

func (c *TTLCache[K, V]) Len() int {
	unlock := c.lockR()
	defer unlock()

	at := now()
	count := 0
	for _, e := range c.items {
		if !e.expired(at) {
			count++
		}
	}
	return count
}

func (c *TTLCache[K, V]) Clear() {
	unlock := c.lockW()
	defer unlock()
	c.items = make(map[K]entry[V])
	c.epoch++
}

func (c *TTLCache[K, V]) PurgeExpired() int {
	unlock := c.lockW()
	defer unlock()

	at := now()
	purged := 0
	for k, e := range c.items {
		if e.expired(at) {
			delete(c.items, k)
			purged++
		}
	}
	return purged
}

var _ Cache[string, int] = (*TTLCache[string, int])(nil)
