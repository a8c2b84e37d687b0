// Package cache provides a generic bounded key/value store for derived
// render artifacts.
//
// Cache[K, V] combines LRU recency eviction with byte-size accounting and
// optional per-entry TTL. Expiry is checked lazily on access; SweepExpired
// exists for scheduled between-frame sweeps. An optional disposal hook runs
// for every removed value so owners of non-trivial resources (GPU texture
// handles) can release them deterministically.
//
// Cache is safe for concurrent use: structural mutation is guarded by a
// mutex so background preload insertion can race frame-thread reads.
// Cache must not be copied after creation.
package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrEntryTooLarge is returned by Put when a single value's size estimate
// exceeds the cache's total byte capacity. The caller should fall back to
// using the value uncached.
var ErrEntryTooLarge = errors.New("cache: entry exceeds total capacity")

// Config holds construction parameters for a Cache.
// Zero values mean "unlimited" for the capacity fields and "no expiry"
// for DefaultTTL.
type Config[K comparable, V any] struct {
	// CapacityBytes bounds the sum of entry size estimates.
	CapacityBytes int64

	// MaxEntries bounds the number of live entries.
	MaxEntries int

	// DefaultTTL is applied to entries inserted without an explicit TTL.
	DefaultTTL time.Duration

	// OnEvict, if set, is invoked for every value leaving the cache:
	// eviction, expiry, invalidation, trim, and clear. It is called with
	// the cache lock held; keep it fast and do not reenter the cache.
	OnEvict func(key K, value V)
}

// entry is a single cached value with its accounting metadata.
type entry[K comparable, V any] struct {
	key         K
	value       V
	size        int64
	node        *node[K, V]
	createdTick int64
	expiresAt   time.Time // zero means no expiry
}

// Cache is a bounded key/value store with LRU + TTL eviction.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	lru     recencyList[K, V]

	capacityBytes int64
	maxEntries    int
	defaultTTL    time.Duration
	onEvict       func(K, V)

	sizeBytes int64
	tick      int64 // monotonic insertion counter

	// now is swappable for tests.
	now func() time.Time

	// Statistics (atomic so Stats can avoid blocking readers elsewhere).
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	expired   atomic.Uint64
}

// New creates a Cache from config.
func New[K comparable, V any](cfg Config[K, V]) *Cache[K, V] {
	return &Cache[K, V]{
		entries:       make(map[K]*entry[K, V]),
		capacityBytes: cfg.CapacityBytes,
		maxEntries:    cfg.MaxEntries,
		defaultTTL:    cfg.DefaultTTL,
		onEvict:       cfg.OnEvict,
		now:           time.Now,
	}
}

// Get retrieves a value and promotes it to most recently used.
// An entry past its TTL is removed and reported as a miss.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	if c.isExpired(e) {
		c.removeLocked(e)
		c.expired.Add(1)
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	c.lru.MoveToFront(e.node)
	c.hits.Add(1)
	return e.value, true
}

// Put inserts or replaces a value with the given size estimate in bytes.
// Replacing an existing key refreshes its recency and TTL. Least recently
// used entries are evicted until both byte and entry capacities hold.
// A value larger than the total byte capacity is rejected with
// ErrEntryTooLarge rather than emptying the cache.
func (c *Cache[K, V]) Put(key K, value V, size int64) error {
	return c.PutTTL(key, value, size, c.defaultTTL)
}

// PutTTL is Put with an explicit TTL. A ttl of 0 means no expiry.
func (c *Cache[K, V]) PutTTL(key K, value V, size int64, ttl time.Duration) error {
	if size < 0 {
		size = 0
	}
	if c.capacityBytes > 0 && size > c.capacityBytes {
		return ErrEntryTooLarge
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if e, ok := c.entries[key]; ok {
		// Replace in place: dispose the old value, keep the node.
		if c.onEvict != nil {
			c.onEvict(e.key, e.value)
		}
		c.sizeBytes += size - e.size
		e.value = value
		e.size = size
		e.expiresAt = expiresAt
		c.lru.MoveToFront(e.node)
		c.evictUntilFitLocked()
		return nil
	}

	// Make room before inserting.
	for (c.capacityBytes > 0 && c.sizeBytes+size > c.capacityBytes) ||
		(c.maxEntries > 0 && len(c.entries) >= c.maxEntries) {
		if !c.evictOldestLocked() {
			break
		}
	}

	c.tick++
	e := &entry[K, V]{
		key:         key,
		value:       value,
		size:        size,
		createdTick: c.tick,
		expiresAt:   expiresAt,
	}
	e.node = c.lru.PushFront(e)
	c.entries[key] = e
	c.sizeBytes += size
	return nil
}

// Invalidate removes an entry, running the disposal hook.
// Returns true if the key was present.
func (c *Cache[K, V]) Invalidate(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeLocked(e)
	return true
}

// InvalidateFunc removes every entry whose key matches the predicate,
// running the disposal hook for each. Returns the number removed.
func (c *Cache[K, V]) InvalidateFunc(match func(K) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var matched []*entry[K, V]
	for key, e := range c.entries {
		if match(key) {
			matched = append(matched, e)
		}
	}
	for _, e := range matched {
		c.removeLocked(e)
	}
	return len(matched)
}

// Clear removes all entries, running the disposal hook for each.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.onEvict != nil {
		for _, e := range c.entries {
			c.onEvict(e.key, e.value)
		}
	}
	c.entries = make(map[K]*entry[K, V])
	c.lru.Clear()
	c.sizeBytes = 0
}

// Trim evicts least recently used entries until total size is at or below
// targetBytes. Used by the memory manager under pressure. Returns the
// number of bytes freed.
func (c *Cache[K, V]) Trim(targetBytes int64) int64 {
	if targetBytes < 0 {
		targetBytes = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.sizeBytes
	for c.sizeBytes > targetBytes {
		if !c.evictOldestLocked() {
			break
		}
	}
	return before - c.sizeBytes
}

// SweepExpired removes every expired entry and returns the count.
// Intended for scheduled between-frame sweeps; per-frame access relies on
// the lazy check in Get instead.
func (c *Cache[K, V]) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expired []*entry[K, V]
	for _, e := range c.entries {
		if c.isExpired(e) {
			expired = append(expired, e)
		}
	}
	for _, e := range expired {
		c.removeLocked(e)
		c.expired.Add(1)
	}
	return len(expired)
}

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SizeBytes returns the total size estimate of live entries.
func (c *Cache[K, V]) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sizeBytes
}

// CapacityBytes returns the configured byte capacity (0 = unlimited).
func (c *Cache[K, V]) CapacityBytes() int64 {
	return c.capacityBytes
}

// Stats contains cache statistics for monitoring.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// SizeBytes is the total size estimate of live entries.
	SizeBytes int64
	// CapacityBytes is the configured byte capacity (0 = unlimited).
	CapacityBytes int64
	// Hits is the number of cache hits.
	Hits uint64
	// Misses is the number of cache misses (including expiries).
	Misses uint64
	// Evictions is the number of entries evicted for capacity.
	Evictions uint64
	// Expired is the number of entries removed past their TTL.
	Expired uint64
	// HitRate is hits/(hits+misses), 0.0 to 1.0.
	HitRate float64
}

// Stats returns current cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	c.mu.Lock()
	length := len(c.entries)
	size := c.sizeBytes
	c.mu.Unlock()

	return Stats{
		Len:           length,
		SizeBytes:     size,
		CapacityBytes: c.capacityBytes,
		Hits:          hits,
		Misses:        misses,
		Evictions:     c.evictions.Load(),
		Expired:       c.expired.Load(),
		HitRate:       hitRate,
	}
}

// ResetStats zeroes the hit/miss/eviction counters.
func (c *Cache[K, V]) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
	c.expired.Store(0)
}

func (c *Cache[K, V]) isExpired(e *entry[K, V]) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}

// evictUntilFitLocked evicts from the tail until capacities hold.
// Caller must hold c.mu.
func (c *Cache[K, V]) evictUntilFitLocked() {
	for (c.capacityBytes > 0 && c.sizeBytes > c.capacityBytes) ||
		(c.maxEntries > 0 && len(c.entries) > c.maxEntries) {
		if !c.evictOldestLocked() {
			return
		}
	}
}

// evictOldestLocked removes the least recently used entry.
// Recency ties cannot occur in the linked list; entries inserted without an
// intervening access keep their insertion order, so the oldest creation
// tick goes first. Caller must hold c.mu.
func (c *Cache[K, V]) evictOldestLocked() bool {
	e := c.lru.Oldest()
	if e == nil {
		return false
	}
	c.removeLocked(e)
	c.evictions.Add(1)
	return true
}

// removeLocked removes an entry and runs the disposal hook.
// Caller must hold c.mu.
func (c *Cache[K, V]) removeLocked(e *entry[K, V]) {
	c.lru.Remove(e.node)
	delete(c.entries, e.key)
	c.sizeBytes -= e.size
	if c.onEvict != nil {
		c.onEvict(e.key, e.value)
	}
}
