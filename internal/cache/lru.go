// Package cache provides a size-bounded LRU cache with cost-based eviction.
package cache

import (
	"sync"
	"sync/atomic"
)

// DefaultMaxSize is the default memory budget of an LRU, in bytes (16 MiB).
const DefaultMaxSize = 16 << 20

const bytesPerKB = 1024.0

// evictionSampleSize is the number of tail entries compared when choosing
// an eviction victim.
const evictionSampleSize = 5

// LRU maps keys to values with a byte budget. When full it evicts, among the
// least recently used entries, the one that is largest relative to how often
// it was read.
type LRU[K comparable, V any] struct {
	mu          sync.Mutex
	entries     map[K]*entry[K, V]
	head        *entry[K, V] // Most recently used.
	tail        *entry[K, V] // Least recently used.
	maxSize     int64
	currentSize int64

	hits   atomic.Int64
	misses atomic.Int64
}

type entry[K comparable, V any] struct {
	key         K
	value       V
	size        int64
	accessCount int64
	prev        *entry[K, V]
	next        *entry[K, V]
}

// evictionCost is higher for entries worth keeping: frequently read per KB.
func (e *entry[K, V]) evictionCost() float64 {
	if e.size == 0 {
		return float64(e.accessCount)
	}

	sizeKB := max(float64(e.size)/bytesPerKB, 1)

	return float64(e.accessCount) / sizeKB
}

// NewLRU creates an LRU holding at most maxSize bytes. A non-positive
// maxSize selects DefaultMaxSize.
func NewLRU[K comparable, V any](maxSize int64) *LRU[K, V] {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	return &LRU[K, V]{
		entries: make(map[K]*entry[K, V]),
		maxSize: maxSize,
	}
}

// Get returns the value stored under key.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)

		var zero V

		return zero, false
	}

	c.hits.Add(1)

	e.accessCount++
	c.moveToFront(e)

	return e.value, true
}

// Put stores value under key, accounting size bytes against the budget.
// Values larger than the whole budget are not stored. An existing key keeps
// its value and is only refreshed.
func (c *LRU[K, V]) Put(key K, value V, size int64) {
	if size > c.maxSize {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.accessCount++
		c.moveToFront(e)

		return
	}

	for c.currentSize+size > c.maxSize && c.tail != nil {
		c.evictLowestCost()
	}

	e := &entry[K, V]{key: key, value: value, size: size, accessCount: 1}

	c.entries[key] = e
	c.currentSize += size
	c.addToFront(e)
}

// Stats holds cache performance counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Entries     int
	CurrentSize int64
	MaxSize     int64
}

// HitRate returns the cache hit rate (0.0 to 1.0).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}

	return float64(s.Hits) / float64(total)
}

// Stats returns the current counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Entries:     len(c.entries),
		CurrentSize: c.currentSize,
		MaxSize:     c.maxSize,
	}
}

// Clear removes all entries. Counters are kept.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*entry[K, V])
	c.head = nil
	c.tail = nil
	c.currentSize = 0
}

func (c *LRU[K, V]) moveToFront(e *entry[K, V]) {
	if e == c.head {
		return
	}

	c.removeFromList(e)
	c.addToFront(e)
}

func (c *LRU[K, V]) addToFront(e *entry[K, V]) {
	e.prev = nil
	e.next = c.head

	if c.head != nil {
		c.head.prev = e
	}

	c.head = e

	if c.tail == nil {
		c.tail = e
	}
}

func (c *LRU[K, V]) removeFromList(e *entry[K, V]) {
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

// evictLowestCost removes the cheapest of the evictionSampleSize least
// recently used entries.
func (c *LRU[K, V]) evictLowestCost() {
	victim := c.tail

	candidate := c.tail.prev
	for range evictionSampleSize - 1 {
		if candidate == nil {
			break
		}

		if candidate.evictionCost() < victim.evictionCost() {
			victim = candidate
		}

		candidate = candidate.prev
	}

	c.removeFromList(victim)
	delete(c.entries, victim.key)
	c.currentSize -= victim.size
}
