package cache

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/elastic/go-freelru"
	"github.com/pkg/errors"

	"github.com/alexhholmes/diskbtree/internal/base"
)

// DefaultSize is the number of resident nodes when no size is configured.
const DefaultSize = 50

// WriteFunc persists a node to its block.
type WriteFunc[K base.Item[K], V base.Item[V]] func(*base.Node[K, V]) error

// Cache is a bounded write-back cache of decoded nodes, most recently used
// first. Resident nodes are the authoritative copy of their block: a node is
// written through WriteFunc before it leaves the cache, except on Remove.
//
// Not safe for concurrent use.
type Cache[K base.Item[K], V base.Item[V]] struct {
	lru      *freelru.LRU[base.Address, *base.Node[K, V]]
	capacity int
	write    WriteFunc[K, V]

	// Stats
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	flushed   atomic.Uint64
}

func hashAddress(addr base.Address) uint32 {
	var buf [base.AddressSize]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(addr))
	return uint32(xxhash.Sum64(buf[:]))
}

// New creates a cache holding at most capacity nodes.
func New[K base.Item[K], V base.Item[V]](capacity int, write WriteFunc[K, V]) (*Cache[K, V], error) {
	if capacity < 1 {
		return nil, errors.Wrapf(base.ErrInvalidArgument, "cache size %d must be at least 1", capacity)
	}
	if write == nil {
		return nil, errors.Wrap(base.ErrInvalidArgument, "nil write function")
	}

	lru, err := freelru.New[base.Address, *base.Node[K, V]](uint32(capacity), hashAddress)
	if err != nil {
		return nil, errors.Wrap(err, "create lru")
	}

	return &Cache[K, V]{
		lru:      lru,
		capacity: capacity,
		write:    write,
	}, nil
}

// Add inserts node as the most recently used entry. When the cache is full the
// least recently used node is written back and evicted first. If that write
// fails the victim stays resident, now as the most recently used entry, and
// node is not admitted. The next eviction therefore tries a different node.
func (c *Cache[K, V]) Add(node *base.Node[K, V]) error {
	if c.lru.Contains(node.Addr) {
		c.lru.Add(node.Addr, node)
		return nil
	}

	if c.lru.Len() >= c.capacity {
		addr, victim, ok := c.lru.RemoveOldest()
		if ok {
			if err := c.write(victim); err != nil {
				c.lru.Add(addr, victim)
				return errors.WithMessagef(err, "evict node %d", addr)
			}
			c.evictions.Add(1)
		}
	}

	c.lru.Add(node.Addr, node)
	return nil
}

// Find returns the resident node at addr and marks it most recently used.
func (c *Cache[K, V]) Find(addr base.Address) (*base.Node[K, V], bool) {
	node, ok := c.lru.Get(addr)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return node, true
}

// Update makes sure node is the resident copy of its block. Nodes are mutated
// in place, so a resident node that is the same object needs nothing. A
// different object at the same address replaces the resident one.
func (c *Cache[K, V]) Update(node *base.Node[K, V]) error {
	if resident, ok := c.lru.Peek(node.Addr); ok {
		if resident != node {
			c.lru.Add(node.Addr, node)
		}
		return nil
	}
	return c.Add(node)
}

// Remove drops the node at addr without writing it. Used once its block has
// been released.
func (c *Cache[K, V]) Remove(addr base.Address) {
	c.lru.Remove(addr)
}

// Contains reports whether addr is resident without touching recency.
func (c *Cache[K, V]) Contains(addr base.Address) bool {
	return c.lru.Contains(addr)
}

// Flush writes every resident node and empties the cache. On a write error
// nothing is dropped.
func (c *Cache[K, V]) Flush() error {
	for _, addr := range c.lru.Keys() {
		node, ok := c.lru.Peek(addr)
		if !ok {
			continue
		}
		if err := c.write(node); err != nil {
			return errors.WithMessagef(err, "flush node %d", addr)
		}
		c.flushed.Add(1)
	}
	c.lru.Purge()
	return nil
}

// Len returns the number of resident nodes.
func (c *Cache[K, V]) Len() int {
	return c.lru.Len()
}

// Capacity returns the maximum number of resident nodes.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Flushed   uint64
}

// Stats returns cache statistics
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Flushed:   c.flushed.Load(),
	}
}

// ClearStats resets the cache's positive incrementing statistics
func (c *Cache[K, V]) ClearStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
	c.flushed.Store(0)
}
