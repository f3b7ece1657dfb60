// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package mask

import (
	"container/list"
	"encoding/binary"
	"sync"

	"blainsmith.com/go/seahash"
)

// CacheOpts configures a Cache.
type CacheOpts struct {
	// Shards is the number of independently locked shards.
	Shards int
	// Capacity is the approximate maximum number of cached blocks, split
	// evenly across shards.
	Capacity int
}

// DefaultCacheOpts is the default Cache configuration.
var DefaultCacheOpts = CacheOpts{
	Shards:   64,
	Capacity: 8192,
}

type cacheKey struct {
	// owner identifies the mask that computed the block.
	owner uint64
	// start is the first site of the block.
	start int
}

type cacheEntry struct {
	key   cacheKey
	block []Bits
}

type cacheShard struct {
	mu      sync.Mutex
	entries map[cacheKey]*list.Element
	lru     list.List // front is most recently used
}

// Cache is a sharded, thread-safe LRU cache of computed mask blocks.  Blocks
// are immutable once inserted; inserting a key that is already present keeps
// the existing block, so two goroutines racing to fill the same block do not
// corrupt anything.
type Cache struct {
	shards   []cacheShard
	perShard int
}

// NewCache creates a Cache.
func NewCache(opts CacheOpts) *Cache {
	if opts.Shards <= 0 {
		opts.Shards = DefaultCacheOpts.Shards
	}
	if opts.Capacity < opts.Shards {
		opts.Capacity = opts.Shards
	}
	c := &Cache{
		shards:   make([]cacheShard, opts.Shards),
		perShard: (opts.Capacity + opts.Shards - 1) / opts.Shards,
	}
	for i := range c.shards {
		c.shards[i].entries = make(map[cacheKey]*list.Element)
	}
	return c
}

func (c *Cache) shard(k cacheKey) *cacheShard {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], k.owner)
	binary.LittleEndian.PutUint64(buf[8:], uint64(k.start))
	h := seahash.Sum64(buf[:])
	return &c.shards[int(h%uint64(len(c.shards)))]
}

func (c *Cache) get(k cacheKey) ([]Bits, bool) {
	s := c.shard(k)
	s.mu.Lock()
	e, ok := s.entries[k]
	var block []Bits
	if ok {
		s.lru.MoveToFront(e)
		block = e.Value.(*cacheEntry).block
	}
	s.mu.Unlock()
	return block, ok
}

func (c *Cache) contains(k cacheKey) bool {
	s := c.shard(k)
	s.mu.Lock()
	_, ok := s.entries[k]
	s.mu.Unlock()
	return ok
}

// put inserts block under k and returns the block now cached under k, which
// is the earlier one if another goroutine got there first.
func (c *Cache) put(k cacheKey, block []Bits) []Bits {
	s := c.shard(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[k]; ok {
		s.lru.MoveToFront(e)
		return e.Value.(*cacheEntry).block
	}
	s.entries[k] = s.lru.PushFront(&cacheEntry{key: k, block: block})
	for s.lru.Len() > c.perShard {
		back := s.lru.Back()
		s.lru.Remove(back)
		delete(s.entries, back.Value.(*cacheEntry).key)
	}
	return block
}

// Len returns the number of cached blocks.  It is exact only when no other
// goroutine is using the cache.
func (c *Cache) Len() int {
	n := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		n += s.lru.Len()
		s.mu.Unlock()
	}
	return n
}
