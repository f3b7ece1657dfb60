// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package mask

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/grailbio/base/log"
)

// Matrix is a taxa x sites boolean matrix.  Get(t, s), MaskForSite(s).Test(t)
// and MaskForTaxon(t).Test(s) always agree.
type Matrix interface {
	NumTaxa() int
	NumSites() int
	Get(taxon, site int) bool
	// MaskForSite returns the bits of one site, indexed by taxon.
	MaskForSite(site int) Bits
	// MaskForTaxon returns the bits of one taxon, indexed by site.
	MaskForTaxon(taxon int) Bits
	// IsSiteOptimized returns true if MaskForSite is the cheap direction,
	// so consumers should traverse site by site.
	IsSiteOptimized() bool
}

// GenotypeSource is the part of a genotype table a computed mask reads.
type GenotypeSource interface {
	NumTaxa() int
	NumSites() int
	GenotypeForAllTaxa(site int, dst []byte) []byte
}

// Opts configures a computed mask.
type Opts struct {
	// BlockSize is the number of consecutive sites computed and cached
	// together.
	BlockSize int
	// Cache holds computed blocks.  If nil, the mask gets a private cache
	// with DefaultCacheOpts.
	Cache *Cache
	// Pool runs prefetches of the next block.  If nil, SharedPool is used.
	Pool *Pool
	// NoPrefetch disables prefetching.
	NoPrefetch bool
}

// DefaultOpts is the default computed-mask configuration.
var DefaultOpts = Opts{BlockSize: 10}

var lastOwnerID uint64

var (
	sharedPoolOnce sync.Once
	sharedPool     *Pool
)

// SharedPool returns the process-wide prefetch pool, starting it on first
// use.  It runs runtime.NumCPU() workers and is never closed.
func SharedPool() *Pool {
	sharedPoolOnce.Do(func() {
		sharedPool = NewPool(runtime.NumCPU(), 4*runtime.NumCPU())
	})
	return sharedPool
}

type lastSite struct {
	site int
	bits Bits
}

// computed is the caching machinery shared by the computed masks.  compute
// must be safe for concurrent use.
type computed struct {
	id                uint64
	numTaxa, numSites int
	blockSize         int
	cache             *Cache
	pool              *Pool
	compute           func(site int, scratch []byte) Bits
	// last holds the most recently returned site as a *lastSite.
	last    atomic.Value
	scratch sync.Pool
}

func newComputed(numTaxa, numSites int, opts Opts, compute func(site int, scratch []byte) Bits) *computed {
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultOpts.BlockSize
	}
	if opts.Cache == nil {
		opts.Cache = NewCache(DefaultCacheOpts)
	}
	switch {
	case opts.NoPrefetch:
		opts.Pool = nil
	case opts.Pool == nil:
		opts.Pool = SharedPool()
	}
	c := &computed{
		id:        atomic.AddUint64(&lastOwnerID, 1),
		numTaxa:   numTaxa,
		numSites:  numSites,
		blockSize: opts.BlockSize,
		cache:     opts.Cache,
		pool:      opts.Pool,
		compute:   compute,
	}
	c.scratch.New = func() interface{} { return make([]byte, numTaxa) }
	return c
}

func (c *computed) computeBlock(start int) []Bits {
	end := start + c.blockSize
	if end > c.numSites {
		end = c.numSites
	}
	scratch := c.scratch.Get().([]byte)
	block := make([]Bits, end-start)
	for i := range block {
		block[i] = c.compute(start+i, scratch)
	}
	c.scratch.Put(scratch)
	return block
}

func (c *computed) maskForSite(site int) Bits {
	if uint(site) >= uint(c.numSites) {
		log.Panicf("mask: site %d out of range [0, %d)", site, c.numSites)
	}
	if l, ok := c.last.Load().(*lastSite); ok && l.site == site {
		return l.bits
	}
	start := site - site%c.blockSize
	key := cacheKey{owner: c.id, start: start}
	block, ok := c.cache.get(key)
	if !ok {
		block = c.cache.put(key, c.computeBlock(start))
	}
	bits := block[site-start]
	c.last.Store(&lastSite{site: site, bits: bits})
	c.prefetch(start + c.blockSize)
	return bits
}

func (c *computed) prefetch(start int) {
	if c.pool == nil || start >= c.numSites {
		return
	}
	key := cacheKey{owner: c.id, start: start}
	if c.cache.contains(key) {
		return
	}
	c.pool.TrySubmit(func() error {
		if !c.cache.contains(key) {
			c.cache.put(key, c.computeBlock(start))
		}
		return nil
	})
}

func (c *computed) NumTaxa() int  { return c.numTaxa }
func (c *computed) NumSites() int { return c.numSites }

func (c *computed) Get(taxon, site int) bool {
	return c.maskForSite(site).Test(taxon)
}

func (c *computed) MaskForSite(site int) Bits {
	return c.maskForSite(site)
}

func (c *computed) MaskForTaxon(taxon int) Bits {
	if uint(taxon) >= uint(c.numTaxa) {
		log.Panicf("mask: taxon %d out of range [0, %d)", taxon, c.numTaxa)
	}
	out := NewBits(c.numSites)
	for s := 0; s < c.numSites; s++ {
		if c.maskForSite(s).Test(taxon) {
			out.Set(s)
		}
	}
	return out
}

func (c *computed) IsSiteOptimized() bool { return true }
