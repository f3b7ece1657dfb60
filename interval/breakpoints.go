// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/grailbio/base/log"
)

// Donors identifies the two base-table taxa whose haplotypes make up a run of
// a projected taxon.  Donor1 supplies the first allele and Donor2 the second;
// they are equal for an inbred run.
type Donors struct {
	Donor1, Donor2 int
}

// String implements fmt.Stringer.
func (d Donors) String() string {
	return fmt.Sprintf("%d/%d", d.Donor1, d.Donor2)
}

// searchSite returns the index of the last start <= x, or -1 if x precedes
// every start.
func searchSite(a []int32, x int32) int {
	return sort.Search(len(a), func(i int) bool { return a[i] > x }) - 1
}

// fwdsearchSite is searchSite for the case where the answer is likely at or
// shortly after idx.  It checks a[idx+1], then a[idx+2], then a[idx+4], etc.,
// and then uses binary search to finish the job.
func fwdsearchSite(a []int32, x int32, idx int) int {
	if idx < 0 || a[idx] > x {
		return searchSite(a, x)
	}
	// Invariant: a[lo] <= x.
	lo, hi := idx, len(a)
	incr := 1
	for probe := idx + 1; probe < hi; probe = lo + incr {
		if a[probe] > x {
			hi = probe
			break
		}
		lo = probe
		incr *= 2
	}
	for lo+1 < hi {
		mid := int(uint(lo+hi) >> 1)
		if a[mid] > x {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

// Breakpoints maps the sites of one projected taxon to donors.  starts holds
// the first base site of each run in increasing order, and donors[i] applies
// to sites [starts[i], starts[i+1]).  Sites before starts[0] have no donors.
//
// A Breakpoints is immutable apart from its lookup hint, which is updated
// atomically, so concurrent lookups are safe.
type Breakpoints struct {
	starts []int32
	donors []Donors
	// hint is the interval returned by the last lookup, or -1.
	hint int32
}

// NewBreakpoints creates a map from explicit run starts.  starts must be
// strictly increasing and parallel to donors.
func NewBreakpoints(starts []int32, donors []Donors) *Breakpoints {
	if len(starts) != len(donors) {
		log.Panicf("interval: %d starts, %d donors", len(starts), len(donors))
	}
	for i := 1; i < len(starts); i++ {
		if starts[i] <= starts[i-1] {
			log.Panicf("interval: breakpoint starts not increasing at %d: %d, %d", i, starts[i-1], starts[i])
		}
	}
	return &Breakpoints{starts: starts, donors: donors, hint: -1}
}

// Len returns the number of runs.
func (b *Breakpoints) Len() int { return len(b.starts) }

// Run returns the first site and donors of the i'th run.
func (b *Breakpoints) Run(i int) (start int, donors Donors) {
	return int(b.starts[i]), b.donors[i]
}

// Lookup returns the donors covering site.  It returns false if site precedes
// the first run.
func (b *Breakpoints) Lookup(site int) (Donors, bool) {
	if len(b.starts) == 0 {
		return Donors{}, false
	}
	hint := int(atomic.LoadInt32(&b.hint))
	idx := fwdsearchSite(b.starts, int32(site), hint)
	if idx < 0 {
		return Donors{}, false
	}
	if idx != hint {
		atomic.StoreInt32(&b.hint, int32(idx))
	}
	return b.donors[idx], true
}

// Donors returns the sorted, deduplicated set of donor taxa referenced by b.
func (b *Breakpoints) Donors() []int {
	seen := map[int]bool{}
	var out []int
	for _, d := range b.donors {
		for _, t := range [2]int{d.Donor1, d.Donor2} {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	sort.Ints(out)
	return out
}
