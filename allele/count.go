// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package allele

import (
	"sort"

	"github.com/grailbio/base/simd"
)

// knownTable[x] == 1 iff x is a real allele code.
var knownTable = simd.MakeNibbleLookupTable([16]byte{1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})

// UnpackGenotypes sets dst[2*i] and dst[2*i+1] to the first and second allele
// of src[i].  It panics if len(dst) != 2 * len(src).
func UnpackGenotypes(dst, src []byte) {
	if len(dst) != 2*len(src) {
		panic("UnpackGenotypes() requires len(dst) == 2 * len(src).")
	}
	for i, g := range src {
		dst[2*i] = g >> 4
		dst[2*i+1] = g & 15
	}
}

// PackGenotypes is the inverse of UnpackGenotypes.  It panics if
// len(src) != 2 * len(dst).
func PackGenotypes(dst, src []byte) {
	if len(src) != 2*len(dst) {
		panic("PackGenotypes() requires len(src) == 2 * len(dst).")
	}
	for i := range dst {
		dst[i] = (src[2*i] << 4) | (src[2*i+1] & 15)
	}
}

// Counts holds per-allele-code counts for a set of genotype calls.
type Counts [NumAlleles]int

// Add adds both alleles of every genotype in genos to c, skipping unknown
// alleles.
func (c *Counts) Add(genos []byte) {
	for _, g := range genos {
		hi, lo := g>>4, g&15
		if knownTable.Get(hi) == 1 {
			c[hi]++
		}
		if knownTable.Get(lo) == 1 {
			c[lo]++
		}
	}
}

// AddGenotype adds both alleles of g to c, skipping unknown alleles.
func (c *Counts) AddGenotype(g byte) {
	hi, lo := g>>4, g&15
	if knownTable.Get(hi) == 1 {
		c[hi]++
	}
	if knownTable.Get(lo) == 1 {
		c[lo]++
	}
}

// Total returns the number of known alleles counted.
func (c *Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Count is one (allele, count) pair.
type Count struct {
	Allele byte
	N      int
}

// Sorted returns the nonzero counts in decreasing count order.  Ties are
// broken by increasing allele code, so the result is deterministic.
func (c *Counts) Sorted() []Count {
	out := make([]Count, 0, NumAlleles)
	for a, n := range c {
		if n > 0 {
			out = append(out, Count{Allele: byte(a), N: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].N > out[j].N })
	return out
}

// CountKnown returns the number of genotypes in genos that are not the
// unknown genotype, and the number of those that are heterozygous.
func CountKnown(genos []byte) (notMissing, het int) {
	for _, g := range genos {
		if g == UnknownGenotype {
			continue
		}
		notMissing++
		if g>>4 != g&15 {
			het++
		}
	}
	return
}
