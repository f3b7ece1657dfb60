// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package mask

import (
	"math/bits"

	"github.com/grailbio/base/bitset"
	"github.com/grailbio/base/log"
)

// Bits is a fixed-length bit vector.  Bits returned by a Matrix may be shared
// with its cache and must not be modified.
type Bits struct {
	words []uintptr
	n     int
}

// NewBits returns n clear bits.
func NewBits(n int) Bits {
	return Bits{words: make([]uintptr, (n+bitset.BitsPerWord-1)/bitset.BitsPerWord), n: n}
}

// NewBitsAllSet returns n set bits.
func NewBitsAllSet(n int) Bits {
	b := NewBits(n)
	bitset.SetInterval(b.words, 0, n)
	return b
}

// Len returns the number of bits.
func (b Bits) Len() int { return b.n }

// Test returns bit i.
func (b Bits) Test(i int) bool {
	if uint(i) >= uint(b.n) {
		log.Panicf("mask: bit %d out of range [0, %d)", i, b.n)
	}
	return bitset.Test(b.words, i)
}

// Set sets bit i.
func (b Bits) Set(i int) {
	if uint(i) >= uint(b.n) {
		log.Panicf("mask: bit %d out of range [0, %d)", i, b.n)
	}
	bitset.Set(b.words, i)
}

// Clear clears bit i.
func (b Bits) Clear(i int) {
	if uint(i) >= uint(b.n) {
		log.Panicf("mask: bit %d out of range [0, %d)", i, b.n)
	}
	bitset.Clear(b.words, i)
}

// Cardinality returns the number of set bits.
func (b Bits) Cardinality() int {
	c := 0
	for _, w := range b.words {
		c += bits.OnesCount64(uint64(w))
	}
	return c
}

// Equal returns true iff b and o have the same length and bits.
func (b Bits) Equal(o Bits) bool {
	if b.n != o.n {
		return false
	}
	for i, w := range b.words {
		if o.words[i] != w {
			return false
		}
	}
	return true
}

// Indices returns the positions of the set bits in increasing order.
func (b Bits) Indices() []int {
	var out []int
	for i := 0; i < b.n; i++ {
		if bitset.Test(b.words, i) {
			out = append(out, i)
		}
	}
	return out
}
