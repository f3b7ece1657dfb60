// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package translate

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/grailbio/base/errors"
)

// Builder accumulates a set of kept indices and freezes them into an ordered
// Index.  Kept indices may arrive in any order and may repeat; the result
// keeps each index once, in increasing order.
//
// A Builder created by NewBuilderOver narrows an existing translation: kept
// indices are in that translation's view space and Build composes the two.
type Builder struct {
	base Index
	kept *roaring.Bitmap
	err  errors.Once
}

// NewBuilder creates a Builder over numBase base indices.
func NewBuilder(numBase int) *Builder {
	return NewBuilderOver(NewIdentity(numBase))
}

// NewBuilderOver creates a Builder that narrows base.
func NewBuilderOver(base Index) *Builder {
	return &Builder{base: base, kept: roaring.New()}
}

// Keep marks index i as kept.
func (b *Builder) Keep(i int) {
	if i < 0 || i >= b.base.n {
		b.err.Set(outOfRange("index %d out of range [0, %d)", i, b.base.n))
		return
	}
	b.kept.Add(uint32(i))
}

// KeepRange marks indices [start, end) as kept.
func (b *Builder) KeepRange(start, end int) {
	if start < 0 || end > b.base.n || start > end {
		b.err.Set(outOfRange("range [%d, %d) out of range [0, %d)", start, end, b.base.n))
		return
	}
	b.kept.AddRange(uint64(start), uint64(end))
}

// NumKept returns the number of distinct indices kept so far.
func (b *Builder) NumKept() int {
	return int(b.kept.GetCardinality())
}

// Build freezes the kept set.  It fails if an out-of-range index was kept or
// if nothing was kept.  When every index is kept the base translation is
// returned unchanged.
func (b *Builder) Build() (Index, error) {
	if err := b.err.Err(); err != nil {
		return Index{}, err
	}
	n := int(b.kept.GetCardinality())
	if n == 0 {
		return Index{}, noneKept()
	}
	if n == b.base.n {
		return b.base, nil
	}
	redirect := make([]int32, 0, n)
	it := b.kept.Iterator()
	for it.HasNext() {
		redirect = append(redirect, int32(it.Next()))
	}
	return Compose(b.base, classify(b.base.n, redirect)), nil
}

// UnorderedBuilder accumulates an explicit list of indices whose order is
// significant, such as a reordering of taxa or a join that introduces
// unmatched entries.
type UnorderedBuilder struct {
	base     Index
	redirect []int32
	err      errors.Once
}

// NewUnorderedBuilder creates an UnorderedBuilder over numBase base indices.
func NewUnorderedBuilder(numBase int) *UnorderedBuilder {
	return NewUnorderedBuilderOver(NewIdentity(numBase))
}

// NewUnorderedBuilderOver creates an UnorderedBuilder narrowing base.
func NewUnorderedBuilderOver(base Index) *UnorderedBuilder {
	return &UnorderedBuilder{base: base}
}

// Add appends base index i as the next view index.
func (b *UnorderedBuilder) Add(i int) {
	if i < 0 || i >= b.base.n {
		b.err.Set(outOfRange("index %d out of range [0, %d)", i, b.base.n))
		return
	}
	b.redirect = append(b.redirect, int32(i))
}

// AddUnmatched appends a view index with no base counterpart.
func (b *UnorderedBuilder) AddUnmatched() {
	b.redirect = append(b.redirect, unmatched)
}

// Build freezes the list.  The result is collapsed to an ordered kind when
// the list happens to be strictly increasing, and to the base translation
// when it lists every base index in order.
func (b *UnorderedBuilder) Build() (Index, error) {
	if err := b.err.Err(); err != nil {
		return Index{}, err
	}
	if len(b.redirect) == 0 {
		return Index{}, noneKept()
	}
	redirect := make([]int32, len(b.redirect))
	copy(redirect, b.redirect)
	return Compose(b.base, classify(b.base.n, redirect)), nil
}
