// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package position

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

// Builder accumulates positions.  When created from a SAM header, Build also
// checks that chromosomes appear in header order and that positions fall
// within the reference lengths.
type Builder struct {
	positions []Position
	rank      map[string]int
	length    map[string]int
}

// NewBuilder creates an unconstrained Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// NewBuilderFromHeader creates a Builder constrained by h's references.
func NewBuilderFromHeader(h *sam.Header) *Builder {
	b := &Builder{rank: map[string]int{}, length: map[string]int{}}
	for i, ref := range h.Refs() {
		b.rank[ref.Name()] = i
		b.length[ref.Name()] = ref.Len()
	}
	return b
}

// Add appends p.
func (b *Builder) Add(p Position) {
	b.positions = append(b.positions, p)
}

// Len returns the number of positions added.
func (b *Builder) Len() int { return len(b.positions) }

// Build freezes the positions into a sorted List.
func (b *Builder) Build() (*List, error) {
	if b.rank != nil {
		prevRank := -1
		for i, p := range b.positions {
			r, ok := b.rank[p.Chromosome]
			if !ok {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("position: site %d: chromosome %q not in header", i, p.Chromosome))
			}
			if r < prevRank {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("position: site %d: chromosome %q out of header order", i, p.Chromosome))
			}
			prevRank = r
			if p.Pos < 0 || int(p.Pos) >= b.length[p.Chromosome] {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("position: site %d: %s:%d out of range [0, %d)",
					i, p.Chromosome, p.Pos, b.length[p.Chromosome]))
			}
		}
	}
	return New(b.positions)
}
