// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import (
	"fmt"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// Coord is a physical genome coordinate.  RefID is the chromosome's index in
// the base table's chromosome list.
type Coord struct {
	RefID int
	Pos   int32
}

type key struct {
	coord  Coord
	donors Donors
}

// Compare compares two key objects for use in llrb.
func (k key) Compare(c2 llrb.Comparable) int {
	k2 := c2.(key)
	if diff := k.coord.RefID - k2.coord.RefID; diff != 0 {
		return diff
	}
	return int(k.coord.Pos) - int(k2.coord.Pos)
}

// Builder collects the breakpoints of one projected taxon in any order.  A
// later Add at the same coordinate replaces the earlier one.
type Builder struct {
	tree  llrb.Tree
	built bool
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add starts a run with the given donors at coord.
func (b *Builder) Add(coord Coord, donors Donors) {
	if b.built {
		log.Panicf("interval: Builder used after Build")
	}
	b.tree.Insert(key{coord: coord, donors: donors})
}

// Len returns the number of distinct breakpoint coordinates added so far.
func (b *Builder) Len() int { return b.tree.Len() }

// Build resolves each breakpoint coordinate to the first base site at or
// after it and returns the resulting map.  resolve returns false for a
// coordinate with no site to start at; such breakpoints are dropped.  When several
// breakpoints resolve to the same site, the last one wins.  Donors must lie in
// [0, numDonors).
func (b *Builder) Build(numDonors int, resolve func(Coord) (site int, ok bool)) (*Breakpoints, error) {
	b.built = true
	var (
		starts []int32
		donors []Donors
		err    error
	)
	b.tree.Do(func(c llrb.Comparable) bool {
		k := c.(key)
		for _, d := range [2]int{k.donors.Donor1, k.donors.Donor2} {
			if d < 0 || d >= numDonors {
				err = errors.E(errors.Invalid, fmt.Sprintf("interval: donor %d at %v out of range [0, %d)", d, k.coord, numDonors))
				return true
			}
		}
		site, ok := resolve(k.coord)
		if !ok {
			return false
		}
		if n := len(starts); n > 0 && starts[n-1] >= int32(site) {
			if starts[n-1] > int32(site) {
				err = errors.E(errors.Invalid, fmt.Sprintf("interval: breakpoint %v resolves to site %d, before site %d", k.coord, site, starts[n-1]))
				return true
			}
			donors[n-1] = k.donors
			return false
		}
		starts = append(starts, int32(site))
		donors = append(donors, k.donors)
		return false
	})
	if err != nil {
		return nil, err
	}
	return NewBreakpoints(starts, donors), nil
}
