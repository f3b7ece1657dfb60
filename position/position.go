// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package position provides the immutable list of genomic positions that
// labels the sites (columns) of a genotype table.
package position

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/genotype/translate"
)

// Position is one site's genomic coordinate.  Pos is the physical position
// on Chromosome; Name is optional.
type Position struct {
	Chromosome string
	Pos        int32
	Name       string
}

// Chromosome is a maximal run of consecutive sites on one chromosome.  Sites
// [Start, End) belong to it.
type Chromosome struct {
	Name  string
	Start int
	End   int
}

// Len returns the number of sites in the run.
func (c Chromosome) Len() int { return c.End - c.Start }

// List is an immutable list of positions.
//
// A List built by New is sorted: each chromosome occupies one run and
// positions are nondecreasing within it, so physical-position lookups are
// binary searches.  Lists produced by Translate with a reordering, or by
// Concat of overlapping lists, may be unsorted; lookups on those fall back to
// scanning.
type List struct {
	positions   []Position
	chromosomes []Chromosome
	byName      map[string]int
	sorted      bool
}

// New creates a sorted List.  It fails if a chromosome reappears after
// another chromosome's sites, or if positions decrease within a chromosome.
func New(positions []Position) (*List, error) {
	l := newList(positions)
	seen := map[string]bool{}
	for _, c := range l.chromosomes {
		if seen[c.Name] {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("position: chromosome %q is not contiguous (again at site %d)", c.Name, c.Start))
		}
		seen[c.Name] = true
		for i := c.Start + 1; i < c.End; i++ {
			if l.positions[i].Pos < l.positions[i-1].Pos {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("position: %s:%d at site %d follows %s:%d",
					c.Name, l.positions[i].Pos, i, c.Name, l.positions[i-1].Pos))
			}
		}
	}
	l.sorted = true
	return l, nil
}

// MustNew is New, but panics on error.
func MustNew(positions ...Position) *List {
	l, err := New(positions)
	if err != nil {
		panic(err)
	}
	return l
}

// newList copies positions and computes chromosome runs and the name index,
// without checking order.
func newList(positions []Position) *List {
	l := &List{
		positions: make([]Position, len(positions)),
		byName:    make(map[string]int, len(positions)),
	}
	copy(l.positions, positions)
	for i := range l.positions {
		p := &l.positions[i]
		if n := len(l.chromosomes); n == 0 || l.chromosomes[n-1].Name != p.Chromosome {
			l.chromosomes = append(l.chromosomes, Chromosome{Name: p.Chromosome, Start: i, End: i})
		}
		l.chromosomes[len(l.chromosomes)-1].End = i + 1
		name := SiteName(*p)
		if _, ok := l.byName[name]; !ok {
			l.byName[name] = i
		}
	}
	return l
}

// SiteName returns p.Name, or "S<chromosome>_<pos>" when p has no name.
func SiteName(p Position) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("S%s_%d", p.Chromosome, p.Pos)
}

// Len returns the number of sites.
func (l *List) Len() int { return len(l.positions) }

// Sorted returns true iff l supports binary-search lookups.
func (l *List) Sorted() bool { return l.sorted }

// Position returns the position of site i.
func (l *List) Position(site int) Position { return l.positions[site] }

// SiteName returns the name of site i.
func (l *List) SiteName(site int) string { return SiteName(l.positions[site]) }

// SiteOfName returns the first site with the given name.
func (l *List) SiteOfName(name string) (int, bool) {
	i, ok := l.byName[name]
	return i, ok
}

// Chromosomes returns the chromosome runs in site order.  The caller must
// not modify the result.
func (l *List) Chromosomes() []Chromosome { return l.chromosomes }

// Chromosome returns the first run of the named chromosome.
func (l *List) Chromosome(name string) (Chromosome, bool) {
	for _, c := range l.chromosomes {
		if c.Name == name {
			return c, true
		}
	}
	return Chromosome{}, false
}

// SiteOfPhysicalPosition returns the first site at chromosome:pos.
func (l *List) SiteOfPhysicalPosition(chromosome string, pos int32) (int, bool) {
	if !l.sorted {
		for i, p := range l.positions {
			if p.Chromosome == chromosome && p.Pos == pos {
				return i, true
			}
		}
		return 0, false
	}
	c, ok := l.Chromosome(chromosome)
	if !ok {
		return 0, false
	}
	ps := l.positions[c.Start:c.End]
	i := sort.Search(len(ps), func(i int) bool { return ps[i].Pos >= pos })
	if i < len(ps) && ps[i].Pos == pos {
		return c.Start + i, true
	}
	return 0, false
}

// SiteAtOrAfter returns the first site on chromosome whose position is at
// least pos.  It returns false if there is none.  l must be sorted.
func (l *List) SiteAtOrAfter(chromosome string, pos int32) (int, bool) {
	if !l.sorted {
		log.Panicf("position: SiteAtOrAfter on an unsorted list")
	}
	c, ok := l.Chromosome(chromosome)
	if !ok {
		return 0, false
	}
	ps := l.positions[c.Start:c.End]
	i := sort.Search(len(ps), func(i int) bool { return ps[i].Pos >= pos })
	if i == len(ps) {
		return 0, false
	}
	return c.Start + i, true
}

// Translate returns the list seen through idx.  An unmatched view site gets
// an unnamed position on chromosome "" at -1.
func (l *List) Translate(idx translate.Index) *List {
	if !idx.HasTranslations() {
		return l
	}
	positions := make([]Position, idx.NumIndices())
	for i := range positions {
		if b, ok := idx.Translate(i); ok {
			positions[i] = l.positions[b]
		} else {
			positions[i] = Position{Pos: -1, Name: fmt.Sprintf("unmatched_%d", i)}
		}
	}
	out := newList(positions)
	out.sorted = l.sorted && idx.Kind() != translate.UnorderedRedirect
	return out
}

// Concat returns the concatenation of lists.  Chromosome runs of each list
// are shifted by the number of sites preceding it, and a run continuing the
// previous list's last chromosome is merged into it, so every run stays
// maximal.  The result is sorted if it would pass New's checks.
func Concat(lists ...*List) *List {
	var n int
	for _, l := range lists {
		n += l.Len()
	}
	positions := make([]Position, 0, n)
	for _, l := range lists {
		positions = append(positions, l.positions...)
	}
	if out, err := New(positions); err == nil {
		return out
	}
	return newList(positions)
}
