// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package genotable

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/genotype/allele"
	"github.com/grailbio/genotype/calltable"
	"github.com/grailbio/genotype/interval"
	"github.com/grailbio/genotype/taxa"
)

type projectionTable struct {
	src         *Table
	breakpoints []*interval.Breakpoints
}

// NewProjection creates a table whose taxa are mosaics of src's taxa, at
// src's sites.  breakpoints[i] gives the donors of taxon i, in src's taxon
// indices; sites before a taxon's first breakpoint read as unknown.
func NewProjection(src *Table, taxaList *taxa.List, breakpoints []*interval.Breakpoints) (*Table, error) {
	if len(breakpoints) != taxaList.Len() {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("genotable: %d breakpoint maps for %d taxa", len(breakpoints), taxaList.Len()))
	}
	for i, b := range breakpoints {
		for _, d := range b.Donors() {
			if d >= src.NumTaxa() {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("genotable: taxon %s: donor %d out of range [0, %d)", taxaList.Name(i), d, src.NumTaxa()))
			}
		}
		if n := b.Len(); n > 0 {
			if start, _ := b.Run(n - 1); start >= src.NumSites() {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("genotable: taxon %s: breakpoint at site %d out of range [0, %d)", taxaList.Name(i), start, src.NumSites()))
			}
		}
	}
	t := newTable(Projection, taxaList, src.positions)
	t.projection = &projectionTable{src: src, breakpoints: breakpoints}
	return t, nil
}

// BuildBreakpoints resolves a taxon's breakpoint builder against the sites
// of src: each breakpoint starts at the first site at or after its
// coordinate.  A coordinate past the last site of its chromosome starts at
// the first site of the next chromosome, and is dropped on the last one.
// Coord.RefID indexes src.Chromosomes().
func BuildBreakpoints(src *Table, b *interval.Builder) (*interval.Breakpoints, error) {
	if !src.positions.Sorted() {
		return nil, errors.E(errors.Precondition, "genotable: breakpoints need a table with sorted positions")
	}
	chroms := src.Chromosomes()
	return b.Build(src.NumTaxa(), func(c interval.Coord) (int, bool) {
		if c.RefID < 0 || c.RefID >= len(chroms) {
			return 0, false
		}
		chrom := chroms[c.RefID]
		if site, ok := src.positions.SiteAtOrAfter(chrom.Name, c.Pos); ok {
			return site, true
		}
		if chrom.End < src.NumSites() {
			return chrom.End, true
		}
		return 0, false
	})
}

func (p *projectionTable) donorGenotype(d interval.Donors, site int) byte {
	g1 := p.src.Genotype(d.Donor1, site)
	if d.Donor1 == d.Donor2 {
		return g1
	}
	g2 := p.src.Genotype(d.Donor2, site)
	a1, _ := allele.Unpack(g1)
	a2, _ := allele.Unpack(g2)
	return allele.Pack(a1, a2)
}

func (p *projectionTable) genotype(taxon, site int) byte {
	d, ok := p.breakpoints[taxon].Lookup(site)
	if !ok {
		return allele.UnknownGenotype
	}
	return p.donorGenotype(d, site)
}

func (p *projectionTable) genotypeForAllTaxa(site int, dst []byte) []byte {
	dst = calltable.Resize(dst, len(p.breakpoints))
	for t := range dst {
		dst[t] = p.genotype(t, site)
	}
	return dst
}

func (p *projectionTable) genotypeForAllSites(taxon int, dst []byte) []byte {
	n := p.src.NumSites()
	dst = calltable.Resize(dst, n)
	b := p.breakpoints[taxon]
	end := n
	if b.Len() > 0 {
		end, _ = b.Run(0)
	}
	for s := 0; s < end; s++ {
		dst[s] = allele.UnknownGenotype
	}
	var row1, row2 []byte
	for i := 0; i < b.Len(); i++ {
		start, d := b.Run(i)
		end := n
		if i+1 < b.Len() {
			end, _ = b.Run(i + 1)
		}
		row1 = p.src.GenotypeForAllSites(d.Donor1, row1)
		if d.Donor1 == d.Donor2 {
			copy(dst[start:end], row1[start:end])
			continue
		}
		row2 = p.src.GenotypeForAllSites(d.Donor2, row2)
		for s := start; s < end; s++ {
			a1, _ := allele.Unpack(row1[s])
			a2, _ := allele.Unpack(row2[s])
			dst[s] = allele.Pack(a1, a2)
		}
	}
	return dst
}

// Breakpoints returns the breakpoint map of a Projection's taxon.  It fails
// with NotSupported for other kinds.
func (t *Table) Breakpoints(taxon int) (*interval.Breakpoints, error) {
	if t.kind != Projection {
		return nil, errors.E(errors.NotSupported, fmt.Sprintf("genotable: %v table has no breakpoints", t.kind))
	}
	return t.projection.breakpoints[taxon], nil
}
