// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package genotable

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/genotype/calltable"
	"github.com/grailbio/genotype/position"
	"github.com/grailbio/genotype/taxa"
	"github.com/grailbio/genotype/translate"
	"v.io/x/lib/vlog"
)

// Join selects how NewCombine reconciles sources with different taxa.
type Join int

const (
	// NoJoin requires every source to have identical taxa.
	NoJoin Join = iota
	// Union presents every taxon of any source.  Taxa missing from a source
	// read as allele.UnknownGenotype at that source's sites.
	Union
	// Intersect presents only the taxa present in every source.
	Intersect
)

// CombineOpts configures NewCombine.
type CombineOpts struct {
	Join Join
}

// DefaultCombineOpts is the default NewCombine configuration.
var DefaultCombineOpts = CombineOpts{Join: NoJoin}

type combineTable struct {
	sources []*Table
	// offsets[i] is the first view site of sources[i]; offsets[len(sources)]
	// is the total number of sites.
	offsets []int
}

// NewCombine concatenates the sites of sources, in order.  With NoJoin every
// source must have the same taxa in the same order; otherwise each source is
// first filtered onto the joined taxa list.
func NewCombine(opts CombineOpts, sources ...*Table) (*Table, error) {
	if len(sources) == 0 {
		return nil, errors.E(errors.Invalid, "genotable: combine of no tables")
	}
	taxaList := sources[0].taxa
	switch opts.Join {
	case NoJoin:
		for i, src := range sources[1:] {
			if !src.taxa.Equal(taxaList) {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("genotable: combine: taxa of table %d (%d taxa) differ from table 0 (%d taxa)",
					i+1, src.NumTaxa(), taxaList.Len()))
			}
		}
	case Union, Intersect:
		lists := make([]*taxa.List, len(sources))
		for i, src := range sources {
			lists[i] = src.taxa
		}
		if opts.Join == Union {
			taxaList = taxa.Union(lists...)
		} else {
			taxaList = taxa.Intersect(lists...)
		}
		if taxaList.Len() == 0 {
			return nil, errors.E(errors.Invalid, "genotable: combine: joined taxa list is empty")
		}
		joined := make([]*Table, len(sources))
		for i, src := range sources {
			idx, err := taxaList.IndexIn(src.taxa)
			if err != nil {
				return nil, err
			}
			tr := translate.Translation{Taxa: idx, Sites: translate.NewIdentity(src.NumSites())}
			if joined[i], err = newFilter(src, tr, taxaList); err != nil {
				return nil, err
			}
		}
		sources = joined
		vlog.VI(1).Infof("combine: joined %d tables onto %d taxa", len(sources), taxaList.Len())
	default:
		return nil, errors.E(errors.Invalid, fmt.Sprintf("genotable: unknown join %d", opts.Join))
	}

	c := &combineTable{
		sources: make([]*Table, len(sources)),
		offsets: make([]int, len(sources)+1),
	}
	copy(c.sources, sources)
	lists := make([]*position.List, len(sources))
	for i, src := range sources {
		c.offsets[i+1] = c.offsets[i] + src.NumSites()
		lists[i] = src.positions
	}
	t := newTable(Combine, taxaList, position.Concat(lists...))
	t.combine = c
	return t, nil
}

// translateSite returns the source holding view site and the site's index
// within it.
func (c *combineTable) translateSite(site int) (int, int) {
	for i := 0; i < len(c.sources); i++ {
		if site < c.offsets[i+1] {
			return i, site - c.offsets[i]
		}
	}
	panic(fmt.Sprintf("genotable: combine site %d out of range [0, %d)", site, c.offsets[len(c.sources)]))
}

func (c *combineTable) genotype(taxon, site int) byte {
	i, local := c.translateSite(site)
	return c.sources[i].Genotype(taxon, local)
}

func (c *combineTable) genotypeForAllTaxa(site int, dst []byte) []byte {
	i, local := c.translateSite(site)
	return c.sources[i].GenotypeForAllTaxa(local, dst)
}

func (c *combineTable) genotypeForAllSites(taxon int, dst []byte) []byte {
	dst = calltable.Resize(dst, c.offsets[len(c.sources)])
	var row []byte
	for i, src := range c.sources {
		row = src.GenotypeForAllSites(taxon, row)
		copy(dst[c.offsets[i]:c.offsets[i+1]], row)
	}
	return dst
}

// TranslateSite returns the index of the source table holding site.  Tables
// other than Combine have a single source, 0.
func (t *Table) TranslateSite(site int) int {
	if uint(site) >= uint(t.NumSites()) {
		panic(fmt.Sprintf("genotable: site %d out of range [0, %d)", site, t.NumSites()))
	}
	if t.kind != Combine {
		return 0
	}
	i, _ := t.combine.translateSite(site)
	return i
}

// SiteOffsets returns, for a Combine, the first view site of each source
// followed by the total number of sites.  It returns nil for other kinds.
func (t *Table) SiteOffsets() []int {
	if t.kind != Combine {
		return nil
	}
	return append([]int(nil), t.combine.offsets...)
}

// CompositeAlignments returns the source tables of a Combine, and nil for
// other kinds.
func (t *Table) CompositeAlignments() []*Table {
	if t.kind != Combine {
		return nil
	}
	return append([]*Table(nil), t.combine.sources...)
}
