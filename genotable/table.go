// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package genotable

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/genotype/allele"
	"github.com/grailbio/genotype/calltable"
	"github.com/grailbio/genotype/position"
	"github.com/grailbio/genotype/taxa"
	"github.com/grailbio/genotype/translate"
)

// Kind identifies the variant held by a Table.
type Kind int

const (
	// Base tables own their calls.
	Base Kind = iota
	// Filter tables present one table through a translation.
	Filter
	// Combine tables concatenate the sites of several tables.
	Combine
	// Projection tables paint taxa as mosaics of donor taxa of one table.
	Projection
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Base:
		return "base"
	case Filter:
		return "filter"
	case Combine:
		return "combine"
	case Projection:
		return "projection"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type baseTable struct {
	calls calltable.Table
	// depth is nil when the table carries no depth.
	depth calltable.DepthTable
}

// Table is a genotype table.  Exactly one of the variant fields is set,
// selected by kind.
type Table struct {
	kind      Kind
	taxa      *taxa.List
	positions *position.List

	base       *baseTable
	filter     *filterTable
	combine    *combineTable
	projection *projectionTable

	stats *stats
}

func newTable(kind Kind, taxaList *taxa.List, positions *position.List) *Table {
	t := &Table{kind: kind, taxa: taxaList, positions: positions}
	t.stats = newStats(t)
	return t
}

// New creates a Base table.  calls must be taxaList.Len() x positions.Len(),
// and depth, if non-nil, must have the same shape.
func New(taxaList *taxa.List, positions *position.List, calls calltable.Table, depth calltable.DepthTable) (*Table, error) {
	if calls.NumTaxa() != taxaList.Len() || calls.NumSites() != positions.Len() {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("genotable: %d x %d calls for %d taxa and %d positions",
			calls.NumTaxa(), calls.NumSites(), taxaList.Len(), positions.Len()))
	}
	if depth != nil && (depth.NumTaxa() != calls.NumTaxa() || depth.NumSites() != calls.NumSites()) {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("genotable: %d x %d depth for %d x %d calls",
			depth.NumTaxa(), depth.NumSites(), calls.NumTaxa(), calls.NumSites()))
	}
	t := newTable(Base, taxaList, positions)
	t.base = &baseTable{calls: calls, depth: depth}
	return t, nil
}

// Kind returns the variant of t.
func (t *Table) Kind() Kind { return t.kind }

// NumTaxa returns the number of taxa.
func (t *Table) NumTaxa() int { return t.taxa.Len() }

// NumSites returns the number of sites.
func (t *Table) NumSites() int { return t.positions.Len() }

// Taxa returns the taxa list.
func (t *Table) Taxa() *taxa.List { return t.taxa }

// Positions returns the position list.
func (t *Table) Positions() *position.List { return t.positions }

func (t *Table) check(taxon, site int) {
	if uint(taxon) >= uint(t.NumTaxa()) || uint(site) >= uint(t.NumSites()) {
		log.Panicf("genotable: (taxon %d, site %d) out of range [0, %d) x [0, %d)", taxon, site, t.NumTaxa(), t.NumSites())
	}
}

// Genotype returns the call of taxon at site.  It panics if either index is
// out of range.
func (t *Table) Genotype(taxon, site int) byte {
	t.check(taxon, site)
	switch t.kind {
	case Base:
		return t.base.calls.Genotype(taxon, site)
	case Filter:
		return t.filter.genotype(taxon, site)
	case Combine:
		return t.combine.genotype(taxon, site)
	case Projection:
		return t.projection.genotype(taxon, site)
	}
	log.Panicf("genotable: unknown kind %v", t.kind)
	return 0
}

// GenotypeAsString returns the display form of Genotype(taxon, site).
func (t *Table) GenotypeAsString(taxon, site int) string {
	return allele.String(t.Genotype(taxon, site))
}

// GenotypeForAllTaxa returns the calls of every taxon at site, reusing dst's
// storage when it is large enough.
func (t *Table) GenotypeForAllTaxa(site int, dst []byte) []byte {
	if uint(site) >= uint(t.NumSites()) {
		log.Panicf("genotable: site %d out of range [0, %d)", site, t.NumSites())
	}
	switch t.kind {
	case Base:
		return t.base.calls.GenotypeForAllTaxa(site, dst)
	case Filter:
		return t.filter.genotypeForAllTaxa(site, dst)
	case Combine:
		return t.combine.genotypeForAllTaxa(site, dst)
	case Projection:
		return t.projection.genotypeForAllTaxa(site, dst)
	}
	log.Panicf("genotable: unknown kind %v", t.kind)
	return nil
}

// GenotypeForAllSites returns the calls of taxon at every site, reusing
// dst's storage when it is large enough.
func (t *Table) GenotypeForAllSites(taxon int, dst []byte) []byte {
	if uint(taxon) >= uint(t.NumTaxa()) {
		log.Panicf("genotable: taxon %d out of range [0, %d)", taxon, t.NumTaxa())
	}
	switch t.kind {
	case Base:
		return t.base.calls.GenotypeForAllSites(taxon, dst)
	case Filter:
		return t.filter.genotypeForAllSites(taxon, dst)
	case Combine:
		return t.combine.genotypeForAllSites(taxon, dst)
	case Projection:
		return t.projection.genotypeForAllSites(taxon, dst)
	}
	log.Panicf("genotable: unknown kind %v", t.kind)
	return nil
}

// GenotypeRange returns the calls of taxon at sites [start, end).
func (t *Table) GenotypeRange(taxon, start, end int) ([]byte, error) {
	if start < 0 || end > t.NumSites() || start > end {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("genotable: site range [%d, %d) out of range [0, %d)", start, end, t.NumSites()))
	}
	if uint(taxon) >= uint(t.NumTaxa()) {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("genotable: taxon %d out of range [0, %d)", taxon, t.NumTaxa()))
	}
	out := make([]byte, end-start)
	for s := start; s < end; s++ {
		out[s-start] = t.Genotype(taxon, s)
	}
	return out, nil
}

// SetGenotype always fails: tables are immutable.
func (t *Table) SetGenotype(taxon, site int, g byte) error {
	return errors.E(errors.NotSupported, fmt.Sprintf("genotable: %v table is read-only", t.kind))
}

// HasDepth returns true if Depth is supported.
func (t *Table) HasDepth() bool {
	switch t.kind {
	case Base:
		return t.base.depth != nil
	case Filter:
		return t.filter.src.HasDepth()
	case Combine:
		for _, src := range t.combine.sources {
			if !src.HasDepth() {
				return false
			}
		}
		return true
	}
	return false
}

// Depth returns the per-allele read depth of taxon at site.  It fails with
// NotSupported on a Projection or when the data carries no depth.  An
// unmatched taxon of a Filter has zero depth.
func (t *Table) Depth(taxon, site int) (calltable.Depth, error) {
	if !t.HasDepth() {
		return calltable.Depth{}, errors.E(errors.NotSupported, fmt.Sprintf("genotable: %v table has no depth", t.kind))
	}
	t.check(taxon, site)
	switch t.kind {
	case Base:
		return t.base.depth.Depth(taxon, site), nil
	case Filter:
		bt, ok := t.filter.tr.Taxon(taxon)
		if !ok {
			return calltable.Depth{}, nil
		}
		bs, ok := t.filter.tr.Site(site)
		if !ok {
			return calltable.Depth{}, nil
		}
		return t.filter.src.Depth(bt, bs)
	case Combine:
		i, local := t.combine.translateSite(site)
		return t.combine.sources[i].Depth(taxon, local)
	}
	return calltable.Depth{}, errors.E(errors.NotSupported, fmt.Sprintf("genotable: %v table has no depth", t.kind))
}

// SiteName returns the name of site.
func (t *Table) SiteName(site int) string { return t.positions.SiteName(site) }

// ChromosomalPosition returns the physical position of site.
func (t *Table) ChromosomalPosition(site int) int32 { return t.positions.Position(site).Pos }

// Chromosome returns the chromosome of site.
func (t *Table) Chromosome(site int) string { return t.positions.Position(site).Chromosome }

// Chromosomes returns the chromosome runs in site order.
func (t *Table) Chromosomes() []position.Chromosome { return t.positions.Chromosomes() }

// FirstLastSiteOfChromosome returns the first and last site of the named
// chromosome's first run.
func (t *Table) FirstLastSiteOfChromosome(name string) (first, last int, err error) {
	c, ok := t.positions.Chromosome(name)
	if !ok {
		return 0, 0, errors.E(errors.Invalid, fmt.Sprintf("genotable: no chromosome %q", name))
	}
	return c.Start, c.End - 1, nil
}

// SiteOfPhysicalPosition returns the view site at chromosome:pos.  For a
// Filter the lookup runs against the base table and the result is
// reverse-translated, so sites dropped by the filter are not found.
func (t *Table) SiteOfPhysicalPosition(chromosome string, pos int32) (int, bool) {
	if t.kind == Filter {
		bs, ok := t.filter.src.SiteOfPhysicalPosition(chromosome, pos)
		if !ok {
			return 0, false
		}
		return t.filter.tr.Sites.ReverseTranslate(bs)
	}
	return t.positions.SiteOfPhysicalPosition(chromosome, pos)
}

// SiteOfName returns the view site with the given name.
func (t *Table) SiteOfName(name string) (int, bool) {
	if t.kind == Filter {
		bs, ok := t.filter.src.SiteOfName(name)
		if !ok {
			return 0, false
		}
		return t.filter.tr.Sites.ReverseTranslate(bs)
	}
	return t.positions.SiteOfName(name)
}

// TaxonIndex returns the index of the named taxon.
func (t *Table) TaxonIndex(name string) (int, bool) { return t.taxa.Index(name) }

// Translation returns the translation of a Filter, and the identity
// translation for other kinds.
func (t *Table) Translation() translate.Translation {
	if t.kind == Filter {
		return t.filter.tr
	}
	return translate.NewIdentityTranslation(t.NumTaxa(), t.NumSites())
}

// Source returns the table a Filter or Projection reads from, or nil.
func (t *Table) Source() *Table {
	switch t.kind {
	case Filter:
		return t.filter.src
	case Projection:
		return t.projection.src
	}
	return nil
}

// String implements fmt.Stringer.
func (t *Table) String() string {
	return fmt.Sprintf("%v table: %d taxa x %d sites", t.kind, t.NumTaxa(), t.NumSites())
}
