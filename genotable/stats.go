// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package genotable

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/genotype/allele"
	"github.com/grailbio/genotype/mask"
)

// statsBlockSize is the number of sites whose statistics are computed
// together.
const statsBlockSize = 64

type siteStats struct {
	// counts is sorted by decreasing count.
	counts     []allele.Count
	total      int
	notMissing int
	het        int
}

type siteBlock struct {
	once  sync.Once
	sites []siteStats
}

type taxonStats struct {
	notMissing int
	het        int
}

// stats holds the lazily computed statistics of one table.  Site statistics
// are computed a block at a time on first use; taxon statistics are computed
// for every taxon at once.
type stats struct {
	t      *Table
	blocks []siteBlock

	taxaOnce sync.Once
	taxa     []taxonStats
}

func newStats(t *Table) *stats {
	n := t.positions.Len()
	return &stats{t: t, blocks: make([]siteBlock, (n+statsBlockSize-1)/statsBlockSize)}
}

func (s *stats) site(site int) *siteStats {
	if uint(site) >= uint(s.t.NumSites()) {
		log.Panicf("genotable: site %d out of range [0, %d)", site, s.t.NumSites())
	}
	b := &s.blocks[site/statsBlockSize]
	b.once.Do(func() {
		start := site - site%statsBlockSize
		end := start + statsBlockSize
		if end > s.t.NumSites() {
			end = s.t.NumSites()
		}
		b.sites = make([]siteStats, end-start)
		var genos []byte
		for i := range b.sites {
			genos = s.t.GenotypeForAllTaxa(start+i, genos)
			b.sites[i] = computeSiteStats(genos)
		}
	})
	return &b.sites[site%statsBlockSize]
}

func computeSiteStats(genos []byte) siteStats {
	var c allele.Counts
	c.Add(genos)
	st := siteStats{counts: c.Sorted(), total: c.Total()}
	st.notMissing, st.het = allele.CountKnown(genos)
	return st
}

func (s *stats) taxon(taxon int) taxonStats {
	if uint(taxon) >= uint(s.t.NumTaxa()) {
		log.Panicf("genotable: taxon %d out of range [0, %d)", taxon, s.t.NumTaxa())
	}
	s.taxaOnce.Do(func() {
		s.taxa = make([]taxonStats, s.t.NumTaxa())
		_ = traverse.Each(runtime.NumCPU(), func(shard int) error {
			var row []byte
			for i := shard; i < len(s.taxa); i += runtime.NumCPU() {
				row = s.t.GenotypeForAllSites(i, row)
				s.taxa[i].notMissing, s.taxa[i].het = allele.CountKnown(row)
			}
			return nil
		})
	})
	return s.taxa[taxon]
}

// AlleleCounts returns the known-allele counts at site, most frequent first.
// Each call contributes two alleles.  The caller must not modify the result.
func (t *Table) AlleleCounts(site int) []allele.Count {
	return t.stats.site(site).counts
}

// MajorAllele returns the most frequent allele at site, or allele.Unknown if
// no allele is known there.
func (t *Table) MajorAllele(site int) byte {
	if c := t.stats.site(site).counts; len(c) > 0 {
		return c[0].Allele
	}
	return allele.Unknown
}

// MinorAllele returns the second most frequent allele at site, or
// allele.Unknown if the site is monomorphic.
func (t *Table) MinorAllele(site int) byte {
	if c := t.stats.site(site).counts; len(c) > 1 {
		return c[1].Allele
	}
	return allele.Unknown
}

// MajorAlleleFrequency returns the major allele's share of known alleles at
// site, or 0 if none are known.
func (t *Table) MajorAlleleFrequency(site int) float64 {
	st := t.stats.site(site)
	if len(st.counts) == 0 {
		return 0
	}
	return float64(st.counts[0].N) / float64(st.total)
}

// MinorAlleleFrequency returns the minor allele's share of known alleles at
// site, or 0 if the site is monomorphic or unknown.
func (t *Table) MinorAlleleFrequency(site int) float64 {
	st := t.stats.site(site)
	if len(st.counts) < 2 {
		return 0
	}
	return float64(st.counts[1].N) / float64(st.total)
}

// MinorAlleleCount returns the number of minor alleles at site.
func (t *Table) MinorAlleleCount(site int) int {
	if c := t.stats.site(site).counts; len(c) > 1 {
		return c[1].N
	}
	return 0
}

// TotalAlleleCount returns the number of known alleles at site.
func (t *Table) TotalAlleleCount(site int) int {
	return t.stats.site(site).total
}

// TotalNonMissingForSite returns the number of taxa with a known call at
// site.
func (t *Table) TotalNonMissingForSite(site int) int {
	return t.stats.site(site).notMissing
}

// HeterozygousCount returns the number of heterozygous calls at site.
func (t *Table) HeterozygousCount(site int) int {
	return t.stats.site(site).het
}

// TotalNonMissingForTaxon returns the number of sites at which taxon has a
// known call.
func (t *Table) TotalNonMissingForTaxon(taxon int) int {
	return t.stats.taxon(taxon).notMissing
}

// HeterozygousCountForTaxon returns the number of heterozygous calls of
// taxon.
func (t *Table) HeterozygousCountForTaxon(taxon int) int {
	return t.stats.taxon(taxon).het
}

// WhichAllele selects the allele reported by the allele-presence methods.
type WhichAllele int

const (
	// Major selects each site's major allele.
	Major WhichAllele = iota
	// Minor selects each site's minor allele.
	Minor
)

func (t *Table) whichAllele(site int, which WhichAllele) byte {
	if which == Minor {
		return t.MinorAllele(site)
	}
	return t.MajorAllele(site)
}

// AllelePresenceForAllTaxa returns the taxa whose call at site carries the
// selected allele.
func (t *Table) AllelePresenceForAllTaxa(site int, which WhichAllele) mask.Bits {
	a := t.whichAllele(site, which)
	genos := t.GenotypeForAllTaxa(site, nil)
	bits := mask.NewBits(len(genos))
	if a == allele.Unknown {
		return bits
	}
	for i, g := range genos {
		if allele.Contains(g, a) {
			bits.Set(i)
		}
	}
	return bits
}

// AllelePresenceForAllSites returns the sites at which taxon's call carries
// the selected allele.  The alleles are those of the sites' own source
// table, so this fails with NotSupported on a Combine of more than one table
// and on a Projection, whose statistics span sources.
func (t *Table) AllelePresenceForAllSites(taxon int, which WhichAllele) (mask.Bits, error) {
	switch {
	case t.kind == Projection,
		t.kind == Combine && len(t.combine.sources) > 1:
		return mask.Bits{}, errors.E(errors.NotSupported, fmt.Sprintf("genotable: allele presence by taxon on a %v table", t.kind))
	}
	row := t.GenotypeForAllSites(taxon, nil)
	bits := mask.NewBits(len(row))
	for s, g := range row {
		if a := t.whichAllele(s, which); a != allele.Unknown && allele.Contains(g, a) {
			bits.Set(s)
		}
	}
	return bits, nil
}
