// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package mask

import "github.com/grailbio/base/log"

// BitSetBuilder collects explicitly set bits.  A taxon-oriented builder
// stores one site-indexed row per taxon; a site-oriented builder stores one
// taxon-indexed row per site.  The orientation only affects which of
// MaskForSite and MaskForTaxon is cheap on the built BitSet.
type BitSetBuilder struct {
	numTaxa, numSites int
	siteOriented      bool
	rows              []Bits
	built             bool
}

// NewTaxonBitSetBuilder creates a taxon-oriented builder.
func NewTaxonBitSetBuilder(numTaxa, numSites int) *BitSetBuilder {
	return newBitSetBuilder(numTaxa, numSites, false)
}

// NewSiteBitSetBuilder creates a site-oriented builder.
func NewSiteBitSetBuilder(numTaxa, numSites int) *BitSetBuilder {
	return newBitSetBuilder(numTaxa, numSites, true)
}

func newBitSetBuilder(numTaxa, numSites int, siteOriented bool) *BitSetBuilder {
	b := &BitSetBuilder{numTaxa: numTaxa, numSites: numSites, siteOriented: siteOriented}
	nRows, rowLen := numTaxa, numSites
	if siteOriented {
		nRows, rowLen = numSites, numTaxa
	}
	b.rows = make([]Bits, nRows)
	for i := range b.rows {
		b.rows[i] = NewBits(rowLen)
	}
	return b
}

func (b *BitSetBuilder) rowCol(taxon, site int) (int, int) {
	if b.built {
		log.Panicf("mask: BitSetBuilder used after Build")
	}
	if uint(taxon) >= uint(b.numTaxa) || uint(site) >= uint(b.numSites) {
		log.Panicf("mask: (taxon %d, site %d) out of range [0, %d) x [0, %d)", taxon, site, b.numTaxa, b.numSites)
	}
	if b.siteOriented {
		return site, taxon
	}
	return taxon, site
}

// Set masks (taxon, site).
func (b *BitSetBuilder) Set(taxon, site int) {
	row, col := b.rowCol(taxon, site)
	b.rows[row].Set(col)
}

// Clear unmasks (taxon, site).
func (b *BitSetBuilder) Clear(taxon, site int) {
	row, col := b.rowCol(taxon, site)
	b.rows[row].Clear(col)
}

// Build freezes the bits.  The builder must not be used afterwards.
func (b *BitSetBuilder) Build() *BitSet {
	b.built = true
	return &BitSet{numTaxa: b.numTaxa, numSites: b.numSites, siteOriented: b.siteOriented, rows: b.rows}
}

// BitSet is an immutable explicit mask.
type BitSet struct {
	numTaxa, numSites int
	siteOriented      bool
	rows              []Bits
}

// NumTaxa implements Matrix.
func (m *BitSet) NumTaxa() int { return m.numTaxa }

// NumSites implements Matrix.
func (m *BitSet) NumSites() int { return m.numSites }

// IsSiteOptimized implements Matrix.
func (m *BitSet) IsSiteOptimized() bool { return m.siteOriented }

// Get implements Matrix.
func (m *BitSet) Get(taxon, site int) bool {
	if m.siteOriented {
		return m.rows[site].Test(taxon)
	}
	return m.rows[taxon].Test(site)
}

// MaskForSite implements Matrix.
func (m *BitSet) MaskForSite(site int) Bits {
	if m.siteOriented {
		return m.rows[site]
	}
	out := NewBits(m.numTaxa)
	for t, row := range m.rows {
		if row.Test(site) {
			out.Set(t)
		}
	}
	return out
}

// MaskForTaxon implements Matrix.
func (m *BitSet) MaskForTaxon(taxon int) Bits {
	if !m.siteOriented {
		return m.rows[taxon]
	}
	out := NewBits(m.numSites)
	for s, row := range m.rows {
		if row.Test(taxon) {
			out.Set(s)
		}
	}
	return out
}
