// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package mask

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/genotype/translate"
)

// Filtered presents a base Matrix through a translation.  A view taxon or
// site with no base counterpart is fully masked.
type Filtered struct {
	base Matrix
	tr   translate.Translation
}

// NewFiltered creates a Filtered mask.  tr must map into base's dimensions.
// Filtering a Filtered folds the two translations together.
func NewFiltered(base Matrix, tr translate.Translation) (*Filtered, error) {
	if tr.Taxa.NumBaseIndices() != base.NumTaxa() || tr.Sites.NumBaseIndices() != base.NumSites() {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("mask: translation maps into %d x %d, mask is %d x %d",
			tr.Taxa.NumBaseIndices(), tr.Sites.NumBaseIndices(), base.NumTaxa(), base.NumSites()))
	}
	if f, ok := base.(*Filtered); ok {
		return &Filtered{base: f.base, tr: translate.Merge(f.tr, tr)}, nil
	}
	return &Filtered{base: base, tr: tr}, nil
}

// NumTaxa implements Matrix.
func (m *Filtered) NumTaxa() int { return m.tr.NumTaxa() }

// NumSites implements Matrix.
func (m *Filtered) NumSites() int { return m.tr.NumSites() }

// IsSiteOptimized implements Matrix.
func (m *Filtered) IsSiteOptimized() bool { return m.base.IsSiteOptimized() }

// Get implements Matrix.
func (m *Filtered) Get(taxon, site int) bool {
	bt, ok := m.tr.Taxon(taxon)
	if !ok {
		return true
	}
	bs, ok := m.tr.Site(site)
	if !ok {
		return true
	}
	return m.base.Get(bt, bs)
}

// MaskForSite implements Matrix.
func (m *Filtered) MaskForSite(site int) Bits {
	bs, ok := m.tr.Site(site)
	if !ok {
		return NewBitsAllSet(m.NumTaxa())
	}
	return remap(m.base.MaskForSite(bs), m.tr.Taxa)
}

// MaskForTaxon implements Matrix.
func (m *Filtered) MaskForTaxon(taxon int) Bits {
	bt, ok := m.tr.Taxon(taxon)
	if !ok {
		return NewBitsAllSet(m.NumSites())
	}
	return remap(m.base.MaskForTaxon(bt), m.tr.Sites)
}

// remap returns the view-indexed bits of base seen through idx.
func remap(base Bits, idx translate.Index) Bits {
	if !idx.HasTranslations() {
		return base
	}
	out := NewBits(idx.NumIndices())
	for i := 0; i < idx.NumIndices(); i++ {
		b, ok := idx.Translate(i)
		if !ok || base.Test(b) {
			out.Set(i)
		}
	}
	return out
}
