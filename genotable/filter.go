// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package genotable

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/genotype/allele"
	"github.com/grailbio/genotype/calltable"
	"github.com/grailbio/genotype/taxa"
	"github.com/grailbio/genotype/translate"
)

type filterTable struct {
	// src is never itself a Filter.
	src *Table
	tr  translate.Translation
}

// NewFilter creates a view of src through tr.  tr must map into src's
// dimensions.  A view taxon or site with no counterpart in src reads as
// allele.UnknownGenotype.  Filtering a Filter folds the translations, so the
// result always reads from a non-Filter table.
func NewFilter(src *Table, tr translate.Translation) (*Table, error) {
	return newFilter(src, tr, nil)
}

// newFilter is NewFilter with an optional taxa list to present instead of
// the translated source names.
func newFilter(src *Table, tr translate.Translation, names *taxa.List) (*Table, error) {
	if tr.Taxa.NumBaseIndices() != src.NumTaxa() || tr.Sites.NumBaseIndices() != src.NumSites() {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("genotable: translation maps into %d x %d, table is %d x %d",
			tr.Taxa.NumBaseIndices(), tr.Sites.NumBaseIndices(), src.NumTaxa(), src.NumSites()))
	}
	if names != nil && names.Len() != tr.NumTaxa() {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("genotable: %d taxon names for %d view taxa", names.Len(), tr.NumTaxa()))
	}
	if !tr.HasTranslations() && names == nil {
		return src, nil
	}
	if src.kind == Filter {
		// src's names may not derive from its source's, as for joined views.
		if names == nil {
			names = src.taxa.Translate(tr.Taxa)
		}
		return newFilter(src.filter.src, translate.Merge(src.filter.tr, tr), names)
	}
	if names == nil {
		names = src.taxa.Translate(tr.Taxa)
	}
	t := newTable(Filter, names, src.positions.Translate(tr.Sites))
	t.filter = &filterTable{src: src, tr: tr}
	return t, nil
}

func (f *filterTable) genotype(taxon, site int) byte {
	bt, ok := f.tr.Taxon(taxon)
	if !ok {
		return allele.UnknownGenotype
	}
	bs, ok := f.tr.Site(site)
	if !ok {
		return allele.UnknownGenotype
	}
	return f.src.Genotype(bt, bs)
}

func (f *filterTable) genotypeForAllTaxa(site int, dst []byte) []byte {
	dst = calltable.Resize(dst, f.tr.NumTaxa())
	bs, ok := f.tr.Site(site)
	if !ok {
		for i := range dst {
			dst[i] = allele.UnknownGenotype
		}
		return dst
	}
	if !f.tr.Taxa.HasTranslations() {
		return f.src.GenotypeForAllTaxa(bs, dst)
	}
	for i := range dst {
		if bt, ok := f.tr.Taxon(i); ok {
			dst[i] = f.src.Genotype(bt, bs)
		} else {
			dst[i] = allele.UnknownGenotype
		}
	}
	return dst
}

func (f *filterTable) genotypeForAllSites(taxon int, dst []byte) []byte {
	dst = calltable.Resize(dst, f.tr.NumSites())
	bt, ok := f.tr.Taxon(taxon)
	if !ok {
		for i := range dst {
			dst[i] = allele.UnknownGenotype
		}
		return dst
	}
	if !f.tr.Sites.HasTranslations() {
		return f.src.GenotypeForAllSites(bt, dst)
	}
	row := f.src.GenotypeForAllSites(bt, nil)
	for i := range dst {
		if bs, ok := f.tr.Site(i); ok {
			dst[i] = row[bs]
		} else {
			dst[i] = allele.UnknownGenotype
		}
	}
	return dst
}
