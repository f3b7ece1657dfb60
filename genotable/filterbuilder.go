// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package genotable

import (
	"fmt"

	"github.com/antzucaro/matchr"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/genotype/translate"
	"v.io/x/lib/vlog"
)

// FilterBuilder filters a table by declarative criteria.  The stages run in
// a fixed order, each against the output of the previous one:
//
//  1. taxa kept or removed by name
//  2. taxa filtered by heterozygosity and missingness
//  3. sites kept by index, or kept or removed by name
//  4. sites filtered by minor allele frequency and call count
//
// A stage with no criteria set is skipped.
type FilterBuilder struct {
	minMAF, maxMAF  float64
	minCount        int
	taxaToKeep      []string
	taxaToRemove    []string
	minHet, maxHet  float64
	minNotMissing   float64
	sitesToKeep     []int
	siteNamesToKeep []string
	siteNamesToRem  []string

	mafSet, hetSet             bool
	taxaKeepSet, taxaRemoveSet bool
	sitesKeepSet, siteNamesSet bool
	siteNamesRemSet            bool
}

// NewFilterBuilder creates a FilterBuilder with no criteria.
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{maxMAF: 1, maxHet: 1}
}

// MinorAlleleFreqForSite keeps sites whose minor allele frequency is in
// [min, max].
func (b *FilterBuilder) MinorAlleleFreqForSite(min, max float64) *FilterBuilder {
	b.minMAF, b.maxMAF, b.mafSet = min, max, true
	return b
}

// MinCountForSite keeps sites with at least count taxa called.
func (b *FilterBuilder) MinCountForSite(count int) *FilterBuilder {
	b.minCount = count
	return b
}

// TaxaToKeep keeps only the named taxa.  It excludes TaxaToRemove.
func (b *FilterBuilder) TaxaToKeep(names ...string) *FilterBuilder {
	b.taxaToKeep, b.taxaKeepSet = append([]string(nil), names...), true
	return b
}

// TaxaToRemove drops the named taxa.  It excludes TaxaToKeep.
func (b *FilterBuilder) TaxaToRemove(names ...string) *FilterBuilder {
	b.taxaToRemove, b.taxaRemoveSet = append([]string(nil), names...), true
	return b
}

// MinHeterozygousForTaxon keeps taxa whose heterozygous share of called sites
// is at least f.
func (b *FilterBuilder) MinHeterozygousForTaxon(f float64) *FilterBuilder {
	b.minHet, b.hetSet = f, true
	return b
}

// MaxHeterozygousForTaxon keeps taxa whose heterozygous share of called sites
// is at most f.
func (b *FilterBuilder) MaxHeterozygousForTaxon(f float64) *FilterBuilder {
	b.maxHet, b.hetSet = f, true
	return b
}

// MinNotMissingForTaxon keeps taxa called at no less than a share f of sites.
func (b *FilterBuilder) MinNotMissingForTaxon(f float64) *FilterBuilder {
	b.minNotMissing = f
	return b
}

// SitesToKeep keeps the given sites.  At most one of SitesToKeep,
// SiteNamesToKeep and SiteNamesToRemove may be set.
func (b *FilterBuilder) SitesToKeep(sites ...int) *FilterBuilder {
	b.sitesToKeep, b.sitesKeepSet = append([]int(nil), sites...), true
	return b
}

// SiteNamesToKeep keeps the named sites.
func (b *FilterBuilder) SiteNamesToKeep(names ...string) *FilterBuilder {
	b.siteNamesToKeep, b.siteNamesSet = append([]string(nil), names...), true
	return b
}

// SiteNamesToRemove drops the named sites.
func (b *FilterBuilder) SiteNamesToRemove(names ...string) *FilterBuilder {
	b.siteNamesToRem, b.siteNamesRemSet = append([]string(nil), names...), true
	return b
}

func (b *FilterBuilder) validate() error {
	if b.taxaKeepSet && b.taxaRemoveSet {
		return errors.E(errors.Precondition, "genotable: taxaToKeep and taxaToRemove are both set")
	}
	n := 0
	for _, set := range []bool{b.sitesKeepSet, b.siteNamesSet, b.siteNamesRemSet} {
		if set {
			n++
		}
	}
	if n > 1 {
		return errors.E(errors.Precondition, "genotable: more than one of sitesToKeep, siteNamesToKeep and siteNamesToRemove is set")
	}
	if b.mafSet && (b.minMAF < 0 || b.maxMAF > 1 || b.minMAF > b.maxMAF) {
		return errors.E(errors.Invalid, fmt.Sprintf("genotable: bad minor allele frequency range [%v, %v]", b.minMAF, b.maxMAF))
	}
	if b.hetSet && b.minHet > b.maxHet {
		return errors.E(errors.Invalid, fmt.Sprintf("genotable: bad heterozygosity range [%v, %v]", b.minHet, b.maxHet))
	}
	return nil
}

// Build applies the criteria to t.
func (b *FilterBuilder) Build(t *Table) (*Table, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	stages := []struct {
		name string
		run  func(*Table) (*Table, error)
	}{
		{"taxa by name", b.filterTaxaByName},
		{"taxa by call statistics", b.filterTaxaByStats},
		{"sites by name", b.filterSitesByName},
		{"sites by allele statistics", b.filterSitesByStats},
	}
	for _, stage := range stages {
		out, err := stage.run(t)
		if err != nil {
			return nil, errors.E(err, "genotable: filter "+stage.name)
		}
		if out != t {
			vlog.VI(1).Infof("filter %s: %v -> %v", stage.name, t, out)
		}
		t = out
	}
	return t, nil
}

func (b *FilterBuilder) filterTaxaByName(t *Table) (*Table, error) {
	if !b.taxaKeepSet && !b.taxaRemoveSet {
		return t, nil
	}
	kb := translate.NewBuilder(t.NumTaxa())
	if b.taxaKeepSet {
		for _, name := range b.taxaToKeep {
			i, ok := t.taxa.Index(name)
			if !ok {
				return nil, unknownName("taxon", name, t.taxa.Closest(name))
			}
			kb.Keep(i)
		}
	} else {
		remove := map[string]bool{}
		for _, name := range b.taxaToRemove {
			remove[name] = true
		}
		for i := 0; i < t.NumTaxa(); i++ {
			if !remove[t.taxa.Name(i)] {
				kb.Keep(i)
			}
		}
	}
	return keepTaxa(t, kb)
}

func (b *FilterBuilder) filterTaxaByStats(t *Table) (*Table, error) {
	if !b.hetSet && b.minNotMissing <= 0 {
		return t, nil
	}
	kb := translate.NewBuilder(t.NumTaxa())
	for i := 0; i < t.NumTaxa(); i++ {
		notMissing := t.TotalNonMissingForTaxon(i)
		if t.NumSites() > 0 && float64(notMissing)/float64(t.NumSites()) < b.minNotMissing {
			continue
		}
		if b.hetSet {
			het := 0.0
			if notMissing > 0 {
				het = float64(t.HeterozygousCountForTaxon(i)) / float64(notMissing)
			}
			if het < b.minHet || het > b.maxHet {
				continue
			}
		}
		kb.Keep(i)
	}
	return keepTaxa(t, kb)
}

func (b *FilterBuilder) filterSitesByName(t *Table) (*Table, error) {
	kb := translate.NewBuilder(t.NumSites())
	switch {
	case b.sitesKeepSet:
		for _, s := range b.sitesToKeep {
			kb.Keep(s)
		}
	case b.siteNamesSet:
		for _, name := range b.siteNamesToKeep {
			s, ok := t.SiteOfName(name)
			if !ok {
				return nil, unknownName("site", name, closestSite(t, name))
			}
			kb.Keep(s)
		}
	case b.siteNamesRemSet:
		remove := map[string]bool{}
		for _, name := range b.siteNamesToRem {
			remove[name] = true
		}
		for s := 0; s < t.NumSites(); s++ {
			if !remove[t.SiteName(s)] {
				kb.Keep(s)
			}
		}
	default:
		return t, nil
	}
	return keepSites(t, kb)
}

func (b *FilterBuilder) filterSitesByStats(t *Table) (*Table, error) {
	if !b.mafSet && b.minCount <= 0 {
		return t, nil
	}
	kb := translate.NewBuilder(t.NumSites())
	for s := 0; s < t.NumSites(); s++ {
		if t.TotalNonMissingForSite(s) < b.minCount {
			continue
		}
		if b.mafSet {
			if maf := t.MinorAlleleFrequency(s); maf < b.minMAF || maf > b.maxMAF {
				continue
			}
		}
		kb.Keep(s)
	}
	return keepSites(t, kb)
}

func keepTaxa(t *Table, kb *translate.Builder) (*Table, error) {
	idx, err := kb.Build()
	if err != nil {
		return nil, err
	}
	return NewFilter(t, translate.Translation{Taxa: idx, Sites: translate.NewIdentity(t.NumSites())})
}

func keepSites(t *Table, kb *translate.Builder) (*Table, error) {
	idx, err := kb.Build()
	if err != nil {
		return nil, err
	}
	return NewFilter(t, translate.Translation{Taxa: translate.NewIdentity(t.NumTaxa()), Sites: idx})
}

func closestSite(t *Table, name string) string {
	best, bestDist := "", -1
	for s := 0; s < t.NumSites(); s++ {
		if d := matchr.Levenshtein(name, t.SiteName(s)); bestDist < 0 || d < bestDist {
			best, bestDist = t.SiteName(s), d
		}
	}
	return best
}

func unknownName(what, name, closest string) error {
	msg := fmt.Sprintf("genotable: unknown %s %q", what, name)
	if closest != "" {
		msg += fmt.Sprintf(" (closest: %q)", closest)
	}
	if log.At(log.Debug) {
		log.Debug.Printf("%s", msg)
	}
	return errors.E(errors.Invalid, msg)
}
