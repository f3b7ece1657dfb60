// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package genotable

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/genotype/calltable"
	"github.com/grailbio/genotype/position"
	"github.com/grailbio/genotype/taxa"
	"v.io/x/lib/vlog"
)

// BuildMode selects the axis along which a Builder accumulates calls.
type BuildMode int

const (
	// TaxaIncremental builders take one row of calls per taxon, over a fixed
	// position list.
	TaxaIncremental BuildMode = iota
	// SiteIncremental builders take one column of calls per site, over a
	// fixed taxa list.
	SiteIncremental
)

// Builder accumulates calls into a Base table.  Add errors are sticky: the
// first one is reported by Build.  A Builder must not be used after Build.
type Builder struct {
	mode      BuildMode
	taxa      *taxa.List
	positions *position.List

	names  []string
	sites  []position.Position
	chunks [][]byte
	depths [][]calltable.Depth

	err   errors.Once
	built bool
}

// NewTaxaIncrementalBuilder creates a Builder taking taxon rows over
// positions.
func NewTaxaIncrementalBuilder(positions *position.List) *Builder {
	return &Builder{mode: TaxaIncremental, positions: positions}
}

// NewSiteIncrementalBuilder creates a Builder taking site columns over
// taxaList.
func NewSiteIncrementalBuilder(taxaList *taxa.List) *Builder {
	return &Builder{mode: SiteIncremental, taxa: taxaList}
}

func (b *Builder) checkMode(mode BuildMode) bool {
	if b.built {
		log.Panicf("genotable: Builder used after Build")
	}
	if b.mode != mode {
		b.err.Set(errors.E(errors.Precondition, "genotable: builder is not in the mode of this call"))
		return false
	}
	return true
}

func (b *Builder) add(depth []calltable.Depth, genos []byte, want int, what string) {
	if len(genos) != want {
		b.err.Set(errors.E(errors.Invalid, fmt.Sprintf("genotable: %s has %d calls, want %d (out of range)", what, len(genos), want)))
		return
	}
	if depth != nil && len(depth) != want {
		b.err.Set(errors.E(errors.Invalid, fmt.Sprintf("genotable: %s has %d depths, want %d (out of range)", what, len(depth), want)))
		return
	}
	if depth == nil && len(b.depths) > 0 || depth != nil && len(b.depths) != len(b.chunks) {
		b.err.Set(errors.E(errors.Invalid, fmt.Sprintf("genotable: %s: depth must be given for every row or none", what)))
		return
	}
	b.chunks = append(b.chunks, append([]byte(nil), genos...))
	if depth != nil {
		b.depths = append(b.depths, append([]calltable.Depth(nil), depth...))
	}
}

// AddTaxon adds a taxon row.  genos must have one call per position.
func (b *Builder) AddTaxon(name string, genos []byte) {
	b.AddTaxonWithDepth(name, genos, nil)
}

// AddTaxonWithDepth adds a taxon row with per-allele depths.
func (b *Builder) AddTaxonWithDepth(name string, genos []byte, depth []calltable.Depth) {
	if !b.checkMode(TaxaIncremental) {
		return
	}
	n := len(b.chunks)
	b.add(depth, genos, b.positions.Len(), "taxon "+name)
	if len(b.chunks) > n {
		b.names = append(b.names, name)
	}
}

// AddSite adds a site column.  genos must have one call per taxon.
func (b *Builder) AddSite(p position.Position, genos []byte) {
	b.AddSiteWithDepth(p, genos, nil)
}

// AddSiteWithDepth adds a site column with per-allele depths.
func (b *Builder) AddSiteWithDepth(p position.Position, genos []byte, depth []calltable.Depth) {
	if !b.checkMode(SiteIncremental) {
		return
	}
	n := len(b.chunks)
	b.add(depth, genos, b.taxa.Len(), "site "+position.SiteName(p))
	if len(b.chunks) > n {
		b.sites = append(b.sites, p)
	}
}

// Build materializes the table.
func (b *Builder) Build() (*Table, error) {
	if b.built {
		log.Panicf("genotable: Builder used after Build")
	}
	b.built = true
	if err := b.err.Err(); err != nil {
		return nil, err
	}
	taxaList, positions := b.taxa, b.positions
	var err error
	if b.mode == TaxaIncremental {
		if taxaList, err = taxa.New(b.names); err != nil {
			return nil, err
		}
	} else if positions, err = position.New(b.sites); err != nil {
		return nil, err
	}
	nt, ns := taxaList.Len(), positions.Len()
	data := make([]byte, nt*ns)
	var depthData []calltable.Depth
	if len(b.depths) > 0 {
		depthData = make([]calltable.Depth, nt*ns)
	}
	for i, chunk := range b.chunks {
		for j, g := range chunk {
			// Rows are taxa; in site mode chunk i is site i, entry j taxon j.
			idx := i*ns + j
			if b.mode == SiteIncremental {
				idx = j*ns + i
			}
			data[idx] = g
			if depthData != nil {
				depthData[idx] = b.depths[i][j]
			}
		}
	}
	b.chunks, b.depths = nil, nil
	calls, err := calltable.NewDense(nt, ns, data)
	if err != nil {
		return nil, err
	}
	var depth calltable.DepthTable
	if depthData != nil {
		if depth, err = calltable.NewDenseDepth(nt, ns, depthData); err != nil {
			return nil, err
		}
	}
	vlog.VI(1).Infof("built %d taxa x %d sites", nt, ns)
	return New(taxaList, positions, calls, depth)
}

// Copy materializes t into a Base table with the same taxa, positions and
// calls.  It is used to cut indirection when a deep view is read
// repeatedly.
func Copy(t *Table) (*Table, error) {
	nt, ns := t.NumTaxa(), t.NumSites()
	data := make([]byte, nt*ns)
	err := traverse.Each(nt, func(taxon int) error {
		copy(data[taxon*ns:(taxon+1)*ns], t.GenotypeForAllSites(taxon, nil))
		return nil
	})
	if err != nil {
		return nil, err
	}
	calls, err := calltable.NewDense(nt, ns, data)
	if err != nil {
		return nil, err
	}
	var depth calltable.DepthTable
	if t.HasDepth() {
		depthData := make([]calltable.Depth, nt*ns)
		err := traverse.Each(nt, func(taxon int) error {
			for s := 0; s < ns; s++ {
				d, err := t.Depth(taxon, s)
				if err != nil {
					return err
				}
				depthData[taxon*ns+s] = d
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if depth, err = calltable.NewDenseDepth(nt, ns, depthData); err != nil {
			return nil, err
		}
	}
	return New(t.taxa, t.positions, calls, depth)
}
