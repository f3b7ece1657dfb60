// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package genotable

import (
	"context"

	"github.com/grailbio/genotype/position"
	"github.com/grailbio/genotype/store"
)

// DiskBuilderOpts configures a DiskBuilder.
type DiskBuilderOpts struct {
	Store store.WriteOpts
}

// DefaultDiskBuilderOpts is the default DiskBuilder configuration.
var DefaultDiskBuilderOpts = DiskBuilderOpts{Store: store.DefaultWriteOpts}

// DiskBuilder is a taxa-incremental builder that writes each taxon to a
// store as it is added, instead of accumulating calls in memory.
type DiskBuilder struct {
	prefix string
	w      *store.Writer
}

// NewDiskBuilder starts a store at prefix over positions.
func NewDiskBuilder(ctx context.Context, prefix string, positions *position.List, opts DiskBuilderOpts) (*DiskBuilder, error) {
	w, err := store.Create(ctx, prefix, positions, opts.Store)
	if err != nil {
		return nil, err
	}
	return &DiskBuilder{prefix: prefix, w: w}, nil
}

// AddTaxon writes a taxon row.  genos must have one call per position.
func (b *DiskBuilder) AddTaxon(name string, genos []byte) error {
	return b.w.Add(name, genos)
}

// Build finishes the store, which computes its summaries, and opens it as a
// Base table.
func (b *DiskBuilder) Build(ctx context.Context) (*Table, error) {
	if err := b.w.Finish(ctx); err != nil {
		return nil, err
	}
	return Open(ctx, b.prefix)
}

// Open reads the store at prefix as a Base table.
func Open(ctx context.Context, prefix string) (*Table, error) {
	r, err := store.Open(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return New(r.Taxa(), r.Positions(), r, nil)
}

// Write stores t at prefix.  t must have sorted positions.
func Write(ctx context.Context, t *Table, prefix string, opts store.WriteOpts) error {
	w, err := store.Create(ctx, prefix, t.positions, opts)
	if err != nil {
		return err
	}
	var row []byte
	for i := 0; i < t.NumTaxa(); i++ {
		row = t.GenotypeForAllSites(i, row)
		if err := w.Add(t.taxa.Name(i), row); err != nil {
			return err
		}
	}
	return w.Finish(ctx)
}
