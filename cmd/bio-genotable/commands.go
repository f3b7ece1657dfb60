// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/genotype/genotable"
	"github.com/grailbio/genotype/position"
	"github.com/grailbio/genotype/store"
	"github.com/grailbio/hts/sam"
)

// checkHeader checks that positions follow the reference order and lengths
// of the SAM header at path.
func checkHeader(ctx context.Context, positions *position.List, path string) (err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, in, &err)
	r, err := sam.NewReader(in.Reader(ctx))
	if err != nil {
		return errors.E(err, fmt.Sprintf("read SAM header %s", path))
	}
	b := position.NewBuilderFromHeader(r.Header())
	for i := 0; i < positions.Len(); i++ {
		b.Add(positions.Position(i))
	}
	_, err = b.Build()
	return err
}

func summary(ctx context.Context, out io.Writer, prefix string, sites bool, header string) error {
	r, err := store.Open(ctx, prefix)
	if err != nil {
		return err
	}
	if header != "" {
		if err := checkHeader(ctx, r.Positions(), header); err != nil {
			return err
		}
	}
	tw := tsv.NewWriter(out)
	tw.WriteString("taxa")
	tw.WriteUint32(uint32(r.NumTaxa()))
	if err := tw.EndLine(); err != nil {
		return err
	}
	tw.WriteString("sites")
	tw.WriteUint32(uint32(r.NumSites()))
	if err := tw.EndLine(); err != nil {
		return err
	}
	for _, c := range r.Positions().Chromosomes() {
		tw.WriteString("chromosome")
		tw.WriteString(c.Name)
		tw.WriteUint32(uint32(c.Len()))
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !sites {
		return nil
	}
	summaries := make([]store.SiteSummary, r.NumSites())
	for i := range summaries {
		summaries[i] = r.SiteSummary(i)
	}
	return store.WriteSiteTSV(out, r.Positions(), summaries)
}

type filterOpts struct {
	taxaToKeep, taxaToRemove   string
	minHet, maxHet             float64
	minNotMissing              float64
	sitesToKeep, sitesToRemove string
	minMAF, maxMAF             float64
	minCount                   int
}

func (o filterOpts) builder() *genotable.FilterBuilder {
	b := genotable.NewFilterBuilder()
	if keep := splitList(o.taxaToKeep); keep != nil {
		b.TaxaToKeep(keep...)
	}
	if remove := splitList(o.taxaToRemove); remove != nil {
		b.TaxaToRemove(remove...)
	}
	if o.minHet >= 0 {
		b.MinHeterozygousForTaxon(o.minHet)
	}
	if o.maxHet >= 0 {
		b.MaxHeterozygousForTaxon(o.maxHet)
	}
	b.MinNotMissingForTaxon(o.minNotMissing)
	if keep := splitList(o.sitesToKeep); keep != nil {
		b.SiteNamesToKeep(keep...)
	}
	if remove := splitList(o.sitesToRemove); remove != nil {
		b.SiteNamesToRemove(remove...)
	}
	if o.minMAF >= 0 {
		b.MinorAlleleFreqForSite(o.minMAF, o.maxMAF)
	}
	b.MinCountForSite(o.minCount)
	return b
}

func filter(ctx context.Context, opts filterOpts, wopts store.WriteOpts, src, dst string) error {
	t, err := genotable.Open(ctx, src)
	if err != nil {
		return err
	}
	out, err := opts.builder().Build(t)
	if err != nil {
		return err
	}
	log.Printf("filter %s: %v -> %v", src, t, out)
	return genotable.Write(ctx, out, dst, wopts)
}

func parseJoin(s string) (genotable.Join, error) {
	switch s {
	case "none", "":
		return genotable.NoJoin, nil
	case "union":
		return genotable.Union, nil
	case "intersect":
		return genotable.Intersect, nil
	}
	return 0, errors.E(errors.Invalid, fmt.Sprintf("unknown join %q: want none, union or intersect", s))
}

func combine(ctx context.Context, opts genotable.CombineOpts, wopts store.WriteOpts, dst string, srcs []string) error {
	tables := make([]*genotable.Table, len(srcs))
	for i, src := range srcs {
		var err error
		if tables[i], err = genotable.Open(ctx, src); err != nil {
			return err
		}
	}
	out, err := genotable.NewCombine(opts, tables...)
	if err != nil {
		return err
	}
	log.Printf("combine: %d stores -> %v", len(srcs), out)
	return genotable.Write(ctx, out, dst, wopts)
}
