// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package store

import (
	"context"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/genotype/calltable"
	"github.com/grailbio/genotype/position"
	"github.com/grailbio/genotype/taxa"
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"
)

// scanRecords reads every record of the recordio file at path, checking the
// format version and the record count trailer.
func scanRecords(ctx context.Context, path string, unmarshal func([]byte) (interface{}, error), fn func(v interface{}) error) (err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "%v: open", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	scanner := recordio.NewScanner(in.Reader(ctx), recordio.ScannerOpts{Unmarshal: unmarshal})
	defer scanner.Finish() // nolint: errcheck
	version := ""
	for _, kv := range scanner.Header() {
		if kv.Key == versionHeader {
			version, _ = kv.Value.(string)
		}
	}
	if version != formatVersion {
		return errors.Errorf("%v: format version %q, want %q", path, version, formatVersion)
	}
	want, err := parseCountTrailer(scanner.Trailer())
	if err != nil {
		return errors.Wrapf(err, "%v: trailer", path)
	}
	n := 0
	for scanner.Scan() {
		if err := fn(scanner.Get()); err != nil {
			return errors.Wrapf(err, "%v: record %d", path, n)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "%v: scan", path)
	}
	if n != want {
		return errors.Errorf("%v: read %d records, trailer says %d", path, n, want)
	}
	return nil
}

func scanRows(ctx context.Context, path string, fn func(r *row) error) error {
	return scanRecords(ctx, path, unmarshalRow, func(v interface{}) error {
		return fn(v.(*row))
	})
}

// Reader is a finished store loaded into memory.  It implements
// calltable.Table.
type Reader struct {
	*calltable.Dense
	taxa           *taxa.List
	positions      *position.List
	sites          []SiteSummary
	taxonSummaries []TaxonSummary
}

// Open loads the store at prefix.  Every row's checksum is verified.
func Open(ctx context.Context, prefix string) (*Reader, error) {
	posPath, genoPath, sitesPath, taxaPath, _ := Paths(prefix)
	var positions []position.Position
	if err := scanRecords(ctx, posPath, unmarshalPosition, func(v interface{}) error {
		positions = append(positions, *v.(*position.Position))
		return nil
	}); err != nil {
		return nil, err
	}
	posList, err := position.New(positions)
	if err != nil {
		return nil, errors.Wrapf(err, "%v", posPath)
	}
	var (
		names []string
		data  []byte
	)
	if err := scanRows(ctx, genoPath, func(r *row) error {
		if len(r.genos) != posList.Len() {
			return errors.Errorf("taxon %s has %d calls, want %d", r.name, len(r.genos), posList.Len())
		}
		names = append(names, r.name)
		data = append(data, r.genos...)
		return nil
	}); err != nil {
		return nil, err
	}
	taxaList, err := taxa.New(names)
	if err != nil {
		return nil, errors.Wrapf(err, "%v", genoPath)
	}
	dense, err := calltable.NewDense(taxaList.Len(), posList.Len(), data)
	if err != nil {
		return nil, err
	}
	r := &Reader{Dense: dense, taxa: taxaList, positions: posList}
	if err := scanRecords(ctx, sitesPath, unmarshalSiteSummary, func(v interface{}) error {
		r.sites = append(r.sites, *v.(*SiteSummary))
		return nil
	}); err != nil {
		return nil, err
	}
	if err := scanRecords(ctx, taxaPath, unmarshalTaxonSummary, func(v interface{}) error {
		r.taxonSummaries = append(r.taxonSummaries, *v.(*TaxonSummary))
		return nil
	}); err != nil {
		return nil, err
	}
	if len(r.sites) != posList.Len() || len(r.taxonSummaries) != taxaList.Len() {
		return nil, errors.Errorf("store %s: %d site and %d taxon summaries for %d x %d table",
			prefix, len(r.sites), len(r.taxonSummaries), taxaList.Len(), posList.Len())
	}
	vlog.VI(1).Infof("store %s: opened %d taxa x %d sites", prefix, taxaList.Len(), posList.Len())
	return r, nil
}

// Taxa returns the taxa, in the order they were added.
func (r *Reader) Taxa() *taxa.List { return r.taxa }

// Positions returns the positions.
func (r *Reader) Positions() *position.List { return r.positions }

// SiteSummary returns the summary of site.
func (r *Reader) SiteSummary(site int) SiteSummary { return r.sites[site] }

// TaxonSummary returns the summary of taxon.
func (r *Reader) TaxonSummary(taxon int) TaxonSummary { return r.taxonSummaries[taxon] }
