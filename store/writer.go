// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/genotype/allele"
	"github.com/grailbio/genotype/position"
	"github.com/klauspost/compress/gzip"
	"v.io/x/lib/vlog"
)

// WriteOpts configures a Writer.
type WriteOpts struct {
	// Snappy compresses each taxon's calls before recordio block compression.
	Snappy bool
	// SiteTSV also writes the site summaries as gzipped TSV.
	SiteTSV bool
}

// DefaultWriteOpts is the default Writer configuration.
var DefaultWriteOpts = WriteOpts{Snappy: true, SiteTSV: true}

// Writer appends taxa to a new store.  Calls to Add must not be concurrent.
type Writer struct {
	prefix    string
	opts      WriteOpts
	positions *position.List

	out   file.File
	rio   recordio.Writer
	names map[string]bool
	err   errors.Once
	done  bool
}

// Create starts a store at prefix over the given sorted positions.  Existing
// files are clobbered.
func Create(ctx context.Context, prefix string, positions *position.List, opts WriteOpts) (*Writer, error) {
	if !positions.Sorted() {
		return nil, errors.E(errors.Precondition, "store: positions must be sorted")
	}
	posPath, genoPath, _, _, _ := Paths(prefix)
	if err := writeRecords(ctx, posPath, marshalPosition, positions.Len(), func(i int) interface{} {
		p := positions.Position(i)
		return &p
	}); err != nil {
		return nil, err
	}
	out, err := file.Create(ctx, genoPath)
	if err != nil {
		return nil, errors.E(err, genoPath)
	}
	w := &Writer{
		prefix:    prefix,
		opts:      opts,
		positions: positions,
		out:       out,
		names:     map[string]bool{},
	}
	w.rio = recordio.NewWriter(out.Writer(ctx), recordio.WriterOpts{
		Marshal:      marshalRow(opts.Snappy),
		Transformers: []string{recordiozstd.Name},
	})
	w.rio.AddHeader(versionHeader, formatVersion)
	w.rio.AddHeader(recordio.KeyTrailer, true)
	vlog.VI(1).Infof("store %s: created with %d sites", prefix, positions.Len())
	return w, nil
}

// writeRecords writes n records to a new recordio file at path.
func writeRecords(ctx context.Context, path string, marshal recordio.MarshalFunc, n int, record func(i int) interface{}) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, path)
	}
	rio := recordio.NewWriter(out.Writer(ctx), recordio.WriterOpts{
		Marshal:      marshal,
		Transformers: []string{recordiozstd.Name},
	})
	rio.AddHeader(versionHeader, formatVersion)
	rio.AddHeader(recordio.KeyTrailer, true)
	for i := 0; i < n; i++ {
		rio.Append(record(i))
	}
	rio.SetTrailer(countTrailer(n))
	e := errors.Once{}
	e.Set(rio.Finish())
	e.Set(out.Close(ctx))
	if err := e.Err(); err != nil {
		return errors.E(err, path)
	}
	return nil
}

// NumTaxa returns the number of taxa added so far.
func (w *Writer) NumTaxa() int { return len(w.names) }

// Add appends a taxon.  genos must have one call per position, and name must
// be new to the store.
func (w *Writer) Add(name string, genos []byte) error {
	if w.done {
		log.Panicf("store: Add after Finish")
	}
	if len(genos) != w.positions.Len() {
		return errors.E(errors.Invalid, fmt.Sprintf("store: taxon %s has %d calls, want %d", name, len(genos), w.positions.Len()))
	}
	if w.names[name] {
		return errors.E(errors.Invalid, fmt.Sprintf("store: duplicate taxon %s", name))
	}
	w.names[name] = true
	w.rio.Append(&row{name: name, genos: append([]byte(nil), genos...)})
	return nil
}

// Finish closes the genotypes file, then rescans it once to compute and
// write the site and taxon summaries.  Frequencies need every taxon, so the
// summaries cannot be written incrementally.
func (w *Writer) Finish(ctx context.Context) error {
	if w.done {
		log.Panicf("store: Finish called twice")
	}
	w.done = true
	w.rio.SetTrailer(countTrailer(len(w.names)))
	w.err.Set(w.rio.Finish())
	w.err.Set(w.out.Close(ctx))
	if err := w.err.Err(); err != nil {
		return err
	}

	ns := w.positions.Len()
	sites := make([]SiteSummary, ns)
	var taxonSummaries []TaxonSummary
	_, genoPath, sitesPath, taxaPath, tsvPath := Paths(w.prefix)
	nShards := runtime.NumCPU()
	if nShards > ns {
		nShards = ns
	}
	err := scanRows(ctx, genoPath, func(r *row) error {
		var ts TaxonSummary
		ts.NotMissing, ts.Het = allele.CountKnown(r.genos)
		taxonSummaries = append(taxonSummaries, ts)
		return traverse.Each(nShards, func(shard int) error {
			for s := shard * ns / nShards; s < (shard+1)*ns/nShards; s++ {
				g := r.genos[s]
				sum := &sites[s]
				sum.Counts.AddGenotype(g)
				if g != allele.UnknownGenotype {
					sum.NotMissing++
					if allele.IsHeterozygous(g) {
						sum.Het++
					}
				}
			}
			return nil
		})
	})
	if err != nil {
		return err
	}
	if len(taxonSummaries) != len(w.names) {
		return errors.E(errors.Integrity, fmt.Sprintf("store %s: rescanned %d taxa, wrote %d", w.prefix, len(taxonSummaries), len(w.names)))
	}
	if err := writeRecords(ctx, sitesPath, marshalSiteSummary, ns, func(i int) interface{} { return &sites[i] }); err != nil {
		return err
	}
	if err := writeRecords(ctx, taxaPath, marshalTaxonSummary, len(taxonSummaries), func(i int) interface{} { return &taxonSummaries[i] }); err != nil {
		return err
	}
	if w.opts.SiteTSV {
		if err := writeSiteTSV(ctx, tsvPath, w.positions, sites); err != nil {
			return err
		}
	}
	log.Printf("store %s: finished %d taxa x %d sites", w.prefix, len(w.names), ns)
	return nil
}

// siteTSVHeader is the header line of the site summary TSV.
var siteTSVHeader = "#CHROM\tPOS\tNAME\tA\tC\tG\tT\tINS\tGAP\tNOT_MISSING\tHET\tMAF"

// WriteSiteTSV writes site summaries as TSV to out, one line per site.
func WriteSiteTSV(out io.Writer, positions *position.List, sites []SiteSummary) error {
	tw := tsv.NewWriter(out)
	tw.WriteString(siteTSVHeader)
	if err := tw.EndLine(); err != nil {
		return err
	}
	for i, s := range sites {
		p := positions.Position(i)
		tw.WriteString(p.Chromosome)
		tw.WriteString(strconv.Itoa(int(p.Pos)))
		tw.WriteString(positions.SiteName(i))
		for _, n := range s.Counts {
			tw.WriteUint32(uint32(n))
		}
		tw.WriteUint32(uint32(s.NotMissing))
		tw.WriteUint32(uint32(s.Het))
		tw.WriteString(strconv.FormatFloat(s.MinorAlleleFrequency(), 'g', 6, 64))
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func writeSiteTSV(ctx context.Context, path string, positions *position.List, sites []SiteSummary) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	gz := gzip.NewWriter(out.Writer(ctx))
	e := errors.Once{}
	e.Set(WriteSiteTSV(gz, positions, sites))
	e.Set(gz.Close())
	return e.Err()
}
