// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/genotype/allele"
	"github.com/grailbio/genotype/genotable"
	"github.com/grailbio/genotype/position"
	"github.com/grailbio/genotype/store"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func writeStore(ctx context.Context, t *testing.T, prefix, chr string, names []string, rows ...string) {
	ps := make([]position.Position, len(rows[0]))
	for i := range ps {
		ps[i] = position.Position{Chromosome: chr, Pos: int32(10 * (i + 1))}
	}
	b, err := genotable.NewDiskBuilder(ctx, prefix, position.MustNew(ps...), genotable.DefaultDiskBuilderOpts)
	require.NoError(t, err)
	for i, name := range names {
		g, err := allele.ParseString(rows[i])
		require.NoError(t, err)
		require.NoError(t, b.AddTaxon(name, g))
	}
	_, err = b.Build(ctx)
	require.NoError(t, err)
}

func TestSummary(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	prefix := filepath.Join(tempDir, "a")
	writeStore(ctx, t, prefix, "1", []string{"x", "y"}, "ACN", "RCT")

	var buf bytes.Buffer
	require.NoError(t, summary(ctx, &buf, prefix, false, ""))
	expect.EQ(t, buf.String(), "taxa\t2\nsites\t3\nchromosome\t1\t3\n")

	buf.Reset()
	require.NoError(t, summary(ctx, &buf, prefix, true, ""))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	expect.EQ(t, len(lines), 3+1+3)
	expect.EQ(t, lines[4], "1\t10\tS1_10\t3\t0\t1\t0\t0\t0\t2\t1\t0.25")
}

func TestSummaryHeader(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	prefix := filepath.Join(tempDir, "a")
	writeStore(ctx, t, prefix, "1", []string{"x"}, "ACN")

	tests := []struct {
		header string
		ok     bool
	}{
		{"@HD\tVN:1.4\n@SQ\tSN:1\tLN:1000\n", true},
		// Site 1:30 is past the end of the reference.
		{"@HD\tVN:1.4\n@SQ\tSN:1\tLN:25\n", false},
		{"@HD\tVN:1.4\n@SQ\tSN:2\tLN:1000\n", false},
	}
	for i, test := range tests {
		path := filepath.Join(tempDir, fmt.Sprintf("h%d.sam", i))
		require.NoError(t, ioutil.WriteFile(path, []byte(test.header), 0644))
		var buf bytes.Buffer
		err := summary(ctx, &buf, prefix, false, path)
		if test.ok {
			require.NoError(t, err, "test %d", i)
			continue
		}
		expect.True(t, errors.Is(errors.Invalid, err), "test %d: %v", i, err)
	}
}

func TestFilter(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	src := filepath.Join(tempDir, "src")
	dst := filepath.Join(tempDir, "dst")
	writeStore(ctx, t, src, "1", []string{"x", "y", "z"}, "ACGT", "ACGA", "ACGT")

	opts := filterOpts{
		taxaToRemove: "y",
		minHet:       -1,
		maxHet:       -1,
		sitesToKeep:  "S1_10,S1_40",
		minMAF:       -1,
		maxMAF:       1,
	}
	require.NoError(t, filter(ctx, opts, store.DefaultWriteOpts, src, dst))
	out, err := genotable.Open(ctx, dst)
	require.NoError(t, err)
	expect.EQ(t, out.Taxa().Names(), []string{"x", "z"})
	expect.EQ(t, out.NumSites(), 2)
	expect.EQ(t, out.SiteName(1), "S1_40")
	expect.EQ(t, out.GenotypeAsString(1, 1), "T")

	// Unknown site names are rejected with a hint.
	opts.sitesToKeep = "S1_11"
	err = filter(ctx, opts, store.DefaultWriteOpts, src, dst)
	expect.True(t, errors.Is(errors.Invalid, err))
	expect.True(t, strings.Contains(err.Error(), "S1_10"))
}

func TestCombine(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	a := filepath.Join(tempDir, "a")
	b := filepath.Join(tempDir, "b")
	dst := filepath.Join(tempDir, "dst")
	writeStore(ctx, t, a, "1", []string{"x", "y"}, "AC", "GT")
	writeStore(ctx, t, b, "2", []string{"y", "z"}, "A", "C")

	err := combine(ctx, genotable.DefaultCombineOpts, store.DefaultWriteOpts, dst, []string{a, b})
	expect.True(t, errors.Is(errors.Invalid, err))

	j, err := parseJoin("union")
	require.NoError(t, err)
	require.NoError(t, combine(ctx, genotable.CombineOpts{Join: j}, store.DefaultWriteOpts, dst, []string{a, b}))
	out, err := genotable.Open(ctx, dst)
	require.NoError(t, err)
	expect.EQ(t, out.NumTaxa(), 3)
	expect.EQ(t, out.NumSites(), 3)
	var chrs []string
	for _, c := range out.Chromosomes() {
		chrs = append(chrs, c.Name)
	}
	expect.EQ(t, chrs, []string{"1", "2"})
	x, ok := out.TaxonIndex("x")
	require.True(t, ok)
	expect.EQ(t, out.GenotypeAsString(x, 2), "N")

	_, err = parseJoin("outer")
	expect.True(t, errors.Is(errors.Invalid, err))
}
