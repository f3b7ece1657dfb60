// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package genotable

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/genotype/allele"
	"github.com/grailbio/genotype/calltable"
	"github.com/grailbio/genotype/interval"
	"github.com/grailbio/genotype/mask"
	"github.com/grailbio/genotype/position"
	"github.com/grailbio/genotype/taxa"
	"github.com/grailbio/genotype/translate"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

// positionsOn returns sites at 100, 200, ... on chromosome chr.
func positionsOn(chr string, n int) []position.Position {
	ps := make([]position.Position, n)
	for i := range ps {
		ps[i] = position.Position{Chromosome: chr, Pos: int32(100 * (i + 1))}
	}
	return ps
}

// newTestTable builds a Base table from one IUPAC string per taxon.
func newTestTable(t *testing.T, names []string, positions []position.Position, rows ...string) *Table {
	require.Equal(t, len(names), len(rows))
	var data []byte
	for _, row := range rows {
		require.Equal(t, len(positions), len(row))
		g, err := allele.ParseString(row)
		require.NoError(t, err)
		data = append(data, g...)
	}
	calls, err := calltable.NewDense(len(names), len(positions), data)
	require.NoError(t, err)
	tbl, err := New(taxa.MustNew(names...), position.MustNew(positions...), calls, nil)
	require.NoError(t, err)
	return tbl
}

func randomTable(t *testing.T, r *rand.Rand, numTaxa, numSites int) *Table {
	const codes = "ACGTRYMKN"
	names := make([]string, numTaxa)
	rows := make([]string, numTaxa)
	for i := range rows {
		names[i] = fmt.Sprintf("t%d", i)
		b := make([]byte, numSites)
		for j := range b {
			b[j] = codes[r.Intn(len(codes))]
		}
		rows[i] = string(b)
	}
	return newTestTable(t, names, positionsOn("1", numSites), rows...)
}

func keptIndex(t *testing.T, n int, sites ...int) translate.Index {
	b := translate.NewBuilder(n)
	for _, s := range sites {
		b.Keep(s)
	}
	idx, err := b.Build()
	require.NoError(t, err)
	return idx
}

func TestFilterKeepSites(t *testing.T) {
	base := newTestTable(t, []string{"a", "b", "c"}, positionsOn("1", 5),
		"ACGTA",
		"CCGGT",
		"NRYKM")
	f, err := NewFilter(base, translate.Translation{
		Taxa:  translate.NewIdentity(3),
		Sites: keptIndex(t, 5, 1, 3, 4),
	})
	require.NoError(t, err)
	expect.EQ(t, f.Kind(), Filter)
	expect.EQ(t, f.NumSites(), 3)
	expect.EQ(t, f.NumTaxa(), 3)
	expect.EQ(t, f.GenotypeAsString(0, 1), base.GenotypeAsString(0, 3))
	expect.EQ(t, f.GenotypeAsString(2, 2), "M")
	expect.EQ(t, f.ChromosomalPosition(1), int32(400))

	site, ok := f.SiteOfPhysicalPosition("1", 400)
	expect.True(t, ok)
	expect.EQ(t, site, 1)
	_, ok = f.SiteOfPhysicalPosition("1", 300)
	expect.False(t, ok)
	site, ok = f.SiteOfName("S1_500")
	expect.True(t, ok)
	expect.EQ(t, site, 2)

	expect.EQ(t, f.GenotypeForAllSites(1, nil), []byte{base.Genotype(1, 1), base.Genotype(1, 3), base.Genotype(1, 4)})
	g, err := f.GenotypeRange(0, 1, 3)
	require.NoError(t, err)
	expect.EQ(t, g, []byte{base.Genotype(0, 3), base.Genotype(0, 4)})
	_, err = f.GenotypeRange(0, 2, 4)
	expect.True(t, errors.Is(errors.Invalid, err))
	require.Panics(t, func() { f.Genotype(0, 3) })

	_, err = NewFilter(base, translate.NewIdentityTranslation(3, 4))
	expect.True(t, errors.Is(errors.Invalid, err))

	same, err := NewFilter(base, translate.NewIdentityTranslation(3, 5))
	require.NoError(t, err)
	expect.True(t, same == base)
}

func TestFilterUnmatchedTaxon(t *testing.T) {
	base := newTestTable(t, []string{"a", "b"}, positionsOn("1", 2), "AC", "GT")
	ub := translate.NewUnorderedBuilder(2)
	ub.Add(1)
	ub.AddUnmatched()
	idx, err := ub.Build()
	require.NoError(t, err)
	f, err := NewFilter(base, translate.Translation{Taxa: idx, Sites: translate.NewIdentity(2)})
	require.NoError(t, err)
	expect.EQ(t, f.Taxa().Names(), []string{"b", "unmatched_1"})
	expect.EQ(t, f.Genotype(1, 0), allele.UnknownGenotype)
	expect.EQ(t, f.GenotypeForAllTaxa(1, nil), []byte{base.Genotype(1, 1), allele.UnknownGenotype})
	expect.EQ(t, f.GenotypeForAllSites(1, nil), []byte{allele.UnknownGenotype, allele.UnknownGenotype})
}

// randomIndex returns a random subset or reordering of [0, n), possibly with
// unmatched entries.
func randomIndex(t *testing.T, r *rand.Rand, n int) translate.Index {
	switch r.Intn(3) {
	case 0:
		b := translate.NewBuilder(n)
		b.Keep(r.Intn(n))
		for i := 0; i < n; i++ {
			if r.Intn(3) > 0 {
				b.Keep(i)
			}
		}
		idx, err := b.Build()
		require.NoError(t, err)
		return idx
	case 1:
		b := translate.NewUnorderedBuilder(n)
		for _, i := range r.Perm(n) {
			b.Add(i)
			if r.Intn(8) == 0 {
				b.AddUnmatched()
			}
		}
		idx, err := b.Build()
		require.NoError(t, err)
		return idx
	}
	return translate.NewIdentity(n)
}

func TestChainedFilters(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for iter := 0; iter < 30; iter++ {
		base := randomTable(t, r, 6, 20)
		cur := base
		var chain []translate.Translation
		for depth := 0; depth < 5; depth++ {
			tr := translate.Translation{
				Taxa:  randomIndex(t, r, cur.NumTaxa()),
				Sites: randomIndex(t, r, cur.NumSites()),
			}
			next, err := NewFilter(cur, tr)
			require.NoError(t, err)
			chain = append(chain, tr)
			cur = next
		}
		if cur.Kind() == Filter {
			expect.True(t, cur.Source() == base, "filters must fold onto the base table")
		}
		// reference walks the chain one translation at a time.
		reference := func(taxon, site int) byte {
			for k := len(chain) - 1; k >= 0; k-- {
				var ok bool
				if taxon, ok = chain[k].Taxa.Translate(taxon); !ok {
					return allele.UnknownGenotype
				}
				if site, ok = chain[k].Sites.Translate(site); !ok {
					return allele.UnknownGenotype
				}
			}
			return base.Genotype(taxon, site)
		}
		for s := 0; s < cur.NumSites(); s++ {
			col := cur.GenotypeForAllTaxa(s, nil)
			for tx := 0; tx < cur.NumTaxa(); tx++ {
				want := reference(tx, s)
				require.Equal(t, want, cur.Genotype(tx, s), "iter %d taxon %d site %d", iter, tx, s)
				require.Equal(t, want, col[tx])
			}
		}
		for tx := 0; tx < cur.NumTaxa(); tx++ {
			row := cur.GenotypeForAllSites(tx, nil)
			for s := range row {
				require.Equal(t, reference(tx, s), row[s])
			}
		}
	}
}

func TestCombine(t *testing.T) {
	names := []string{"w", "x", "y", "z"}
	t1 := newTestTable(t, names, positionsOn("1", 2), "AC", "CG", "GT", "TA")
	t2 := newTestTable(t, names, positionsOn("2", 3), "RRR", "YYY", "NAN", "KMK")
	c, err := NewCombine(DefaultCombineOpts, t1, t2)
	require.NoError(t, err)
	expect.EQ(t, c.Kind(), Combine)
	expect.EQ(t, c.NumSites(), 5)
	expect.EQ(t, c.TranslateSite(0), 0)
	expect.EQ(t, c.TranslateSite(1), 0)
	expect.EQ(t, c.TranslateSite(2), 1)
	expect.EQ(t, c.TranslateSite(4), 1)
	expect.EQ(t, c.SiteOffsets(), []int{0, 2, 5})
	expect.EQ(t, len(c.CompositeAlignments()), 2)
	expect.EQ(t, c.Chromosomes(), []position.Chromosome{{Name: "1", Start: 0, End: 2}, {Name: "2", Start: 2, End: 5}})
	first, last, err := c.FirstLastSiteOfChromosome("2")
	require.NoError(t, err)
	expect.EQ(t, []int{first, last}, []int{2, 4})
	_, _, err = c.FirstLastSiteOfChromosome("3")
	expect.True(t, errors.Is(errors.Invalid, err))

	offsets := c.SiteOffsets()
	sources := c.CompositeAlignments()
	for s := 0; s < c.NumSites(); s++ {
		n := 0
		for i := range sources {
			if offsets[i] <= s && s < offsets[i+1] {
				n++
				for tx := 0; tx < c.NumTaxa(); tx++ {
					expect.EQ(t, c.Genotype(tx, s), sources[i].Genotype(tx, s-offsets[i]))
				}
			}
		}
		expect.EQ(t, n, 1, "site %d", s)
	}
	expect.EQ(t, c.GenotypeForAllSites(3, nil), []byte{
		t1.Genotype(3, 0), t1.Genotype(3, 1), t2.Genotype(3, 0), t2.Genotype(3, 1), t2.Genotype(3, 2)})

	other := newTestTable(t, []string{"w", "x", "y", "q"}, positionsOn("3", 1), "A", "A", "A", "A")
	_, err = NewCombine(DefaultCombineOpts, t1, other)
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = NewCombine(DefaultCombineOpts)
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestCombineJoin(t *testing.T) {
	t1 := newTestTable(t, []string{"a", "b"}, positionsOn("1", 1), "A", "C")
	t2 := newTestTable(t, []string{"c", "b"}, positionsOn("2", 2), "GG", "TT")

	u, err := NewCombine(CombineOpts{Join: Union}, t1, t2)
	require.NoError(t, err)
	expect.EQ(t, u.Taxa().Names(), []string{"a", "b", "c"})
	expect.EQ(t, u.GenotypeAsString(0, 0), "A")
	expect.EQ(t, u.Genotype(0, 1), allele.UnknownGenotype)
	expect.EQ(t, u.GenotypeAsString(1, 2), "T")
	expect.EQ(t, u.Genotype(2, 0), allele.UnknownGenotype)
	expect.EQ(t, u.GenotypeAsString(2, 1), "G")
	for _, src := range u.CompositeAlignments() {
		expect.EQ(t, src.Taxa().Names(), []string{"a", "b", "c"})
	}
	// Filtering a joined source keeps the joined names.
	joined := u.CompositeAlignments()[1]
	f, err := NewFilter(joined, translate.Translation{
		Taxa:  translate.NewIdentity(joined.NumTaxa()),
		Sites: keptIndex(t, joined.NumSites(), 0),
	})
	require.NoError(t, err)
	expect.EQ(t, f.NumSites(), 1)
	expect.EQ(t, f.Taxa().Names(), []string{"a", "b", "c"})
	expect.EQ(t, f.Genotype(0, 0), allele.UnknownGenotype)
	expect.EQ(t, f.GenotypeAsString(2, 0), "G")
	f, err = NewFilter(u.CompositeAlignments()[1], translate.Translation{
		Taxa:  keptIndex(t, 3, 0, 2),
		Sites: translate.NewIdentity(2),
	})
	require.NoError(t, err)
	expect.EQ(t, f.Taxa().Names(), []string{"a", "c"})
	expect.EQ(t, f.GenotypeAsString(1, 1), "G")

	i, err := NewCombine(CombineOpts{Join: Intersect}, t1, t2)
	require.NoError(t, err)
	expect.EQ(t, i.Taxa().Names(), []string{"b"})
	expect.EQ(t, i.GenotypeForAllSites(0, nil), []byte{t1.Genotype(1, 0), t2.Genotype(1, 0), t2.Genotype(1, 1)})

	t3 := newTestTable(t, []string{"z"}, positionsOn("3", 1), "A")
	_, err = NewCombine(CombineOpts{Join: Intersect}, t1, t3)
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestProjection(t *testing.T) {
	ps := make([]position.Position, 6)
	for i := range ps {
		ps[i] = position.Position{Chromosome: "1", Pos: int32(10 * (i + 1))}
	}
	base := newTestTable(t, []string{"d0", "d1", "d2"}, ps,
		"AAAAAA",
		"CCCCCC",
		"GGGTTT")
	b0 := interval.NewBuilder()
	b0.Add(interval.Coord{RefID: 0, Pos: 15}, interval.Donors{Donor1: 0, Donor2: 0})
	b0.Add(interval.Coord{RefID: 0, Pos: 35}, interval.Donors{Donor1: 1, Donor2: 2})
	bp0, err := BuildBreakpoints(base, b0)
	require.NoError(t, err)
	b1 := interval.NewBuilder()
	b1.Add(interval.Coord{RefID: 0, Pos: 0}, interval.Donors{Donor1: 2, Donor2: 2})
	bp1, err := BuildBreakpoints(base, b1)
	require.NoError(t, err)

	p, err := NewProjection(base, taxa.MustNew("p0", "p1"), []*interval.Breakpoints{bp0, bp1})
	require.NoError(t, err)
	expect.EQ(t, p.Kind(), Projection)
	expect.EQ(t, p.NumSites(), 6)
	var got []string
	for s := 0; s < p.NumSites(); s++ {
		got = append(got, p.GenotypeAsString(0, s))
	}
	expect.EQ(t, got, []string{"N", "A", "A", "Y", "Y", "Y"})
	for tx := 0; tx < p.NumTaxa(); tx++ {
		row := p.GenotypeForAllSites(tx, nil)
		for s := range row {
			expect.EQ(t, row[s], p.Genotype(tx, s))
			expect.EQ(t, p.GenotypeForAllTaxa(s, nil)[tx], row[s])
		}
	}
	expect.EQ(t, p.GenotypeForAllSites(1, nil), base.GenotypeForAllSites(2, nil))

	_, err = p.Depth(0, 0)
	expect.True(t, errors.Is(errors.NotSupported, err))
	expect.False(t, p.HasDepth())
	_, err = p.AllelePresenceForAllSites(0, Major)
	expect.True(t, errors.Is(errors.NotSupported, err))
	got1, err := p.Breakpoints(0)
	require.NoError(t, err)
	expect.EQ(t, got1.Len(), 2)
	_, err = base.Breakpoints(0)
	expect.True(t, errors.Is(errors.NotSupported, err))

	_, err = NewProjection(base, taxa.MustNew("p0"), []*interval.Breakpoints{bp0, bp1})
	expect.True(t, errors.Is(errors.Invalid, err))
	bad := interval.NewBreakpoints([]int32{0}, []interval.Donors{{Donor1: 3, Donor2: 3}})
	_, err = NewProjection(base, taxa.MustNew("p0"), []*interval.Breakpoints{bad})
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestProjectionBreakpointPastChromosomeEnd(t *testing.T) {
	ps := append(positionsOn("1", 3), positionsOn("2", 3)...)
	base := newTestTable(t, []string{"d0", "d1"}, ps,
		"AAAAAA",
		"CCCCCC")
	b := interval.NewBuilder()
	b.Add(interval.Coord{RefID: 0, Pos: 50}, interval.Donors{Donor1: 0, Donor2: 0})
	b.Add(interval.Coord{RefID: 0, Pos: 5000}, interval.Donors{Donor1: 1, Donor2: 1})
	bp, err := BuildBreakpoints(base, b)
	require.NoError(t, err)
	expect.EQ(t, bp.Len(), 2)
	p, err := NewProjection(base, taxa.MustNew("p"), []*interval.Breakpoints{bp})
	require.NoError(t, err)
	var got []string
	for s := 0; s < p.NumSites(); s++ {
		got = append(got, p.GenotypeAsString(0, s))
	}
	expect.EQ(t, got, []string{"A", "A", "A", "C", "C", "C"})

	// Past the end of the last chromosome there is no site to start at.
	b = interval.NewBuilder()
	b.Add(interval.Coord{RefID: 1, Pos: 5000}, interval.Donors{Donor1: 1, Donor2: 1})
	bp, err = BuildBreakpoints(base, b)
	require.NoError(t, err)
	expect.EQ(t, bp.Len(), 0)
}

func TestStats(t *testing.T) {
	tbl := newTestTable(t, []string{"t0", "t1", "t2", "t3"}, positionsOn("1", 3),
		"AAN",
		"RAN",
		"GCN",
		"GMA")
	expect.EQ(t, tbl.AlleleCounts(0), []allele.Count{{Allele: allele.G, N: 5}, {Allele: allele.A, N: 3}})
	expect.EQ(t, tbl.MajorAllele(0), allele.G)
	expect.EQ(t, tbl.MinorAllele(0), allele.A)
	expect.EQ(t, tbl.MinorAlleleFrequency(0), 3.0/8)
	expect.EQ(t, tbl.MajorAlleleFrequency(0), 5.0/8)
	expect.EQ(t, tbl.MinorAlleleCount(1), 3)
	expect.EQ(t, tbl.TotalAlleleCount(1), 8)
	expect.EQ(t, tbl.MajorAllele(1), allele.A)
	expect.EQ(t, tbl.MinorAllele(1), allele.C)
	expect.EQ(t, tbl.HeterozygousCount(1), 1)
	expect.EQ(t, tbl.MinorAllele(2), allele.Unknown)
	expect.EQ(t, tbl.MinorAlleleFrequency(2), 0.0)
	expect.EQ(t, tbl.TotalNonMissingForSite(2), 1)
	expect.EQ(t, tbl.TotalNonMissingForTaxon(0), 2)
	expect.EQ(t, tbl.HeterozygousCountForTaxon(1), 1)
	expect.EQ(t, tbl.TotalNonMissingForTaxon(3), 3)
	expect.EQ(t, tbl.HeterozygousCountForTaxon(3), 1)

	expect.EQ(t, tbl.AllelePresenceForAllTaxa(0, Major).Indices(), []int{1, 2, 3})
	expect.EQ(t, tbl.AllelePresenceForAllTaxa(0, Minor).Indices(), []int{0, 1})
	expect.EQ(t, tbl.AllelePresenceForAllTaxa(2, Minor).Cardinality(), 0)
	bits, err := tbl.AllelePresenceForAllSites(3, Major)
	require.NoError(t, err)
	expect.EQ(t, bits.Indices(), []int{0, 1, 2})
	bits, err = tbl.AllelePresenceForAllSites(3, Minor)
	require.NoError(t, err)
	expect.EQ(t, bits.Indices(), []int{1})

	// Tables feed computed masks directly.
	homo := mask.NewHomozygous(tbl, mask.DefaultOpts)
	expect.EQ(t, homo.MaskForSite(0).Indices(), []int{1})
	expect.EQ(t, homo.MaskForTaxon(3).Indices(), []int{1})
	mm := mask.NewMinorMajor(tbl, mask.DefaultOpts)
	for s := 0; s < tbl.NumSites(); s++ {
		expect.EQ(t, mm.MaskForSite(s).Cardinality(), 0)
	}
}

func TestStatsOnView(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	base := randomTable(t, r, 9, 150)
	f, err := NewFilter(base, translate.Translation{
		Taxa:  randomIndex(t, r, 9),
		Sites: randomIndex(t, r, 150),
	})
	require.NoError(t, err)
	for s := 0; s < f.NumSites(); s++ {
		var c allele.Counts
		c.Add(f.GenotypeForAllTaxa(s, nil))
		expect.EQ(t, f.AlleleCounts(s), c.Sorted(), "site %d", s)
	}
}

func TestHomozygousMaskOnTable(t *testing.T) {
	tbl := newTestTable(t, []string{"t0", "t1"}, positionsOn("1", 3), "CTA", "CTR")
	m := mask.NewHomozygous(tbl, mask.DefaultOpts)
	expect.False(t, m.Get(0, 2))
	expect.True(t, m.Get(1, 2))
}

func TestReadOnly(t *testing.T) {
	t1 := newTestTable(t, []string{"a"}, positionsOn("1", 1), "A")
	t2 := newTestTable(t, []string{"a"}, positionsOn("2", 1), "C")
	c, err := NewCombine(DefaultCombineOpts, t1, t2)
	require.NoError(t, err)
	for _, tbl := range []*Table{t1, c} {
		err := tbl.SetGenotype(0, 0, allele.UnknownGenotype)
		expect.True(t, errors.Is(errors.NotSupported, err))
	}
	expect.EQ(t, t1.Genotype(0, 0), allele.Pack(allele.A, allele.A))
	_, err = c.AllelePresenceForAllSites(0, Major)
	expect.True(t, errors.Is(errors.NotSupported, err))
	single, err := NewCombine(DefaultCombineOpts, t1)
	require.NoError(t, err)
	_, err = single.AllelePresenceForAllSites(0, Major)
	require.NoError(t, err)
}
