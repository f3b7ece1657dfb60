// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package allele_test

import (
	"testing"

	"github.com/grailbio/genotype/allele"
	"github.com/grailbio/testutil/expect"
)

func TestPackUnpack(t *testing.T) {
	g := allele.Pack(allele.A, allele.G)
	a1, a2 := allele.Unpack(g)
	expect.EQ(t, a1, allele.A)
	expect.EQ(t, a2, allele.G)
	expect.True(t, allele.IsHeterozygous(g))
	expect.False(t, allele.IsHeterozygous(allele.Pack(allele.T, allele.T)))
	expect.False(t, allele.IsHeterozygous(allele.UnknownGenotype))
	expect.True(t, allele.Contains(g, allele.G))
	expect.False(t, allele.Contains(g, allele.C))
}

func TestString(t *testing.T) {
	tests := []struct {
		g    byte
		want string
	}{
		{allele.Pack(allele.A, allele.A), "A"},
		{allele.Pack(allele.A, allele.G), "R"},
		{allele.Pack(allele.G, allele.A), "R"},
		{allele.Pack(allele.C, allele.T), "Y"},
		{allele.UnknownGenotype, "N"},
		{allele.Pack(allele.Insertion, allele.Insertion), "+"},
		{allele.Pack(allele.Gap, allele.Insertion), "0"},
		{allele.Pack(allele.A, allele.Gap), "A/-"},
	}
	for _, test := range tests {
		expect.EQ(t, allele.String(test.g), test.want, "genotype %x", test.g)
	}
	for _, c := range []byte("ACGTMRWSYK+-0N") {
		g, err := allele.Parse(c)
		expect.NoError(t, err)
		expect.EQ(t, allele.String(g), string(c))
	}
	_, err := allele.Parse('Z')
	expect.NotNil(t, err)
}

func TestUnpackGenotypes(t *testing.T) {
	src := []byte{allele.Pack(allele.A, allele.C), allele.UnknownGenotype}
	dst := make([]byte, 4)
	allele.UnpackGenotypes(dst, src)
	expect.EQ(t, dst, []byte{allele.A, allele.C, allele.Unknown, allele.Unknown})
	back := make([]byte, 2)
	allele.PackGenotypes(back, dst)
	expect.EQ(t, back, src)
}

func TestCounts(t *testing.T) {
	genos, err := allele.ParseString("AARGNN")
	expect.NoError(t, err)
	var c allele.Counts
	c.Add(genos)
	expect.EQ(t, c[allele.A], 5)
	expect.EQ(t, c[allele.G], 3)
	expect.EQ(t, c.Total(), 8)
	sorted := c.Sorted()
	expect.EQ(t, sorted, []allele.Count{{Allele: allele.A, N: 5}, {Allele: allele.G, N: 3}})

	notMissing, het := allele.CountKnown(genos)
	expect.EQ(t, notMissing, 4)
	expect.EQ(t, het, 1)
}
