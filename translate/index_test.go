// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package translate

import (
	"math/rand"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, nBase int, keep ...int) Index {
	b := NewBuilder(nBase)
	for _, i := range keep {
		b.Keep(i)
	}
	x, err := b.Build()
	require.NoError(t, err)
	return x
}

func TestOrderedRedirect(t *testing.T) {
	x := build(t, 5, 4, 1, 3, 3)
	expect.EQ(t, x.Kind(), OrderedRedirect)
	expect.EQ(t, x.NumIndices(), 3)
	expect.EQ(t, x.NumBaseIndices(), 5)
	for i, want := range []int{1, 3, 4} {
		got, ok := x.Translate(i)
		expect.True(t, ok)
		expect.EQ(t, got, want)
	}
	v, ok := x.ReverseTranslate(3)
	expect.True(t, ok)
	expect.EQ(t, v, 1)
	_, ok = x.ReverseTranslate(2)
	expect.False(t, ok)
	_, ok = x.ReverseTranslate(7)
	expect.False(t, ok)
}

func TestCollapse(t *testing.T) {
	x := build(t, 5, 0, 1, 2, 3, 4)
	expect.EQ(t, x.Kind(), Identity)
	expect.False(t, x.HasTranslations())

	x = build(t, 5, 2, 3)
	expect.EQ(t, x.Kind(), Range)
	got, _ := x.Translate(1)
	expect.EQ(t, got, 3)
	v, ok := x.ReverseTranslate(2)
	expect.True(t, ok)
	expect.EQ(t, v, 0)

	r, err := NewRange(10, 0, 10)
	require.NoError(t, err)
	expect.EQ(t, r.Kind(), Identity)

	ub := NewUnorderedBuilder(4)
	for i := 0; i < 4; i++ {
		ub.Add(i)
	}
	x, err = ub.Build()
	require.NoError(t, err)
	expect.EQ(t, x.Kind(), Identity)
}

func TestBuilderErrors(t *testing.T) {
	_, err := NewBuilder(3).Build()
	expect.True(t, errors.Is(errors.Precondition, err))

	b := NewBuilder(3)
	b.Keep(3)
	_, err = b.Build()
	expect.True(t, errors.Is(errors.Invalid, err))

	b = NewBuilder(3)
	b.KeepRange(2, 5)
	_, err = b.Build()
	expect.True(t, errors.Is(errors.Invalid, err))

	_, err = NewUnorderedBuilder(3).Build()
	expect.True(t, errors.Is(errors.Precondition, err))

	_, err = NewRange(5, 3, 3)
	expect.True(t, errors.Is(errors.Precondition, err))
}

func TestUnordered(t *testing.T) {
	ub := NewUnorderedBuilder(4)
	ub.Add(3)
	ub.AddUnmatched()
	ub.Add(0)
	x, err := ub.Build()
	require.NoError(t, err)
	expect.EQ(t, x.Kind(), UnorderedRedirect)
	expect.False(t, x.AllMatched())
	b, ok := x.Translate(0)
	expect.True(t, ok)
	expect.EQ(t, b, 3)
	_, ok = x.Translate(1)
	expect.False(t, ok)
	v, ok := x.ReverseTranslate(0)
	expect.True(t, ok)
	expect.EQ(t, v, 2)
	_, ok = x.ReverseTranslate(1)
	expect.False(t, ok)
}

func TestTranslatePanics(t *testing.T) {
	x := NewIdentity(3)
	require.Panics(t, func() { x.Translate(3) })
	require.Panics(t, func() { x.Translate(-1) })
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for iter := 0; iter < 50; iter++ {
		nBase := 1 + r.Intn(200)
		b := NewBuilder(nBase)
		ub := NewUnorderedBuilder(nBase)
		for i := 0; i < nBase; i++ {
			if r.Intn(3) == 0 {
				b.Keep(i)
			}
			switch r.Intn(4) {
			case 0:
				ub.AddUnmatched()
			case 1:
				ub.Add(r.Intn(nBase))
			}
		}
		b.Keep(r.Intn(nBase))
		ub.Add(r.Intn(nBase))
		for _, build := range []func() (Index, error){b.Build, ub.Build} {
			x, err := build()
			require.NoError(t, err)
			for i := 0; i < x.NumIndices(); i++ {
				base, ok := x.Translate(i)
				if !ok {
					continue
				}
				v, ok := x.ReverseTranslate(base)
				require.True(t, ok)
				if x.Kind() == UnorderedRedirect {
					// Duplicates resolve to the first view index.
					first, _ := x.Translate(v)
					require.Equal(t, base, first)
				} else {
					require.Equal(t, i, v)
				}
			}
		}
	}
}

// reference translates i through a chain of indexes, innermost first.
func reference(chain []Index, i int) (int, bool) {
	for k := len(chain) - 1; k >= 0; k-- {
		var ok bool
		if i, ok = chain[k].Translate(i); !ok {
			return 0, false
		}
	}
	return i, true
}

func TestComposeChain(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for iter := 0; iter < 30; iter++ {
		n := 50 + r.Intn(50)
		var chain []Index // chain[0] is the innermost view
		composed := NewIdentity(n)
		for depth := 0; depth < 5 && n > 1; depth++ {
			var x Index
			var err error
			switch r.Intn(3) {
			case 0:
				start := r.Intn(n / 2)
				x, err = NewRange(n, start, start+1+r.Intn(n-start-1))
			case 1:
				b := NewBuilder(n)
				for i := 0; i < n; i++ {
					if r.Intn(2) == 0 {
						b.Keep(i)
					}
				}
				b.Keep(0)
				x, err = b.Build()
			default:
				b := NewUnorderedBuilder(n)
				for i := 0; i < n; i++ {
					if r.Intn(5) == 0 {
						b.AddUnmatched()
					} else {
						b.Add(r.Intn(n))
					}
				}
				x, err = b.Build()
			}
			require.NoError(t, err)
			chain = append(chain, x)
			composed = Compose(composed, x)
			n = x.NumIndices()
		}
		for i := 0; i < composed.NumIndices(); i++ {
			want, wantOK := reference(chain, i)
			got, gotOK := composed.Translate(i)
			require.Equal(t, wantOK, gotOK)
			if wantOK {
				require.Equal(t, want, got)
			}
		}
	}
}

func TestBuilderOver(t *testing.T) {
	base := build(t, 10, 1, 3, 5, 7, 9)
	b := NewBuilderOver(base)
	b.Keep(1)
	b.Keep(4)
	x, err := b.Build()
	require.NoError(t, err)
	expect.EQ(t, x.NumBaseIndices(), 10)
	got, _ := x.Translate(0)
	expect.EQ(t, got, 3)
	got, _ = x.Translate(1)
	expect.EQ(t, got, 9)

	b = NewBuilderOver(base)
	b.KeepRange(0, 5)
	x, err = b.Build()
	require.NoError(t, err)
	expect.EQ(t, x, base)
}

func TestMerge(t *testing.T) {
	base := Translation{Taxa: build(t, 4, 1, 2, 3), Sites: NewIdentity(5)}
	view := Translation{Taxa: build(t, 3, 2), Sites: build(t, 5, 1, 3, 4)}
	m := Merge(base, view)
	expect.EQ(t, m.NumTaxa(), 1)
	expect.EQ(t, m.NumSites(), 3)
	taxon, _ := m.Taxon(0)
	expect.EQ(t, taxon, 3)
	site, _ := m.Site(1)
	expect.EQ(t, site, 3)
	expect.True(t, m.HasTranslations())
	expect.False(t, NewIdentityTranslation(2, 2).HasTranslations())
}
