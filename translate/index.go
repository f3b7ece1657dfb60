// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package translate

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/log"
)

// Kind identifies the representation of an Index.
type Kind uint8

const (
	// Identity keeps every base index in base order.
	Identity Kind = iota
	// Range keeps the contiguous base indices [start, start+n).
	Range
	// OrderedRedirect keeps an explicit, strictly increasing set of base
	// indices.  Reverse lookup is a binary search.
	OrderedRedirect
	// UnorderedRedirect keeps an explicit list of base indices in arbitrary
	// order, possibly with unmatched entries.  Reverse lookup is a linear scan.
	UnorderedRedirect
)

func (k Kind) String() string {
	switch k {
	case Identity:
		return "identity"
	case Range:
		return "range"
	case OrderedRedirect:
		return "ordered"
	case UnorderedRedirect:
		return "unordered"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// unmatched marks a redirect entry with no base counterpart.  It never
// escapes the package.
const unmatched = -1

// Index is an immutable view-index -> base-index mapping.  The zero value is
// an empty identity.
type Index struct {
	kind Kind
	// n is the number of view indices.
	n int
	// nBase is the number of base indices.
	nBase int
	// start is the first base index of a Range.
	start int
	// redirect[i] is the base index for view index i, or unmatched.  Only set
	// for the two redirect kinds.
	redirect []int32
}

// NewIdentity returns the identity translation over n indices.
func NewIdentity(n int) Index {
	return Index{kind: Identity, n: n, nBase: n}
}

// NewRange returns the translation keeping base indices [start, end) of
// nBase.  It collapses to Identity when the range covers everything.
func NewRange(nBase, start, end int) (Index, error) {
	if start < 0 || end > nBase || start > end {
		return Index{}, outOfRange("range [%d, %d) out of range [0, %d)", start, end, nBase)
	}
	if start == end {
		return Index{}, noneKept()
	}
	if start == 0 && end == nBase {
		return NewIdentity(nBase), nil
	}
	return Index{kind: Range, n: end - start, nBase: nBase, start: start}, nil
}

// classify builds the cheapest Index equivalent to redirect over nBase base
// indices.  redirect is owned by the result when a redirect kind is chosen.
func classify(nBase int, redirect []int32) Index {
	n := len(redirect)
	ordered := true
	contiguous := true
	for i, b := range redirect {
		if b == unmatched {
			ordered, contiguous = false, false
			break
		}
		if i > 0 {
			prev := redirect[i-1]
			if b <= prev {
				ordered, contiguous = false, false
				break
			}
			if b != prev+1 {
				contiguous = false
			}
		}
	}
	switch {
	case n > 0 && contiguous:
		start := int(redirect[0])
		if start == 0 && n == nBase {
			return NewIdentity(nBase)
		}
		return Index{kind: Range, n: n, nBase: nBase, start: start}
	case ordered:
		return Index{kind: OrderedRedirect, n: n, nBase: nBase, redirect: redirect}
	}
	return Index{kind: UnorderedRedirect, n: n, nBase: nBase, redirect: redirect}
}

// Kind returns the representation of x.
func (x Index) Kind() Kind { return x.kind }

// NumIndices returns the number of view indices.
func (x Index) NumIndices() int { return x.n }

// NumBaseIndices returns the number of base indices x maps into.
func (x Index) NumBaseIndices() int { return x.nBase }

// HasTranslations returns false iff x is the identity, in which case callers
// may skip translation entirely.
func (x Index) HasTranslations() bool { return x.kind != Identity }

// Translate returns the base index for view index i.  ok is false when i has
// no base counterpart, which only happens for UnorderedRedirect.  It panics
// if i is outside [0, NumIndices()).
func (x Index) Translate(i int) (base int, ok bool) {
	if uint(i) >= uint(x.n) {
		log.Panicf("translate: view index %d out of range [0, %d)", i, x.n)
	}
	switch x.kind {
	case Identity:
		return i, true
	case Range:
		return i + x.start, true
	}
	b := x.redirect[i]
	return int(b), b != unmatched
}

// ReverseTranslate returns the view index that maps to base index b.  ok is
// false when no view index maps to b.
func (x Index) ReverseTranslate(b int) (view int, ok bool) {
	if b < 0 || b >= x.nBase {
		return 0, false
	}
	switch x.kind {
	case Identity:
		return b, true
	case Range:
		if b < x.start || b >= x.start+x.n {
			return 0, false
		}
		return b - x.start, true
	case OrderedRedirect:
		r := x.redirect
		i := sort.Search(len(r), func(i int) bool { return int(r[i]) >= b })
		if i < len(r) && int(r[i]) == b {
			return i, true
		}
		return 0, false
	}
	for i, v := range x.redirect {
		if int(v) == b {
			return i, true
		}
	}
	return 0, false
}

// AllMatched returns true iff every view index has a base counterpart.
func (x Index) AllMatched() bool {
	if x.kind != UnorderedRedirect {
		return true
	}
	for _, b := range x.redirect {
		if b == unmatched {
			return false
		}
	}
	return true
}

// String returns a short description of x, for logging.
func (x Index) String() string {
	return fmt.Sprintf("%v[%d->%d]", x.kind, x.n, x.nBase)
}

// Compose returns the translation of a view built on top of another view:
// view maps the outer index space into base's view space, and base maps that
// into the underlying table.  The result translates outer indices directly
// to the underlying table, and neither input is modified.
func Compose(base, view Index) Index {
	if view.nBase != base.n {
		log.Panicf("translate.Compose: view maps into %d indices, base has %d", view.nBase, base.n)
	}
	switch {
	case view.kind == Identity:
		return base
	case base.kind == Identity:
		return view
	case base.kind == Range && view.kind == Range:
		return Index{kind: Range, n: view.n, nBase: base.nBase, start: base.start + view.start}
	}
	redirect := make([]int32, view.n)
	for i := range redirect {
		vb, ok := view.Translate(i)
		if !ok {
			redirect[i] = unmatched
			continue
		}
		if bb, ok := base.Translate(vb); ok {
			redirect[i] = int32(bb)
		} else {
			redirect[i] = unmatched
		}
	}
	return classify(base.nBase, redirect)
}
