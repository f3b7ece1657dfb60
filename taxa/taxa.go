// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package taxa provides the immutable, indexable list of taxon (sample)
// names that labels the rows of a genotype table.
package taxa

import (
	"fmt"

	"github.com/antzucaro/matchr"
	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/errors"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/genotype/translate"
)

// List is an immutable list of distinct taxon names.
type List struct {
	names []string
	index map[string]int
	// fingerprint is a hash of the names in order; equal lists have equal
	// fingerprints.
	fingerprint uint64
}

// New creates a List.  It fails if a name is empty or repeated.
func New(names []string) (*List, error) {
	l := &List{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	copy(l.names, names)
	var h uint64
	for i, name := range l.names {
		if name == "" {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("taxa: empty name at index %d", i))
		}
		if j, ok := l.index[name]; ok {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("taxa: duplicate name %q at indices %d and %d", name, j, i))
		}
		l.index[name] = i
		h = farm.Hash64WithSeed(gunsafe.StringToBytes(name), h)
	}
	l.fingerprint = h
	return l, nil
}

// MustNew is New, but panics on error.
func MustNew(names ...string) *List {
	l, err := New(names)
	if err != nil {
		panic(err)
	}
	return l
}

// Len returns the number of taxa.
func (l *List) Len() int { return len(l.names) }

// Name returns the name of taxon i.
func (l *List) Name(i int) string { return l.names[i] }

// Names returns a copy of all names in order.
func (l *List) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Index returns the index of the named taxon.
func (l *List) Index(name string) (int, bool) {
	i, ok := l.index[name]
	return i, ok
}

// Fingerprint returns an order-sensitive hash of the names.
func (l *List) Fingerprint() uint64 { return l.fingerprint }

// Equal returns true iff l and o list the same names in the same order.
func (l *List) Equal(o *List) bool {
	if l == o {
		return true
	}
	if len(l.names) != len(o.names) || l.fingerprint != o.fingerprint {
		return false
	}
	for i, name := range l.names {
		if o.names[i] != name {
			return false
		}
	}
	return true
}

// PlaceholderName is the name given to a view taxon with no base taxon.
func PlaceholderName(viewIndex int) string {
	return fmt.Sprintf("unmatched_%d", viewIndex)
}

// Translate returns the list seen through idx.  Unmatched view taxa get
// PlaceholderName names.  Translating a list may repeat a base taxon, in
// which case repeats are suffixed with ":<view index>" to keep names
// distinct.
func (l *List) Translate(idx translate.Index) *List {
	if !idx.HasTranslations() {
		return l
	}
	names := make([]string, idx.NumIndices())
	seen := make(map[string]bool, len(names))
	for i := range names {
		b, ok := idx.Translate(i)
		name := PlaceholderName(i)
		if ok {
			name = l.names[b]
		}
		if seen[name] {
			name = fmt.Sprintf("%s:%d", name, i)
		}
		seen[name] = true
		names[i] = name
	}
	out, err := New(names)
	if err != nil {
		panic(err)
	}
	return out
}

// Closest returns the name in l with the smallest edit distance to name.  It
// is used to produce hints for misspelled names; it returns "" for an empty
// list.
func (l *List) Closest(name string) string {
	best, bestDist := "", -1
	for _, n := range l.names {
		d := matchr.Levenshtein(name, n)
		if bestDist < 0 || d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}

// Union returns the names appearing in any of lists, in first-appearance
// order.
func Union(lists ...*List) *List {
	var names []string
	seen := map[string]bool{}
	for _, l := range lists {
		for _, name := range l.names {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	out, _ := New(names)
	return out
}

// Intersect returns the names appearing in every one of lists, in the order
// of the first list.
func Intersect(lists ...*List) *List {
	if len(lists) == 0 {
		out, _ := New(nil)
		return out
	}
	var names []string
	for _, name := range lists[0].names {
		inAll := true
		for _, l := range lists[1:] {
			if _, ok := l.index[name]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			names = append(names, name)
		}
	}
	out, _ := New(names)
	return out
}

// IndexIn returns the translation that presents base through the order of
// l: view taxon i is base.Index(l.Name(i)), or unmatched when base has no
// such taxon.  It fails if l is empty.
func (l *List) IndexIn(base *List) (translate.Index, error) {
	b := translate.NewUnorderedBuilder(base.Len())
	for _, name := range l.names {
		if i, ok := base.index[name]; ok {
			b.Add(i)
		} else {
			b.AddUnmatched()
		}
	}
	return b.Build()
}
