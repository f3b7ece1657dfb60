// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package translate

// Translation pairs the taxon and site translations of one view.
type Translation struct {
	Taxa  Index
	Sites Index
}

// NewIdentityTranslation returns the translation that keeps every taxon and
// site.
func NewIdentityTranslation(numTaxa, numSites int) Translation {
	return Translation{Taxa: NewIdentity(numTaxa), Sites: NewIdentity(numSites)}
}

// NumTaxa returns the number of taxa in the view.
func (t Translation) NumTaxa() int { return t.Taxa.n }

// NumSites returns the number of sites in the view.
func (t Translation) NumSites() int { return t.Sites.n }

// HasTranslations returns false iff both axes are the identity.
func (t Translation) HasTranslations() bool {
	return t.Taxa.HasTranslations() || t.Sites.HasTranslations()
}

// Taxon translates a view taxon index.
func (t Translation) Taxon(i int) (int, bool) { return t.Taxa.Translate(i) }

// Site translates a view site index.
func (t Translation) Site(i int) (int, bool) { return t.Sites.Translate(i) }

// Merge returns the translation of view stacked on base, axis by axis.
func Merge(base, view Translation) Translation {
	return Translation{
		Taxa:  Compose(base.Taxa, view.Taxa),
		Sites: Compose(base.Sites, view.Sites),
	}
}
