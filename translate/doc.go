// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package translate maps the taxon and site indices seen through a genotype
// table view onto the indices of the table underneath it.
//
// An Index is an immutable value of one of four kinds: Identity, Range,
// OrderedRedirect and UnorderedRedirect.  Stacking a view on a view composes
// the two Indexes into one (Compose), and the result is collapsed back to the
// cheapest kind that represents it, so a chain of views never costs more than
// one redirect lookup per axis.
//
// A view index with no base counterpart (a synthetic taxon introduced by a
// union join, for example) translates to ok == false; there is no sentinel
// integer in the API.
package translate
