// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
Package genotable implements genotype tables: a taxa x sites matrix of

	genotype calls labeled by a taxa list and a position list, plus lazily
	computed allele and taxon statistics.

	A Table is one of four kinds.  A Base table owns a call table.  Filter,
	Combine and Projection tables are views: they present one or more other
	tables through index translations, without copying calls.  Filtering a
	Filter folds the two translations together, so view chains stay one level
	deep.

	Tables are immutable and safe for concurrent use.  They are created by New,
	the view constructors, FilterBuilder, Builder and DiskBuilder.
*/
package genotable
