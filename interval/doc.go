// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
Package interval implements the per-taxon breakpoint maps used by projected

	genotype tables.  A projected taxon is a mosaic of donor taxa from a
	high-density base table: each breakpoint starts a run of sites whose
	genotypes are copied from a pair of donors, and the run extends to the next
	breakpoint.
	Lookups are optimized for the sequential-site access pattern: each map
	remembers the last interval it returned and searches forward from it.
*/
package interval
