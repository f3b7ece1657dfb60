// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
Package store persists genotype tables taxon by taxon, for data sets that

	are too large to accumulate in memory before writing.

	A store with path prefix P consists of

	  P.positions.rio   one record per site: chromosome, position, name
	  P.genotypes.rio   one record per taxon: name, checksum, calls
	  P.sites.rio       per-site allele counts, written by Finish
	  P.taxa.rio        per-taxon call summaries, written by Finish
	  P.sites.tsv.gz    the per-site summaries as gzipped TSV (optional)

	All .rio files are recordio files with zstd-compressed blocks.  Paths may
	be any grailbio/base/file path, including s3 paths once the s3
	implementation is registered.
*/
package store
