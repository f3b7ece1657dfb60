// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
bio-genotable inspects and transforms genotype stores.

	bio-genotable summary [-sites] prefix
	  Prints the dimensions and chromosomes of a store, and optionally its
	  per-site summary as TSV.

	bio-genotable filter [flags] srcprefix dstprefix
	  Filters a store by taxa and site criteria and writes the result as a new
	  store.

	bio-genotable combine [-join=none|union|intersect] dstprefix srcprefix...
	  Concatenates the sites of several stores into a new store.

	Prefixes may be local paths or s3://bucket/key paths.
*/
package main
