// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package calltable defines the storage contract for a taxa x sites matrix of
// genotype bytes, and a dense in-memory implementation of it.
package calltable

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/genotype/allele"
)

// Table is a read-only taxa x sites matrix of genotype bytes (see package
// allele for the encoding).  Implementations may be backed by storage where
// each call is comparatively expensive; callers that scan should prefer the
// row and column methods.
//
// GenotypeForAllTaxa and GenotypeForAllSites append into dst[:0] when it has
// enough capacity, and allocate otherwise.
type Table interface {
	NumTaxa() int
	NumSites() int
	Genotype(taxon, site int) byte
	GenotypeForAllTaxa(site int, dst []byte) []byte
	GenotypeForAllSites(taxon int, dst []byte) []byte
}

// Dense is a Table holding every call in memory, taxon-major.
type Dense struct {
	numTaxa, numSites int
	data              []byte
}

// NewDense wraps data, which must hold numTaxa*numSites calls with taxon t's
// row at data[t*numSites:(t+1)*numSites].  The Dense takes ownership of data.
func NewDense(numTaxa, numSites int, data []byte) (*Dense, error) {
	if numTaxa < 0 || numSites < 0 || len(data) != numTaxa*numSites {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("calltable: %d calls for %d taxa x %d sites", len(data), numTaxa, numSites))
	}
	return &Dense{numTaxa: numTaxa, numSites: numSites, data: data}, nil
}

// NewDenseUnknown returns a Dense with every call unknown.
func NewDenseUnknown(numTaxa, numSites int) *Dense {
	data := make([]byte, numTaxa*numSites)
	for i := range data {
		data[i] = allele.UnknownGenotype
	}
	return &Dense{numTaxa: numTaxa, numSites: numSites, data: data}
}

// NumTaxa implements Table.
func (d *Dense) NumTaxa() int { return d.numTaxa }

// NumSites implements Table.
func (d *Dense) NumSites() int { return d.numSites }

func (d *Dense) check(taxon, site int) {
	if uint(taxon) >= uint(d.numTaxa) || uint(site) >= uint(d.numSites) {
		log.Panicf("calltable: (taxon %d, site %d) out of range [0, %d) x [0, %d)", taxon, site, d.numTaxa, d.numSites)
	}
}

func (d *Dense) checkTaxon(taxon int) {
	if uint(taxon) >= uint(d.numTaxa) {
		log.Panicf("calltable: taxon %d out of range [0, %d)", taxon, d.numTaxa)
	}
}

func (d *Dense) checkSite(site int) {
	if uint(site) >= uint(d.numSites) {
		log.Panicf("calltable: site %d out of range [0, %d)", site, d.numSites)
	}
}

// Genotype implements Table.
func (d *Dense) Genotype(taxon, site int) byte {
	d.check(taxon, site)
	return d.data[taxon*d.numSites+site]
}

// GenotypeForAllTaxa implements Table.
func (d *Dense) GenotypeForAllTaxa(site int, dst []byte) []byte {
	d.checkSite(site)
	dst = Resize(dst, d.numTaxa)
	for t := range dst {
		dst[t] = d.data[t*d.numSites+site]
	}
	return dst
}

// GenotypeForAllSites implements Table.
func (d *Dense) GenotypeForAllSites(taxon int, dst []byte) []byte {
	d.checkTaxon(taxon)
	dst = Resize(dst, d.numSites)
	copy(dst, d.data[taxon*d.numSites:(taxon+1)*d.numSites])
	return dst
}

// Row returns taxon's calls without copying.  The caller must not modify
// the result.
func (d *Dense) Row(taxon int) []byte {
	return d.data[taxon*d.numSites : (taxon+1)*d.numSites]
}

// Resize returns dst resized to n bytes, reusing its storage when possible.
func Resize(dst []byte, n int) []byte {
	if cap(dst) >= n {
		return dst[:n]
	}
	return make([]byte, n)
}
