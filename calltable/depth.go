// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package calltable

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/genotype/allele"
)

// Depth holds read depth per allele code for one call.
type Depth [allele.NumAlleles]uint16

// Total returns the summed depth.
func (d Depth) Total() int {
	n := 0
	for _, v := range d {
		n += int(v)
	}
	return n
}

// DepthTable is a read-only taxa x sites matrix of per-allele depths.
type DepthTable interface {
	NumTaxa() int
	NumSites() int
	Depth(taxon, site int) Depth
}

// DenseDepth is a DepthTable held in memory, taxon-major.
type DenseDepth struct {
	numTaxa, numSites int
	data              []Depth
}

// NewDenseDepth wraps data, laid out like NewDense's.
func NewDenseDepth(numTaxa, numSites int, data []Depth) (*DenseDepth, error) {
	if len(data) != numTaxa*numSites {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("calltable: %d depths for %d taxa x %d sites", len(data), numTaxa, numSites))
	}
	return &DenseDepth{numTaxa: numTaxa, numSites: numSites, data: data}, nil
}

// NumTaxa implements DepthTable.
func (d *DenseDepth) NumTaxa() int { return d.numTaxa }

// NumSites implements DepthTable.
func (d *DenseDepth) NumSites() int { return d.numSites }

// Depth implements DepthTable.
func (d *DenseDepth) Depth(taxon, site int) Depth {
	return d.data[taxon*d.numSites+site]
}
