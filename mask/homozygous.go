// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package mask

import "github.com/grailbio/genotype/allele"

// Homozygous masks every heterozygous call, i.e. every call whose two allele
// nibbles differ.
type Homozygous struct {
	*computed
}

// NewHomozygous creates a Homozygous mask over src.
func NewHomozygous(src GenotypeSource, opts Opts) *Homozygous {
	return &Homozygous{newComputed(src.NumTaxa(), src.NumSites(), opts, func(site int, scratch []byte) Bits {
		genos := src.GenotypeForAllTaxa(site, scratch)
		bits := NewBits(len(genos))
		for t, g := range genos {
			if allele.IsHeterozygous(g) {
				bits.Set(t)
			}
		}
		return bits
	})}
}
