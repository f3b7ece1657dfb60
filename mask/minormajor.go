// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package mask

import "github.com/grailbio/genotype/allele"

// AlleleSource is a GenotypeSource that also knows each site's major and
// minor allele.  The minor allele is allele.Unknown at monomorphic sites.
type AlleleSource interface {
	GenotypeSource
	MajorAllele(site int) byte
	MinorAllele(site int) byte
}

// MinorMajor masks every call carrying a known allele that is neither the
// site's major nor its minor allele.
type MinorMajor struct {
	*computed
}

// NewMinorMajor creates a MinorMajor mask over src.
func NewMinorMajor(src AlleleSource, opts Opts) *MinorMajor {
	return &MinorMajor{newComputed(src.NumTaxa(), src.NumSites(), opts, func(site int, scratch []byte) Bits {
		major, minor := src.MajorAllele(site), src.MinorAllele(site)
		rare := func(a byte) bool {
			return a != allele.Unknown && a != major && a != minor
		}
		genos := src.GenotypeForAllTaxa(site, scratch)
		bits := NewBits(len(genos))
		for t, g := range genos {
			a1, a2 := allele.Unpack(g)
			if rare(a1) || rare(a2) {
				bits.Set(t)
			}
		}
		return bits
	})}
}
