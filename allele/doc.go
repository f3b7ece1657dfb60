// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package allele defines the diploid genotype byte encoding shared by the
// genotype-matrix packages.
//
// Each genotype call is one byte holding two 4-bit allele codes: the high
// nibble is the first allele and the low nibble the second.  Allele codes 0-5
// are A, C, G, T, insertion ('+') and gap ('-'); code 15 means the allele is
// unknown, so 0xff is the fully-unknown genotype.
//
// A column of genotype bytes is therefore a packed 4-bit sequence of length
// 2*len(column), and the unpack/count helpers here follow the .bam seq[]
// helpers in bio/biosimd.
package allele
