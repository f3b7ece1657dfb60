// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package allele

import "fmt"

// Allele codes.
const (
	A         byte = 0
	C         byte = 1
	G         byte = 2
	T         byte = 3
	Insertion byte = 4
	Gap       byte = 5
	Unknown   byte = 0xf
)

// NumAlleles is the number of real (non-Unknown) allele codes.
const NumAlleles = 6

// UnknownGenotype is the genotype byte with both alleles unknown.
const UnknownGenotype byte = 0xff

// Pack combines two allele codes into a genotype byte.
func Pack(a1, a2 byte) byte {
	return (a1 << 4) | (a2 & 0xf)
}

// Unpack splits a genotype byte into its two allele codes.
func Unpack(g byte) (a1, a2 byte) {
	return g >> 4, g & 0xf
}

// IsHeterozygous returns true iff the two allele nibbles of g differ.  A
// half-known call such as A/N counts as heterozygous, matching the nibble
// comparison.
func IsHeterozygous(g byte) bool {
	return g>>4 != g&0xf
}

// IsUnknown returns true iff g is the fully-unknown genotype.
func IsUnknown(g byte) bool {
	return g == UnknownGenotype
}

// Contains returns true iff one of g's alleles is a.
func Contains(g, a byte) bool {
	return g>>4 == a || g&0xf == a
}

var alleleChars = [16]byte{'A', 'C', 'G', 'T', '+', '-', '?', '?', '?', '?', '?', '?', '?', '?', '?', 'N'}

// AlleleString returns the single-character name of an allele code.
func AlleleString(a byte) string {
	return string(alleleChars[a&0xf])
}

// iupac maps unordered nucleotide pairs to IUPAC ambiguity codes.  Entries
// are indexed by [min(a1,a2)][max(a1,a2)] over A,C,G,T.
var iupac = [4][4]byte{
	{'A', 'M', 'R', 'W'},
	{0, 'C', 'S', 'Y'},
	{0, 0, 'G', 'K'},
	{0, 0, 0, 'T'},
}

// String returns the display form of a genotype: an IUPAC code when both
// alleles are nucleotides, "N" for the unknown genotype, "+" / "-" / "0" for
// indel homozygotes and heterozygotes, and "a1/a2" otherwise.
func String(g byte) string {
	a1, a2 := Unpack(g)
	if a1 > a2 {
		a1, a2 = a2, a1
	}
	switch {
	case g == UnknownGenotype:
		return "N"
	case a2 <= T:
		return string(iupac[a1][a2])
	case a1 == Insertion && a2 == Insertion:
		return "+"
	case a1 == Gap && a2 == Gap:
		return "-"
	case a1 == Insertion && a2 == Gap:
		return "0"
	}
	f1, f2 := Unpack(g)
	return fmt.Sprintf("%s/%s", AlleleString(f1), AlleleString(f2))
}

var fromIUPAC = map[byte]byte{
	'A': Pack(A, A), 'C': Pack(C, C), 'G': Pack(G, G), 'T': Pack(T, T),
	'M': Pack(A, C), 'R': Pack(A, G), 'W': Pack(A, T),
	'S': Pack(C, G), 'Y': Pack(C, T), 'K': Pack(G, T),
	'+': Pack(Insertion, Insertion), '-': Pack(Gap, Gap), '0': Pack(Insertion, Gap),
	'N': UnknownGenotype,
}

// Parse converts a single-character IUPAC genotype (as produced by String)
// into a genotype byte.
func Parse(c byte) (byte, error) {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	g, ok := fromIUPAC[c]
	if !ok {
		return UnknownGenotype, fmt.Errorf("allele.Parse: unrecognized genotype character %q", c)
	}
	return g, nil
}

// ParseString converts a string of IUPAC genotype characters into genotype
// bytes.  It is mainly useful for building small tables in tests and tools.
func ParseString(s string) ([]byte, error) {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		g, err := Parse(s[i])
		if err != nil {
			return nil, err
		}
		out[i] = g
	}
	return out, nil
}
