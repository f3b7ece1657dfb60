// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package store

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/golang/snappy"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/grailbio/genotype/allele"
	"github.com/grailbio/genotype/position"
	"github.com/minio/highwayhash"
)

func init() {
	recordiozstd.Init()
}

const (
	formatVersion = "genotype-store-1"
	versionHeader = "version"
	trailerMagic  = int64(0x67656e6f)
)

// Paths returns the file paths of the store with the given prefix: the
// positions, genotypes, site summary, taxon summary and site TSV files.
func Paths(prefix string) (positions, genotypes, sites, taxa, sitesTSV string) {
	return prefix + ".positions.rio",
		prefix + ".genotypes.rio",
		prefix + ".sites.rio",
		prefix + ".taxa.rio",
		prefix + ".sites.tsv.gz"
}

// SiteSummary holds the statistics of one site over every taxon.
type SiteSummary struct {
	Counts     allele.Counts
	NotMissing int
	Het        int
}

// MinorAlleleFrequency returns the second most frequent allele's share of
// known alleles.
func (s SiteSummary) MinorAlleleFrequency() float64 {
	sorted := s.Counts.Sorted()
	if len(sorted) < 2 {
		return 0
	}
	return float64(sorted[1].N) / float64(s.Counts.Total())
}

// TaxonSummary holds the statistics of one taxon over every site.
type TaxonSummary struct {
	NotMissing int
	Het        int
}

type row struct {
	name  string
	genos []byte
}

const (
	rowRaw    = 0
	rowSnappy = 1
)

var zeroKey [32]byte

func checksum(genos []byte) [highwayhash.Size]byte {
	return highwayhash.Sum(genos, zeroKey[:])
}

// marshalRow encodes a *row as
// uvarint(len(name)) name checksum[32] encoding payload.
func marshalRow(compress bool) func(scratch []byte, v interface{}) ([]byte, error) {
	return func(scratch []byte, v interface{}) ([]byte, error) {
		r := v.(*row)
		buf := bytes.NewBuffer(scratch[:0])
		var tmp [binary.MaxVarintLen64]byte
		buf.Write(tmp[:binary.PutUvarint(tmp[:], uint64(len(r.name)))])
		buf.WriteString(r.name)
		sum := checksum(r.genos)
		buf.Write(sum[:])
		if compress {
			buf.WriteByte(rowSnappy)
			buf.Write(snappy.Encode(nil, r.genos))
		} else {
			buf.WriteByte(rowRaw)
			buf.Write(r.genos)
		}
		return buf.Bytes(), nil
	}
}

func unmarshalRow(in []byte) (interface{}, error) {
	n, k := binary.Uvarint(in)
	if k <= 0 || uint64(len(in)-k) < n+highwayhash.Size+1 {
		return nil, fmt.Errorf("store: truncated row record (%d bytes)", len(in))
	}
	in = in[k:]
	r := &row{name: string(in[:n])}
	in = in[n:]
	var want [highwayhash.Size]byte
	copy(want[:], in)
	in = in[highwayhash.Size:]
	switch in[0] {
	case rowRaw:
		r.genos = append([]byte(nil), in[1:]...)
	case rowSnappy:
		var err error
		if r.genos, err = snappy.Decode(nil, in[1:]); err != nil {
			return nil, fmt.Errorf("store: row %s: %v", r.name, err)
		}
	default:
		return nil, fmt.Errorf("store: row %s: unknown encoding %d", r.name, in[0])
	}
	if checksum(r.genos) != want {
		return nil, fmt.Errorf("store: row %s: checksum mismatch", r.name)
	}
	return r, nil
}

func marshalPosition(scratch []byte, v interface{}) ([]byte, error) {
	p := v.(*position.Position)
	buf := bytes.NewBuffer(scratch[:0])
	var tmp [binary.MaxVarintLen64]byte
	for _, s := range []string{p.Chromosome, p.Name} {
		buf.Write(tmp[:binary.PutUvarint(tmp[:], uint64(len(s)))])
		buf.WriteString(s)
	}
	buf.Write(tmp[:binary.PutVarint(tmp[:], int64(p.Pos))])
	return buf.Bytes(), nil
}

func unmarshalPosition(in []byte) (interface{}, error) {
	p := &position.Position{}
	for _, dst := range []*string{&p.Chromosome, &p.Name} {
		n, k := binary.Uvarint(in)
		if k <= 0 || uint64(len(in)-k) < n {
			return nil, fmt.Errorf("store: truncated position record")
		}
		*dst = string(in[k : k+int(n)])
		in = in[k+int(n):]
	}
	pos, k := binary.Varint(in)
	if k <= 0 {
		return nil, fmt.Errorf("store: truncated position record")
	}
	p.Pos = int32(pos)
	return p, nil
}

func marshalSiteSummary(scratch []byte, v interface{}) ([]byte, error) {
	s := v.(*SiteSummary)
	t := scratch
	if cap(t) < 4*(allele.NumAlleles+2) {
		t = make([]byte, 4*(allele.NumAlleles+2))
	}
	t = t[:4*(allele.NumAlleles+2)]
	for i, n := range s.Counts {
		binary.LittleEndian.PutUint32(t[4*i:], uint32(n))
	}
	binary.LittleEndian.PutUint32(t[4*allele.NumAlleles:], uint32(s.NotMissing))
	binary.LittleEndian.PutUint32(t[4*allele.NumAlleles+4:], uint32(s.Het))
	return t, nil
}

func unmarshalSiteSummary(in []byte) (interface{}, error) {
	if len(in) != 4*(allele.NumAlleles+2) {
		return nil, fmt.Errorf("store: site summary record has %d bytes", len(in))
	}
	s := &SiteSummary{}
	for i := range s.Counts {
		s.Counts[i] = int(binary.LittleEndian.Uint32(in[4*i:]))
	}
	s.NotMissing = int(binary.LittleEndian.Uint32(in[4*allele.NumAlleles:]))
	s.Het = int(binary.LittleEndian.Uint32(in[4*allele.NumAlleles+4:]))
	return s, nil
}

func marshalTaxonSummary(scratch []byte, v interface{}) ([]byte, error) {
	s := v.(*TaxonSummary)
	t := scratch
	if cap(t) < 8 {
		t = make([]byte, 8)
	}
	t = t[:8]
	binary.LittleEndian.PutUint32(t[:4], uint32(s.NotMissing))
	binary.LittleEndian.PutUint32(t[4:8], uint32(s.Het))
	return t, nil
}

func unmarshalTaxonSummary(in []byte) (interface{}, error) {
	if len(in) != 8 {
		return nil, fmt.Errorf("store: taxon summary record has %d bytes", len(in))
	}
	return &TaxonSummary{
		NotMissing: int(binary.LittleEndian.Uint32(in[:4])),
		Het:        int(binary.LittleEndian.Uint32(in[4:8])),
	}, nil
}

// countTrailer encodes the number of records of a file, so readers can
// preallocate and check for truncation.
func countTrailer(n int) []byte {
	var buffer bytes.Buffer
	if err := binary.Write(&buffer, binary.LittleEndian, trailerMagic); err != nil {
		panic("couldn't write trailer magic")
	}
	if err := binary.Write(&buffer, binary.LittleEndian, int64(n)); err != nil {
		panic("couldn't write record count to trailer")
	}
	return buffer.Bytes()
}

func parseCountTrailer(trailer []byte) (int, error) {
	r := bytes.NewReader(trailer)
	var magic, n int64
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return 0, err
	}
	if magic != trailerMagic {
		return 0, fmt.Errorf("unrecognized trailer magic %x", magic)
	}
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, err
	}
	return int(n), nil
}
