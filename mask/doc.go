// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package mask provides boolean taxa x sites matrices flagging genotype calls
// that consumers should treat as hidden, without modifying the calls.
//
// Computed masks (NewHomozygous, NewMinorMajor) evaluate one site at a time
// over all taxa and keep the results in blocks of Opts.BlockSize consecutive
// sites in a Cache.  A Cache and a Pool are meant to be shared by all masks
// of a process: the Cache bounds memory and the Pool bounds the goroutines
// spent on prefetching the block after the one being read.  Prefetching is
// best-effort; a site that is not cached is always computed by the calling
// goroutine.
//
// Explicit masks (BitSetBuilder) store every bit, oriented by taxon or by
// site.  NewFiltered presents any Matrix through a translate.Translation.
package mask
