// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package coverage

import (
	"github.com/grailbio/base/log"
)

// MergeMode selects how Merge combines two Results.
type MergeMode int

const (
	// MergeAccumulate adds the other value's cells to the receiver's, cell by
	// cell, and appends its links unchanged. Both values must cover the same
	// samples, and each contig must have been populated by at most one of
	// them; a contig populated by both is counted twice.
	MergeAccumulate MergeMode = iota
	// MergeConcatenate appends the other value's samples after the receiver's.
	// Links from the other value get their sample ID shifted by the
	// receiver's pre-merge sample count.
	MergeConcatenate
)

func (m MergeMode) String() string {
	switch m {
	case MergeAccumulate:
		return "accumulate"
	case MergeConcatenate:
		return "concatenate"
	}
	return "unknown"
}

// Merge folds other into r. other is not modified.
//
// REQUIRES: r and other have equal catalogs and flags (see Compatible). For
// MergeAccumulate they must also have the same number of samples.
func (r *Results) Merge(other *Results, mode MergeMode) {
	switch mode {
	case MergeAccumulate:
		r.accumulate(other)
	case MergeConcatenate:
		r.concatenate(other)
	default:
		log.Panicf("coverage.Merge: unknown merge mode %d", mode)
	}
}

func (r *Results) accumulate(other *Results) {
	if r.numSamples != other.numSamples {
		log.Panicf("coverage.Merge: accumulating %d samples into %d", other.numSamples, r.numSamples)
	}
	for i, v := range other.pileupTotals {
		r.pileupTotals[i] += v
	}
	if r.lengthCorrectors != nil && other.lengthCorrectors != nil {
		for i, v := range other.lengthCorrectors {
			r.lengthCorrectors[i] += v
		}
	}
	for s, name := range other.sampleNames {
		if r.sampleNames[s] == "" {
			r.sampleNames[s] = name
		}
	}
	r.links.MergeFrom(other.links, 0)
}

func (r *Results) concatenate(other *Results) {
	nContig := r.catalog.Len()
	nA, nB := r.numSamples, other.numSamples
	n := nA + nB

	totals := make([]uint64, nContig*n)
	for c := 0; c < nContig; c++ {
		copy(totals[c*n:c*n+nA], r.pileupTotals[c*nA:(c+1)*nA])
		copy(totals[c*n+nA:(c+1)*n], other.pileupTotals[c*nB:(c+1)*nB])
	}
	r.pileupTotals = totals

	if r.lengthCorrectors != nil {
		correctors := make([]uint32, nContig*n)
		for c := 0; c < nContig; c++ {
			copy(correctors[c*n:c*n+nA], r.lengthCorrectors[c*nA:(c+1)*nA])
			if other.lengthCorrectors != nil {
				copy(correctors[c*n+nA:(c+1)*n], other.lengthCorrectors[c*nB:(c+1)*nB])
			}
		}
		r.lengthCorrectors = correctors
	}

	r.sampleNames = append(r.sampleNames, other.sampleNames...)
	r.numSamples = n
	r.links.MergeFrom(other.links, uint32(nA))
}
