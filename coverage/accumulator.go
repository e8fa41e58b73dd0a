// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package coverage

import (
	"math"

	"github.com/grailbio/base/log"
)

// RecordContigDepths adds one contig's pileup to the totals. depths holds one
// buffer per sample; depths[s][pos] is the depth of sample s at 0-based
// position pos, and every buffer spans the whole contig. The buffers are only
// read during the call.
//
// With outlier correction enabled, positions whose depth lies outside
// [max(0, mean-sd), mean+sd] of their own buffer are left out of the total
// and counted in the contig's length corrector instead. The mean and
// (population) standard deviation are computed once, over all positions.
func (r *Results) RecordContigDepths(contigID int, depths [][]uint32) {
	if len(depths) != r.numSamples {
		log.Panicf("coverage.RecordContigDepths: contig %d: got %d depth buffers, want %d", contigID, len(depths), r.numSamples)
	}
	length := int(r.catalog.Length(contigID))
	row := contigID * r.numSamples
	for s, buf := range depths {
		if len(buf) != length {
			log.Panicf("coverage.RecordContigDepths: contig %s: sample %d buffer has length %d, want %d",
				r.catalog.Name(contigID), s, len(buf), length)
		}
		if !r.flags.OutlierCoverage {
			r.pileupTotals[row+s] += sumDepths(buf)
			continue
		}
		total, excluded := trimmedSum(buf)
		r.pileupTotals[row+s] += total
		r.lengthCorrectors[row+s] += excluded
	}
}

func sumDepths(buf []uint32) uint64 {
	var total uint64
	for _, d := range buf {
		total += uint64(d)
	}
	return total
}

// meanAndStddev returns the mean and population standard deviation of buf.
// Both are zero for an empty buffer.
func meanAndStddev(buf []uint32) (mean, sd float64) {
	if len(buf) == 0 {
		return 0, 0
	}
	n := float64(len(buf))
	mean = float64(sumDepths(buf)) / n
	var ss float64
	for _, d := range buf {
		diff := float64(d) - mean
		ss += diff * diff
	}
	return mean, math.Sqrt(ss / n)
}

// trimmedSum returns the sum of the depths lying within one standard
// deviation of the mean, and the number of positions outside that range.
func trimmedSum(buf []uint32) (total uint64, excluded uint32) {
	mean, sd := meanAndStddev(buf)
	lower := math.Max(0, mean-sd)
	upper := mean + sd
	for _, d := range buf {
		if fd := float64(d); fd >= lower && fd <= upper {
			total += uint64(d)
		} else {
			excluded++
		}
	}
	return
}
