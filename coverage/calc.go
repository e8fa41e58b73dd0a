// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package coverage

// Coverages returns the contig x sample coverage matrix of r:
//
//	covs[c][s] = PileupTotal(c, s) / effectiveLength(c, s)
//
// where the effective length is the contig length, minus the number of
// outlier positions when outlier correction is on. A cell whose effective
// length is zero (an empty contig, or every position trimmed) is 0.
//
// Coverages does not modify r.
func Coverages(r *Results) [][]float64 {
	nContig := r.catalog.Len()
	covs := make([][]float64, nContig)
	flat := make([]float64, nContig*r.numSamples)
	for c := 0; c < nContig; c++ {
		row := flat[c*r.numSamples : (c+1)*r.numSamples]
		length := uint64(r.catalog.Length(c))
		for s := range row {
			effLen := length - uint64(r.LengthCorrector(c, s))
			if effLen == 0 {
				continue
			}
			row[s] = float64(r.PileupTotal(c, s)) / float64(effLen)
		}
		covs[c] = row
	}
	return covs
}
