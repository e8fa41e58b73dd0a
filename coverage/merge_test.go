// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package coverage_test

import (
	"testing"

	"github.com/grailbio/parsem/coverage"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func totalsRow(r *coverage.Results, c int) []uint64 {
	row := make([]uint64, r.NumSamples())
	for s := range row {
		row[s] = r.PileupTotal(c, s)
	}
	return row
}

func correctorsRow(r *coverage.Results, c int) []uint32 {
	row := make([]uint32, r.NumSamples())
	for s := range row {
		row[s] = r.LengthCorrector(c, s)
	}
	return row
}

func TestMergeConcatenate(t *testing.T) {
	catalog := newCatalog(t, 4, 3, 5)
	flags := coverage.Flags{Links: true, OutlierCoverage: true}

	a := coverage.NewResults(catalog, 2, flags)
	a.SetSampleName(0, "a0.bam")
	a.SetSampleName(1, "a1.bam")
	a.RecordContigDepths(0, [][]uint32{{1, 1, 1, 1}, {2, 2, 2, 2}})
	a.RecordContigDepths(2, [][]uint32{{1, 1, 1, 1, 50}, {0, 0, 0, 0, 0}})
	a.Links().AddLink(0, 2, 1, 2, false, false, 1)

	b := coverage.NewResults(catalog, 1, flags)
	b.SetSampleName(0, "b.bam")
	b.RecordContigDepths(1, [][]uint32{{3, 3, 3}})
	b.RecordContigDepths(2, [][]uint32{{5, 5, 5, 5, 5}})
	b.Links().AddLink(2, 0, 7, 8, true, false, 0)
	b.Links().AddLink(1, 2, 9, 10, false, true, 0)

	aRows := [][]uint64{totalsRow(a, 0), totalsRow(a, 1), totalsRow(a, 2)}
	aCorr := [][]uint32{correctorsRow(a, 0), correctorsRow(a, 1), correctorsRow(a, 2)}
	assert.NoError(t, a.Compatible(b))
	a.Merge(b, coverage.MergeConcatenate)

	expect.EQ(t, a.NumSamples(), 3)
	for c := 0; c < catalog.Len(); c++ {
		expect.EQ(t, totalsRow(a, c), append(append([]uint64{}, aRows[c]...), b.PileupTotal(c, 0)))
		expect.EQ(t, correctorsRow(a, c), append(append([]uint32{}, aCorr[c]...), b.LengthCorrector(c, 0)))
	}
	expect.EQ(t, totalsRow(a, 2), []uint64{4, 0, 25})
	expect.EQ(t, correctorsRow(a, 2), []uint32{1, 0, 0})
	expect.EQ(t, []string{a.SampleName(0), a.SampleName(1), a.SampleName(2)}, []string{"a0.bam", "a1.bam", "b.bam"})

	expect.EQ(t, a.Links().NumRecords(), 3)
	expect.EQ(t, a.Links().Bucket(0, 2).Records, []coverage.LinkRecord{
		{PosLow: 1, PosHigh: 2, Sample: 1},
		{PosLow: 8, PosHigh: 7, ReverseHigh: true, Sample: 2},
	})
	expect.EQ(t, a.Links().Bucket(1, 2).Records, []coverage.LinkRecord{
		{PosLow: 9, PosHigh: 10, ReverseHigh: true, Sample: 2},
	})

	// b is untouched.
	expect.EQ(t, b.NumSamples(), 1)
	expect.EQ(t, totalsRow(b, 2), []uint64{25})
	expect.EQ(t, b.Links().Bucket(0, 2).Records[0].Sample, uint32(0))

	covs := coverage.Coverages(a)
	expect.EQ(t, covs[1], []float64{0, 0, 3})
	expect.EQ(t, covs[2], []float64{1, 0, 5})
}

func TestMergeAccumulate(t *testing.T) {
	catalog := newCatalog(t, 4, 3, 2)
	flags := coverage.Flags{Links: true}

	// Worker a handled contig 0, worker b contigs 1 and 2.
	a := coverage.NewResults(catalog, 2, flags)
	a.RecordContigDepths(0, [][]uint32{{1, 2, 3, 4}, {4, 4, 4, 4}})
	a.Links().AddLink(0, 1, 3, 4, false, false, 1)
	b := coverage.NewResults(catalog, 2, flags)
	b.RecordContigDepths(1, [][]uint32{{1, 1, 1}, {0, 9, 0}})
	b.RecordContigDepths(2, [][]uint32{{7, 7}, {8, 8}})
	b.Links().AddLink(1, 0, 5, 6, true, true, 0)

	a.Merge(b, coverage.MergeAccumulate)
	expect.EQ(t, a.NumSamples(), 2)
	expect.EQ(t, totalsRow(a, 0), []uint64{10, 16})
	expect.EQ(t, totalsRow(a, 1), totalsRow(b, 1))
	expect.EQ(t, totalsRow(a, 2), totalsRow(b, 2))
	expect.EQ(t, a.Links().Bucket(0, 1).Records, []coverage.LinkRecord{
		{PosLow: 3, PosHigh: 4, Sample: 1},
		{PosLow: 6, ReverseLow: true, PosHigh: 5, ReverseHigh: true, Sample: 0},
	})
	expect.EQ(t, b.Links().NumRecords(), 1)
}

func TestMergeAccumulateSumsOverlap(t *testing.T) {
	catalog := newCatalog(t, 2)
	flags := coverage.Flags{OutlierCoverage: true}
	a := coverage.NewResults(catalog, 1, flags)
	a.RecordContigDepths(0, [][]uint32{{0, 10}})
	b := coverage.NewResults(catalog, 1, flags)
	b.RecordContigDepths(0, [][]uint32{{3, 3}})

	a.Merge(b, coverage.MergeAccumulate)
	// A contig populated by both operands is summed, not reconciled.
	expect.EQ(t, a.PileupTotal(0, 0), uint64(16))
	expect.EQ(t, a.LengthCorrector(0, 0), uint32(0))
}

func TestMergeAccumulateSampleCountMismatch(t *testing.T) {
	catalog := newCatalog(t, 2)
	a := coverage.NewResults(catalog, 1, coverage.Flags{})
	b := coverage.NewResults(catalog, 2, coverage.Flags{})
	defer func() { expect.True(t, recover() != nil) }()
	a.Merge(b, coverage.MergeAccumulate)
}

func TestCompatible(t *testing.T) {
	a := coverage.NewResults(newCatalog(t, 2, 3), 1, coverage.Flags{})
	expect.NoError(t, a.Compatible(coverage.NewResults(newCatalog(t, 2, 3), 4, coverage.Flags{})))
	expect.True(t, a.Compatible(coverage.NewResults(newCatalog(t, 2, 4), 1, coverage.Flags{})) != nil)
	expect.True(t, a.Compatible(coverage.NewResults(newCatalog(t, 2), 1, coverage.Flags{})) != nil)
	expect.True(t, a.Compatible(coverage.NewResults(newCatalog(t, 2, 3), 1, coverage.Flags{Links: true})) != nil)
}
