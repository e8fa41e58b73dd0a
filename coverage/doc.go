// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

/*
Package coverage aggregates per-base pileup depth into per-contig, per-sample
coverage, and indexes read pairs whose two ends align to different contigs
("links").

A Results value owns everything for one parse unit: the contig catalog, the
contig x sample pileup totals, the optional outlier length correctors and the
link index. A traversal driver populates it one contig at a time:

	res := coverage.NewResults(catalog, nSamples, coverage.Flags{OutlierCoverage: true})
	...
	res.RecordContigDepths(contigID, depthBufs) // one []uint32 per sample
	res.Links().AddLink(refID, mateRefID, pos, matePos, rev, mateRev, sample)
	...
	covs := coverage.Coverages(res)

Results are not safe for concurrent mutation. Parallel drivers populate one
Results per worker and combine them afterwards with Merge, choosing the merge
shape explicitly:

  - MergeAccumulate adds cells elementwise. Use it for workers that processed
    disjoint contig ranges of the same samples.
  - MergeConcatenate appends the other value's samples as new columns and
    shifts the sample id of every link it brings along. Use it for
    independently parsed sources reported side by side.

Merge does not check that both operands share a catalog and flags; that is the
caller's job (see Results.Compatible).
*/
package coverage
