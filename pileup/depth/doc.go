// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package depth computes per-contig coverage and cross-contig read-pair links
// from one or more coordinate-sorted BAM files.
//
// Each file becomes one sample. A file's references are split into shards
// that are parsed concurrently, each into its own coverage.Results; the shard
// results are accumulated, and the per-file results are then concatenated
// side by side. All files must share the same references.
//
// Example:
//
//	opts := depth.DefaultOpts
//	opts.Links = true
//	results, err := depth.Parse(ctx, []string{"a.bam", "b.bam"}, &opts)
//	if err != nil {
//		...
//	}
//	err = depth.WriteCoverageFile(ctx, "cov.tsv", results, false, 1)
package depth
