// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

/*
bio-parsem computes per-contig coverage of one or more coordinate-sorted BAM
files, and finds read pairs whose two ends align to different contigs
("links"), for use in metagenomic binning and scaffolding.

Each BAM file is one sample. All files must share the same references.

Sample usage:

	bio-parsem coverage -out coverage.tsv a.bam b.bam
	bio-parsem links -out links.tsv -coverage-out coverage.tsv a.bam b.bam

The coverage of a contig in a sample is the number of piled-up bases divided
by the contig length. With -outlier-coverage, positions whose depth is more
than one standard deviation away from the contig's mean are left out of both
the numerator and the length.
*/
package main

import (
	"log"

	"v.io/x/lib/cmdline"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-parsem",
			Short:    "Compute contig coverage and paired links from BAM files",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdCoverage(),
				newCmdLinks(),
			},
		})
}
