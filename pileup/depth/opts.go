// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package depth

import (
	"runtime"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/parsem/coverage"
	"github.com/grailbio/parsem/pileup"
)

// Opts configures a coverage/link parse.
type Opts struct {
	// BamIndexPath is the index of the (single) input BAM. If empty, each
	// input uses <path>.bai when present.
	BamIndexPath string
	// FlagExclude skips reads with any of these SAM flags set.
	FlagExclude int
	// Mapq is the minimum mapping quality of a read.
	Mapq int
	// MinBaseQual is the minimum base quality counted toward depth.
	MinBaseQual int
	// MinQueryLen is the minimum number of query bases consumed by a read's
	// CIGAR.
	MinQueryLen int
	// Links enables paired-link detection.
	Links bool
	// IgnoreSupplementary excludes supplementary alignments from link
	// detection.
	IgnoreSupplementary bool
	// OutlierCoverage trims positions more than one standard deviation away
	// from the contig's mean depth.
	OutlierCoverage bool
	// Parallelism is the number of shards each input is split into. 0 means
	// runtime.NumCPU().
	Parallelism int
	// Contigs, if nonempty, restricts the parse to the named contigs; each is
	// read by its own worker. Every other contig keeps zero coverage. All
	// names must exist in every input.
	Contigs []string
}

// DefaultOpts is the default Opts value.
var DefaultOpts = Opts{
	FlagExclude: int(pileup.DefaultFlagExclude),
	Mapq:        0,
	MinBaseQual: 0,
	MinQueryLen: 0,
	Parallelism: 0,
}

func validate(opts *Opts, nInputs int) error {
	if nInputs == 0 {
		return errors.E(errors.Invalid, "depth: no input")
	}
	if opts.FlagExclude < 0 || opts.FlagExclude > 0xffff {
		return errors.E(errors.Invalid, "depth: flag-exclude out of range")
	}
	if opts.Mapq < 0 || opts.Mapq > 255 {
		return errors.E(errors.Invalid, "depth: mapq must be in [0, 255]")
	}
	if opts.MinBaseQual < 0 || opts.MinBaseQual > 255 {
		return errors.E(errors.Invalid, "depth: min-base-qual must be in [0, 255]")
	}
	if opts.MinQueryLen < 0 {
		return errors.E(errors.Invalid, "depth: min-len must be nonnegative")
	}
	if opts.Parallelism < 0 {
		return errors.E(errors.Invalid, "depth: parallelism must be nonnegative")
	}
	seen := make(map[string]bool, len(opts.Contigs))
	for _, name := range opts.Contigs {
		if name == "" {
			return errors.E(errors.Invalid, "depth: empty contig name")
		}
		if seen[name] {
			return errors.E(errors.Invalid, "depth: contig "+name+" listed twice")
		}
		seen[name] = true
	}
	if opts.BamIndexPath != "" && nInputs > 1 {
		return errors.E(errors.Invalid, "depth: an explicit index requires a single input")
	}
	return nil
}

func (opts *Opts) parallelism() int {
	if opts.Parallelism > 0 {
		return opts.Parallelism
	}
	return runtime.NumCPU()
}

func (opts *Opts) flags() coverage.Flags {
	return coverage.Flags{
		Links:               opts.Links,
		OutlierCoverage:     opts.OutlierCoverage,
		IgnoreSupplementary: opts.IgnoreSupplementary,
	}
}

func (opts *Opts) readFilter() pileup.ReadFilter {
	return pileup.ReadFilter{
		FlagExclude: sam.Flags(opts.FlagExclude),
		MinMapQ:     opts.Mapq,
		MinQueryLen: opts.MinQueryLen,
	}
}
