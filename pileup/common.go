// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package pileup holds the read-level rules shared by pileup drivers: which
// reads take part in a pileup, and which reads are evidence of a link between
// two references.
package pileup

import (
	"github.com/grailbio/hts/sam"
)

// DefaultFlagExclude is the default set of flags that cause a read to be
// skipped: unmapped, secondary, QC-fail, and duplicate.
const DefaultFlagExclude = sam.Unmapped | sam.Secondary | sam.QCFail | sam.Duplicate

// ReadFilter decides which reads take part in a pileup.
type ReadFilter struct {
	// FlagExclude skips reads with any of these flags set.
	FlagExclude sam.Flags
	// MinMapQ skips reads with a lower mapping quality.
	MinMapQ int
	// MinQueryLen skips reads whose CIGAR consumes fewer query bases.
	MinQueryLen int
}

// Keep returns true if r passes the filter.
func (f *ReadFilter) Keep(r *sam.Record) bool {
	if r.Flags&f.FlagExclude != 0 {
		return false
	}
	if int(r.MapQ) < f.MinMapQ {
		return false
	}
	if len(r.Cigar) == 0 {
		return false
	}
	return QueryLen(r.Cigar) >= f.MinQueryLen
}

// QueryLen returns the number of query bases consumed by cigar (M, I, S, =
// and X operations).
func QueryLen(cigar sam.Cigar) int {
	_, read := cigar.Lengths()
	return read
}

// IsLinkCandidate returns true if r is the first read of a pair whose ends are
// both mapped, to different references. Secondary alignments never qualify;
// supplementary ones qualify unless ignoreSupplementary is set.
func IsLinkCandidate(r *sam.Record, ignoreSupplementary bool) bool {
	const required = sam.Paired | sam.Read1
	if r.Flags&required != required {
		return false
	}
	if r.Flags&(sam.Unmapped|sam.MateUnmapped|sam.Secondary) != 0 {
		return false
	}
	if ignoreSupplementary && r.Flags&sam.Supplementary != 0 {
		return false
	}
	if r.Ref == nil || r.MateRef == nil {
		return false
	}
	return r.Ref.ID() != r.MateRef.ID()
}
