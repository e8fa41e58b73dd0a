// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package coverage

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// Flags are the run-mode switches of a Results value. Two Results can only be
// merged when their flags agree.
type Flags struct {
	// Links enables paired-link detection.
	Links bool
	// OutlierCoverage enables the one-standard-deviation depth trim, and with
	// it the per-cell length correctors.
	OutlierCoverage bool
	// IgnoreSupplementary excludes supplementary alignments from link
	// detection.
	IgnoreSupplementary bool
}

// Results holds the mapping results of one parse unit.
//
// The contig x sample matrices are stored flat, row-major, with stride
// NumSamples(). lengthCorrectors is non-nil iff Flags().OutlierCoverage.
type Results struct {
	catalog     *Catalog
	numSamples  int
	sampleNames []string
	flags       Flags

	// pileupTotals[c*numSamples+s] is the number of piled-up bases of sample s
	// on contig c (after outlier trimming, if enabled).
	pileupTotals []uint64
	// lengthCorrectors[c*numSamples+s] is the number of positions of contig c
	// excluded as outliers for sample s.
	lengthCorrectors []uint32

	links *LinkIndex
}

// NewResults creates empty results for the given catalog and number of
// samples.
func NewResults(catalog *Catalog, numSamples int, flags Flags) *Results {
	if numSamples < 0 {
		log.Panicf("coverage.NewResults: negative sample count %d", numSamples)
	}
	r := &Results{
		catalog:      catalog,
		numSamples:   numSamples,
		sampleNames:  make([]string, numSamples),
		flags:        flags,
		pileupTotals: make([]uint64, catalog.Len()*numSamples),
		links:        NewLinkIndex(),
	}
	if flags.OutlierCoverage {
		r.lengthCorrectors = make([]uint32, catalog.Len()*numSamples)
	}
	return r
}

// Catalog returns the contig catalog.
func (r *Results) Catalog() *Catalog { return r.catalog }

// NumSamples returns the number of samples (matrix columns).
func (r *Results) NumSamples() int { return r.numSamples }

// Flags returns the run-mode flags.
func (r *Results) Flags() Flags { return r.flags }

// Links returns the link index. It is empty unless a driver added links.
func (r *Results) Links() *LinkIndex { return r.links }

// SetSampleName names sample s, usually after the alignment source it came
// from.
func (r *Results) SetSampleName(s int, name string) { r.sampleNames[s] = name }

// SampleName returns the name of sample s, or "sample<s>" if it was never
// named.
func (r *Results) SampleName(s int) string {
	if name := r.sampleNames[s]; name != "" {
		return name
	}
	return fmt.Sprintf("sample%d", s)
}

// PileupTotal returns the number of piled-up bases of sample s on contig c.
func (r *Results) PileupTotal(c, s int) uint64 {
	return r.pileupTotals[r.cell(c, s)]
}

// LengthCorrector returns the number of positions of contig c trimmed as
// outliers for sample s. It is always zero when outlier correction is off.
func (r *Results) LengthCorrector(c, s int) uint32 {
	if r.lengthCorrectors == nil {
		return 0
	}
	return r.lengthCorrectors[r.cell(c, s)]
}

func (r *Results) cell(c, s int) int {
	if s < 0 || s >= r.numSamples {
		log.Panicf("coverage: sample %d out of range [0, %d)", s, r.numSamples)
	}
	return c*r.numSamples + s
}

// Compatible returns an error if r and other cannot be merged: their catalogs
// or flags differ. Merge itself does not call this.
func (r *Results) Compatible(other *Results) error {
	if !r.catalog.Equal(other.catalog) {
		return errors.E(errors.Precondition, "coverage: results have different contig catalogs")
	}
	if r.flags != other.flags {
		return errors.E(errors.Precondition, fmt.Sprintf("coverage: results have different flags (%+v vs %+v)", r.flags, other.flags))
	}
	return nil
}

// Release drops all storage owned by r, including every link bucket. r must
// not be used afterwards.
func (r *Results) Release() {
	if r.links != nil {
		r.links.reset()
	}
	r.links = nil
	r.pileupTotals = nil
	r.lengthCorrectors = nil
	r.sampleNames = nil
	r.catalog = nil
	r.numSamples = 0
}
