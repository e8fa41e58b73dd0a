// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package coverage_test

import (
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/parsem/coverage"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestCatalog(t *testing.T) {
	_, err := coverage.NewCatalog([]string{"a", "b"}, []uint32{1})
	expect.True(t, errors.Is(errors.Invalid, err))

	c, err := coverage.NewCatalog([]string{"a", "b"}, []uint32{10, 20})
	assert.NoError(t, err)
	expect.EQ(t, c.Len(), 2)
	expect.EQ(t, c.Contig(1), coverage.Contig{ID: 1, Name: "b", Length: 20})
	expect.EQ(t, c.Name(0), "a")
	expect.EQ(t, c.Length(0), uint32(10))

	ref0, err := sam.NewReference("a", "", "", 10, nil, nil)
	assert.NoError(t, err)
	ref1, err := sam.NewReference("b", "", "", 20, nil, nil)
	assert.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{ref0, ref1})
	assert.NoError(t, err)
	expect.True(t, coverage.CatalogFromHeader(header).Equal(c))

	other, err := coverage.NewCatalog([]string{"a", "c"}, []uint32{10, 20})
	assert.NoError(t, err)
	expect.False(t, c.Equal(other))
}

func TestNewResultsShape(t *testing.T) {
	catalog := newCatalog(t, 3, 4, 5)
	plain := coverage.NewResults(catalog, 2, coverage.Flags{})
	expect.EQ(t, plain.NumSamples(), 2)
	expect.EQ(t, plain.LengthCorrector(2, 1), uint32(0))
	expect.EQ(t, plain.SampleName(1), "sample1")
	plain.SetSampleName(1, "x.bam")
	expect.EQ(t, plain.SampleName(1), "x.bam")
	expect.EQ(t, coverage.Coverages(plain), [][]float64{{0, 0}, {0, 0}, {0, 0}})
}

func TestRelease(t *testing.T) {
	r := coverage.NewResults(newCatalog(t, 10, 10, 10, 10, 10, 10), 2, coverage.Flags{Links: true})
	links := r.Links()
	links.AddLink(2, 5, 100, 200, false, true, 0)
	links.AddLink(5, 2, 300, 400, true, false, 1)
	b := links.Bucket(2, 5)
	assert.NotNil(t, b)
	expect.EQ(t, b.Count(), 2)
	expect.EQ(t, links.NumBuckets(), 1)

	r.Release()
	expect.EQ(t, links.NumBuckets(), 0)
	expect.EQ(t, links.NumRecords(), 0)
	expect.Nil(t, links.Bucket(2, 5))
	expect.EQ(t, b.Count(), 0)
	expect.Nil(t, r.Links())
	expect.Nil(t, r.Catalog())
}
