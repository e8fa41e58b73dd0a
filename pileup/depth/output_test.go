// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package depth_test

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/parsem/encoding/bam/bamtest"
	"github.com/grailbio/parsem/pileup/depth"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/require"
)

func newRead(t *testing.T, name string, ref *sam.Reference, pos int, flags sam.Flags, cigar string) *sam.Record {
	c, err := sam.ParseCigar([]byte(cigar))
	require.NoError(t, err)
	_, n := c.Lengths()
	return bamtest.NewRecord(name, ref, pos, flags, 60, c, bamtest.Seq(n), bamtest.Qual(n, 30))
}

// writeTestBAM writes a BAM whose coverage is 1.2 on c0, 0 on c1 and 1.35 on
// c2, with two links.
func writeTestBAM(t *testing.T, path string) {
	header := bamtest.NewHeader(t, []string{"c0", "c1", "c2"}, []int{10, 10, 20})
	refs := header.Refs()
	recs := []*sam.Record{
		newRead(t, "r1", refs[0], 0, 0, "4M"),
		newRead(t, "r2", refs[0], 2, 0, "2M2D2M"),
		newRead(t, "r3", refs[0], 5, 0, "1S4M"),
		newRead(t, "r4", refs[0], 9, sam.Duplicate, "1M"),
		bamtest.SetMate(newRead(t, "l1", refs[2], 3, sam.Read1|sam.Reverse, "2S4M"), refs[0], 7, false),
		bamtest.SetMate(newRead(t, "l2", refs[2], 4, sam.Read2, "4M"), refs[0], 1, false),
		bamtest.SetMate(newRead(t, "l3", refs[2], 5, sam.Read2, "3M"), refs[1], 1, false),
		bamtest.SetMate(newRead(t, "l4", refs[2], 10, sam.Read1, "4M"), refs[1], 1, true),
		bamtest.SetMate(newRead(t, "l5", refs[2], 11, sam.Read1, "4M"), refs[2], 15, true),
		bamtest.SetMate(newRead(t, "l6", refs[2], 12, sam.Read1, "4M"), nil, 0, false),
		bamtest.SetMate(newRead(t, "l7", refs[2], 12, sam.Read1, "1D4M"), refs[0], 1, false),
		bamtest.NewRecord("u", nil, -1, sam.Unmapped, 0, nil, bamtest.Seq(4), bamtest.Qual(4, 30)),
	}
	bamtest.WriteBAM(t, path, header, recs, true)
}

func readFile(t *testing.T, path string, bgzip bool) string {
	if !bgzip {
		data, err := ioutil.ReadFile(path)
		require.NoError(t, err)
		return string(data)
	}
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r, err := bgzf.NewReader(f, 1)
	require.NoError(t, err)
	data, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	return string(data)
}

func TestParseAndWrite(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, "tmpDir:", tmpDir)
	ctx := context.Background()
	pathA := filepath.Join(tmpDir, "a.bam")
	pathB := filepath.Join(tmpDir, "b.bam")
	writeTestBAM(t, pathA)
	writeTestBAM(t, pathB)

	opts := depth.DefaultOpts
	opts.Links = true
	opts.Parallelism = 2
	results, err := depth.Parse(ctx, []string{pathA, pathB}, &opts)
	require.NoError(t, err)
	require.Equal(t, 2, results.NumSamples())

	wantCoverage := strings.Join([]string{
		"#contig\tlength\t" + pathA + "\t" + pathB,
		"c0\t10\t1.200\t1.200",
		"c1\t10\t0.000\t0.000",
		"c2\t20\t1.350\t1.350",
		"",
	}, "\n")
	wantLinks := strings.Join([]string{
		"#contig1\tcontig2\tpos1\treverse1\tpos2\treverse2\tsample",
		"c0\tc2\t8\t0\t4\t1\t" + pathA,
		"c0\tc2\t8\t0\t4\t1\t" + pathB,
		"c1\tc2\t2\t1\t11\t0\t" + pathA,
		"c1\tc2\t2\t1\t11\t0\t" + pathB,
		"",
	}, "\n")

	wantCounts := strings.Join([]string{
		"#contig1\tcontig2\tlinks",
		"c0\tc2\t2",
		"c1\tc2\t2",
		"",
	}, "\n")

	for _, bgzip := range []bool{false, true} {
		covPath := filepath.Join(tmpDir, "cov.tsv")
		linksPath := filepath.Join(tmpDir, "links.tsv")
		countsPath := filepath.Join(tmpDir, "counts.tsv")
		if bgzip {
			covPath += ".gz"
			linksPath += ".gz"
			countsPath += ".gz"
		}
		require.NoError(t, depth.WriteCoverageFile(ctx, covPath, results, bgzip, 1))
		require.NoError(t, depth.WriteLinksFile(ctx, linksPath, results, bgzip, 1))
		require.NoError(t, depth.WriteLinkCountsFile(ctx, countsPath, results, bgzip, 1))
		require.Equal(t, wantCoverage, readFile(t, covPath, bgzip))
		require.Equal(t, wantLinks, readFile(t, linksPath, bgzip))
		require.Equal(t, wantCounts, readFile(t, countsPath, bgzip))
	}
}

func TestParseMissingFile(t *testing.T) {
	opts := depth.DefaultOpts
	_, err := depth.Parse(context.Background(), []string{"/nonexistent/x.bam"}, &opts)
	require.Error(t, err)
}
