// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package bamtest builds small SAM headers, records, and BAM files for tests.
package bamtest

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/grailbio/base/file"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/require"
)

// NewHeader creates a header with one reference per name/length pair.
func NewHeader(t testing.TB, names []string, lengths []int) *sam.Header {
	require.Equal(t, len(names), len(lengths))
	refs := make([]*sam.Reference, len(names))
	for i, name := range names {
		ref, err := sam.NewReference(name, "", "", lengths[i], nil, nil)
		require.NoError(t, err)
		refs[i] = ref
	}
	header, err := sam.NewHeader(nil, refs)
	require.NoError(t, err)
	header.SortOrder = sam.Coordinate
	return header
}

// NewRecord creates a record aligned at pos on ref. seq and qual must have
// equal length; qual holds raw phred values. A nil ref makes an unmapped
// record.
func NewRecord(name string, ref *sam.Reference, pos int, flags sam.Flags, mapq byte,
	cigar sam.Cigar, seq string, qual []byte) *sam.Record {
	if len(seq) != len(qual) {
		panic("seq and qual must be equal length")
	}
	r := sam.GetFromFreePool()
	r.Name = name
	r.Ref = ref
	r.Pos = pos
	if ref == nil {
		r.Pos = -1
	}
	r.MateRef = nil
	r.MatePos = -1
	r.Flags = flags
	r.MapQ = mapq
	r.Cigar = cigar
	r.Seq = sam.NewSeq([]byte(seq))
	r.Qual = qual
	r.AuxFields = nil
	return r
}

// SetMate marks r as paired with a mate at matePos on mateRef.
func SetMate(r *sam.Record, mateRef *sam.Reference, matePos int, mateReverse bool) *sam.Record {
	r.Flags |= sam.Paired
	r.MateRef = mateRef
	r.MatePos = matePos
	if mateRef == nil {
		r.Flags |= sam.MateUnmapped
		r.MatePos = -1
	}
	if mateReverse {
		r.Flags |= sam.MateReverse
	}
	return r
}

// Qual returns n copies of q.
func Qual(n int, q byte) []byte {
	qual := make([]byte, n)
	for i := range qual {
		qual[i] = q
	}
	return qual
}

// Seq returns a sequence of n 'A's.
func Seq(n int) string {
	return strings.Repeat("A", n)
}

// WriteBAM writes recs to path. If withIndex is set, it also writes path+".bai".
// recs must be coordinate sorted.
func WriteBAM(t testing.TB, path string, header *sam.Header, recs []*sam.Record, withIndex bool) {
	ctx := context.Background()
	out, err := file.Create(ctx, path)
	require.NoError(t, err)
	w, err := bam.NewWriter(out.Writer(ctx), header, 1)
	require.NoError(t, err)
	for _, r := range recs {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close())
	require.NoError(t, out.Close(ctx))
	if withIndex {
		writeIndex(t, path)
	}
}

func writeIndex(t testing.TB, path string) {
	ctx := context.Background()
	in, err := file.Open(ctx, path)
	require.NoError(t, err)
	r, err := bam.NewReader(in.Reader(ctx), 1)
	require.NoError(t, err)
	var idx bam.Index
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.NoError(t, idx.Add(rec, r.LastChunk()))
	}
	require.NoError(t, r.Close())
	require.NoError(t, in.Close(ctx))

	out, err := file.Create(ctx, path+".bai")
	require.NoError(t, err)
	require.NoError(t, bam.WriteIndex(out.Writer(ctx), &idx))
	require.NoError(t, out.Close(ctx))
}
