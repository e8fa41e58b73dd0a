// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package depth

import (
	"context"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/parsem/coverage"
)

// createTSV creates path and returns a tsv.Writer on it, bgzf-compressed if
// bgzip is set. The returned closer flushes and closes everything.
func createTSV(ctx context.Context, path string, bgzip bool, parallelism int) (w *tsv.Writer, closer func() error, err error) {
	var dst file.File
	if dst, err = file.Create(ctx, path); err != nil {
		return
	}
	var bgzfWriter *bgzf.Writer
	var out io.Writer = dst.Writer(ctx)
	if bgzip {
		if parallelism < 1 {
			parallelism = 1
		}
		bgzfWriter = bgzf.NewWriter(out, parallelism)
		out = bgzfWriter
	}
	w = tsv.NewWriter(out)
	closer = func() (err error) {
		err = w.Flush()
		if bgzfWriter != nil {
			if e := bgzfWriter.Close(); e != nil && err == nil {
				err = e
			}
		}
		if e := dst.Close(ctx); e != nil && err == nil {
			err = e
		}
		return
	}
	return
}

// WriteCoverage writes the coverage matrix of r to w. The first line is a
// header: "#contig", "length", then one column per sample name. Each following
// line holds a contig name, its length, and its coverage in each sample with
// three decimals.
func WriteCoverage(w *tsv.Writer, r *coverage.Results) error {
	catalog := r.Catalog()
	w.WriteString("#contig")
	w.WriteString("length")
	for s := 0; s < r.NumSamples(); s++ {
		w.WriteString(r.SampleName(s))
	}
	if err := w.EndLine(); err != nil {
		return err
	}
	for c, row := range coverage.Coverages(r) {
		w.WriteString(catalog.Name(c))
		w.WriteUint32(catalog.Length(c))
		for _, cov := range row {
			w.WriteFloat64(cov, 'f', 3)
		}
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return nil
}

// WriteLinks writes one line per link of r to w, after a header line. Contig
// pairs appear in ascending contig ID order, and links of one pair in the
// order they were recorded. Positions are 1-based; a reverse column is 1 if
// the read aligned to the reverse strand.
func WriteLinks(w *tsv.Writer, r *coverage.Results) error {
	catalog := r.Catalog()
	w.WriteString("#contig1\tcontig2\tpos1\treverse1\tpos2\treverse2\tsample")
	if err := w.EndLine(); err != nil {
		return err
	}
	return r.Links().ForEachBucket(func(b *coverage.LinkBucket) error {
		low, high := catalog.Name(int(b.Key.Low)), catalog.Name(int(b.Key.High))
		return b.ForEachRecord(func(rec coverage.LinkRecord) error {
			w.WriteString(low)
			w.WriteString(high)
			w.WriteUint32(rec.PosLow + 1)
			w.WriteByte(boolByte(rec.ReverseLow))
			w.WriteUint32(rec.PosHigh + 1)
			w.WriteByte(boolByte(rec.ReverseHigh))
			w.WriteString(r.SampleName(int(rec.Sample)))
			return w.EndLine()
		})
	})
}

// WriteLinkCounts writes one line per linked contig pair of r to w, after a
// header line: the two contig names and the number of links between them,
// summed over all samples. Pairs appear in ascending contig ID order.
func WriteLinkCounts(w *tsv.Writer, r *coverage.Results) error {
	catalog := r.Catalog()
	w.WriteString("#contig1\tcontig2\tlinks")
	if err := w.EndLine(); err != nil {
		return err
	}
	return r.Links().ForEachBucket(func(b *coverage.LinkBucket) error {
		w.WriteString(catalog.Name(int(b.Key.Low)))
		w.WriteString(catalog.Name(int(b.Key.High)))
		w.WriteUint32(uint32(b.Count()))
		return w.EndLine()
	})
}

func boolByte(b bool) byte {
	if b {
		return '1'
	}
	return '0'
}

// WriteCoverageFile writes the coverage matrix of r to path. See
// WriteCoverage.
func WriteCoverageFile(ctx context.Context, path string, r *coverage.Results, bgzip bool, parallelism int) (err error) {
	w, closer, err := createTSV(ctx, path, bgzip, parallelism)
	if err != nil {
		return err
	}
	defer func() {
		if e := closer(); e != nil && err == nil {
			err = e
		}
	}()
	if err = WriteCoverage(w, r); err != nil {
		return err
	}
	log.Printf("depth: wrote coverage of %d contigs x %d samples to %s", r.Catalog().Len(), r.NumSamples(), path)
	return nil
}

// WriteLinksFile writes the links of r to path. See WriteLinks.
func WriteLinksFile(ctx context.Context, path string, r *coverage.Results, bgzip bool, parallelism int) (err error) {
	w, closer, err := createTSV(ctx, path, bgzip, parallelism)
	if err != nil {
		return err
	}
	defer func() {
		if e := closer(); e != nil && err == nil {
			err = e
		}
	}()
	if err = WriteLinks(w, r); err != nil {
		return err
	}
	log.Printf("depth: wrote %d links between %d contig pairs to %s", r.Links().NumRecords(), r.Links().NumBuckets(), path)
	return nil
}

// WriteLinkCountsFile writes the per-pair link counts of r to path. See
// WriteLinkCounts.
func WriteLinkCountsFile(ctx context.Context, path string, r *coverage.Results, bgzip bool, parallelism int) (err error) {
	w, closer, err := createTSV(ctx, path, bgzip, parallelism)
	if err != nil {
		return err
	}
	defer func() {
		if e := closer(); e != nil && err == nil {
			err = e
		}
	}()
	return WriteLinkCounts(w, r)
}
