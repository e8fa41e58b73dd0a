// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bamprovider

import (
	"io"
	"sync"

	grailerrors "github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/hts/bgzf/index"
	"github.com/grailbio/hts/sam"
	gbam "github.com/grailbio/parsem/encoding/bam"
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"
)

// BAMProvider implements Provider for coordinate-sorted BAM files. Files are
// opened through grailbio/base/file, so any registered file implementation
// works.
type BAMProvider struct {
	// Path of the *.bam file. Must be nonempty.
	Path string
	// Index is the pathname of *.bam.bai file. If "", Path + ".bai"
	Index string
	err   grailerrors.Once

	mu        sync.Mutex
	nActive   int
	freeIters []*bamIterator
	header    *sam.Header
}

type bamIterator struct {
	provider *BAMProvider
	in       file.File
	reader   *bam.Reader
	// index is nil when no index file is available.
	index *bam.Index
	// Offset of the first record in the file.
	firstRecord bgzf.Offset
	// Inclusive reference ID range to read.
	startRefID, endRefID int
	lastRefID            int

	active bool
	err    error
	next   *sam.Record
}

func (b *BAMProvider) indexPath() string {
	index := b.Index
	if index == "" {
		index = b.Path + ".bai"
	}
	return index
}

// GetHeader implements the Provider interface.
func (b *BAMProvider) GetHeader() (*sam.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.header != nil {
		return b.header, nil
	}

	ctx := vcontext.Background()
	reader, err := file.Open(ctx, b.Path)
	if err != nil {
		err = errors.Wrapf(err, "bamprovider: open %s", b.Path)
		b.err.Set(err)
		return nil, err
	}
	defer reader.Close(ctx)
	bamReader, err := bam.NewReader(reader.Reader(ctx), 1)
	if err != nil {
		err = errors.Wrapf(err, "bamprovider: read header of %s", b.Path)
		b.err.Set(err)
		return nil, err
	}
	defer bamReader.Close()
	b.header = bamReader.Header()
	return b.header, nil
}

// Close implements the Provider interface.
func (b *BAMProvider) Close() error {
	if b.nActive > 0 {
		vlog.Fatalf("%d iterators still active for %+v", b.nActive, b)
	}
	for _, iter := range b.freeIters {
		iter.internalClose()
	}
	b.freeIters = nil
	return b.err.Err()
}

func (b *BAMProvider) freeIterator(i *bamIterator) {
	if !i.active {
		vlog.Fatal(i)
	}
	i.active = false
	if i.Err() != nil || i.reader == nil {
		// The iter may be invalid. Don't reuse it.
		i.internalClose() // Will set b.err
		i = nil
	}
	b.mu.Lock()
	if i != nil {
		b.freeIters = append(b.freeIters, i)
	}
	b.nActive--
	if b.nActive < 0 {
		vlog.Fatalf("Negative active count for %+v", b)
	}
	b.mu.Unlock()
}

// Return an unused iterator. If b.freeIters is nonempty, this function returns
// one from freeIters. Else, it opens the BAM file, creates a BAM reader and
// returns an iterator containing them. On error, returns an iterator with
// non-nil err field.
func (b *BAMProvider) allocateIterator() *bamIterator {
	b.mu.Lock()
	b.nActive++
	if len(b.freeIters) > 0 {
		iter := b.freeIters[len(b.freeIters)-1]
		iter.active = true
		iter.err = nil
		iter.next = nil
		b.freeIters = b.freeIters[:len(b.freeIters)-1]
		b.mu.Unlock()
		return iter
	}
	b.mu.Unlock()

	iter := bamIterator{
		provider: b,
		active:   true,
	}
	ctx := vcontext.Background()
	if iter.in, iter.err = file.Open(ctx, b.Path); iter.err != nil {
		iter.err = errors.Wrapf(iter.err, "bamprovider: open %s", b.Path)
		return &iter
	}
	if iter.index, iter.err = b.readIndex(); iter.err != nil {
		return &iter
	}
	if iter.reader, iter.err = bam.NewReader(iter.in.Reader(ctx), 1); iter.err != nil {
		iter.err = errors.Wrapf(iter.err, "bamprovider: read %s", b.Path)
		return &iter
	}
	iter.firstRecord = iter.reader.LastChunk().End
	return &iter
}

// readIndex reads the BAM index. A missing index at the default location is
// not an error; it yields a nil index.
func (b *BAMProvider) readIndex() (idx *bam.Index, err error) {
	ctx := vcontext.Background()
	path := b.indexPath()
	in, err := file.Open(ctx, path)
	if err != nil {
		if b.Index == "" {
			vlog.VI(1).Infof("%s: no index (%v), scanning from the first record", b.Path, err)
			return nil, nil
		}
		return nil, errors.Wrapf(err, "bamprovider: open index %s", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	if idx, err = bam.ReadIndex(in.Reader(ctx)); err != nil {
		return nil, errors.Wrapf(err, "bamprovider: read index %s", path)
	}
	return idx, nil
}

// GenerateShards implements the Provider interface.
func (b *BAMProvider) GenerateShards(opts GenerateShardsOpts) ([]gbam.Shard, error) {
	header, err := b.GetHeader()
	if err != nil {
		return nil, err
	}
	return gbam.GetContigShards(header, opts.NumShards), nil
}

// NewIterator implements the Provider interface.
func (b *BAMProvider) NewIterator(shard gbam.Shard) Iterator {
	iter := b.allocateIterator()
	if iter.err != nil {
		return iter
	}
	iter.reset(shard)
	return iter
}

// Reset the iterator to read the references [shard.StartRef, shard.EndRef].
func (i *bamIterator) reset(shard gbam.Shard) {
	i.lastRefID = -1
	if shard.Empty() {
		i.err = io.EOF
		return
	}
	i.startRefID, i.endRefID = shard.StartRef.ID(), shard.EndRef.ID()
	if i.index == nil || i.startRefID == 0 {
		i.err = i.reader.Seek(i.firstRecord)
		return
	}

	// Find the file offset at which the first record of the shard is located.
	header := i.reader.Header()
	for id := i.startRefID; id <= i.endRefID; id++ {
		found, offset, err := i.findRecordOffset(header.Refs()[id])
		if err != nil {
			i.err = err
			return
		}
		if found {
			i.err = i.reader.Seek(offset)
			return
		}
		vlog.VI(2).Infof("%s: no index entry for %s", i.provider.Path, header.Refs()[id].Name())
	}
	// No ref in the shard has any record.
	i.err = io.EOF
}

// Find the the file offset at which the first record of ref is stored. This
// function is conservative; it may return an offset that's smaller than
// absolutely necessary.
func (i *bamIterator) findRecordOffset(ref *sam.Reference) (bool, bgzf.Offset, error) {
	chunks, err := i.index.Chunks(ref, 0, ref.Len())
	if err == index.ErrInvalid || (err == nil && len(chunks) == 0) {
		return false, bgzf.Offset{}, nil
	}
	if err != nil {
		return false, bgzf.Offset{}, errors.Wrapf(err, "bamprovider: index lookup for %s", ref.Name())
	}
	return true, chunks[0].Begin, nil
}

// Err implements the Iterator interface.
func (i *bamIterator) Err() error {
	if i.err == io.EOF {
		return nil
	}
	return i.err
}

// Close implements the Iterator interface.
func (i *bamIterator) Close() error {
	err := i.Err()
	i.provider.freeIterator(i)
	return err
}

func (i *bamIterator) Scan() bool {
	if !i.active {
		vlog.Fatal("Reusing iterator")
	}
	if i.err != nil {
		return false
	}
	for {
		i.next, i.err = i.reader.Read()
		if i.err != nil {
			return false
		}
		if i.next.Ref == nil {
			// Unmapped records are stored after all the mapped ones.
			i.err = io.EOF
			return false
		}
		id := i.next.Ref.ID()
		if id < i.lastRefID {
			i.err = errors.Errorf("bamprovider: %s is not coordinate sorted: %s on ref %d follows ref %d",
				i.provider.Path, i.next.Name, id, i.lastRefID)
			return false
		}
		i.lastRefID = id
		if id < i.startRefID {
			continue
		}
		if id > i.endRefID {
			i.err = io.EOF
			return false
		}
		return true
	}
}

func (i *bamIterator) Record() *sam.Record {
	return i.next
}

func (i *bamIterator) internalClose() {
	if i.reader != nil {
		if err := i.reader.Close(); err != nil && i.err == nil {
			i.err = err
		}
		i.reader = nil
	}
	if i.in != nil {
		if err := i.in.Close(vcontext.Background()); err != nil && i.err == nil {
			i.err = err
		}
		i.in = nil
	}
	i.provider.err.Set(i.Err())
}
