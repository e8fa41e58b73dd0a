// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package coverage

import (
	"sort"

	"github.com/grailbio/base/log"
)

// PairKey identifies an unordered pair of distinct contigs. Low < High always
// holds for keys built by NewPairKey.
type PairKey struct {
	Low, High uint32
}

// NewPairKey returns the canonical key for contigs a and b, in either order.
func NewPairKey(a, b uint32) PairKey {
	if a < b {
		return PairKey{Low: a, High: b}
	}
	return PairKey{Low: b, High: a}
}

// LinkRecord describes one read pair spanning two contigs. The Low fields
// describe the read aligned to the lower contig ID of the bucket key, the High
// fields the read aligned to the higher one. Reverse is true when the read
// aligned to the reverse strand.
type LinkRecord struct {
	PosLow      uint32
	ReverseLow  bool
	PosHigh     uint32
	ReverseHigh bool
	Sample      uint32
}

// LinkBucket holds every link recorded between one pair of contigs, in
// insertion order.
type LinkBucket struct {
	Key     PairKey
	Records []LinkRecord
}

// Count returns the number of links in the bucket.
func (b *LinkBucket) Count() int { return len(b.Records) }

// ForEachRecord calls fn on each record, stopping at the first error.
func (b *LinkBucket) ForEachRecord(fn func(rec LinkRecord) error) error {
	for _, rec := range b.Records {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// LinkIndex maps contig pairs to their link buckets. Buckets are created on
// the first link for a pair and are never removed individually.
type LinkIndex struct {
	buckets  map[PairKey]*LinkBucket
	nRecords int
}

// NewLinkIndex creates an empty index.
func NewLinkIndex() *LinkIndex {
	return &LinkIndex{buckets: make(map[PairKey]*LinkBucket)}
}

func (x *LinkIndex) bucket(key PairKey) *LinkBucket {
	b := x.buckets[key]
	if b == nil {
		b = &LinkBucket{Key: key}
		x.buckets[key] = b
	}
	return b
}

// AddLink records a read pair with one end at posA on contigA and the other
// at posB on contigB. The contigs may be given in either order; the record is
// stored relative to the canonical (low, high) order. contigA must differ from
// contigB.
func (x *LinkIndex) AddLink(contigA, contigB, posA, posB uint32, reverseA, reverseB bool, sample uint32) {
	if contigA == contigB {
		log.Panicf("coverage.AddLink: link within contig %d", contigA)
	}
	rec := LinkRecord{
		PosLow:      posA,
		ReverseLow:  reverseA,
		PosHigh:     posB,
		ReverseHigh: reverseB,
		Sample:      sample,
	}
	if contigA > contigB {
		rec.PosLow, rec.PosHigh = posB, posA
		rec.ReverseLow, rec.ReverseHigh = reverseB, reverseA
	}
	b := x.bucket(NewPairKey(contigA, contigB))
	b.Records = append(b.Records, rec)
	x.nRecords++
}

// Bucket returns the bucket for contigs a and b (in either order), or nil if
// no link between them has been recorded.
func (x *LinkIndex) Bucket(a, b uint32) *LinkBucket {
	return x.buckets[NewPairKey(a, b)]
}

// NumBuckets returns the number of contig pairs with at least one link.
func (x *LinkIndex) NumBuckets() int { return len(x.buckets) }

// NumRecords returns the total number of links across all buckets.
func (x *LinkIndex) NumRecords() int { return x.nRecords }

// sortedKeys returns the bucket keys in ascending (Low, High) order.
func (x *LinkIndex) sortedKeys() []PairKey {
	keys := make([]PairKey, 0, len(x.buckets))
	for k := range x.buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Low != keys[j].Low {
			return keys[i].Low < keys[j].Low
		}
		return keys[i].High < keys[j].High
	})
	return keys
}

// ForEachBucket calls fn on every bucket exactly once, in ascending (Low,
// High) order. It stops at the first error and returns it. fn must not add
// links to x.
func (x *LinkIndex) ForEachBucket(fn func(b *LinkBucket) error) error {
	for _, k := range x.sortedKeys() {
		if err := fn(x.buckets[k]); err != nil {
			return err
		}
	}
	return nil
}

// MergeFrom appends every record of other to the matching bucket of x, adding
// sampleOffset to each record's sample ID. other is not modified.
func (x *LinkIndex) MergeFrom(other *LinkIndex, sampleOffset uint32) {
	for _, k := range other.sortedKeys() {
		src := other.buckets[k]
		dst := x.bucket(k)
		if cap(dst.Records)-len(dst.Records) < len(src.Records) {
			grown := make([]LinkRecord, len(dst.Records), len(dst.Records)+len(src.Records))
			copy(grown, dst.Records)
			dst.Records = grown
		}
		for _, rec := range src.Records {
			rec.Sample += sampleOffset
			dst.Records = append(dst.Records, rec)
		}
		x.nRecords += len(src.Records)
	}
}

// reset drops every bucket.
func (x *LinkIndex) reset() {
	for k, b := range x.buckets {
		b.Records = nil
		delete(x.buckets, k)
	}
	x.nRecords = 0
}
