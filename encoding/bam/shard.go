// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bam

import (
	"fmt"

	"github.com/grailbio/hts/sam"
	"v.io/x/lib/vlog"
)

// Shard is a run of whole references, [StartRef, EndRef] inclusive, in header
// order. A record belongs to the shard if it is aligned to one of those
// references. Unmapped records belong to no shard.
//
// The Shards are ordered according to the order of the header references.
// ShardIdx is an index into that ordering. The first Shard has index 0, and
// the subsequent shards increment the ShardIdx by one each.
type Shard struct {
	StartRef *sam.Reference
	EndRef   *sam.Reference
	ShardIdx int
}

// UniversalShard creates a Shard that covers every reference in the header.
// The shard is empty if the header has no references.
func UniversalShard(header *sam.Header) Shard {
	refs := header.Refs()
	if len(refs) == 0 {
		return Shard{}
	}
	return Shard{StartRef: refs[0], EndRef: refs[len(refs)-1]}
}

// Empty returns true if s covers no reference.
func (s *Shard) Empty() bool {
	return s.StartRef == nil || s.EndRef == nil || s.StartRef.ID() > s.EndRef.ID()
}

// NumRefs returns the number of references covered by s.
func (s *Shard) NumRefs() int {
	if s.Empty() {
		return 0
	}
	return s.EndRef.ID() - s.StartRef.ID() + 1
}

// ContainsRef returns true if ref is one of the references covered by s. A nil
// ref (unmapped) is never contained.
func (s *Shard) ContainsRef(ref *sam.Reference) bool {
	if ref == nil || s.Empty() {
		return false
	}
	id := ref.ID()
	return id >= s.StartRef.ID() && id <= s.EndRef.ID()
}

// RecordInShard returns true if r is aligned to a reference covered by s.
func (s *Shard) RecordInShard(r *sam.Record) bool {
	return s.ContainsRef(r.Ref)
}

// String returns a debug string for s.
func (s *Shard) String() string {
	if s.Empty() {
		return fmt.Sprintf("%d:(empty)", s.ShardIdx)
	}
	return fmt.Sprintf("%d:(%s[%d])-(%s[%d])",
		s.ShardIdx, s.StartRef.Name(), s.StartRef.ID(), s.EndRef.Name(), s.EndRef.ID())
}

// GetContigShards partitions the header references into at most numShards
// contiguous runs of roughly equal total length. Every shard covers at least
// one reference, and every reference is covered by exactly one shard. It
// returns nil if the header has no references.
func GetContigShards(header *sam.Header, numShards int) []Shard {
	refs := header.Refs()
	if len(refs) == 0 {
		return nil
	}
	numShards = max(1, min(numShards, len(refs)))
	var total int64
	for _, ref := range refs {
		total += int64(ref.Len())
	}

	var (
		shards []Shard
		start  int
		cum    int64
	)
	for i, ref := range refs {
		cum += int64(ref.Len())
		remainingRefs := len(refs) - i - 1
		remainingShards := numShards - len(shards) - 1
		boundary := total * int64(len(shards)+1) / int64(numShards)
		if i == len(refs)-1 || remainingRefs == remainingShards || (remainingShards > 0 && cum >= boundary) {
			shards = append(shards, Shard{StartRef: refs[start], EndRef: ref, ShardIdx: len(shards)})
			start = i + 1
		}
	}
	ValidateShardList(header, shards)
	return shards
}

// ValidateShardList validates that shardList covers every reference of the
// header exactly once, in order. Exposed only for testing.
func ValidateShardList(header *sam.Header, shardList []Shard) {
	next := 0
	for i, shard := range shardList {
		if shard.Empty() {
			vlog.Panicf("Shard %d is empty: %v", i, shard.String())
		}
		if shard.ShardIdx != i {
			vlog.Panicf("Shard %d has index %d", i, shard.ShardIdx)
		}
		if shard.StartRef.ID() != next {
			vlog.Panicf("Shard gap before %s: expected ref %d, got %d", shard.String(), next, shard.StartRef.ID())
		}
		next = shard.EndRef.ID() + 1
	}
	if n := len(header.Refs()); next != n {
		vlog.Panicf("Shards cover %d of %d references", next, n)
	}
}

func min(x, y int) int {
	if y < x {
		return y
	}
	return x
}

func max(x, y int) int {
	if y > x {
		return y
	}
	return x
}
