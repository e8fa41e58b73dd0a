// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package bamprovider provides utilities for scanning a coordinate-sorted BAM
// file in parallel, one contig-range shard at a time.
//
// The Provider is an interface for reading a BAM file in parallel. Each
// Iterator yields the records aligned to the references of one shard.
package bamprovider
