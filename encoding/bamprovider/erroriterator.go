// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bamprovider

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
)

// errorIterator stands in for an iterator that could not be positioned.
type errorIterator struct {
	err error
}

func (i *errorIterator) Scan() bool { return false }

func (i *errorIterator) Record() *sam.Record {
	log.Panicf("bamprovider: Record on a failed iterator: %v", i.err)
	return nil
}

func (i *errorIterator) Err() error   { return i.err }
func (i *errorIterator) Close() error { return i.err }

// NewErrorIterator returns an Iterator that yields no records and reports err
// from both Err and Close. It does not count against any provider's active
// iterators.
func NewErrorIterator(err error) Iterator {
	return &errorIterator{err: err}
}
