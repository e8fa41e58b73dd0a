// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bamprovider

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
	gbam "github.com/grailbio/parsem/encoding/bam"
)

// ContigByName returns the reference of header called name, or nil.
func ContigByName(header *sam.Header, name string) *sam.Reference {
	for _, ref := range header.Refs() {
		if ref.Name() == name {
			return ref
		}
	}
	return nil
}

// NewContigIterator returns an iterator over the records aligned to the
// contig called name. If the header cannot be read, or has no such contig, the
// iterator yields nothing and its Close reports the error; an unknown contig
// is an errors.NotExist error.
func NewContigIterator(p Provider, name string) Iterator {
	header, err := p.GetHeader()
	if err != nil {
		return NewErrorIterator(err)
	}
	ref := ContigByName(header, name)
	if ref == nil {
		return NewErrorIterator(errors.E(errors.NotExist, fmt.Sprintf("bamprovider: contig %q is not in the header", name)))
	}
	return p.NewIterator(gbam.Shard{StartRef: ref, EndRef: ref})
}
