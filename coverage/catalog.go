// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package coverage

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

// Contig is a reference sequence. ID is dense and 0-based, and matches the
// reference ID in the alignment header the catalog was built from.
type Contig struct {
	ID     int
	Name   string
	Length uint32
}

// Catalog is the immutable list of contigs for one run.
type Catalog struct {
	contigs []Contig
}

// NewCatalog creates a catalog. Contig i gets ID i.
func NewCatalog(names []string, lengths []uint32) (*Catalog, error) {
	if len(names) != len(lengths) {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("coverage.NewCatalog: %d names but %d lengths", len(names), len(lengths)))
	}
	c := &Catalog{contigs: make([]Contig, len(names))}
	for i := range names {
		c.contigs[i] = Contig{ID: i, Name: names[i], Length: lengths[i]}
	}
	return c, nil
}

// CatalogFromHeader builds a catalog from the references of a SAM header, in
// header order.
func CatalogFromHeader(header *sam.Header) *Catalog {
	refs := header.Refs()
	c := &Catalog{contigs: make([]Contig, len(refs))}
	for i, ref := range refs {
		c.contigs[i] = Contig{ID: i, Name: ref.Name(), Length: uint32(ref.Len())}
	}
	return c
}

// Len returns the number of contigs.
func (c *Catalog) Len() int { return len(c.contigs) }

// Contig returns the contig with the given ID.
func (c *Catalog) Contig(id int) Contig { return c.contigs[id] }

// Name returns the name of the contig with the given ID.
func (c *Catalog) Name(id int) string { return c.contigs[id].Name }

// Length returns the length of the contig with the given ID.
func (c *Catalog) Length(id int) uint32 { return c.contigs[id].Length }

// Equal reports whether both catalogs list the same contigs, in the same
// order.
func (c *Catalog) Equal(other *Catalog) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil || len(c.contigs) != len(other.contigs) {
		return false
	}
	for i := range c.contigs {
		if c.contigs[i] != other.contigs[i] {
			return false
		}
	}
	return true
}
