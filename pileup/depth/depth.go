// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package depth

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/parsem/coverage"
	"github.com/grailbio/parsem/encoding/bamprovider"
	"github.com/grailbio/parsem/pileup"
)

// depthMutable accumulates the per-position depth of one shard of one input
// into a single-sample coverage.Results.
type depthMutable struct {
	results     *coverage.Results
	refs        []*sam.Reference
	filter      pileup.ReadFilter
	minBaseQual byte
	links       bool
	ignoreSupp  bool

	// refID is the reference whose depths are in buf, or -1.
	refID int
	// buf is the depth buffer of refID. Its backing array is reused across
	// references.
	buf []uint32
}

func newDepthMutable(catalog *coverage.Catalog, refs []*sam.Reference, opts *Opts) *depthMutable {
	return &depthMutable{
		results:     coverage.NewResults(catalog, 1, opts.flags()),
		refs:        refs,
		filter:      opts.readFilter(),
		minBaseQual: byte(opts.MinBaseQual),
		links:       opts.Links,
		ignoreSupp:  opts.IgnoreSupplementary,
		refID:       -1,
	}
}

// finishRef hands the depths of the current reference to the results.
func (dm *depthMutable) finishRef() {
	if dm.refID < 0 {
		return
	}
	dm.results.RecordContigDepths(dm.refID, [][]uint32{dm.buf})
	dm.refID = -1
}

func (dm *depthMutable) nextRef(newRefID int) {
	dm.finishRef()
	n := dm.refs[newRefID].Len()
	if cap(dm.buf) < n {
		dm.buf = make([]uint32, n)
	} else {
		dm.buf = dm.buf[:n]
		for i := range dm.buf {
			dm.buf[i] = 0
		}
	}
	dm.refID = newRefID
}

// addRead adds the aligned bases of r to the depth buffer. Deleted and skipped
// reference positions never count, and neither do bases below the quality
// threshold. Link evidence is taken at the read's first reference position,
// and only if an aligned base of sufficient quality sits there.
func (dm *depthMutable) addRead(r *sam.Record) {
	refPos := r.Pos
	queryPos := 0
	head := true
	for _, co := range r.Cigar {
		n := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			for i := 0; i < n; i++ {
				pos := refPos + i
				if pos < 0 || pos >= len(dm.buf) {
					head = false
					continue
				}
				qpos := queryPos + i
				if qpos < len(r.Qual) && r.Qual[qpos] < dm.minBaseQual {
					head = false
					continue
				}
				dm.buf[pos]++
				if head {
					dm.maybeAddLink(r)
					head = false
				}
			}
			refPos += n
			queryPos += n
		case sam.CigarInsertion, sam.CigarSoftClipped:
			queryPos += n
		case sam.CigarDeletion, sam.CigarSkipped:
			if n > 0 {
				head = false
			}
			refPos += n
		}
	}
}

func (dm *depthMutable) maybeAddLink(r *sam.Record) {
	if !dm.links || !pileup.IsLinkCandidate(r, dm.ignoreSupp) {
		return
	}
	dm.results.Links().AddLink(uint32(r.Ref.ID()), uint32(r.MateRef.ID()),
		uint32(r.Pos), uint32(r.MatePos),
		r.Flags&sam.Reverse != 0, r.Flags&sam.MateReverse != 0, 0)
}

func (dm *depthMutable) processIterator(iter bamprovider.Iterator) (err error) {
	defer func() {
		if e := iter.Close(); e != nil && err == nil {
			err = e
		}
	}()
	for iter.Scan() {
		r := iter.Record()
		if !dm.filter.Keep(r) {
			sam.PutInFreePool(r)
			continue
		}
		if id := r.Ref.ID(); id != dm.refID {
			dm.nextRef(id)
		}
		dm.addRead(r)
		sam.PutInFreePool(r)
	}
	dm.finishRef()
	return
}

// iteratorFactories returns one iterator constructor per unit of work: a
// shard of the provider's references, or a single named contig when
// opts.Contigs is set.
func iteratorFactories(provider bamprovider.Provider, opts *Opts) ([]func() bamprovider.Iterator, error) {
	var factories []func() bamprovider.Iterator
	if len(opts.Contigs) > 0 {
		for _, name := range opts.Contigs {
			name := name
			factories = append(factories, func() bamprovider.Iterator {
				return bamprovider.NewContigIterator(provider, name)
			})
		}
		return factories, nil
	}
	shards, err := provider.GenerateShards(bamprovider.GenerateShardsOpts{NumShards: opts.parallelism()})
	if err != nil {
		return nil, err
	}
	for _, shard := range shards {
		shard := shard
		factories = append(factories, func() bamprovider.Iterator {
			return provider.NewIterator(shard)
		})
	}
	return factories, nil
}

// parseProvider computes the single-sample results of one input. Its
// references are split into shards (or into the requested contigs); every
// shard is parsed into its own results by a separate worker, and the shard
// results are accumulated.
func parseProvider(catalog *coverage.Catalog, provider bamprovider.Provider, name string, opts *Opts) (*coverage.Results, error) {
	header, err := provider.GetHeader()
	if err != nil {
		return nil, err
	}
	factories, err := iteratorFactories(provider, opts)
	if err != nil {
		return nil, err
	}
	log.Debug.Printf("depth: %s: %d shards", name, len(factories))

	shardResults := make([]*coverage.Results, len(factories))
	err = traverse.Each(len(factories), func(shardIdx int) error {
		dm := newDepthMutable(catalog, header.Refs(), opts)
		if err := dm.processIterator(factories[shardIdx]()); err != nil {
			return err
		}
		shardResults[shardIdx] = dm.results
		return nil
	})
	if err != nil {
		return nil, err
	}

	results := coverage.NewResults(catalog, 1, opts.flags())
	results.SetSampleName(0, name)
	for _, sr := range shardResults {
		results.Merge(sr, coverage.MergeAccumulate)
		sr.Release()
	}
	return results, nil
}

// parseProviders parses each provider into one sample, and concatenates the
// samples in input order. names[i] names the sample of providers[i].
func parseProviders(ctx context.Context, providers []bamprovider.Provider, names []string, opts *Opts) (*coverage.Results, error) {
	if err := validate(opts, len(providers)); err != nil {
		return nil, err
	}
	var results *coverage.Results
	for i, provider := range providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		header, err := provider.GetHeader()
		if err != nil {
			return nil, err
		}
		catalog := coverage.CatalogFromHeader(header)
		sample, err := parseProvider(catalog, provider, names[i], opts)
		if err != nil {
			return nil, err
		}
		log.Printf("depth: parsed %s (%d/%d)", names[i], i+1, len(providers))
		if results == nil {
			results = sample
			continue
		}
		if err := results.Compatible(sample); err != nil {
			return nil, errors.E(errors.Invalid, err, "depth: "+names[i]+" and "+names[0]+" have different references")
		}
		results.Merge(sample, coverage.MergeConcatenate)
		sample.Release()
	}
	return results, nil
}

// Parse reads the coordinate-sorted BAM files at paths and returns their
// coverage results, with one sample per file in the given order. Every file
// must have the same references.
func Parse(ctx context.Context, paths []string, opts *Opts) (results *coverage.Results, err error) {
	providers := make([]bamprovider.Provider, len(paths))
	for i, path := range paths {
		providers[i] = bamprovider.NewProvider(path, bamprovider.ProviderOpts{Index: opts.BamIndexPath})
	}
	defer func() {
		for _, p := range providers {
			if e := p.Close(); e != nil && err == nil {
				err = e
			}
		}
	}()
	return parseProviders(ctx, providers, paths, opts)
}
