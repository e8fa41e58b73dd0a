// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/parsem/pileup/depth"
	"v.io/x/lib/cmdline"
)

// parseFlags are the flags shared by all subcommands.
type parseFlags struct {
	bamIndex            *string
	flagExclude         *int
	mapq                *int
	minBaseQual         *int
	minLen              *int
	ignoreSupplementary *bool
	outlierCoverage     *bool
	parallelism         *int
	bgzip               *bool
	contigs             *string
}

func newParseFlags(fs *flag.FlagSet) parseFlags {
	return parseFlags{
		bamIndex:            fs.String("index", depth.DefaultOpts.BamIndexPath, "Input BAM index filename, for a single input. By default set to input bampath + .bai"),
		flagExclude:         fs.Int("flag-exclude", depth.DefaultOpts.FlagExclude, "Reads with a FLAG bit intersecting this value are skipped"),
		mapq:                fs.Int("mapq", depth.DefaultOpts.Mapq, "Reads with MAPQ below this level are skipped"),
		minBaseQual:         fs.Int("min-base-qual", depth.DefaultOpts.MinBaseQual, "Bases with quality below this level do not count toward depth"),
		minLen:              fs.Int("min-len", depth.DefaultOpts.MinQueryLen, "Reads whose CIGAR consumes fewer query bases are skipped"),
		ignoreSupplementary: fs.Bool("ignore-supplementary", depth.DefaultOpts.IgnoreSupplementary, "Supplementary alignments are never used as link evidence"),
		outlierCoverage:     fs.Bool("outlier-coverage", depth.DefaultOpts.OutlierCoverage, "Leave positions more than one standard deviation from the mean depth out of the coverage"),
		parallelism:         fs.Int("parallelism", depth.DefaultOpts.Parallelism, "Number of shards to split each input into; 0 = runtime.NumCPU()"),
		bgzip:               fs.Bool("bgzip", false, "Compress the output with bgzip"),
		contigs:             fs.String("contigs", "", "Comma-separated contig names. If set, only these contigs are parsed"),
	}
}

func (f parseFlags) opts() depth.Opts {
	var contigs []string
	if *f.contigs != "" {
		contigs = strings.Split(*f.contigs, ",")
	}
	return depth.Opts{
		BamIndexPath:        *f.bamIndex,
		FlagExclude:         *f.flagExclude,
		Mapq:                *f.mapq,
		MinBaseQual:         *f.minBaseQual,
		MinQueryLen:         *f.minLen,
		IgnoreSupplementary: *f.ignoreSupplementary,
		OutlierCoverage:     *f.outlierCoverage,
		Parallelism:         *f.parallelism,
		Contigs:             contigs,
	}
}

func newCmdCoverage() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "coverage",
		Short:    "Compute the coverage of each contig in each BAM file",
		ArgsName: "bampath...",
	}
	flags := newParseFlags(&cmd.Flags)
	out := cmd.Flags.String("out", "parsem.coverage.tsv", "Output coverage TSV path")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return fmt.Errorf("coverage takes one or more bampath arguments")
		}
		return runCoverage(vcontext.Background(), flags.opts(), *flags.bgzip, *out, argv)
	})
	return cmd
}

func newCmdLinks() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "links",
		Short:    "Find read pairs that link two contigs",
		ArgsName: "bampath...",
	}
	flags := newParseFlags(&cmd.Flags)
	out := cmd.Flags.String("out", "parsem.links.tsv", "Output links TSV path")
	coverageOut := cmd.Flags.String("coverage-out", "", "If set, also write the coverage TSV to this path")
	countsOut := cmd.Flags.String("counts-out", "", "If set, also write the number of links of each contig pair to this path")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return fmt.Errorf("links takes one or more bampath arguments")
		}
		return runLinks(vcontext.Background(), flags.opts(), *flags.bgzip, linksOutputs{links: *out, coverage: *coverageOut, counts: *countsOut}, argv)
	})
	return cmd
}

func runCoverage(ctx context.Context, opts depth.Opts, bgzip bool, out string, paths []string) error {
	results, err := depth.Parse(ctx, paths, &opts)
	if err != nil {
		return err
	}
	defer results.Release()
	return depth.WriteCoverageFile(ctx, out, results, bgzip, opts.Parallelism)
}

// linksOutputs are the output paths of the links command. Empty coverage and
// counts paths are skipped.
type linksOutputs struct {
	links, coverage, counts string
}

func runLinks(ctx context.Context, opts depth.Opts, bgzip bool, out linksOutputs, paths []string) error {
	opts.Links = true
	results, err := depth.Parse(ctx, paths, &opts)
	if err != nil {
		return err
	}
	defer results.Release()
	if err := depth.WriteLinksFile(ctx, out.links, results, bgzip, opts.Parallelism); err != nil {
		return err
	}
	if out.counts != "" {
		if err := depth.WriteLinkCountsFile(ctx, out.counts, results, bgzip, opts.Parallelism); err != nil {
			return err
		}
	}
	if out.coverage == "" {
		return nil
	}
	return depth.WriteCoverageFile(ctx, out.coverage, results, bgzip, opts.Parallelism)
}
