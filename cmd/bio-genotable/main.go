// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/genotype/genotable"
	"github.com/grailbio/genotype/store"
	"v.io/x/lib/cmdline"
)

func writeOptsFlags(cmd *cmdline.Command) *store.WriteOpts {
	opts := store.DefaultWriteOpts
	cmd.Flags.BoolVar(&opts.Snappy, "snappy", opts.Snappy, "Snappy-compress each taxon's calls")
	cmd.Flags.BoolVar(&opts.SiteTSV, "site-tsv", opts.SiteTSV, "Also write the per-site summary as gzipped TSV")
	return &opts
}

func newCmdSummary() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "summary",
		Short:    "Print the dimensions and chromosomes of a store",
		ArgsName: "prefix",
	}
	sites := cmd.Flags.Bool("sites", false, "Also print the per-site summary as TSV")
	header := cmd.Flags.String("header", "", "SAM file whose header the store's positions must follow, in reference order and within reference lengths")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("summary takes one prefix, but got %v", argv)
		}
		return summary(vcontext.Background(), env.Stdout, argv[0], *sites, *header)
	})
	return cmd
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func newCmdFilter() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "filter",
		Short:    "Filter a store by taxa and site criteria",
		ArgsName: "srcprefix dstprefix",
	}
	var opts filterOpts
	cmd.Flags.StringVar(&opts.taxaToKeep, "taxa-keep", "", "Comma-separated taxa to keep")
	cmd.Flags.StringVar(&opts.taxaToRemove, "taxa-remove", "", "Comma-separated taxa to remove")
	cmd.Flags.Float64Var(&opts.minHet, "min-het", -1, "Minimum heterozygous share of a taxon's called sites; negative to disable")
	cmd.Flags.Float64Var(&opts.maxHet, "max-het", -1, "Maximum heterozygous share of a taxon's called sites; negative to disable")
	cmd.Flags.Float64Var(&opts.minNotMissing, "min-not-missing", 0, "Minimum share of sites a taxon must be called at")
	cmd.Flags.StringVar(&opts.sitesToKeep, "sites-keep", "", "Comma-separated site names to keep")
	cmd.Flags.StringVar(&opts.sitesToRemove, "sites-remove", "", "Comma-separated site names to remove")
	cmd.Flags.Float64Var(&opts.minMAF, "min-maf", -1, "Minimum minor allele frequency; negative to disable")
	cmd.Flags.Float64Var(&opts.maxMAF, "max-maf", 1, "Maximum minor allele frequency")
	cmd.Flags.IntVar(&opts.minCount, "min-count", 0, "Minimum number of taxa called at a site")
	wopts := writeOptsFlags(cmd)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("filter takes srcprefix dstprefix, but got %v", argv)
		}
		return filter(vcontext.Background(), opts, *wopts, argv[0], argv[1])
	})
	return cmd
}

func newCmdCombine() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "combine",
		Short:    "Concatenate the sites of several stores",
		ArgsName: "dstprefix srcprefix...",
	}
	join := cmd.Flags.String("join", "none", "How to reconcile differing taxa: none, union or intersect")
	wopts := writeOptsFlags(cmd)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) < 2 {
			return fmt.Errorf("combine takes dstprefix and at least one srcprefix, but got %v", argv)
		}
		j, err := parseJoin(*join)
		if err != nil {
			return err
		}
		return combine(vcontext.Background(), genotable.CombineOpts{Join: j}, *wopts, argv[0], argv[1:])
	})
	return cmd
}

func main() {
	shutdown := grail.Init()
	defer shutdown()
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-genotable",
			Short:    "Tools for working with genotype stores",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdSummary(),
				newCmdFilter(),
				newCmdCombine(),
			},
		})
}
