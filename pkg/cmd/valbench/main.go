// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// valbench exercises value containers and growable buffers under a handful
// of canned workloads and reports timings, growth behavior and accounted
// allocation footprints. It exists to make the cost of the representation
// choices visible: run the same workload under a primitive tag and under
// ref to compare the specialized layout against the boxed fallback.
//
// Workloads either come from flags (one workload) or from a TOML file:
//
//	[[workload]]
//	name = "append int64"
//	op = "append"
//	tag = "int64"
//	count = 1000000
//
// Shards run the workload on that many independent buffers in parallel;
// each buffer remains single-owner throughout.
package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/boxless/pkg/util/humanizeutil"
	"github.com/cockroachdb/boxless/pkg/val/valtypes"
	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	flagTag    string
	flagCount  int
	flagShards int
	flagBudget int64
	flagConfig string
)

type workloadSpec struct {
	Name  string `toml:"name"`
	Op    string `toml:"op"`
	Tag   string `toml:"tag"`
	Count int    `toml:"count"`
}

type benchConfig struct {
	Workloads []workloadSpec `toml:"workload"`
}

func loadWorkloads() ([]workloadSpec, error) {
	if flagConfig == "" {
		return []workloadSpec{{
			Name:  fmt.Sprintf("%s %s", flagTag, "append"),
			Op:    "append",
			Tag:   flagTag,
			Count: flagCount,
		}}, nil
	}
	var cfg benchConfig
	if _, err := toml.DecodeFile(flagConfig, &cfg); err != nil {
		return nil, errors.Wrapf(err, "reading %s", flagConfig)
	}
	if len(cfg.Workloads) == 0 {
		return nil, errors.Newf("%s defines no workloads", flagConfig)
	}
	return cfg.Workloads, nil
}

func runBench(cmd *cobra.Command, args []string) error {
	specs, err := loadWorkloads()
	if err != nil {
		return err
	}
	if flagShards < 1 {
		return errors.Newf("need at least one shard, got %d", flagShards)
	}

	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	for _, spec := range specs {
		tag, err := valtypes.FromString(spec.Tag)
		if err != nil {
			return err
		}
		if spec.Count <= 0 {
			return errors.Newf("workload %q: non-positive count %d", spec.Name, spec.Count)
		}
		res, err := runWorkload(spec, tag, flagShards, flagBudget)
		if err != nil {
			return errors.Wrapf(err, "workload %q", spec.Name)
		}
		bold.Printf("%s\n", spec.Name)
		fmt.Printf("  op=%s tag=%s count=%d shards=%d\n", spec.Op, tag, spec.Count, flagShards)
		fmt.Printf("  elapsed    %s\n", green.Sprint(humanizeutil.Duration(res.elapsed)))
		fmt.Printf("  reallocs   %d\n", res.reallocs)
		fmt.Printf("  copies     %d elements\n", res.elemCopies)
		fmt.Printf("  footprint  %s\n", humanizeutil.IBytes(res.peakBytes))
	}
	return nil
}

func main() {
	cmd := &cobra.Command{
		Use:           "valbench",
		Short:         "benchmark tag-dispatched value containers",
		RunE:          runBench,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&flagTag, "tag", "int64", "element category for the flag-defined workload")
	cmd.Flags().IntVar(&flagCount, "count", 1_000_000, "elements per shard")
	cmd.Flags().IntVar(&flagShards, "shards", 1, "independent buffers run in parallel")
	cmd.Flags().Var(humanizeutil.NewBytesValue(&flagBudget), "budget",
		"total allocation budget across shards (0 for unlimited)")
	cmd.Flags().StringVar(&flagConfig, "config", "", "TOML workload file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
