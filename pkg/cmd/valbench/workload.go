// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package main

import (
	"time"

	"github.com/cockroachdb/boxless/pkg/util/mon"
	"github.com/cockroachdb/boxless/pkg/val/valbuf"
	"github.com/cockroachdb/boxless/pkg/val/valdata"
	"github.com/cockroachdb/boxless/pkg/val/valtypes"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

type workloadResult struct {
	elapsed    time.Duration
	reallocs   int64
	elemCopies int64
	peakBytes  int64
}

// runWorkload runs one workload on shards independent buffers and returns
// the aggregate. Each shard has its own account and its own buffer; nothing
// is shared, so the containers' single-owner model holds within every
// shard.
func runWorkload(
	spec workloadSpec, tag valtypes.T, shards int, budget int64,
) (workloadResult, error) {
	results := make([]workloadResult, shards)
	start := time.Now()

	var g errgroup.Group
	for shard := 0; shard < shards; shard++ {
		shard := shard
		g.Go(func() (err error) {
			// Budget violations surface as panics from the allocator, the
			// same way a failed native allocation would. Report them as the
			// workload's error instead of crashing the bench.
			defer func() {
				if r := recover(); r != nil {
					err = errors.Newf("shard %d: %v", shard, r)
				}
			}()

			var acc *mon.BytesAccount
			if budget > 0 {
				acc = mon.NewAccountWithLimit(budget / int64(shards))
			} else {
				acc = mon.NewUnlimitedAccount()
			}
			alloc := valdata.NewAllocator(acc)

			b, err := runOp(spec, tag, alloc)
			if err != nil {
				return err
			}
			results[shard].reallocs, results[shard].elemCopies = b.GrowthStats()
			results[shard].peakBytes = acc.Used()
			b.Close()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return workloadResult{}, err
	}

	agg := workloadResult{elapsed: time.Since(start)}
	for _, r := range results {
		agg.reallocs += r.reallocs
		agg.elemCopies += r.elemCopies
		agg.peakBytes += r.peakBytes
	}
	return agg, nil
}

// runOp runs a single shard's operation and returns the buffer whose stats
// should be reported.
func runOp(spec workloadSpec, tag valtypes.T, alloc *valdata.Allocator) (*valbuf.Buffer, error) {
	switch spec.Op {
	case "append":
		b := valbuf.NewWithAllocator(alloc, tag, 0)
		appendElements(b, tag, spec.Count)
		return b, nil

	case "scan":
		b := valbuf.NewWithAllocator(alloc, tag, 0)
		appendElements(b, tag, spec.Count)
		switch tag.Class() {
		case valtypes.IntClass:
			var sum int64
			for it := b.Iter(); it.Next(); {
				sum += it.Int64()
			}
			sink = sum
		case valtypes.FloatClass:
			var sum float64
			for it := b.Iter(); it.Next(); {
				sum += it.Float64()
			}
			sink = sum
		case valtypes.RefClass:
			for it := b.Iter(); it.Next(); {
				sink = it.Ref()
			}
		}
		return b, nil

	case "set":
		b := valbuf.NewWithAllocator(alloc, tag, 0)
		appendElements(b, tag, spec.Count)
		for i := 0; i < b.Len(); i++ {
			switch tag.Class() {
			case valtypes.IntClass:
				b.SetInt64(i, int64(b.Len()-i))
			case valtypes.FloatClass:
				b.SetFloat64(i, float64(b.Len()-i))
			case valtypes.RefClass:
				b.SetRef(i, i)
			}
		}
		return b, nil

	case "map":
		src := valbuf.NewWithAllocator(alloc, tag, 0)
		appendElements(src, tag, spec.Count)
		var mapped *valbuf.Buffer
		switch tag.Class() {
		case valtypes.IntClass:
			mapped = src.Map(valtypes.Float64, func(v any) any {
				return asFloat64(v) + 0.5
			})
		case valtypes.FloatClass:
			mapped = src.Map(valtypes.Int64, func(v any) any {
				return int64(v.(float64))
			})
		case valtypes.RefClass:
			mapped = src.Map(valtypes.Ref, func(v any) any { return v })
		}
		// The derived buffer is charged to the same allocator as src, so the
		// source can be returned to the account as soon as the mapping is done.
		src.Close()
		sink = mapped.Len()
		return mapped, nil

	default:
		return nil, errors.Newf("unknown op %q", spec.Op)
	}
}

// sink defeats dead-code elimination of scan results.
var sink any

// asFloat64 widens a boxed integral element, whatever its stored width.
func asFloat64(v any) float64 {
	switch v := v.(type) {
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case int16:
		return float64(v)
	case uint16:
		return float64(v)
	case int8:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case struct{}:
		return 0
	default:
		panic(errors.AssertionFailedf("unexpected boxed element %T", v))
	}
}

func appendElements(b *valbuf.Buffer, tag valtypes.T, count int) {
	switch tag.Class() {
	case valtypes.IntClass:
		for i := 0; i < count; i++ {
			b.AppendInt64(int64(i))
		}
	case valtypes.FloatClass:
		for i := 0; i < count; i++ {
			b.AppendFloat64(float64(i) * 0.5)
		}
	case valtypes.RefClass:
		for i := 0; i < count; i++ {
			b.AppendRef(i)
		}
	}
}
