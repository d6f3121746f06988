// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package main

import (
	"testing"

	"github.com/cockroachdb/boxless/pkg/util/leaktest"
	"github.com/cockroachdb/boxless/pkg/val/valtypes"
	"github.com/stretchr/testify/require"
)

func TestRunWorkload(t *testing.T) {
	defer leaktest.AfterTest(t)()
	for _, op := range []string{"append", "scan", "set", "map"} {
		for _, tag := range []valtypes.T{valtypes.Int32, valtypes.Float64, valtypes.Ref} {
			spec := workloadSpec{Name: op, Op: op, Tag: tag.String(), Count: 1000}
			res, err := runWorkload(spec, tag, 2, 0)
			require.NoError(t, err, "op %s tag %s", op, tag)
			require.NotZero(t, res.reallocs, "op %s tag %s", op, tag)
			// The reported buffer is still held by the shard account when its
			// footprint is read, derived buffers included.
			require.NotZero(t, res.peakBytes, "op %s tag %s", op, tag)
		}
	}
}

func TestRunWorkloadOverBudget(t *testing.T) {
	defer leaktest.AfterTest(t)()
	spec := workloadSpec{Name: "append", Op: "append", Tag: "int64", Count: 1 << 20}
	_, err := runWorkload(spec, valtypes.Int64, 1, 1024)
	require.Error(t, err)
}

func TestRunWorkloadUnknownOp(t *testing.T) {
	defer leaktest.AfterTest(t)()
	spec := workloadSpec{Name: "bogus", Op: "bogus", Tag: "int64", Count: 10}
	_, err := runWorkload(spec, valtypes.Int64, 1, 0)
	require.Error(t, err)
}
