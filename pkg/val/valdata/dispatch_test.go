// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package valdata

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/cockroachdb/boxless/pkg/util/leaktest"
	"github.com/cockroachdb/boxless/pkg/val/valtypes"
	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"
)

// TestDispatchDataDriven exercises creation and fast/slow-path access
// through a datadriven script. Supported commands:
//
//	create tag=<tag> size=<n>     create the container under test
//	set idx=<i> val=<v> [expected=<tag>]
//	get idx=<i> [expected=<tag>]
//	clone                         replace the container with its clone
//	dump                          render the container
//	footprint                     backing storage bytes
//
// expected defaults to the container's tag. Slow-path hits are appended to
// the output of get/set so that the scripts document when the fallback runs.
func TestDispatchDataDriven(t *testing.T) {
	defer leaktest.AfterTest(t)()

	var c *Container
	var slowHits int
	defer TestingSetMismatchHook(func(actual, expected valtypes.T) {
		slowHits++
	})()

	scanTag := func(t *testing.T, d *datadriven.TestData, key string, def valtypes.T) valtypes.T {
		if !d.HasArg(key) {
			return def
		}
		var s string
		d.ScanArgs(t, key, &s)
		tag, err := valtypes.FromString(s)
		require.NoError(t, err)
		return tag
	}

	datadriven.RunTest(t, "testdata/dispatch", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "create":
			var tagStr string
			var size int
			d.ScanArgs(t, "tag", &tagStr)
			d.ScanArgs(t, "size", &size)
			tag, err := valtypes.FromString(tagStr)
			require.NoError(t, err)
			c = New(tag, size)
			return fmt.Sprintf("tag=%s len=%d", c.Tag(), c.Len())

		case "set":
			var idx int
			var valStr string
			d.ScanArgs(t, "idx", &idx)
			d.ScanArgs(t, "val", &valStr)
			expected := scanTag(t, d, "expected", c.Tag())
			slowHits = 0
			switch expected.Class() {
			case valtypes.IntClass:
				v, err := strconv.ParseInt(valStr, 10, 64)
				require.NoError(t, err)
				c.SetInt64(idx, v, expected)
			case valtypes.FloatClass:
				v, err := strconv.ParseFloat(valStr, 64)
				require.NoError(t, err)
				c.SetFloat64(idx, v, expected)
			case valtypes.RefClass:
				c.SetRef(idx, valStr)
			}
			if slowHits > 0 {
				return "ok (slow path)"
			}
			return "ok"

		case "get":
			var idx int
			d.ScanArgs(t, "idx", &idx)
			expected := scanTag(t, d, "expected", c.Tag())
			slowHits = 0
			var out string
			switch expected.Class() {
			case valtypes.IntClass:
				out = fmt.Sprintf("%d", c.Int64(idx, expected))
			case valtypes.FloatClass:
				out = fmt.Sprintf("%v", c.Float64(idx, expected))
			case valtypes.RefClass:
				out = fmt.Sprintf("%v", c.Ref(idx))
			}
			if slowHits > 0 {
				out += " (slow path)"
			}
			return out

		case "clone":
			c = c.Clone()
			return fmt.Sprintf("tag=%s len=%d", c.Tag(), c.Len())

		case "dump":
			return c.String()

		case "footprint":
			return fmt.Sprintf("%d bytes", c.Footprint())

		default:
			t.Fatalf("unknown command %q", d.Cmd)
			return ""
		}
	})
}
