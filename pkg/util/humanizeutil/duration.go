// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package humanizeutil

import "time"

// Duration formats a duration with a granularity no finer than what a human
// cares about at that scale: microseconds under a millisecond, milliseconds
// under a second, a single decimal under a minute, whole seconds above.
func Duration(val time.Duration) string {
	val = val.Round(time.Microsecond)
	switch {
	case val == 0:
		return "0µs"
	case val < time.Millisecond:
		return val.String()
	case val < time.Second:
		return val.Round(time.Millisecond).String()
	case val < time.Minute:
		return val.Round(100 * time.Millisecond).String()
	default:
		return val.Round(time.Second).String()
	}
}
