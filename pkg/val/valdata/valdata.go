// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package valdata implements tag-dispatched value containers: fixed-size
// bulk storage that keeps each value category in an array of its natural
// width instead of boxing every element.
//
// A Container is created from a valtypes.T tag and holds the matching
// physical layout for its entire lifetime. Element access goes through one
// accessor family per width class (Int64, Float64, Ref); each accessor takes
// the caller's expected tag and reads the native array directly when the
// expectation matches the actual layout, falling back to the boxed path when
// it does not. The fallback is slower but never wrong, so a stale or generic
// expectation is a performance event, not an error.
//
// The backing arrays are never handed out. Everything outside this package
// sees elements only through the accessors, which is what lets the fast path
// trust the layout without re-validating it on every call.
package valdata

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/boxless/pkg/util/bitarray"
	"github.com/cockroachdb/boxless/pkg/val/valtypes"
	"github.com/cockroachdb/errors"
)

// Container is fixed-size storage for values of a single category. The
// category, the size, and the physical layout are all fixed at construction.
type Container struct {
	tag valtypes.T
	n   int
	// col is the backing storage, exactly one variant per tag: bitarray.A
	// for Bool, a natively sized slice for the numeric categories, []any
	// for Ref, and nil for Unit. It never escapes this package.
	col any
}

// New returns a container of n default-initialized slots of category t.
// A negative size or a tag outside the closed set fails fast.
func New(t valtypes.T, n int) *Container {
	if n < 0 {
		panic(errors.AssertionFailedf("negative container size %d", n))
	}
	c := &Container{tag: t, n: n}
	switch t {
	case valtypes.Bool:
		c.col = bitarray.New(n)
	case valtypes.Int8:
		c.col = make([]int8, n)
	case valtypes.Int16:
		c.col = make([]int16, n)
	case valtypes.Char:
		c.col = make([]uint16, n)
	case valtypes.Int32:
		c.col = make([]int32, n)
	case valtypes.Int64:
		c.col = make([]int64, n)
	case valtypes.Float32:
		c.col = make([]float32, n)
	case valtypes.Float64:
		c.col = make([]float64, n)
	case valtypes.Unit:
		// A unit container stores nothing but its size.
		c.col = nil
	case valtypes.Ref:
		c.col = make([]any, n)
	default:
		panic(errors.AssertionFailedf("unhandled tag %s", t))
	}
	return c
}

// Tag returns the category the container was created with.
func (c *Container) Tag() valtypes.T {
	return c.tag
}

// Len returns the number of slots in the container.
func (c *Container) Len() int {
	return c.n
}

// Clone returns a container of the same category and size with every element
// copied. The clone shares no storage with c.
func (c *Container) Clone() *Container {
	dst := New(c.tag, c.n)
	dst.CopySlice(c, 0, 0, c.n)
	return dst
}

// mismatchHook, when set, observes every slow-path access. It never affects
// control flow; it exists so that tests and tooling can count how often the
// optimistic expectation failed.
var mismatchHook func(actual, expected valtypes.T)

// TestingSetMismatchHook installs f as the slow-path observer and returns a
// function restoring the previous one.
func TestingSetMismatchHook(f func(actual, expected valtypes.T)) func() {
	prev := mismatchHook
	mismatchHook = f
	return func() { mismatchHook = prev }
}

func reportMismatch(actual, expected valtypes.T) {
	if mismatchHook != nil {
		mismatchHook(actual, expected)
	}
}

// Int64 returns the element at index i encoded in an int64 slot. expected is
// the tag the call site was specialized for; it must belong to the integral
// width class. When the container's actual layout is in the same class the
// read is a direct native access. When the container turned out to hold
// boxed values the element is unboxed instead, which is slower but produces
// the same result.
func (c *Container) Int64(i int, expected valtypes.T) int64 {
	if expected.Class() != valtypes.IntClass {
		panic(errors.AssertionFailedf(
			"int64 access with %s-class expectation %s", expected.Class(), expected))
	}
	// The two cases covering the hot categories come first.
	switch col := c.col.(type) {
	case []int64:
		return col[i]
	case []int32:
		return int64(col[i])
	case []int16:
		return int64(col[i])
	case []uint16:
		return int64(col[i])
	case []int8:
		return int64(col[i])
	case bitarray.A:
		if col.At(i) {
			return 1
		}
		return 0
	case nil:
		c.checkIdx(i)
		return 0
	case []any:
		reportMismatch(c.tag, expected)
		return decodeInt64(col[i])
	default:
		panic(errors.AssertionFailedf(
			"int64 access on %s container with expectation %s", c.tag, expected))
	}
}

// SetInt64 writes v, encoded in an int64 slot, at index i. On a container of
// an integral layout the value is narrowed to the native width. On a boxed
// container the stored representation follows expected, so that a later read
// through any path recovers the same logical value.
func (c *Container) SetInt64(i int, v int64, expected valtypes.T) {
	if expected.Class() != valtypes.IntClass {
		panic(errors.AssertionFailedf(
			"int64 access with %s-class expectation %s", expected.Class(), expected))
	}
	switch col := c.col.(type) {
	case []int64:
		col[i] = v
	case []int32:
		col[i] = int32(v)
	case []int16:
		col[i] = int16(v)
	case []uint16:
		col[i] = uint16(v)
	case []int8:
		col[i] = int8(v)
	case bitarray.A:
		col.Set(i, v != 0)
	case nil:
		c.checkIdx(i)
	case []any:
		reportMismatch(c.tag, expected)
		col[i] = boxInt64(v, expected)
	default:
		panic(errors.AssertionFailedf(
			"int64 access on %s container with expectation %s", c.tag, expected))
	}
}

// Float64 returns the element at index i encoded in a float64 slot. expected
// must belong to the floating width class. See Int64 for the fast/slow
// contract.
func (c *Container) Float64(i int, expected valtypes.T) float64 {
	if expected.Class() != valtypes.FloatClass {
		panic(errors.AssertionFailedf(
			"float64 access with %s-class expectation %s", expected.Class(), expected))
	}
	switch col := c.col.(type) {
	case []float64:
		return col[i]
	case []float32:
		return float64(col[i])
	case []any:
		reportMismatch(c.tag, expected)
		return decodeFloat64(col[i])
	default:
		panic(errors.AssertionFailedf(
			"float64 access on %s container with expectation %s", c.tag, expected))
	}
}

// SetFloat64 writes v, encoded in a float64 slot, at index i. On a boxed
// container the stored representation follows expected.
func (c *Container) SetFloat64(i int, v float64, expected valtypes.T) {
	if expected.Class() != valtypes.FloatClass {
		panic(errors.AssertionFailedf(
			"float64 access with %s-class expectation %s", expected.Class(), expected))
	}
	switch col := c.col.(type) {
	case []float64:
		col[i] = v
	case []float32:
		col[i] = float32(v)
	case []any:
		reportMismatch(c.tag, expected)
		col[i] = boxFloat64(v, expected)
	default:
		panic(errors.AssertionFailedf(
			"float64 access on %s container with expectation %s", c.tag, expected))
	}
}

// Ref returns the element at index i boxed. On a Ref container this is a
// direct read; on a primitive container the native element is boxed per the
// container's actual category. This is definitionally the always-correct
// reference path: it works on every container regardless of layout.
func (c *Container) Ref(i int) any {
	switch col := c.col.(type) {
	case []any:
		return col[i]
	case []int64:
		return col[i]
	case []int32:
		return col[i]
	case []int16:
		return col[i]
	case []uint16:
		return col[i]
	case []int8:
		return col[i]
	case []float64:
		return col[i]
	case []float32:
		return col[i]
	case bitarray.A:
		return col.At(i)
	case nil:
		c.checkIdx(i)
		return struct{}{}
	default:
		panic(errors.AssertionFailedf("unhandled tag %s", c.tag))
	}
}

// SetRef writes a boxed value at index i. On a primitive container the value
// is unboxed per the container's actual category; a boxed value of the wrong
// class is a contract violation.
func (c *Container) SetRef(i int, v any) {
	switch col := c.col.(type) {
	case []any:
		col[i] = v
	case []int64:
		col[i] = decodeInt64(v)
	case []int32:
		col[i] = int32(decodeInt64(v))
	case []int16:
		col[i] = int16(decodeInt64(v))
	case []uint16:
		col[i] = uint16(decodeInt64(v))
	case []int8:
		col[i] = int8(decodeInt64(v))
	case []float64:
		col[i] = decodeFloat64(v)
	case []float32:
		col[i] = float32(decodeFloat64(v))
	case bitarray.A:
		col.Set(i, decodeInt64(v) != 0)
	case nil:
		c.checkIdx(i)
	default:
		panic(errors.AssertionFailedf("unhandled tag %s", c.tag))
	}
}

// CopySlice copies elements [srcStartIdx, srcEndIdx) of src into c starting
// at destIdx. Both containers must have the same tag; the ranges must lie
// within the respective containers.
func (c *Container) CopySlice(src *Container, destIdx, srcStartIdx, srcEndIdx int) {
	if c.tag != src.tag {
		panic(errors.AssertionFailedf(
			"copying between %s and %s containers", src.tag, c.tag))
	}
	if srcStartIdx > srcEndIdx {
		panic(errors.AssertionFailedf(
			"inverted copy range [%d, %d)", srcStartIdx, srcEndIdx))
	}
	n := srcEndIdx - srcStartIdx
	if n == 0 {
		return
	}
	switch col := c.col.(type) {
	case []int64:
		copy(col[destIdx:destIdx+n], src.col.([]int64)[srcStartIdx:srcEndIdx])
	case []int32:
		copy(col[destIdx:destIdx+n], src.col.([]int32)[srcStartIdx:srcEndIdx])
	case []int16:
		copy(col[destIdx:destIdx+n], src.col.([]int16)[srcStartIdx:srcEndIdx])
	case []uint16:
		copy(col[destIdx:destIdx+n], src.col.([]uint16)[srcStartIdx:srcEndIdx])
	case []int8:
		copy(col[destIdx:destIdx+n], src.col.([]int8)[srcStartIdx:srcEndIdx])
	case []float64:
		copy(col[destIdx:destIdx+n], src.col.([]float64)[srcStartIdx:srcEndIdx])
	case []float32:
		copy(col[destIdx:destIdx+n], src.col.([]float32)[srcStartIdx:srcEndIdx])
	case []any:
		copy(col[destIdx:destIdx+n], src.col.([]any)[srcStartIdx:srcEndIdx])
	case bitarray.A:
		col.CopySlice(src.col.(bitarray.A), destIdx, srcStartIdx, srcEndIdx)
	case nil:
		src.checkIdx(srcEndIdx - 1)
		c.checkIdx(destIdx + n - 1)
	default:
		panic(errors.AssertionFailedf("unhandled tag %s", c.tag))
	}
}

// Footprint returns the size of the backing storage in bytes. A Bool
// container accounts one bit per element, a Unit container accounts nothing,
// and a Ref container accounts one machine word per element.
func (c *Container) Footprint() int64 {
	if c.tag == valtypes.Bool {
		return c.col.(bitarray.A).FootprintBytes()
	}
	return int64(c.n) * int64(c.tag.Width()) / 8
}

// PrettyValueAt returns a string representation of the element at index i,
// for debugging and test output.
func (c *Container) PrettyValueAt(i int) string {
	return fmt.Sprintf("%v", c.Ref(i))
}

// String renders the container's tag, size and elements.
func (c *Container) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s[%d]{", c.tag, c.n)
	for i := 0; i < c.n; i++ {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(c.PrettyValueAt(i))
	}
	sb.WriteString("}")
	return sb.String()
}

// checkIdx validates i against the container's size on the paths that have
// no native array to do it for them.
func (c *Container) checkIdx(i int) {
	if i < 0 || i >= c.n {
		panic(fmt.Sprintf("index %d out of bounds [0, %d)", i, c.n))
	}
}

// decodeInt64 unboxes a value of the integral width class into an int64
// slot. A boxed value outside the class is a contract violation.
func decodeInt64(v any) int64 {
	switch v := v.(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case uint16:
		return int64(v)
	case int8:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case struct{}:
		return 0
	default:
		panic(errors.AssertionFailedf("cannot decode %T into an int64 slot", v))
	}
}

// decodeFloat64 unboxes a value of the floating width class into a float64
// slot.
func decodeFloat64(v any) float64 {
	switch v := v.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	default:
		panic(errors.AssertionFailedf("cannot decode %T into a float64 slot", v))
	}
}

// boxInt64 boxes an int64-encoded value per the given integral tag. The tag
// decides the stored width so that a slow-path write is indistinguishable
// from a native write followed by boxing.
func boxInt64(v int64, t valtypes.T) any {
	switch t {
	case valtypes.Int64:
		return v
	case valtypes.Int32:
		return int32(v)
	case valtypes.Int16:
		return int16(v)
	case valtypes.Char:
		return uint16(v)
	case valtypes.Int8:
		return int8(v)
	case valtypes.Bool:
		return v != 0
	case valtypes.Unit:
		return struct{}{}
	default:
		panic(errors.AssertionFailedf("unhandled tag %s", t))
	}
}

// boxFloat64 boxes a float64-encoded value per the given floating tag.
func boxFloat64(v float64, t valtypes.T) any {
	switch t {
	case valtypes.Float64:
		return v
	case valtypes.Float32:
		return float32(v)
	default:
		panic(errors.AssertionFailedf("unhandled tag %s", t))
	}
}
