// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package valbuf

import (
	"testing"

	"github.com/cockroachdb/boxless/pkg/util/leaktest"
	"github.com/cockroachdb/boxless/pkg/util/mon"
	"github.com/cockroachdb/boxless/pkg/util/randutil"
	"github.com/cockroachdb/boxless/pkg/val/valdata"
	"github.com/cockroachdb/boxless/pkg/val/valtypes"
	"github.com/stretchr/testify/require"
)

// TestAppendDoubling runs the doubling scenario: a buffer of capacity 2
// doubles to 4 on the third append, with all three values intact.
func TestAppendDoubling(t *testing.T) {
	defer leaktest.AfterTest(t)()
	b := New(valtypes.Int64, 2)
	require.Equal(t, 0, b.Len())
	require.Equal(t, 2, b.Cap())

	b.AppendInt64(1)
	b.AppendInt64(2)
	require.Equal(t, 2, b.Cap())
	b.AppendInt64(3)
	require.Equal(t, 4, b.Cap())
	require.Equal(t, 3, b.Len())
	for i := 0; i < 3; i++ {
		require.Equal(t, int64(i+1), b.Int64At(i))
	}
}

func TestAppendFromZeroCapacity(t *testing.T) {
	defer leaktest.AfterTest(t)()
	b := New(valtypes.Int32, 0)
	b.AppendInt64(7)
	require.Equal(t, 1, b.Cap())
	b.AppendInt64(8)
	require.Equal(t, 2, b.Cap())
	b.AppendInt64(9)
	require.Equal(t, 4, b.Cap())
	require.Equal(t, []int64{7, 8, 9}, []int64{b.Int64At(0), b.Int64At(1), b.Int64At(2)})
}

// TestGrowthPreservesContents appends a few thousand random values and
// checks every one of them afterwards, regardless of how many internal
// reallocations happened along the way.
func TestGrowthPreservesContents(t *testing.T) {
	defer leaktest.AfterTest(t)()
	rng, seed := randutil.NewTestRand()
	t.Logf("seed: %d", seed)

	const count = 5000
	b := New(valtypes.Int64, 0)
	vals := make([]int64, count)
	for i := range vals {
		vals[i] = rng.Int63()
		b.AppendInt64(vals[i])
	}
	require.Equal(t, count, b.Len())
	for i, v := range vals {
		require.Equal(t, v, b.Int64At(i), "index %d", i)
	}
	reallocs, _ := b.GrowthStats()
	require.NotZero(t, reallocs)
}

// TestAmortizedCopies checks the load-bearing property of the doubling
// policy: the total element copies across M appends from initial capacity C
// stay within O(C+M), far below the quadratic cost of +1 growth.
func TestAmortizedCopies(t *testing.T) {
	defer leaktest.AfterTest(t)()
	const initialCap = 16
	const count = 100000
	b := New(valtypes.Int64, initialCap)
	for i := 0; i < count; i++ {
		b.AppendInt64(int64(i))
	}
	_, copies := b.GrowthStats()
	// Doubling from C to past M copies C + 2C + ... < 2(C+M) elements.
	require.LessOrEqual(t, copies, int64(2*(initialCap+count)))
}

func TestSetAndClear(t *testing.T) {
	defer leaktest.AfterTest(t)()
	b := New(valtypes.Int16, 4)
	b.AppendInt64(10)
	b.AppendInt64(20)
	b.SetInt64(1, 21)
	require.Equal(t, int64(21), b.Int64At(1))
	require.Panics(t, func() { b.SetInt64(2, 30) })
	require.Panics(t, func() { b.Int64At(2) })

	b.Clear()
	require.Equal(t, 0, b.Len())
	require.Equal(t, 4, b.Cap())
	b.AppendInt64(5)
	require.Equal(t, int64(5), b.Int64At(0))
}

func TestRefBufferClearDropsReferents(t *testing.T) {
	defer leaktest.AfterTest(t)()
	b := New(valtypes.Ref, 2)
	b.AppendRef("a")
	b.AppendRef("b")
	b.Clear()
	require.Equal(t, 0, b.Len())
	// The dead slots were nilled out; appending again works from scratch.
	b.AppendRef("c")
	require.Equal(t, "c", b.RefAt(0))
}

func TestAppendSlice(t *testing.T) {
	defer leaktest.AfterTest(t)()
	src := New(valtypes.Float64, 0)
	for i := 0; i < 10; i++ {
		src.AppendFloat64(float64(i) / 2)
	}
	dst := New(valtypes.Float64, 0)
	dst.AppendFloat64(-1)
	dst.AppendSlice(src, 2, 7)
	require.Equal(t, 6, dst.Len())
	require.Equal(t, float64(-1), dst.Float64At(0))
	for i := 0; i < 5; i++ {
		require.Equal(t, float64(2+i)/2, dst.Float64At(1+i), "offset %d", i)
	}
	require.Panics(t, func() { dst.AppendSlice(New(valtypes.Int64, 0), 0, 0) })
	require.Panics(t, func() { dst.AppendSlice(src, 8, 11) })
}

func TestIterator(t *testing.T) {
	defer leaktest.AfterTest(t)()
	b := New(valtypes.Int8, 0)
	for i := 0; i < 5; i++ {
		b.AppendInt64(int64(i * 11))
	}
	it := b.Iter()
	var seen []int64
	for it.Next() {
		require.Equal(t, len(seen), it.Idx())
		seen = append(seen, it.Int64())
	}
	require.Equal(t, []int64{0, 11, 22, 33, 44}, seen)

	// Reset restarts the same iteration.
	it.Reset()
	require.True(t, it.Next())
	require.Equal(t, int64(0), it.Int64())
}

// TestMapIntToFloat runs the map scenario: {1,2,3} under an integral tag
// mapped with x+1.5 into a floating tag yields {2.5,3.5,4.5}.
func TestMapIntToFloat(t *testing.T) {
	defer leaktest.AfterTest(t)()
	b := New(valtypes.Int64, 2)
	b.AppendInt64(1)
	b.AppendInt64(2)
	b.AppendInt64(3)

	m := b.Map(valtypes.Float64, func(v any) any {
		return float64(v.(int64)) + 1.5
	})
	require.Equal(t, valtypes.Float64, m.Tag())
	require.Equal(t, 3, m.Len())
	require.Equal(t, []float64{2.5, 3.5, 4.5},
		[]float64{m.Float64At(0), m.Float64At(1), m.Float64At(2)})
}

func TestFilter(t *testing.T) {
	defer leaktest.AfterTest(t)()
	b := New(valtypes.Int32, 0)
	for i := 0; i < 10; i++ {
		b.AppendInt64(int64(i))
	}
	f := b.Filter(func(v any) bool { return v.(int32)%2 == 0 })
	require.Equal(t, valtypes.Int32, f.Tag())
	require.Equal(t, 5, f.Len())
	for i := 0; i < 5; i++ {
		require.Equal(t, int64(2*i), f.Int64At(i))
	}
	// The source is untouched.
	require.Equal(t, 10, b.Len())
}

func TestBuilder(t *testing.T) {
	defer leaktest.AfterTest(t)()
	bld := NewBuilder(valtypes.Bool)
	for i := 0; i < 70; i++ {
		bld.AddInt64(int64(i % 2))
	}
	b := bld.Finish()
	require.Equal(t, valtypes.Bool, b.Tag())
	require.Equal(t, 70, b.Len())
	for i := 0; i < 70; i++ {
		require.Equal(t, int64(i%2), b.Int64At(i), "index %d", i)
	}
	require.Panics(t, func() { bld.Finish() })
}

func TestClone(t *testing.T) {
	defer leaktest.AfterTest(t)()
	b := New(valtypes.Char, 0)
	b.AppendInt64('a')
	b.AppendInt64('b')
	c := b.Clone()
	c.SetInt64(0, 'z')
	require.Equal(t, int64('a'), b.Int64At(0))
	require.Equal(t, int64('z'), c.Int64At(0))
	require.Equal(t, b.Len(), c.Len())
}

// TestAllocatorBackedBuffer checks that growth releases the footprint of
// every discarded container, so the account tracks only what the buffer
// currently owns.
func TestAllocatorBackedBuffer(t *testing.T) {
	defer leaktest.AfterTest(t)()
	acc := mon.NewUnlimitedAccount()
	alloc := valdata.NewAllocator(acc)

	b := NewWithAllocator(alloc, valtypes.Int64, 0)
	for i := 0; i < 1000; i++ {
		b.AppendInt64(int64(i))
	}
	require.Equal(t, int64(8*b.Cap()), acc.Used())

	c := b.Clone()
	require.Equal(t, int64(8*b.Cap()+8*c.Cap()), acc.Used())
	c.Close()
	b.Close()
	require.Zero(t, acc.Used())
}

// TestDerivedBuffersInheritAllocator checks that Map and Filter charge their
// result to the source buffer's account, so a budget covers derived buffers
// the same as buffers built directly.
func TestDerivedBuffersInheritAllocator(t *testing.T) {
	defer leaktest.AfterTest(t)()
	acc := mon.NewUnlimitedAccount()
	alloc := valdata.NewAllocator(acc)

	b := NewWithAllocator(alloc, valtypes.Int64, 0)
	for i := 0; i < 1000; i++ {
		b.AppendInt64(int64(i))
	}

	m := b.Map(valtypes.Float64, func(v any) any {
		return float64(v.(int64)) + 0.5
	})
	require.Equal(t, int64(8*b.Cap()+8*m.Cap()), acc.Used())

	f := b.Filter(func(v any) bool { return v.(int64)%2 == 0 })
	require.Equal(t, 500, f.Len())
	require.Equal(t, int64(8*b.Cap()+8*m.Cap()+8*f.Cap()), acc.Used())

	f.Close()
	m.Close()
	b.Close()
	require.Zero(t, acc.Used())
}

func TestAllocatorBackedBufferBudget(t *testing.T) {
	defer leaktest.AfterTest(t)()
	alloc := valdata.NewAllocator(mon.NewAccountWithLimit(100))
	b := NewWithAllocator(alloc, valtypes.Int64, 4)
	for i := 0; i < 8; i++ {
		b.AppendInt64(int64(i))
	}
	// The next growth step needs 128 bytes while 64 are still held.
	require.Panics(t, func() { b.AppendInt64(8) })
}

func BenchmarkAppend(b *testing.B) {
	for _, tag := range []valtypes.T{valtypes.Bool, valtypes.Int32, valtypes.Int64, valtypes.Float64} {
		b.Run(tag.String(), func(b *testing.B) {
			buf := New(tag, 0)
			b.SetBytes(int64(tag.Width()+7) / 8)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if tag.Class() == valtypes.FloatClass {
					buf.AppendFloat64(float64(i))
				} else {
					buf.AppendInt64(int64(i))
				}
			}
		})
	}
}
