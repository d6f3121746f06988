// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package bufalloc

import (
	"testing"

	"github.com/cockroachdb/boxless/pkg/util/leaktest"
	"github.com/stretchr/testify/require"
)

func TestByteAllocatorChunkGrowth(t *testing.T) {
	defer leaktest.AfterTest(t)()
	var a ByteAllocator

	// The first allocation reserves a full minimum-size chunk however small
	// the request is.
	a, first := a.Copy([]byte{7})
	require.Equal(t, []byte{7}, first)
	require.Equal(t, chunkAllocMinSize, cap(a.b))

	// A second small request fits in the remainder of the same chunk.
	a, _ = a.Copy([]byte{8})
	require.Equal(t, 2, len(a.b))
	require.Equal(t, chunkAllocMinSize, cap(a.b))

	// Overflowing the chunk doubles the reservation.
	a, _ = a.Copy(make([]byte, chunkAllocMinSize))
	require.Equal(t, 2*chunkAllocMinSize, cap(a.b))

	// A request larger than the next doubling step gets a chunk sized to the
	// request directly.
	a, _ = a.Copy(make([]byte, chunkAllocMaxSize))
	require.Equal(t, chunkAllocMaxSize, cap(a.b))

	// Growth is clamped at the maximum chunk size and never shrinks back.
	a, _ = a.Copy(make([]byte, 1))
	require.Equal(t, chunkAllocMaxSize, cap(a.b))
}

func TestByteAllocatorCopy2(t *testing.T) {
	defer leaktest.AfterTest(t)()
	src1 := make([]byte, chunkAllocMaxSize)
	src2 := make([]byte, chunkAllocMaxSize)
	for i := range src1 {
		src1[i] = 1
		src2[i] = 2
	}

	// Both sources land in one chunk, back to back, even when their combined
	// size exceeds the chunk cap.
	var a ByteAllocator
	a, dst1, dst2 := a.Copy2(src1, src2)
	require.Equal(t, 2*chunkAllocMaxSize, cap(a.b))
	require.Equal(t, src1, dst1)
	require.Equal(t, src2, dst2)

	// The oversized chunk is not carried forward as the doubling base.
	a, _ = a.Copy(make([]byte, 1))
	require.Equal(t, chunkAllocMaxSize, cap(a.b))
}

func TestAllocDoesNotAliasEarlierSlices(t *testing.T) {
	defer leaktest.AfterTest(t)()
	var a ByteAllocator
	a, b1 := a.Alloc(4)
	copy(b1, "abcd")
	a, b2 := a.Alloc(4)
	copy(b2, "efgh")
	_ = a

	// Appending to a returned slice must reallocate instead of scribbling
	// over its neighbor; the slices are capped at their own lengths.
	b1 = append(b1, 'x')
	require.Equal(t, []byte("efgh"), b2)
	require.Equal(t, []byte("abcdx"), b1)
}
