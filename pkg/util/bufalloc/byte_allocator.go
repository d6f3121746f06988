// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package bufalloc provides a simple amortizing byte allocator: many small
// byte slices are carved out of a handful of exponentially grown chunks
// instead of being allocated individually.
package bufalloc

const chunkAllocMinSize = 512
const chunkAllocMaxSize = 512 << 10 // 512 KB

// ByteAllocator provides chunk allocation of []byte, amortizing the overhead
// of each allocation. Because the underlying storage for a slice is shared
// with other slices, ByteAllocator should only be used when mutability of the
// returned slices is not required.
type ByteAllocator struct {
	b []byte
}

func (a ByteAllocator) reserve(n int) ByteAllocator {
	allocSize := cap(a.b) * 2
	if allocSize < chunkAllocMinSize {
		allocSize = chunkAllocMinSize
	} else if allocSize > chunkAllocMaxSize {
		allocSize = chunkAllocMaxSize
	}
	if allocSize < n {
		allocSize = n
	}
	a.b = make([]byte, 0, allocSize)
	return a
}

// Alloc allocates a new chunk of memory with the specified length.
func (a ByteAllocator) Alloc(n int) (ByteAllocator, []byte) {
	if cap(a.b)-len(a.b) < n {
		a = a.reserve(n)
	}
	p := len(a.b)
	r := a.b[p : p+n : p+n]
	a.b = a.b[:p+n]
	return a, r
}

// Copy allocates a new chunk of memory, initializing it from src.
func (a ByteAllocator) Copy(src []byte) (ByteAllocator, []byte) {
	var alloc []byte
	a, alloc = a.Alloc(len(src))
	copy(alloc, src)
	return a, alloc
}

// Copy2 allocates a single new chunk of memory large enough for both src1 and
// src2, initializing the returned slices from them respectively.
func (a ByteAllocator) Copy2(src1, src2 []byte) (ByteAllocator, []byte, []byte) {
	var alloc []byte
	a, alloc = a.Alloc(len(src1) + len(src2))
	copy(alloc, src1)
	copy(alloc[len(src1):], src2)
	return a, alloc[:len(src1):len(src1)], alloc[len(src1):]
}
