// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package bitarray implements a fixed-size array of booleans packed eight
// per byte. It backs the Bool storage variant, which is the reason a
// thousand-element bool container costs on the order of a hundred bytes
// rather than a thousand.
package bitarray

import "fmt"

// bitMask returns a byte with a single bit set at position i%8.
var bitMask = [8]byte{0x1, 0x2, 0x4, 0x8, 0x10, 0x20, 0x40, 0x80}

// A is a fixed-size packed array of booleans. The zero value is an empty
// array. Unlike a Go slice, indexing must be validated against the logical
// length explicitly, since the byte-level index alone would accept positions
// past the end of the final partial byte.
type A struct {
	bits []byte
	n    int
}

// New returns an array of n booleans, all false.
func New(n int) A {
	if n < 0 {
		panic(fmt.Sprintf("negative bit array size %d", n))
	}
	return A{
		bits: make([]byte, (n+7)/8),
		n:    n,
	}
}

// Len returns the number of booleans in the array.
func (a A) Len() int {
	return a.n
}

// At returns the boolean at position i.
func (a A) At(i int) bool {
	a.checkBounds(i)
	return a.bits[i>>3]&bitMask[i&7] != 0
}

// Set sets the boolean at position i to v.
func (a A) Set(i int, v bool) {
	a.checkBounds(i)
	if v {
		a.bits[i>>3] |= bitMask[i&7]
	} else {
		a.bits[i>>3] &^= bitMask[i&7]
	}
}

// Zero resets every element to false.
func (a A) Zero() {
	for i := range a.bits {
		a.bits[i] = 0
	}
}

// Clone returns a copy of the array that shares no storage with a.
func (a A) Clone() A {
	bits := make([]byte, len(a.bits))
	copy(bits, a.bits)
	return A{bits: bits, n: a.n}
}

// CopySlice copies positions [srcStartIdx, srcEndIdx) of src onto a starting
// at destIdx. The ranges must lie within the respective arrays.
func (a A) CopySlice(src A, destIdx, srcStartIdx, srcEndIdx int) {
	if srcStartIdx > srcEndIdx {
		panic(fmt.Sprintf("inverted copy range [%d, %d)", srcStartIdx, srcEndIdx))
	}
	n := srcEndIdx - srcStartIdx
	if n == 0 {
		return
	}
	src.checkBounds(srcEndIdx - 1)
	a.checkBounds(destIdx + n - 1)
	if destIdx&7 == 0 && srcStartIdx&7 == 0 {
		// Both ranges start on a byte boundary: copy whole bytes, then fix up
		// the bits of the final partial byte one at a time.
		whole := n >> 3
		copy(a.bits[destIdx>>3:destIdx>>3+whole], src.bits[srcStartIdx>>3:srcStartIdx>>3+whole])
		for i := whole << 3; i < n; i++ {
			a.Set(destIdx+i, src.At(srcStartIdx+i))
		}
		return
	}
	for i := 0; i < n; i++ {
		a.Set(destIdx+i, src.At(srcStartIdx+i))
	}
}

// FootprintBytes returns the size of the backing storage in bytes.
func (a A) FootprintBytes() int64 {
	return int64(len(a.bits))
}

func (a A) checkBounds(i int) {
	if i < 0 || i >= a.n {
		panic(fmt.Sprintf("index %d out of bounds [0, %d)", i, a.n))
	}
}
