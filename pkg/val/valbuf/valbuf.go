// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package valbuf implements a growable sequence on top of a value
// container. A Buffer keeps a logical length separate from the physical
// capacity of the container it currently owns; when an append runs out of
// capacity it allocates a container of twice the size under the same tag,
// copies the live elements across and discards the old one. The doubling is
// what keeps append amortized constant: the total copy work over M appends
// is O(C+M), not O(M^2).
//
// A Buffer is single-owner. Mutating it while an Iter is in progress is
// undefined, matching the container's exclusive-access model.
package valbuf

import (
	"github.com/cockroachdb/boxless/pkg/val/valdata"
	"github.com/cockroachdb/boxless/pkg/val/valtypes"
	"github.com/cockroachdb/errors"
)

// Buffer is a dynamically sized sequence of values of a single category.
// The tag never changes across the buffer's lifetime; growing replaces the
// owned container wholesale rather than ever changing its layout.
type Buffer struct {
	tag valtypes.T
	c   *valdata.Container
	len int
	// alloc, when non-nil, charges every owned container to a bytes account.
	alloc *valdata.Allocator

	reallocs   int64
	elemCopies int64
}

// New returns an empty buffer of category tag with the given initial
// capacity, which may be zero.
func New(tag valtypes.T, capacity int) *Buffer {
	return &Buffer{tag: tag, c: valdata.New(tag, capacity)}
}

// NewWithAllocator is like New but charges the buffer's containers to the
// given allocator's account for as long as the buffer owns them.
func NewWithAllocator(alloc *valdata.Allocator, tag valtypes.T, capacity int) *Buffer {
	return &Buffer{tag: tag, c: alloc.New(tag, capacity), alloc: alloc}
}

// newBuffer dispatches between New and NewWithAllocator on whether alloc is
// set, so buffers derived from b keep charging b's account.
func newBuffer(alloc *valdata.Allocator, tag valtypes.T, capacity int) *Buffer {
	if alloc == nil {
		return New(tag, capacity)
	}
	return NewWithAllocator(alloc, tag, capacity)
}

// Tag returns the buffer's element category.
func (b *Buffer) Tag() valtypes.T {
	return b.tag
}

// Len returns the number of logically valid elements.
func (b *Buffer) Len() int {
	return b.len
}

// Cap returns the number of element slots in the currently owned container.
func (b *Buffer) Cap() int {
	return b.c.Len()
}

// grow replaces the owned container with one of at least double the
// capacity, copying the live elements across. The old container is released
// and must not be referenced afterwards.
func (b *Buffer) grow() {
	newCap := 2 * b.Cap()
	if newCap < 1 {
		newCap = 1
	}
	var next *valdata.Container
	if b.alloc != nil {
		next = b.alloc.New(b.tag, newCap)
	} else {
		next = valdata.New(b.tag, newCap)
	}
	next.CopySlice(b.c, 0, 0, b.len)
	if b.alloc != nil {
		b.alloc.Release(b.c)
	}
	b.c = next
	b.reallocs++
	b.elemCopies += int64(b.len)
}

// AppendInt64 appends an int64-encoded value. The buffer's tag must belong
// to the integral width class.
func (b *Buffer) AppendInt64(v int64) {
	if b.len == b.Cap() {
		b.grow()
	}
	b.c.SetInt64(b.len, v, b.tag)
	b.len++
}

// AppendFloat64 appends a float64-encoded value. The buffer's tag must
// belong to the floating width class.
func (b *Buffer) AppendFloat64(v float64) {
	if b.len == b.Cap() {
		b.grow()
	}
	b.c.SetFloat64(b.len, v, b.tag)
	b.len++
}

// AppendRef appends a boxed value, unboxing it per the buffer's tag when the
// tag is primitive. This is the append used by generic producers that do not
// know the element category statically.
func (b *Buffer) AppendRef(v any) {
	if b.len == b.Cap() {
		b.grow()
	}
	b.c.SetRef(b.len, v)
	b.len++
}

// AppendSlice appends elements [srcStartIdx, srcEndIdx) of src, which must
// have the same tag. The copy goes through the same growth policy as
// single-element appends.
func (b *Buffer) AppendSlice(src *Buffer, srcStartIdx, srcEndIdx int) {
	if b.tag != src.tag {
		panic(errors.AssertionFailedf(
			"appending %s elements to a %s buffer", src.tag, b.tag))
	}
	if srcStartIdx > srcEndIdx || srcStartIdx < 0 || srcEndIdx > src.len {
		panic(errors.AssertionFailedf(
			"append range [%d, %d) outside source length %d", srcStartIdx, srcEndIdx, src.len))
	}
	n := srcEndIdx - srcStartIdx
	for b.len+n > b.Cap() {
		b.grow()
	}
	b.c.CopySlice(src.c, b.len, srcStartIdx, srcEndIdx)
	b.len += n
}

// Int64At returns the int64-encoded element at index i, which must be below
// the logical length.
func (b *Buffer) Int64At(i int) int64 {
	b.checkIdx(i)
	return b.c.Int64(i, b.tag)
}

// Float64At returns the float64-encoded element at index i.
func (b *Buffer) Float64At(i int) float64 {
	b.checkIdx(i)
	return b.c.Float64(i, b.tag)
}

// RefAt returns the element at index i boxed.
func (b *Buffer) RefAt(i int) any {
	b.checkIdx(i)
	return b.c.Ref(i)
}

// SetInt64 overwrites the element at index i, which must be below the
// logical length.
func (b *Buffer) SetInt64(i int, v int64) {
	b.checkIdx(i)
	b.c.SetInt64(i, v, b.tag)
}

// SetFloat64 overwrites the element at index i.
func (b *Buffer) SetFloat64(i int, v float64) {
	b.checkIdx(i)
	b.c.SetFloat64(i, v, b.tag)
}

// SetRef overwrites the element at index i with a boxed value.
func (b *Buffer) SetRef(i int, v any) {
	b.checkIdx(i)
	b.c.SetRef(i, v)
}

// Clear resets the logical length to zero without shrinking capacity. On a
// Ref buffer the dead elements are nilled out so they do not keep their
// referents alive.
func (b *Buffer) Clear() {
	if b.tag == valtypes.Ref {
		for i := 0; i < b.len; i++ {
			b.c.SetRef(i, nil)
		}
	}
	b.len = 0
}

// Clone returns a buffer with the same tag, length and elements. The clone
// shares no storage with b and starts with fresh growth stats.
func (b *Buffer) Clone() *Buffer {
	var c *valdata.Container
	if b.alloc != nil {
		c = b.alloc.Clone(b.c)
	} else {
		c = b.c.Clone()
	}
	return &Buffer{tag: b.tag, c: c, len: b.len, alloc: b.alloc}
}

// Close releases the owned container back to the buffer's allocator, if
// any. The buffer must not be used afterwards.
func (b *Buffer) Close() {
	if b.alloc != nil {
		b.alloc.Release(b.c)
	}
	b.c = nil
}

// GrowthStats returns the number of container replacements and the total
// number of elements copied by them over the buffer's lifetime. With a
// doubling policy the copies are O(C+M) across M appends, which tests
// assert.
func (b *Buffer) GrowthStats() (reallocs, elemCopies int64) {
	return b.reallocs, b.elemCopies
}

func (b *Buffer) checkIdx(i int) {
	if i < 0 || i >= b.len {
		panic(errors.AssertionFailedf("index %d out of bounds [0, %d)", i, b.len))
	}
}

// Iter returns a forward iterator over indices [0, Len()). It is
// restartable via Reset. Appending to the buffer while an iteration is in
// progress is undefined.
func (b *Buffer) Iter() Iter {
	return Iter{b: b, idx: -1}
}

// Iter is a forward-only cursor over a buffer's live elements.
type Iter struct {
	b   *Buffer
	idx int
}

// Next advances the cursor and reports whether an element is available.
func (it *Iter) Next() bool {
	it.idx++
	return it.idx < it.b.len
}

// Idx returns the index of the current element.
func (it *Iter) Idx() int {
	return it.idx
}

// Int64 returns the current element in its int64 encoding.
func (it *Iter) Int64() int64 {
	return it.b.Int64At(it.idx)
}

// Float64 returns the current element in its float64 encoding.
func (it *Iter) Float64() float64 {
	return it.b.Float64At(it.idx)
}

// Ref returns the current element boxed.
func (it *Iter) Ref() any {
	return it.b.RefAt(it.idx)
}

// Reset rewinds the iterator to before the first element.
func (it *Iter) Reset() {
	it.idx = -1
}
