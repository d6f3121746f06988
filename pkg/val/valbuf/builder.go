// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package valbuf

import (
	"github.com/cockroachdb/boxless/pkg/val/valtypes"
	"github.com/cockroachdb/errors"
)

// Builder produces a buffer of a target category one element at a time. It
// starts from capacity zero and feeds every element through the ordinary
// append path, so derived buffers inherit the growth policy without
// duplicating it.
type Builder struct {
	buf *Buffer
}

// NewBuilder returns a builder for a buffer of category target.
func NewBuilder(target valtypes.T) *Builder {
	return &Builder{buf: New(target, 0)}
}

// AddInt64 appends an int64-encoded element.
func (bld *Builder) AddInt64(v int64) {
	bld.buf.AppendInt64(v)
}

// AddFloat64 appends a float64-encoded element.
func (bld *Builder) AddFloat64(v float64) {
	bld.buf.AppendFloat64(v)
}

// AddRef appends a boxed element.
func (bld *Builder) AddRef(v any) {
	bld.buf.AppendRef(v)
}

// AddBoxed appends a boxed element, unboxing it per the target category.
// It is the add used by Map and Filter, whose transforms work on boxed
// values.
func (bld *Builder) AddBoxed(v any) {
	bld.buf.AppendRef(v)
}

// Finish returns the built buffer. The builder must not be used afterwards.
func (bld *Builder) Finish() *Buffer {
	if bld.buf == nil {
		panic(errors.AssertionFailedf("Finish called twice"))
	}
	buf := bld.buf
	bld.buf = nil
	return buf
}

// Map returns a buffer of category target holding f applied to every
// element of b, in order. f receives and returns boxed values; the result
// is unboxed into the target category's layout. The result is charged to
// the same allocator as b, if any.
func (b *Buffer) Map(target valtypes.T, f func(any) any) *Buffer {
	bld := &Builder{buf: newBuffer(b.alloc, target, 0)}
	for it := b.Iter(); it.Next(); {
		bld.AddBoxed(f(it.Ref()))
	}
	return bld.Finish()
}

// Filter returns a buffer of the same category holding the elements of b
// for which pred returns true, in order. The result is charged to the same
// allocator as b, if any.
func (b *Buffer) Filter(pred func(any) bool) *Buffer {
	bld := &Builder{buf: newBuffer(b.alloc, b.tag, 0)}
	for it := b.Iter(); it.Next(); {
		if v := it.Ref(); pred(v) {
			bld.AddBoxed(v)
		}
	}
	return bld.Finish()
}
