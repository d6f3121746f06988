// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package valdata

import (
	"github.com/cockroachdb/boxless/pkg/util/mon"
	"github.com/cockroachdb/boxless/pkg/val/valtypes"
	"github.com/cockroachdb/errors"
)

// Allocator creates containers whose backing storage is charged to a bytes
// account. Exceeding the account's budget is treated like a failed native
// allocation: fatal, propagated immediately, never retried.
type Allocator struct {
	acc *mon.BytesAccount
}

// NewAllocator returns an allocator charging acc.
func NewAllocator(acc *mon.BytesAccount) *Allocator {
	if acc == nil {
		panic(errors.AssertionFailedf("nil bytes account"))
	}
	return &Allocator{acc: acc}
}

// New returns a container of n default-initialized slots of category t,
// charged to the allocator's account.
func (a *Allocator) New(t valtypes.T, n int) *Container {
	c := New(t, n)
	if err := a.acc.Grow(c.Footprint()); err != nil {
		panic(err)
	}
	return c
}

// Clone returns an accounted copy of c.
func (a *Allocator) Clone(c *Container) *Container {
	dst := c.Clone()
	if err := a.acc.Grow(dst.Footprint()); err != nil {
		panic(err)
	}
	return dst
}

// Release returns the footprint of a container previously created through
// the allocator to the account. The container must not be used afterwards.
func (a *Allocator) Release(c *Container) {
	a.acc.Shrink(c.Footprint())
}

// Used returns the bytes currently charged to the allocator's account.
func (a *Allocator) Used() int64 {
	return a.acc.Used()
}
