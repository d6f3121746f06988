// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package mon tracks the bytes held by value containers. The point of
// category-width storage is reducing allocation pressure, so the library
// makes the footprint of every accounted allocation observable here.
package mon

import (
	"math"

	"github.com/cockroachdb/errors"
)

// BytesAccount accumulates the footprint of a set of allocations. It is not
// safe for concurrent use, matching the single-owner model of the containers
// it accounts for.
type BytesAccount struct {
	used  int64
	limit int64
}

// NewUnlimitedAccount returns an account that tracks usage but never refuses
// growth.
func NewUnlimitedAccount() *BytesAccount {
	return &BytesAccount{limit: math.MaxInt64}
}

// NewAccountWithLimit returns an account that refuses to grow past limit.
func NewAccountWithLimit(limit int64) *BytesAccount {
	if limit < 0 {
		panic(errors.AssertionFailedf("negative budget: %d", limit))
	}
	return &BytesAccount{limit: limit}
}

// Grow reserves n bytes in the account. It fails only when the account was
// configured with a limit and the reservation would exceed it, in which case
// the account is left unchanged.
func (b *BytesAccount) Grow(n int64) error {
	if n < 0 {
		return errors.AssertionFailedf("negative growth: %d", n)
	}
	if b.used > b.limit-n {
		return errors.Newf(
			"budget exceeded: %d bytes requested, %d currently allocated, %d bytes in budget",
			n, b.used, b.limit)
	}
	b.used += n
	return nil
}

// Shrink releases n bytes from the account.
func (b *BytesAccount) Shrink(n int64) {
	if n < 0 {
		panic(errors.AssertionFailedf("negative shrink: %d", n))
	}
	if n > b.used {
		panic(errors.AssertionFailedf(
			"shrinking %d bytes from an account with only %d", n, b.used))
	}
	b.used -= n
}

// Used returns the bytes currently reserved in the account.
func (b *BytesAccount) Used() int64 {
	return b.used
}

// Clear releases everything reserved in the account.
func (b *BytesAccount) Clear() {
	b.used = 0
}
