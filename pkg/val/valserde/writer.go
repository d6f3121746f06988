// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package valserde

import (
	"github.com/cockroachdb/boxless/pkg/util/bufalloc"
	"github.com/cockroachdb/boxless/pkg/val/valbuf"
	"github.com/cockroachdb/boxless/pkg/val/valdata"
)

// Writer produces snapshots whose bytes are carved out of a handful of
// shared chunks instead of one allocation per snapshot. Useful when
// snapshotting many small containers in a row. The returned slices share
// chunk storage and must not be mutated.
type Writer struct {
	alloc bufalloc.ByteAllocator
}

// Container returns a snapshot of c backed by the writer's chunk storage.
func (w *Writer) Container(c *valdata.Container) ([]byte, error) {
	bs, err := MarshalContainer(c)
	if err != nil {
		return nil, err
	}
	var out []byte
	w.alloc, out = w.alloc.Copy(bs)
	return out, nil
}

// Buffer returns a snapshot of b backed by the writer's chunk storage.
func (w *Writer) Buffer(b *valbuf.Buffer) ([]byte, error) {
	bs, err := MarshalBuffer(b)
	if err != nil {
		return nil, err
	}
	var out []byte
	w.alloc, out = w.alloc.Copy(bs)
	return out, nil
}
