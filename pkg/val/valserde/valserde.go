// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package valserde snapshots value containers and buffers to bytes and back.
// The containers themselves are in-memory only; this package is a plain
// consumer of their public surface, so a snapshot never aliases backing
// storage.
//
// The format is a small header (magic, version, kind, tag, varint length)
// followed by a per-category payload: varints for the integral categories,
// raw IEEE bits for the floating ones, packed bits for booleans, nothing for
// unit, and a msgpack-encoded boxed slice for references. Note that msgpack
// normalizes boxed integers to int64 on the way back in.
//
// Unlike the in-memory core, corrupted input here is an ordinary error, not
// a contract violation: these bytes may come from outside the process.
package valserde

import (
	"bytes"

	"fortio.org/safecast"
	"github.com/cockroachdb/boxless/pkg/val/valbuf"
	"github.com/cockroachdb/boxless/pkg/val/valdata"
	"github.com/cockroachdb/boxless/pkg/val/valtypes"
	"github.com/cockroachdb/errors"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/vmihailenco/msgpack/v5"
)

const magic = "BOXL"

const formatVersion = 1

const (
	kindContainer byte = 1
	kindBuffer    byte = 2
)

// MarshalContainer returns a snapshot of c.
func MarshalContainer(c *valdata.Container) ([]byte, error) {
	return marshal(kindContainer, c.Tag(), c.Len(), c)
}

// UnmarshalContainer reconstructs a container from a snapshot produced by
// MarshalContainer.
func UnmarshalContainer(bs []byte) (*valdata.Container, error) {
	tag, n, payload, err := unmarshalHeader(bs, kindContainer)
	if err != nil {
		return nil, err
	}
	c := valdata.New(tag, n)
	if err := unmarshalPayload(payload, c, n); err != nil {
		return nil, err
	}
	return c, nil
}

// MarshalBuffer returns a snapshot of b's live elements [0, Len()). Unused
// trailing capacity is not part of the snapshot.
func MarshalBuffer(b *valbuf.Buffer) ([]byte, error) {
	return marshal(kindBuffer, b.Tag(), b.Len(), bufferView{b})
}

// UnmarshalBuffer reconstructs a buffer from a snapshot produced by
// MarshalBuffer. The result has capacity equal to its length.
func UnmarshalBuffer(bs []byte) (*valbuf.Buffer, error) {
	tag, n, payload, err := unmarshalHeader(bs, kindBuffer)
	if err != nil {
		return nil, err
	}
	c := valdata.New(tag, n)
	if err := unmarshalPayload(payload, c, n); err != nil {
		return nil, err
	}
	b := valbuf.New(tag, n)
	for i := 0; i < n; i++ {
		b.AppendRef(c.Ref(i))
	}
	return b, nil
}

// elemSource is the read surface the payload encoder needs; Container and
// bufferView both provide it.
type elemSource interface {
	Int64(i int, expected valtypes.T) int64
	Float64(i int, expected valtypes.T) float64
	Ref(i int) any
}

// bufferView adapts a buffer to elemSource. The expected tags are ignored:
// a buffer always reads through its own tag.
type bufferView struct {
	b *valbuf.Buffer
}

func (v bufferView) Int64(i int, _ valtypes.T) int64 {
	return v.b.Int64At(i)
}

func (v bufferView) Float64(i int, _ valtypes.T) float64 {
	return v.b.Float64At(i)
}

func (v bufferView) Ref(i int) any {
	return v.b.RefAt(i)
}

func marshal(kind byte, tag valtypes.T, n int, src elemSource) ([]byte, error) {
	payload, err := marshalPayload(tag, n, src)
	if err != nil {
		return nil, err
	}
	un, err := safecast.Conv[uint64](n)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot length")
	}
	bs := make([]byte, len(magic)+3+varint.Uint64.Size(un)+len(payload))
	off := copy(bs, magic)
	bs[off] = formatVersion
	bs[off+1] = kind
	bs[off+2] = byte(tag)
	off += 3
	off += varint.Uint64.Marshal(un, bs[off:])
	copy(bs[off:], payload)
	return bs, nil
}

func marshalPayload(tag valtypes.T, n int, src elemSource) ([]byte, error) {
	switch tag {
	case valtypes.Unit:
		return nil, nil
	case valtypes.Bool:
		bs := make([]byte, (n+7)/8)
		for i := 0; i < n; i++ {
			if src.Int64(i, tag) != 0 {
				bs[i>>3] |= 1 << (i & 7)
			}
		}
		return bs, nil
	case valtypes.Float32:
		bs := make([]byte, 4*n)
		var off int
		for i := 0; i < n; i++ {
			off += raw.Float32.Marshal(float32(src.Float64(i, tag)), bs[off:])
		}
		return bs, nil
	case valtypes.Float64:
		bs := make([]byte, 8*n)
		var off int
		for i := 0; i < n; i++ {
			off += raw.Float64.Marshal(src.Float64(i, tag), bs[off:])
		}
		return bs, nil
	case valtypes.Ref:
		boxed := make([]any, n)
		for i := 0; i < n; i++ {
			boxed[i] = src.Ref(i)
		}
		bs, err := msgpack.Marshal(boxed)
		if err != nil {
			return nil, errors.Wrap(err, "encoding boxed elements")
		}
		return bs, nil
	default:
		// The remaining integral categories share the varint encoding of
		// their int64 slot.
		size := 0
		for i := 0; i < n; i++ {
			size += varint.Int64.Size(src.Int64(i, tag))
		}
		bs := make([]byte, size)
		var off int
		for i := 0; i < n; i++ {
			off += varint.Int64.Marshal(src.Int64(i, tag), bs[off:])
		}
		return bs, nil
	}
}

// normalizeBoxed maps the integer widths msgpack hands back when decoding
// into interfaces onto the boxed family's int64 encoding, so that a boxed
// element written through the slow path still decodes through the integral
// accessors after a round trip. Every other type passes through unchanged.
func normalizeBoxed(v any) any {
	switch v := v.(type) {
	case int:
		return int64(v)
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	default:
		return v
	}
}

func unmarshalHeader(bs []byte, wantKind byte) (valtypes.T, int, []byte, error) {
	if len(bs) < len(magic)+3 {
		return 0, 0, nil, errors.Newf("snapshot truncated: %d bytes", len(bs))
	}
	if !bytes.Equal(bs[:len(magic)], []byte(magic)) {
		return 0, 0, nil, errors.Newf("bad snapshot magic %q", bs[:len(magic)])
	}
	off := len(magic)
	if bs[off] != formatVersion {
		return 0, 0, nil, errors.Newf("unsupported snapshot version %d", bs[off])
	}
	if bs[off+1] != wantKind {
		return 0, 0, nil, errors.Newf("snapshot kind %d, expected %d", bs[off+1], wantKind)
	}
	if int(bs[off+2]) >= valtypes.NumT {
		return 0, 0, nil, errors.Newf("unknown tag byte %d", bs[off+2])
	}
	tag := valtypes.T(bs[off+2])
	off += 3
	un, read, err := varint.Uint64.Unmarshal(bs[off:])
	if err != nil {
		return 0, 0, nil, errors.Wrap(err, "decoding snapshot length")
	}
	payload := bs[off+read:]
	// Bound the claimed element count against the payload actually present
	// before anything gets allocated: the fixed-width categories need their
	// full width per element, the varint and msgpack ones at least one byte.
	// A unit payload is empty, and a unit container allocates nothing.
	var maxElems uint64
	switch tag {
	case valtypes.Unit:
		maxElems = un
	case valtypes.Bool:
		maxElems = uint64(len(payload)) * 8
	case valtypes.Float32:
		maxElems = uint64(len(payload)) / 4
	case valtypes.Float64:
		maxElems = uint64(len(payload)) / 8
	default:
		maxElems = uint64(len(payload))
	}
	if un > maxElems {
		return 0, 0, nil, errors.Newf(
			"snapshot header claims %d elements but payload is %d bytes", un, len(payload))
	}
	n, err := safecast.Conv[int](un)
	if err != nil {
		return 0, 0, nil, errors.Wrap(err, "snapshot length")
	}
	return tag, n, payload, nil
}

func unmarshalPayload(bs []byte, c *valdata.Container, n int) error {
	tag := c.Tag()
	switch tag {
	case valtypes.Unit:
		return nil
	case valtypes.Bool:
		if len(bs) < (n+7)/8 {
			return errors.Newf("bool payload truncated: %d bytes for %d elements", len(bs), n)
		}
		for i := 0; i < n; i++ {
			c.SetInt64(i, int64(bs[i>>3]>>(i&7)&1), tag)
		}
		return nil
	case valtypes.Float32:
		var off int
		for i := 0; i < n; i++ {
			v, read, err := raw.Float32.Unmarshal(bs[off:])
			if err != nil {
				return errors.Wrapf(err, "decoding element %d", i)
			}
			off += read
			c.SetFloat64(i, float64(v), tag)
		}
		return nil
	case valtypes.Float64:
		var off int
		for i := 0; i < n; i++ {
			v, read, err := raw.Float64.Unmarshal(bs[off:])
			if err != nil {
				return errors.Wrapf(err, "decoding element %d", i)
			}
			off += read
			c.SetFloat64(i, v, tag)
		}
		return nil
	case valtypes.Ref:
		var boxed []any
		if err := msgpack.Unmarshal(bs, &boxed); err != nil {
			return errors.Wrap(err, "decoding boxed elements")
		}
		if len(boxed) != n {
			return errors.Newf("boxed payload has %d elements, header says %d", len(boxed), n)
		}
		for i, v := range boxed {
			c.SetRef(i, normalizeBoxed(v))
		}
		return nil
	default:
		var off int
		for i := 0; i < n; i++ {
			v, read, err := varint.Int64.Unmarshal(bs[off:])
			if err != nil {
				return errors.Wrapf(err, "decoding element %d", i)
			}
			off += read
			c.SetInt64(i, v, tag)
		}
		return nil
	}
}
