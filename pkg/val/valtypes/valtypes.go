// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package valtypes enumerates the closed set of value categories that a
// container can be specialized for, and groups them into the width classes
// shared by the accessor families.
//
// The set is closed on purpose: every dispatch site in valdata is a fixed
// switch over these tags, so an unhandled tag is a programming error that
// fails fast rather than a case to recover from.
package valtypes

import "github.com/cockroachdb/errors"

// T identifies one value category. A container created with a given T keeps
// that category's physical layout for its entire lifetime.
type T uint8

const (
	// Bool is a truth value, stored bit-packed.
	Bool T = iota
	// Int8 is a signed 8-bit integer.
	Int8
	// Int16 is a signed 16-bit integer.
	Int16
	// Char is an unsigned 16-bit code unit.
	Char
	// Int32 is a signed 32-bit integer.
	Int32
	// Int64 is a signed 64-bit integer.
	Int64
	// Float32 is a 32-bit floating point number.
	Float32
	// Float64 is a 64-bit floating point number.
	Float64
	// Unit is the zero-width unit category; a Unit container stores nothing
	// but its size.
	Unit
	// Ref is the boxed fallback category used when the element category is
	// not statically known at the creation site. It is an ordinary tag: the
	// dispatcher does not treat it specially at creation time.
	Ref

	// NumT is the number of tags. It is not itself a valid tag.
	NumT = iota
)

// Class identifies the width class of an accessor family. Exactly two native
// encodings (a 64-bit integral slot and a 64-bit float slot) cover all
// primitive categories, so a container needs at most two fast accessor
// families regardless of how many storage variants exist. Ref values travel
// boxed and form their own class.
type Class uint8

const (
	// IntClass covers every category whose values fit an int64-encoded slot:
	// Bool (0/1), Int8, Int16, Char, Int32, Int64 and Unit (always 0).
	IntClass Class = iota
	// FloatClass covers Float32 and Float64, encoded in a float64 slot.
	FloatClass
	// RefClass covers Ref; its values are passed around boxed.
	RefClass

	// NumClass is the number of classes.
	NumClass = iota
)

var tagNames = [NumT]string{
	Bool:    "bool",
	Int8:    "int8",
	Int16:   "int16",
	Char:    "char",
	Int32:   "int32",
	Int64:   "int64",
	Float32: "float32",
	Float64: "float64",
	Unit:    "unit",
	Ref:     "ref",
}

// tagWidths holds the element width of each tag in bits. Bool is bit-packed;
// Unit occupies no storage at all; Ref is accounted as a machine word.
var tagWidths = [NumT]int{
	Bool:    1,
	Int8:    8,
	Int16:   16,
	Char:    16,
	Int32:   32,
	Int64:   64,
	Float32: 32,
	Float64: 64,
	Unit:    0,
	Ref:     64,
}

var tagClasses = [NumT]Class{
	Bool:    IntClass,
	Int8:    IntClass,
	Int16:   IntClass,
	Char:    IntClass,
	Int32:   IntClass,
	Int64:   IntClass,
	Float32: FloatClass,
	Float64: FloatClass,
	Unit:    IntClass,
	Ref:     RefClass,
}

// AllT lists every tag, in tag order. Tests and benchmarks range over it.
var AllT = []T{Bool, Int8, Int16, Char, Int32, Int64, Float32, Float64, Unit, Ref}

// String returns the lower-case name of the tag.
func (t T) String() string {
	if t >= NumT {
		return "unknown"
	}
	return tagNames[t]
}

// Class returns the width class that serves t at the accessor level.
func (t T) Class() Class {
	t.check()
	return tagClasses[t]
}

// Width returns the width of one element of category t in bits.
func (t T) Width() int {
	t.check()
	return tagWidths[t]
}

// check fails fast on a tag value outside the closed set.
func (t T) check() {
	if t >= NumT {
		panic(errors.AssertionFailedf("unhandled tag %d", int(t)))
	}
}

// String returns the name of the class.
func (c Class) String() string {
	switch c {
	case IntClass:
		return "int"
	case FloatClass:
		return "float"
	case RefClass:
		return "ref"
	default:
		return "unknown"
	}
}

// FromString maps a tag name back to its tag. It is the inverse of
// T.String and is used by command-line flags and test directives.
func FromString(s string) (T, error) {
	for t, name := range tagNames {
		if name == s {
			return T(t), nil
		}
	}
	return 0, errors.Newf("unknown tag name %q", s)
}
