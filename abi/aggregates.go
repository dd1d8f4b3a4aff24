package abi

import (
	ffibridge "github.com/wippyai/ffi-bridge"
)

// Primitive is the set of fixed-width scalars that cross the boundary by value.
// uint and int are the pointer-sized usize and isize.
type Primitive interface {
	uint8 | uint16 | uint32 | uint64 | uint |
		int8 | int16 | int32 | int64 | int |
		float32 | float64 | bool
}

// Str is a borrowed view of UTF-8 bytes owned elsewhere.
type Str struct {
	Start ffibridge.Addr
	Len   uint32
}

// IsEmpty reports whether the view covers no bytes.
func (s Str) IsEmpty() bool { return s.Len == 0 }

// Option is the optional aggregate for a primitive. Val is meaningless
// when IsSome is false and holds Sentinel[T]().
type Option[T Primitive] struct {
	Val    T
	IsSome bool
}

// ResultPtrAndPtr encodes a result whose payloads are both references.
// OkOrErr is the ok address when IsOk is true and the error address otherwise.
type ResultPtrAndPtr struct {
	IsOk    bool
	OkOrErr ffibridge.Addr
}

// Sentinel returns the filler stored in Option[T].Val for an absent value:
// 123 for integers, 123.4 for floats, false for bool.
func Sentinel[T Primitive]() T {
	var v T
	switch p := any(&v).(type) {
	case *uint8:
		*p = 123
	case *uint16:
		*p = 123
	case *uint32:
		*p = 123
	case *uint64:
		*p = 123
	case *uint:
		*p = 123
	case *int8:
		*p = 123
	case *int16:
		*p = 123
	case *int32:
		*p = 123
	case *int64:
		*p = 123
	case *int:
		*p = 123
	case *float32:
		*p = 123.4
	case *float64:
		*p = 123.4
	case *bool:
		*p = false
	}
	return v
}

// Some returns a present Option aggregate.
func Some[T Primitive](v T) Option[T] {
	return Option[T]{Val: v, IsSome: true}
}

// None returns an absent Option aggregate carrying the sentinel.
func None[T Primitive]() Option[T] {
	return Option[T]{Val: Sentinel[T]()}
}
