// Package option provides the managed optional type and its boundary
// encodings.
//
// Two encodings cross the boundary:
//
//	reference  a nullable address; Null means absent
//	primitive  the abi.Option[T] aggregate {val, is_some}; an absent value
//	           carries abi.Sentinel[T]() and is never read
package option

import (
	"fmt"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
)

// Option holds a value or nothing.
type Option[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Option[T] {
	return Option[T]{value: v, ok: true}
}

func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}

func (o Option[T]) IsSome() bool { return o.ok }

func (o Option[T]) IsNone() bool { return !o.ok }

// Unwrap returns the value and panics when absent.
func (o Option[T]) Unwrap() T {
	if !o.ok {
		panic(errors.New(errors.PhaseDecode, errors.KindNilPointer).
			Detail("unwrap of an absent optional").
			Build())
	}
	return o.value
}

// OrElse returns the value or def when absent.
func (o Option[T]) OrElse(def T) T {
	if o.ok {
		return o.value
	}
	return def
}

func (o Option[T]) String() string {
	if !o.ok {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.value)
}

// Map applies fn to a present value.
func Map[T, U any](o Option[T], fn func(T) U) Option[U] {
	if !o.ok {
		return None[U]()
	}
	return Some(fn(o.value))
}

// Encode lowers a primitive optional to its aggregate.
func Encode[T abi.Primitive](o Option[T]) abi.Option[T] {
	if !o.ok {
		return abi.None[T]()
	}
	return abi.Some(o.value)
}

// Decode lifts an aggregate. Val is not read when IsSome is false.
func Decode[T abi.Primitive](a abi.Option[T]) Option[T] {
	if !a.IsSome {
		return None[T]()
	}
	return Some(a.Val)
}

// FromAddr lifts a nullable address.
func FromAddr[T any](addr ffibridge.Addr, lift func(ffibridge.Addr) T) Option[T] {
	if addr == ffibridge.Null {
		return None[T]()
	}
	return Some(lift(addr))
}

// ToAddr lowers to a nullable address.
func ToAddr[T any](o Option[T], lower func(T) ffibridge.Addr) ffibridge.Addr {
	if !o.ok {
		return ffibridge.Null
	}
	return lower(o.value)
}

// Read loads a primitive optional from linear memory.
func Read[T abi.Primitive](mem ffibridge.Memory, off uint32) (Option[T], error) {
	a, err := abi.ReadOption[T](mem, off)
	if err != nil {
		return None[T](), err
	}
	return Decode(a), nil
}

// Write stores a primitive optional to linear memory.
func Write[T abi.Primitive](mem ffibridge.Memory, off uint32, o Option[T]) error {
	return abi.WriteOption(mem, off, Encode(o))
}
