package vec

import (
	"iter"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/errors"
	"github.com/wippyai/ffi-bridge/handle"
	"github.com/wippyai/ffi-bridge/option"
)

// Vec is a foreign vector held through a handle.
type Vec[T any] struct {
	w *Witness[T]
	h *handle.Handle
}

// New creates an empty owned vector.
func New[T any](w *Witness[T]) *Vec[T] {
	return &Vec[T]{w: w, h: handle.New(w.TypeName(), w.New(), w.Free)}
}

// FromAddr wraps a vector address in the given mode.
func FromAddr[T any](w *Witness[T], addr ffibridge.Addr, mode handle.Mode) *Vec[T] {
	return &Vec[T]{w: w, h: handle.Lift(w.TypeName(), addr, mode, w.Free)}
}

// From creates an owned vector holding values in order.
func From[T any](w *Witness[T], values ...T) *Vec[T] {
	v := New(w)
	for _, x := range values {
		v.Push(x)
	}
	return v
}

func (v *Vec[T]) Witness() *Witness[T] { return v.w }

func (v *Vec[T]) Handle() *handle.Handle { return v.h }

func (v *Vec[T]) Addr() ffibridge.Addr { return v.h.Addr() }

// Len returns the number of elements.
func (v *Vec[T]) Len() uint { return v.w.Len(v.h.Addr()) }

// Push appends x. A reference element is moved into the vector.
func (v *Vec[T]) Push(x T) {
	v.mutable("push")
	v.w.Push(v.h.Addr(), x)
}

// Pop removes and returns the last element.
func (v *Vec[T]) Pop() option.Option[T] {
	v.mutable("pop")
	return v.w.Pop(v.h.Addr())
}

// Get returns the element at i, or None when i is out of range.
func (v *Vec[T]) Get(i uint) option.Option[T] {
	return v.w.Get(v.h.Addr(), i)
}

// GetMut is Get with a mutable borrow of the element.
func (v *Vec[T]) GetMut(i uint) option.Option[T] {
	v.mutable("get_mut")
	return v.w.GetMut(v.h.Addr(), i)
}

// AsPtr returns the address of the element buffer. It is invalidated by
// the next push.
func (v *Vec[T]) AsPtr() ffibridge.Addr { return v.w.AsPtr(v.h.Addr()) }

// Values yields elements from index 0 until the first absent one. Each
// call starts over.
func (v *Vec[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, x := range v.All() {
			if !yield(x) {
				return
			}
		}
	}
}

// All yields index and element pairs from index 0 until the first absent
// element.
func (v *Vec[T]) All() iter.Seq2[uint, T] {
	return func(yield func(uint, T) bool) {
		for i := uint(0); ; i++ {
			x, ok := v.Get(i).Get()
			if !ok || !yield(i, x) {
				return
			}
		}
	}
}

// Collect pops every element, last first.
func (v *Vec[T]) Collect() []T {
	var out []T
	for {
		x, ok := v.Pop().Get()
		if !ok {
			return out
		}
		out = append(out, x)
	}
}

// AsRef lends the vector without ownership.
func (v *Vec[T]) AsRef() *Vec[T] { return &Vec[T]{w: v.w, h: v.h.AsRef()} }

// AsMut lends the vector mutably without ownership.
func (v *Vec[T]) AsMut() *Vec[T] { return &Vec[T]{w: v.w, h: v.h.AsMut()} }

// Free destroys the vector and the elements it owns.
func (v *Vec[T]) Free() { v.h.Free() }

// TransferOut gives up ownership of the vector.
func (v *Vec[T]) TransferOut() (ffibridge.Addr, bool) { return v.h.TransferOut() }

func (v *Vec[T]) Owns() bool { return v.h.Owns() }

func (v *Vec[T]) String() string { return v.h.String() }

func (v *Vec[T]) mutable(op string) {
	if v.h.Mode() == handle.Borrowed {
		errors.Trap(errors.New(errors.PhaseOwnership, errors.KindAliasing).
			DeclType(v.h.TypeName()).
			Value(v.h.Addr()).
			Detail("%s through a shared borrow", op).
			Build())
	}
}
