package foreign

import (
	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
	"github.com/wippyai/ffi-bridge/resource"
)

// OpaqueType is a declared type whose values live only in the runtime and
// cross the boundary as addresses.
type OpaqueType[T any] struct {
	rt     *Runtime
	name   string
	typeID uint32
}

// DeclareOpaque declares name and exports its destructor symbol.
func DeclareOpaque[T any](rt *Runtime, name string) (*OpaqueType[T], error) {
	o := &OpaqueType[T]{rt: rt, name: name, typeID: rt.TypeID(name)}
	if err := rt.Export(abi.TypeSymbol(name, abi.OpFree), o.Free); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *OpaqueType[T]) Name() string { return o.name }

func (o *OpaqueType[T]) Runtime() *Runtime { return o.rt }

// New boxes v and returns the owning address.
func (o *OpaqueType[T]) New(v T) (ffibridge.Addr, error) {
	return o.rt.Box(o.name, &v)
}

// Get returns the boxed value at addr.
func (o *OpaqueType[T]) Get(addr ffibridge.Addr) (*T, bool) {
	v, ok := o.rt.objects.GetTyped(addr, o.typeID)
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// Take consumes the object at addr and returns its value.
func (o *OpaqueType[T]) Take(addr ffibridge.Addr) (T, error) {
	var zero T
	if _, ok := o.Get(addr); !ok {
		return zero, errors.NotFound(errors.PhaseRuntime, o.name, "object")
	}
	v, err := o.rt.objects.Take(addr)
	if err != nil {
		return zero, err
	}
	return *v.(*T), nil
}

// Free drops the object at addr.
func (o *OpaqueType[T]) Free(addr ffibridge.Addr) {
	o.rt.Drop(addr)
}

// With runs fn under a shared borrow of the object at addr.
func (o *OpaqueType[T]) With(addr ffibridge.Addr, fn func(*T)) error {
	return o.borrow(addr, resource.Shared, fn)
}

// WithMut runs fn under an exclusive borrow of the object at addr.
func (o *OpaqueType[T]) WithMut(addr ffibridge.Addr, fn func(*T)) error {
	return o.borrow(addr, resource.Exclusive, fn)
}

func (o *OpaqueType[T]) borrow(addr ffibridge.Addr, kind resource.BorrowKind, fn func(*T)) error {
	v, ok := o.Get(addr)
	if !ok {
		return errors.New(errors.PhaseRuntime, errors.KindNotFound).
			DeclType(o.name).
			Detail("no live %s at %#x", o.name, addr).
			Build()
	}
	if err := o.rt.objects.Borrow(addr, kind); err != nil {
		return err
	}
	defer o.rt.objects.ReturnBorrow(addr, kind)
	fn(v)
	return nil
}

func (o *OpaqueType[T]) mustWith(addr ffibridge.Addr, kind resource.BorrowKind, fn func(*T)) {
	if err := o.borrow(addr, kind, fn); err != nil {
		e, ok := errors.As(err)
		if !ok {
			e = errors.Wrap(errors.PhaseRuntime, errors.KindInvalidData, err, o.name)
		}
		errors.Trap(e)
	}
}

// ExportConstructor exports op as func(A) Addr that boxes the result of fn.
func ExportConstructor[T, A any](o *OpaqueType[T], op string, fn func(A) T) error {
	return o.rt.Export(abi.TypeSymbol(o.name, op), func(arg A) ffibridge.Addr {
		addr, err := o.New(fn(arg))
		if err != nil {
			errors.Trap(errors.Wrap(errors.PhaseRuntime, errors.KindAllocation, err, o.name))
		}
		return addr
	})
}

// ExportRef exports op as func(Addr) R running fn under a shared borrow.
func ExportRef[T, R any](o *OpaqueType[T], op string, fn func(*T) R) error {
	return o.rt.Export(abi.TypeSymbol(o.name, op), func(addr ffibridge.Addr) R {
		var out R
		o.mustWith(addr, resource.Shared, func(v *T) { out = fn(v) })
		return out
	})
}

// ExportMut exports op as func(Addr, A) R running fn under an exclusive borrow.
func ExportMut[T, A, R any](o *OpaqueType[T], op string, fn func(*T, A) R) error {
	return o.rt.Export(abi.TypeSymbol(o.name, op), func(addr ffibridge.Addr, arg A) R {
		var out R
		o.mustWith(addr, resource.Exclusive, func(v *T) { out = fn(v, arg) })
		return out
	})
}

// ExportConsume exports op as func(Addr) R. The object is taken by value.
func ExportConsume[T, R any](o *OpaqueType[T], op string, fn func(T) R) error {
	return o.rt.Export(abi.TypeSymbol(o.name, op), func(addr ffibridge.Addr) R {
		v, err := o.Take(addr)
		if err != nil {
			errors.Trap(errors.Wrap(errors.PhaseOwnership, errors.KindNotOwned, err, o.name))
		}
		return fn(v)
	})
}
