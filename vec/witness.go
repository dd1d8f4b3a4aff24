package vec

import (
	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/handle"
	"github.com/wippyai/ffi-bridge/option"
)

// Witness is the set of container functions for one element type.
type Witness[T any] struct {
	New    func() ffibridge.Addr
	Free   func(ffibridge.Addr)
	Len    func(ffibridge.Addr) uint
	Push   func(ffibridge.Addr, T)
	Pop    func(ffibridge.Addr) option.Option[T]
	Get    func(ffibridge.Addr, uint) option.Option[T]
	GetMut func(ffibridge.Addr, uint) option.Option[T]
	AsPtr  func(ffibridge.Addr) ffibridge.Addr
	// Elem is the element name used in symbol names.
	Elem string
}

// TypeName is the declared name of the vector type.
func (w *Witness[T]) TypeName() string { return abi.VecTypeName(w.Elem) }

// PrimitiveWitness binds the container functions for a primitive element.
func PrimitiveWitness[T abi.Primitive](syms ffibridge.Symbols) (*Witness[T], error) {
	elem := abi.ElemName[T]()
	b := ffibridge.NewBinder(syms)
	sym := func(op string) string { return abi.VecSymbol(elem, op) }

	newFn := ffibridge.Bind[func() ffibridge.Addr](b, sym(abi.OpNew))
	free := ffibridge.Bind[func(ffibridge.Addr)](b, sym(abi.OpFree))
	length := ffibridge.Bind[func(ffibridge.Addr) uint](b, sym(abi.OpLen))
	push := ffibridge.Bind[func(ffibridge.Addr, T)](b, sym(abi.OpPush))
	pop := ffibridge.Bind[func(ffibridge.Addr) abi.Option[T]](b, sym(abi.OpPop))
	get := ffibridge.Bind[func(ffibridge.Addr, uint) abi.Option[T]](b, sym(abi.OpGet))
	getMut := ffibridge.Bind[func(ffibridge.Addr, uint) abi.Option[T]](b, sym(abi.OpGetMut))
	asPtr := ffibridge.Bind[func(ffibridge.Addr) ffibridge.Addr](b, sym(abi.OpAsPtr))
	if err := b.Err(); err != nil {
		return nil, err
	}

	return &Witness[T]{
		Elem:   elem,
		New:    newFn,
		Free:   free,
		Len:    length,
		Push:   push,
		Pop:    func(v ffibridge.Addr) option.Option[T] { return option.Decode(pop(v)) },
		Get:    func(v ffibridge.Addr, i uint) option.Option[T] { return option.Decode(get(v, i)) },
		GetMut: func(v ffibridge.Addr, i uint) option.Option[T] { return option.Decode(getMut(v, i)) },
		AsPtr:  asPtr,
	}, nil
}

// RefWitness binds the container functions for a reference element. lift
// wraps an element address in the given mode; lower gives up ownership of
// an element and returns its address, trapping when it is not owned.
func RefWitness[T any](syms ffibridge.Symbols, elem string, lift func(ffibridge.Addr, handle.Mode) T, lower func(T) ffibridge.Addr) (*Witness[T], error) {
	b := ffibridge.NewBinder(syms)
	sym := func(op string) string { return abi.VecSymbol(elem, op) }

	newFn := ffibridge.Bind[func() ffibridge.Addr](b, sym(abi.OpNew))
	free := ffibridge.Bind[func(ffibridge.Addr)](b, sym(abi.OpFree))
	length := ffibridge.Bind[func(ffibridge.Addr) uint](b, sym(abi.OpLen))
	push := ffibridge.Bind[func(ffibridge.Addr, ffibridge.Addr)](b, sym(abi.OpPush))
	pop := ffibridge.Bind[func(ffibridge.Addr) ffibridge.Addr](b, sym(abi.OpPop))
	get := ffibridge.Bind[func(ffibridge.Addr, uint) ffibridge.Addr](b, sym(abi.OpGet))
	getMut := ffibridge.Bind[func(ffibridge.Addr, uint) ffibridge.Addr](b, sym(abi.OpGetMut))
	asPtr := ffibridge.Bind[func(ffibridge.Addr) ffibridge.Addr](b, sym(abi.OpAsPtr))
	if err := b.Err(); err != nil {
		return nil, err
	}

	liftAs := func(mode handle.Mode) func(ffibridge.Addr) T {
		return func(a ffibridge.Addr) T { return lift(a, mode) }
	}

	return &Witness[T]{
		Elem: elem,
		New:  newFn,
		Free: free,
		Len:  length,
		Push: func(v ffibridge.Addr, x T) { push(v, lower(x)) },
		Pop: func(v ffibridge.Addr) option.Option[T] {
			return option.FromAddr(pop(v), liftAs(handle.Owned))
		},
		Get: func(v ffibridge.Addr, i uint) option.Option[T] {
			return option.FromAddr(get(v, i), liftAs(handle.Borrowed))
		},
		GetMut: func(v ffibridge.Addr, i uint) option.Option[T] {
			return option.FromAddr(getMut(v, i), liftAs(handle.BorrowedMut))
		},
		AsPtr: asPtr,
	}, nil
}

// HandleWitness binds the container functions for an opaque type whose
// elements are plain handles.
func HandleWitness(syms ffibridge.Symbols, typ *handle.Type) (*Witness[*handle.Handle], error) {
	return RefWitness(syms, typ.Name(), typ.Lift, (*handle.Handle).MustTransfer)
}
