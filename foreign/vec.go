package foreign

import (
	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
	"github.com/wippyai/ffi-bridge/heap"
	"github.com/wippyai/ffi-bridge/resource"
)

const minVecCap = 4

// vecObject stores elements contiguously in a heap buffer that doubles when
// full. Reference vectors own their elements and drop them with the vector.
type vecObject[T any] struct {
	h        *heap.Heap
	dropElem func(T)
	codec    abi.Codec[T]
	buf      ffibridge.Addr
	len      uint32
	cap      uint32
}

func (v *vecObject[T]) Drop() {
	if v.dropElem != nil {
		for i := uint32(0); i < v.len; i++ {
			if x, ok := v.get(i); ok {
				v.dropElem(x)
			}
		}
	}
	if v.buf != ffibridge.Null {
		v.h.Free(v.buf, v.cap*v.codec.Size, v.codec.Align)
		v.buf = ffibridge.Null
	}
	v.len, v.cap = 0, 0
}

func (v *vecObject[T]) offset(i uint32) uint32 {
	return v.buf + i*v.codec.Size
}

func (v *vecObject[T]) grow() error {
	newCap := max(minVecCap, v.cap*2)
	if newCap > abi.MaxVecLength {
		return errors.Overflow(errors.PhaseContainer, nil, newCap, "vector capacity")
	}
	size, ok := abi.SafeMulU32(newCap, v.codec.Size)
	if !ok {
		return errors.AllocationFailed(errors.PhaseContainer, newCap, v.codec.Size)
	}
	buf, err := v.h.Alloc(size, v.codec.Align)
	if err != nil {
		return err
	}
	if v.len > 0 {
		data, err := v.h.ReadBytes(v.buf, v.len*v.codec.Size)
		if err != nil {
			v.h.Free(buf, size, v.codec.Align)
			return err
		}
		if err := v.h.Write(buf, data); err != nil {
			v.h.Free(buf, size, v.codec.Align)
			return err
		}
	}
	if v.buf != ffibridge.Null {
		v.h.Free(v.buf, v.cap*v.codec.Size, v.codec.Align)
	}
	v.buf, v.cap = buf, newCap
	return nil
}

func (v *vecObject[T]) push(x T) error {
	if v.len == v.cap {
		if err := v.grow(); err != nil {
			return err
		}
	}
	if err := v.codec.Store(v.h, v.offset(v.len), x); err != nil {
		return err
	}
	v.len++
	return nil
}

func (v *vecObject[T]) pop() (T, bool) {
	if v.len == 0 {
		var zero T
		return zero, false
	}
	x, ok := v.get(v.len - 1)
	if ok {
		v.len--
	}
	return x, ok
}

func (v *vecObject[T]) get(i uint32) (T, bool) {
	var zero T
	if i >= v.len {
		return zero, false
	}
	x, err := v.codec.Load(v.h, v.offset(i))
	if err != nil {
		errors.Trap(errors.Wrap(errors.PhaseContainer, errors.KindOutOfBounds, err, "vector element"))
	}
	return x, true
}

func index(i uint) (uint32, bool) {
	if uint64(i) > uint64(^uint32(0)) {
		return 0, false
	}
	return uint32(i), true
}

// RegisterVec exports the container witness for a primitive element type.
// pop, get and get_mut return the Option aggregate.
func RegisterVec[T abi.Primitive](rt *Runtime) error {
	codec := abi.CodecFor[T]()
	elem := codec.Name
	o, err := DeclareOpaque[vecObject[T]](rt, abi.VecTypeName(elem))
	if err != nil {
		return err
	}
	h := rt.Heap()

	getAt := func(addr ffibridge.Addr, i uint, kind resource.BorrowKind) abi.Option[T] {
		out := abi.None[T]()
		o.mustWith(addr, kind, func(v *vecObject[T]) {
			if idx, ok := index(i); ok {
				if x, ok := v.get(idx); ok {
					out = abi.Some(x)
				}
			}
		})
		return out
	}

	exports := []struct {
		op string
		fn any
	}{
		{abi.OpNew, func() ffibridge.Addr {
			return mustNew(o, vecObject[T]{h: h, codec: codec})
		}},
		{abi.OpLen, func(addr ffibridge.Addr) uint {
			var n uint
			o.mustWith(addr, resource.Shared, func(v *vecObject[T]) { n = uint(v.len) })
			return n
		}},
		{abi.OpPush, func(addr ffibridge.Addr, x T) {
			o.mustWith(addr, resource.Exclusive, func(v *vecObject[T]) {
				if err := v.push(x); err != nil {
					trapContainer(err)
				}
			})
		}},
		{abi.OpPop, func(addr ffibridge.Addr) abi.Option[T] {
			out := abi.None[T]()
			o.mustWith(addr, resource.Exclusive, func(v *vecObject[T]) {
				if x, ok := v.pop(); ok {
					out = abi.Some(x)
				}
			})
			return out
		}},
		{abi.OpGet, func(addr ffibridge.Addr, i uint) abi.Option[T] {
			return getAt(addr, i, resource.Shared)
		}},
		{abi.OpGetMut, func(addr ffibridge.Addr, i uint) abi.Option[T] {
			return getAt(addr, i, resource.Exclusive)
		}},
		{abi.OpAsPtr, func(addr ffibridge.Addr) ffibridge.Addr {
			var p ffibridge.Addr
			o.mustWith(addr, resource.Shared, func(v *vecObject[T]) { p = v.buf })
			return p
		}},
	}
	for _, e := range exports {
		if err := rt.Export(abi.VecSymbol(elem, e.op), e.fn); err != nil {
			return err
		}
	}
	return nil
}

// RegisterRefVec exports the container witness for a boxed element type.
// Elements are addresses; push moves ownership in, pop moves it out, and
// get returns a borrowed address or Null.
func RegisterRefVec(rt *Runtime, elem string) error {
	o, err := DeclareOpaque[vecObject[ffibridge.Addr]](rt, abi.VecTypeName(elem))
	if err != nil {
		return err
	}
	h := rt.Heap()
	elemType := rt.TypeID(elem)

	getAt := func(addr ffibridge.Addr, i uint, kind resource.BorrowKind) ffibridge.Addr {
		var out ffibridge.Addr
		o.mustWith(addr, kind, func(v *vecObject[ffibridge.Addr]) {
			if idx, ok := index(i); ok {
				out, _ = v.get(idx)
			}
		})
		return out
	}

	exports := []struct {
		op string
		fn any
	}{
		{abi.OpNew, func() ffibridge.Addr {
			return mustNew(o, vecObject[ffibridge.Addr]{h: h, codec: abi.AddrCodec, dropElem: rt.dropOwned})
		}},
		{abi.OpLen, func(addr ffibridge.Addr) uint {
			var n uint
			o.mustWith(addr, resource.Shared, func(v *vecObject[ffibridge.Addr]) { n = uint(v.len) })
			return n
		}},
		{abi.OpPush, func(addr, x ffibridge.Addr) {
			if id, ok := rt.objects.TypeID(x); !ok || id != elemType {
				errors.Trap(errors.New(errors.PhaseContainer, errors.KindNotFound).
					DeclType(elem).
					Value(x).
					Detail("pushed element %#x is not a live %s", x, elem).
					Build())
			}
			o.mustWith(addr, resource.Exclusive, func(v *vecObject[ffibridge.Addr]) {
				if err := v.push(x); err != nil {
					trapContainer(err)
				}
			})
		}},
		{abi.OpPop, func(addr ffibridge.Addr) ffibridge.Addr {
			var out ffibridge.Addr
			o.mustWith(addr, resource.Exclusive, func(v *vecObject[ffibridge.Addr]) {
				out, _ = v.pop()
			})
			return out
		}},
		{abi.OpGet, func(addr ffibridge.Addr, i uint) ffibridge.Addr {
			return getAt(addr, i, resource.Shared)
		}},
		{abi.OpGetMut, func(addr ffibridge.Addr, i uint) ffibridge.Addr {
			return getAt(addr, i, resource.Exclusive)
		}},
		{abi.OpAsPtr, func(addr ffibridge.Addr) ffibridge.Addr {
			var p ffibridge.Addr
			o.mustWith(addr, resource.Shared, func(v *vecObject[ffibridge.Addr]) { p = v.buf })
			return p
		}},
	}
	for _, e := range exports {
		if err := rt.Export(abi.VecSymbol(elem, e.op), e.fn); err != nil {
			return err
		}
	}
	return nil
}

func mustNew[T any](o *OpaqueType[T], v T) ffibridge.Addr {
	addr, err := o.New(v)
	if err != nil {
		errors.Trap(errors.Wrap(errors.PhaseRuntime, errors.KindAllocation, err, o.name))
	}
	return addr
}

func trapContainer(err error) {
	e, ok := errors.As(err)
	if !ok {
		e = errors.Wrap(errors.PhaseContainer, errors.KindAllocation, err, "vector push")
	}
	errors.Trap(e)
}
