package foreign

import (
	"bytes"
	"unicode"
	"unicode/utf8"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
	"github.com/wippyai/ffi-bridge/heap"
)

// StringType is the declared name of the owned string type.
const StringType = "String"

// StrType is the declared name of the borrowed string view.
const StrType = "Str"

// stringObject owns a UTF-8 buffer in the heap.
type stringObject struct {
	h   *heap.Heap
	ptr ffibridge.Addr
	len uint32
}

func (s *stringObject) Drop() {
	if s.ptr != ffibridge.Null {
		s.h.Free(s.ptr, s.len, 1)
		s.ptr = ffibridge.Null
	}
}

func (s *stringObject) view() abi.Str {
	return abi.Str{Start: s.ptr, Len: s.len}
}

func (s *stringObject) bytes() []byte {
	b, err := s.h.ReadBytes(s.ptr, s.len)
	if err != nil {
		errors.Trap(errors.Wrap(errors.PhaseRuntime, errors.KindOutOfBounds, err, "string buffer"))
	}
	return b
}

// RegisterStrings exports the string type, its view equality and the
// string container witness.
func RegisterStrings(rt *Runtime) error {
	o, err := DeclareOpaque[stringObject](rt, StringType)
	if err != nil {
		return err
	}
	h := rt.Heap()

	newString := func(data []byte) ffibridge.Addr {
		ptr, err := h.AllocBytes(data)
		if err != nil {
			errors.Trap(errors.Wrap(errors.PhaseRuntime, errors.KindAllocation, err, StringType))
		}
		addr, err := o.New(stringObject{h: h, ptr: ptr, len: uint32(len(data))})
		if err != nil {
			h.Free(ptr, uint32(len(data)), 1)
			errors.Trap(errors.Wrap(errors.PhaseRuntime, errors.KindAllocation, err, StringType))
		}
		return addr
	}

	exports := []struct {
		name string
		fn   any
	}{
		{abi.TypeSymbol(StringType, "new"), func() ffibridge.Addr {
			return newString(nil)
		}},
		{abi.TypeSymbol(StringType, "new_with_str"), func(s abi.Str) ffibridge.Addr {
			return newString(readStr(h, s))
		}},
		{abi.TypeSymbol(StringType, "len"), func(addr ffibridge.Addr) uint {
			return uint(mustGet[*stringObject](rt, StringType, addr).len)
		}},
		{abi.TypeSymbol(StringType, "as_str"), func(addr ffibridge.Addr) abi.Str {
			return mustGet[*stringObject](rt, StringType, addr).view()
		}},
		{abi.TypeSymbol(StringType, "as_ptr"), func(addr ffibridge.Addr) ffibridge.Addr {
			return mustGet[*stringObject](rt, StringType, addr).ptr
		}},
		{abi.TypeSymbol(StringType, "trim"), func(addr ffibridge.Addr) abi.Str {
			s := mustGet[*stringObject](rt, StringType, addr)
			return trimView(s.view(), s.bytes())
		}},
		{abi.TypeSymbol(StrType, abi.OpPartialEq), func(lhs, rhs abi.Str) bool {
			return bytes.Equal(readBytes(h, lhs), readBytes(h, rhs))
		}},
	}
	for _, e := range exports {
		if err := rt.Export(e.name, e.fn); err != nil {
			return err
		}
	}

	return RegisterRefVec(rt, StringType)
}

func readBytes(h *heap.Heap, s abi.Str) []byte {
	b, err := h.ReadBytes(s.Start, s.Len)
	if err != nil {
		errors.Trap(errors.Wrap(errors.PhaseDecode, errors.KindOutOfBounds, err, "str view"))
	}
	return b
}

// readStr copies a view and traps when it is not valid UTF-8.
func readStr(h *heap.Heap, s abi.Str) []byte {
	b := readBytes(h, s)
	if !utf8.Valid(b) {
		errors.Trap(errors.InvalidUTF8(errors.PhaseDecode, []string{StrType}, b))
	}
	return b
}

// trimView narrows v to exclude leading and trailing Unicode whitespace.
func trimView(v abi.Str, data []byte) abi.Str {
	left := len(data) - len(bytes.TrimLeftFunc(data, unicode.IsSpace))
	if left == len(data) {
		return abi.Str{Start: v.Start + uint32(left), Len: 0}
	}
	right := len(bytes.TrimRightFunc(data, unicode.IsSpace))
	return abi.Str{Start: v.Start + uint32(left), Len: uint32(right - left)}
}
