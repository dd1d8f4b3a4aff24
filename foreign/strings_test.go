package foreign

import (
	"testing"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
)

type stringSymbols struct {
	newEmpty   func() ffibridge.Addr
	newWithStr func(abi.Str) ffibridge.Addr
	length     func(ffibridge.Addr) uint
	asStr      func(ffibridge.Addr) abi.Str
	asPtr      func(ffibridge.Addr) ffibridge.Addr
	trim       func(ffibridge.Addr) abi.Str
	free       func(ffibridge.Addr)
	equal      func(abi.Str, abi.Str) bool
}

func newStrings(t *testing.T) (*Runtime, stringSymbols) {
	t.Helper()
	rt := newRuntime(t, Config{Workers: 1})
	if err := RegisterStrings(rt); err != nil {
		t.Fatal(err)
	}
	sym := func(op string) string { return abi.TypeSymbol(StringType, op) }
	return rt, stringSymbols{
		newEmpty:   resolve[func() ffibridge.Addr](t, rt, sym("new")),
		newWithStr: resolve[func(abi.Str) ffibridge.Addr](t, rt, sym("new_with_str")),
		length:     resolve[func(ffibridge.Addr) uint](t, rt, sym("len")),
		asStr:      resolve[func(ffibridge.Addr) abi.Str](t, rt, sym("as_str")),
		asPtr:      resolve[func(ffibridge.Addr) ffibridge.Addr](t, rt, sym("as_ptr")),
		trim:       resolve[func(ffibridge.Addr) abi.Str](t, rt, sym("trim")),
		free:       resolve[func(ffibridge.Addr)](t, rt, sym(abi.OpFree)),
		equal:      resolve[func(abi.Str, abi.Str) bool](t, rt, abi.TypeSymbol(StrType, abi.OpPartialEq)),
	}
}

func writeStr(t *testing.T, rt *Runtime, s string) abi.Str {
	t.Helper()
	ptr, err := rt.Heap().AllocBytes([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rt.Heap().Free(ptr, uint32(len(s)), 1) })
	return abi.Str{Start: ptr, Len: uint32(len(s))}
}

func TestStrings_Lifecycle(t *testing.T) {
	rt, s := newStrings(t)
	before := rt.Heap().Stats()

	src := writeStr(t, rt, "  hi there ")
	addr := s.newWithStr(src)
	if s.length(addr) != 11 {
		t.Errorf("len = %d", s.length(addr))
	}
	view := s.asStr(addr)
	if view.Start != s.asPtr(addr) || view.Start == src.Start {
		t.Errorf("as_str = %+v, as_ptr = %#x", view, s.asPtr(addr))
	}

	trimmed := s.trim(addr)
	if trimmed.Start != view.Start+2 || trimmed.Len != 8 {
		t.Errorf("trim = %+v", trimmed)
	}
	if !s.equal(trimmed, writeStr(t, rt, "hi there")) {
		t.Error("trimmed view should equal the literal")
	}

	s.free(addr)
	if _, ok := rt.Deref(addr); ok {
		t.Error("string still live after free")
	}
	after := rt.Heap().Stats()
	if after.Frees-before.Frees < 2 {
		t.Errorf("free should release the object cell and the buffer: %+v", after)
	}
}

func TestStrings_Empty(t *testing.T) {
	_, s := newStrings(t)
	addr := s.newEmpty()
	defer s.free(addr)
	if s.length(addr) != 0 {
		t.Errorf("len = %d", s.length(addr))
	}
	if v := s.asStr(addr); !v.IsEmpty() {
		t.Errorf("as_str = %+v", v)
	}
	if v := s.trim(addr); v.Len != 0 {
		t.Errorf("trim = %+v", v)
	}
}

func TestStrings_InvalidUTF8Traps(t *testing.T) {
	rt, s := newStrings(t)
	ptr, err := rt.Heap().AllocBytes([]byte{'o', 'k', 0xc3})
	if err != nil {
		t.Fatal(err)
	}
	expectTrap(t, errors.KindInvalidUTF8, func() {
		s.newWithStr(abi.Str{Start: ptr, Len: 3})
	})
}

func TestStrings_WrongTypeTraps(t *testing.T) {
	rt, s := newStrings(t)
	addr, err := rt.Box("Other", 1)
	if err != nil {
		t.Fatal(err)
	}
	expectTrap(t, errors.KindNotFound, func() { s.length(addr) })
}
