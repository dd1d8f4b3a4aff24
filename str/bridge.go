package str

import (
	"unicode/utf8"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
	"github.com/wippyai/ffi-bridge/handle"
	"github.com/wippyai/ffi-bridge/heap"
	"github.com/wippyai/ffi-bridge/vec"
)

// Declared names of the owned string and the borrowed view.
const (
	TypeName = "String"
	ViewName = "Str"
)

// Bridge holds the bound string symbols and the heap views point into.
type Bridge struct {
	heap       *heap.Heap
	newEmpty   func() ffibridge.Addr
	newWithStr func(abi.Str) ffibridge.Addr
	length     func(ffibridge.Addr) uint
	asStr      func(ffibridge.Addr) abi.Str
	asPtr      func(ffibridge.Addr) ffibridge.Addr
	trim       func(ffibridge.Addr) abi.Str
	free       func(ffibridge.Addr)
	equal      func(abi.Str, abi.Str) bool
	witness    *vec.Witness[*String]
}

// Bind resolves the string symbols and the string container witness.
func Bind(syms ffibridge.Symbols, h *heap.Heap) (*Bridge, error) {
	if h == nil {
		return nil, errors.NotInitialized(errors.PhaseBind, "heap")
	}
	b := ffibridge.NewBinder(syms)
	sym := func(op string) string { return abi.TypeSymbol(TypeName, op) }

	br := &Bridge{
		heap:       h,
		newEmpty:   ffibridge.Bind[func() ffibridge.Addr](b, sym(abi.OpNew)),
		newWithStr: ffibridge.Bind[func(abi.Str) ffibridge.Addr](b, sym("new_with_str")),
		length:     ffibridge.Bind[func(ffibridge.Addr) uint](b, sym(abi.OpLen)),
		asStr:      ffibridge.Bind[func(ffibridge.Addr) abi.Str](b, sym("as_str")),
		asPtr:      ffibridge.Bind[func(ffibridge.Addr) ffibridge.Addr](b, sym(abi.OpAsPtr)),
		trim:       ffibridge.Bind[func(ffibridge.Addr) abi.Str](b, sym("trim")),
		free:       ffibridge.Bind[func(ffibridge.Addr)](b, sym(abi.OpFree)),
		equal:      ffibridge.Bind[func(abi.Str, abi.Str) bool](b, abi.TypeSymbol(ViewName, abi.OpPartialEq)),
	}
	if err := b.Err(); err != nil {
		return nil, err
	}

	w, err := vec.RefWitness(syms, TypeName, br.Lift, (*String).MustTransfer)
	if err != nil {
		return nil, err
	}
	br.witness = w
	return br, nil
}

// Witness returns the container witness for strings.
func (b *Bridge) Witness() *vec.Witness[*String] { return b.witness }

// New creates an empty owned string.
func (b *Bridge) New() *String {
	return b.Lift(b.newEmpty(), handle.Owned)
}

// FromString copies s into a new owned string. It traps when s is not
// valid UTF-8.
func (b *Bridge) FromString(s string) *String {
	if !utf8.ValidString(s) {
		errors.Trap(errors.InvalidUTF8(errors.PhaseEncode, []string{TypeName}, []byte(s)))
	}
	if len(s) == 0 {
		return b.New()
	}
	ptr, err := b.heap.AllocBytes([]byte(s))
	if err != nil {
		errors.Trap(errors.Wrap(errors.PhaseEncode, errors.KindAllocation, err, TypeName))
	}
	defer b.heap.Free(ptr, uint32(len(s)), 1)
	return b.Lift(b.newWithStr(abi.Str{Start: ptr, Len: uint32(len(s))}), handle.Owned)
}

// FromBytes copies n bytes at ptr into a new owned string. It traps when
// the bytes are not valid UTF-8.
func (b *Bridge) FromBytes(ptr ffibridge.Addr, n uint32) *String {
	v := b.View(abi.Str{Start: ptr, Len: n})
	v.validate(errors.PhaseEncode)
	return b.Lift(b.newWithStr(v.raw), handle.Owned)
}

// Lift wraps a string address in the given mode.
func (b *Bridge) Lift(addr ffibridge.Addr, mode handle.Mode) *String {
	return &String{b: b, h: handle.Lift(TypeName, addr, mode, b.free)}
}

// View wraps a borrowed Str aggregate.
func (b *Bridge) View(s abi.Str) View {
	return View{b: b, raw: s}
}
