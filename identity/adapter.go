package identity

import (
	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
)

// Keyed is anything that crosses the boundary as an address.
type Keyed interface {
	Addr() ffibridge.Addr
}

// Adapter carries the equality and optional hash hooks of one type.
type Adapter struct {
	eq       func(a, b ffibridge.Addr) bool
	hash     func(a ffibridge.Addr) uint64
	typeName string
}

// Bind resolves the equality hook of typeName and, when exported, its hash
// hook. A missing equality hook is an error.
func Bind(syms ffibridge.Symbols, typeName string) (*Adapter, error) {
	eq, err := ffibridge.Resolve[func(a, b ffibridge.Addr) bool](syms, abi.TypeSymbol(typeName, abi.OpPartialEq))
	if err != nil {
		return nil, err
	}
	a := &Adapter{eq: eq, typeName: typeName}

	name := abi.TypeSymbol(typeName, abi.OpHash)
	if _, ok := syms.Lookup(name); ok {
		hash, err := ffibridge.Resolve[func(a ffibridge.Addr) uint64](syms, name)
		if err != nil {
			return nil, err
		}
		a.hash = hash
	}
	return a, nil
}

func (a *Adapter) TypeName() string { return a.typeName }

// Hashable reports whether the type exports a hash hook.
func (a *Adapter) Hashable() bool { return a.hash != nil }

// Equal compares the values behind x and y.
func (a *Adapter) Equal(x, y Keyed) bool {
	return a.eq(x.Addr(), y.Addr())
}

// Hash returns the foreign hash of the value behind x. It traps when the
// type is not hashable.
func (a *Adapter) Hash(x Keyed) uint64 {
	if a.hash == nil {
		errors.Trap(errors.Unsupported(errors.PhaseBind, a.typeName+" is not hashable"))
	}
	return a.hash(x.Addr())
}

// Same reports whether x and y refer to the same object.
func Same(x, y Keyed) bool {
	return x.Addr() == y.Addr()
}
