package handle

import (
	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
)

// Type binds a declared opaque type to its destructor symbol.
type Type struct {
	free func(ffibridge.Addr)
	name string
}

// Resolve looks up __bridge__$<name>$_free.
func Resolve(syms ffibridge.Symbols, name string) (*Type, error) {
	free, err := ffibridge.Resolve[func(ffibridge.Addr)](syms, abi.TypeSymbol(name, abi.OpFree))
	if err != nil {
		return nil, err
	}
	return &Type{free: free, name: name}, nil
}

func (t *Type) Name() string { return t.name }

// Owned wraps an address returned by value.
func (t *Type) Owned(addr ffibridge.Addr) *Handle {
	return New(t.name, addr, t.free)
}

// Lift wraps an address in the given mode.
func (t *Type) Lift(addr ffibridge.Addr, mode Mode) *Handle {
	return Lift(t.name, addr, mode, t.free)
}

// Free destroys the object at addr directly.
func (t *Type) Free(addr ffibridge.Addr) {
	t.free(addr)
}
