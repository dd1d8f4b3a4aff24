package async

import (
	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/handle"
)

// FnOnceType is the declared name of a boxed one-shot callback.
const FnOnceType = "FnOnce"

// Callbacks holds the call and free symbols for boxed one-shot callbacks.
type Callbacks struct {
	call func(ffibridge.Addr)
	free func(ffibridge.Addr)
}

// BindCallbacks resolves the boxed one-shot callback symbols.
func BindCallbacks(syms ffibridge.Symbols) (*Callbacks, error) {
	call, err := ffibridge.Resolve[func(ffibridge.Addr)](syms, abi.CallBoxedFnOnceSymbol)
	if err != nil {
		return nil, err
	}
	free, err := ffibridge.Resolve[func(ffibridge.Addr)](syms, abi.FreeBoxedFnOnceSymbol)
	if err != nil {
		return nil, err
	}
	return &Callbacks{call: call, free: free}, nil
}

// Lift takes ownership of a boxed callback address.
func (c *Callbacks) Lift(addr ffibridge.Addr) *FnOnce {
	return &FnOnce{h: handle.New(FnOnceType, addr, c.free), call: c.call}
}

// FnOnce is an owned boxed callback. Exactly one of Call or Free releases
// it; calling consumes the box.
type FnOnce struct {
	h    *handle.Handle
	call func(ffibridge.Addr)
}

// Call invokes the callback and releases it. It traps when the callback was
// already called or freed.
func (f *FnOnce) Call() {
	f.call(f.h.MustTransfer())
}

// Free releases the callback without calling it.
func (f *FnOnce) Free() { f.h.Free() }

func (f *FnOnce) Addr() ffibridge.Addr { return f.h.Addr() }

// Owns reports whether the callback is still live.
func (f *FnOnce) Owns() bool { return f.h.Owns() }
