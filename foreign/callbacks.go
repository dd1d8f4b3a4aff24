package foreign

import (
	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
)

// FnOnceType is the declared name of a boxed one-shot callback.
const FnOnceType = "FnOnce"

func (r *Runtime) exportBoxedFn() error {
	if err := r.Export(abi.CallBoxedFnOnceSymbol, func(addr ffibridge.Addr) {
		v, err := r.Unbox(addr)
		if err != nil {
			errors.Trap(errors.DoubleFree(errors.PhaseAsync, addr))
		}
		v.(func())()
	}); err != nil {
		return err
	}
	return r.Export(abi.FreeBoxedFnOnceSymbol, r.Drop)
}

// BoxFnOnce boxes fn for the managed side. The address must be passed to
// exactly one of the call or free symbols.
func (r *Runtime) BoxFnOnce(fn func()) (ffibridge.Addr, error) {
	return r.Box(FnOnceType, fn)
}
