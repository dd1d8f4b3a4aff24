package async

import (
	"context"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
)

// Func is a bound async foreign function presented as a blocking call.
type Func[A, R any] struct {
	reg  *Registry
	fn   func(A, ffibridge.Addr, func(ffibridge.Addr, R))
	name string
}

// Bind resolves the async function exported as __bridge__$<name>.
func Bind[A, R any](syms ffibridge.Symbols, reg *Registry, name string) (*Func[A, R], error) {
	fn, err := ffibridge.Resolve[func(A, ffibridge.Addr, func(ffibridge.Addr, R))](syms, abi.FuncSymbol(name))
	if err != nil {
		return nil, err
	}
	return &Func[A, R]{reg: reg, fn: fn, name: name}, nil
}

func (f *Func[A, R]) Name() string { return f.name }

// Start initiates the call and returns its future without waiting.
func (f *Func[A, R]) Start(arg A) *Future[R] {
	fut, cbCtx := Start[R](f.reg)
	f.fn(arg, cbCtx, Trampoline[R](f.reg))
	return fut
}

// Call initiates the call and waits for its completion.
func (f *Func[A, R]) Call(ctx context.Context, arg A) (R, error) {
	return f.Start(arg).Await(ctx)
}
