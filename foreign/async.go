package foreign

import (
	"context"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
	"go.uber.org/zap"
)

// AsyncFunc is the exported shape of an async function: the argument, the
// caller's completion context and the completion function. It returns at
// once; complete is called exactly once from a worker goroutine.
type AsyncFunc[A, R any] = func(arg A, cbCtx ffibridge.Addr, complete func(ffibridge.Addr, R))

// ExportAsync exports fn as an async function under __bridge__$<name>.
func ExportAsync[A, R any](rt *Runtime, name string, fn func(context.Context, A) R) error {
	symbol := abi.FuncSymbol(name)
	sym := func(arg A, cbCtx ffibridge.Addr, complete func(ffibridge.Addr, R)) {
		err := rt.exec.Spawn(func() {
			complete(cbCtx, fn(rt.ctx, arg))
		})
		if err != nil {
			kind := errors.KindNotInitialized
			if e, ok := errors.As(err); ok {
				kind = e.Kind
			}
			errors.Trap(errors.Wrap(errors.PhaseAsync, kind, err, symbol))
		}
		Logger().Debug("async task spawned", zap.String("symbol", symbol), zap.Uint32("context", cbCtx))
	}
	return rt.Export(symbol, sym)
}
