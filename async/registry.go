package async

import (
	"context"
	"fmt"
	"sync"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/errors"
	"go.uber.org/zap"
)

// Registry tracks pending completion contexts. A context address is never
// Null and never collides with a context that is still pending.
type Registry struct {
	pending map[ffibridge.Addr]any
	next    ffibridge.Addr
	mu      sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{pending: make(map[ffibridge.Addr]any)}
}

// Pending returns the number of contexts awaiting completion.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Registry) register(slot any) ffibridge.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		r.next++
		if r.next == ffibridge.Null {
			continue
		}
		if _, busy := r.pending[r.next]; !busy {
			break
		}
	}
	ctx := r.next
	r.pending[ctx] = slot
	return ctx
}

// take removes ctx and returns its slot. It traps when ctx is not pending.
func (r *Registry) take(ctx ffibridge.Addr) any {
	r.mu.Lock()
	slot, ok := r.pending[ctx]
	delete(r.pending, ctx)
	r.mu.Unlock()
	if !ok {
		Logger().Error("completion of a context that is not pending", zap.Uint32("context", ctx))
		errors.Trap(errors.DoubleCompletion(ctx))
	}
	return slot
}

// Start registers a pending context for a result of type T.
func Start[T any](r *Registry) (*Future[T], ffibridge.Addr) {
	f := &Future[T]{ch: make(chan T, 1)}
	f.ctx = r.register(f)
	Logger().Debug("async context started", zap.Uint32("context", f.ctx))
	return f, f.ctx
}

// Complete delivers v to the context and frees it.
func Complete[T any](r *Registry, ctx ffibridge.Addr, v T) {
	f, ok := r.take(ctx).(*Future[T])
	if !ok {
		errors.Trap(errors.New(errors.PhaseAsync, errors.KindTypeMismatch).
			Value(ctx).
			GoType(fmt.Sprintf("%T", v)).
			Detail("completion value type does not match context %d", ctx).
			Build())
	}
	f.ch <- v
	Logger().Debug("async context completed", zap.Uint32("context", ctx))
}

// Trampoline returns the completion function handed to the foreign side.
func Trampoline[T any](r *Registry) func(ffibridge.Addr, T) {
	return func(ctx ffibridge.Addr, v T) {
		Complete(r, ctx, v)
	}
}

// Call starts a context, lets initiate hand it to the foreign side and
// waits for the completion.
func Call[T any](ctx context.Context, r *Registry, initiate func(cbCtx ffibridge.Addr, complete func(ffibridge.Addr, T))) (T, error) {
	f, cbCtx := Start[T](r)
	initiate(cbCtx, Trampoline[T](r))
	return f.Await(ctx)
}
