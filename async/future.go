package async

import (
	"context"
	"sync/atomic"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/errors"
)

// Future is the waiting side of one completion context.
type Future[T any] struct {
	ch      chan T
	ctx     ffibridge.Addr
	waiting atomic.Bool
	done    atomic.Bool
}

// Context returns the completion context address.
func (f *Future[T]) Context() ffibridge.Addr { return f.ctx }

// Done reports whether a waiter has received the value.
func (f *Future[T]) Done() bool { return f.done.Load() }

// Await blocks until the context is completed or ctx is done. Only one
// Await receives the value; a later call returns an error.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	var zero T
	if f.done.Load() || !f.waiting.CompareAndSwap(false, true) {
		return zero, errors.New(errors.PhaseAsync, errors.KindInvalidInput).
			Value(f.ctx).
			Detail("context %d already awaited", f.ctx).
			Build()
	}

	select {
	case v := <-f.ch:
		f.done.Store(true)
		return v, nil
	case <-ctx.Done():
		f.waiting.Store(false)
		return zero, errors.Wrap(errors.PhaseAsync, errors.KindAbandoned, ctx.Err(), "await abandoned")
	}
}
