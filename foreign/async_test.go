package foreign

import (
	"context"
	"testing"
	"time"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
)

func TestExportAsync_CompletesOnWorker(t *testing.T) {
	rt := newRuntime(t, Config{Workers: 2})
	started := make(chan struct{})
	if err := ExportAsync(rt, "slow_double", func(ctx context.Context, x int) int {
		close(started)
		return 2 * x
	}); err != nil {
		t.Fatal(err)
	}
	fn := resolve[AsyncFunc[int, int]](t, rt, abi.FuncSymbol("slow_double"))

	type completion struct {
		ctx ffibridge.Addr
		v   int
	}
	got := make(chan completion, 2)
	fn(21, 7, func(ctx ffibridge.Addr, v int) {
		got <- completion{ctx, v}
	})

	select {
	case c := <-got:
		if c.ctx != 7 || c.v != 42 {
			t.Errorf("completion = %+v, want {7 42}", c)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no completion")
	}
	<-started

	select {
	case c := <-got:
		t.Errorf("completed twice: %+v", c)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestExportAsync_ContextCancelledOnClose(t *testing.T) {
	rt, err := New(context.Background(), Config{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	seen := make(chan error, 1)
	if err := ExportAsync(rt, "wait", func(ctx context.Context, _ struct{}) struct{} {
		<-ctx.Done()
		seen <- ctx.Err()
		return struct{}{}
	}); err != nil {
		t.Fatal(err)
	}
	fn := resolve[AsyncFunc[struct{}, struct{}]](t, rt, abi.FuncSymbol("wait"))
	fn(struct{}{}, 1, func(ffibridge.Addr, struct{}) {})

	if err := rt.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := <-seen; err == nil {
		t.Error("task context should be cancelled")
	}
}

func TestExportAsync_FullQueueTraps(t *testing.T) {
	rt := newRuntime(t, Config{Workers: 1, QueueDepth: 1})
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	defer close(release)
	if err := ExportAsync(rt, "hold", func(ctx context.Context, _ int) int {
		started <- struct{}{}
		<-release
		return 0
	}); err != nil {
		t.Fatal(err)
	}
	fn := resolve[AsyncFunc[int, int]](t, rt, abi.FuncSymbol("hold"))
	discard := func(ffibridge.Addr, int) {}

	fn(0, 1, discard)
	<-started
	fn(0, 2, discard)
	expectTrap(t, errors.KindAllocation, func() { fn(0, 3, discard) })
}
