package async

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wippyai/ffi-bridge/errors"
	"github.com/wippyai/ffi-bridge/foreign"
)

func newRuntime(t *testing.T) *foreign.Runtime {
	t.Helper()
	rt, err := foreign.New(context.Background(), foreign.Config{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rt.Close(context.Background()) })
	return rt
}

func TestBind_ExactlyOnce(t *testing.T) {
	rt := newRuntime(t)
	var calls atomic.Int32
	err := foreign.ExportAsync(rt, "answer", func(ctx context.Context, x uint32) uint32 {
		calls.Add(1)
		time.Sleep(time.Millisecond)
		return x * 2
	})
	if err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry()
	fn, err := Bind[uint32, uint32](rt, reg, "answer")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := fn.Call(ctx, 21)
	if err != nil {
		t.Fatal(err)
	}
	if v != 42 {
		t.Errorf("Call = %d, want 42", v)
	}
	if calls.Load() != 1 {
		t.Errorf("foreign body ran %d times", calls.Load())
	}
	if reg.Pending() != 0 {
		t.Errorf("Pending = %d after completion", reg.Pending())
	}
}

func TestBind_ManyInFlight(t *testing.T) {
	rt := newRuntime(t)
	if err := foreign.ExportAsync(rt, "square", func(_ context.Context, x int) int { return x * x }); err != nil {
		t.Fatal(err)
	}
	reg := NewRegistry()
	fn, err := Bind[int, int](rt, reg, "square")
	if err != nil {
		t.Fatal(err)
	}

	futures := make([]*Future[int], 50)
	for i := range futures {
		futures[i] = fn.Start(i)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i, f := range futures {
		v, err := f.Await(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if v != i*i {
			t.Errorf("future %d = %d", i, v)
		}
	}
}

func TestBind_Missing(t *testing.T) {
	rt := newRuntime(t)
	_, err := Bind[int, int](rt, NewRegistry(), "nope")
	e, ok := errors.As(err)
	if !ok || e.Kind != errors.KindMissingSymbol {
		t.Fatalf("Bind error = %v", err)
	}
}

func TestFnOnce_CallThenFree(t *testing.T) {
	rt := newRuntime(t)
	cbs, err := BindCallbacks(rt)
	if err != nil {
		t.Fatal(err)
	}

	ran := 0
	addr, err := rt.BoxFnOnce(func() { ran++ })
	if err != nil {
		t.Fatal(err)
	}
	before := rt.Objects().Len()

	fn := cbs.Lift(addr)
	fn.Call()
	if ran != 1 {
		t.Fatalf("callback ran %d times", ran)
	}
	if fn.Owns() {
		t.Error("called callback should be consumed")
	}
	if rt.Objects().Len() != before-1 {
		t.Errorf("call should release the box: objects %d -> %d", before, rt.Objects().Len())
	}

	fn.Free()
	expectTrap(t, errors.KindNotOwned, fn.Call)
	if ran != 1 {
		t.Errorf("callback ran %d times", ran)
	}
}

func TestFnOnce_FreeWithoutCall(t *testing.T) {
	rt := newRuntime(t)
	cbs, err := BindCallbacks(rt)
	if err != nil {
		t.Fatal(err)
	}
	ran := false
	addr, err := rt.BoxFnOnce(func() { ran = true })
	if err != nil {
		t.Fatal(err)
	}
	before := rt.Objects().Len()

	fn := cbs.Lift(addr)
	fn.Free()
	fn.Free()
	if ran {
		t.Error("freed callback must not run")
	}
	if rt.Objects().Len() != before-1 {
		t.Errorf("free should release the box: objects %d -> %d", before, rt.Objects().Len())
	}
}
