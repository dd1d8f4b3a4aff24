package async

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/errors"
)

func expectTrap(t *testing.T, kind errors.Kind, fn func()) {
	t.Helper()
	defer func() {
		e, ok := errors.AsTrap(recover())
		if !ok {
			t.Fatalf("expected %s trap", kind)
		}
		if e.Kind != kind {
			t.Fatalf("trap kind = %s, want %s", e.Kind, kind)
		}
	}()
	fn()
}

func TestCompleteThenAwait(t *testing.T) {
	reg := NewRegistry()
	fut, cbCtx := Start[uint32](reg)
	if cbCtx == ffibridge.Null {
		t.Fatal("context address must not be null")
	}
	if reg.Pending() != 1 {
		t.Fatalf("Pending = %d, want 1", reg.Pending())
	}

	Trampoline[uint32](reg)(cbCtx, 42)
	if reg.Pending() != 0 {
		t.Errorf("completion should free the context, Pending = %d", reg.Pending())
	}

	v, err := fut.Await(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v != 42 {
		t.Errorf("Await = %d, want 42", v)
	}
	if !fut.Done() {
		t.Error("Done should be true after Await")
	}
}

func TestCompleteFromAnotherGoroutine(t *testing.T) {
	reg := NewRegistry()
	v, err := Call(context.Background(), reg, func(cbCtx ffibridge.Addr, complete func(ffibridge.Addr, string)) {
		go func() {
			time.Sleep(5 * time.Millisecond)
			complete(cbCtx, "done")
		}()
	})
	if err != nil {
		t.Fatal(err)
	}
	if v != "done" {
		t.Errorf("Call = %q", v)
	}
}

func TestSecondCompletionTraps(t *testing.T) {
	reg := NewRegistry()
	_, cbCtx := Start[uint32](reg)
	complete := Trampoline[uint32](reg)
	complete(cbCtx, 1)

	expectTrap(t, errors.KindDoubleCompletion, func() {
		complete(cbCtx, 2)
	})
}

func TestUnknownContextTraps(t *testing.T) {
	reg := NewRegistry()
	expectTrap(t, errors.KindDoubleCompletion, func() {
		Complete[uint32](reg, 99, 1)
	})
}

func TestCompletionTypeMismatchTraps(t *testing.T) {
	reg := NewRegistry()
	_, cbCtx := Start[uint32](reg)
	expectTrap(t, errors.KindTypeMismatch, func() {
		Complete(reg, cbCtx, "wrong")
	})
}

func TestContextsAreDistinct(t *testing.T) {
	reg := NewRegistry()
	seen := make(map[ffibridge.Addr]bool)
	for i := 0; i < 100; i++ {
		_, c := Start[int](reg)
		if seen[c] {
			t.Fatalf("context %d reused", c)
		}
		seen[c] = true
	}
}

func TestContextWrapSkipsNullAndPending(t *testing.T) {
	r := NewRegistry()
	_, held := Start[int](r)
	r.next = ^ffibridge.Addr(0) - 1

	_, last := Start[int](r)
	if last != ^ffibridge.Addr(0) {
		t.Fatalf("context = %d, want %d", last, ^ffibridge.Addr(0))
	}
	_, wrapped := Start[int](r)
	if wrapped == ffibridge.Null {
		t.Fatal("context wrapped to Null")
	}
	if wrapped == held {
		t.Fatalf("context %d reused while pending", held)
	}
	if wrapped != held+1 {
		t.Errorf("context = %d, want %d", wrapped, held+1)
	}

	Complete(r, held, 1)
	Complete(r, last, 2)
	Complete(r, wrapped, 3)
	if r.Pending() != 0 {
		t.Errorf("Pending = %d", r.Pending())
	}
}

func TestSecondAwaitFails(t *testing.T) {
	reg := NewRegistry()
	fut, cbCtx := Start[int](reg)
	Complete(reg, cbCtx, 7)

	if _, err := fut.Await(context.Background()); err != nil {
		t.Fatal(err)
	}
	_, err := fut.Await(context.Background())
	e, ok := errors.As(err)
	if !ok || e.Kind != errors.KindInvalidInput {
		t.Fatalf("second Await error = %v", err)
	}
}

func TestAwaitAbandonedWaitStillConsumesCompletion(t *testing.T) {
	reg := NewRegistry()
	fut, cbCtx := Start[int](reg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fut.Await(ctx)
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("Await error = %v, want context.Canceled", err)
	}

	Complete(reg, cbCtx, 5)
	if reg.Pending() != 0 {
		t.Errorf("Pending = %d", reg.Pending())
	}

	v, err := fut.Await(context.Background())
	if err != nil || v != 5 {
		t.Errorf("re-Await = %d, %v", v, err)
	}
}

func TestConcurrentAwaitResumesOnce(t *testing.T) {
	reg := NewRegistry()
	fut, cbCtx := Start[int](reg)

	const waiters = 8
	var wg sync.WaitGroup
	results := make(chan error, waiters)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fut.Await(ctx)
			results <- err
		}()
	}
	Complete(reg, cbCtx, 1)
	wg.Wait()
	close(results)

	resumed := 0
	for err := range results {
		if err == nil {
			resumed++
		}
	}
	if resumed != 1 {
		t.Errorf("resumed %d waiters, want 1", resumed)
	}
}
