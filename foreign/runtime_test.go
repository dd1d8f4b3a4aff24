package foreign

import (
	"context"
	"slices"
	"testing"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
)

func newRuntime(t *testing.T, cfg Config) *Runtime {
	t.Helper()
	rt, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rt.Close(context.Background()) })
	return rt
}

func expectTrap(t *testing.T, kind errors.Kind, fn func()) {
	t.Helper()
	defer func() {
		e, ok := errors.AsTrap(recover())
		if !ok || e.Kind != kind {
			t.Fatalf("expected %s trap, got %v", kind, e)
		}
	}()
	fn()
}

func TestConfig(t *testing.T) {
	d := Config{}.WithDefaults()
	if d.Backend != BackendLinear || d.InitialPages != 1 || d.QueueDepth != DefaultQueueDepth || d.Workers < 1 {
		t.Errorf("WithDefaults = %+v", d)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"backend", Config{Backend: "mmap"}},
		{"initial over max", Config{InitialPages: 8, MaxPages: 4}},
		{"max over limit", Config{MaxPages: 1 << 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.WithDefaults().Validate()
			e, ok := errors.As(err)
			if !ok || e.Phase != errors.PhaseConfig {
				t.Errorf("Validate = %v", err)
			}
			if _, err := New(context.Background(), tt.cfg); err == nil {
				t.Error("New should reject the config")
			}
		})
	}
}

func TestExport(t *testing.T) {
	rt := newRuntime(t, Config{Workers: 1})

	if err := rt.Export("__bridge__$b", func() {}); err != nil {
		t.Fatal(err)
	}
	if err := rt.Export("__bridge__$a", func() {}); err != nil {
		t.Fatal(err)
	}
	err := rt.Export("__bridge__$a", func() {})
	if e, ok := errors.As(err); !ok || e.Kind != errors.KindRegistration {
		t.Errorf("duplicate Export = %v", err)
	}
	if err := rt.Export("__bridge__$nil", nil); err == nil {
		t.Error("nil symbol should be rejected")
	}

	names := rt.Symbols()
	if !slices.IsSorted(names) {
		t.Errorf("Symbols not sorted: %v", names)
	}
	for _, want := range []string{"__bridge__$a", "__bridge__$b"} {
		if !slices.Contains(names, want) {
			t.Errorf("Symbols missing %s", want)
		}
	}

	if _, err := ffibridge.Resolve[func()](rt, "__bridge__$a"); err != nil {
		t.Errorf("Resolve: %v", err)
	}
}

func TestTypeID(t *testing.T) {
	rt := newRuntime(t, Config{Workers: 1})
	a := rt.TypeID("A")
	b := rt.TypeID("B")
	if a == 0 || b == 0 || a == b {
		t.Errorf("TypeID A=%d B=%d", a, b)
	}
	if rt.TypeID("A") != a {
		t.Error("TypeID must be stable")
	}
}

func TestBoxAndDrop(t *testing.T) {
	rt := newRuntime(t, Config{Workers: 1})

	addr, err := rt.Box("Thing", "value")
	if err != nil {
		t.Fatal(err)
	}
	if addr == ffibridge.Null {
		t.Fatal("Box returned null")
	}
	if !rt.Heap().Live(addr) {
		t.Error("boxed object should occupy a live heap cell")
	}
	if v, ok := rt.Deref(addr); !ok || v != "value" {
		t.Errorf("Deref = %v, %v", v, ok)
	}

	rt.Drop(addr)
	if _, ok := rt.Deref(addr); ok {
		t.Error("object still live after Drop")
	}
	rt.Drop(ffibridge.Null)
	expectTrap(t, errors.KindDoubleFree, func() { rt.Drop(addr) })
}

func TestUnbox(t *testing.T) {
	rt := newRuntime(t, Config{Workers: 1})
	addr, err := rt.Box("Thing", 7)
	if err != nil {
		t.Fatal(err)
	}
	v, err := rt.Unbox(addr)
	if err != nil || v != 7 {
		t.Fatalf("Unbox = %v, %v", v, err)
	}
	if _, err := rt.Unbox(addr); err == nil {
		t.Error("second Unbox should fail")
	}
}

func TestClose(t *testing.T) {
	rt, err := New(context.Background(), Config{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Box("Thing", 1); err != nil {
		t.Fatal(err)
	}
	if err := rt.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := rt.Close(context.Background()); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if rt.Context().Err() == nil {
		t.Error("runtime context should be cancelled")
	}
	if _, err := rt.Box("Thing", 2); err == nil {
		t.Error("Box after Close should fail")
	}
}

func TestWazeroBackend(t *testing.T) {
	rt := newRuntime(t, Config{Backend: BackendWazero, Workers: 1, MaxPages: 16})
	if err := RegisterStrings(rt); err != nil {
		t.Fatal(err)
	}
	data := []byte("backed by wazero")
	ptr, err := rt.Heap().AllocBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	newWithStr := resolve[func(abi.Str) ffibridge.Addr](t, rt, abi.TypeSymbol(StringType, "new_with_str"))
	asStr := resolve[func(ffibridge.Addr) abi.Str](t, rt, abi.TypeSymbol(StringType, "as_str"))

	addr := newWithStr(abi.Str{Start: ptr, Len: uint32(len(data))})
	got, err := rt.Heap().ReadString(asStr(addr).Start, asStr(addr).Len)
	if err != nil || got != string(data) {
		t.Errorf("read back %q, %v", got, err)
	}
	rt.Drop(addr)
}

func resolve[F any](t *testing.T, rt *Runtime, name string) F {
	t.Helper()
	fn, err := ffibridge.Resolve[F](rt, name)
	if err != nil {
		t.Fatal(err)
	}
	return fn
}
