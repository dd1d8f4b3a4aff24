package ffibridge

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/ffi-bridge/errors"
)

type symbolMap map[string]any

func (m symbolMap) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

func TestResolve(t *testing.T) {
	syms := symbolMap{
		"len":  func(Addr) uint { return 3 },
		"free": func(Addr) {},
	}

	fn, err := Resolve[func(Addr) uint](syms, "len")
	if err != nil {
		t.Fatal(err)
	}
	if fn(1) != 3 {
		t.Error("resolved function not called")
	}

	_, err = Resolve[func(Addr) uint](syms, "free")
	if e, ok := errors.As(err); !ok || e.Kind != errors.KindTypeMismatch {
		t.Errorf("wrong signature error = %v", err)
	}

	_, err = Resolve[func(Addr)](syms, "missing")
	if e, ok := errors.As(err); !ok || e.Kind != errors.KindMissingSymbol {
		t.Errorf("missing symbol error = %v", err)
	}

	_, err = Resolve[func(Addr)](nil, "len")
	if e, ok := errors.As(err); !ok || e.Kind != errors.KindNotInitialized {
		t.Errorf("nil table error = %v", err)
	}
}

func TestBinder_ReportsAllMissing(t *testing.T) {
	b := NewBinder(symbolMap{"a": func() {}})
	_ = Bind[func()](b, "a")
	_ = Bind[func()](b, "T$b")
	_ = Bind[func()](b, "T$c")

	var missing *errors.MissingSymbolsError
	if !stderrors.As(b.Err(), &missing) {
		t.Fatalf("Err = %v, want MissingSymbolsError", b.Err())
	}
	if len(missing.Symbols) != 2 {
		t.Errorf("missing = %v", missing.Symbols)
	}
}

func TestBinder_TypeMismatch(t *testing.T) {
	b := NewBinder(symbolMap{"a": func() {}})
	_ = Bind[func(Addr)](b, "a")
	if e, ok := errors.As(b.Err()); !ok || e.Kind != errors.KindTypeMismatch {
		t.Errorf("Err = %v", b.Err())
	}
}

func TestBinder_OK(t *testing.T) {
	b := NewBinder(symbolMap{"a": func() {}})
	if fn := Bind[func()](b, "a"); fn == nil {
		t.Error("Bind returned nil")
	}
	if b.Err() != nil {
		t.Errorf("Err = %v", b.Err())
	}
}
