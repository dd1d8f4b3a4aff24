package foreign

import (
	"testing"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
)

type counter struct {
	n       int
	dropped *int
}

func (c *counter) Drop() {
	if c.dropped != nil {
		*c.dropped++
	}
}

func TestOpaque_Exports(t *testing.T) {
	rt := newRuntime(t, Config{Workers: 1})
	dropped := 0
	counters, err := DeclareOpaque[counter](rt, "Counter")
	if err != nil {
		t.Fatal(err)
	}
	if err := ExportConstructor(counters, "new", func(start int) counter {
		return counter{n: start, dropped: &dropped}
	}); err != nil {
		t.Fatal(err)
	}
	if err := ExportRef(counters, "get", func(c *counter) int { return c.n }); err != nil {
		t.Fatal(err)
	}
	if err := ExportMut(counters, "add", func(c *counter, d int) int {
		c.n += d
		return c.n
	}); err != nil {
		t.Fatal(err)
	}
	if err := ExportConsume(counters, "into_inner", func(c counter) int { return c.n }); err != nil {
		t.Fatal(err)
	}

	newCounter := resolve[func(int) ffibridge.Addr](t, rt, abi.TypeSymbol("Counter", "new"))
	get := resolve[func(ffibridge.Addr) int](t, rt, abi.TypeSymbol("Counter", "get"))
	add := resolve[func(ffibridge.Addr, int) int](t, rt, abi.TypeSymbol("Counter", "add"))
	intoInner := resolve[func(ffibridge.Addr) int](t, rt, abi.TypeSymbol("Counter", "into_inner"))
	free := resolve[func(ffibridge.Addr)](t, rt, abi.TypeSymbol("Counter", abi.OpFree))

	c := newCounter(10)
	if add(c, 5) != 15 || get(c) != 15 {
		t.Errorf("counter = %d", get(c))
	}
	free(c)
	if dropped != 1 {
		t.Errorf("free should drop once, dropped = %d", dropped)
	}

	d := newCounter(3)
	if intoInner(d) != 3 {
		t.Error("into_inner returned the wrong value")
	}
	if dropped != 1 {
		t.Error("consuming must not drop")
	}
	expectTrap(t, errors.KindNotOwned, func() { intoInner(d) })
	expectTrap(t, errors.KindDoubleFree, func() { free(d) })
}

func TestOpaque_Borrows(t *testing.T) {
	rt := newRuntime(t, Config{Workers: 1})
	counters, err := DeclareOpaque[counter](rt, "Counter")
	if err != nil {
		t.Fatal(err)
	}
	addr, err := counters.New(counter{n: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer counters.Free(addr)

	err = counters.With(addr, func(c *counter) {
		if err := counters.With(addr, func(*counter) {}); err != nil {
			t.Errorf("nested shared borrow: %v", err)
		}
		err := counters.WithMut(addr, func(*counter) {})
		if e, ok := errors.As(err); !ok || e.Kind != errors.KindAliasing {
			t.Errorf("exclusive under shared = %v", err)
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := counters.WithMut(addr, func(c *counter) { c.n = 2 }); err != nil {
		t.Fatal(err)
	}
	if c, ok := counters.Get(addr); !ok || c.n != 2 {
		t.Errorf("Get = %v, %v", c, ok)
	}
	if err := counters.With(0x7fff0, func(*counter) {}); err == nil {
		t.Error("With on a dead address should fail")
	}
}

func TestOpaque_TypeChecked(t *testing.T) {
	rt := newRuntime(t, Config{Workers: 1})
	a, err := DeclareOpaque[counter](rt, "A")
	if err != nil {
		t.Fatal(err)
	}
	b, err := DeclareOpaque[counter](rt, "B")
	if err != nil {
		t.Fatal(err)
	}
	addr, err := a.New(counter{})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Free(addr)
	if _, ok := b.Get(addr); ok {
		t.Error("an A must not be visible as a B")
	}
	if _, err := DeclareOpaque[counter](rt, "A"); err == nil {
		t.Error("redeclaring a type should fail")
	}
}
