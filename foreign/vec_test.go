package foreign

import (
	"testing"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
	"github.com/wippyai/ffi-bridge/heap"
	"github.com/wippyai/ffi-bridge/resource"
)

func TestRegisterVec_GrowsAndKeepsOrder(t *testing.T) {
	rt := newRuntime(t, Config{Workers: 1})
	if err := RegisterVec[uint64](rt); err != nil {
		t.Fatal(err)
	}
	sym := func(op string) string { return abi.VecSymbol("u64", op) }
	newVec := resolve[func() ffibridge.Addr](t, rt, sym(abi.OpNew))
	push := resolve[func(ffibridge.Addr, uint64)](t, rt, sym(abi.OpPush))
	pop := resolve[func(ffibridge.Addr) abi.Option[uint64]](t, rt, sym(abi.OpPop))
	get := resolve[func(ffibridge.Addr, uint) abi.Option[uint64]](t, rt, sym(abi.OpGet))
	length := resolve[func(ffibridge.Addr) uint](t, rt, sym(abi.OpLen))
	asPtr := resolve[func(ffibridge.Addr) ffibridge.Addr](t, rt, sym(abi.OpAsPtr))
	free := resolve[func(ffibridge.Addr)](t, rt, sym(abi.OpFree))

	v := newVec()
	if asPtr(v) != ffibridge.Null {
		t.Error("empty vector should have no buffer")
	}
	for i := uint64(0); i < 100; i++ {
		push(v, i*i)
	}
	if length(v) != 100 {
		t.Fatalf("len = %d", length(v))
	}
	for i := uint(0); i < 100; i++ {
		o := get(v, i)
		if !o.IsSome || o.Val != uint64(i*i) {
			t.Fatalf("get(%d) = %+v", i, o)
		}
	}

	buf := asPtr(v)
	first, err := rt.Heap().Backing.ReadU64(buf)
	if err != nil || first != 0 {
		t.Errorf("buffer[0] = %d, %v", first, err)
	}

	if o := get(v, 100); o.IsSome || o.Val != abi.Sentinel[uint64]() {
		t.Errorf("get past end = %+v", o)
	}
	if o := pop(v); !o.IsSome || o.Val != 99*99 {
		t.Errorf("pop = %+v", o)
	}

	before := rt.Heap().Stats().LiveBytes
	free(v)
	if rt.Heap().Stats().LiveBytes >= before {
		t.Error("free should release the buffer")
	}
}

func TestRegisterVec_Duplicate(t *testing.T) {
	rt := newRuntime(t, Config{Workers: 1})
	if err := RegisterVec[int8](rt); err != nil {
		t.Fatal(err)
	}
	if err := RegisterVec[int8](rt); err == nil {
		t.Error("second registration should fail")
	}
}

func TestRegisterRefVec_OwnsElements(t *testing.T) {
	rt := newRuntime(t, Config{Workers: 1})
	type item struct{ n int }
	items, err := DeclareOpaque[item](rt, "Item")
	if err != nil {
		t.Fatal(err)
	}
	if err := RegisterRefVec(rt, "Item"); err != nil {
		t.Fatal(err)
	}
	sym := func(op string) string { return abi.VecSymbol("Item", op) }
	newVec := resolve[func() ffibridge.Addr](t, rt, sym(abi.OpNew))
	push := resolve[func(ffibridge.Addr, ffibridge.Addr)](t, rt, sym(abi.OpPush))
	pop := resolve[func(ffibridge.Addr) ffibridge.Addr](t, rt, sym(abi.OpPop))
	get := resolve[func(ffibridge.Addr, uint) ffibridge.Addr](t, rt, sym(abi.OpGet))
	free := resolve[func(ffibridge.Addr)](t, rt, sym(abi.OpFree))

	before := rt.Objects().Len()
	v := newVec()
	var addrs []ffibridge.Addr
	for i := 0; i < 5; i++ {
		a, err := items.New(item{n: i})
		if err != nil {
			t.Fatal(err)
		}
		push(v, a)
		addrs = append(addrs, a)
	}
	if get(v, 2) != addrs[2] {
		t.Errorf("get(2) = %#x, want %#x", get(v, 2), addrs[2])
	}
	if get(v, 9) != ffibridge.Null {
		t.Error("get past end should be null")
	}
	if got := pop(v); got != addrs[4] {
		t.Errorf("pop = %#x", got)
	} else {
		items.Free(got)
	}

	wrong, err := rt.Box("Other", 1)
	if err != nil {
		t.Fatal(err)
	}
	expectTrap(t, errors.KindNotFound, func() { push(v, wrong) })
	rt.Drop(wrong)

	free(v)
	if rt.Objects().Len() != before {
		t.Errorf("objects = %d, want %d", rt.Objects().Len(), before)
	}
}

func TestRegisterRefVec_FreeWhileBorrowedTraps(t *testing.T) {
	rt := newRuntime(t, Config{Workers: 1})
	if err := RegisterStrings(rt); err != nil {
		t.Fatal(err)
	}
	newVec := resolve[func() ffibridge.Addr](t, rt, abi.VecSymbol(StringType, abi.OpNew))
	free := resolve[func(ffibridge.Addr)](t, rt, abi.VecSymbol(StringType, abi.OpFree))

	v := newVec()
	if err := rt.Objects().Borrow(v, resource.Shared); err != nil {
		t.Fatal(err)
	}
	expectTrap(t, errors.KindAliasing, func() { free(v) })
	rt.Objects().ReturnBorrow(v, resource.Shared)
	free(v)
}

func TestVecGrowPastMaxLength(t *testing.T) {
	v := &vecObject[uint32]{
		h:     heap.NewLinearHeap(1, 1),
		codec: abi.CodecFor[uint32](),
		len:   abi.MaxVecLength,
		cap:   abi.MaxVecLength,
	}
	err := v.grow()
	e, ok := errors.As(err)
	if !ok || e.Kind != errors.KindOverflow {
		t.Fatalf("grow = %v, want overflow", err)
	}
	if e.Value != uint32(abi.MaxVecLength*2) {
		t.Errorf("Value = %v", e.Value)
	}
	if v.buf != ffibridge.Null || v.cap != abi.MaxVecLength {
		t.Error("failed grow must leave the vector untouched")
	}
}
