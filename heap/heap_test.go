package heap

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/ffi-bridge/errors"
)

func TestHeap_AllocBytes(t *testing.T) {
	h := NewLinearHeap(1, 16)

	addr, err := h.AllocBytes([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if !h.Live(addr) {
		t.Error("allocation should be live")
	}
	if n, ok := h.SizeOf(addr); !ok || n != 5 {
		t.Errorf("SizeOf = %d, %v", n, ok)
	}

	got, err := h.ReadBytes(addr, 5)
	if err != nil || string(got) != "hello" {
		t.Errorf("ReadBytes = %q, %v", got, err)
	}

	h.Free(addr, 5, 1)
	if h.Live(addr) {
		t.Error("allocation should be freed")
	}
}

func TestHeap_EmptyBytes(t *testing.T) {
	h := NewLinearHeap(1, 1)

	addr, err := h.AllocBytes(nil)
	if err != nil || addr != 0 {
		t.Errorf("AllocBytes(nil) = %d, %v", addr, err)
	}
	b, err := h.ReadBytes(0, 0)
	if err != nil || len(b) != 0 {
		t.Errorf("ReadBytes(0, 0) = %v, %v", b, err)
	}
}

func TestHeap_ReadStringValidatesUTF8(t *testing.T) {
	h := NewLinearHeap(1, 1)
	addr, _ := h.AllocBytes([]byte{0xff, 0xfe})

	_, err := h.ReadString(addr, 2)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindInvalidUTF8 {
		t.Errorf("ReadString error = %v, want invalid_utf8", err)
	}
}
