package heap

import (
	"context"
	"unicode/utf8"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/errors"
)

// Heap is a Backing paired with an Allocator.
type Heap struct {
	Backing
	alloc *Allocator
}

var (
	_ ffibridge.Memory      = (*Heap)(nil)
	_ ffibridge.MemorySizer = (*Heap)(nil)
	_ ffibridge.Allocator   = (*Heap)(nil)
)

func New(mem Backing) *Heap {
	return &Heap{Backing: mem, alloc: NewAllocator(mem)}
}

// NewLinearHeap creates a heap over an in-process linear memory.
func NewLinearHeap(initialPages, maxPages uint32) *Heap {
	return New(NewLinear(initialPages, maxPages))
}

func (h *Heap) Alloc(size, align uint32) (uint32, error) {
	return h.alloc.Alloc(size, align)
}

func (h *Heap) Free(ptr, size, align uint32) {
	h.alloc.Free(ptr, size, align)
}

// Live reports whether addr is a live allocation.
func (h *Heap) Live(addr ffibridge.Addr) bool {
	return h.alloc.Live(addr)
}

// SizeOf returns the requested size of a live allocation.
func (h *Heap) SizeOf(addr ffibridge.Addr) (uint32, bool) {
	return h.alloc.SizeOf(addr)
}

func (h *Heap) Stats() Stats {
	return h.alloc.Stats()
}

// AllocBytes copies data into a fresh allocation. Empty data yields Null.
func (h *Heap) AllocBytes(data []byte) (ffibridge.Addr, error) {
	if len(data) == 0 {
		return ffibridge.Null, nil
	}
	ptr, err := h.alloc.Alloc(uint32(len(data)), 1)
	if err != nil {
		return 0, err
	}
	if err := h.Backing.Write(ptr, data); err != nil {
		h.alloc.Free(ptr, uint32(len(data)), 1)
		return 0, err
	}
	return ptr, nil
}

// ReadBytes copies n bytes starting at addr. A zero length read of any
// address, including Null, returns an empty slice.
func (h *Heap) ReadBytes(addr ffibridge.Addr, n uint32) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	return h.Backing.Read(addr, n)
}

// ReadString copies n bytes at addr and validates them as UTF-8.
func (h *Heap) ReadString(addr ffibridge.Addr, n uint32) (string, error) {
	b, err := h.ReadBytes(addr, n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.InvalidUTF8(errors.PhaseDecode, nil, b)
	}
	return string(b), nil
}

// Close releases the backing when it holds external resources.
func (h *Heap) Close(ctx context.Context) error {
	if c, ok := h.Backing.(interface{ Close(context.Context) error }); ok {
		return c.Close(ctx)
	}
	return nil
}
