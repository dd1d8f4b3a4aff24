package heap

import (
	"math/bits"
	"sync"

	"github.com/wippyai/ffi-bridge/errors"
	"go.uber.org/zap"
)

const (
	// reserved keeps the low bytes unallocated so address 0 is never live.
	reserved     = 16
	minClass     = 8
	maxAlignment = PageSize
)

type block struct {
	class uint32
	size  uint32
}

// Stats is a snapshot of allocator counters.
type Stats struct {
	Allocs    uint64
	Frees     uint64
	Live      int
	LiveBytes uint64
	Pages     uint32
}

// Allocator is a size-class allocator over a Backing.
// Freed blocks are kept on per-class free lists and reused.
type Allocator struct {
	mem    Backing
	free   map[uint32][]uint32
	live   map[uint32]block
	next   uint32
	allocs uint64
	frees  uint64
	mu     sync.Mutex
}

func NewAllocator(mem Backing) *Allocator {
	return &Allocator{
		mem:  mem,
		free: make(map[uint32][]uint32),
		live: make(map[uint32]block),
		next: reserved,
	}
}

func sizeClass(size uint32) uint32 {
	if size <= minClass {
		return minClass
	}
	return 1 << bits.Len32(size-1)
}

// Alloc returns a zeroed block of at least size bytes aligned to align.
func (a *Allocator) Alloc(size, align uint32) (uint32, error) {
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 || align > maxAlignment {
		return 0, errors.New(errors.PhaseHeap, errors.KindInvalidInput).
			Detail("alignment %d is not a power of two up to %d", align, maxAlignment).
			Build()
	}
	if size > 1<<30 {
		return 0, errors.AllocationFailed(errors.PhaseHeap, size, align)
	}
	if size == 0 {
		size = 1
	}
	class := sizeClass(size)

	a.mu.Lock()
	defer a.mu.Unlock()

	ptr, ok := a.takeFree(class, align)
	if !ok {
		var err error
		ptr, err = a.bump(class, align)
		if err != nil {
			return 0, err
		}
	}

	if err := a.mem.Write(ptr, make([]byte, class)); err != nil {
		return 0, err
	}

	a.live[ptr] = block{class: class, size: size}
	a.allocs++
	return ptr, nil
}

func (a *Allocator) takeFree(class, align uint32) (uint32, bool) {
	list := a.free[class]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i]%align == 0 {
			ptr := list[i]
			a.free[class] = append(list[:i], list[i+1:]...)
			return ptr, true
		}
	}
	return 0, false
}

func (a *Allocator) bump(class, align uint32) (uint32, error) {
	blockAlign := max(align, min(class, 16))
	ptr := (a.next + blockAlign - 1) &^ (blockAlign - 1)
	end := uint64(ptr) + uint64(class)
	if end > 0xFFFFFFFF {
		return 0, errors.AllocationFailed(errors.PhaseHeap, class, align)
	}

	if size := uint64(a.mem.Size()); end > size {
		need := uint32((end - size + PageSize - 1) / PageSize)
		prev, ok := a.mem.Grow(need)
		if !ok {
			return 0, errors.AllocationFailed(errors.PhaseHeap, class, align)
		}
		Logger().Debug("heap grown",
			zap.Uint32("previous_pages", prev),
			zap.Uint32("delta_pages", need))
	}

	a.next = uint32(end)
	return ptr, nil
}

// Free returns a block to its free list. Freeing the null address is a
// no-op; freeing anything else that is not live traps.
func (a *Allocator) Free(ptr, size, align uint32) {
	if ptr == 0 {
		return
	}
	a.mu.Lock()
	b, ok := a.live[ptr]
	if !ok {
		a.mu.Unlock()
		errors.Trap(errors.DoubleFree(errors.PhaseHeap, ptr))
		return
	}
	delete(a.live, ptr)
	a.free[b.class] = append(a.free[b.class], ptr)
	a.frees++
	a.mu.Unlock()
}

// Live reports whether ptr is the start of a live allocation.
func (a *Allocator) Live(ptr uint32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.live[ptr]
	return ok
}

// SizeOf returns the requested size of a live allocation.
func (a *Allocator) SizeOf(ptr uint32) (uint32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.live[ptr]
	return b.size, ok
}

func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Stats{
		Allocs: a.allocs,
		Frees:  a.frees,
		Live:   len(a.live),
		Pages:  a.mem.Size() / PageSize,
	}
	for _, b := range a.live {
		s.LiveBytes += uint64(b.size)
	}
	return s
}
