// Package heap provides the ownership runtime's linear heap.
//
// A Heap is a flat little-endian byte space addressed by uint32 offsets plus a
// size-class allocator. Address 0 is reserved so that a null address never
// names a live allocation. Two backings are available:
//
//   - Linear: a growable Go byte slice
//   - WazeroMemory: the exported linear memory of a wazero module instance
//
// Freeing an address that is not a live allocation is a fatal condition and
// traps with errors.KindDoubleFree.
//
// # Usage
//
//	h := heap.New(heap.NewLinear(1, 256))
//	addr, err := h.AllocBytes([]byte("hello"))
//	data, err := h.ReadBytes(addr, 5)
//	h.Free(addr, 5, 1)
package heap
