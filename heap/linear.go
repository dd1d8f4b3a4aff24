package heap

import (
	"encoding/binary"
	"sync"

	"github.com/wippyai/ffi-bridge/errors"
)

// PageSize is the size of one linear memory page.
const PageSize = 65536

// MaxPages is the largest addressable memory (4 GiB).
const MaxPages = 65536

// Backing is the memory a Heap allocates from.
type Backing interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
	Size() uint32
	// Grow adds deltaPages pages and returns the previous page count.
	Grow(deltaPages uint32) (uint32, bool)
}

// Linear is a growable in-process linear memory.
type Linear struct {
	data     []byte
	maxPages uint32
	mu       sync.RWMutex
}

var _ Backing = (*Linear)(nil)

// NewLinear creates a memory of initialPages that may grow to maxPages.
func NewLinear(initialPages, maxPages uint32) *Linear {
	if maxPages == 0 || maxPages > MaxPages {
		maxPages = MaxPages
	}
	if initialPages > maxPages {
		initialPages = maxPages
	}
	return &Linear{
		data:     make([]byte, int(initialPages)*PageSize),
		maxPages: maxPages,
	}
}

func outOfBounds(op string, offset, length uint32) error {
	return errors.New(errors.PhaseHeap, errors.KindOutOfBounds).
		Detail("memory %s out of bounds: offset=%d, length=%d", op, offset, length).
		Build()
}

// span returns data[offset:offset+length] or false. Caller holds mu.
func (m *Linear) span(offset, length uint32) ([]byte, bool) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.data)) {
		return nil, false
	}
	return m.data[offset:end], true
}

// Read returns a copy of length bytes at offset.
func (m *Linear) Read(offset uint32, length uint32) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.span(offset, length)
	if !ok {
		return nil, outOfBounds("read", offset, length)
	}
	out := make([]byte, length)
	copy(out, b)
	return out, nil
}

func (m *Linear) Write(offset uint32, data []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.span(offset, uint32(len(data)))
	if !ok {
		return outOfBounds("write", offset, uint32(len(data)))
	}
	copy(b, data)
	return nil
}

func (m *Linear) ReadU8(offset uint32) (uint8, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.span(offset, 1)
	if !ok {
		return 0, outOfBounds("read", offset, 1)
	}
	return b[0], nil
}

func (m *Linear) ReadU16(offset uint32) (uint16, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.span(offset, 2)
	if !ok {
		return 0, outOfBounds("read", offset, 2)
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (m *Linear) ReadU32(offset uint32) (uint32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.span(offset, 4)
	if !ok {
		return 0, outOfBounds("read", offset, 4)
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *Linear) ReadU64(offset uint32) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.span(offset, 8)
	if !ok {
		return 0, outOfBounds("read", offset, 8)
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (m *Linear) WriteU8(offset uint32, value uint8) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.span(offset, 1)
	if !ok {
		return outOfBounds("write", offset, 1)
	}
	b[0] = value
	return nil
}

func (m *Linear) WriteU16(offset uint32, value uint16) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.span(offset, 2)
	if !ok {
		return outOfBounds("write", offset, 2)
	}
	binary.LittleEndian.PutUint16(b, value)
	return nil
}

func (m *Linear) WriteU32(offset uint32, value uint32) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.span(offset, 4)
	if !ok {
		return outOfBounds("write", offset, 4)
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

func (m *Linear) WriteU64(offset uint32, value uint64) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.span(offset, 8)
	if !ok {
		return outOfBounds("write", offset, 8)
	}
	binary.LittleEndian.PutUint64(b, value)
	return nil
}

// Size returns the memory size in bytes, saturated at MaxUint32.
func (m *Linear) Size() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if uint64(len(m.data)) > 0xFFFFFFFF {
		return 0xFFFFFFFF
	}
	return uint32(len(m.data))
}

func (m *Linear) Grow(deltaPages uint32) (uint32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := uint32(len(m.data) / PageSize)
	if uint64(prev)+uint64(deltaPages) > uint64(m.maxPages) {
		return prev, false
	}
	grown := make([]byte, len(m.data)+int(deltaPages)*PageSize)
	copy(grown, m.data)
	m.data = grown
	return prev, true
}
