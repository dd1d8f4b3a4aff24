package heap

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// WazeroMemory is a Backing over the exported memory of a wazero module.
type WazeroMemory struct {
	runtime wazero.Runtime
	mod     api.Module
	mem     api.Memory
	mu      sync.RWMutex
}

var _ Backing = (*WazeroMemory)(nil)

// NewWazeroMemory instantiates a memory-only module with initialPages and
// a limit of maxPages, and wraps its exported "memory".
func NewWazeroMemory(ctx context.Context, initialPages, maxPages uint32) (*WazeroMemory, error) {
	if maxPages == 0 || maxPages > MaxPages {
		maxPages = MaxPages
	}
	if initialPages > maxPages {
		initialPages = maxPages
	}

	cfg := wazero.NewRuntimeConfig().WithMemoryLimitPages(maxPages)
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)

	compiled, err := rt.CompileModule(ctx, memoryModule(initialPages, maxPages))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("compile memory module: %w", err)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("heap"))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("instantiate memory module: %w", err)
	}

	mem := mod.ExportedMemory("memory")
	if mem == nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("memory module has no exported memory")
	}

	Logger().Debug("wazero heap created",
		zap.Uint32("initial_pages", initialPages),
		zap.Uint32("max_pages", maxPages))

	return &WazeroMemory{runtime: rt, mod: mod, mem: mem}, nil
}

// Close releases the wazero runtime.
func (m *WazeroMemory) Close(ctx context.Context) error {
	return m.runtime.Close(ctx)
}

// Read returns a copy of length bytes at offset.
func (m *WazeroMemory) Read(offset uint32, length uint32) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, outOfBounds("read", offset, length)
	}
	out := make([]byte, length)
	copy(out, data)
	return out, nil
}

func (m *WazeroMemory) Write(offset uint32, data []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.mem.Write(offset, data) {
		return outOfBounds("write", offset, uint32(len(data)))
	}
	return nil
}

func (m *WazeroMemory) ReadU8(offset uint32) (uint8, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, outOfBounds("read", offset, 1)
	}
	return v, nil
}

func (m *WazeroMemory) ReadU16(offset uint32) (uint16, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.mem.ReadUint16Le(offset)
	if !ok {
		return 0, outOfBounds("read", offset, 2)
	}
	return v, nil
}

func (m *WazeroMemory) ReadU32(offset uint32) (uint32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, outOfBounds("read", offset, 4)
	}
	return v, nil
}

func (m *WazeroMemory) ReadU64(offset uint32) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, outOfBounds("read", offset, 8)
	}
	return v, nil
}

func (m *WazeroMemory) WriteU8(offset uint32, value uint8) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.mem.WriteByte(offset, value) {
		return outOfBounds("write", offset, 1)
	}
	return nil
}

func (m *WazeroMemory) WriteU16(offset uint32, value uint16) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.mem.WriteUint16Le(offset, value) {
		return outOfBounds("write", offset, 2)
	}
	return nil
}

func (m *WazeroMemory) WriteU32(offset uint32, value uint32) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.mem.WriteUint32Le(offset, value) {
		return outOfBounds("write", offset, 4)
	}
	return nil
}

func (m *WazeroMemory) WriteU64(offset uint32, value uint64) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.mem.WriteUint64Le(offset, value) {
		return outOfBounds("write", offset, 8)
	}
	return nil
}

func (m *WazeroMemory) Size() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mem.Size()
}

// Grow may move the underlying buffer, so it excludes all readers.
func (m *WazeroMemory) Grow(deltaPages uint32) (uint32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mem.Grow(deltaPages)
}

// memoryModule encodes a module with one memory exported as "memory".
func memoryModule(minPages, maxPages uint32) []byte {
	var limits []byte
	limits = append(limits, 0x01) // has max
	limits = append(limits, encodeULEB128(minPages)...)
	limits = append(limits, encodeULEB128(maxPages)...)

	memSection := append([]byte{0x01}, limits...)

	name := "memory"
	exportSection := []byte{0x01}
	exportSection = append(exportSection, encodeULEB128(uint32(len(name)))...)
	exportSection = append(exportSection, name...)
	exportSection = append(exportSection, 0x02, 0x00) // kind: memory, index 0

	var wasm []byte
	wasm = append(wasm, 0x00, 0x61, 0x73, 0x6d)
	wasm = append(wasm, 0x01, 0x00, 0x00, 0x00)

	wasm = append(wasm, 0x05)
	wasm = append(wasm, encodeULEB128(uint32(len(memSection)))...)
	wasm = append(wasm, memSection...)

	wasm = append(wasm, 0x07)
	wasm = append(wasm, encodeULEB128(uint32(len(exportSection)))...)
	wasm = append(wasm, exportSection...)

	return wasm
}

func encodeULEB128(v uint32) []byte {
	var result []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		result = append(result, b)
		if v == 0 {
			break
		}
	}
	return result
}
