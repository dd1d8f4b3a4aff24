package ffibridge

import (
	"fmt"

	"github.com/wippyai/ffi-bridge/errors"
)

// Addr is an address in the ownership runtime's linear heap.
// Address 0 is reserved and always means "no value".
type Addr = uint32

// Null is the null address.
const Null Addr = 0

// Memory represents the ownership runtime's linear memory
type Memory interface {
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
}

// MemorySizer provides the current size of linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator allocates memory in linear memory
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}

// Symbols is the table of exported boundary symbols.
// Values are Go function values with the exact signature of the symbol.
type Symbols interface {
	Lookup(name string) (any, bool)
}

// Resolve looks up a symbol and asserts its function type.
func Resolve[F any](syms Symbols, name string) (F, error) {
	var zero F
	if syms == nil {
		return zero, errors.NotInitialized(errors.PhaseBind, "symbol table")
	}
	v, ok := syms.Lookup(name)
	if !ok {
		return zero, errors.MissingSymbol(name)
	}
	fn, ok := v.(F)
	if !ok {
		return zero, errors.New(errors.PhaseBind, errors.KindTypeMismatch).
			Symbol(name).
			GoType(fmt.Sprintf("%T", v)).
			Detail("expected %T", zero).
			Build()
	}
	return fn, nil
}

// Binder resolves a group of symbols and reports every missing one at once.
type Binder struct {
	syms    Symbols
	err     error
	missing []string
}

func NewBinder(syms Symbols) *Binder {
	return &Binder{syms: syms}
}

// Bind resolves name into b. A missing symbol is recorded and the zero
// function is returned; the first other failure is kept for Err.
func Bind[F any](b *Binder, name string) F {
	var zero F
	if b.syms != nil {
		if _, ok := b.syms.Lookup(name); !ok {
			b.missing = append(b.missing, name)
			return zero
		}
	}
	fn, err := Resolve[F](b.syms, name)
	if err != nil && b.err == nil {
		b.err = err
	}
	return fn
}

// Err returns a MissingSymbolsError naming every missing symbol, or the
// first resolution failure.
func (b *Binder) Err() error {
	if len(b.missing) > 0 {
		return errors.NewMissingSymbolsError(b.missing)
	}
	return b.err
}
