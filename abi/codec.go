package abi

import (
	"math"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/errors"
)

// Codec stores and loads one element type at a fixed offset in linear memory.
type Codec[T any] struct {
	Store func(mem ffibridge.Memory, off uint32, v T) error
	Load  func(mem ffibridge.Memory, off uint32) (T, error)
	Name  string
	Size  uint32
	Align uint32
}

// Layout returns the element layout.
func (c Codec[T]) Layout() Layout {
	return Layout{Size: c.Size, Align: c.Align}
}

var (
	U8Codec = Codec[uint8]{
		Name: "u8", Size: 1, Align: 1,
		Store: func(m ffibridge.Memory, off uint32, v uint8) error { return m.WriteU8(off, v) },
		Load:  func(m ffibridge.Memory, off uint32) (uint8, error) { return m.ReadU8(off) },
	}
	U16Codec = Codec[uint16]{
		Name: "u16", Size: 2, Align: 2,
		Store: func(m ffibridge.Memory, off uint32, v uint16) error { return m.WriteU16(off, v) },
		Load:  func(m ffibridge.Memory, off uint32) (uint16, error) { return m.ReadU16(off) },
	}
	U32Codec = Codec[uint32]{
		Name: "u32", Size: 4, Align: 4,
		Store: func(m ffibridge.Memory, off uint32, v uint32) error { return m.WriteU32(off, v) },
		Load:  func(m ffibridge.Memory, off uint32) (uint32, error) { return m.ReadU32(off) },
	}
	U64Codec = Codec[uint64]{
		Name: "u64", Size: 8, Align: 8,
		Store: func(m ffibridge.Memory, off uint32, v uint64) error { return m.WriteU64(off, v) },
		Load:  func(m ffibridge.Memory, off uint32) (uint64, error) { return m.ReadU64(off) },
	}
	UsizeCodec = Codec[uint]{
		Name: "usize", Size: 8, Align: 8,
		Store: func(m ffibridge.Memory, off uint32, v uint) error { return m.WriteU64(off, uint64(v)) },
		Load: func(m ffibridge.Memory, off uint32) (uint, error) {
			v, err := m.ReadU64(off)
			return uint(v), err
		},
	}
	I8Codec = Codec[int8]{
		Name: "i8", Size: 1, Align: 1,
		Store: func(m ffibridge.Memory, off uint32, v int8) error { return m.WriteU8(off, uint8(v)) },
		Load: func(m ffibridge.Memory, off uint32) (int8, error) {
			v, err := m.ReadU8(off)
			return int8(v), err
		},
	}
	I16Codec = Codec[int16]{
		Name: "i16", Size: 2, Align: 2,
		Store: func(m ffibridge.Memory, off uint32, v int16) error { return m.WriteU16(off, uint16(v)) },
		Load: func(m ffibridge.Memory, off uint32) (int16, error) {
			v, err := m.ReadU16(off)
			return int16(v), err
		},
	}
	I32Codec = Codec[int32]{
		Name: "i32", Size: 4, Align: 4,
		Store: func(m ffibridge.Memory, off uint32, v int32) error { return m.WriteU32(off, uint32(v)) },
		Load: func(m ffibridge.Memory, off uint32) (int32, error) {
			v, err := m.ReadU32(off)
			return int32(v), err
		},
	}
	I64Codec = Codec[int64]{
		Name: "i64", Size: 8, Align: 8,
		Store: func(m ffibridge.Memory, off uint32, v int64) error { return m.WriteU64(off, uint64(v)) },
		Load: func(m ffibridge.Memory, off uint32) (int64, error) {
			v, err := m.ReadU64(off)
			return int64(v), err
		},
	}
	IsizeCodec = Codec[int]{
		Name: "isize", Size: 8, Align: 8,
		Store: func(m ffibridge.Memory, off uint32, v int) error { return m.WriteU64(off, uint64(v)) },
		Load: func(m ffibridge.Memory, off uint32) (int, error) {
			v, err := m.ReadU64(off)
			return int(v), err
		},
	}
	F32Codec = Codec[float32]{
		Name: "f32", Size: 4, Align: 4,
		Store: func(m ffibridge.Memory, off uint32, v float32) error {
			return m.WriteU32(off, math.Float32bits(v))
		},
		Load: func(m ffibridge.Memory, off uint32) (float32, error) {
			v, err := m.ReadU32(off)
			return math.Float32frombits(v), err
		},
	}
	F64Codec = Codec[float64]{
		Name: "f64", Size: 8, Align: 8,
		Store: func(m ffibridge.Memory, off uint32, v float64) error {
			return m.WriteU64(off, math.Float64bits(v))
		},
		Load: func(m ffibridge.Memory, off uint32) (float64, error) {
			v, err := m.ReadU64(off)
			return math.Float64frombits(v), err
		},
	}
	BoolCodec = Codec[bool]{
		Name: "bool", Size: 1, Align: 1,
		Store: func(m ffibridge.Memory, off uint32, v bool) error {
			var b uint8
			if v {
				b = 1
			}
			return m.WriteU8(off, b)
		},
		Load: func(m ffibridge.Memory, off uint32) (bool, error) {
			b, err := m.ReadU8(off)
			if err != nil {
				return false, err
			}
			if b > 1 {
				return false, errors.InvalidData(errors.PhaseDecode, []string{"bool"},
					"bool byte must be 0 or 1")
			}
			return b == 1, nil
		},
	}
	// AddrCodec stores element addresses of reference containers.
	AddrCodec = Codec[ffibridge.Addr]{
		Name: "addr", Size: 4, Align: 4,
		Store: func(m ffibridge.Memory, off uint32, v ffibridge.Addr) error { return m.WriteU32(off, v) },
		Load:  func(m ffibridge.Memory, off uint32) (ffibridge.Addr, error) { return m.ReadU32(off) },
	}
)

// CodecFor returns the codec for a primitive element type.
func CodecFor[T Primitive]() Codec[T] {
	var v T
	var c any
	switch any(v).(type) {
	case uint8:
		c = U8Codec
	case uint16:
		c = U16Codec
	case uint32:
		c = U32Codec
	case uint64:
		c = U64Codec
	case uint:
		c = UsizeCodec
	case int8:
		c = I8Codec
	case int16:
		c = I16Codec
	case int32:
		c = I32Codec
	case int64:
		c = I64Codec
	case int:
		c = IsizeCodec
	case float32:
		c = F32Codec
	case float64:
		c = F64Codec
	case bool:
		c = BoolCodec
	}
	return c.(Codec[T])
}

// ElemName returns the declared element name of a primitive type.
func ElemName[T Primitive]() string {
	return CodecFor[T]().Name
}

// WriteStr stores a Str aggregate at off.
func WriteStr(mem ffibridge.Memory, off uint32, s Str) error {
	if err := mem.WriteU32(off, s.Start); err != nil {
		return err
	}
	return mem.WriteU32(off+4, s.Len)
}

// ReadStr loads a Str aggregate from off.
func ReadStr(mem ffibridge.Memory, off uint32) (Str, error) {
	start, err := mem.ReadU32(off)
	if err != nil {
		return Str{}, err
	}
	n, err := mem.ReadU32(off + 4)
	if err != nil {
		return Str{}, err
	}
	return Str{Start: start, Len: n}, nil
}

// WriteOption stores an Option aggregate at off: val then is_some.
func WriteOption[T Primitive](mem ffibridge.Memory, off uint32, o Option[T]) error {
	c := CodecFor[T]()
	if err := c.Store(mem, off, o.Val); err != nil {
		return err
	}
	return BoolCodec.Store(mem, off+c.Size, o.IsSome)
}

// ReadOption loads an Option aggregate from off. The value slot of an
// absent option is never read.
func ReadOption[T Primitive](mem ffibridge.Memory, off uint32) (Option[T], error) {
	c := CodecFor[T]()
	isSome, err := BoolCodec.Load(mem, off+c.Size)
	if err != nil {
		return Option[T]{}, err
	}
	if !isSome {
		return None[T](), nil
	}
	val, err := c.Load(mem, off)
	if err != nil {
		return Option[T]{}, err
	}
	return Option[T]{Val: val, IsSome: isSome}, nil
}

// WriteResultPtrAndPtr stores a ResultPtrAndPtr at off.
func WriteResultPtrAndPtr(mem ffibridge.Memory, off uint32, r ResultPtrAndPtr) error {
	if err := BoolCodec.Store(mem, off, r.IsOk); err != nil {
		return err
	}
	return mem.WriteU32(off+4, r.OkOrErr)
}

// ReadResultPtrAndPtr loads a ResultPtrAndPtr from off.
func ReadResultPtrAndPtr(mem ffibridge.Memory, off uint32) (ResultPtrAndPtr, error) {
	isOk, err := BoolCodec.Load(mem, off)
	if err != nil {
		return ResultPtrAndPtr{}, err
	}
	ptr, err := mem.ReadU32(off + 4)
	if err != nil {
		return ResultPtrAndPtr{}, err
	}
	return ResultPtrAndPtr{IsOk: isOk, OkOrErr: ptr}, nil
}
