package abi

import (
	"math"
	"strconv"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/errors"
	"go.bytecodealliance.org/wit"
)

// FlatCount returns the number of core slots a value of t occupies when
// passed flattened. Strings are a (start, len) view; references are one
// address; results are one discriminant plus the wider payload.
func FlatCount(t wit.Type) int {
	switch t := t.(type) {
	case nil:
		return 0
	case wit.Bool, wit.U8, wit.S8, wit.U16, wit.S16, wit.U32, wit.S32, wit.U64, wit.S64, wit.F32, wit.F64, wit.Char:
		return 1
	case wit.String:
		return 2
	case *wit.TypeDef:
		switch kind := t.Kind.(type) {
		case *wit.Record:
			count := 0
			for _, f := range kind.Fields {
				count += FlatCount(f.Type)
			}
			return count
		case *wit.List, *wit.Own, *wit.Borrow, *wit.Resource:
			return 1
		case *wit.Option:
			if IsReference(kind.Type) {
				return 1
			}
			return 1 + FlatCount(kind.Type)
		case *wit.Tuple:
			count := 0
			for _, elem := range kind.Types {
				count += FlatCount(elem)
			}
			return count
		case *wit.Enum, *wit.Flags:
			return 1
		case *wit.Result:
			return 1 + max(FlatCount(kind.OK), FlatCount(kind.Err))
		case *wit.Variant:
			maxPayload := 0
			for _, c := range kind.Cases {
				if c.Type != nil {
					maxPayload = max(maxPayload, FlatCount(c.Type))
				}
			}
			return 1 + maxPayload
		case wit.Type:
			return FlatCount(kind)
		}
	}
	return 1
}

// Flatten lowers v, described by t, into core slots.
//
// Go forms: bool, uint8..uint64, int8..int64, float32, float64, rune for
// char, Str for string, ffibridge.Addr for references, nil or the inner
// value for option, []any for tuples and records (fields in order).
func Flatten(t wit.Type, v any) ([]uint64, error) {
	out := make([]uint64, 0, FlatCount(t))
	out, err := flatten(t, v, out, nil)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(t wit.Type, v any, out []uint64, path []string) ([]uint64, error) {
	mismatch := func() error {
		return errors.TypeMismatch(errors.PhaseEncode, path, TypeName(v), DeclName(t))
	}
	switch typ := t.(type) {
	case wit.Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, mismatch()
		}
		if b {
			return append(out, 1), nil
		}
		return append(out, 0), nil
	case wit.U8:
		x, ok := v.(uint8)
		if !ok {
			return nil, mismatch()
		}
		return append(out, uint64(x)), nil
	case wit.U16:
		x, ok := v.(uint16)
		if !ok {
			return nil, mismatch()
		}
		return append(out, uint64(x)), nil
	case wit.U32:
		x, ok := v.(uint32)
		if !ok {
			return nil, mismatch()
		}
		return append(out, uint64(x)), nil
	case wit.U64:
		x, ok := v.(uint64)
		if !ok {
			return nil, mismatch()
		}
		return append(out, x), nil
	case wit.S8:
		x, ok := v.(int8)
		if !ok {
			return nil, mismatch()
		}
		return append(out, uint64(int64(x))), nil
	case wit.S16:
		x, ok := v.(int16)
		if !ok {
			return nil, mismatch()
		}
		return append(out, uint64(int64(x))), nil
	case wit.S32:
		x, ok := v.(int32)
		if !ok {
			return nil, mismatch()
		}
		return append(out, uint64(int64(x))), nil
	case wit.S64:
		x, ok := v.(int64)
		if !ok {
			return nil, mismatch()
		}
		return append(out, uint64(x)), nil
	case wit.F32:
		x, ok := v.(float32)
		if !ok {
			return nil, mismatch()
		}
		return append(out, uint64(math.Float32bits(x))), nil
	case wit.F64:
		x, ok := v.(float64)
		if !ok {
			return nil, mismatch()
		}
		return append(out, math.Float64bits(x)), nil
	case wit.Char:
		x, ok := v.(rune)
		if !ok {
			return nil, mismatch()
		}
		return append(out, uint64(uint32(x))), nil
	case wit.String:
		s, ok := v.(Str)
		if !ok {
			return nil, mismatch()
		}
		return append(out, uint64(s.Start), uint64(s.Len)), nil
	case *wit.TypeDef:
		switch kind := typ.Kind.(type) {
		case *wit.List, *wit.Own, *wit.Borrow, *wit.Resource:
			a, ok := v.(ffibridge.Addr)
			if !ok {
				return nil, mismatch()
			}
			return append(out, uint64(a)), nil
		case *wit.Option:
			if IsReference(kind.Type) {
				if v == nil {
					return append(out, 0), nil
				}
				return flatten(kind.Type, v, out, path)
			}
			if v == nil {
				return append(out, make([]uint64, 1+FlatCount(kind.Type))...), nil
			}
			out = append(out, 1)
			return flatten(kind.Type, v, out, sub(path, "some"))
		case *wit.Tuple:
			return flattenFields(kind.Types, nil, v, out, path, mismatch)
		case *wit.Record:
			types := make([]wit.Type, len(kind.Fields))
			names := make([]string, len(kind.Fields))
			for i, f := range kind.Fields {
				types[i] = f.Type
				names[i] = f.Name
			}
			return flattenFields(types, names, v, out, path, mismatch)
		case *wit.Enum:
			x, ok := v.(uint32)
			if !ok {
				return nil, mismatch()
			}
			if int(x) >= len(kind.Cases) {
				return nil, errors.OutOfBounds(errors.PhaseEncode, path, int(x), len(kind.Cases))
			}
			return append(out, uint64(x)), nil
		case wit.Type:
			return flatten(kind, v, out, path)
		}
	}
	return nil, errors.Unsupported(errors.PhaseEncode, "flattening "+DeclName(t))
}

func flattenFields(types []wit.Type, names []string, v any, out []uint64, path []string, mismatch func() error) ([]uint64, error) {
	fields, ok := v.([]any)
	if !ok {
		return nil, mismatch()
	}
	if len(fields) != len(types) {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Path(path...).
			Detail("expected %d fields, got %d", len(types), len(fields)).
			Build()
	}
	var err error
	for i, ft := range types {
		name := fieldName(names, i)
		out, err = flatten(ft, fields[i], out, sub(path, name))
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func fieldName(names []string, i int) string {
	if names != nil {
		return names[i]
	}
	return strconv.Itoa(i)
}

func sub(path []string, name string) []string {
	return append(append([]string{}, path...), name)
}

// Unflatten lifts a value of t from core slots, returning the Go form
// documented on Flatten. Slots past the value are ignored.
func Unflatten(t wit.Type, slots []uint64) (any, error) {
	v, _, err := unflatten(t, slots, nil)
	return v, err
}

func unflatten(t wit.Type, slots []uint64, path []string) (any, []uint64, error) {
	need := FlatCount(t)
	if len(slots) < need {
		return nil, nil, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			Path(path...).
			DeclType(DeclName(t)).
			Detail("need %d slots, have %d", need, len(slots)).
			Build()
	}
	var s uint64
	if need > 0 {
		s = slots[0]
	}
	switch typ := t.(type) {
	case wit.Bool:
		if s > 1 {
			return nil, nil, errors.InvalidData(errors.PhaseDecode, path, "bool slot must be 0 or 1")
		}
		return s == 1, slots[1:], nil
	case wit.U8:
		return uint8(s), slots[1:], nil
	case wit.U16:
		return uint16(s), slots[1:], nil
	case wit.U32:
		return uint32(s), slots[1:], nil
	case wit.U64:
		return s, slots[1:], nil
	case wit.S8:
		return int8(s), slots[1:], nil
	case wit.S16:
		return int16(s), slots[1:], nil
	case wit.S32:
		return int32(s), slots[1:], nil
	case wit.S64:
		return int64(s), slots[1:], nil
	case wit.F32:
		return math.Float32frombits(uint32(s)), slots[1:], nil
	case wit.F64:
		return math.Float64frombits(s), slots[1:], nil
	case wit.Char:
		return rune(uint32(s)), slots[1:], nil
	case wit.String:
		return Str{Start: ffibridge.Addr(s), Len: uint32(slots[1])}, slots[2:], nil
	case *wit.TypeDef:
		switch kind := typ.Kind.(type) {
		case *wit.List, *wit.Own, *wit.Borrow, *wit.Resource:
			return ffibridge.Addr(s), slots[1:], nil
		case *wit.Option:
			if IsReference(kind.Type) {
				if s == 0 {
					return nil, slots[1:], nil
				}
				return unflatten(kind.Type, slots, path)
			}
			switch s {
			case 0:
				return nil, slots[need:], nil
			case 1:
				return unflatten(kind.Type, slots[1:], sub(path, "some"))
			}
			return nil, nil, errors.InvalidData(errors.PhaseDecode, path, "option discriminant must be 0 or 1")
		case *wit.Tuple:
			return unflattenFields(kind.Types, nil, slots, path)
		case *wit.Record:
			types := make([]wit.Type, len(kind.Fields))
			names := make([]string, len(kind.Fields))
			for i, f := range kind.Fields {
				types[i] = f.Type
				names[i] = f.Name
			}
			return unflattenFields(types, names, slots, path)
		case *wit.Enum:
			if s >= uint64(len(kind.Cases)) {
				return nil, nil, errors.OutOfBounds(errors.PhaseDecode, path, int(s), len(kind.Cases))
			}
			return uint32(s), slots[1:], nil
		case wit.Type:
			return unflatten(kind, slots, path)
		}
	}
	return nil, nil, errors.Unsupported(errors.PhaseDecode, "unflattening "+DeclName(t))
}

func unflattenFields(types []wit.Type, names []string, slots []uint64, path []string) (any, []uint64, error) {
	fields := make([]any, len(types))
	for i, ft := range types {
		v, rest, err := unflatten(ft, slots, sub(path, fieldName(names, i)))
		if err != nil {
			return nil, nil, err
		}
		fields[i] = v
		slots = rest
	}
	return fields, slots, nil
}
