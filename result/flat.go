package result

import (
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
	"go.bytecodealliance.org/wit"
)

// LowerFlat lowers r to [discriminant, payload...] padded to
// 1 + max(FlatCount(ok), FlatCount(err)) slots. okVal and errVal convert
// payloads to the Go forms of abi.Flatten; a nil type means no payload.
func LowerFlat[T any, E error](typ *wit.Result, r Result[T, E], okVal func(T) any, errVal func(E) any) ([]uint64, error) {
	width := 1 + max(abi.FlatCount(typ.OK), abi.FlatCount(typ.Err))
	out := make([]uint64, 1, width)

	var payloadType wit.Type
	var payload any
	if e, isErr := r.err.Get(); isErr {
		out[0] = 1
		payloadType = typ.Err
		if payloadType != nil {
			payload = errVal(e)
		}
	} else {
		v, _ := r.ok.Get()
		payloadType = typ.OK
		if payloadType != nil {
			payload = okVal(v)
		}
	}

	if payloadType != nil {
		slots, err := abi.Flatten(payloadType, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, slots...)
	}
	for len(out) < width {
		out = append(out, 0)
	}
	return out, nil
}

// LiftFlat lifts a flattened result. okFrom and errFrom convert the Go forms
// of abi.Unflatten; they receive nil when the channel has no payload.
func LiftFlat[T any, E error](typ *wit.Result, slots []uint64, okFrom func(any) (T, error), errFrom func(any) (E, error)) (Result[T, E], error) {
	var zero Result[T, E]
	width := 1 + max(abi.FlatCount(typ.OK), abi.FlatCount(typ.Err))
	if len(slots) < width {
		return zero, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			Path("result").
			Detail("need %d slots, have %d", width, len(slots)).
			Build()
	}

	switch slots[0] {
	case 0:
		payload, err := unflattenOpt(typ.OK, slots[1:])
		if err != nil {
			return zero, err
		}
		v, err := okFrom(payload)
		if err != nil {
			return zero, err
		}
		return Ok[T, E](v), nil
	case 1:
		payload, err := unflattenOpt(typ.Err, slots[1:])
		if err != nil {
			return zero, err
		}
		e, err := errFrom(payload)
		if err != nil {
			return zero, err
		}
		return Err[T](e), nil
	}
	return zero, errors.InvalidData(errors.PhaseDecode, []string{"result"}, "result discriminant must be 0 or 1")
}

func unflattenOpt(t wit.Type, slots []uint64) (any, error) {
	if t == nil {
		return nil, nil
	}
	return abi.Unflatten(t, slots)
}
