// Package result provides the managed result type and its boundary
// encodings.
//
// A Result[T, E] holds exactly one of an ok value or an error value. The
// error type must implement error, so a failed call surfaces as an ordinary
// Go error through Unpack:
//
//	v, err := res.Unpack()
//	var f *result.Failure[*str.String]
//	if stderrors.As(err, &f) {
//	    defer f.Value.Free()
//	}
package result

import (
	"fmt"
	"reflect"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
	"github.com/wippyai/ffi-bridge/option"
)

// Result holds either an ok value or an error value.
type Result[T any, E error] struct {
	ok  option.Option[T]
	err option.Option[E]
}

func Ok[T any, E error](v T) Result[T, E] {
	return Result[T, E]{ok: option.Some(v)}
}

func Err[T any, E error](e E) Result[T, E] {
	return Result[T, E]{err: option.Some(e)}
}

// Ok returns the ok channel.
func (r Result[T, E]) Ok() option.Option[T] { return r.ok }

// Err returns the error channel.
func (r Result[T, E]) Err() option.Option[E] { return r.err }

func (r Result[T, E]) IsOk() bool { return r.ok.IsSome() }

func (r Result[T, E]) IsErr() bool { return r.err.IsSome() }

// Unpack returns the ok value, or a *Failure carrying the error value.
// A zero Result holds neither and unpacks to an invalid_data error.
func (r Result[T, E]) Unpack() (T, error) {
	var zero T
	if e, isErr := r.err.Get(); isErr {
		return zero, &Failure[E]{Value: e}
	}
	v, isOk := r.ok.Get()
	if !isOk {
		return zero, errors.InvalidData(errors.PhaseDecode, nil, "result holds neither an ok nor an error value")
	}
	return v, nil
}

func (r Result[T, E]) String() string {
	if e, isErr := r.err.Get(); isErr {
		return fmt.Sprintf("Err(%v)", e)
	}
	v, _ := r.ok.Get()
	return fmt.Sprintf("Ok(%v)", v)
}

// Failure is the error returned by Unpack. It owns the error value.
// It matches any *errors.Error of KindDomain under errors.Is.
type Failure[E error] struct {
	Value E
}

func (f *Failure[E]) Error() string {
	if isNil(f.Value) {
		return "result failure without an error value"
	}
	return f.Value.Error()
}

func (f *Failure[E]) Is(target error) bool {
	t, ok := target.(*errors.Error)
	return ok && t.Kind == errors.KindDomain
}

func (f *Failure[E]) Unwrap() error {
	return f.Value
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// FromPtrAndPtr lifts a result whose payloads are both references.
func FromPtrAndPtr[T any, E error](r abi.ResultPtrAndPtr, liftOk func(ffibridge.Addr) T, liftErr func(ffibridge.Addr) E) Result[T, E] {
	if r.IsOk {
		return Ok[T, E](liftOk(r.OkOrErr))
	}
	return Err[T](liftErr(r.OkOrErr))
}

// ToPtrAndPtr lowers a result whose payloads are both references.
func ToPtrAndPtr[T any, E error](r Result[T, E], lowerOk func(T) ffibridge.Addr, lowerErr func(E) ffibridge.Addr) abi.ResultPtrAndPtr {
	if e, isErr := r.err.Get(); isErr {
		return abi.ResultPtrAndPtr{IsOk: false, OkOrErr: lowerErr(e)}
	}
	v, _ := r.ok.Get()
	return abi.ResultPtrAndPtr{IsOk: true, OkOrErr: lowerOk(v)}
}
