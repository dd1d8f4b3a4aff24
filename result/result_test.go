package result

import (
	stderrors "errors"
	"reflect"
	"testing"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
	"go.bytecodealliance.org/wit"
)

type domainError struct {
	code uint32
}

func (e *domainError) Error() string { return "domain error" }

func TestOkAndErrChannels(t *testing.T) {
	ok := Ok[uint32, *domainError](123)
	if !ok.IsOk() || ok.IsErr() {
		t.Fatal("Ok should be ok")
	}
	if v, present := ok.Ok().Get(); !present || v != 123 {
		t.Errorf("Ok() = %v, %v", v, present)
	}
	if ok.Err().IsSome() {
		t.Error("Ok result has an error value")
	}

	bad := Err[uint32](&domainError{code: 7})
	if bad.IsOk() || !bad.IsErr() {
		t.Fatal("Err should be err")
	}
	if bad.Ok().IsSome() {
		t.Error("Err result has an ok value")
	}
}

func TestUnpack_Throwable(t *testing.T) {
	v, err := Ok[uint32, *domainError](5).Unpack()
	if err != nil || v != 5 {
		t.Fatalf("Unpack ok = %v, %v", v, err)
	}

	de := &domainError{code: 9}
	_, err = Err[uint32](de).Unpack()
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "domain error" {
		t.Errorf("Error() = %q", err.Error())
	}

	var f *Failure[*domainError]
	if !stderrors.As(err, &f) || f.Value != de {
		t.Fatalf("errors.As Failure = %v", f)
	}

	var target *domainError
	if !stderrors.As(err, &target) || target.code != 9 {
		t.Fatal("errors.As should reach the wrapped error value")
	}
}

func TestUnpack_DomainKind(t *testing.T) {
	_, err := Err[uint32](&domainError{code: 1}).Unpack()
	if !stderrors.Is(err, &errors.Error{Kind: errors.KindDomain}) {
		t.Error("failure should match KindDomain")
	}
	if stderrors.Is(err, &errors.Error{Kind: errors.KindInvalidData}) {
		t.Error("failure should not match other kinds")
	}
}

func TestUnpack_ZeroResult(t *testing.T) {
	var r Result[uint32, *domainError]
	v, err := r.Unpack()
	if v != 0 {
		t.Errorf("value = %d", v)
	}
	e, ok := errors.As(err)
	if !ok || e.Kind != errors.KindInvalidData {
		t.Fatalf("Unpack = %v, want invalid_data", err)
	}
	if stderrors.Is(err, &errors.Error{Kind: errors.KindDomain}) {
		t.Error("a zero result is not a domain failure")
	}
}

func TestFailure_NilValue(t *testing.T) {
	for _, f := range []error{
		&Failure[error]{},
		&Failure[*domainError]{},
	} {
		if f.Error() == "" {
			t.Errorf("%T: empty message", f)
		}
	}
}

func TestString(t *testing.T) {
	if s := Ok[int, *domainError](1).String(); s != "Ok(1)" {
		t.Errorf("String() = %q", s)
	}
	if s := Err[int](&domainError{}).String(); s != "Err(domain error)" {
		t.Errorf("String() = %q", s)
	}
}

type addrError ffibridge.Addr

func (a addrError) Error() string { return "error object" }

func TestPtrAndPtr(t *testing.T) {
	liftOk := func(a ffibridge.Addr) ffibridge.Addr { return a }
	liftErr := func(a ffibridge.Addr) addrError { return addrError(a) }

	r := FromPtrAndPtr(abi.ResultPtrAndPtr{IsOk: true, OkOrErr: 0x10}, liftOk, liftErr)
	if v, _ := r.Ok().Get(); !r.IsOk() || v != 0x10 {
		t.Errorf("ok lift = %v", r)
	}

	r = FromPtrAndPtr(abi.ResultPtrAndPtr{IsOk: false, OkOrErr: 0x20}, liftOk, liftErr)
	if e, _ := r.Err().Get(); r.IsOk() || e != 0x20 {
		t.Errorf("err lift = %v", r)
	}

	lowered := ToPtrAndPtr(r, func(a ffibridge.Addr) ffibridge.Addr { return a }, func(e addrError) ffibridge.Addr { return ffibridge.Addr(e) })
	if lowered.IsOk || lowered.OkOrErr != 0x20 {
		t.Errorf("ToPtrAndPtr = %+v", lowered)
	}
}

func TestFlat_RoundTrip(t *testing.T) {
	pair := &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U32{}, wit.U8{}}}}
	typ := &wit.Result{OK: pair, Err: wit.U64{}}

	okVal := func(v [2]uint64) any { return []any{uint32(v[0]), uint8(v[1])} }
	errVal := func(e *domainError) any { return uint64(e.code) }
	okFrom := func(x any) ([2]uint64, error) {
		f := x.([]any)
		return [2]uint64{uint64(f[0].(uint32)), uint64(f[1].(uint8))}, nil
	}
	errFrom := func(x any) (*domainError, error) {
		return &domainError{code: uint32(x.(uint64))}, nil
	}

	slots, err := LowerFlat(typ, Ok[[2]uint64, *domainError]([2]uint64{7, 3}), okVal, errVal)
	if err != nil {
		t.Fatal(err)
	}
	if want := []uint64{0, 7, 3}; !reflect.DeepEqual(slots, want) {
		t.Errorf("ok slots = %v, want %v", slots, want)
	}
	back, err := LiftFlat(typ, slots, okFrom, errFrom)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := back.Ok().Get(); v != [2]uint64{7, 3} {
		t.Errorf("ok round trip = %v", v)
	}

	slots, err = LowerFlat(typ, Err[[2]uint64](&domainError{code: 42}), okVal, errVal)
	if err != nil {
		t.Fatal(err)
	}
	if want := []uint64{1, 42, 0}; !reflect.DeepEqual(slots, want) {
		t.Errorf("err slots = %v, want %v", slots, want)
	}
	back, err = LiftFlat(typ, slots, okFrom, errFrom)
	if err != nil {
		t.Fatal(err)
	}
	if e, _ := back.Err().Get(); e.code != 42 {
		t.Errorf("err round trip = %v", e)
	}
}

func TestFlat_UnitPayloads(t *testing.T) {
	typ := &wit.Result{}
	unit := func(struct{}) any { return nil }
	unitFrom := func(any) (struct{}, error) { return struct{}{}, nil }
	errFrom := func(any) (*domainError, error) { return &domainError{}, nil }

	slots, err := LowerFlat(typ, Ok[struct{}, *domainError](struct{}{}), unit, func(*domainError) any { return nil })
	if err != nil || !reflect.DeepEqual(slots, []uint64{0}) {
		t.Fatalf("slots = %v, %v", slots, err)
	}
	r, err := LiftFlat(typ, []uint64{1}, unitFrom, errFrom)
	if err != nil || !r.IsErr() {
		t.Errorf("LiftFlat = %v, %v", r, err)
	}
	if _, err := LiftFlat(typ, []uint64{2}, unitFrom, errFrom); err == nil {
		t.Error("invalid discriminant should fail")
	}
	if _, err := LiftFlat(typ, nil, unitFrom, errFrom); err == nil {
		t.Error("missing slots should fail")
	}
}
