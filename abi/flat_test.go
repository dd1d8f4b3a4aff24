package abi

import (
	"reflect"
	"testing"

	"go.bytecodealliance.org/wit"
)

func TestFlatCount(t *testing.T) {
	tests := []struct {
		typ  wit.Type
		name string
		want int
	}{
		{wit.U32{}, "u32", 1},
		{wit.String{}, "string", 2},
		{&wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}, "list", 1},
		{&wit.TypeDef{Kind: &wit.Option{Type: wit.U64{}}}, "option_u64", 2},
		{&wit.TypeDef{Kind: &wit.Option{Type: wit.String{}}}, "option_string", 1},
		{&wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U8{}, wit.String{}}}}, "tuple", 3},
		{&wit.TypeDef{Kind: &wit.Result{OK: wit.U32{}, Err: wit.String{}}}, "result", 3},
		{&wit.TypeDef{Kind: &wit.Result{}}, "result_unit", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FlatCount(tt.typ); got != tt.want {
				t.Errorf("FlatCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	point := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "x", Type: wit.S32{}},
		{Name: "y", Type: wit.F64{}},
		{Name: "label", Type: wit.String{}},
	}}}
	pair := &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.Bool{}, wit.Char{}}}}
	optU16 := &wit.TypeDef{Kind: &wit.Option{Type: wit.U16{}}}

	tests := []struct {
		name string
		typ  wit.Type
		val  any
	}{
		{"record", point, []any{int32(-3), 2.5, Str{Start: 16, Len: 4}}},
		{"tuple", pair, []any{true, 'λ'}},
		{"option_some", optU16, uint16(9)},
		{"option_none", optU16, nil},
		{"s8", wit.S8{}, int8(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, err := Flatten(tt.typ, tt.val)
			if err != nil {
				t.Fatalf("Flatten: %v", err)
			}
			if len(slots) != FlatCount(tt.typ) {
				t.Errorf("got %d slots, want %d", len(slots), FlatCount(tt.typ))
			}
			back, err := Unflatten(tt.typ, slots)
			if err != nil {
				t.Fatalf("Unflatten: %v", err)
			}
			if !reflect.DeepEqual(back, tt.val) {
				t.Errorf("round trip: got %#v, want %#v", back, tt.val)
			}
		})
	}
}

func TestFlattenErrors(t *testing.T) {
	if _, err := Flatten(wit.U32{}, "nope"); err == nil {
		t.Error("expected type mismatch")
	}
	tup := &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U8{}, wit.U8{}}}}
	if _, err := Flatten(tup, []any{uint8(1)}); err == nil {
		t.Error("expected field count error")
	}
	if _, err := Unflatten(tup, []uint64{1}); err == nil {
		t.Error("expected short slots error")
	}
	if _, err := Unflatten(wit.Bool{}, []uint64{2}); err == nil {
		t.Error("expected invalid bool error")
	}
}
