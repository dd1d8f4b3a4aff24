package abi

import (
	"strings"

	"go.bytecodealliance.org/wit"
)

// Prefix starts every exported boundary symbol.
const Prefix = "__bridge__"

// Container witness operations, in declaration order.
const (
	OpNew    = "new"
	OpFree   = "_free"
	OpLen    = "len"
	OpPush   = "push"
	OpPop    = "pop"
	OpGet    = "get"
	OpGetMut = "get_mut"
	OpAsPtr  = "as_ptr"
)

// VecOps lists the operations every vectorizable element type provides.
var VecOps = []string{OpNew, OpFree, OpLen, OpPush, OpPop, OpGet, OpGetMut, OpAsPtr}

// Identity adapter operations.
const (
	OpPartialEq = "_partial_eq"
	OpHash      = "_hash"
)

// TypeSymbol names an operation on a declared type: __bridge__$<Type>$<op>.
func TypeSymbol(typeName, op string) string {
	return Prefix + "$" + typeName + "$" + op
}

// FuncSymbol names a free function: __bridge__$<name>.
func FuncSymbol(name string) string {
	return Prefix + "$" + name
}

// VecSymbol names a container operation for an element type.
func VecSymbol(elem, op string) string {
	return TypeSymbol(VecTypeName(elem), op)
}

// VecTypeName is the declared name of a vector of elem.
func VecTypeName(elem string) string {
	return "Vec_" + elem
}

// VecSymbols returns every container symbol for elem, in VecOps order.
func VecSymbols(elem string) []string {
	out := make([]string, len(VecOps))
	for i, op := range VecOps {
		out[i] = VecSymbol(elem, op)
	}
	return out
}

// OptionStructName names the Option aggregate for a primitive element,
// e.g. u32 -> __private__OptionU32, usize -> __private__OptionUsize.
func OptionStructName(elem string) string {
	if elem == "" {
		return "__private__Option"
	}
	return "__private__Option" + strings.ToUpper(elem[:1]) + elem[1:]
}

// ResultPtrAndPtrName names the reference result aggregate.
const ResultPtrAndPtrName = "__private__ResultPtrAndPtr"

// Boxed one-shot callback symbols. The boxed address must be passed to
// exactly one of them.
var (
	CallBoxedFnOnceSymbol = FuncSymbol("call_boxed_fn_once_no_args_no_return")
	FreeBoxedFnOnceSymbol = FuncSymbol("free_boxed_fn_once_no_args_no_return")
)

// TrampolineName names the completion function exported for an async function.
func TrampolineName(fn string) string {
	return FuncSymbol(fn) + "$complete"
}

// DeclName returns the element name used in symbols for a declared type:
// u8..u64, i8..i64, f32, f64, bool, char, String, the opaque type name, or
// Vec_<elem> for lists.
func DeclName(t wit.Type) string {
	switch typ := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.U16:
		return "u16"
	case wit.U32:
		return "u32"
	case wit.U64:
		return "u64"
	case wit.S8:
		return "i8"
	case wit.S16:
		return "i16"
	case wit.S32:
		return "i32"
	case wit.S64:
		return "i64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "String"
	case *wit.TypeDef:
		switch kind := typ.Kind.(type) {
		case *wit.Own:
			if kind.Type != nil {
				return DeclName(kind.Type)
			}
		case *wit.Borrow:
			if kind.Type != nil {
				return DeclName(kind.Type)
			}
		case *wit.List:
			return VecTypeName(DeclName(kind.Type))
		}
		if typ.Name != nil {
			return *typ.Name
		}
		if inner, ok := typ.Kind.(wit.Type); ok {
			return DeclName(inner)
		}
	}
	return "unknown"
}
