package plan

import (
	"slices"
	"strings"

	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
	"go.bytecodealliance.org/wit"
)

// Category is the encoding chosen for a type at the boundary.
type Category uint8

const (
	CategoryUnit Category = iota
	CategoryPrimitive
	CategoryString
	CategoryOpaque
	CategoryVec
	CategoryOptionPrimitive
	CategoryOptionRef
	CategoryResult
	CategoryTuple
)

func (c Category) String() string {
	switch c {
	case CategoryUnit:
		return "unit"
	case CategoryPrimitive:
		return "primitive"
	case CategoryString:
		return "string"
	case CategoryOpaque:
		return "opaque"
	case CategoryVec:
		return "vec"
	case CategoryOptionPrimitive:
		return "option_primitive"
	case CategoryOptionRef:
		return "option_ref"
	case CategoryResult:
		return "result"
	case CategoryTuple:
		return "tuple"
	}
	return "unknown"
}

// Selection is the marshaling choice for one type.
type Selection struct {
	Decl      string      `cbor:"decl"`
	Elem      string      `cbor:"elem,omitempty"`
	Aggregate string      `cbor:"aggregate,omitempty"`
	Symbols   []string    `cbor:"symbols,omitempty"`
	Children  []Selection `cbor:"children,omitempty"`
	Layout    abi.Layout  `cbor:"layout"`
	Flat      int         `cbor:"flat"`
	Category  Category    `cbor:"category"`
	Borrowed  bool        `cbor:"borrowed,omitempty"`
}

// StringSymbols lists the symbols of the owned string type and its view.
func StringSymbols() []string {
	ops := []string{abi.OpNew, "new_with_str", abi.OpLen, "as_str", abi.OpAsPtr, "trim", abi.OpFree}
	out := make([]string, 0, len(ops)+1)
	for _, op := range ops {
		out = append(out, abi.TypeSymbol("String", op))
	}
	return append(out, abi.TypeSymbol("Str", abi.OpPartialEq))
}

// Select chooses the encoding of t. A nil type is Unit.
func Select(t wit.Type) (Selection, error) {
	return selectType(abi.NewCalculator(), t)
}

func selectType(calc *abi.Calculator, t wit.Type) (Selection, error) {
	if t == nil {
		return Selection{Category: CategoryUnit, Decl: "unit"}, nil
	}
	sel := Selection{
		Decl:   abi.DeclName(t),
		Layout: calc.Calculate(t),
		Flat:   abi.FlatCount(t),
	}

	if abi.IsPrimitive(t) {
		sel.Category = CategoryPrimitive
		return sel, nil
	}
	if _, ok := t.(wit.String); ok {
		sel.Category = CategoryString
		sel.Symbols = StringSymbols()
		return sel, nil
	}

	td, ok := t.(*wit.TypeDef)
	if !ok {
		return sel, errors.Unsupported(errors.PhasePlan, "type "+sel.Decl)
	}

	switch kind := td.Kind.(type) {
	case *wit.Own:
		return selectOpaque(sel, kind.Type, false), nil
	case *wit.Borrow:
		return selectOpaque(sel, kind.Type, true), nil
	case *wit.Resource:
		return selectOpaque(sel, td, false), nil

	case *wit.List:
		elem, err := selectType(calc, kind.Type)
		if err != nil {
			return sel, err
		}
		if elem.Category != CategoryPrimitive && elem.Category != CategoryString && elem.Category != CategoryOpaque {
			return sel, errors.Unsupported(errors.PhasePlan, "vector of "+elem.Decl)
		}
		sel.Category = CategoryVec
		sel.Elem = elem.Decl
		sel.Children = []Selection{elem}
		sel.Symbols = abi.VecSymbols(elem.Decl)
		return sel, nil

	case *wit.Option:
		inner, err := selectType(calc, kind.Type)
		if err != nil {
			return sel, err
		}
		sel.Decl = "option<" + inner.Decl + ">"
		sel.Elem = inner.Decl
		sel.Children = []Selection{inner}
		sel.Symbols = inner.Symbols
		switch {
		case inner.Category == CategoryPrimitive:
			sel.Category = CategoryOptionPrimitive
			sel.Aggregate = abi.OptionStructName(inner.Decl)
		case abi.IsReference(kind.Type):
			sel.Category = CategoryOptionRef
		default:
			return sel, errors.Unsupported(errors.PhasePlan, "option of "+inner.Decl)
		}
		return sel, nil

	case *wit.Result:
		ok, err := selectType(calc, kind.OK)
		if err != nil {
			return sel, err
		}
		bad, err := selectType(calc, kind.Err)
		if err != nil {
			return sel, err
		}
		sel.Category = CategoryResult
		sel.Decl = "result<" + argDecl(ok) + ", " + argDecl(bad) + ">"
		sel.Children = []Selection{ok, bad}
		sel.Symbols = union(ok.Symbols, bad.Symbols)
		if abi.IsReference(kind.OK) && abi.IsReference(kind.Err) {
			sel.Aggregate = abi.ResultPtrAndPtrName
		}
		return sel, nil

	case *wit.Tuple:
		sel.Category = CategoryTuple
		decls := make([]string, 0, len(kind.Types))
		for _, ft := range kind.Types {
			f, err := selectType(calc, ft)
			if err != nil {
				return sel, err
			}
			sel.Children = append(sel.Children, f)
			sel.Symbols = union(sel.Symbols, f.Symbols)
			decls = append(decls, f.Decl)
		}
		sel.Decl = "tuple<" + strings.Join(decls, ", ") + ">"
		return sel, nil
	}
	return sel, errors.Unsupported(errors.PhasePlan, "type "+sel.Decl)
}

func selectOpaque(sel Selection, td *wit.TypeDef, borrowed bool) Selection {
	sel.Category = CategoryOpaque
	sel.Borrowed = borrowed
	if td != nil && td.Name != nil {
		sel.Decl = *td.Name
	}
	sel.Symbols = []string{abi.TypeSymbol(sel.Decl, abi.OpFree)}
	return sel
}

func argDecl(s Selection) string {
	if s.Category == CategoryUnit {
		return "_"
	}
	return s.Decl
}

// union merges symbol lists, keeping them sorted and unique.
func union(a, b []string) []string {
	out := append(slices.Clone(a), b...)
	slices.Sort(out)
	return slices.Compact(out)
}
