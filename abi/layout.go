package abi

import "go.bytecodealliance.org/wit"

// Layout describes the memory shape of a boundary value.
type Layout struct {
	FieldOffs map[string]uint32
	Size      uint32
	Align     uint32
}

// Fixed layouts of the boundary aggregates.
var (
	StrLayout = Layout{
		Size:      8,
		Align:     4,
		FieldOffs: map[string]uint32{"start": 0, "len": 4},
	}
	ResultPtrAndPtrLayout = Layout{
		Size:      8,
		Align:     4,
		FieldOffs: map[string]uint32{"is_ok": 0, "ok_or_err": 4},
	}
	AddrLayout = Layout{Size: 4, Align: 4}
)

// OptionLayout returns the layout of Option[T] for an element of the given
// size and alignment: the value comes first, the flag immediately after it.
func OptionLayout(size, align uint32) Layout {
	if align == 0 {
		align = 1
	}
	return Layout{
		Size:      AlignTo(size+1, align),
		Align:     align,
		FieldOffs: map[string]uint32{"val": 0, "is_some": size},
	}
}

// Calculator computes layouts of declared types as they are passed by value.
//
// Strings, lists and opaque references are passed as a single address of a
// foreign-owned object. An option over a primitive is the Option[T] aggregate;
// an option over a reference is a nullable address. A result whose payloads
// are both references is ResultPtrAndPtr.
type Calculator struct {
	cache map[*wit.TypeDef]Layout
}

func NewCalculator() *Calculator {
	return &Calculator{
		cache: make(map[*wit.TypeDef]Layout),
	}
}

func (c *Calculator) Calculate(t wit.Type) Layout {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return Layout{Size: 1, Align: 1}
	case wit.U16, wit.S16:
		return Layout{Size: 2, Align: 2}
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return Layout{Size: 4, Align: 4}
	case wit.U64, wit.S64, wit.F64:
		return Layout{Size: 8, Align: 8}
	case wit.String:
		return AddrLayout
	case *wit.TypeDef:
		return c.calculateTypeDef(typ)
	default:
		return Layout{Size: 0, Align: 1}
	}
}

// CalculateView returns the layout of a borrowed argument. Strings are
// passed as a Str view; everything else matches Calculate.
func (c *Calculator) CalculateView(t wit.Type) Layout {
	if _, ok := t.(wit.String); ok {
		return StrLayout
	}
	return c.Calculate(t)
}

func (c *Calculator) calculateTypeDef(t *wit.TypeDef) Layout {
	if cached, ok := c.cache[t]; ok {
		return cached
	}

	var info Layout

	switch kind := t.Kind.(type) {
	case *wit.Record:
		info = c.calculateRecord(kind)
	case *wit.Variant:
		info = c.calculateVariant(kind)
	case *wit.Enum:
		size := DiscriminantSize(len(kind.Cases))
		info = Layout{Size: size, Align: size}
	case *wit.List, *wit.Own, *wit.Borrow, *wit.Resource:
		info = AddrLayout
	case *wit.Option:
		info = c.calculateOption(kind)
	case *wit.Result:
		info = c.calculateResult(kind)
	case *wit.Tuple:
		info = c.calculateTuple(kind.Types)
	case *wit.Flags:
		info = calculateFlags(len(kind.Flags))
	case wit.Type:
		info = c.Calculate(kind)
	default:
		info = Layout{Size: 0, Align: 1}
	}

	c.cache[t] = info
	return info
}

func (c *Calculator) calculateRecord(r *wit.Record) Layout {
	if len(r.Fields) == 0 {
		return Layout{Size: 0, Align: 1}
	}

	fieldOffs := make(map[string]uint32, len(r.Fields))
	maxAlign := uint32(1)
	offset := uint32(0)

	for _, field := range r.Fields {
		fl := c.Calculate(field.Type)
		offset = AlignTo(offset, fl.Align)
		fieldOffs[field.Name] = offset
		if fl.Align > maxAlign {
			maxAlign = fl.Align
		}
		offset += fl.Size
	}

	return Layout{
		Size:      AlignTo(offset, maxAlign),
		Align:     maxAlign,
		FieldOffs: fieldOffs,
	}
}

func (c *Calculator) calculateVariant(v *wit.Variant) Layout {
	if len(v.Cases) == 0 {
		return Layout{Size: 0, Align: 1}
	}

	discSize := DiscriminantSize(len(v.Cases))
	maxAlign := discSize
	maxSize := uint32(0)

	for _, cs := range v.Cases {
		if cs.Type == nil {
			continue
		}
		cl := c.Calculate(cs.Type)
		if cl.Align > maxAlign {
			maxAlign = cl.Align
		}
		if cl.Size > maxSize {
			maxSize = cl.Size
		}
	}

	payloadOffset := AlignTo(discSize, maxAlign)
	return Layout{
		Size:  AlignTo(payloadOffset+maxSize, maxAlign),
		Align: maxAlign,
	}
}

func (c *Calculator) calculateOption(o *wit.Option) Layout {
	if IsReference(o.Type) {
		return AddrLayout
	}
	inner := c.Calculate(o.Type)
	return OptionLayout(inner.Size, inner.Align)
}

func (c *Calculator) calculateResult(r *wit.Result) Layout {
	if IsReference(r.OK) && IsReference(r.Err) {
		return ResultPtrAndPtrLayout
	}

	maxSize, maxAlign := uint32(0), uint32(1)
	for _, t := range []wit.Type{r.OK, r.Err} {
		if t == nil {
			continue
		}
		l := c.Calculate(t)
		if l.Align > maxAlign {
			maxAlign = l.Align
		}
		if l.Size > maxSize {
			maxSize = l.Size
		}
	}

	payloadOffset := AlignTo(1, maxAlign)
	return Layout{
		Size:      AlignTo(payloadOffset+maxSize, maxAlign),
		Align:     maxAlign,
		FieldOffs: map[string]uint32{"is_ok": 0, "payload": payloadOffset},
	}
}

func (c *Calculator) calculateTuple(types []wit.Type) Layout {
	if len(types) == 0 {
		return Layout{Size: 0, Align: 1}
	}

	maxAlign := uint32(1)
	offset := uint32(0)
	for _, typ := range types {
		el := c.Calculate(typ)
		offset = AlignTo(offset, el.Align)
		if el.Align > maxAlign {
			maxAlign = el.Align
		}
		offset += el.Size
	}

	return Layout{
		Size:  AlignTo(offset, maxAlign),
		Align: maxAlign,
	}
}

func calculateFlags(n int) Layout {
	switch {
	case n == 0:
		return Layout{Size: 0, Align: 1}
	case n <= 8:
		return Layout{Size: 1, Align: 1}
	case n <= 16:
		return Layout{Size: 2, Align: 2}
	case n <= 32:
		return Layout{Size: 4, Align: 4}
	case n <= 64:
		return Layout{Size: 8, Align: 8}
	}
	return Layout{Size: uint32((n + 31) / 32 * 4), Align: 4}
}

// DiscriminantSize: 1 byte for <=256 cases, 2 for <=65536, else 4.
func DiscriminantSize(numCases int) uint32 {
	if numCases <= 256 {
		return 1
	} else if numCases <= 65536 {
		return 2
	}
	return 4
}

// IsReference reports whether values of t cross the boundary as a single
// address of a foreign-owned object.
func IsReference(t wit.Type) bool {
	switch typ := t.(type) {
	case wit.String:
		return true
	case *wit.TypeDef:
		switch kind := typ.Kind.(type) {
		case *wit.List, *wit.Own, *wit.Borrow, *wit.Resource:
			return true
		case wit.Type:
			return IsReference(kind)
		}
	}
	return false
}

// IsPrimitive reports whether t is a fixed-width scalar.
func IsPrimitive(t wit.Type) bool {
	switch typ := t.(type) {
	case wit.Bool, wit.U8, wit.S8, wit.U16, wit.S16, wit.U32, wit.S32,
		wit.U64, wit.S64, wit.F32, wit.F64, wit.Char:
		return true
	case *wit.TypeDef:
		if inner, ok := typ.Kind.(wit.Type); ok {
			return IsPrimitive(inner)
		}
	}
	return false
}
