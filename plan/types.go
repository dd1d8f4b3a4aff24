package plan

import (
	"strings"

	"github.com/wippyai/ffi-bridge/errors"
	"go.bytecodealliance.org/wit"
)

// Types resolves type expressions against the declared opaque types.
type Types struct {
	opaques map[string]*wit.TypeDef
}

// NewTypes declares one resource type per opaque name.
func NewTypes(opaques ...string) *Types {
	t := &Types{opaques: make(map[string]*wit.TypeDef, len(opaques))}
	for _, name := range opaques {
		t.opaques[name] = &wit.TypeDef{Name: &name, Kind: &wit.Resource{}}
	}
	return t
}

// Opaque returns the resource type declared for name.
func (t *Types) Opaque(name string) (*wit.TypeDef, bool) {
	td, ok := t.opaques[name]
	return td, ok
}

// Parse parses a type expression:
//
//	bool u8 .. u64 s8 .. s64 f32 f64 char string
//	list<T> option<T> tuple<T, ...>
//	result result<T> result<T, E> result<_, E>
//	own<N> borrow<N> N
//
// where N is a declared opaque type; a bare N means own<N>.
func (t *Types) Parse(s string) (wit.Type, error) {
	p := &typeParser{types: t, src: s}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return typ, nil
}

type typeParser struct {
	types *Types
	src   string
	pos   int
}

func (p *typeParser) errorf(format string, args ...any) error {
	return errors.New(errors.PhasePlan, errors.KindInvalidData).
		Path(p.src).
		Detail(format, args...).
		Build()
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (p.pos > start && c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *typeParser) accept(c byte) bool {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) expect(c byte) error {
	if !p.accept(c) {
		return p.errorf("expected %q at offset %d", c, p.pos)
	}
	return nil
}

// args parses "<T, ...>" allowing "_" for an absent type.
func (p *typeParser) args(minN, maxN int) ([]wit.Type, error) {
	if err := p.expect('<'); err != nil {
		return nil, err
	}
	var out []wit.Type
	for {
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == '_' && (p.pos+1 == len(p.src) || strings.IndexByte(",> \t", p.src[p.pos+1]) >= 0) {
			p.pos++
			out = append(out, nil)
		} else {
			typ, err := p.parseType()
			if err != nil {
				return nil, err
			}
			out = append(out, typ)
		}
		if p.accept('>') {
			break
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
	}
	if len(out) < minN || (maxN > 0 && len(out) > maxN) {
		return nil, p.errorf("wrong number of type arguments: %d", len(out))
	}
	return out, nil
}

func (p *typeParser) parseType() (wit.Type, error) {
	name := p.ident()
	if name == "" {
		return nil, p.errorf("expected a type at offset %d", p.pos)
	}

	switch name {
	case "list", "option":
		args, err := p.args(1, 1)
		if err != nil {
			return nil, err
		}
		if args[0] == nil {
			return nil, p.errorf("%s needs an element type", name)
		}
		if name == "list" {
			return &wit.TypeDef{Kind: &wit.List{Type: args[0]}}, nil
		}
		return &wit.TypeDef{Kind: &wit.Option{Type: args[0]}}, nil
	case "tuple":
		args, err := p.args(1, 0)
		if err != nil {
			return nil, err
		}
		for _, a := range args {
			if a == nil {
				return nil, p.errorf("tuple fields cannot be empty")
			}
		}
		return &wit.TypeDef{Kind: &wit.Tuple{Types: args}}, nil
	case "result":
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != '<' {
			return &wit.TypeDef{Kind: &wit.Result{}}, nil
		}
		args, err := p.args(1, 2)
		if err != nil {
			return nil, err
		}
		r := &wit.Result{OK: args[0]}
		if len(args) == 2 {
			r.Err = args[1]
		}
		return &wit.TypeDef{Kind: r}, nil
	case "own", "borrow":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		td, err := p.opaque(p.ident())
		if err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		if name == "own" {
			return &wit.TypeDef{Kind: &wit.Own{Type: td}}, nil
		}
		return &wit.TypeDef{Kind: &wit.Borrow{Type: td}}, nil
	}

	if typ, err := wit.ParseType(name); err == nil {
		return typ, nil
	}
	td, err := p.opaque(name)
	if err != nil {
		return nil, err
	}
	return &wit.TypeDef{Kind: &wit.Own{Type: td}}, nil
}

func (p *typeParser) opaque(name string) (*wit.TypeDef, error) {
	td, ok := p.types.Opaque(name)
	if !ok {
		return nil, p.errorf("unknown type %q", name)
	}
	return td, nil
}

// builtinName reports whether name is a built-in type or type constructor.
func builtinName(name string) bool {
	switch name {
	case "list", "option", "tuple", "result", "own", "borrow":
		return true
	}
	_, err := wit.ParseType(name)
	return err == nil
}
