package plan

import (
	"slices"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
)

// Plan is the marshaling plan of a whole manifest.
type Plan struct {
	Name      string       `cbor:"name"`
	Functions []FuncPlan   `cbor:"functions"`
	Opaques   []OpaquePlan `cbor:"opaques"`
	// Vectors lists element names that need a container witness.
	Vectors []string `cbor:"vectors,omitempty"`
	// Options lists the Option aggregates used by primitive optionals.
	Options []string `cbor:"options,omitempty"`
	// Symbols lists every symbol the foreign side must export.
	Symbols []string `cbor:"symbols"`
}

// FuncPlan is the plan of one function.
type FuncPlan struct {
	Result    Selection `cbor:"result"`
	Name      string    `cbor:"name"`
	Symbol    string    `cbor:"symbol"`
	Signature string    `cbor:"signature"`
	// Trampoline names the completion function of an async function. Its
	// context and completion pointer follow the declared parameters.
	Trampoline string      `cbor:"trampoline,omitempty"`
	Params     []ParamPlan `cbor:"params"`
	Async      bool        `cbor:"async"`
}

type ParamPlan struct {
	Name      string    `cbor:"name"`
	Selection Selection `cbor:"selection"`
}

// OpaquePlan lists the symbols of one opaque type.
type OpaquePlan struct {
	Name    string   `cbor:"name"`
	Key     []string `cbor:"key,omitempty"`
	Symbols []string `cbor:"symbols"`
	// Capabilities in declaration order: equatable, hashable, sendable.
	Equatable bool `cbor:"equatable"`
	Hashable  bool `cbor:"hashable"`
	Sendable  bool `cbor:"sendable"`
}

// Build selects encodings for every declared function.
func Build(m *Manifest) (*Plan, error) {
	names := make([]string, 0, len(m.Opaques))
	for _, o := range m.Opaques {
		names = append(names, o.Name)
	}
	types := NewTypes(names...)

	p := &Plan{Name: m.Bridge.Name}
	vectors := make(map[string]bool)
	options := make(map[string]bool)
	var symbols []string

	for _, o := range m.Opaques {
		op := OpaquePlan{
			Name:      o.Name,
			Key:       o.Key,
			Equatable: o.Equatable,
			Hashable:  o.Hashable,
			Sendable:  o.Sendable,
			Symbols:   []string{abi.TypeSymbol(o.Name, abi.OpFree)},
		}
		if o.Equatable {
			op.Symbols = append(op.Symbols, abi.TypeSymbol(o.Name, abi.OpPartialEq))
		}
		if o.Hashable {
			op.Symbols = append(op.Symbols, abi.TypeSymbol(o.Name, abi.OpHash))
		}
		if o.Vectorizable {
			vectors[o.Name] = true
		}
		p.Opaques = append(p.Opaques, op)
		symbols = union(symbols, op.Symbols)
	}

	seen := make(map[string]bool)
	for _, f := range m.Functions {
		sig, err := types.ParseSignature(f.Signature)
		if err != nil {
			return nil, err
		}
		if seen[sig.Name] {
			return nil, errors.InvalidInput(errors.PhasePlan, "function "+sig.Name+" declared twice")
		}
		seen[sig.Name] = true

		fp := FuncPlan{
			Name:      sig.Name,
			Symbol:    abi.FuncSymbol(sig.Name),
			Signature: f.Signature,
			Async:     f.Async,
		}
		if f.Async {
			fp.Trampoline = abi.TrampolineName(sig.Name)
		}
		var sels []Selection
		for _, prm := range sig.Params {
			sel, err := Select(prm.Type)
			if err != nil {
				return nil, errors.Wrap(errors.PhasePlan, errors.KindUnsupported, err, sig.Name+"."+prm.Name)
			}
			fp.Params = append(fp.Params, ParamPlan{Name: prm.Name, Selection: sel})
			sels = append(sels, sel)
		}
		res, err := Select(sig.Result)
		if err != nil {
			return nil, errors.Wrap(errors.PhasePlan, errors.KindUnsupported, err, sig.Name+" result")
		}
		fp.Result = res
		sels = append(sels, res)

		symbols = union(symbols, []string{fp.Symbol})
		for _, sel := range sels {
			collect(sel, vectors, options)
			symbols = union(symbols, sel.Symbols)
		}
		p.Functions = append(p.Functions, fp)
	}

	for elem := range vectors {
		p.Vectors = append(p.Vectors, elem)
		symbols = union(symbols, abi.VecSymbols(elem))
	}
	for agg := range options {
		p.Options = append(p.Options, agg)
	}
	slices.Sort(p.Vectors)
	slices.Sort(p.Options)
	p.Symbols = symbols
	return p, nil
}

func collect(sel Selection, vectors, options map[string]bool) {
	switch sel.Category {
	case CategoryVec:
		vectors[sel.Elem] = true
	case CategoryOptionPrimitive:
		options[sel.Aggregate] = true
	}
	for _, c := range sel.Children {
		collect(c, vectors, options)
	}
}

// Check reports every symbol of the plan that syms does not export.
func (p *Plan) Check(syms ffibridge.Symbols) error {
	var missing []string
	for _, name := range p.Symbols {
		if _, ok := syms.Lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errors.NewMissingSymbolsError(missing)
	}
	return nil
}

// Function returns the plan of the named function.
func (p *Plan) Function(name string) (*FuncPlan, bool) {
	for i := range p.Functions {
		if p.Functions[i].Name == name {
			return &p.Functions[i], true
		}
	}
	return nil, false
}
