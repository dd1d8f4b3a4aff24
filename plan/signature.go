package plan

import (
	"regexp"
	"strings"

	"github.com/wippyai/ffi-bridge/errors"
	"go.bytecodealliance.org/wit"
)

var funcPattern = regexp.MustCompile(`^\s*([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)\s*(?:->\s*(.+?))?\s*;?\s*$`)

// Param is a named function parameter.
type Param struct {
	Type wit.Type
	Name string
	Decl string
}

// Signature is a parsed function declaration. Result is nil for a
// function without a result.
type Signature struct {
	Result     wit.Type
	Name       string
	ResultDecl string
	Params     []Param
}

// ParseSignature parses "name: func(a: T, ...) -> R".
func (t *Types) ParseSignature(s string) (*Signature, error) {
	m := funcPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, errors.New(errors.PhasePlan, errors.KindInvalidData).
			Detail("not a function signature: %q", s).
			Build()
	}
	sig := &Signature{Name: m[1]}

	seen := make(map[string]bool)
	for _, part := range splitParams(strings.TrimSpace(m[2])) {
		idx := strings.Index(part, ":")
		if idx < 0 {
			return nil, errors.InvalidInput(errors.PhasePlan, "parameter without a type: "+part)
		}
		name := strings.TrimSpace(part[:idx])
		decl := strings.TrimSpace(part[idx+1:])
		if name == "" || seen[name] {
			return nil, errors.InvalidInput(errors.PhasePlan, "bad or duplicate parameter name in "+sig.Name)
		}
		seen[name] = true
		typ, err := t.Parse(decl)
		if err != nil {
			return nil, errors.Wrap(errors.PhasePlan, errors.KindInvalidData, err, "parse param type "+decl)
		}
		sig.Params = append(sig.Params, Param{Name: name, Type: typ, Decl: decl})
	}

	if res := strings.TrimSpace(m[3]); res != "" && res != "()" {
		typ, err := t.Parse(res)
		if err != nil {
			return nil, errors.Wrap(errors.PhasePlan, errors.KindInvalidData, err, "parse result type "+res)
		}
		sig.Result = typ
		sig.ResultDecl = res
	}
	return sig, nil
}

// splitParams splits a parameter list on top-level commas.
func splitParams(s string) []string {
	var result []string
	var current strings.Builder
	depth := 0

	for _, ch := range s {
		switch ch {
		case '(', '<':
			depth++
			current.WriteRune(ch)
		case ')', '>':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				if str := strings.TrimSpace(current.String()); str != "" {
					result = append(result, str)
				}
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}

	if str := strings.TrimSpace(current.String()); str != "" {
		result = append(result, str)
	}

	return result
}
