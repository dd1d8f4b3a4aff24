package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEncode    Phase = "encode"    // managed value to boundary encoding
	PhaseDecode    Phase = "decode"    // boundary encoding to managed value
	PhaseOwnership Phase = "ownership" // handle lifetime and transfer
	PhaseContainer Phase = "container" // vector witness operations
	PhaseAsync     Phase = "async"     // completion trampoline
	PhaseBind      Phase = "bind"      // symbol resolution
	PhaseHeap      Phase = "heap"      // linear heap and allocator
	PhasePlan      Phase = "plan"      // component selection
	PhaseConfig    Phase = "config"    // manifest and runtime configuration
	PhaseRuntime   Phase = "runtime"   // ownership runtime operations
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch     Kind = "type_mismatch"
	KindOutOfBounds      Kind = "out_of_bounds"
	KindInvalidData      Kind = "invalid_data"
	KindUnsupported      Kind = "unsupported"
	KindAllocation       Kind = "allocation"
	KindInvalidUTF8      Kind = "invalid_utf8"
	KindOverflow         Kind = "overflow"
	KindNilPointer       Kind = "nil_pointer"
	KindNotFound         Kind = "not_found"
	KindNotInitialized   Kind = "not_initialized"
	KindInvalidInput     Kind = "invalid_input"
	KindRegistration     Kind = "registration"
	KindMissingSymbol    Kind = "missing_symbol"
	KindDoubleFree       Kind = "double_free"
	KindNotOwned         Kind = "not_owned"
	KindAliasing         Kind = "aliasing"
	KindDoubleCompletion Kind = "double_completion"
	KindDomain           Kind = "domain"
	KindAbandoned        Kind = "abandoned"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	GoType   string
	DeclType string
	Symbol   string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Symbol != "" {
		b.WriteString(" in ")
		b.WriteString(e.Symbol)
	}

	if e.GoType != "" || e.DeclType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.DeclType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", declared type ")
			b.WriteString(e.DeclType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("declared type ")
			b.WriteString(e.DeclType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.DeclType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// DeclType sets the declared interface type name
func (b *Builder) DeclType(t string) *Builder {
	b.err.DeclType = t
	return b
}

// Symbol sets the boundary symbol involved
func (b *Builder) Symbol(name string) *Builder {
	b.err.Symbol = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, declType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		GoType:   goType,
		DeclType: declType,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindOverflow,
		Path:     path,
		DeclType: targetType,
		Detail:   fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:    value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error for a missing collaborator
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates a registration error
func Registration(phase Phase, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Symbol: name,
		Detail: fmt.Sprintf("register %s", name),
		Cause:  cause,
	}
}

// MissingSymbol creates an error for a symbol absent from the table
func MissingSymbol(name string) *Error {
	return &Error{
		Phase:  PhaseBind,
		Kind:   KindMissingSymbol,
		Symbol: name,
		Detail: "symbol not exported",
	}
}

// DoubleFree creates an error for freeing an address that is not live
func DoubleFree(phase Phase, addr uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDoubleFree,
		Detail: fmt.Sprintf("address %#x is not a live allocation", addr),
		Value:  addr,
	}
}

// NotOwned creates an error for a transfer attempted without ownership
func NotOwned(typeName string, addr uint32, mode string) *Error {
	return &Error{
		Phase:    PhaseOwnership,
		Kind:     KindNotOwned,
		DeclType: typeName,
		Detail:   fmt.Sprintf("handle %#x is %s and cannot transfer ownership", addr, mode),
		Value:    addr,
	}
}

// DoubleCompletion creates an error for completing a context more than once
func DoubleCompletion(ctx uint32) *Error {
	return &Error{
		Phase:  PhaseAsync,
		Kind:   KindDoubleCompletion,
		Detail: fmt.Sprintf("context %#x is not pending", ctx),
		Value:  ctx,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhasePlan,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// MissingSymbolsError is returned when binding a witness or adapter fails
// because several symbols are absent from the table
type MissingSymbolsError struct {
	Symbols []string
}

// NewMissingSymbolsError creates an error from the unresolved symbol names
func NewMissingSymbolsError(names []string) *MissingSymbolsError {
	return &MissingSymbolsError{Symbols: append([]string(nil), names...)}
}

func (e *MissingSymbolsError) Error() string {
	if len(e.Symbols) == 0 {
		return "[bind] missing_symbol: no symbols specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "missing %d symbol(s):\n", len(e.Symbols))

	// Group by type segment for cleaner output
	byType := make(map[string][]string)
	var order []string
	for _, s := range e.Symbols {
		typ, op := splitSymbol(s)
		if _, exists := byType[typ]; !exists {
			order = append(order, typ)
		}
		byType[typ] = append(byType[typ], op)
	}

	for _, typ := range order {
		b.WriteString("\n  ")
		b.WriteString(typ)
		b.WriteString(":\n")
		for _, op := range byType[typ] {
			b.WriteString("    - ")
			b.WriteString(op)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *MissingSymbolsError) Is(target error) bool {
	_, ok := target.(*MissingSymbolsError)
	return ok
}

// splitSymbol splits "prefix$Type$op" into ("Type", "op").
func splitSymbol(name string) (typ, op string) {
	parts := strings.Split(name, "$")
	switch len(parts) {
	case 0, 1:
		return name, ""
	case 2:
		return parts[0], parts[1]
	default:
		return parts[len(parts)-2], parts[len(parts)-1]
	}
}

// Trap aborts the current goroutine with e. It is reserved for conditions
// that indicate corrupted bridge state and must never be recovered into a
// domain error: invalid encodings and protocol violations.
func Trap(e *Error) {
	panic(e)
}

// AsTrap reports whether a recovered panic value is a trap raised by Trap.
func AsTrap(r any) (*Error, bool) {
	e, ok := r.(*Error)
	return e, ok
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}
