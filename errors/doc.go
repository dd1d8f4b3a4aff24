// Package errors provides structured error types for the ffi-bridge library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go/declared type names, the
// boundary symbol involved, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
//		Symbol("__bridge__$Vec_u32$pop").
//		GoType("func(uint32) abi.Option[uint32]").
//		Detail("unexpected symbol signature").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseDecode, path, 10, 5)
//	err := errors.MissingSymbol("__bridge__$String$new")
//
// # Traps
//
// Encoding errors and protocol violations are fatal. They are raised with Trap,
// which panics with the *Error; AsTrap recognizes the value after recover.
// Domain errors are never trapped.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
