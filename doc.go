// Package ffibridge provides the value-marshaling core of a cross-runtime binding
// generator.
//
// Values cross a call boundary between a managed runtime (reference counted,
// deterministic destructors) and an ownership runtime (explicit move/borrow, no
// garbage collector). This library supplies both halves of that contract for Go:
// the wrappers and decoders the managed side uses, and the ownership runtime with
// its linear heap and exported symbols.
//
// # Architecture Overview
//
//	ffibridge/          Root package with Addr, Memory, Allocator and Symbols
//	├── abi/            Fixed boundary layouts, symbol names, flattening
//	├── heap/           Linear heap (pure Go or wazero-backed) and allocator
//	├── resource/       Address-keyed object table with borrow tracking
//	├── foreign/        Ownership runtime: boxes, exported symbols, executor
//	├── handle/         Opaque handle ownership protocol
//	├── str/            String bridge (owned buffer, borrowed view)
//	├── vec/            Container bridge via per-element witnesses
//	├── option/         Optional encodings (nullable address, present+value)
//	├── result/         Result encodings and the Go-native throwable
//	├── async/          One-shot completion trampoline and boxed callbacks
//	├── identity/       Equality, hash and identity adapters
//	├── plan/           Component selection for the code generator
//	└── errors/         Structured error types and traps
//
// # Quick Start
//
//	rt, err := foreign.New(ctx, foreign.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	if err := foreign.RegisterVec[uint32](rt); err != nil {
//	    log.Fatal(err)
//	}
//	w, err := vec.PrimitiveWitness[uint32](rt)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	v := vec.New(w)
//	defer v.Free()
//	v.Push(5)
//	v.Push(10)
//	top, _ := v.Pop().Get() // 10
//
// # Ownership
//
// Every managed wrapper carries an owned flag that is cleared exactly once, either
// by Free or by a transfer (pushing into a container, passing by value). Free on a
// cleared handle is a no-op, which keeps destruction idempotent when an object
// crossed the boundary more than once.
//
// # Fatal Conditions
//
// Invalid UTF-8 at the boundary and a second completion of an async context are
// bridge bugs, not domain errors. They trap (panic with *errors.Error). Domain
// errors travel as the error channel of a result and surface as Go errors.
//
// # Thread Safety
//
// The ownership runtime, heap and completion registry are safe for concurrent use.
// Individual handles are not shared across goroutines unless the declared type is
// marked Sendable; the owned flag itself is atomic.
package ffibridge
