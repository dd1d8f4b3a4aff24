// Package foreign implements the ownership runtime side of the bridge.
//
// A Runtime owns a linear heap, boxes Go values at heap addresses and
// publishes boundary symbols as Go function values. The managed side resolves
// those symbols by name with ffibridge.Resolve and never touches a boxed value
// directly.
//
// # Declaring Types
//
//	rt, _ := foreign.New(ctx, foreign.DefaultConfig())
//	stack, _ := foreign.DeclareOpaque[Stack](rt, "Stack")
//	foreign.ExportConstructor(stack, "new", func(struct{}) Stack { return Stack{} })
//	foreign.ExportMut(stack, "push", func(s *Stack, v uint32) struct{} { ... })
//	foreign.ExportRef(stack, "len", func(s *Stack) uint { ... })
//
// DeclareOpaque always exports __bridge__$<T>$_free. Methods run under a
// shared (ExportRef) or exclusive (ExportMut) borrow of the receiver.
//
// # Built-in Types
//
// RegisterStrings exports the owned String type, the Str view equality and
// the Vec_String witness. RegisterVec exports the witness of a primitive
// element type and RegisterRefVec the witness of a boxed element type.
//
// # Async
//
// ExportAsync queues the function body on the Executor and calls the
// caller's completion function exactly once from a worker goroutine. The
// queue is bounded (DefaultQueueDepth) and Spawn blocks while it is full.
//
// # Traps
//
// Symbols have no error channel. Invalid UTF-8, freeing a dead address and
// conflicting borrows trap with *errors.Error.
package foreign
