// Package abi defines the fixed boundary contract shared by both runtimes.
//
// Every aggregate that crosses the boundary has a generator-determined layout.
// Field order and width are part of the contract:
//
//	Aggregate          Fields (offset)                    Size  Align
//	───────────────────────────────────────────────────────────────────
//	Str                start u32 (0), len u32 (4)          8     4
//	Option[T]          val T (0), is_some bool (sizeof T)  *     align(T)
//	ResultPtrAndPtr    is_ok bool (0), ok_or_err u32 (4)   8     4
//
// Symbols are named deterministically from the declared type name:
//
//	__bridge__$<Type>$<op>        opaque type operations
//	__bridge__$Vec_<Elem>$<op>    container witness operations
//	__bridge__$<func>             free functions
//
// Primitive codecs store fixed-width little-endian values in linear memory, and
// Flatten/Unflatten lower tuple and record payloads to an ordered sequence of
// core slots described by a wit type.
package abi
