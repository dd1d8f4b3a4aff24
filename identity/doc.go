// Package identity adapts foreign equality and hash hooks to Go.
//
// A type declared Equatable exports __bridge__$<T>$_partial_eq and a type
// declared Hashable also exports __bridge__$<T>$_hash. Equality compares
// the values behind two addresses; Same compares the addresses themselves.
// The two are distinct: two different objects may be equal.
//
// KeyHash and KeyEqual give the foreign side one canonical definition over
// a type's key fields, so that equal values always hash equally.
package identity
