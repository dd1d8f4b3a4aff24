package foreign

import (
	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/identity"
	"github.com/wippyai/ffi-bridge/resource"
)

// ExportEqual exports __bridge__$<T>$_partial_eq comparing the key fields.
func ExportEqual[T any](o *OpaqueType[T], key func(*T) []any) error {
	return o.rt.Export(abi.TypeSymbol(o.name, abi.OpPartialEq), func(a, b ffibridge.Addr) bool {
		if a == b {
			return true
		}
		var ka, kb []any
		o.mustWith(a, resource.Shared, func(v *T) { ka = key(v) })
		o.mustWith(b, resource.Shared, func(v *T) { kb = key(v) })
		return identity.KeyEqual(ka, kb)
	})
}

// ExportHash exports __bridge__$<T>$_hash over the key fields. Values that
// are equal under ExportEqual with the same key hash equally.
func ExportHash[T any](o *OpaqueType[T], key func(*T) []any) error {
	return o.rt.Export(abi.TypeSymbol(o.name, abi.OpHash), func(a ffibridge.Addr) uint64 {
		var h uint64
		o.mustWith(a, resource.Shared, func(v *T) { h = identity.KeyHash(key(v)...) })
		return h
	})
}

// ExportIdentity exports both equality and hash hooks.
func ExportIdentity[T any](o *OpaqueType[T], key func(*T) []any) error {
	if err := ExportEqual(o, key); err != nil {
		return err
	}
	return ExportHash(o, key)
}
