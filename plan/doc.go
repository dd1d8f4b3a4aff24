// Package plan selects the marshaling strategy for declared signatures.
//
// A generator describes its bridge in a bridge.toml manifest: opaque types
// with their capabilities and functions as signature strings.
//
//	[bridge]
//	name = "shapes"
//
//	[[opaque]]
//	name = "Point"
//	equatable = true
//	hashable = true
//	key = ["x", "y"]
//
//	[[function]]
//	signature = "distance: func(a: borrow<Point>, b: borrow<Point>) -> f64"
//
//	[[function]]
//	signature = "fetch: func(id: u32) -> result<string, string>"
//	async = true
//
// Build turns the manifest into a Plan: for every parameter and result the
// category of encoding, its layout and flat width, and the foreign symbols
// the call site needs. Plans serialize to canonical CBOR so generator runs
// can be compared byte for byte.
package plan
