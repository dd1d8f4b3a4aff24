// Package handle implements the opaque handle ownership protocol.
//
// A Handle is a managed wrapper around the address of an object owned by the
// ownership runtime. One concrete type carries a mode tag:
//
//	Owned        frees the object exactly once (Free or transfer)
//	Borrowed     shared access, never frees
//	BorrowedMut  exclusive access, never frees
//
// Passing an owned handle by value across the boundary calls TransferOut,
// which clears the owned flag so a later Free is a no-op. The flag is an
// atomic check-and-clear, so concurrent Free and TransferOut agree on a
// single winner.
//
// # Usage
//
//	typ, err := handle.Resolve(rt, "Stack")
//	h := typ.Owned(newStack())
//	defer h.Free()
//
//	peek(h.AsRef().Addr())
//	consume(h.MustTransfer())
package handle
