package str

import (
	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/handle"
)

// String is a foreign string held through a handle.
type String struct {
	b *Bridge
	h *handle.Handle
}

// Len returns the length in bytes.
func (s *String) Len() uint { return s.b.length(s.h.Addr()) }

// AsStr borrows the whole string as a view.
func (s *String) AsStr() View { return s.b.View(s.b.asStr(s.h.Addr())) }

// Trim borrows the string without leading and trailing white space.
func (s *String) Trim() View { return s.b.View(s.b.trim(s.h.Addr())) }

// AsPtr returns the address of the string's bytes.
func (s *String) AsPtr() ffibridge.Addr { return s.b.asPtr(s.h.Addr()) }

// String copies the contents out.
func (s *String) String() string { return s.AsStr().String() }

// Error makes a String usable as an error value.
func (s *String) Error() string { return s.String() }

// Equal compares contents with another string.
func (s *String) Equal(o *String) bool { return s.AsStr().Equal(o.AsStr()) }

func (s *String) Addr() ffibridge.Addr { return s.h.Addr() }

func (s *String) Handle() *handle.Handle { return s.h }

func (s *String) Owns() bool { return s.h.Owns() }

// AsRef lends the string without ownership.
func (s *String) AsRef() *String { return &String{b: s.b, h: s.h.AsRef()} }

// Free destroys the string if this wrapper owns it.
func (s *String) Free() { s.h.Free() }

// TransferOut gives up ownership of the string.
func (s *String) TransferOut() (ffibridge.Addr, bool) { return s.h.TransferOut() }

// MustTransfer gives up ownership for a by-value argument and traps when
// the string is not owned.
func (s *String) MustTransfer() ffibridge.Addr { return s.h.MustTransfer() }

// AutoFree frees the string when it is collected while still owned.
func (s *String) AutoFree() *String {
	s.h.AutoFree()
	return s
}
