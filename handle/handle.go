package handle

import (
	"fmt"
	"runtime"
	"sync/atomic"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/errors"
	"go.uber.org/zap"
)

// Mode is how a handle holds its object.
type Mode uint8

const (
	Owned Mode = iota
	Borrowed
	BorrowedMut
)

func (m Mode) String() string {
	switch m {
	case Owned:
		return "owned"
	case Borrowed:
		return "borrowed"
	case BorrowedMut:
		return "borrowed_mut"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Handle wraps the address of an object that lives in the ownership runtime.
//
// Only an Owned handle frees its object, and only once: the owned flag is
// cleared by Free or TransferOut, whichever comes first. Borrowed handles
// never free. Using a borrowed handle after its owner is freed is undefined.
type Handle struct {
	free     func(ffibridge.Addr)
	typeName string
	owned    atomic.Bool
	addr     ffibridge.Addr
	mode     Mode
}

// New returns an Owned handle. free is called at most once.
func New(typeName string, addr ffibridge.Addr, free func(ffibridge.Addr)) *Handle {
	h := &Handle{free: free, typeName: typeName, addr: addr, mode: Owned}
	h.owned.Store(true)
	return h
}

// Borrow returns a shared borrowed handle.
func Borrow(typeName string, addr ffibridge.Addr) *Handle {
	return &Handle{typeName: typeName, addr: addr, mode: Borrowed}
}

// BorrowMut returns an exclusive borrowed handle.
func BorrowMut(typeName string, addr ffibridge.Addr) *Handle {
	return &Handle{typeName: typeName, addr: addr, mode: BorrowedMut}
}

// Lift wraps an address received from the boundary in the given mode.
func Lift(typeName string, addr ffibridge.Addr, mode Mode, free func(ffibridge.Addr)) *Handle {
	switch mode {
	case Borrowed:
		return Borrow(typeName, addr)
	case BorrowedMut:
		return BorrowMut(typeName, addr)
	}
	return New(typeName, addr, free)
}

// AsRef returns a shared borrow of the same object.
func (h *Handle) AsRef() *Handle {
	return Borrow(h.typeName, h.addr)
}

// AsMut returns an exclusive borrow of the same object. A shared borrow
// cannot be upgraded and traps.
func (h *Handle) AsMut() *Handle {
	if h.mode == Borrowed {
		errors.Trap(errors.New(errors.PhaseOwnership, errors.KindAliasing).
			DeclType(h.typeName).
			Value(h.addr).
			Detail("cannot borrow %#x mutably through a shared borrow", h.addr).
			Build())
	}
	return BorrowMut(h.typeName, h.addr)
}

// Free destroys the object if this handle still owns it.
// It is a no-op for borrowed handles and after the first call.
func (h *Handle) Free() {
	if h == nil || h.mode != Owned {
		return
	}
	if !h.owned.CompareAndSwap(true, false) {
		return
	}
	if h.addr == ffibridge.Null || h.free == nil {
		return
	}
	Logger().Debug("handle freed", zap.String("type", h.typeName), zap.Uint32("addr", h.addr))
	h.free(h.addr)
}

// TransferOut gives up ownership so the object can be moved across the
// boundary. It reports whether this call cleared the owned flag.
func (h *Handle) TransferOut() (ffibridge.Addr, bool) {
	if h.mode != Owned {
		return h.addr, false
	}
	return h.addr, h.owned.CompareAndSwap(true, false)
}

// MustTransfer is TransferOut for by-value arguments: it traps when the
// handle does not own its object.
func (h *Handle) MustTransfer() ffibridge.Addr {
	addr, ok := h.TransferOut()
	if !ok {
		errors.Trap(errors.NotOwned(h.typeName, h.addr, h.mode.String()))
	}
	return addr
}

// AutoFree registers a finalizer that frees the object if the handle is
// collected while still owning it.
func (h *Handle) AutoFree() *Handle {
	if h.mode == Owned {
		runtime.SetFinalizer(h, (*Handle).Free)
	}
	return h
}

func (h *Handle) Addr() ffibridge.Addr { return h.addr }

func (h *Handle) Mode() Mode { return h.mode }

// Owns reports whether the handle still owns its object.
func (h *Handle) Owns() bool { return h.mode == Owned && h.owned.Load() }

func (h *Handle) IsNull() bool { return h.addr == ffibridge.Null }

func (h *Handle) TypeName() string { return h.typeName }

func (h *Handle) String() string {
	return fmt.Sprintf("%s(%#x, %s)", h.typeName, h.addr, h.mode)
}
