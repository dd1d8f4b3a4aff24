package resource

import ffibridge "github.com/wippyai/ffi-bridge"

// Addr is the heap address of a boxed object.
type Addr = ffibridge.Addr

// EventType identifies a lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventTaken
	EventBorrowed
	EventBorrowReturned
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	case EventTaken:
		return "taken"
	case EventBorrowed:
		return "borrowed"
	case EventBorrowReturned:
		return "borrow_returned"
	}
	return "unknown"
}

// Event represents an object lifecycle event.
type Event struct {
	Value  any
	Addr   Addr
	TypeID uint32
	Type   EventType
	Kind   BorrowKind
}

// Observer receives notifications about object lifecycle events.
type Observer interface {
	OnObjectEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnObjectEvent(e Event) { f(e) }

// BorrowKind distinguishes shared from exclusive borrows.
type BorrowKind uint8

const (
	Shared BorrowKind = iota
	Exclusive
)

func (k BorrowKind) String() string {
	if k == Exclusive {
		return "exclusive"
	}
	return "shared"
}

// Dropper is optionally implemented by boxed values that need cleanup.
type Dropper interface {
	Drop()
}
