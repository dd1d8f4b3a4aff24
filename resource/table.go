package resource

import (
	"sync"

	"github.com/wippyai/ffi-bridge/heap"
)

// cellSize is the heap footprint of a boxed object: its type ID and padding.
const cellSize = 8

// Table boxes Go values at heap addresses and notifies observers.
type Table struct {
	store     *Store
	heap      *heap.Heap
	observers map[uint64]Observer
	nextObs   uint64
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates a table whose objects occupy cells of h.
func NewTable(h *heap.Heap) *Table {
	return &Table{
		store:     NewStore(),
		heap:      h,
		observers: make(map[uint64]Observer),
	}
}

// Insert boxes value and returns its address.
func (t *Table) Insert(typeID uint32, value any) (Addr, error) {
	t.closeMu.RLock()
	defer t.closeMu.RUnlock()
	if t.closed {
		return 0, ErrClosed
	}

	addr, err := t.heap.Alloc(cellSize, cellSize)
	if err != nil {
		return 0, err
	}
	if err := t.heap.WriteU32(addr, typeID); err != nil {
		t.heap.Free(addr, cellSize, cellSize)
		return 0, err
	}
	if err := t.store.Put(addr, typeID, value); err != nil {
		t.heap.Free(addr, cellSize, cellSize)
		return 0, err
	}

	t.notify(Event{Type: EventCreated, Addr: addr, TypeID: typeID, Value: value})
	return addr, nil
}

func (t *Table) Get(addr Addr) (any, bool) {
	return t.store.Get(addr)
}

// GetTyped retrieves a value only if it matches the expected type.
func (t *Table) GetTyped(addr Addr, typeID uint32) (any, bool) {
	actual, ok := t.store.TypeID(addr)
	if !ok || actual != typeID {
		return nil, false
	}
	return t.store.Get(addr)
}

func (t *Table) TypeID(addr Addr) (uint32, bool) {
	return t.store.TypeID(addr)
}

// Remove drops the object at addr, running its destructor.
func (t *Table) Remove(addr Addr) (any, error) {
	value, typeID, err := t.store.Take(addr)
	if err != nil {
		return nil, err
	}
	t.heap.Free(addr, cellSize, cellSize)

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{Type: EventDropped, Addr: addr, TypeID: typeID, Value: value})
	return value, nil
}

// Take moves the object out of the table without running its destructor.
func (t *Table) Take(addr Addr) (any, error) {
	value, typeID, err := t.store.Take(addr)
	if err != nil {
		return nil, err
	}
	t.heap.Free(addr, cellSize, cellSize)

	t.notify(Event{Type: EventTaken, Addr: addr, TypeID: typeID, Value: value})
	return value, nil
}

// Borrow records a borrow of addr.
func (t *Table) Borrow(addr Addr, kind BorrowKind) error {
	if err := t.store.Borrow(addr, kind); err != nil {
		return err
	}
	typeID, _ := t.store.TypeID(addr)
	t.notify(Event{Type: EventBorrowed, Addr: addr, TypeID: typeID, Kind: kind})
	return nil
}

// ReturnBorrow releases a borrow taken with Borrow.
func (t *Table) ReturnBorrow(addr Addr, kind BorrowKind) bool {
	if !t.store.ReturnBorrow(addr, kind) {
		return false
	}
	typeID, _ := t.store.TypeID(addr)
	t.notify(Event{Type: EventBorrowReturned, Addr: addr, TypeID: typeID, Kind: kind})
	return true
}

// Borrows returns the outstanding shared count and exclusive flag.
func (t *Table) Borrows(addr Addr) (uint32, bool) {
	return t.store.Borrows(addr)
}

// Subscribe adds an observer and returns a function that removes it.
func (t *Table) Subscribe(o Observer) func() {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	id := t.nextObs
	t.nextObs++
	t.observers[id] = o
	return func() {
		t.obsMu.Lock()
		defer t.obsMu.Unlock()
		delete(t.observers, id)
	}
}

func (t *Table) Len() int {
	return t.store.Len()
}

// Each iterates over live objects in address order.
func (t *Table) Each(fn func(Addr, uint32, any) bool) {
	t.store.Each(fn)
}

// Clear drops every object without outstanding borrows.
func (t *Table) Clear() {
	var addrs []Addr
	t.store.Each(func(a Addr, _ uint32, _ any) bool {
		addrs = append(addrs, a)
		return true
	})
	for _, a := range addrs {
		_, _ = t.Remove(a)
	}
}

// Close drops all objects and stops accepting inserts.
func (t *Table) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	t.Clear()
	return t.store.Close()
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	obs := make([]Observer, 0, len(t.observers))
	for _, o := range t.observers {
		obs = append(obs, o)
	}
	t.obsMu.RUnlock()

	for _, o := range obs {
		o.OnObjectEvent(e)
	}
}
