package resource

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wippyai/ffi-bridge/errors"
)

var (
	ErrClosed            = errors.New(errors.PhaseRuntime, errors.KindNotInitialized).Detail("object table closed").Build()
	ErrOutstandingBorrow = errors.New(errors.PhaseOwnership, errors.KindAliasing).Detail("cannot drop object with outstanding borrows").Build()
)

// Store is the in-memory object storage with borrow tracking.
type Store struct {
	entries map[Addr]*entry
	mu      sync.RWMutex
	closed  bool
}

type entry struct {
	value     any
	typeID    uint32
	shared    uint32
	exclusive bool
}

func NewStore() *Store {
	return &Store{entries: make(map[Addr]*entry, 64)}
}

// Put records value at addr. The address must not already be occupied.
func (s *Store) Put(addr Addr, typeID uint32, value any) error {
	if addr == 0 {
		return errors.NilPointer(errors.PhaseRuntime, nil, "object address")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, exists := s.entries[addr]; exists {
		return errors.New(errors.PhaseRuntime, errors.KindAliasing).
			Detail("address %#x already holds an object", addr).
			Build()
	}
	s.entries[addr] = &entry{value: value, typeID: typeID}
	return nil
}

func (s *Store) Get(addr Addr) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[addr]
	if !ok {
		return nil, false
	}
	return e.value, true
}

func (s *Store) TypeID(addr Addr) (uint32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[addr]
	if !ok {
		return 0, false
	}
	return e.typeID, true
}

// Take removes the object at addr and returns its value.
// It fails while borrows are outstanding.
func (s *Store) Take(addr Addr) (any, uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[addr]
	if !ok {
		return nil, 0, errors.NotFound(errors.PhaseRuntime, "object", addrString(addr))
	}
	if e.shared > 0 || e.exclusive {
		return nil, 0, ErrOutstandingBorrow
	}
	delete(s.entries, addr)
	return e.value, e.typeID, nil
}

// Borrow records a borrow of addr. An exclusive borrow excludes every other
// borrow, and a shared borrow excludes an exclusive one.
func (s *Store) Borrow(addr Addr, kind BorrowKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[addr]
	if !ok {
		return errors.NotFound(errors.PhaseOwnership, "object", addrString(addr))
	}
	if e.exclusive || (kind == Exclusive && e.shared > 0) {
		return errors.New(errors.PhaseOwnership, errors.KindAliasing).
			Detail("%s borrow of %#x conflicts with an outstanding borrow", kind, addr).
			Build()
	}
	if kind == Exclusive {
		e.exclusive = true
	} else {
		e.shared++
	}
	return nil
}

// ReturnBorrow releases a borrow taken with Borrow.
func (s *Store) ReturnBorrow(addr Addr, kind BorrowKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[addr]
	if !ok {
		return false
	}
	if kind == Exclusive {
		if !e.exclusive {
			return false
		}
		e.exclusive = false
		return true
	}
	if e.shared == 0 {
		return false
	}
	e.shared--
	return true
}

// Borrows returns the outstanding shared count and exclusive flag.
func (s *Store) Borrows(addr Addr) (uint32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[addr]
	if !ok {
		return 0, false
	}
	return e.shared, e.exclusive
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Each iterates over live objects in address order.
func (s *Store) Each(fn func(Addr, uint32, any) bool) {
	s.mu.RLock()
	addrs := make([]Addr, 0, len(s.entries))
	for a := range s.entries {
		addrs = append(addrs, a)
	}
	s.mu.RUnlock()

	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	for _, a := range addrs {
		s.mu.RLock()
		e, ok := s.entries[a]
		var typeID uint32
		var value any
		if ok {
			typeID, value = e.typeID, e.value
		}
		s.mu.RUnlock()
		if ok && !fn(a, typeID, value) {
			return
		}
	}
}

// Close drops every remaining object.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	entries := s.entries
	s.entries = make(map[Addr]*entry)
	s.mu.Unlock()

	for _, e := range entries {
		if d, ok := e.value.(Dropper); ok {
			d.Drop()
		}
	}
	return nil
}

func addrString(a Addr) string {
	return fmt.Sprintf("%#x", a)
}
