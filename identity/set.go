package identity

import (
	"iter"

	"github.com/wippyai/ffi-bridge/errors"
)

// Set is a hash set of foreign values keyed by the native hooks. It does
// not own its elements; Remove hands the stored element back.
type Set[T Keyed] struct {
	adapter *Adapter
	buckets map[uint64][]T
	n       int
}

// NewSet creates a set over a hashable adapter.
func NewSet[T Keyed](a *Adapter) (*Set[T], error) {
	if !a.Hashable() {
		return nil, errors.Unsupported(errors.PhaseBind, a.typeName+" is not hashable")
	}
	return &Set[T]{adapter: a, buckets: make(map[uint64][]T)}, nil
}

// Add inserts v unless an equal value is present. It reports whether v was
// inserted.
func (s *Set[T]) Add(v T) bool {
	h := s.adapter.Hash(v)
	for _, e := range s.buckets[h] {
		if s.adapter.Equal(e, v) {
			return false
		}
	}
	s.buckets[h] = append(s.buckets[h], v)
	s.n++
	return true
}

// Contains reports whether a value equal to v is present.
func (s *Set[T]) Contains(v T) bool {
	_, ok := s.find(v)
	return ok
}

// Get returns the stored element equal to v.
func (s *Set[T]) Get(v T) (T, bool) {
	i, ok := s.find(v)
	if !ok {
		var zero T
		return zero, false
	}
	return s.buckets[s.adapter.Hash(v)][i], true
}

// Remove deletes the element equal to v and returns it.
func (s *Set[T]) Remove(v T) (T, bool) {
	var zero T
	h := s.adapter.Hash(v)
	bucket := s.buckets[h]
	for i, e := range bucket {
		if s.adapter.Equal(e, v) {
			bucket = append(bucket[:i], bucket[i+1:]...)
			if len(bucket) == 0 {
				delete(s.buckets, h)
			} else {
				s.buckets[h] = bucket
			}
			s.n--
			return e, true
		}
	}
	return zero, false
}

func (s *Set[T]) Len() int { return s.n }

// All yields every element in no particular order.
func (s *Set[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, bucket := range s.buckets {
			for _, e := range bucket {
				if !yield(e) {
					return
				}
			}
		}
	}
}

func (s *Set[T]) find(v T) (int, bool) {
	for i, e := range s.buckets[s.adapter.Hash(v)] {
		if s.adapter.Equal(e, v) {
			return i, true
		}
	}
	return 0, false
}
