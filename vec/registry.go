package vec

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wippyai/ffi-bridge/errors"
)

// Registry holds bound witnesses by element name.
type Registry struct {
	witnesses map[string]any
	mu        sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{witnesses: make(map[string]any)}
}

// Register adds w under its element name.
func Register[T any](r *Registry, w *Witness[T]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.witnesses[w.Elem]; exists {
		return errors.Registration(errors.PhaseBind, w.TypeName(), fmt.Errorf("witness already registered"))
	}
	r.witnesses[w.Elem] = w
	return nil
}

// Lookup returns the witness for elem with element type T.
func Lookup[T any](r *Registry, elem string) (*Witness[T], error) {
	r.mu.RLock()
	v, ok := r.witnesses[elem]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound(errors.PhaseBind, "witness", elem)
	}
	w, ok := v.(*Witness[T])
	if !ok {
		var zero T
		return nil, errors.TypeMismatch(errors.PhaseBind, []string{elem}, fmt.Sprintf("%T", zero), fmt.Sprintf("%T", v))
	}
	return w, nil
}

// Names returns the registered element names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.witnesses))
	for n := range r.witnesses {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
