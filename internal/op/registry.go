package op

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrOperatorExists   = errors.New("operator already registered")
	ErrOperatorNotFound = errors.New("operator not found")
)

// Registry maps operator names to capability descriptors. The core never
// performs discovery or dynamic loading; the host populates a registry at
// start-up with discrete Register calls and the binder only consumes the
// finished set.
type Registry struct {
	mu sync.RWMutex
	m  map[string]Descriptor
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Descriptor)}
}

// Register adds one operator. Names are case-sensitive and must be unique.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return errors.New("operator name is required")
	}
	if d.Apply == nil {
		return errors.New("operator function is required")
	}
	switch d.Kind {
	case KindGenerator, KindSelector, KindVariator, KindFilter:
	default:
		return fmt.Errorf("operator %s: unknown kind %q", d.Name, d.Kind)
	}
	for _, p := range d.Params {
		if p.Name == "" {
			return fmt.Errorf("operator %s: parameter name is required", d.Name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.m[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrOperatorExists, d.Name)
	}
	r.m[d.Name] = d
	return nil
}

// Resolve returns the descriptor for name.
func (r *Registry) Resolve(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.m[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrOperatorNotFound, name)
	}
	return d, nil
}

// Names lists registered operators in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
