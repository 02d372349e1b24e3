package landscape

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zooba/esec/internal/op"
)

var ErrEvaluatorNotFound = errors.New("evaluator not found")

// Registry maps landscape names to evaluators. Populated by the host at
// start-up; the core only consumes the finished registry.
type Registry struct {
	mu sync.RWMutex
	m  map[string]op.Evaluator
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[string]op.Evaluator)}
}

func (r *Registry) Register(ev op.Evaluator) error {
	if ev == nil || ev.Name() == "" {
		return errors.New("evaluator with a name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.m[ev.Name()]; exists {
		return fmt.Errorf("evaluator already registered: %s", ev.Name())
	}
	r.m[ev.Name()] = ev
	return nil
}

func (r *Registry) Resolve(name string) (op.Evaluator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, ok := r.m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEvaluatorNotFound, name)
	}
	return ev, nil
}

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

// RegisterAll registers the built-in landscapes.
func RegisterAll(r *Registry) error {
	evaluators := []op.Evaluator{
		OneMax{},
		Sphere{},
		Rosenbrock{},
		NewGERegression(),
	}
	for _, ev := range evaluators {
		if err := r.Register(ev); err != nil {
			return err
		}
	}
	return nil
}
