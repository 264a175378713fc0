package services

import (
	"fmt"
	"sync"

	"github.com/loomworks/corpus-cli/internal/core/domain"
)

// Registry holds named strategy implementations for one pipeline stage
// with at most one selected at a time. Registries are independent:
// selecting a chunker never affects the reader registry.
//
// Selection is guarded against concurrent configuration changes; a
// failed Select leaves the previous selection untouched.
type Registry[T any] struct {
	mu       sync.RWMutex
	kind     string
	entries  map[string]T
	selected string
	hasSel   bool
}

// NewRegistry creates an empty registry. kind names the stage for
// error messages ("reader", "chunker", "embedder").
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:    kind,
		entries: make(map[string]T),
	}
}

// Register adds a strategy under a name, replacing any previous entry
// with the same name.
func (r *Registry[T]) Register(name string, impl T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = impl
}

// Select makes the named strategy the sole active one.
// Selecting an unknown name returns domain.ErrUnknownStrategy and
// retains the previous selection unchanged.
func (r *Registry[T]) Select(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; !ok {
		return fmt.Errorf("%w: %s %q", domain.ErrUnknownStrategy, r.kind, name)
	}
	r.selected = name
	r.hasSel = true
	return nil
}

// Available returns a copy of the name to implementation mapping.
func (r *Registry[T]) Available() map[string]T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]T, len(r.entries))
	for name, impl := range r.entries {
		out[name] = impl
	}
	return out
}

// Active returns the selected strategy, or
// domain.ErrNoStrategySelected if nothing has ever been selected.
func (r *Registry[T]) Active() (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	if !r.hasSel {
		return zero, fmt.Errorf("%w: %s", domain.ErrNoStrategySelected, r.kind)
	}
	return r.entries[r.selected], nil
}

// Selected returns the name of the active strategy and whether one
// has been selected.
func (r *Registry[T]) Selected() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selected, r.hasSel
}
