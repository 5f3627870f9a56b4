// Package registry keeps a concurrency-safe name -> allocator directory,
// letting a process host several independent slab/pool instances (one
// per object kind, say) without every caller threading its own pointer
// around. Built on modern-go/concurrent's Map, the same map json-iterator
// uses to cache per-type encoders: written rarely, read from many
// goroutines.
package registry

import (
	"errors"
	"fmt"

	"github.com/modern-go/concurrent"
)

// Allocator is the subset of the slab/pool contract the registry needs:
// enough to reset or tear an entry down without knowing which concrete
// allocator it is.
type Allocator interface {
	Reset()
	Destroy() error
}

var ErrAlreadyRegistered = errors.New("registry: name already registered")
var ErrNotFound = errors.New("registry: name not found")

// Registry is safe for concurrent use.
type Registry struct {
	m *concurrent.Map
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{m: concurrent.NewMap()}
}

// Register adds a, keyed by name. It fails if name is already taken.
func (r *Registry) Register(name string, a Allocator) error {
	if _, loaded := r.m.LoadOrStore(name, a); loaded {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	return nil
}

// Get returns the allocator registered under name, if any.
func (r *Registry) Get(name string) (Allocator, bool) {
	v, ok := r.m.Load(name)
	if !ok {
		return nil, false
	}
	return v.(Allocator), true
}

// Unregister removes name from the registry without destroying it.
func (r *Registry) Unregister(name string) {
	r.m.Delete(name)
}

// CloseAll calls Destroy on every registered allocator and empties the
// registry, returning the first error encountered (if any) after every
// entry has been attempted.
func (r *Registry) CloseAll() error {
	var firstErr error
	r.m.Range(func(key, value interface{}) bool {
		a := value.(Allocator)
		if err := a.Destroy(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("registry: destroying %v: %w", key, err)
		}
		r.m.Delete(key)
		return true
	})
	return firstErr
}
