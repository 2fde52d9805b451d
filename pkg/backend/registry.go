package backend

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a Backend from backend-specific options.
type Factory func(opts Options) (Backend, error)

// Options carries backend-specific settings from configuration.
type Options struct {
	Language string // treesitter: built-in language to parse
	Start    string // peg: start rule override
}

// Registry holds named backend factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register registers a backend factory under name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create instantiates the named backend.
func (r *Registry) Create(name string, opts Options) (Backend, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown backend: %s (available: %v)", name, r.Names())
	}
	return factory(opts)
}

// Names returns the registered backend names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
