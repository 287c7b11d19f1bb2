// Package registry lets modules share services by typed key during the
// register and boot phases.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nfrund/opin/internal/config"
)

// Key names a service of type T, as "module.service".
type Key[T any] string

// Registry holds the shared services and the configuration. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	services map[string]any
	cfg      config.Provider
}

func New(cfg config.Provider) *Registry {
	return &Registry{services: make(map[string]any), cfg: cfg}
}

// Config returns the application configuration.
func (r *Registry) Config() config.Provider {
	return r.cfg
}

// Set stores value under key, replacing an earlier value.
func Set[T any](r *Registry, key Key[T], value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[string(key)] = value
}

// Get returns the service under key. A value stored under the same name with
// another type is not found.
func Get[T any](r *Registry, key Key[T]) (T, bool) {
	r.mu.RLock()
	val, ok := r.services[string(key)]
	r.mu.RUnlock()

	result, ok := val.(T)
	return result, ok
}

// MustGet is Get for services a module cannot boot without.
func MustGet[T any](r *Registry, key Key[T]) T {
	val, ok := Get(r, key)
	if !ok {
		panic(fmt.Sprintf("registry: no service for key %q", string(key)))
	}
	return val
}

// Names lists the registered keys in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.services))
	for k := range r.services {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
