package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/wayfinder/pkg/domain"
)

// Registry maps node names to their processing functions.
type Registry struct {
	mu    sync.RWMutex
	nodes map[string]domain.NodeFunc
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes: make(map[string]domain.NodeFunc),
	}
}

// Register associates a unique name with a node function.
// Names are unique within one registry: a second registration fails with domain.ErrDuplicateNodeName.
func (r *Registry) Register(name string, fn domain.NodeFunc) error {
	if name == "" || name == domain.End {
		return fmt.Errorf("invalid node name %q", name)
	}
	if fn == nil {
		return fmt.Errorf("node %s: nil function", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[name]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateNodeName, name)
	}
	r.nodes[name] = fn
	return nil
}

// Lookup returns the function registered under name, or domain.ErrUnknownNode.
func (r *Registry) Lookup(name string) (domain.NodeFunc, error) {
	r.mu.RLock()
	fn, ok := r.nodes[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownNode, name)
	}
	return fn, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.nodes[name]
	return ok
}

// Names returns the registered node names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
