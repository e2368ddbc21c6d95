package reconcile

import (
	"context"
	"fmt"
)

// Entry describes one registered synchronization scope.
type Entry struct {
	// Scope is the unique scope name used on the command line.
	Scope string

	// DisplayName is the human-readable name used in logs.
	DisplayName string

	// Adapter implements the entity-specific logic for this scope.
	Adapter Adapter

	// Load produces the source dataset for this scope.
	Load func(ctx context.Context) ([]Record, error)
}

// Registry is the explicit registration table of synchronization scopes,
// built once at startup. Iteration follows registration order.
type Registry struct {
	entries []Entry
	byScope map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byScope: make(map[string]int)}
}

// Register adds an entry. Duplicate scope names are rejected.
func (r *Registry) Register(e Entry) error {
	if e.Scope == "" {
		return fmt.Errorf("scope name is required")
	}
	if e.Adapter == nil || e.Load == nil {
		return fmt.Errorf("scope %s: adapter and loader are required", e.Scope)
	}
	if _, exists := r.byScope[e.Scope]; exists {
		return fmt.Errorf("scope %s is already registered", e.Scope)
	}
	r.byScope[e.Scope] = len(r.entries)
	r.entries = append(r.entries, e)
	return nil
}

// Get returns the entry registered under scope.
func (r *Registry) Get(scope string) (Entry, bool) {
	i, ok := r.byScope[scope]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// All returns the entries in registration order.
func (r *Registry) All() []Entry {
	return r.entries
}

// Scopes returns the registered scope names in registration order.
func (r *Registry) Scopes() []string {
	scopes := make([]string, len(r.entries))
	for i, e := range r.entries {
		scopes[i] = e.Scope
	}
	return scopes
}
