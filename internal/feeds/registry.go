package feeds

import (
	"fmt"
	"sort"
)

// Registry holds the configured connectors for a deployment.
// Connectors are listed in name order so collection is deterministic.
type Registry struct {
	connectors map[string]Connector
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{connectors: make(map[string]Connector)}
}

// Register adds a connector. Duplicate names are rejected.
func (r *Registry) Register(c Connector) error {
	if _, ok := r.connectors[c.Name()]; ok {
		return fmt.Errorf("connector %q already registered", c.Name())
	}
	r.connectors[c.Name()] = c
	return nil
}

// List returns all connectors sorted by name
func (r *Registry) List() []Connector {
	names := make([]string, 0, len(r.connectors))
	for name := range r.connectors {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Connector, 0, len(names))
	for _, name := range names {
		out = append(out, r.connectors[name])
	}
	return out
}

// Len returns the number of registered connectors
func (r *Registry) Len() int {
	return len(r.connectors)
}
