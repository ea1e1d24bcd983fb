package graph

import (
	"fmt"

	"github.com/dshills/chunklink/pkg/types"
)

// Graph is the module graph of one build. It is immutable after New.
type Graph struct {
	modules map[string]*types.Module
	order   []string
}

// New freezes modules into a graph. Every module is validated; duplicate
// ids are a configuration error.
func New(modules []*types.Module) (*Graph, error) {
	g := &Graph{
		modules: make(map[string]*types.Module, len(modules)),
		order:   make([]string, 0, len(modules)),
	}

	for _, mod := range modules {
		if mod == nil {
			continue
		}
		if err := mod.Validate(); err != nil {
			return nil, fmt.Errorf("invalid module %q: %w", mod.ID, err)
		}
		if _, dup := g.modules[mod.ID]; dup {
			return nil, types.ConfigError(types.CodeDuplicateModule, "module %q is declared more than once", mod.ID)
		}
		g.modules[mod.ID] = mod
		g.order = append(g.order, mod.ID)
	}

	return g, nil
}

// Module returns the module with the given id
func (g *Graph) Module(id string) (*types.Module, bool) {
	mod, ok := g.modules[id]
	return mod, ok
}

// Has reports whether id names an internal module
func (g *Graph) Has(id string) bool {
	_, ok := g.modules[id]
	return ok
}

// IDs returns module ids in load order
func (g *Graph) IDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of modules
func (g *Graph) Len() int {
	return len(g.order)
}
