package graph

import (
	"github.com/dshills/chunklink/pkg/types"
)

// Origin is the producer of an exported name after following re-exports
type Origin struct {
	Module    string // producing internal module; empty for external origins
	Name      string // export name inside the producer
	External  string // external id when the chain leaves the graph
	Namespace bool   // the name is the full namespace of Module or External
	Included  bool   // the producing export survived tree-shaking
	Found     bool
}

// Trace follows re-export chains from (id, name) to the producing module.
// Explicit re-exports win over local declarations, which win over
// "export * from" statements searched in declaration order. "default" is
// never re-exported by "export *".
func (g *Graph) Trace(edges *Edges, id, name string) Origin {
	return g.trace(edges, id, name, make(map[string]bool))
}

func (g *Graph) trace(edges *Edges, id, name string, visiting map[string]bool) Origin {
	key := id + "\x00" + name
	if visiting[key] {
		return Origin{}
	}
	visiting[key] = true

	mod, ok := g.modules[id]
	if !ok {
		return Origin{}
	}

	// Namespace of the module itself
	if name == types.NamespaceImport {
		return Origin{Module: id, Name: name, Namespace: true, Included: true, Found: true}
	}

	// export {x as name} from "spec"
	for _, b := range mod.Bindings {
		if !b.Reexport || b.IsReexportAll() || b.Local != name {
			continue
		}
		return g.follow(edges, id, b.Specifier, b.Imported, visiting)
	}

	// Local declaration
	if exp, ok := mod.Export(name); ok {
		return Origin{Module: id, Name: name, Included: exp.Included, Found: true}
	}

	if name == types.DefaultImport {
		return Origin{}
	}

	// export * from "spec", internal targets first
	var external Origin
	for _, b := range mod.Bindings {
		if !b.IsReexportAll() {
			continue
		}
		edge, ok := edges.Lookup(id, b.Specifier)
		if !ok {
			continue
		}
		if !edge.IsInternal() {
			if !external.Found {
				external = Origin{External: edge.To, Name: name, Included: true, Found: true}
			}
			continue
		}
		if origin := g.trace(edges, edge.To, name, visiting); origin.Found {
			return origin
		}
	}

	return external
}

// follow resolves an imported name through one specifier of a module
func (g *Graph) follow(edges *Edges, from, specifier, imported string, visiting map[string]bool) Origin {
	edge, ok := edges.Lookup(from, specifier)
	if !ok {
		return Origin{}
	}
	if !edge.IsInternal() {
		return Origin{
			External:  edge.To,
			Name:      imported,
			Namespace: imported == types.NamespaceImport,
			Included:  true,
			Found:     true,
		}
	}
	return g.trace(edges, edge.To, imported, visiting)
}

// TraceBinding resolves an import binding of a module to its origin
func (g *Graph) TraceBinding(edges *Edges, from string, b types.ImportBinding) Origin {
	return g.follow(edges, from, b.Specifier, b.Imported, make(map[string]bool))
}
