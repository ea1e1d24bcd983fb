package graph

import (
	"fmt"

	"github.com/dshills/chunklink/pkg/types"
)

// ExternalMatcher decides whether an id is external for an importer
type ExternalMatcher interface {
	IsExternal(id, importer string, resolved bool) bool
}

// Reporter receives recoverable anomalies
type Reporter interface {
	Warn(ev *types.Event) error
}

// Classifier labels import edges static or dynamic, internal or external
type Classifier struct {
	graph    *Graph
	external ExternalMatcher
	reporter Reporter
}

// NewClassifier creates a classifier. A nil matcher treats nothing as
// configured-external.
func NewClassifier(g *Graph, external ExternalMatcher, reporter Reporter) *Classifier {
	return &Classifier{
		graph:    g,
		external: external,
		reporter: reporter,
	}
}

// Classify returns the edges of one module: static edges in declaration
// order, then dynamic edges in declaration order. An unresolvable specifier
// that is not declared external is reported as a warning and classified
// external. The error is non-nil only if a host hook escalated a warning.
func (c *Classifier) Classify(mod *types.Module) ([]types.Edge, error) {
	edges := make([]types.Edge, 0, len(mod.Imports)+len(mod.DynamicImports))

	seen := make(map[string]bool, len(mod.Imports))
	for _, spec := range mod.Imports {
		if seen[spec] {
			continue
		}
		seen[spec] = true

		edge, err := c.classify(mod, spec, types.EdgeStatic)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}

	seen = make(map[string]bool, len(mod.DynamicImports))
	for _, spec := range mod.DynamicImports {
		if seen[spec] {
			continue
		}
		seen[spec] = true

		edge, err := c.classify(mod, spec, types.EdgeDynamic)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}

	return edges, nil
}

func (c *Classifier) classify(mod *types.Module, spec string, kind types.EdgeKind) (types.Edge, error) {
	edge := types.Edge{
		From:      mod.ID,
		To:        spec,
		Specifier: spec,
		Kind:      kind,
		Locality:  types.LocalityExternal,
	}

	// Configured external by the specifier as written
	if c.isExternal(spec, mod.ID, false) {
		return edge, nil
	}

	resolved, ok := mod.ResolveSpecifier(spec)
	if ok {
		edge.To = resolved
		if c.isExternal(resolved, mod.ID, true) {
			return edge, nil
		}
		if c.graph.Has(resolved) {
			edge.Locality = types.LocalityInternal
			return edge, nil
		}
	}

	// Treat as external so partial builds can proceed
	ev := types.NewEvent(types.CodeUnresolvedImport, fmt.Sprintf(
		"%q is imported by %q, but could not be resolved - treating it as an external dependency", spec, mod.ID))
	ev.ID = mod.ID
	ev.Names = []string{spec}
	if c.reporter != nil {
		if err := c.reporter.Warn(ev); err != nil {
			return types.Edge{}, err
		}
	}
	return edge, nil
}

func (c *Classifier) isExternal(id, importer string, resolved bool) bool {
	return c.external != nil && c.external.IsExternal(id, importer, resolved)
}

// ClassifyAll classifies every module in load order
func (c *Classifier) ClassifyAll() (*Edges, error) {
	idx := &Edges{
		out:    make(map[string][]types.Edge, c.graph.Len()),
		bySpec: make(map[specKey]types.Edge),
	}

	for _, id := range c.graph.order {
		edges, err := c.Classify(c.graph.modules[id])
		if err != nil {
			return nil, err
		}
		idx.out[id] = edges
		for _, e := range edges {
			key := specKey{from: id, specifier: e.Specifier}
			// A specifier both imported and dynamically imported keeps its static edge
			if _, ok := idx.bySpec[key]; !ok {
				idx.bySpec[key] = e
			}
		}
	}

	return idx, nil
}

type specKey struct {
	from      string
	specifier string
}

// Edges indexes classified edges by importer
type Edges struct {
	out    map[string][]types.Edge
	bySpec map[specKey]types.Edge
}

// From returns all edges of a module
func (e *Edges) From(id string) []types.Edge {
	return e.out[id]
}

// Static returns the static internal edges of a module in declaration order
func (e *Edges) Static(id string) []types.Edge {
	return e.filter(id, func(edge types.Edge) bool { return edge.IsStatic() && edge.IsInternal() })
}

// Dynamic returns the dynamic internal edges of a module in declaration order
func (e *Edges) Dynamic(id string) []types.Edge {
	return e.filter(id, func(edge types.Edge) bool { return !edge.IsStatic() && edge.IsInternal() })
}

// External returns the external edges of a module in declaration order
func (e *Edges) External(id string) []types.Edge {
	return e.filter(id, func(edge types.Edge) bool { return !edge.IsInternal() })
}

// Lookup finds the edge a module created for a specifier
func (e *Edges) Lookup(from, specifier string) (types.Edge, bool) {
	edge, ok := e.bySpec[specKey{from: from, specifier: specifier}]
	return edge, ok
}

// LookupDynamic finds the dynamic edge a module created for a specifier
func (e *Edges) LookupDynamic(from, specifier string) (types.Edge, bool) {
	for _, edge := range e.out[from] {
		if edge.Specifier == specifier && edge.Kind == types.EdgeDynamic {
			return edge, true
		}
	}
	return types.Edge{}, false
}

func (e *Edges) filter(id string, keep func(types.Edge) bool) []types.Edge {
	var out []types.Edge
	for _, edge := range e.out[id] {
		if keep(edge) {
			out = append(out, edge)
		}
	}
	return out
}
