// Package graph holds the frozen module graph and the edge classifier.
//
// # Edge Classification
//
// Every import specifier of a module becomes one edge:
//
//   - static/internal: resolves to a module of the graph
//   - static/external: declared external, or unresolvable
//   - dynamic/*: same resolution, from a dynamic import
//
// An unresolvable specifier that is not declared external is reported as an
// UNRESOLVED_IMPORT warning and classified external, so partial builds can
// proceed.
//
//	g, err := graph.New(modules)
//	edges, err := graph.NewClassifier(g, opts.External, opts.Dispatcher).ClassifyAll()
//	for _, e := range edges.Static("src/main.js") {
//	    fmt.Println(e.To)
//	}
//
// # Strongly-Connected Components
//
// Components runs Tarjan's algorithm over any successor function. The chunk
// allocator uses it over static internal edges to find atomic allocation
// units.
package graph
