package linker

import (
	"github.com/dshills/chunklink/internal/graph"
	"github.com/dshills/chunklink/internal/interop"
	"github.com/dshills/chunklink/internal/options"
	"github.com/dshills/chunklink/pkg/types"
)

// Policy holds the linking inputs taken from normalized options
type Policy struct {
	PreserveEntrySignatures options.EntrySignatures
	InlineDynamicImports    bool
}

// Linker resolves every surviving import and export of an allocated chunk
// set into bindings the renderer can emit
type Linker struct {
	graph    *graph.Graph
	edges    *graph.Edges
	set      *types.ChunkSet
	resolver *interop.Resolver
	policy   Policy

	exports map[string]*exportTable
	imports map[string]*importTable
	pending []pendingRef
}

// pendingRef is a cross-chunk binding whose producer alias is not known
// until every chunk's signature is registered
type pendingRef struct {
	chunk    *types.Chunk
	index    int
	producer string
	sym      symbol
}

// New creates a Linker for one build
func New(g *graph.Graph, edges *graph.Edges, set *types.ChunkSet, resolver *interop.Resolver, policy Policy) *Linker {
	if policy.PreserveEntrySignatures == "" {
		policy.PreserveEntrySignatures = options.SignaturesExportsOnly
	}
	return &Linker{
		graph:    g,
		edges:    edges,
		set:      set,
		resolver: resolver,
		policy:   policy,
		exports:  make(map[string]*exportTable, len(set.Chunks)),
		imports:  make(map[string]*importTable, len(set.Chunks)),
	}
}

// Link fills the binding, import, export and dynamic import tables of every
// chunk. A binding whose producer did not survive allocation is an internal
// error; the chunk set must then be discarded.
func (l *Linker) Link() error {
	for _, c := range l.set.Chunks {
		l.exports[c.Name] = newExportTable()
		l.imports[c.Name] = newImportTable()
	}

	// Entry signatures claim their exact names before any alias is chosen
	signatures := make(map[string][]graph.Origin)
	for _, c := range l.set.Chunks {
		items, err := l.registerSignature(c)
		if err != nil {
			return err
		}
		signatures[c.Name] = items
	}
	for _, c := range l.set.Chunks {
		for _, origin := range signatures[c.Name] {
			l.expose(c, origin)
		}
	}

	for _, c := range l.set.Chunks {
		for _, id := range c.Modules {
			if err := l.linkModule(c, id); err != nil {
				return err
			}
		}
	}

	for _, p := range l.pending {
		p.chunk.Bindings[p.index].Symbol = l.require(p.chunk, p.producer, p.sym)
	}

	for _, c := range l.set.Chunks {
		if err := l.linkDynamicImports(c); err != nil {
			return err
		}
	}

	for _, c := range l.set.Chunks {
		c.Exports = l.exports[c.Name].list
		c.Imports = l.imports[c.Name].list
		c.Wrappers = l.resolver.Wrappers(c.Name)
	}
	return nil
}

// registerSignature exports the entry module's included exports from the
// chunk carrying its signature
func (l *Linker) registerSignature(c *types.Chunk) ([]graph.Origin, error) {
	if len(c.Entries) == 0 || !l.exportsSignature(c) {
		return nil, nil
	}

	entry := c.Entries[0]
	mod, _ := l.graph.Module(entry)
	var items []graph.Origin
	for _, name := range mod.IncludedExports() {
		origin := l.graph.Trace(l.edges, entry, name)
		if err := l.checkProducer(entry, name, origin); err != nil {
			return nil, err
		}
		l.exports[c.Name].add(name, symbolOf(origin))
		items = append(items, origin)
	}
	return items, nil
}

// exportsSignature reports whether a chunk exports its entry's signature.
// Facades always do; with signatures disabled an entry chunk exports only
// what other chunks need.
func (l *Linker) exportsSignature(c *types.Chunk) bool {
	return c.Kind == types.ChunkFacade || l.policy.PreserveEntrySignatures != options.SignaturesFalse
}

// expose makes a chunk able to provide origin, importing it when it is
// produced in another chunk
func (l *Linker) expose(c *types.Chunk, origin graph.Origin) {
	if origin.Module == "" {
		return
	}
	producer := l.set.ModuleTo[origin.Module]
	if producer != c.Name {
		l.require(c, producer, symbolOf(origin))
	}
}

// require imports sym from producer into consumer and returns the alias the
// producer exports it under
func (l *Linker) require(consumer *types.Chunk, producer string, sym symbol) string {
	alias := l.exports[producer].alias(sym)
	l.imports[consumer.Name].add(producer, alias)
	return alias
}

// checkProducer rejects a reference to a producer that did not survive
func (l *Linker) checkProducer(from, name string, origin graph.Origin) error {
	if !origin.Found {
		return types.InternalError(types.CodeDanglingBinding,
			"%q references %q which no module produces", from, name)
	}
	if origin.Module == "" {
		return nil
	}
	if !origin.Included {
		return types.InternalError(types.CodeDanglingBinding,
			"%q references %q of %q, which was removed by tree-shaking", from, origin.Name, origin.Module)
	}
	if _, ok := l.set.ModuleTo[origin.Module]; !ok {
		return types.InternalError(types.CodeDanglingBinding,
			"%q references %q of %q, which was not allocated to any chunk", from, origin.Name, origin.Module)
	}
	return nil
}

// linkModule resolves the import and re-export bindings of one module
func (l *Linker) linkModule(c *types.Chunk, id string) error {
	mod, _ := l.graph.Module(id)

	for _, b := range mod.Bindings {
		edge, ok := l.edges.Lookup(id, b.Specifier)
		if !ok {
			return types.InternalError(types.CodeDanglingBinding,
				"%q has a binding for %q but no edge", id, b.Specifier)
		}

		binding := types.Binding{
			Module:   id,
			Local:    b.Local,
			Imported: b.Imported,
			Reexport: b.Reexport,
		}

		if b.IsReexportAll() {
			if !l.resolveReexportAll(c, edge, &binding) {
				continue
			}
			if binding.ProducerModule == "" {
				l.addBinding(c, binding, "", symbol{})
				continue
			}
			if binding.ProducerChunk == "" {
				return types.InternalError(types.CodeDanglingBinding,
					"%q re-exports %q, which was not allocated to any chunk", id, edge.To)
			}
			l.addBinding(c, binding, binding.ProducerChunk, symbol{module: edge.To, name: types.NamespaceImport})
			continue
		}

		origin := l.graph.TraceBinding(l.edges, id, b)
		if err := l.checkProducer(id, b.Imported, origin); err != nil {
			return err
		}

		if origin.Module == "" {
			l.resolveExternal(c, origin.External, origin.Name, &binding)
			l.addBinding(c, binding, "", symbol{})
			continue
		}

		binding.ProducerModule = origin.Module
		binding.ProducerChunk = l.set.ModuleTo[origin.Module]
		binding.Symbol = origin.Name

		if origin.Namespace {
			target := types.Edge{From: id, To: origin.Module, Kind: types.EdgeStatic, Locality: types.LocalityInternal}
			binding.Wrapper = l.resolver.Resolve(target, c.Name, types.NamespaceImport)
		}

		switch {
		case binding.Wrapper != nil:
			binding.Kind = types.BindingInterop
		case binding.ProducerChunk == c.Name:
			binding.Kind = types.BindingLocal
		default:
			binding.Kind = types.BindingChunk
		}

		if binding.ProducerChunk != c.Name {
			l.addBinding(c, binding, binding.ProducerChunk, symbolOf(origin))
		} else {
			l.addBinding(c, binding, "", symbol{})
		}
	}
	return nil
}

// resolveReexportAll handles "export * from". It reports false when the
// statement needs no binding because its names are traced through it.
func (l *Linker) resolveReexportAll(c *types.Chunk, edge types.Edge, binding *types.Binding) bool {
	if !edge.IsInternal() {
		l.resolveExternal(c, edge.To, types.NamespaceImport, binding)
		return true
	}

	w := l.resolver.Resolve(edge, c.Name, types.NamespaceImport)
	if w == nil {
		return false
	}
	binding.Kind = types.BindingInterop
	binding.Wrapper = w
	binding.ProducerModule = edge.To
	binding.ProducerChunk = l.set.ModuleTo[edge.To]
	binding.Symbol = types.NamespaceImport
	return true
}

func (l *Linker) resolveExternal(c *types.Chunk, external, name string, binding *types.Binding) {
	edge := types.Edge{To: external, Specifier: external, Kind: types.EdgeStatic, Locality: types.LocalityExternal}
	binding.External = external
	binding.Symbol = name
	binding.Kind = types.BindingExternal
	if w := l.resolver.Resolve(edge, c.Name, name); w != nil {
		binding.Kind = types.BindingInterop
		binding.Wrapper = w
	}
}

// addBinding appends a binding; a non-empty producer defers its symbol to
// the producer's export alias
func (l *Linker) addBinding(c *types.Chunk, b types.Binding, producer string, sym symbol) {
	c.Bindings = append(c.Bindings, b)
	if producer != "" && producer != c.Name {
		l.pending = append(l.pending, pendingRef{chunk: c, index: len(c.Bindings) - 1, producer: producer, sym: sym})
	}
}

// linkDynamicImports resolves dynamic import expressions to chunks, inline
// namespaces or external ids, and exports the target namespace from its chunk.
// A foreign or shape-unknown target gets a namespace wrapper in the importer.
func (l *Linker) linkDynamicImports(c *types.Chunk) error {
	for _, id := range c.Modules {
		for _, e := range l.edges.From(id) {
			if e.IsStatic() {
				continue
			}

			di := types.DynamicImport{
				Module:    id,
				Specifier: e.Specifier,
				Wrapper:   l.resolver.Resolve(e, c.Name, types.NamespaceImport),
			}
			if !e.IsInternal() {
				di.External = e.To
				c.DynamicImports = append(c.DynamicImports, di)
				continue
			}

			target, ok := l.set.ModuleTo[e.To]
			if !ok {
				return types.InternalError(types.CodeDanglingBinding,
					"%q dynamically imports %q, which was not allocated to any chunk", id, e.To)
			}

			if l.policy.InlineDynamicImports || target == c.Name {
				di.Inline = true
			} else {
				di.Chunk = target
				if err := l.exportNamespace(target, e.To); err != nil {
					return err
				}
			}
			c.DynamicImports = append(c.DynamicImports, di)
		}
	}
	return nil
}

// exportNamespace makes every included export of a dynamic import target
// available from the chunk holding it
func (l *Linker) exportNamespace(chunk, id string) error {
	c := l.set.Chunk(chunk)
	mod, _ := l.graph.Module(id)
	for _, name := range mod.IncludedExports() {
		origin := l.graph.Trace(l.edges, id, name)
		if err := l.checkProducer(id, name, origin); err != nil {
			return err
		}
		if origin.Module == "" {
			continue
		}
		l.expose(c, origin)
		l.exports[chunk].alias(symbolOf(origin))
	}
	return nil
}
