package interop

import (
	"strconv"
	"strings"

	"github.com/dshills/chunklink/internal/graph"
	"github.com/dshills/chunklink/pkg/types"
)

// ModeTable reports how an external module's shape is treated
type ModeTable interface {
	Mode(id string) types.InteropMode
}

// Resolver decides which edges need a synthetic namespace and builds the
// wrapper descriptors. One Resolver serves exactly one build.
type Resolver struct {
	graph *graph.Graph
	modes ModeTable

	cache   map[cacheKey]*types.InteropWrapper
	byChunk map[string][]*types.InteropWrapper
	names   map[string]map[string]bool // chunk -> helper names in use
	built   int
}

type cacheKey struct {
	target string
	chunk  string
}

// NewResolver creates a resolver for one build. A nil mode table treats
// every external module as compat.
func NewResolver(g *graph.Graph, modes ModeTable) *Resolver {
	return &Resolver{
		graph:   g,
		modes:   modes,
		cache:   make(map[cacheKey]*types.InteropWrapper),
		byChunk: make(map[string][]*types.InteropWrapper),
		names:   make(map[string]map[string]bool),
	}
}

// Mode returns the interop mode of an external id
func (r *Resolver) Mode(id string) types.InteropMode {
	if r.modes == nil {
		return types.InteropCompat
	}
	return r.modes.Mode(id)
}

// NeedsWrapper reports whether consuming imported through edge requires a
// namespace object. Only full-namespace imports and "export * from" of a
// foreign or shape-unknown target do; default and named reads never do.
func (r *Resolver) NeedsWrapper(edge types.Edge, imported string) bool {
	if imported != types.NamespaceImport {
		return false
	}
	if !edge.IsInternal() {
		return r.Mode(edge.To) != types.InteropESModule
	}
	mod, ok := r.graph.Module(edge.To)
	return ok && mod.Format == types.FormatForeign
}

// Resolve returns the wrapper for consuming the target of edge from chunk,
// or nil when the binding is a direct reference. Wrappers are built once
// per (target, chunk) pair; later calls return the same descriptor.
func (r *Resolver) Resolve(edge types.Edge, chunk string, imported string) *types.InteropWrapper {
	if !r.NeedsWrapper(edge, imported) {
		return nil
	}

	key := cacheKey{target: edge.To, chunk: chunk}
	if w, ok := r.cache[key]; ok {
		return w
	}

	w := &types.InteropWrapper{
		Name:     r.helperName(chunk, edge.To),
		Target:   edge.To,
		Chunk:    chunk,
		External: !edge.IsInternal(),
	}

	if w.External {
		w.DefaultOnly = r.Mode(edge.To) == types.InteropDefaultOnly
	} else {
		mod, _ := r.graph.Module(edge.To)
		w.Passthrough = mod.NativeMarker
		w.NamedKeys = namedKeys(mod)
	}

	r.cache[key] = w
	r.byChunk[chunk] = append(r.byChunk[chunk], w)
	r.built++
	return w
}

// Wrappers returns the wrappers of a chunk in creation order
func (r *Resolver) Wrappers(chunk string) []*types.InteropWrapper {
	return r.byChunk[chunk]
}

// Built returns the number of wrapper descriptors constructed so far
func (r *Resolver) Built() int {
	return r.built
}

// namedKeys snapshots the included export names of a foreign module,
// excluding default
func namedKeys(mod *types.Module) []string {
	keys := []string{}
	for _, name := range mod.IncludedExports() {
		if name != types.DefaultImport {
			keys = append(keys, name)
		}
	}
	return keys
}

// helperName derives a chunk-unique identifier for a wrapper
func (r *Resolver) helperName(chunk, target string) string {
	used := r.names[chunk]
	if used == nil {
		used = make(map[string]bool)
		r.names[chunk] = used
	}

	base := Identifier(target) + "NS"
	name := base
	for i := 1; used[name]; i++ {
		name = base + "$" + strconv.Itoa(i)
	}
	used[name] = true
	return name
}

// Identifier turns a module or external id into a valid identifier built
// from its base name
func Identifier(id string) string {
	if i := strings.LastIndexAny(id, "/\\"); i >= 0 && i < len(id)-1 {
		id = id[i+1:]
	}
	if i := strings.Index(id, "."); i > 0 {
		id = id[:i]
	}

	var b strings.Builder
	upper := false
	for _, r := range id {
		switch {
		case r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			if upper && r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
			b.WriteRune(r)
			upper = false
		default:
			upper = b.Len() > 0
		}
	}

	out := b.String()
	if out == "" {
		return "_"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}
