package chunker

import (
	"github.com/dshills/chunklink/internal/options"
	"github.com/dshills/chunklink/pkg/types"
)

// symbol is a (module, export name) pair
type symbol struct {
	module string
	name   string
}

// addFacades splits entry signatures off chunks that cannot expose exactly
// their entry's exports. A facade holds no modules and re-exports the
// signature from its implementation chunk.
func (c *Chunker) addFacades(specs []*chunkSpec) ([]*chunkSpec, error) {
	chunkOf := make(map[string]*chunkSpec)
	for _, s := range specs {
		for _, m := range s.modules {
			chunkOf[m] = s
		}
	}

	out := make([]*chunkSpec, 0, len(specs))
	for _, s := range specs {
		out = append(out, s)
		if len(s.entries) == 0 {
			continue
		}

		primary := s.entries[0]
		var facades []*chunkSpec

		// Every further entry in the same chunk gets its own signature
		for _, e := range s.entries[1:] {
			facades = append(facades, &chunkSpec{
				kind:      types.ChunkFacade,
				candidate: e.Name,
				entries:   []options.Entry{e},
				facadeOf:  s,
			})
		}

		if c.signatureMatters(primary.ID) && c.exposesMore(s, primary.ID, chunkOf) {
			facades = append([]*chunkSpec{{
				kind:      types.ChunkFacade,
				candidate: primary.Name,
				entries:   []options.Entry{primary},
				facadeOf:  s,
			}}, facades...)
			s.entries = nil
			if s.kind == types.ChunkEntry {
				s.kind = types.ChunkShared
			}
		} else {
			s.entries = s.entries[:1]
		}

		out = append(out, facades...)
	}

	return out, nil
}

// signatureMatters reports whether an entry chunk must not expose anything
// beyond the entry module's own exports
func (c *Chunker) signatureMatters(id string) bool {
	switch c.policy.PreserveEntrySignatures {
	case options.SignaturesStrict:
		return true
	case options.SignaturesExportsOnly:
		mod, _ := c.graph.Module(id)
		return mod.HasIncludedExports()
	default:
		return false
	}
}

// exposesMore reports whether other chunks need symbols of s outside the
// signature of its entry module
func (c *Chunker) exposesMore(s *chunkSpec, entry string, chunkOf map[string]*chunkSpec) bool {
	mod, _ := c.graph.Module(entry)
	signature := make(map[symbol]bool)
	for _, name := range mod.IncludedExports() {
		origin := c.graph.Trace(c.edges, entry, name)
		if origin.Found && origin.Module != "" {
			signature[symbol{origin.Module, origin.Name}] = true
		}
	}

	for _, id := range c.order {
		if !c.included[id] || chunkOf[id] == s {
			continue
		}
		m, _ := c.graph.Module(id)

		for _, b := range m.Bindings {
			if b.IsReexportAll() {
				edge, ok := c.edges.Lookup(id, b.Specifier)
				if ok && edge.IsInternal() && edge.To != entry && chunkOf[edge.To] == s {
					return true
				}
				continue
			}
			origin := c.graph.TraceBinding(c.edges, id, b)
			if !origin.Found || origin.Module == "" || chunkOf[origin.Module] != s {
				continue
			}
			if origin.Namespace {
				if origin.Module != entry {
					return true
				}
				continue
			}
			if !signature[symbol{origin.Module, origin.Name}] {
				return true
			}
		}

		for _, e := range c.edges.Dynamic(id) {
			if e.To != entry && chunkOf[e.To] == s {
				return true
			}
		}
	}

	return false
}
