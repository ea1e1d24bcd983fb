package linker

import (
	"strconv"

	"github.com/dshills/chunklink/internal/graph"
	"github.com/dshills/chunklink/internal/interop"
	"github.com/dshills/chunklink/pkg/types"
)

// symbol identifies a produced value: an export of a module, or the
// namespace ("*") of a module or external id
type symbol struct {
	module string
	name   string
}

func symbolOf(o graph.Origin) symbol {
	if o.Module != "" {
		return symbol{module: o.Module, name: o.Name}
	}
	return symbol{module: o.External, name: o.Name}
}

// preferredName is the export alias tried first for a symbol
func (s symbol) preferredName() string {
	if s.name == types.NamespaceImport || s.name == types.DefaultImport {
		return interop.Identifier(s.module)
	}
	return s.name
}

// exportTable is the export list of one chunk. Every symbol is exported
// under one name; names never collide.
type exportTable struct {
	names map[string]bool
	bySym map[symbol]string
	list  []types.ChunkExport
}

func newExportTable() *exportTable {
	return &exportTable{
		names: make(map[string]bool),
		bySym: make(map[symbol]string),
	}
}

// add exports sym under exactly name. It reports false if the name is taken.
func (t *exportTable) add(name string, sym symbol) bool {
	if t.names[name] {
		return false
	}
	t.names[name] = true
	if _, ok := t.bySym[sym]; !ok {
		t.bySym[sym] = name
	}
	t.list = append(t.list, types.ChunkExport{Name: name, Module: sym.module, Symbol: sym.name})
	return true
}

// alias returns the name sym is exported under, exporting it under a fresh
// name when needed: preferred, preferred$1, preferred$2, ...
func (t *exportTable) alias(sym symbol) string {
	if name, ok := t.bySym[sym]; ok {
		return name
	}
	base := sym.preferredName()
	name := base
	for i := 1; t.names[name]; i++ {
		name = base + "$" + strconv.Itoa(i)
	}
	t.add(name, sym)
	return name
}

// importTable collects a chunk's imports grouped by producing chunk in
// first-use order
type importTable struct {
	byChunk map[string]int
	list    []types.ChunkImport
}

func newImportTable() *importTable {
	return &importTable{byChunk: make(map[string]int)}
}

func (t *importTable) add(chunk, name string) {
	i, ok := t.byChunk[chunk]
	if !ok {
		i = len(t.list)
		t.byChunk[chunk] = i
		t.list = append(t.list, types.ChunkImport{Chunk: chunk})
	}
	for _, s := range t.list[i].Symbols {
		if s == name {
			return
		}
	}
	t.list[i].Symbols = append(t.list[i].Symbols, name)
}
