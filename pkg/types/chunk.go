package types

import (
	"errors"
	"fmt"
)

// ChunkKind records why a chunk exists
type ChunkKind string

const (
	ChunkEntry   ChunkKind = "entry"
	ChunkDynamic ChunkKind = "dynamic"
	ChunkShared  ChunkKind = "shared"
	ChunkManual  ChunkKind = "manual"
	ChunkFacade  ChunkKind = "facade"
	ChunkModule  ChunkKind = "module" // one chunk per module under preserveModules
)

// Chunk is one physical output unit.
//
// The allocator fills Name, Kind, Entries, Modules and FacadeOf; the linker
// fills the remaining tables. A chunk is frozen once linking completes.
type Chunk struct {
	// Identification
	Name string
	Kind ChunkKind

	// Allocation
	Entries  []string // entry modules whose signature this chunk carries
	Modules  []string // execution order
	FacadeOf string   // implementation chunk of a facade

	// Linking
	Dependencies   []string // chunks that must execute first
	Imports        []ChunkImport
	Exports        []ChunkExport
	DynamicImports []DynamicImport
	Bindings       []Binding
	Wrappers       []*InteropWrapper
}

// ChunkImport lists the symbols a chunk pulls from another chunk
type ChunkImport struct {
	Chunk   string
	Symbols []string
}

// ChunkExport is one externally visible export of a chunk
type ChunkExport struct {
	Name   string // exported alias
	Module string // producing module
	Symbol string // export name inside the producing module
}

// DynamicImport is a resolved dynamic import expression
type DynamicImport struct {
	Module    string
	Specifier string
	Chunk     string // target chunk; empty when inlined or external
	External  string
	Inline    bool

	// Wrapper is set when the loaded namespace is foreign or of unknown
	// shape and must be wrapped in the importing chunk
	Wrapper *InteropWrapper
}

// Contains returns true if the module is allocated to this chunk
func (c *Chunk) Contains(moduleID string) bool {
	for _, id := range c.Modules {
		if id == moduleID {
			return true
		}
	}
	return false
}

// IsEntry returns true if the chunk carries at least one entry signature
func (c *Chunk) IsEntry() bool {
	return len(c.Entries) > 0
}

// ValidateKind checks if the chunk kind is valid
func (c *Chunk) ValidateKind() error {
	switch c.Kind {
	case ChunkEntry, ChunkDynamic, ChunkShared, ChunkManual, ChunkFacade, ChunkModule:
		return nil
	default:
		return errors.New("invalid chunk kind")
	}
}

// Validate performs comprehensive validation of the chunk
func (c *Chunk) Validate() error {
	if c.Name == "" {
		return errors.New("chunk name is required")
	}

	if err := c.ValidateKind(); err != nil {
		return err
	}

	// Facades carry no code of their own
	if c.Kind == ChunkFacade {
		if len(c.Modules) > 0 {
			return errors.New("facade chunk cannot contain modules")
		}
		if c.FacadeOf == "" {
			return errors.New("facade chunk must name its implementation chunk")
		}
		return nil
	}

	if len(c.Modules) == 0 {
		return fmt.Errorf("chunk %q has no modules", c.Name)
	}

	seen := make(map[string]bool, len(c.Modules))
	for _, id := range c.Modules {
		if seen[id] {
			return fmt.Errorf("module %q listed twice in chunk %q", id, c.Name)
		}
		seen[id] = true
	}

	return nil
}

// ChunkSet is the allocator's result: chunks in dependency order plus the
// module to chunk mapping.
type ChunkSet struct {
	Chunks   []*Chunk
	ModuleTo map[string]string // module id -> chunk name
}

// Chunk returns the chunk with the given name
func (s *ChunkSet) Chunk(name string) *Chunk {
	for _, c := range s.Chunks {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChunkOf returns the chunk holding a module
func (s *ChunkSet) ChunkOf(moduleID string) *Chunk {
	name, ok := s.ModuleTo[moduleID]
	if !ok {
		return nil
	}
	return s.Chunk(name)
}
