package storage

import (
	"context"
	"time"

	"github.com/dshills/chunklink/internal/bundler"
	"github.com/dshills/chunklink/pkg/types"
)

// Storage defines the interface for persisting and querying build manifests
type Storage interface {
	// Build operations
	SaveBuild(ctx context.Context, build *Build) error
	GetBuild(ctx context.Context, buildID string) (*Build, error)
	ListBuilds(ctx context.Context, limit int) ([]*BuildSummary, error)
	DeleteBuild(ctx context.Context, buildID string) error

	// Database operations
	Close() error
}

// Build is the stored record of one successful build
type Build struct {
	ID          string
	GraphDir    string
	ModuleCount int
	Duration    time.Duration
	CreatedAt   time.Time
	Chunks      []*Chunk
	Diagnostics []*Diagnostic
}

// BuildSummary is a build without its chunk plan
type BuildSummary struct {
	ID           string
	GraphDir     string
	ModuleCount  int
	ChunkCount   int
	WarningCount int
	Duration     time.Duration
	CreatedAt    time.Time
}

// Chunk is one stored chunk of a build, in emission order
type Chunk struct {
	ID           int64
	BuildID      string
	Position     int
	Name         string
	Kind         string
	FacadeOf     string
	Entries      []string
	Dependencies []string
	Modules      []string
	Bindings     []*Binding
}

// Binding is one stored resolved binding
type Binding struct {
	Module        string
	Local         string
	Imported      string
	Kind          string
	ProducerChunk string
	Symbol        string
	External      string
	Wrapper       string // wrapper helper name for interop bindings
}

// Diagnostic is one delivered log event of a build
type Diagnostic struct {
	Level   string
	Code    string
	Message string
}

// FromResult converts a build result into its stored form
func FromResult(res *bundler.Result) *Build {
	build := &Build{
		ID:          res.BuildID,
		GraphDir:    res.GraphDir,
		ModuleCount: res.Modules,
		Duration:    res.Duration,
		CreatedAt:   res.StartedAt,
	}

	for i, c := range res.Chunks.Chunks {
		build.Chunks = append(build.Chunks, FromTypesChunk(c, i))
	}
	for _, d := range res.Diagnostics {
		build.Diagnostics = append(build.Diagnostics, &Diagnostic{
			Level:   string(d.Level),
			Code:    d.Code,
			Message: d.Message,
		})
	}
	return build
}

// FromTypesChunk converts a linked chunk to its stored form
func FromTypesChunk(c *types.Chunk, position int) *Chunk {
	chunk := &Chunk{
		Position:     position,
		Name:         c.Name,
		Kind:         string(c.Kind),
		FacadeOf:     c.FacadeOf,
		Entries:      c.Entries,
		Dependencies: c.Dependencies,
		Modules:      c.Modules,
	}
	for _, b := range c.Bindings {
		sb := &Binding{
			Module:        b.Module,
			Local:         b.Local,
			Imported:      b.Imported,
			Kind:          string(b.Kind),
			ProducerChunk: b.ProducerChunk,
			Symbol:        b.Symbol,
			External:      b.External,
		}
		if b.Wrapper != nil {
			sb.Wrapper = b.Wrapper.Name
		}
		chunk.Bindings = append(chunk.Bindings, sb)
	}
	return chunk
}
