package bundler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/chunklink/internal/chunker"
	"github.com/dshills/chunklink/internal/diagnostics"
	"github.com/dshills/chunklink/internal/graph"
	"github.com/dshills/chunklink/internal/interop"
	"github.com/dshills/chunklink/internal/linker"
	"github.com/dshills/chunklink/internal/loader"
	"github.com/dshills/chunklink/internal/options"
	"github.com/dshills/chunklink/pkg/types"
)

// ErrNoGraph is returned when a build request names no graph directory
var ErrNoGraph = errors.New("graph directory is required")

// Request describes one build
type Request struct {
	GraphDir string
	Input    options.Input
}

// Result is the outcome of a successful build. A failed build returns no
// Result at all.
type Result struct {
	BuildID     string
	GraphDir    string
	StartedAt   time.Time
	Duration    time.Duration
	Options     *options.Options
	Modules     int
	Chunks      *types.ChunkSet
	Diagnostics []diagnostics.Entry
	Stats       *loader.Statistics
}

// Warnings returns the delivered warn-level diagnostics
func (r *Result) Warnings() []diagnostics.Entry {
	var out []diagnostics.Entry
	for _, d := range r.Diagnostics {
		if d.Level == types.LevelWarn {
			out = append(out, d)
		}
	}
	return out
}

// Bundler runs the build pipeline: normalize, load, classify, allocate, link
type Bundler struct {
	logger *zap.Logger
	loader *loader.Loader
}

// New creates a new Bundler
func New(logger *zap.Logger) *Bundler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bundler{
		logger: logger,
		loader: loader.New(logger),
	}
}

// Build runs one build. Every piece of state (graph, chunk set, wrapper
// cache) belongs to this call and is dropped on return. Any fatal error
// aborts the build before a partial result is produced.
func (b *Bundler) Build(ctx context.Context, req Request) (*Result, error) {
	if req.GraphDir == "" {
		return nil, ErrNoGraph
	}

	start := time.Now()
	buildID := uuid.NewString()
	log := b.logger.With(zap.String("build_id", buildID))

	recorder := diagnostics.NewRecorder(req.Input.Renderer)
	in := req.Input
	in.Renderer = recorder

	opts, err := options.Normalize(in)
	if err != nil {
		return nil, err
	}

	modules, stats, err := b.loader.Load(ctx, req.GraphDir, &loader.Config{
		MaxParallelFileOps: opts.MaxParallelFileOps,
		ModuleSideEffects:  opts.ModuleSideEffects,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load module graph: %w", err)
	}
	log.Debug("module graph loaded",
		zap.Int("files", stats.FilesParsed),
		zap.Int("peak_parallel", stats.PeakParallel),
		zap.Duration("duration", stats.Duration))

	g, err := graph.New(modules)
	if err != nil {
		return nil, err
	}

	edges, err := graph.NewClassifier(g, opts.External, opts.Dispatcher).ClassifyAll()
	if err != nil {
		return nil, err
	}

	set, err := chunker.New(g, edges, chunker.Policy{
		Entries:                 opts.Entries,
		Manual:                  opts.ManualChunks,
		InlineDynamicImports:    opts.InlineDynamicImports,
		PreserveModules:         opts.PreserveModules,
		PreserveEntrySignatures: opts.PreserveEntrySignatures,
		ModuleSideEffects:       opts.ModuleSideEffects,
	}, opts.Dispatcher).Allocate()
	if err != nil {
		return nil, err
	}

	resolver := interop.NewResolver(g, opts.Interop)
	err = linker.New(g, edges, set, resolver, linker.Policy{
		PreserveEntrySignatures: opts.PreserveEntrySignatures,
		InlineDynamicImports:    opts.InlineDynamicImports,
	}).Link()
	if err != nil {
		if types.IsInternal(err) {
			log.Error("internal consistency error", zap.Error(err))
		}
		return nil, err
	}

	result := &Result{
		BuildID:     buildID,
		GraphDir:    req.GraphDir,
		StartedAt:   start,
		Duration:    time.Since(start),
		Options:     opts,
		Modules:     len(set.ModuleTo),
		Chunks:      set,
		Diagnostics: recorder.Entries(),
		Stats:       stats,
	}

	log.Debug("build complete",
		zap.Int("chunks", len(set.Chunks)),
		zap.Int("modules", result.Modules),
		zap.Int("wrappers", resolver.Built()),
		zap.Duration("duration", result.Duration))

	return result, nil
}
