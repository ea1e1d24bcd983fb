package bundler

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/chunklink/internal/diagnostics"
	"github.com/dshills/chunklink/internal/options"
	"github.com/dshills/chunklink/pkg/types"
)

func loadConfig(t *testing.T, path string) *options.Raw {
	t.Helper()
	raw, err := options.LoadFile(path)
	require.NoError(t, err)
	return raw
}

func TestBuild(t *testing.T) {
	b := New(nil)
	res, err := b.Build(context.Background(), Request{
		GraphDir: "testdata/app",
		Input:    options.Input{File: loadConfig(t, "testdata/chunklink.yaml")},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.BuildID)
	assert.Equal(t, 4, res.Modules)

	var names []string
	for _, c := range res.Chunks.Chunks {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"shared", "main", "admin", "lazy"}, names)

	main := res.Chunks.Chunk("main")
	require.NotNil(t, main)
	assert.Equal(t, []string{"src/main.js"}, main.Modules)
	assert.Equal(t, []string{"shared"}, main.Dependencies)
	assert.Equal(t, []types.ChunkExport{{Name: "start", Module: "src/main.js", Symbol: "start"}}, main.Exports)
	assert.Equal(t, []types.DynamicImport{{Module: "src/main.js", Specifier: "./lazy.js", Chunk: "lazy"}}, main.DynamicImports)

	require.Len(t, main.Bindings, 2)
	assert.Equal(t, types.BindingChunk, main.Bindings[0].Kind)
	assert.Equal(t, types.BindingInterop, main.Bindings[1].Kind)
	require.Len(t, main.Wrappers, 1)
	assert.Equal(t, "lodash", main.Wrappers[0].Target)

	codes := make([]string, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		codes = append(codes, d.Code)
	}
	assert.Equal(t, []string{types.CodeDeprecatedFeature, types.CodeUnresolvedImport}, codes)
	assert.Len(t, res.Warnings(), 2)
}

func TestBuild_Deterministic(t *testing.T) {
	run := func() *types.ChunkSet {
		res, err := New(nil).Build(context.Background(), Request{
			GraphDir: "testdata/app",
			Input:    options.Input{File: loadConfig(t, "testdata/chunklink.yaml")},
		})
		require.NoError(t, err)
		return res.Chunks
	}

	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("builds differ (-first +second):\n%s", diff)
	}
}

func TestBuild_ForwardsDiagnostics(t *testing.T) {
	rec := diagnostics.NewRecorder(nil)
	_, err := New(nil).Build(context.Background(), Request{
		GraphDir: "testdata/app",
		Input: options.Input{
			File:     loadConfig(t, "testdata/chunklink.yaml"),
			Renderer: rec,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Count(types.CodeUnresolvedImport))
}

func TestBuild_FatalErrors(t *testing.T) {
	strict := true
	tests := []struct {
		name string
		req  Request
		code string
	}{
		{
			name: "missing input",
			req:  Request{GraphDir: "testdata/app"},
			code: types.CodeInvalidOption,
		},
		{
			name: "missing manual module",
			req: Request{
				GraphDir: "testdata/app",
				Input:    options.Input{File: loadConfig(t, "testdata/manual.yaml")},
			},
			code: types.CodeMissingManualModule,
		},
		{
			name: "strict deprecations",
			req: Request{
				GraphDir: "testdata/app",
				Input: options.Input{
					File:  loadConfig(t, "testdata/chunklink.yaml"),
					Flags: options.Overrides{StrictDeprecations: &strict},
				},
			},
			code: types.CodeDeprecatedFeature,
		},
		{
			name: "missing entry",
			req: Request{
				GraphDir: "testdata/app",
				Input:    options.Input{Flags: options.Overrides{Input: []string{"src/nope.js"}}},
			},
			code: types.CodeMissingEntry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(nil).Build(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.code, types.CodeOf(err))
		})
	}
}

func TestBuild_NoGraph(t *testing.T) {
	_, err := New(nil).Build(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoGraph)
}

func TestBuild_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil).Build(ctx, Request{
		GraphDir: "testdata/app",
		Input:    options.Input{File: loadConfig(t, "testdata/chunklink.yaml")},
	})
	assert.ErrorIs(t, err, context.Canceled)
}
