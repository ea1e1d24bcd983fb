package linker

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/chunklink/internal/chunker"
	"github.com/dshills/chunklink/internal/graph"
	"github.com/dshills/chunklink/internal/interop"
	"github.com/dshills/chunklink/internal/options"
	"github.com/dshills/chunklink/pkg/types"
)

type moduleBuilder struct {
	m *types.Module
}

func mod(id string) *moduleBuilder {
	return &moduleBuilder{m: &types.Module{
		ID:          id,
		Format:      types.FormatNative,
		SideEffects: types.SideEffectsAlways,
		Resolved:    make(map[string]string),
	}}
}

func (b *moduleBuilder) imports(specs ...string) *moduleBuilder {
	for _, s := range specs {
		b.m.Imports = append(b.m.Imports, s)
		b.m.Resolved[s] = s
	}
	return b
}

func (b *moduleBuilder) dynamic(specs ...string) *moduleBuilder {
	for _, s := range specs {
		b.m.DynamicImports = append(b.m.DynamicImports, s)
		b.m.Resolved[s] = s
	}
	return b
}

func (b *moduleBuilder) exports(names ...string) *moduleBuilder {
	for _, n := range names {
		b.m.Exports = append(b.m.Exports, types.Export{Name: n, Included: true})
	}
	return b
}

func (b *moduleBuilder) dead(names ...string) *moduleBuilder {
	for _, n := range names {
		b.m.Exports = append(b.m.Exports, types.Export{Name: n, Included: false})
	}
	return b
}

func (b *moduleBuilder) bind(spec, imported, local string) *moduleBuilder {
	b.m.Bindings = append(b.m.Bindings, types.ImportBinding{Specifier: spec, Imported: imported, Local: local})
	return b
}

func (b *moduleBuilder) reexport(spec, imported, local string) *moduleBuilder {
	b.m.Bindings = append(b.m.Bindings, types.ImportBinding{Specifier: spec, Imported: imported, Local: local, Reexport: true})
	return b
}

func (b *moduleBuilder) foreign() *moduleBuilder {
	b.m.Format = types.FormatForeign
	return b
}

type externalSet map[string]bool

func (s externalSet) IsExternal(id, importer string, resolved bool) bool {
	return s[id]
}

type fixture struct {
	entries []options.Entry
	ext     externalSet
	sig     options.EntrySignatures
	inline  bool
	modules []*moduleBuilder
}

func (f fixture) link(t *testing.T) (*types.ChunkSet, error) {
	t.Helper()

	mods := make([]*types.Module, 0, len(f.modules))
	for _, b := range f.modules {
		mods = append(mods, b.m)
	}
	g, err := graph.New(mods)
	require.NoError(t, err)
	edges, err := graph.NewClassifier(g, f.ext, nil).ClassifyAll()
	require.NoError(t, err)

	set, err := chunker.New(g, edges, chunker.Policy{
		Entries:                 f.entries,
		InlineDynamicImports:    f.inline,
		PreserveEntrySignatures: f.sig,
	}, nil).Allocate()
	require.NoError(t, err)

	resolver := interop.NewResolver(g, nil)
	err = New(g, edges, set, resolver, Policy{
		PreserveEntrySignatures: f.sig,
		InlineDynamicImports:    f.inline,
	}).Link()
	return set, err
}

func entries(ids ...string) []options.Entry {
	out := make([]options.Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, options.Entry{Name: options.EntryName(id), ID: id})
	}
	return out
}

func TestLink_CrossChunk(t *testing.T) {
	f := fixture{
		entries: entries("main.js", "other.js"),
		modules: []*moduleBuilder{
			mod("main.js").imports("shared.js").bind("shared.js", "helper", "helper"),
			mod("other.js").imports("shared.js").bind("shared.js", "helper", "h"),
			mod("shared.js").exports("helper"),
		},
	}
	set, err := f.link(t)
	require.NoError(t, err)

	main := set.Chunk("main")
	require.NotNil(t, main)
	assert.Equal(t, []types.Binding{{
		Module:         "main.js",
		Local:          "helper",
		Imported:       "helper",
		Kind:           types.BindingChunk,
		ProducerModule: "shared.js",
		ProducerChunk:  "shared",
		Symbol:         "helper",
	}}, main.Bindings)
	assert.Equal(t, []types.ChunkImport{{Chunk: "shared", Symbols: []string{"helper"}}}, main.Imports)
	assert.Empty(t, main.Exports)

	other := set.Chunk("other")
	assert.Equal(t, "h", other.Bindings[0].Local)
	assert.Equal(t, "helper", other.Bindings[0].Symbol)

	shared := set.Chunk("shared")
	assert.Equal(t, []types.ChunkExport{{Name: "helper", Module: "shared.js", Symbol: "helper"}}, shared.Exports)
	assert.Empty(t, shared.Imports)
}

func TestLink_LocalAndEntrySignature(t *testing.T) {
	f := fixture{
		entries: entries("main.js"),
		modules: []*moduleBuilder{
			mod("main.js").imports("util.js").bind("util.js", "helper", "helper").
				reexport("util.js", "helper", "publicHelper").exports("run"),
			mod("util.js").exports("helper"),
		},
	}
	set, err := f.link(t)
	require.NoError(t, err)
	require.Len(t, set.Chunks, 1)

	main := set.Chunks[0]
	require.Len(t, main.Bindings, 2)
	assert.Equal(t, types.BindingLocal, main.Bindings[0].Kind)
	assert.Equal(t, "util.js", main.Bindings[0].ProducerModule)
	assert.True(t, main.Bindings[1].Reexport)

	// Only the entry module's included exports form the signature
	assert.Equal(t, []types.ChunkExport{{Name: "run", Module: "main.js", Symbol: "run"}}, main.Exports)
}

func TestLink_ReexportedSignature(t *testing.T) {
	f := fixture{
		entries: entries("main.js"),
		modules: []*moduleBuilder{
			mod("main.js").imports("util.js").reexport("util.js", "helper", "helper").exports("helper"),
			mod("util.js").exports("helper"),
		},
	}
	set, err := f.link(t)
	require.NoError(t, err)

	assert.Equal(t, []types.ChunkExport{{Name: "helper", Module: "util.js", Symbol: "helper"}}, set.Chunks[0].Exports)
}

func TestLink_ExternalAndInterop(t *testing.T) {
	f := fixture{
		entries: entries("main.js"),
		ext:     externalSet{"react": true, "lodash": true},
		modules: []*moduleBuilder{
			mod("main.js").imports("react", "lodash", "cjs.js").
				bind("react", "useState", "useState").
				bind("lodash", "*", "_").
				bind("cjs.js", "*", "cjs").
				bind("cjs.js", "default", "cjsDefault"),
			mod("cjs.js").foreign().exports("default", "a"),
		},
	}
	set, err := f.link(t)
	require.NoError(t, err)

	main := set.Chunks[0]
	require.Len(t, main.Bindings, 4)

	assert.Equal(t, types.BindingExternal, main.Bindings[0].Kind)
	assert.Equal(t, "react", main.Bindings[0].External)
	assert.Nil(t, main.Bindings[0].Wrapper)

	lodash := main.Bindings[1]
	assert.Equal(t, types.BindingInterop, lodash.Kind)
	require.NotNil(t, lodash.Wrapper)
	assert.Equal(t, "lodashNS", lodash.Wrapper.Name)
	assert.True(t, lodash.Wrapper.External)

	cjs := main.Bindings[2]
	assert.Equal(t, types.BindingInterop, cjs.Kind)
	assert.Equal(t, "cjs.js", cjs.ProducerModule)
	assert.Equal(t, []string{"a"}, cjs.Wrapper.NamedKeys)

	// Default reads stay direct
	assert.Equal(t, types.BindingLocal, main.Bindings[3].Kind)

	assert.Equal(t, []*types.InteropWrapper{lodash.Wrapper, cjs.Wrapper}, main.Wrappers)
}

func TestLink_WrapperCachedPerChunk(t *testing.T) {
	f := fixture{
		entries: entries("main.js"),
		ext:     externalSet{"lodash": true},
		modules: []*moduleBuilder{
			mod("main.js").imports("lodash", "util.js").bind("lodash", "*", "_"),
			mod("util.js").imports("lodash").bind("lodash", "*", "lo"),
		},
	}
	set, err := f.link(t)
	require.NoError(t, err)

	main := set.Chunks[0]
	require.Len(t, main.Bindings, 2)
	assert.Same(t, main.Bindings[0].Wrapper, main.Bindings[1].Wrapper)
	assert.Len(t, main.Wrappers, 1)
}

func TestLink_DanglingBinding(t *testing.T) {
	f := fixture{
		entries: entries("main.js"),
		modules: []*moduleBuilder{
			mod("main.js").imports("util.js").bind("util.js", "helper", "helper"),
			mod("util.js").dead("helper"),
		},
	}
	_, err := f.link(t)
	require.Error(t, err)
	assert.True(t, types.IsInternal(err))
	assert.Equal(t, types.CodeDanglingBinding, types.CodeOf(err))
}

func TestLink_AliasDeduplication(t *testing.T) {
	f := fixture{
		entries: entries("main.js", "other.js"),
		modules: []*moduleBuilder{
			mod("main.js").imports("a.js", "b.js").bind("a.js", "x", "x").bind("b.js", "x", "y"),
			mod("other.js").imports("a.js", "b.js"),
			mod("a.js").exports("x"),
			mod("b.js").exports("x"),
		},
	}
	set, err := f.link(t)
	require.NoError(t, err)

	shared := set.ChunkOf("a.js")
	require.NotNil(t, shared)
	assert.Equal(t, []types.ChunkExport{
		{Name: "x", Module: "a.js", Symbol: "x"},
		{Name: "x$1", Module: "b.js", Symbol: "x"},
	}, shared.Exports)

	main := set.Chunk("main")
	assert.Equal(t, "x", main.Bindings[0].Symbol)
	assert.Equal(t, "x$1", main.Bindings[1].Symbol)
	assert.Equal(t, []types.ChunkImport{{Chunk: shared.Name, Symbols: []string{"x", "x$1"}}}, main.Imports)
}

func TestLink_Facade(t *testing.T) {
	f := fixture{
		entries: entries("main.js", "other.js"),
		sig:     options.SignaturesStrict,
		modules: []*moduleBuilder{
			mod("main.js").imports("helper.js").exports("run"),
			mod("other.js").imports("main.js", "helper.js").
				bind("main.js", "run", "run").
				bind("helper.js", "helper", "helper"),
			mod("helper.js").exports("helper"),
		},
	}
	set, err := f.link(t)
	require.NoError(t, err)

	facade := set.Chunk("main")
	require.NotNil(t, facade)
	assert.Equal(t, types.ChunkFacade, facade.Kind)
	assert.Equal(t, []types.ChunkExport{{Name: "run", Module: "main.js", Symbol: "run"}}, facade.Exports)
	assert.Equal(t, []types.ChunkImport{{Chunk: "main2", Symbols: []string{"run"}}}, facade.Imports)

	impl := set.Chunk("main2")
	assert.Equal(t, []types.ChunkExport{
		{Name: "run", Module: "main.js", Symbol: "run"},
		{Name: "helper", Module: "helper.js", Symbol: "helper"},
	}, impl.Exports)

	other := set.Chunk("other")
	assert.Equal(t, []types.ChunkImport{{Chunk: "main2", Symbols: []string{"run", "helper"}}}, other.Imports)
}

func TestLink_SignaturesDisabled(t *testing.T) {
	f := fixture{
		entries: entries("main.js"),
		sig:     options.SignaturesFalse,
		modules: []*moduleBuilder{
			mod("main.js").exports("run"),
		},
	}
	set, err := f.link(t)
	require.NoError(t, err)
	assert.Empty(t, set.Chunks[0].Exports)
}

func TestLink_DynamicImports(t *testing.T) {
	modules := func() []*moduleBuilder {
		return []*moduleBuilder{
			mod("main.js").dynamic("lazy.js", "remote"),
			mod("lazy.js").exports("load"),
		}
	}

	f := fixture{entries: entries("main.js"), ext: externalSet{"remote": true}, modules: modules()}
	set, err := f.link(t)
	require.NoError(t, err)

	main := set.Chunk("main")
	remote := &types.InteropWrapper{Name: "remoteNS", Target: "remote", Chunk: "main", External: true}
	assert.Equal(t, []types.DynamicImport{
		{Module: "main.js", Specifier: "lazy.js", Chunk: "lazy"},
		{Module: "main.js", Specifier: "remote", External: "remote", Wrapper: remote},
	}, main.DynamicImports)
	assert.Equal(t, []types.ChunkExport{{Name: "load", Module: "lazy.js", Symbol: "load"}}, set.Chunk("lazy").Exports)

	f = fixture{entries: entries("main.js"), ext: externalSet{"remote": true}, inline: true, modules: modules()}
	set, err = f.link(t)
	require.NoError(t, err)
	require.Len(t, set.Chunks, 1)
	assert.True(t, set.Chunks[0].DynamicImports[0].Inline)
	assert.Empty(t, set.Chunks[0].DynamicImports[0].Chunk)
}

func TestLink_DynamicImportInterop(t *testing.T) {
	modules := func() []*moduleBuilder {
		return []*moduleBuilder{
			mod("main.js").dynamic("cjs.js", "remote"),
			mod("cjs.js").foreign().exports("default", "a"),
		}
	}

	f := fixture{entries: entries("main.js"), ext: externalSet{"remote": true}, modules: modules()}
	set, err := f.link(t)
	require.NoError(t, err)

	main := set.Chunk("main")
	require.Len(t, main.DynamicImports, 2)

	cjs := main.DynamicImports[0]
	assert.Equal(t, "cjs", cjs.Chunk)
	require.NotNil(t, cjs.Wrapper)
	assert.Equal(t, "cjsNS", cjs.Wrapper.Name)
	assert.Equal(t, "main", cjs.Wrapper.Chunk)
	assert.False(t, cjs.Wrapper.External)
	assert.Equal(t, []string{"a"}, cjs.Wrapper.NamedKeys)

	remote := main.DynamicImports[1]
	require.NotNil(t, remote.Wrapper)
	assert.Equal(t, "remoteNS", remote.Wrapper.Name)
	assert.True(t, remote.Wrapper.External)

	assert.Equal(t, []*types.InteropWrapper{cjs.Wrapper, remote.Wrapper}, main.Wrappers)
	assert.Empty(t, set.Chunk("cjs").Wrappers)

	// Inlined foreign targets are wrapped in the importing chunk too
	f = fixture{entries: entries("main.js"), ext: externalSet{"remote": true}, inline: true, modules: modules()}
	set, err = f.link(t)
	require.NoError(t, err)
	require.Len(t, set.Chunks, 1)
	require.True(t, set.Chunks[0].DynamicImports[0].Inline)
	assert.Equal(t, "cjsNS", set.Chunks[0].DynamicImports[0].Wrapper.Name)
}

func TestLink_Deterministic(t *testing.T) {
	build := func() fixture {
		return fixture{
			entries: entries("main.js", "other.js"),
			ext:     externalSet{"lodash": true},
			modules: []*moduleBuilder{
				mod("main.js").imports("a.js", "b.js", "lodash").bind("a.js", "x", "x").bind("b.js", "x", "y").bind("lodash", "*", "_"),
				mod("other.js").imports("a.js", "b.js").bind("b.js", "x", "x").dynamic("lazy.js"),
				mod("a.js").exports("x"),
				mod("b.js").exports("x"),
				mod("lazy.js").imports("a.js").exports("go").bind("a.js", "x", "x"),
			},
		}
	}

	first, err := build().link(t)
	require.NoError(t, err)
	second, err := build().link(t)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("linking is not deterministic (-first +second):\n%s", diff)
	}
}
