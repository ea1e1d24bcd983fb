package options

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/chunklink/internal/diagnostics"
	"github.com/dshills/chunklink/pkg/types"
)

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(i int) *int {
	return &i
}

func strPtr(s string) *string {
	return &s
}

func TestLoadFile_YAMLAndHCLAgree(t *testing.T) {
	for _, file := range []string{"testdata/full.yaml", "testdata/full.hcl"} {
		t.Run(filepath.Ext(file), func(t *testing.T) {
			raw, err := LoadFile(file)
			require.NoError(t, err)
			assert.Empty(t, raw.Unknown)

			opts, err := Normalize(Input{File: raw})
			require.NoError(t, err)

			assert.Equal(t, []Entry{
				{Name: "main", ID: "src/main.js"},
				{Name: "admin", ID: "src/admin.js"},
			}, opts.Entries)
			assert.Equal(t, diagnostics.LogLevelDebug, opts.LogLevel)
			assert.Equal(t, 4, opts.MaxParallelFileOps)
			assert.Equal(t, SignaturesStrict, opts.PreserveEntrySignatures)

			assert.True(t, opts.External.IsExternal("lodash", "src/main.js", false))
			assert.True(t, opts.External.IsExternal("@scope/pkg/sub", "src/main.js", false))
			assert.True(t, opts.External.IsExternal("node:fs", "src/main.js", false))
			assert.False(t, opts.External.IsExternal("./util.js", "src/main.js", false))

			assert.True(t, opts.ModuleSideEffects("src/a.js", false))
			assert.False(t, opts.ModuleSideEffects("lodash", true))

			name, ok := opts.ManualChunks.Lookup("src/vendor/b.js")
			assert.True(t, ok)
			assert.Equal(t, "vendor", name)

			assert.Equal(t, types.InteropESModule, opts.Interop.Mode("lodash"))
			assert.Equal(t, types.InteropDefaultOnly, opts.Interop.Mode("react"))
		})
	}
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Equal(t, types.CodeInvalidOption, types.CodeOf(err))
}

func TestNormalize_Defaults(t *testing.T) {
	opts, err := Normalize(Input{Flags: Overrides{Input: []string{"src/main.js"}}})
	require.NoError(t, err)

	assert.Equal(t, []Entry{{Name: "main", ID: "src/main.js"}}, opts.Entries)
	assert.Equal(t, SignaturesExportsOnly, opts.PreserveEntrySignatures)
	assert.Equal(t, diagnostics.LogLevelInfo, opts.LogLevel)
	assert.Equal(t, DefaultMaxParallelFileOps, opts.MaxParallelFileOps)
	assert.Equal(t, DefaultDBPath, opts.DBPath)
	assert.False(t, opts.StrictDeprecations)
	assert.False(t, opts.PreserveModules)
	assert.False(t, opts.InlineDynamicImports)
	assert.True(t, opts.ManualChunks.Empty())
	assert.True(t, opts.ModuleSideEffects("anything", true))
	assert.Equal(t, types.InteropCompat, opts.Interop.Mode("lodash"))
	assert.NotNil(t, opts.Dispatcher)
	assert.Equal(t, diagnostics.VariantNone, opts.Dispatcher.Variant())
}

func TestNormalize_MissingInput(t *testing.T) {
	_, err := Normalize(Input{})
	require.Error(t, err)
	assert.Equal(t, types.CodeInvalidOption, types.CodeOf(err))
}

func TestNormalize_Precedence(t *testing.T) {
	raw := &Raw{
		Input:              []any{"src/main.js"},
		LogLevel:           "warn",
		MaxParallelFileOps: intPtr(8),
		StrictDeprecations: boolPtr(true),
	}
	env := Overrides{
		LogLevel:           strPtr("debug"),
		MaxParallelFileOps: intPtr(6),
		DBPath:             strPtr("/tmp/env.db"),
	}
	flags := Overrides{
		MaxParallelFileOps: intPtr(2),
		StrictDeprecations: boolPtr(false),
	}

	opts, err := Normalize(Input{File: raw, Env: env, Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, diagnostics.LogLevelDebug, opts.LogLevel, "env beats file")
	assert.Equal(t, 2, opts.MaxParallelFileOps, "flags beat env")
	assert.False(t, opts.StrictDeprecations, "flags beat file")
	assert.Equal(t, "/tmp/env.db", opts.DBPath)
}

func TestNormalize_HooksWin(t *testing.T) {
	raw := &Raw{
		Input:     []any{"src/main.js"},
		Output:    RawOutput{ManualChunks: map[string][]string{"vendor": {"src/a.js"}}},
		Treeshake: RawTreeshake{ModuleSideEffects: false},
	}
	hooks := Hooks{
		ManualChunks: func(id string) (string, bool) {
			if id == "src/b.js" {
				return "hooked", true
			}
			return "", false
		},
		ModuleSideEffects: func(id string, external bool) bool { return id == "src/keep.js" },
		External:          func(id, importer string, resolved bool) bool { return id == "virtual:env" },
	}

	opts, err := Normalize(Input{File: raw, Hooks: hooks})
	require.NoError(t, err)

	_, ok := opts.ManualChunks.Lookup("src/a.js")
	assert.False(t, ok)
	name, ok := opts.ManualChunks.Lookup("src/b.js")
	assert.True(t, ok)
	assert.Equal(t, "hooked", name)
	assert.Empty(t, opts.ManualChunks.Declared())

	assert.True(t, opts.ModuleSideEffects("src/keep.js", false))
	assert.False(t, opts.ModuleSideEffects("src/other.js", false))
	assert.True(t, opts.External.IsExternal("virtual:env", "src/main.js", false))
}

func TestNormalize_InputMappingKeepsOrder(t *testing.T) {
	yamlRaw, err := DecodeYAML([]byte("input:\n  main: src/main.js\n  admin: src/admin.js\n  zeta: src/zeta.js\n"))
	require.NoError(t, err)
	hclRaw, err := DecodeHCL("order.hcl", []byte(`
input = {
  main  = "src/main.js"
  admin = "src/admin.js"
  "zeta" = "src/zeta.js"
}
`))
	require.NoError(t, err)

	want := []Entry{
		{Name: "main", ID: "src/main.js"},
		{Name: "admin", ID: "src/admin.js"},
		{Name: "zeta", ID: "src/zeta.js"},
	}
	for name, raw := range map[string]*Raw{"yaml": yamlRaw, "hcl": hclRaw} {
		t.Run(name, func(t *testing.T) {
			opts, err := Normalize(Input{File: raw})
			require.NoError(t, err)
			assert.Equal(t, want, opts.Entries)
		})
	}
}

func TestNormalize_InputMappingInvalidValue(t *testing.T) {
	raw, err := DecodeYAML([]byte("input:\n  main: [src/main.js]\n"))
	require.NoError(t, err)

	_, err = Normalize(Input{File: raw})
	require.Error(t, err)
	assert.Equal(t, types.CodeInvalidOption, types.CodeOf(err))
}

func TestNormalize_InputGoMapSorted(t *testing.T) {
	raw := &Raw{Input: map[string]any{"main": "src/main.js", "admin": "src/admin.js"}}

	opts, err := Normalize(Input{File: raw})
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Name: "admin", ID: "src/admin.js"},
		{Name: "main", ID: "src/main.js"},
	}, opts.Entries)
}

func TestNormalize_UnknownKeysAggregated(t *testing.T) {
	raw, err := DecodeYAML([]byte(`
input: [src/main.js]
bogus: 1
another: true
output:
  format: esm
treeshake:
  pureExternalModules: true
`))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bogus", "another", "output.format", "treeshake.pureExternalModules"}, raw.Unknown)

	rec := diagnostics.NewRecorder(nil)
	_, err = Normalize(Input{File: raw, Renderer: rec})
	require.NoError(t, err)

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, types.CodeUnknownOption, entries[0].Code)
	assert.Contains(t, entries[0].Message, "another, bogus, output.format, treeshake.pureExternalModules")
	assert.Contains(t, entries[0].Message, "Allowed options:")
}

func TestDecodeHCL_UnknownKeys(t *testing.T) {
	raw, err := DecodeHCL("test.hcl", []byte(`
input = ["src/main.js"]
bogus = 1
output {
  format = "esm"
}
plugins {
}
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"bogus", "output.format", "plugins"}, raw.Unknown)
	assert.Equal(t, []any{"src/main.js"}, raw.Input)
}

func TestNormalize_DeprecatedAliasWarnings(t *testing.T) {
	raw := &Raw{
		Input:        []any{"src/main.js"},
		ManualChunks: map[string][]string{"top": {"src/a.js"}},
		Output:       RawOutput{ManualChunks: map[string][]string{"out": {"src/a.js"}}},
	}

	rec := diagnostics.NewRecorder(nil)
	opts, err := Normalize(Input{File: raw, Renderer: rec})
	require.NoError(t, err)

	assert.Equal(t, 1, rec.Count(types.CodeDeprecatedFeature))
	name, ok := opts.ManualChunks.Lookup("src/a.js")
	assert.True(t, ok)
	assert.Equal(t, "out", name)
}

func TestNormalize_StrictDeprecations(t *testing.T) {
	raw := &Raw{
		Input:              []any{"src/main.js"},
		PreserveModules:    boolPtr(true),
		StrictDeprecations: boolPtr(true),
	}

	_, err := Normalize(Input{File: raw})
	require.Error(t, err)
	assert.Equal(t, types.CodeDeprecatedFeature, types.CodeOf(err))
}

func TestNormalize_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		raw  *Raw
	}{
		{"module side effects", &Raw{Input: []any{"a.js"}, Treeshake: RawTreeshake{ModuleSideEffects: "sometimes"}}},
		{"entry signatures", &Raw{Input: []any{"a.js"}, PreserveEntrySignatures: "loose"}},
		{"entry signatures true", &Raw{Input: []any{"a.js"}, PreserveEntrySignatures: true}},
		{"log level", &Raw{Input: []any{"a.js"}, LogLevel: "loud"}},
		{"interop", &Raw{Input: []any{"a.js"}, Output: RawOutput{Interop: "auto"}}},
		{"regex", &Raw{Input: []any{"a.js"}, External: []string{"/([/"}}},
		{"input type", &Raw{Input: 42}},
		{"preserve with manual", &Raw{Input: []any{"a.js"}, Output: RawOutput{
			PreserveModules: boolPtr(true),
			ManualChunks:    map[string][]string{"v": {"a.js"}},
		}}},
		{"preserve with inline", &Raw{Input: []any{"a.js"}, Output: RawOutput{
			PreserveModules:      boolPtr(true),
			InlineDynamicImports: boolPtr(true),
		}}},
		{"duplicate manual assignment", &Raw{Input: []any{"a.js"}, Output: RawOutput{
			ManualChunks: map[string][]string{"x": {"m.js"}, "y": {"m.js"}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(Input{File: tt.raw})
			require.Error(t, err)
			assert.Equal(t, types.CodeInvalidOption, types.CodeOf(err))
		})
	}
}

func TestParseEntrySignatures(t *testing.T) {
	tests := []struct {
		in   any
		want EntrySignatures
	}{
		{nil, SignaturesExportsOnly},
		{false, SignaturesFalse},
		{"false", SignaturesFalse},
		{"strict", SignaturesStrict},
		{"allow-extension", SignaturesAllowExtension},
		{"exports-only", SignaturesExportsOnly},
	}
	for _, tt := range tests {
		got, err := parseEntrySignatures(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestModuleSideEffectsForms(t *testing.T) {
	fn, err := parseModuleSideEffects([]any{"src/a.js"})
	require.NoError(t, err)
	assert.True(t, fn("src/a.js", false))
	assert.False(t, fn("src/b.js", false))

	fn, err = parseModuleSideEffects(false)
	require.NoError(t, err)
	assert.False(t, fn("src/a.js", false))
}

func TestEntryName(t *testing.T) {
	assert.Equal(t, "main", EntryName("src/main.js"))
	assert.Equal(t, "index.test", EntryName("src/index.test.ts"))
	assert.Equal(t, "lib", EntryName("lib"))
	assert.Equal(t, ".env", EntryName(".env"))
}

func TestFromEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"CHUNKLINK_LOG_LEVEL=warn\nCHUNKLINK_MAX_PARALLEL_FILE_OPS=3\nCHUNKLINK_DB_PATH=/tmp/file.db\n"), 0644))

	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvStrictDeprecations, "true")

	o, err := FromEnv(envFile, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	require.NotNil(t, o.LogLevel)
	assert.Equal(t, "debug", *o.LogLevel, "process env beats .env")
	require.NotNil(t, o.MaxParallelFileOps)
	assert.Equal(t, 3, *o.MaxParallelFileOps)
	require.NotNil(t, o.StrictDeprecations)
	assert.True(t, *o.StrictDeprecations)
	require.NotNil(t, o.DBPath)
	assert.Equal(t, "/tmp/file.db", *o.DBPath)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	t.Setenv(EnvMaxParallelFileOps, "many")
	_, err := FromEnv()
	require.Error(t, err)
	assert.Equal(t, types.CodeInvalidOption, types.CodeOf(err))
}
