package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/chunklink/pkg/types"
)

func traceFixture(t *testing.T) (*Graph, *Edges) {
	t.Helper()

	index := &types.Module{
		ID:       "index.js",
		Format:   types.FormatNative,
		Imports:  []string{"./a.js", "./b.js", "ext"},
		Resolved: map[string]string{"./a.js": "a.js", "./b.js": "b.js"},
		Exports:  []types.Export{{Name: "own", Included: true}, {Name: "renamed", Included: true}},
		Bindings: []types.ImportBinding{
			{Specifier: "./a.js", Imported: "x", Local: "renamed", Reexport: true},
			{Specifier: "./b.js", Imported: "*", Reexport: true},
			{Specifier: "ext", Imported: "*", Reexport: true},
		},
	}
	a := &types.Module{
		ID:      "a.js",
		Format:  types.FormatNative,
		Exports: []types.Export{{Name: "x", Included: true}, {Name: "dead", Included: false}},
	}
	b := &types.Module{
		ID:       "b.js",
		Format:   types.FormatNative,
		Imports:  []string{"./index.js"},
		Resolved: map[string]string{"./index.js": "index.js"},
		Exports:  []types.Export{{Name: "y", Included: true}, {Name: "default", Included: true}},
		Bindings: []types.ImportBinding{{Specifier: "./index.js", Imported: "*", Reexport: true}},
	}

	g, err := New([]*types.Module{index, a, b})
	require.NoError(t, err)
	edges, err := NewClassifier(g, externalSet{"ext": true}, nil).ClassifyAll()
	require.NoError(t, err)
	return g, edges
}

func TestTrace(t *testing.T) {
	g, edges := traceFixture(t)

	tests := []struct {
		name string
		id   string
		want Origin
	}{
		{"own", "index.js", Origin{Module: "index.js", Name: "own", Included: true, Found: true}},
		{"renamed", "index.js", Origin{Module: "a.js", Name: "x", Included: true, Found: true}},
		{"y", "index.js", Origin{Module: "b.js", Name: "y", Included: true, Found: true}},
		{"unknown", "index.js", Origin{External: "ext", Name: "unknown", Included: true, Found: true}},
		{"default", "index.js", Origin{}},
		{"dead", "a.js", Origin{Module: "a.js", Name: "dead", Included: false, Found: true}},
		{"*", "a.js", Origin{Module: "a.js", Name: "*", Namespace: true, Included: true, Found: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Trace(edges, tt.id, tt.name))
		})
	}
}

func TestTrace_StarCycleTerminates(t *testing.T) {
	g, edges := traceFixture(t)

	// b.js re-exports * from index.js, which re-exports * from b.js
	origin := g.Trace(edges, "b.js", "nothing")
	assert.Equal(t, Origin{External: "ext", Name: "nothing", Included: true, Found: true}, origin)
}

func TestTraceBinding(t *testing.T) {
	g, edges := traceFixture(t)

	origin := g.TraceBinding(edges, "index.js", types.ImportBinding{Specifier: "./a.js", Imported: "x", Local: "x"})
	assert.Equal(t, "a.js", origin.Module)

	origin = g.TraceBinding(edges, "index.js", types.ImportBinding{Specifier: "ext", Imported: "*", Local: "ns"})
	assert.Equal(t, "ext", origin.External)
	assert.True(t, origin.Namespace)

	origin = g.TraceBinding(edges, "index.js", types.ImportBinding{Specifier: "./nope.js", Imported: "x", Local: "x"})
	assert.False(t, origin.Found)
}
