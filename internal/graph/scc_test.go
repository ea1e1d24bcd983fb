package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successors(adj map[string][]string) func(string) []string {
	return func(id string) []string { return adj[id] }
}

func TestComponents(t *testing.T) {
	adj := map[string][]string{
		"main": {"a", "d"},
		"a":    {"b"},
		"b":    {"c"},
		"c":    {"a"},
		"d":    {},
	}

	comps, of := Components([]string{"main"}, successors(adj))
	require.Len(t, comps, 3)

	// Dependencies come first
	assert.Equal(t, []string{"a", "b", "c"}, comps[0].Members)
	assert.Equal(t, []string{"d"}, comps[1].Members)
	assert.Equal(t, []string{"main"}, comps[2].Members)

	assert.Same(t, of["a"], of["c"])
	assert.True(t, comps[0].Cyclic(successors(adj)))
	assert.False(t, comps[1].Cyclic(successors(adj)))
}

func TestComponents_SelfLoop(t *testing.T) {
	adj := map[string][]string{"a": {"a"}}
	comps, _ := Components([]string{"a"}, successors(adj))
	require.Len(t, comps, 1)
	assert.True(t, comps[0].Cyclic(successors(adj)))
}

func TestComponents_Deterministic(t *testing.T) {
	adj := map[string][]string{
		"e1": {"x", "y"},
		"e2": {"y", "z"},
		"x":  {"y"},
		"y":  {"x"},
		"z":  {},
	}

	first, _ := Components([]string{"e1", "e2"}, successors(adj))
	for i := 0; i < 10; i++ {
		again, _ := Components([]string{"e1", "e2"}, successors(adj))
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].Members, again[j].Members)
		}
	}
}

func TestComponents_Unreachable(t *testing.T) {
	adj := map[string][]string{"a": {}, "b": {}}
	comps, of := Components([]string{"a"}, successors(adj))
	assert.Len(t, comps, 1)
	assert.Nil(t, of["b"])
}
