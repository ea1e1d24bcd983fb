package chunker

import (
	"fmt"
	"testing"

	"github.com/dshills/chunklink/internal/graph"
	"github.com/dshills/chunklink/pkg/types"
)

// layeredGraph builds entries that each import a slice of a shared library
// layer, plus one dynamic import per entry
func layeredGraph(entryCount, libCount int) ([]*types.Module, []string) {
	var mods []*types.Module
	var ids []string

	for i := 0; i < libCount; i++ {
		id := fmt.Sprintf("lib/m%d.js", i)
		if i > 0 {
			mods = append(mods, mod(id, fmt.Sprintf("lib/m%d.js", i-1)))
		} else {
			mods = append(mods, mod(id))
		}
	}

	for i := 0; i < entryCount; i++ {
		lazy := fmt.Sprintf("src/lazy%d.js", i)
		mods = append(mods, mod(lazy, fmt.Sprintf("lib/m%d.js", (i*7)%libCount)))

		id := fmt.Sprintf("src/entry%d.js", i)
		var imports []string
		for j := i; j < libCount; j += entryCount {
			imports = append(imports, fmt.Sprintf("lib/m%d.js", j))
		}
		mods = append(mods, withDynamic(mod(id, imports...), lazy))
		ids = append(ids, id)
	}
	return mods, ids
}

func benchmarkAllocate(b *testing.B, entryCount, libCount int) {
	mods, ids := layeredGraph(entryCount, libCount)
	g, err := graph.New(mods)
	if err != nil {
		b.Fatal(err)
	}
	w := &warnings{}
	edges, err := graph.NewClassifier(g, nil, w).ClassifyAll()
	if err != nil {
		b.Fatal(err)
	}
	policy := Policy{Entries: entries(ids...)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		set, err := New(g, edges, policy, w).Allocate()
		if err != nil {
			b.Fatal(err)
		}
		if len(set.Chunks) == 0 {
			b.Fatal("no chunks")
		}
	}
}

func BenchmarkAllocate_Small(b *testing.B) {
	benchmarkAllocate(b, 4, 50)
}

func BenchmarkAllocate_Large(b *testing.B) {
	benchmarkAllocate(b, 32, 2000)
}
