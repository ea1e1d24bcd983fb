// Package chunker partitions the modules of a frozen module graph into chunks.
//
// The chunker decides which output chunk every included module lands in,
// names the chunks and orders them so that every chunk follows the chunks it
// imports from.
//
// # Basic Usage
//
//	c := chunker.New(g, edges, chunker.Policy{
//	    Entries:                 opts.Entries,
//	    Manual:                  opts.ManualChunks,
//	    PreserveEntrySignatures: opts.PreserveEntrySignatures,
//	    ModuleSideEffects:       opts.ModuleSideEffects,
//	}, opts.Dispatcher)
//
//	set, err := c.Allocate()
//	if err != nil {
//	    return err
//	}
//
//	for _, chunk := range set.Chunks {
//	    fmt.Println(chunk.Name, chunk.Kind, chunk.Modules)
//	}
//
// # Allocation Strategy
//
// Allocation runs in stages:
//   - Discovery: depth-first from the entries in input order, then from
//     dynamic import targets in the order they were seen
//   - Inclusion: entries, dynamic targets, modules with side effects and
//     modules with surviving exports are kept; everything else is dropped
//   - Units: strongly-connected components over static imports are atomic
//     and never split across chunks
//   - Coloring: every unit is tagged with the set of chunk roots (entries and
//     dynamic targets) that statically reach it
//   - Grouping: a unit reached by one root joins that root's chunk; a unit
//     whose root set equals the reach of a root chunk joins that chunk; every
//     other unit joins the shared chunk for its root set
//
// With InlineDynamicImports, dynamic imports are followed like static ones
// and no dynamic chunks are created. With PreserveModules, every included
// module becomes its own chunk.
//
// # Manual Chunks
//
// Manually assigned modules are moved, with their whole unit, into the named
// chunk. Merging modules that automatic allocation kept apart reports one
// MANUAL_CHUNK_MERGE warning per chunk. A cycle whose members name
// different chunks stays in the first member's chunk and reports
// MANUAL_CHUNK_CYCLE_SPLIT.
//
// # Entry Signatures
//
// A chunk carries the export signature of at most one entry. Further
// entries in the same chunk get facade chunks. Under the strict and
// exports-only policies the primary entry also moves to a facade when other
// chunks import symbols from its chunk that are not part of the entry's own
// exports:
//
//	main  (facade)  -> re-exports the signature of main.js
//	main2 (shared)  -> holds main.js and the modules it shares
//
// # Naming and Order
//
// Entry chunks and facades are named after their entry, dynamic chunks and
// shared chunks after their first discovered module, manual chunks after
// their configured name. Chunks carrying an entry signature are named
// first; collisions get a numeric suffix.
//
// Chunks are returned dependencies-first. A dependency cycle between chunks
// is reported once as CIRCULAR_CHUNK and broken where it was found.
//
// # Determinism
//
// The result depends only on the module graph and the policy. Map iteration
// is never used to order output.
package chunker
