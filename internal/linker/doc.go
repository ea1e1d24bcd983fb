// Package linker resolves references between the chunks of an allocated
// chunk set.
//
// For every import and re-export binding of every allocated module the
// linker picks one representation:
//
//	types.BindingLocal    // producer lives in the same chunk
//	types.BindingChunk    // producer lives in another chunk; imported by alias
//	types.BindingExternal // pass-through reference to an external module
//	types.BindingInterop  // read through an interop namespace wrapper
//
// Re-export chains are followed to the producing module first, so a value
// re-exported through several modules is imported once from the chunk that
// actually holds it.
//
// # Usage
//
//	resolver := interop.NewResolver(g, opts.Interop)
//	l := linker.New(g, edges, set, resolver, linker.Policy{
//	    PreserveEntrySignatures: opts.PreserveEntrySignatures,
//	    InlineDynamicImports:    opts.InlineDynamicImports,
//	})
//	if err := l.Link(); err != nil {
//	    return err // the chunk set must be discarded
//	}
//
// # Export Tables
//
// A chunk carrying an entry signature exports the entry module's included
// exports under their own names, unless signatures are disabled. Symbols
// other chunks need are exported under an alias derived from the symbol
// name; collisions get "$1", "$2", ... suffixes in first-use order. A
// dynamic import target's chunk exports the target's whole namespace.
//
// # Referential Integrity
//
// Every binding resolves to exactly one producer. A binding whose producer
// was removed by tree-shaking, or never allocated, is reported as an
// internal DANGLING_BINDING error.
package linker
