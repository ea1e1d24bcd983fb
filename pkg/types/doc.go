// Package types provides shared type definitions for the chunklink bundler core.
//
// This package defines domain types used across multiple components,
// including modules, edges, chunks, bindings, interop wrappers and log events.
//
// # Core Types
//
// Module is an already-parsed module as handed over by the upstream analyzer:
//
//	mod := &types.Module{
//	    ID:      "src/main.js",
//	    Format:  types.FormatNative,
//	    Imports: []string{"./util.js"},
//	    Resolved: map[string]string{"./util.js": "src/util.js"},
//	    Exports: []types.Export{{Name: "default", Included: true}},
//	}
//
// Edge is derived from a module's import lists by the edge classifier and is
// labeled static or dynamic, internal or external:
//
//	if edge.IsInternal() && edge.IsStatic() {
//	    // participates in cycle detection
//	}
//
// Chunk is one physical output unit. The allocator fills its module list;
// the linker fills its import, export and binding tables:
//
//	for _, chunk := range set.Chunks {
//	    fmt.Println(chunk.Name, chunk.Modules)
//	}
//
// # Bindings and Interop
//
// Every surviving import resolves to a Binding of one kind:
//
//	types.BindingLocal    // same-chunk direct reference
//	types.BindingChunk    // cross-chunk runtime import
//	types.BindingExternal // pass-through reference to an external module
//	types.BindingInterop  // runtime require wrapped in an InteropWrapper
//
// # Log Events
//
// Event carries a code and message. Its rendered form is computed once on
// first use:
//
//	ev := types.NewEvent(types.CodeUnresolvedImport, "could not resolve ./x.js")
//	ev.ID = "src/main.js"
//	fmt.Println(ev.String()) // could not resolve ./x.js (src/main.js)
//
// # Errors
//
// Fatal errors are *Error values with a stable code. Use CodeOf to extract it:
//
//	if types.CodeOf(err) == types.CodeMissingEntry {
//	    // ...
//	}
//
// # Validation
//
// Module and Chunk implement validation methods to ensure data integrity:
//
//	if err := mod.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package types
