// Package interop resolves imports that cross a module-format boundary.
//
// A foreign-format dependency, or an external dependency whose shape is
// unknown, cannot be read as a namespace directly. The Resolver decides
// which bindings need a synthetic namespace and describes it with a
// types.InteropWrapper; the runtime side of the same contract is Wrap.
//
// # Resolver
//
//	r := interop.NewResolver(g, opts.Interop)
//	if w := r.Resolve(edge, "main", types.NamespaceImport); w != nil {
//	    // the consuming chunk reads w.Name instead of the raw module
//	}
//
// Only full-namespace imports and "export * from" statements trigger a
// wrapper. Default and named reads of a foreign module stay direct.
// Wrappers are created once per (target, consuming chunk) pair; resolving
// the same pair again returns the identical descriptor.
//
// External ids follow the configured interop mode:
//   - esModule: native pass-through, never wrapped
//   - compat: wrapped on namespace access, keys enumerated at runtime
//   - defaultOnly: wrapped, only default is exposed
//
// # Wrapper Shape
//
// For a source value {value: 42} without the native marker, Wrap returns a
// frozen namespace equivalent to
//
//	{default: {value: 42}, value: <getter reading source.value>}
//
// Named keys are snapshotted when the wrapper is built and read through to
// the source on every access. A source carrying the native marker is
// returned unchanged.
package interop
