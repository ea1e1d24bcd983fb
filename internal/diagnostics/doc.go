// Package diagnostics routes warnings and log events to host handlers.
//
// A Dispatcher is built once per build from the normalized options. The
// combination of host hooks is resolved during construction into a single
// dispatch function, so raising an event never branches on hook presence.
//
// # Hook Variants
//
//   - none: events go straight to the default renderer
//   - legacy: warn-level events pass through OnWarn first
//   - level-aware: every event passes through OnLog first
//   - both: OnLog sees the event first; its continuation routes warn-level
//     events into the OnWarn path
//
// # Basic Usage
//
//	d, err := diagnostics.New(diagnostics.Config{
//	    LogLevel: diagnostics.LogLevelInfo,
//	    Renderer: diagnostics.NewZapRenderer(logger),
//	})
//	if err != nil {
//	    return err
//	}
//
//	if err := d.Warn(types.NewEvent(types.CodeUnresolvedImport, "could not resolve ./x.js")); err != nil {
//	    return err // escalated by a hook
//	}
//
// # Ordering
//
// Events are delivered synchronously in raise order. A handler that raises
// further events sees them delivered before its own call returns.
//
// # Escalation
//
// A level-aware hook may continue with types.LevelError, which aborts the
// build with a PLUGIN_ERROR. With StrictDeprecations, Deprecate returns a
// fatal DEPRECATED_FEATURE error instead of warning.
package diagnostics
