// Package options resolves bundler configuration into one immutable record.
//
// Options come from several layers. Normalize resolves them field by field,
// lowest precedence first:
//
//  1. built-in defaults
//  2. config file (YAML or HCL, see LoadFile)
//  3. environment (CHUNKLINK_* variables and .env files, see FromEnv)
//  4. CLI flags
//  5. programmatic hooks (OnLog, OnWarn and function-valued options)
//
// # Basic Usage
//
//	raw, err := options.LoadFile("chunklink.yaml")
//	if err != nil {
//	    return err
//	}
//	env, err := options.FromEnv(".env")
//	if err != nil {
//	    return err
//	}
//	opts, err := options.Normalize(options.Input{File: raw, Env: env})
//
// # Deprecated Aliases
//
// manualChunks, inlineDynamicImports and preserveModules are accepted at the
// top level for compatibility. The output-level value wins, and each use of a
// top-level alias raises a DEPRECATED_FEATURE event, which is fatal under
// strictDeprecations.
//
// # Unknown Keys
//
// Unknown keys never fail decoding. Normalize raises a single UNKNOWN_OPTION
// warning listing all of them.
package options
