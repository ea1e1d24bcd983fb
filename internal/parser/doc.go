// Package parser reads module manifests produced by the upstream analyzer.
//
// A manifest describes one already-parsed module: its resolved id, static
// and dynamic import specifiers, resolved ids per specifier, exports with the
// analyzer's inclusion verdict, and import/re-export bindings. Manifests are
// YAML; JSON manifests parse as well.
//
// # Basic Usage
//
//	p := parser.New()
//	result, err := p.ParseFile("graph/src/main.module.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if result.HasErrors() {
//	    for _, e := range result.Errors {
//	        fmt.Println(e.Error())
//	    }
//	}
//
// # Manifest Format
//
//	id: src/main.js
//	format: native            # native | foreign
//	sideEffects: always       # always | never | conditional-on-external
//	imports: [./util.js, lodash]
//	dynamicImports: [./lazy.js]
//	resolved: {./util.js: src/util.js, ./lazy.js: src/lazy.js}
//	exports:
//	  - {name: default, included: true}
//	bindings:
//	  - {specifier: ./util.js, imported: helper, local: helper}
//	  - {specifier: lodash, imported: "*", local: _}
//
// Omitted fields default as follows: format is native, exports are
// included, and sideEffects is left for the configured moduleSideEffects
// policy.
//
// # Error Handling
//
// Syntax and validation problems are non-fatal: they are recorded in
// ParseResult.Errors with line and column where known, and the decoded
// module is still returned. The loader rejects any file with errors.
//
// # Interop Markers
//
// A foreign module that exports an included __esModule binding is treated
// as self-identifying as native, the same as setting nativeMarker.
package parser
