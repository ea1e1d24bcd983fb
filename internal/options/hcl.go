package options

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// hclRoot decodes the fixed-shape attributes of an HCL config. Polymorphic
// attributes are taken as expressions and evaluated into cty values.
type hclRoot struct {
	Input                   hcl.Expression `hcl:"input,optional"`
	External                []string       `hcl:"external,optional"`
	ManualChunks            hcl.Expression `hcl:"manual_chunks,optional"`
	InlineDynamicImports    *bool          `hcl:"inline_dynamic_imports,optional"`
	PreserveModules         *bool          `hcl:"preserve_modules,optional"`
	PreserveEntrySignatures hcl.Expression `hcl:"preserve_entry_signatures,optional"`
	StrictDeprecations      *bool          `hcl:"strict_deprecations,optional"`
	LogLevel                *string        `hcl:"log_level,optional"`
	MaxParallelFileOps      *int           `hcl:"max_parallel_file_ops,optional"`
	Treeshake               *hclTreeshake  `hcl:"treeshake,block"`
	Output                  *hclOutput     `hcl:"output,block"`
	Remain                  hcl.Body       `hcl:",remain"`
}

type hclTreeshake struct {
	ModuleSideEffects hcl.Expression `hcl:"module_side_effects,optional"`
	Remain            hcl.Body       `hcl:",remain"`
}

type hclOutput struct {
	ManualChunks         hcl.Expression `hcl:"manual_chunks,optional"`
	InlineDynamicImports *bool          `hcl:"inline_dynamic_imports,optional"`
	PreserveModules      *bool          `hcl:"preserve_modules,optional"`
	Interop              hcl.Expression `hcl:"interop,optional"`
	Remain               hcl.Body       `hcl:",remain"`
}

// DecodeHCL decodes an HCL configuration document. Unknown attributes and
// blocks are collected into Raw.Unknown rather than rejected.
func DecodeHCL(filename string, data []byte) (*Raw, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL config %s: %w", filename, diags)
	}

	raw := &Raw{Syntax: SyntaxHCL}
	if body, ok := file.Body.(*hclsyntax.Body); ok {
		raw.Unknown = unknownHCLKeys(body, hclKeys)
	}

	var root hclRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL config %s: %w", filename, diags)
	}

	var err error
	if raw.Input, err = exprToInput(root.Input); err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	if raw.PreserveEntrySignatures, err = exprToNative(root.PreserveEntrySignatures); err != nil {
		return nil, fmt.Errorf("preserve_entry_signatures: %w", err)
	}
	if raw.ManualChunks, err = exprToManualChunks(root.ManualChunks); err != nil {
		return nil, fmt.Errorf("manual_chunks: %w", err)
	}

	raw.External = root.External
	raw.InlineDynamicImports = root.InlineDynamicImports
	raw.PreserveModules = root.PreserveModules
	raw.StrictDeprecations = root.StrictDeprecations
	raw.MaxParallelFileOps = root.MaxParallelFileOps
	if root.LogLevel != nil {
		raw.LogLevel = *root.LogLevel
	}

	if root.Treeshake != nil {
		if raw.Treeshake.ModuleSideEffects, err = exprToNative(root.Treeshake.ModuleSideEffects); err != nil {
			return nil, fmt.Errorf("treeshake.module_side_effects: %w", err)
		}
	}

	if out := root.Output; out != nil {
		raw.Output.InlineDynamicImports = out.InlineDynamicImports
		raw.Output.PreserveModules = out.PreserveModules
		if raw.Output.ManualChunks, err = exprToManualChunks(out.ManualChunks); err != nil {
			return nil, fmt.Errorf("output.manual_chunks: %w", err)
		}
		if raw.Output.Interop, err = exprToNative(out.Interop); err != nil {
			return nil, fmt.Errorf("output.interop: %w", err)
		}
	}

	return raw, nil
}

// unknownHCLKeys lists attributes and blocks outside the recognized set
func unknownHCLKeys(body *hclsyntax.Body, keys sectionKeys) []string {
	var unknown []string
	for name := range body.Attributes {
		if !contains(keys.root, name) || name == "treeshake" || name == "output" {
			unknown = append(unknown, name)
		}
	}
	for _, block := range body.Blocks {
		var nested []string
		switch block.Type {
		case "treeshake":
			nested = keys.treeshake
		case "output":
			nested = keys.output
		default:
			unknown = append(unknown, block.Type)
			continue
		}
		for name := range block.Body.Attributes {
			if !contains(nested, name) {
				unknown = append(unknown, block.Type+"."+name)
			}
		}
		for _, inner := range block.Body.Blocks {
			unknown = append(unknown, block.Type+"."+inner.Type)
		}
	}
	// Attributes are a map; keep the report stable
	sort.Strings(unknown)
	return unknown
}

// exprToNative evaluates an optional attribute expression without variables
func exprToNative(expr hcl.Expression) (any, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	return ctyToNative(val)
}

// exprToInput evaluates the input attribute. An object constructor is read
// item by item so entries keep their source order; cty objects iterate by
// attribute name.
func exprToInput(expr hcl.Expression) (any, error) {
	obj, ok := expr.(*hclsyntax.ObjectConsExpr)
	if !ok {
		return exprToNative(expr)
	}

	entries := make([]Entry, 0, len(obj.Items))
	for _, item := range obj.Items {
		key, diags := item.KeyExpr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		val, diags := item.ValueExpr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		if key.IsNull() || !key.IsKnown() || key.Type() != cty.String ||
			val.IsNull() || !val.IsKnown() || val.Type() != cty.String {
			// Not a plain name -> id object; normalization reports it
			return exprToNative(expr)
		}
		entries = append(entries, Entry{Name: key.AsString(), ID: val.AsString()})
	}
	return entries, nil
}

// exprToManualChunks decodes a {name = [ids]} object
func exprToManualChunks(expr hcl.Expression) (map[string][]string, error) {
	native, err := exprToNative(expr)
	if err != nil || native == nil {
		return nil, err
	}
	obj, ok := native.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object of chunk name to module ids, got %T", native)
	}
	out := make(map[string][]string, len(obj))
	for name, v := range obj {
		ids, err := toStrings(v)
		if err != nil {
			return nil, fmt.Errorf("chunk %q: %w", name, err)
		}
		out[name] = ids
	}
	return out, nil
}

// ctyToNative recursively converts a cty.Value to its most natural Go counterpart
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var n int
		if err := gocty.FromCtyValue(v, &n); err == nil {
			return n, nil
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert number: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			slice = append(slice, native)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		m := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", key.AsString(), err)
			}
			m[key.AsString()] = native
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
