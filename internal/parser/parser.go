package parser

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/chunklink/pkg/types"
)

// manifest is the on-disk shape of one analyzed module
type manifest struct {
	ID             string            `yaml:"id"`
	Format         string            `yaml:"format"`
	NativeMarker   bool              `yaml:"nativeMarker"`
	SideEffects    string            `yaml:"sideEffects"`
	Imports        []string          `yaml:"imports"`
	DynamicImports []string          `yaml:"dynamicImports"`
	Resolved       map[string]string `yaml:"resolved"`
	Exports        []manifestExport  `yaml:"exports"`
	Bindings       []manifestBinding `yaml:"bindings"`
}

type manifestExport struct {
	Name     string `yaml:"name"`
	Included *bool  `yaml:"included"`
}

type manifestBinding struct {
	Specifier string `yaml:"specifier"`
	Imported  string `yaml:"imported"`
	Local     string `yaml:"local"`
	Reexport  bool   `yaml:"reexport"`
}

// Parser reads module manifests produced by the upstream analyzer
type Parser struct{}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{}
}

// ParseFile parses a module manifest file (YAML or JSON)
func (p *Parser) ParseFile(filePath string) (*types.ParseResult, error) {
	// Read the file
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return p.Parse(filePath, content), nil
}

// Parse parses manifest content. Syntax and validation problems are
// recorded as parse errors; whatever could be decoded is still returned.
func (p *Parser) Parse(filePath string, content []byte) *types.ParseResult {
	result := &types.ParseResult{}

	if len(bytes.TrimSpace(content)) == 0 {
		result.AddError(filePath, 0, 0, "empty manifest")
		return result
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		// Syntax errors are non-fatal - record error and return what we have
		result.AddError(filePath, 0, 0, fmt.Sprintf("syntax error: %v", err))
		return result
	}

	root := documentRoot(&doc)
	if root == nil || root.Kind != yaml.MappingNode {
		result.AddError(filePath, 1, 1, "manifest must be a mapping")
		return result
	}

	var m manifest
	if err := root.Decode(&m); err != nil {
		result.AddError(filePath, root.Line, root.Column, fmt.Sprintf("decode error: %v", err))
		return result
	}

	result.Module = p.toModule(&m)

	v := &validator{filePath: filePath, root: root, result: result}
	v.validate(&m)

	detectInteropMarkers(&result.Module)

	return result
}

// toModule converts the decoded manifest into a domain module
func (p *Parser) toModule(m *manifest) types.Module {
	mod := types.Module{
		ID:             m.ID,
		Format:         types.ModuleFormat(m.Format),
		NativeMarker:   m.NativeMarker,
		SideEffects:    types.SideEffects(m.SideEffects),
		Imports:        m.Imports,
		DynamicImports: m.DynamicImports,
		Resolved:       m.Resolved,
	}

	// Modules default to the native format
	if mod.Format == "" {
		mod.Format = types.FormatNative
	}

	if mod.Resolved == nil {
		mod.Resolved = make(map[string]string)
	}

	mod.Exports = make([]types.Export, 0, len(m.Exports))
	for _, e := range m.Exports {
		included := true
		if e.Included != nil {
			included = *e.Included
		}
		mod.Exports = append(mod.Exports, types.Export{Name: e.Name, Included: included})
	}

	mod.Bindings = make([]types.ImportBinding, 0, len(m.Bindings))
	for _, b := range m.Bindings {
		mod.Bindings = append(mod.Bindings, types.ImportBinding{
			Specifier: b.Specifier,
			Imported:  b.Imported,
			Local:     b.Local,
			Reexport:  b.Reexport,
		})
	}

	return mod
}

// validator records every problem it finds instead of stopping at the first
type validator struct {
	filePath string
	root     *yaml.Node
	result   *types.ParseResult
}

func (v *validator) validate(m *manifest) {
	mod := &v.result.Module

	if m.ID == "" {
		v.errorAt("id", -1, "missing module id")
	}

	if err := mod.ValidateFormat(); err != nil {
		v.errorAt("format", -1, err.Error())
	}

	if err := mod.ValidateSideEffects(); err != nil {
		v.errorAt("sideEffects", -1, err.Error())
	}

	if mod.NativeMarker && mod.Format != types.FormatForeign {
		v.errorAt("nativeMarker", -1, "native marker is only meaningful on foreign modules")
	}

	seen := make(map[string]bool, len(m.Exports))
	for i, e := range m.Exports {
		switch {
		case e.Name == "":
			v.errorAt("exports", i, "export name cannot be empty")
		case seen[e.Name]:
			v.errorAt("exports", i, fmt.Sprintf("duplicate export %q", e.Name))
		}
		seen[e.Name] = true
	}

	declared := make(map[string]bool, len(m.Imports)+len(m.DynamicImports))
	static := make(map[string]bool, len(m.Imports))
	for _, spec := range m.Imports {
		declared[spec] = true
		static[spec] = true
	}
	for _, spec := range m.DynamicImports {
		declared[spec] = true
	}

	for spec := range m.Resolved {
		if !declared[spec] {
			v.errorAt("resolved", -1, fmt.Sprintf("resolved specifier %q is not imported", spec))
		}
	}

	for i, b := range m.Bindings {
		switch {
		case !static[b.Specifier]:
			v.errorAt("bindings", i, fmt.Sprintf("%v: %q", types.ErrUndeclaredSpecifier, b.Specifier))
		case b.Imported == "":
			v.errorAt("bindings", i, fmt.Sprintf("binding from %q has no imported name", b.Specifier))
		case !b.Reexport && b.Local == "":
			v.errorAt("bindings", i, fmt.Sprintf("binding %q from %q has no local name", b.Imported, b.Specifier))
		}
	}
}

// errorAt records an error positioned at a top-level key, or at the given
// item of a sequence under that key when index >= 0
func (v *validator) errorAt(key string, index int, msg string) {
	line, col := 0, 0
	if node := valueNode(v.root, key); node != nil {
		line, col = node.Line, node.Column
		if index >= 0 && node.Kind == yaml.SequenceNode && index < len(node.Content) {
			line, col = node.Content[index].Line, node.Content[index].Column
		}
	}
	v.result.AddError(v.filePath, line, col, msg)
}

func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return nil
}

// valueNode returns the value node for a key in a mapping node
func valueNode(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}
