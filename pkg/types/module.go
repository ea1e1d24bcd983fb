package types

import (
	"errors"
	"fmt"
)

// ModuleFormat is the module representation of a dependency
type ModuleFormat string

const (
	// FormatNative modules are consumed without interop wrapping
	FormatNative ModuleFormat = "native"
	// FormatForeign modules need a synthetic namespace for named/namespace access
	FormatForeign ModuleFormat = "foreign"
)

// SideEffects is the side-effect classification supplied by the analyzer
type SideEffects string

const (
	SideEffectsUnknown    SideEffects = ""
	SideEffectsAlways     SideEffects = "always"
	SideEffectsNever      SideEffects = "never"
	SideEffectsOnExternal SideEffects = "conditional-on-external"
)

const (
	// NamespaceImport is the imported name of a full-namespace import
	NamespaceImport = "*"
	// DefaultImport is the imported name of a default import
	DefaultImport = "default"
)

// Export is an exported name with the analyzer's inclusion verdict
type Export struct {
	Name     string
	Included bool
}

// ImportBinding is one binding a module pulls from one of its specifiers.
//
// Re-exports set Reexport; Local is then the exported alias, or empty for
// "export * from".
type ImportBinding struct {
	Specifier string
	Imported  string
	Local     string
	Reexport  bool
}

// IsNamespace reports whether the binding needs the full namespace object
func (b ImportBinding) IsNamespace() bool {
	return b.Imported == NamespaceImport
}

// IsReexportAll reports whether the binding is an "export * from" statement
func (b ImportBinding) IsReexportAll() bool {
	return b.Reexport && b.Imported == NamespaceImport && b.Local == ""
}

// IsDefault reports whether the binding reads only the default export
func (b ImportBinding) IsDefault() bool {
	return b.Imported == DefaultImport
}

// Module is an already-parsed module as handed over by the graph build.
// It is immutable once the graph is frozen.
type Module struct {
	// Identification
	ID string

	// Format
	Format       ModuleFormat
	NativeMarker bool // foreign module that self-identifies as native

	// Analysis facts
	SideEffects SideEffects
	Exports     []Export

	// Dependencies
	Imports        []string          // static specifiers in source order
	DynamicImports []string          // dynamic specifiers in source order
	Resolved       map[string]string // specifier -> resolved id
	Bindings       []ImportBinding
}

// ResolveSpecifier returns the resolved id for a specifier. The second
// result is false when the upstream resolver left the specifier unresolved.
func (m *Module) ResolveSpecifier(specifier string) (string, bool) {
	if id, ok := m.Resolved[specifier]; ok && id != "" {
		return id, true
	}
	return specifier, false
}

// Export looks up an exported name
func (m *Module) Export(name string) (Export, bool) {
	for _, e := range m.Exports {
		if e.Name == name {
			return e, true
		}
	}
	return Export{}, false
}

// HasIncludedExports returns true if the analyzer kept at least one export
func (m *Module) HasIncludedExports() bool {
	for _, e := range m.Exports {
		if e.Included {
			return true
		}
	}
	return false
}

// IncludedExports returns the names of all included exports in declaration order
func (m *Module) IncludedExports() []string {
	names := make([]string, 0, len(m.Exports))
	for _, e := range m.Exports {
		if e.Included {
			names = append(names, e.Name)
		}
	}
	return names
}

// IsForeign returns true if the module needs interop for namespace access
func (m *Module) IsForeign() bool {
	return m.Format == FormatForeign && !m.NativeMarker
}

// ValidateFormat checks if the module format is valid
func (m *Module) ValidateFormat() error {
	switch m.Format {
	case FormatNative, FormatForeign:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, m.Format)
	}
}

// ValidateSideEffects checks if the side-effect classification is valid
func (m *Module) ValidateSideEffects() error {
	switch m.SideEffects {
	case SideEffectsUnknown, SideEffectsAlways, SideEffectsNever, SideEffectsOnExternal:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSideEffects, m.SideEffects)
	}
}

// Validate performs comprehensive validation of the module
func (m *Module) Validate() error {
	if m.ID == "" {
		return ErrEmptyModuleID
	}

	if err := m.ValidateFormat(); err != nil {
		return err
	}

	if err := m.ValidateSideEffects(); err != nil {
		return err
	}

	if m.NativeMarker && m.Format != FormatForeign {
		return errors.New("native marker is only meaningful on foreign modules")
	}

	seen := make(map[string]bool, len(m.Exports))
	for _, e := range m.Exports {
		if e.Name == "" {
			return errors.New("export name cannot be empty")
		}
		if seen[e.Name] {
			return fmt.Errorf("duplicate export %q", e.Name)
		}
		seen[e.Name] = true
	}

	// Every binding must come from a declared static specifier
	declared := make(map[string]bool, len(m.Imports))
	for _, spec := range m.Imports {
		declared[spec] = true
	}
	for _, b := range m.Bindings {
		if !declared[b.Specifier] {
			return fmt.Errorf("%w: %q", ErrUndeclaredSpecifier, b.Specifier)
		}
		if b.Imported == "" {
			return fmt.Errorf("binding from %q has no imported name", b.Specifier)
		}
		if !b.Reexport && b.Local == "" {
			return fmt.Errorf("binding %q from %q has no local name", b.Imported, b.Specifier)
		}
	}

	return nil
}

// ParseResult represents the output of parsing one module manifest
type ParseResult struct {
	Module Module

	// Errors encountered during parsing
	Errors []ParseError
}

// ParseError represents an error that occurred during parsing
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

// Error implements the error interface
func (pe *ParseError) Error() string {
	if pe.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", pe.File, pe.Line, pe.Column, pe.Message)
	}
	return fmt.Sprintf("%s: %s", pe.File, pe.Message)
}

// HasErrors returns true if any parsing errors occurred
func (pr *ParseResult) HasErrors() bool {
	return len(pr.Errors) > 0
}

// AddError adds a parsing error to the result
func (pr *ParseResult) AddError(file string, line, col int, msg string) {
	pr.Errors = append(pr.Errors, ParseError{
		File:    file,
		Line:    line,
		Column:  col,
		Message: msg,
	})
}
