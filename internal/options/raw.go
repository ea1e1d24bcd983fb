package options

// Raw is a configuration file as decoded, before normalization. Polymorphic
// fields keep their decoded Go shape (bool, string, []any, map[string]any).
// An input mapping read from a file is kept as []Entry in source order.
type Raw struct {
	Input                   any                 `yaml:"input"`
	External                []string            `yaml:"external"`
	ManualChunks            map[string][]string `yaml:"manualChunks"`
	InlineDynamicImports    *bool               `yaml:"inlineDynamicImports"`
	PreserveModules         *bool               `yaml:"preserveModules"`
	PreserveEntrySignatures any                 `yaml:"preserveEntrySignatures"`
	StrictDeprecations      *bool               `yaml:"strictDeprecations"`
	LogLevel                string              `yaml:"logLevel"`
	MaxParallelFileOps      *int                `yaml:"maxParallelFileOps"`
	Treeshake               RawTreeshake        `yaml:"treeshake"`
	Output                  RawOutput           `yaml:"output"`

	// Syntax is the file format the keys are spelled in
	Syntax string `yaml:"-"`

	// Unknown holds unrecognized keys found while decoding, dotted for
	// nested sections ("output.foo")
	Unknown []string `yaml:"-"`
}

// RawTreeshake is the treeshake section of a configuration file
type RawTreeshake struct {
	ModuleSideEffects any `yaml:"moduleSideEffects"`
}

// RawOutput is the output section of a configuration file
type RawOutput struct {
	ManualChunks         map[string][]string `yaml:"manualChunks"`
	InlineDynamicImports *bool               `yaml:"inlineDynamicImports"`
	PreserveModules      *bool               `yaml:"preserveModules"`
	Interop              any                 `yaml:"interop"`
}

// Config file syntaxes
const (
	SyntaxYAML = "yaml"
	SyntaxHCL  = "hcl"
)

// Recognized keys per section, in the spelling of each file format
var (
	yamlKeys = sectionKeys{
		root: []string{
			"external", "inlineDynamicImports", "input", "logLevel", "manualChunks",
			"maxParallelFileOps", "output", "preserveEntrySignatures", "preserveModules",
			"strictDeprecations", "treeshake",
		},
		treeshake: []string{"moduleSideEffects"},
		output:    []string{"inlineDynamicImports", "interop", "manualChunks", "preserveModules"},
	}

	hclKeys = sectionKeys{
		root: []string{
			"external", "inline_dynamic_imports", "input", "log_level", "manual_chunks",
			"max_parallel_file_ops", "output", "preserve_entry_signatures", "preserve_modules",
			"strict_deprecations", "treeshake",
		},
		treeshake: []string{"module_side_effects"},
		output:    []string{"inline_dynamic_imports", "interop", "manual_chunks", "preserve_modules"},
	}
)

type sectionKeys struct {
	root      []string
	treeshake []string
	output    []string
}

// allowed returns every recognized key, nested ones dotted
func (s sectionKeys) allowed() []string {
	out := make([]string, 0, len(s.root)+len(s.treeshake)+len(s.output))
	out = append(out, s.root...)
	for _, k := range s.treeshake {
		out = append(out, "treeshake."+k)
	}
	for _, k := range s.output {
		out = append(out, "output."+k)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
