package options

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dshills/chunklink/internal/diagnostics"
	"github.com/dshills/chunklink/pkg/types"
)

// Built-in defaults
const (
	DefaultMaxParallelFileOps = 20
	DefaultDBPath             = ".chunklink/builds.db"
)

// EntrySignatures is the preserveEntrySignatures policy
type EntrySignatures string

const (
	SignaturesStrict         EntrySignatures = "strict"
	SignaturesExportsOnly    EntrySignatures = "exports-only"
	SignaturesAllowExtension EntrySignatures = "allow-extension"
	SignaturesFalse          EntrySignatures = "false"
)

// Entry is one declared entry module
type Entry struct {
	Name string // chunk name, from the input map key or the id's base name
	ID   string
}

// Hooks are programmatic options; they take precedence over every other layer
type Hooks struct {
	OnLog             diagnostics.LogHook
	OnWarn            diagnostics.WarnHook
	External          ExternalFunc
	ManualChunks      ManualFunc
	ModuleSideEffects SideEffectsFunc
}

// Input gathers every precedence layer for Normalize
type Input struct {
	File     *Raw // nil when no config file was given
	Env      Overrides
	Flags    Overrides
	Hooks    Hooks
	Renderer diagnostics.Renderer
}

// Options is the fully-populated, immutable options record consumed by the
// rest of the core
type Options struct {
	Entries                 []Entry
	External                *ExternalMatcher
	ManualChunks            *ManualChunks
	InlineDynamicImports    bool
	PreserveModules         bool
	PreserveEntrySignatures EntrySignatures
	ModuleSideEffects       SideEffectsFunc
	Interop                 *InteropTable
	LogLevel                diagnostics.LogLevel
	StrictDeprecations      bool
	MaxParallelFileOps      int // 0 means unbounded
	DBPath                  string

	Dispatcher *diagnostics.Dispatcher
}

// LoadFile decodes a YAML or HCL config file, chosen by extension
func LoadFile(path string) (*Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return DecodeYAML(data)
	case ".hcl":
		return DecodeHCL(path, data)
	default:
		return nil, types.ConfigError(types.CodeInvalidOption,
			"unsupported config file type %q (expected .yaml, .yml, .json or .hcl)", filepath.Ext(path))
	}
}

// Normalize resolves every option field by field. Precedence, lowest first:
// built-in defaults, config file, environment, CLI flags, programmatic hooks.
// The dispatcher is built first so that normalization warnings flow through
// the configured hooks.
func Normalize(in Input) (*Options, error) {
	raw := in.File
	if raw == nil {
		raw = &Raw{}
	}

	opts := &Options{
		MaxParallelFileOps: DefaultMaxParallelFileOps,
		DBPath:             DefaultDBPath,
	}

	// logLevel: default info < file < env < flags
	level := raw.LogLevel
	level = pickString(level, in.Env.LogLevel, in.Flags.LogLevel)
	logLevel, err := diagnostics.ParseLogLevel(level)
	if err != nil {
		return nil, types.ConfigError(types.CodeInvalidOption, "invalid value %q for option \"logLevel\"", level)
	}
	opts.LogLevel = logLevel

	// strictDeprecations: default false < file < env < flags
	opts.StrictDeprecations = pickBool(false, raw.StrictDeprecations, in.Env.StrictDeprecations, in.Flags.StrictDeprecations)

	dispatcher, err := diagnostics.New(diagnostics.Config{
		LogLevel:           opts.LogLevel,
		StrictDeprecations: opts.StrictDeprecations,
		OnLog:              in.Hooks.OnLog,
		OnWarn:             in.Hooks.OnWarn,
		Renderer:           in.Renderer,
	})
	if err != nil {
		return nil, err
	}
	opts.Dispatcher = dispatcher

	if err := warnUnknown(dispatcher, raw.Unknown, raw.Syntax == SyntaxHCL); err != nil {
		return nil, err
	}

	// input: file < flags
	if len(in.Flags.Input) > 0 {
		opts.Entries, err = parseInput(stringsToAny(in.Flags.Input))
	} else {
		opts.Entries, err = parseInput(raw.Input)
	}
	if err != nil {
		return nil, err
	}

	// maxParallelFileOps: default < file < env < flags; non-positive is unbounded
	opts.MaxParallelFileOps = pickInt(opts.MaxParallelFileOps, raw.MaxParallelFileOps, in.Env.MaxParallelFileOps, in.Flags.MaxParallelFileOps)
	if opts.MaxParallelFileOps < 0 {
		opts.MaxParallelFileOps = 0
	}

	// dbPath: default < env < flags
	if in.Env.DBPath != nil {
		opts.DBPath = *in.Env.DBPath
	}
	if in.Flags.DBPath != nil {
		opts.DBPath = *in.Flags.DBPath
	}

	// Output-level options win over their deprecated top-level aliases
	manual := raw.Output.ManualChunks
	if raw.ManualChunks != nil {
		if err := deprecateTopLevel(dispatcher, "manualChunks"); err != nil {
			return nil, err
		}
		if manual == nil {
			manual = raw.ManualChunks
		}
	}
	inline := raw.Output.InlineDynamicImports
	if raw.InlineDynamicImports != nil {
		if err := deprecateTopLevel(dispatcher, "inlineDynamicImports"); err != nil {
			return nil, err
		}
		if inline == nil {
			inline = raw.InlineDynamicImports
		}
	}
	preserve := raw.Output.PreserveModules
	if raw.PreserveModules != nil {
		if err := deprecateTopLevel(dispatcher, "preserveModules"); err != nil {
			return nil, err
		}
		if preserve == nil {
			preserve = raw.PreserveModules
		}
	}

	opts.InlineDynamicImports = pickBool(false, inline, in.Env.InlineDynamicImports, in.Flags.InlineDynamicImports)
	opts.PreserveModules = pickBool(false, preserve, in.Env.PreserveModules, in.Flags.PreserveModules)

	// manualChunks: mapping < hook
	if opts.ManualChunks, err = NewManualChunks(manual, in.Hooks.ManualChunks); err != nil {
		return nil, err
	}

	if opts.PreserveEntrySignatures, err = parseEntrySignatures(raw.PreserveEntrySignatures); err != nil {
		return nil, err
	}

	// moduleSideEffects: default true < file < hook
	if in.Hooks.ModuleSideEffects != nil {
		opts.ModuleSideEffects = in.Hooks.ModuleSideEffects
	} else if opts.ModuleSideEffects, err = parseModuleSideEffects(raw.Treeshake.ModuleSideEffects); err != nil {
		return nil, err
	}

	if opts.External, err = NewExternalMatcher(raw.External, in.Hooks.External); err != nil {
		return nil, err
	}

	if opts.Interop, err = parseInterop(raw.Output.Interop); err != nil {
		return nil, err
	}

	if opts.PreserveModules {
		if !opts.ManualChunks.Empty() {
			return nil, types.ConfigError(types.CodeInvalidOption,
				`the "output.manualChunks" option is not supported for "output.preserveModules"`)
		}
		if opts.InlineDynamicImports {
			return nil, types.ConfigError(types.CodeInvalidOption,
				`the "output.inlineDynamicImports" option is not supported for "output.preserveModules"`)
		}
	}

	return opts, nil
}

// parseInput accepts a list of ids or a name -> id mapping
func parseInput(v any) ([]Entry, error) {
	var entries []Entry
	switch val := v.(type) {
	case nil:
		return nil, types.ConfigError(types.CodeInvalidOption, `you must supply "input"`)
	case string:
		entries = append(entries, Entry{Name: EntryName(val), ID: val})
	case []any, []string:
		ids, err := toStrings(val)
		if err != nil {
			return nil, types.ConfigError(types.CodeInvalidOption, `invalid "input": %v`, err)
		}
		for _, id := range ids {
			entries = append(entries, Entry{Name: EntryName(id), ID: id})
		}
	case []Entry:
		entries = append(entries, val...)
		for _, e := range entries {
			if e.Name == "" {
				return nil, types.ConfigError(types.CodeInvalidOption, `"input" contains an empty chunk name`)
			}
		}
	case map[string]any:
		// Go maps carry no order; sort so the result is stable
		names := make([]string, 0, len(val))
		for name := range val {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			id, ok := val[name].(string)
			if !ok {
				return nil, types.ConfigError(types.CodeInvalidOption, `invalid "input" for %q: expected a module id`, name)
			}
			entries = append(entries, Entry{Name: name, ID: id})
		}
	default:
		return nil, types.ConfigError(types.CodeInvalidOption, `invalid "input": expected a list or a mapping, got %T`, v)
	}

	if len(entries) == 0 {
		return nil, types.ConfigError(types.CodeInvalidOption, `you must supply "input"`)
	}
	for _, e := range entries {
		if e.ID == "" {
			return nil, types.ConfigError(types.CodeInvalidOption, `"input" contains an empty module id`)
		}
	}
	return entries, nil
}

// EntryName derives a chunk name from a module id: base name without extension
func EntryName(id string) string {
	base := filepath.Base(filepath.ToSlash(id))
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

func parseEntrySignatures(v any) (EntrySignatures, error) {
	switch val := v.(type) {
	case nil:
		return SignaturesExportsOnly, nil
	case bool:
		if !val {
			return SignaturesFalse, nil
		}
	case string:
		switch sig := EntrySignatures(val); sig {
		case SignaturesStrict, SignaturesExportsOnly, SignaturesAllowExtension, SignaturesFalse:
			return sig, nil
		}
	}
	return "", types.ConfigError(types.CodeInvalidOption,
		`invalid value %s for option "preserveEntrySignatures" - use one of "strict", "exports-only", "allow-extension" or false`,
		describe(v))
}

// warnUnknown raises one aggregated warning for every unknown key
func warnUnknown(d *diagnostics.Dispatcher, unknown []string, hclSpelling bool) error {
	if len(unknown) == 0 {
		return nil
	}
	keys := append([]string(nil), unknown...)
	sort.Strings(keys)

	allowed := yamlKeys.allowed()
	if hclSpelling {
		allowed = hclKeys.allowed()
	}
	sort.Strings(allowed)

	ev := types.NewEvent(types.CodeUnknownOption, fmt.Sprintf(
		"unknown option(s): %s. Allowed options: %s",
		strings.Join(keys, ", "), strings.Join(allowed, ", ")))
	ev.Names = keys
	return d.Warn(ev)
}

func deprecateTopLevel(d *diagnostics.Dispatcher, name string) error {
	ev := types.NewEvent(types.CodeDeprecatedFeature, fmt.Sprintf(
		`the %q option is deprecated. Use the "output.%s" option instead`, name, name))
	ev.Names = []string{name}
	return d.Deprecate(ev)
}

func pickString(base string, layers ...*string) string {
	for _, l := range layers {
		if l != nil {
			base = *l
		}
	}
	return base
}

func pickBool(base bool, layers ...*bool) bool {
	for _, l := range layers {
		if l != nil {
			base = *l
		}
	}
	return base
}

func pickInt(base int, layers ...*int) int {
	for _, l := range layers {
		if l != nil {
			base = *l
		}
	}
	return base
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
