package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dshills/chunklink/internal/bundler"
	"github.com/dshills/chunklink/internal/diagnostics"
	"github.com/dshills/chunklink/internal/options"
	"github.com/dshills/chunklink/internal/storage"
	"github.com/dshills/chunklink/pkg/types"
)

var planFlags struct {
	graph                string
	config               string
	format               string
	db                   string
	save                 bool
	input                []string
	logLevel             string
	strictDeprecations   bool
	maxParallelFileOps   int
	preserveModules      bool
	inlineDynamicImports bool
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Allocate a module graph into chunks and print the plan",
	Long: `Loads every *.module.yaml / *.module.json manifest under --graph,
allocates chunks and links bindings, then prints the plan as JSON or YAML.

Options are resolved from defaults, the --config file, CHUNKLINK_*
environment variables (and --env-file), and finally these flags.
Warnings go to stderr. A fatal error exits with status 1 and prints
its code.

Example:
  chunklink plan --graph ./graph --config chunklink.yaml --format yaml
  chunklink plan --graph ./graph --input src/main.js --save`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringVar(&planFlags.graph, "graph", "", "Directory of module manifests")
	f.StringVar(&planFlags.config, "config", "", "Config file (.yaml, .yml, .json or .hcl)")
	f.StringVar(&planFlags.format, "format", "json", "Output format: json or yaml")
	f.StringVar(&planFlags.db, "db", "", "Build manifest database (with --save)")
	f.BoolVar(&planFlags.save, "save", false, "Store the build manifest")
	f.StringSliceVar(&planFlags.input, "input", nil, "Entry module ids, overriding the config file")
	f.StringVar(&planFlags.logLevel, "log-level", "", "silent, warn, info or debug")
	f.BoolVar(&planFlags.strictDeprecations, "strict-deprecations", false, "Treat deprecated options as errors")
	f.IntVar(&planFlags.maxParallelFileOps, "max-parallel-file-ops", 0, "Manifests parsed at once")
	f.BoolVar(&planFlags.preserveModules, "preserve-modules", false, "Emit one chunk per module")
	f.BoolVar(&planFlags.inlineDynamicImports, "inline-dynamic-imports", false, "Inline dynamic imports into the importing chunk")
	_ = planCmd.MarkFlagRequired("graph")
}

func runPlan(cmd *cobra.Command, args []string) error {
	if planFlags.format != "json" && planFlags.format != "yaml" {
		return fmt.Errorf("invalid --format %q (expected json or yaml)", planFlags.format)
	}

	in := options.Input{
		Flags:    flagOverrides(cmd),
		Renderer: diagnostics.NewZapRenderer(logger),
	}

	env, err := options.FromEnv(envFiles...)
	if err != nil {
		return err
	}
	in.Env = env

	if planFlags.config != "" {
		raw, err := options.LoadFile(planFlags.config)
		if err != nil {
			return err
		}
		in.File = raw
	}

	res, err := bundler.New(logger).Build(cmd.Context(), bundler.Request{
		GraphDir: planFlags.graph,
		Input:    in,
	})
	if err != nil {
		return err
	}

	saved := false
	if planFlags.save {
		if err := save(cmd, res); err != nil {
			return err
		}
		saved = true
	}

	return writePlan(cmd.OutOrStdout(), planFlags.format, newPlanOutput(res, saved))
}

// flagOverrides turns explicitly set flags into the flag precedence layer
func flagOverrides(cmd *cobra.Command) options.Overrides {
	f := cmd.Flags()
	var o options.Overrides
	if f.Changed("input") {
		o.Input = planFlags.input
	}
	if f.Changed("log-level") {
		o.LogLevel = &planFlags.logLevel
	}
	if f.Changed("strict-deprecations") {
		o.StrictDeprecations = &planFlags.strictDeprecations
	}
	if f.Changed("max-parallel-file-ops") {
		o.MaxParallelFileOps = &planFlags.maxParallelFileOps
	}
	if f.Changed("preserve-modules") {
		o.PreserveModules = &planFlags.preserveModules
	}
	if f.Changed("inline-dynamic-imports") {
		o.InlineDynamicImports = &planFlags.inlineDynamicImports
	}
	if f.Changed("db") {
		o.DBPath = &planFlags.db
	}
	return o
}

func save(cmd *cobra.Command, res *bundler.Result) error {
	store, err := storage.Open(res.Options.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open build store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveBuild(cmd.Context(), storage.FromResult(res)); err != nil {
		return err
	}
	logger.Debug("build saved", zap.String("build_id", res.BuildID), zap.String("db", res.Options.DBPath))
	return nil
}

// Output shapes

type planOutput struct {
	BuildID     string             `json:"build_id" yaml:"build_id"`
	GraphDir    string             `json:"graph_dir" yaml:"graph_dir"`
	Modules     int                `json:"modules" yaml:"modules"`
	DurationMS  int64              `json:"duration_ms" yaml:"duration_ms"`
	Saved       bool               `json:"saved" yaml:"saved"`
	Chunks      []chunkOutput      `json:"chunks" yaml:"chunks"`
	Diagnostics []diagnosticOutput `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

type chunkOutput struct {
	Name           string              `json:"name" yaml:"name"`
	Kind           string              `json:"kind" yaml:"kind"`
	FacadeOf       string              `json:"facade_of,omitempty" yaml:"facade_of,omitempty"`
	Entries        []string            `json:"entries,omitempty" yaml:"entries,omitempty"`
	Modules        []string            `json:"modules,omitempty" yaml:"modules,omitempty"`
	Dependencies   []string            `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Imports        map[string][]string `json:"imports,omitempty" yaml:"imports,omitempty"`
	Exports        []exportOutput      `json:"exports,omitempty" yaml:"exports,omitempty"`
	DynamicImports []dynamicOutput     `json:"dynamic_imports,omitempty" yaml:"dynamic_imports,omitempty"`
	Bindings       []bindingOutput     `json:"bindings,omitempty" yaml:"bindings,omitempty"`
	Wrappers       []string            `json:"wrappers,omitempty" yaml:"wrappers,omitempty"`
}

type exportOutput struct {
	Name   string `json:"name" yaml:"name"`
	Module string `json:"module" yaml:"module"`
	Symbol string `json:"symbol" yaml:"symbol"`
}

type dynamicOutput struct {
	Module    string `json:"module" yaml:"module"`
	Specifier string `json:"specifier" yaml:"specifier"`
	Chunk     string `json:"chunk,omitempty" yaml:"chunk,omitempty"`
	External  string `json:"external,omitempty" yaml:"external,omitempty"`
	Inline    bool   `json:"inline,omitempty" yaml:"inline,omitempty"`
	Wrapper   string `json:"wrapper,omitempty" yaml:"wrapper,omitempty"`
}

type bindingOutput struct {
	Module   string `json:"module" yaml:"module"`
	Local    string `json:"local,omitempty" yaml:"local,omitempty"`
	Imported string `json:"imported" yaml:"imported"`
	Kind     string `json:"kind" yaml:"kind"`
	Chunk    string `json:"chunk,omitempty" yaml:"chunk,omitempty"`
	Symbol   string `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	External string `json:"external,omitempty" yaml:"external,omitempty"`
	Wrapper  string `json:"wrapper,omitempty" yaml:"wrapper,omitempty"`
}

type diagnosticOutput struct {
	Level   string `json:"level" yaml:"level"`
	Code    string `json:"code,omitempty" yaml:"code,omitempty"`
	Message string `json:"message" yaml:"message"`
}

func newPlanOutput(res *bundler.Result, saved bool) planOutput {
	out := planOutput{
		BuildID:    res.BuildID,
		GraphDir:   res.GraphDir,
		Modules:    res.Modules,
		DurationMS: res.Duration.Milliseconds(),
		Saved:      saved,
	}
	for _, c := range res.Chunks.Chunks {
		out.Chunks = append(out.Chunks, newChunkOutput(c))
	}
	for _, d := range res.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, diagnosticOutput{
			Level:   string(d.Level),
			Code:    d.Code,
			Message: d.Message,
		})
	}
	return out
}

func newChunkOutput(c *types.Chunk) chunkOutput {
	out := chunkOutput{
		Name:         c.Name,
		Kind:         string(c.Kind),
		FacadeOf:     c.FacadeOf,
		Entries:      c.Entries,
		Modules:      c.Modules,
		Dependencies: c.Dependencies,
	}
	if len(c.Imports) > 0 {
		out.Imports = make(map[string][]string, len(c.Imports))
		for _, imp := range c.Imports {
			out.Imports[imp.Chunk] = imp.Symbols
		}
	}
	for _, e := range c.Exports {
		out.Exports = append(out.Exports, exportOutput{Name: e.Name, Module: e.Module, Symbol: e.Symbol})
	}
	for _, d := range c.DynamicImports {
		dyn := dynamicOutput{
			Module:    d.Module,
			Specifier: d.Specifier,
			Chunk:     d.Chunk,
			External:  d.External,
			Inline:    d.Inline,
		}
		if d.Wrapper != nil {
			dyn.Wrapper = d.Wrapper.Name
		}
		out.DynamicImports = append(out.DynamicImports, dyn)
	}
	for _, b := range c.Bindings {
		bo := bindingOutput{
			Module:   b.Module,
			Local:    b.Local,
			Imported: b.Imported,
			Kind:     string(b.Kind),
			Chunk:    b.ProducerChunk,
			Symbol:   b.Symbol,
			External: b.External,
		}
		if b.Wrapper != nil {
			bo.Wrapper = b.Wrapper.Name
		}
		out.Bindings = append(out.Bindings, bo)
	}
	for _, w := range c.Wrappers {
		out.Wrappers = append(out.Wrappers, w.Name)
	}
	return out
}

func writePlan(w io.Writer, format string, out planOutput) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode plan: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	return nil
}
