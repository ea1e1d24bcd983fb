package types

// BindingKind is the runtime representation chosen for one import binding
type BindingKind string

const (
	// BindingLocal is a direct reference inside the same chunk
	BindingLocal BindingKind = "local"
	// BindingChunk is a runtime import from another chunk
	BindingChunk BindingKind = "chunk"
	// BindingExternal is a direct pass-through reference to an external module
	BindingExternal BindingKind = "external"
	// BindingInterop is a runtime require wrapped in a namespace object
	BindingInterop BindingKind = "interop"
)

// InteropMode describes how an external module's shape is treated
type InteropMode string

const (
	InteropESModule    InteropMode = "esModule"
	InteropCompat      InteropMode = "compat"
	InteropDefaultOnly InteropMode = "defaultOnly"
)

// Binding is a resolved import or re-export binding
type Binding struct {
	// Consumer side
	Module   string
	Local    string
	Imported string
	Reexport bool

	// Resolution
	Kind           BindingKind
	ProducerModule string // producing module for internal bindings
	ProducerChunk  string
	Symbol         string // name to read from the producer
	External       string // external id for external and interop bindings
	Wrapper        *InteropWrapper
}

// InteropWrapper describes the synthetic namespace for one foreign
// dependency as seen from one consuming chunk. It is created once and never
// mutated afterwards.
type InteropWrapper struct {
	Name     string // helper binding name inside the consuming chunk
	Target   string // module id or external id
	Chunk    string // consuming chunk
	External bool

	// NamedKeys is the snapshot of named accessors. Nil means the keys are
	// enumerated from the runtime value when the wrapper is built.
	NamedKeys []string

	Passthrough bool // target self-identifies as native; no copy is made
	DefaultOnly bool
}
