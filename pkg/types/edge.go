package types

// EdgeKind distinguishes static imports from dynamic ones
type EdgeKind string

const (
	EdgeStatic  EdgeKind = "static"
	EdgeDynamic EdgeKind = "dynamic"
)

// Locality tells whether an edge stays inside the graph
type Locality string

const (
	LocalityInternal Locality = "internal"
	LocalityExternal Locality = "external"
)

// Edge is a classified import edge. Edges are derived from module import
// lists and never stored independently.
type Edge struct {
	From      string
	To        string // resolved module id, or external id
	Specifier string
	Kind      EdgeKind
	Locality  Locality
}

// IsInternal returns true if the edge targets a module of the graph
func (e Edge) IsInternal() bool {
	return e.Locality == LocalityInternal
}

// IsStatic returns true for static import edges
func (e Edge) IsStatic() bool {
	return e.Kind == EdgeStatic
}
