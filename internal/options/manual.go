package options

import (
	"sort"

	"github.com/dshills/chunklink/pkg/types"
)

// ManualFunc is a host function assigning a module to a named chunk
type ManualFunc func(id string) (string, bool)

// ManualChunks resolves manual chunk assignments. A nil *ManualChunks
// assigns nothing.
type ManualChunks struct {
	byID     map[string]string
	declared []string
	fn       ManualFunc
}

// NewManualChunks builds the assignment table from a name -> ids mapping.
// A module listed under two names is a configuration error.
func NewManualChunks(mapping map[string][]string, fn ManualFunc) (*ManualChunks, error) {
	if fn != nil {
		return &ManualChunks{fn: fn}, nil
	}
	if len(mapping) == 0 {
		return nil, nil
	}

	// Map iteration is random; walk names sorted for stable errors and order
	names := make([]string, 0, len(mapping))
	for name := range mapping {
		names = append(names, name)
	}
	sort.Strings(names)

	m := &ManualChunks{byID: make(map[string]string)}
	for _, name := range names {
		if name == "" {
			return nil, types.ConfigError(types.CodeInvalidOption, "manual chunk names cannot be empty")
		}
		for _, id := range mapping[name] {
			if prev, ok := m.byID[id]; ok && prev != name {
				return nil, types.ConfigError(types.CodeInvalidOption,
					"cannot assign %q to the %q chunk as it is already in the %q chunk", id, name, prev)
			}
			if _, ok := m.byID[id]; !ok {
				m.declared = append(m.declared, id)
			}
			m.byID[id] = name
		}
	}
	return m, nil
}

// Lookup returns the manual chunk name for a module
func (m *ManualChunks) Lookup(id string) (string, bool) {
	if m == nil {
		return "", false
	}
	if m.fn != nil {
		name, ok := m.fn(id)
		return name, ok && name != ""
	}
	name, ok := m.byID[id]
	return name, ok
}

// Declared returns module ids named by a static mapping. Function-based
// assignments declare nothing up front.
func (m *ManualChunks) Declared() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.declared))
	copy(out, m.declared)
	return out
}

// Empty reports whether no assignment can ever match
func (m *ManualChunks) Empty() bool {
	return m == nil || (m.fn == nil && len(m.byID) == 0)
}
