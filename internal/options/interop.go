package options

import (
	"github.com/dshills/chunklink/pkg/types"
)

// InteropTable maps external ids to their interop mode
type InteropTable struct {
	fallback types.InteropMode
	byID     map[string]types.InteropMode
}

// parseInterop accepts a single mode or an id -> mode object where "*"
// sets the fallback
func parseInterop(v any) (*InteropTable, error) {
	t := &InteropTable{fallback: types.InteropCompat, byID: make(map[string]types.InteropMode)}

	switch val := v.(type) {
	case nil:
		return t, nil
	case string:
		mode, err := parseInteropMode(val)
		if err != nil {
			return nil, err
		}
		t.fallback = mode
		return t, nil
	case map[string]any:
		for id, raw := range val {
			s, ok := raw.(string)
			if !ok {
				return nil, types.ConfigError(types.CodeInvalidOption,
					`invalid value %s for "output.interop" of %q`, describe(raw), id)
			}
			mode, err := parseInteropMode(s)
			if err != nil {
				return nil, err
			}
			if id == "*" {
				t.fallback = mode
				continue
			}
			t.byID[id] = mode
		}
		return t, nil
	default:
		return nil, types.ConfigError(types.CodeInvalidOption,
			`invalid value %s for "output.interop"`, describe(v))
	}
}

func parseInteropMode(s string) (types.InteropMode, error) {
	switch mode := types.InteropMode(s); mode {
	case types.InteropESModule, types.InteropCompat, types.InteropDefaultOnly:
		return mode, nil
	default:
		return "", types.ConfigError(types.CodeInvalidOption,
			`invalid value %q for "output.interop" - use one of "esModule", "compat" or "defaultOnly"`, s)
	}
}

// Mode returns the interop mode for an external id
func (t *InteropTable) Mode(id string) types.InteropMode {
	if t == nil {
		return types.InteropCompat
	}
	if mode, ok := t.byID[id]; ok {
		return mode
	}
	return t.fallback
}
