package options

import (
	"fmt"

	"github.com/dshills/chunklink/pkg/types"
)

// SideEffectsFunc decides whether a module has side effects when the
// analyzer did not classify it
type SideEffectsFunc func(id string, external bool) bool

// parseModuleSideEffects normalizes treeshake.moduleSideEffects
func parseModuleSideEffects(v any) (SideEffectsFunc, error) {
	switch val := v.(type) {
	case nil:
		return func(string, bool) bool { return true }, nil
	case bool:
		return func(string, bool) bool { return val }, nil
	case string:
		if val == "no-external" {
			return func(_ string, external bool) bool { return !external }, nil
		}
	case []any, []string:
		ids, err := toStrings(val)
		if err != nil {
			return nil, invalidSideEffects(v)
		}
		set := make(map[string]bool, len(ids))
		for _, id := range ids {
			set[id] = true
		}
		return func(id string, _ bool) bool { return set[id] }, nil
	}
	return nil, invalidSideEffects(v)
}

func invalidSideEffects(v any) error {
	return types.ConfigError(types.CodeInvalidOption,
		`invalid value %s for option "treeshake.moduleSideEffects" - please use one of false, "no-external", a function or an array`,
		describe(v))
}

// toStrings converts a decoded list into strings
func toStrings(v any) ([]string, error) {
	switch val := v.(type) {
	case []string:
		return val, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected a string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", v)
	}
}

func describe(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}
