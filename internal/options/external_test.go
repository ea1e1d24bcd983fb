package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/chunklink/pkg/types"
)

func TestExternalMatcher(t *testing.T) {
	calls := 0
	m, err := NewExternalMatcher([]string{"react", "@babel/*", "/^https?:/"}, func(id, importer string, resolved bool) bool {
		calls++
		return resolved && id == "/abs/vendor.js"
	})
	require.NoError(t, err)

	tests := []struct {
		id       string
		resolved bool
		want     bool
	}{
		{"react", false, true},
		{"react-dom", false, false},
		{"@babel/core", false, true},
		{"@babel/core/lib", false, false},
		{"https://cdn.example/x.js", false, true},
		{"/abs/vendor.js", true, true},
		{"/abs/vendor.js", false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.IsExternal(tt.id, "src/main.js", tt.resolved), tt.id)
	}

	// Repeated lookups hit the cache
	before := calls
	m.IsExternal("/abs/vendor.js", "src/main.js", true)
	assert.Equal(t, before, calls)
}

func TestExternalMatcher_InvalidPatterns(t *testing.T) {
	_, err := NewExternalMatcher([]string{"/(/"}, nil)
	assert.Equal(t, types.CodeInvalidOption, types.CodeOf(err))
}

func TestExternalMatcher_Nil(t *testing.T) {
	var m *ExternalMatcher
	assert.False(t, m.IsExternal("react", "", false))
}
