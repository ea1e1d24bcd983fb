package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dshills/chunklink/pkg/types"
)

func TestZapRenderer(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := NewZapRenderer(zap.New(core))

	ev := types.NewEvent(types.CodeUnresolvedImport, "could not resolve ./x.js")
	ev.ID = "src/main.js"
	r.Render(types.LevelWarn, ev)
	r.Render(types.LevelInfo, types.NewEvent("I", "info"))
	r.Render(types.LevelDebug, types.NewEvent("D", "debug"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "could not resolve ./x.js (src/main.js)", entries[0].Message)
	assert.Equal(t, types.CodeUnresolvedImport, entries[0].ContextMap()["code"])
	assert.Equal(t, "src/main.js", entries[0].ContextMap()["id"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
}

func TestRecorder_Forwards(t *testing.T) {
	inner := NewRecorder(nil)
	outer := NewRecorder(inner)

	outer.Render(types.LevelWarn, types.NewEvent("A", "a"))

	assert.Len(t, outer.Entries(), 1)
	assert.Len(t, inner.Entries(), 1)
	assert.Equal(t, 1, outer.Count("A"))
	assert.Equal(t, 0, outer.Count("B"))
}

func TestNewZapRenderer_NilLogger(t *testing.T) {
	r := NewZapRenderer(nil)
	assert.NotPanics(t, func() {
		r.Render(types.LevelWarn, types.NewEvent("A", "a"))
	})
}
