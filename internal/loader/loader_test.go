package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dshills/chunklink/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLoad_Basic(t *testing.T) {
	l := New(nil)
	modules, stats, err := l.Load(context.Background(), "testdata/basic", &Config{MaxParallelFileOps: 2})
	require.NoError(t, err)

	ids := make([]string, len(modules))
	for i, m := range modules {
		ids[i] = m.ID
	}
	// lib/ sorts before src/; .cache is skipped
	assert.Equal(t, []string{"lib/cjs.js", "src/main.js", "src/util.js"}, ids)

	assert.Equal(t, 3, stats.FilesParsed)
	assert.Equal(t, 0, stats.FilesFailed)
	assert.LessOrEqual(t, stats.PeakParallel, 2)
	assert.Equal(t, types.FormatForeign, modules[0].Format)
	assert.Equal(t, types.SideEffectsNever, modules[2].SideEffects)
}

func TestLoad_SideEffectsDefault(t *testing.T) {
	l := New(nil)
	modules, _, err := l.Load(context.Background(), "testdata/basic", &Config{
		ModuleSideEffects: func(id string, external bool) bool { return id != "src/main.js" },
	})
	require.NoError(t, err)

	byID := make(map[string]*types.Module)
	for _, m := range modules {
		byID[m.ID] = m
	}
	assert.Equal(t, types.SideEffectsNever, byID["src/main.js"].SideEffects)
	assert.Equal(t, types.SideEffectsAlways, byID["lib/cjs.js"].SideEffects)
	// Explicit classification is kept
	assert.Equal(t, types.SideEffectsNever, byID["src/util.js"].SideEffects)
}

func TestLoad_Deterministic(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 40; i++ {
		content := fmt.Sprintf("id: src/m%02d.js\n", i)
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("m%02d.module.yaml", i)), []byte(content), 0644))
	}

	l := New(nil)
	first, _, err := l.Load(context.Background(), dir, &Config{MaxParallelFileOps: 8})
	require.NoError(t, err)

	for run := 0; run < 5; run++ {
		again, stats, err := l.Load(context.Background(), dir, &Config{MaxParallelFileOps: 8})
		require.NoError(t, err)
		require.Len(t, again, 40)
		assert.LessOrEqual(t, stats.PeakParallel, 8)
		for i := range first {
			assert.Equal(t, first[i].ID, again[i].ID)
		}
	}
}

func TestLoad_ParseErrorFailsLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.module.yaml"), []byte("id: src/a.js\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.module.yaml"), []byte("format: native\n"), 0644))

	_, stats, err := New(nil).Load(context.Background(), dir, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParseFailed)
	assert.Contains(t, err.Error(), "b.module.yaml")
	assert.Equal(t, 1, stats.FilesFailed)
	assert.Equal(t, 1, stats.FilesParsed)
}

func TestLoad_DuplicateModule(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.module.yaml"), []byte("id: src/a.js\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.module.yaml"), []byte("id: src/a.js\n"), 0644))

	_, _, err := New(nil).Load(context.Background(), dir, nil)
	require.Error(t, err)
	assert.Equal(t, types.CodeDuplicateModule, types.CodeOf(err))
}

func TestLoad_EmptyDirectory(t *testing.T) {
	modules, stats, err := New(nil).Load(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, modules)
	assert.Equal(t, 0, stats.FilesParsed)
}

func TestLoad_NotADirectory(t *testing.T) {
	_, _, err := New(nil).Load(context.Background(), "testdata/basic/src/main.module.yaml", nil)
	assert.Error(t, err)

	_, _, err = New(nil).Load(context.Background(), "testdata/missing", nil)
	assert.Error(t, err)
}

func TestLoad_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New(nil).Load(ctx, "testdata/basic", &Config{MaxParallelFileOps: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildLock(t *testing.T) {
	var lock BuildLock
	assert.False(t, lock.Held())
	assert.True(t, lock.TryAcquire())
	assert.True(t, lock.Held())
	assert.False(t, lock.TryAcquire())
	lock.Release()
	assert.True(t, lock.TryAcquire())
	lock.Release()
}
