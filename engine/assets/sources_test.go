package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

func exportBuiltins(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, ExportBuiltins(dir, func(path string, data []byte) error {
		return os.WriteFile(path, data, 0o644)
	}))
	return dir
}

func TestBuiltinSources(t *testing.T) {
	names := BuiltinNames()
	assert.Contains(t, names, "common.glsl")
	assert.Contains(t, names, "deformVertexes_vp.glsl")
	assert.IsIncreasing(t, names)

	s := NewShaderSource("")
	assert.False(t, s.External())
	text, err := s.Text("generic_vp.glsl")
	require.NoError(t, err)
	builtin, ok := BuiltinText("generic_vp.glsl")
	require.True(t, ok)
	assert.Equal(t, builtin, text)

	_, err = s.Text("missing_vp.glsl")
	assert.True(t, errors.Is(err, core.ErrShaderSourceNotFound))
	assert.NoError(t, s.Preload(context.Background(), []string{"missing_vp.glsl"}))
	_, err = s.Watch()
	assert.Error(t, err)
}

func TestExternalSources(t *testing.T) {
	dir := exportBuiltins(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "screen_fp.glsl"), []byte("void main() {}\r\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty_fp.glsl"), nil, 0o644))

	s := NewShaderSource(dir)
	assert.True(t, s.External())
	assert.Equal(t, dir, s.Path())

	text, err := s.Text("screen_fp.glsl")
	require.NoError(t, err)
	assert.Equal(t, "void main() {}\n", text)

	// the loaded copy is kept until invalidated
	require.NoError(t, os.WriteFile(filepath.Join(dir, "screen_fp.glsl"), []byte("changed\n"), 0o644))
	text, err = s.Text("screen_fp.glsl")
	require.NoError(t, err)
	assert.Equal(t, "void main() {}\n", text)
	s.Invalidate("screen_fp.glsl")
	text, err = s.Text("screen_fp.glsl")
	require.NoError(t, err)
	assert.Equal(t, "changed\n", text)

	_, err = s.Text("empty_fp.glsl")
	assert.True(t, errors.Is(err, core.ErrShaderSourceEmpty))
	_, err = s.Text("missing_fp.glsl")
	assert.True(t, errors.Is(err, core.ErrShaderSourceNotFound))
}

func TestPreload(t *testing.T) {
	s := NewShaderSource(exportBuiltins(t))
	require.NoError(t, s.Preload(context.Background(), []string{"generic_vp.glsl", "generic_fp.glsl", "common.glsl"}))
	s.mutex.RLock()
	assert.Len(t, s.texts, 3)
	s.mutex.RUnlock()

	err := s.Preload(context.Background(), []string{"generic_vp.glsl", "missing_fp.glsl"})
	assert.True(t, errors.Is(err, core.ErrShaderSourceNotFound))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.Preload(ctx, []string{"screen_vp.glsl"}))
}

func TestStageFilename(t *testing.T) {
	assert.Equal(t, "generic_vp.glsl", StageFilename("generic", metadata.ShaderStageVertex))
	assert.Equal(t, "generic_fp.glsl", StageFilename("generic", metadata.ShaderStageFragment))
	assert.Equal(t, "cull_cp.glsl", StageFilename("cull", metadata.ShaderStageCompute))
	assert.Equal(t, "common.glsl", StageFilename("common.glsl", metadata.ShaderStageVertex))
}
