package systems

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/shaderforge/engine/renderer/software"
)

func TestSystemManagerBuild(t *testing.T) {
	cfg := testConfig(t)
	cfg.Shaders.Path = writeSources(t, nil)
	sm, err := NewSystemManager(cfg, software.New())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sm.Shutdown()
	})

	files := sm.sourceFiles()
	assert.Contains(t, files, "deformVertexes_vp.glsl")
	assert.Contains(t, files, "generic_vp.glsl")
	assert.Contains(t, files, "generic_fp.glsl")
	// material variants read the files of their main shader
	assert.NotContains(t, files, "genericMaterial_vp.glsl")

	require.NoError(t, sm.Build(context.Background()))
	assert.NotZero(t, sm.ShaderSystem().Metrics().Programs)
	assert.NotNil(t, sm.Catalog().Generic)
}

func TestSystemManagerDefaults(t *testing.T) {
	_, err := NewSystemManager(nil, nil)
	assert.Error(t, err)
}

func TestSystemManagerWatchDisabled(t *testing.T) {
	sm, err := NewSystemManager(testConfig(t), software.New())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sm.Shutdown()
	})
	assert.NoError(t, sm.Watch(context.Background()))

	sm.shaderSystem.config.Watch = true
	// built-in sources cannot be watched
	assert.Error(t, sm.Watch(context.Background()))
}

func TestSystemManagerWatchStopsWithContext(t *testing.T) {
	cfg := testConfig(t)
	cfg.Shaders.Path = writeSources(t, nil)
	cfg.Shaders.Watch = true
	sm, err := NewSystemManager(cfg, software.New())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sm.Shutdown()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- sm.Watch(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
