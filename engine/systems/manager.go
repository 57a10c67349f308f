package systems

import (
	"context"

	"github.com/spaghettifunk/shaderforge/engine/assets"
	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/renderer"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

type SystemManager struct {
	config       *core.Config
	source       *assets.ShaderSource
	shaderSystem *ShaderSystem
	catalog      *Catalog
}

/**
 * @brief Creates the shader system for backend and registers the engine
 * shaders. Nothing is compiled until Build.
 */
func NewSystemManager(cfg *core.Config, backend renderer.Backend) (*SystemManager, error) {
	if cfg == nil {
		cfg = core.DefaultConfig()
	}
	source := assets.NewShaderSource(cfg.Shaders.Path)

	ss, err := NewShaderSystem(cfg, backend, source)
	if err != nil {
		return nil, err
	}
	catalog, err := LoadCatalog(ss)
	if err != nil {
		_ = ss.Shutdown()
		return nil, err
	}
	return &SystemManager{
		config:       cfg,
		source:       source,
		shaderSystem: ss,
		catalog:      catalog,
	}, nil
}

func (sm *SystemManager) ShaderSystem() *ShaderSystem {
	return sm.shaderSystem
}

func (sm *SystemManager) Catalog() *Catalog {
	return sm.catalog
}

// sourceFiles lists the stage files of the registered shaders.
func (sm *SystemManager) sourceFiles() []string {
	seen := make(map[string]bool)
	names := []string{"deformVertexes_vp.glsl"}
	for _, sh := range sm.shaderSystem.Shaders() {
		for _, stage := range []metadata.ShaderStage{metadata.ShaderStageVertex, metadata.ShaderStageFragment, metadata.ShaderStageCompute} {
			if !sh.stages.Has(stage) {
				continue
			}
			name := assets.StageFilename(sh.mainShaderName, stage)
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

/** @brief Reads the sources ahead of time and builds every queued shader. */
func (sm *SystemManager) Build(ctx context.Context) error {
	if err := sm.source.Preload(ctx, sm.sourceFiles()); err != nil {
		return err
	}
	return sm.shaderSystem.BuildAll()
}

/**
 * @brief Rebuilds the shaders affected by source changes until ctx is done.
 * It returns immediately when watching is disabled. Changes are applied one
 * at a time on the calling goroutine.
 */
func (sm *SystemManager) Watch(ctx context.Context) error {
	changes, err := sm.shaderSystem.Watch()
	if err != nil {
		return err
	}
	if changes == nil {
		return nil
	}
	core.LogInfo("Watching shader sources in %s", sm.source.Path())

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-changes:
			if !ok {
				return nil
			}
			for _, sh := range sm.shaderSystem.HandleSourceChange(ev) {
				sm.shaderSystem.MarkProgramForBuilding(sh)
			}
			if err := sm.shaderSystem.BuildAll(); err != nil {
				core.LogError("rebuild after change to %s failed: %s", ev.Name, err.Error())
			}
		}
	}
}

func (sm *SystemManager) Shutdown() error {
	return sm.shaderSystem.Shutdown()
}
