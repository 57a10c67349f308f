package systems

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/google/uuid"

	"github.com/spaghettifunk/shaderforge/engine/assets"
	"github.com/spaghettifunk/shaderforge/engine/containers"
	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/renderer"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

/**
 * @brief Owns every logical shader, the stage and program descriptors shared
 * between them and the generated headers. All calls must come from the
 * goroutine owning the backend.
 */
type ShaderSystem struct {
	config   core.ShaderConfig
	renderer core.RendererConfig
	backend  renderer.Backend
	/** @brief The backend capabilities narrowed by the configuration. */
	caps   metadata.Capabilities
	source *assets.ShaderSource

	cacheHome string
	session   uuid.UUID

	headers          builtinHeaders
	glslVersion      int
	driverHash       uint32
	cacheInvalidated bool

	shaders []*Shader
	lookup  map[string]*Shader
	queue   *containers.RingQueue[*Shader]

	descriptors  []*metadata.ShaderDescriptor
	programs     []*metadata.ShaderProgramDescriptor
	boundProgram uint32
	boundShader  *Shader

	deformLookup map[string]int
	deformSteps  []string
	deformCount  int

	globalUBO *GlobalUBOProxy
	metrics   *core.BuildMetrics
	/** @brief The number of stage texts assembled so far. */
	assemblies int
}

/**
 * @brief Creates the shader system for backend. The configuration decides
 * which optional paths are used and must not change afterwards.
 */
func NewShaderSystem(cfg *core.Config, backend renderer.Backend, source *assets.ShaderSource) (*ShaderSystem, error) {
	if cfg == nil {
		cfg = core.DefaultConfig()
	}
	if backend == nil {
		err := fmt.Errorf("NewShaderSystem - backend must not be nil")
		core.LogError("%s", err.Error())
		return nil, err
	}
	if source == nil {
		source = assets.NewShaderSource(cfg.Shaders.Path)
	}

	cacheHome, err := cfg.ResolveCachePath()
	if err != nil {
		core.LogWarn("shader cache disabled, cannot resolve '%s': %s", cfg.Shaders.CachePath, err.Error())
		cacheHome = ""
	}

	session := uuid.New()
	ss := &ShaderSystem{
		config:       cfg.Shaders,
		renderer:     cfg.Renderer,
		backend:      backend,
		source:       source,
		cacheHome:    cacheHome,
		session:      session,
		lookup:       make(map[string]*Shader),
		queue:        containers.NewRingQueue[*Shader](64),
		deformLookup: make(map[string]int),
		metrics:      core.NewBuildMetrics(session.String()),
	}
	if err := ss.initialize(); err != nil {
		return nil, err
	}
	return ss, nil
}

func (ss *ShaderSystem) initialize() error {
	ss.caps = effectiveCapabilities(*ss.backend.Capabilities(), ss.config)
	ss.metrics.Renderer = ss.caps.Renderer

	if v, ok := ParseShadingLanguageVersion(ss.caps.ShadingLanguageVersion); ok {
		ss.glslVersion = v
	} else {
		ss.glslVersion = ss.caps.GLSLVersion
	}

	ss.InitDriverInfo()
	ss.GenerateBuiltinHeaders()

	// the stage without deforms
	if _, err := ss.GetDeformShaderIndex(nil); err != nil {
		return err
	}

	if ss.caps.PushBuffer {
		proxy, err := newGlobalUBOProxy(ss)
		if err != nil {
			return err
		}
		ss.globalUBO = proxy
	}

	core.LogDebug("shader system %s: GLSL %d, material system %t, push buffer %t, bindless %t",
		ss.session, ss.glslVersion, ss.caps.MaterialSystem, ss.caps.PushBuffer, ss.caps.BindlessTextures)
	return nil
}

// effectiveCapabilities narrows what the backend supports to what the
// configuration enables.
func effectiveCapabilities(caps metadata.Capabilities, cfg core.ShaderConfig) metadata.Capabilities {
	caps.Extensions = append([]metadata.Extension(nil), caps.Extensions...)
	caps.MaterialSystem = cfg.MaterialSystem && caps.UniformBufferObject && caps.ShaderStorageBuffer
	caps.PushBuffer = cfg.PushBuffer && caps.UniformBufferObject
	_, bindless := caps.Extension("ARB_bindless_texture")
	caps.BindlessTextures = cfg.BindlessTextures && bindless
	return caps
}

/** @brief The capabilities the shaders are generated for. */
func (ss *ShaderSystem) Capabilities() metadata.Capabilities {
	return ss.caps
}

func (ss *ShaderSystem) GLSLVersion() int {
	return ss.glslVersion
}

func (ss *ShaderSystem) Session() uuid.UUID {
	return ss.session
}

func (ss *ShaderSystem) Metrics() *core.BuildMetrics {
	return ss.metrics
}

/** @brief The global buffer owner, nil when the push buffer is not used. */
func (ss *ShaderSystem) GlobalUBO() *GlobalUBOProxy {
	return ss.globalUBO
}

/** @brief The number of stage texts assembled since creation. */
func (ss *ShaderSystem) AssemblyCount() int {
	return ss.assemblies
}

/** @brief The stage descriptors created so far. */
func (ss *ShaderSystem) Descriptors() []*metadata.ShaderDescriptor {
	return ss.descriptors
}

/**
 * @brief Completes a shader after its uniforms, blocks and macros are
 * declared: packs its material struct, declares the injected blocks and makes
 * it available by name.
 */
func (ss *ShaderSystem) RegisterShader(sh *Shader) error {
	if sh.system != ss {
		err := fmt.Errorf("shader %s belongs to another shader system", sh.name)
		core.LogError("%s", err.Error())
		return err
	}
	if _, ok := ss.lookup[sh.name]; ok {
		err := fmt.Errorf("shader %s is already registered", sh.name)
		core.LogError("%s", err.Error())
		return err
	}

	if err := sh.packMaterial(); err != nil {
		core.LogError("%s", err.Error())
		return err
	}

	if sh.materialInjection() {
		sh.NewUniformBlock("materialsUBO", metadata.BufferBindMaterials)
		if ss.texDataInUBO() {
			sh.NewUniformBlock("texDataUBO", metadata.BufferBindTexData)
		}
		sh.NewUniformBlock("lightMapDataUBO", metadata.BufferBindLightmapData)
	}
	if sh.globalInjection() {
		ss.globalUBO.checkGlobals(sh)
		sh.NewUniformBlock("globalUBO", metadata.BufferBindGlobalData)
	}

	sh.registered = true
	ss.shaders = append(ss.shaders, sh)
	ss.lookup[sh.name] = sh
	ss.metrics.Shader(sh.name)
	return nil
}

/**
 * @brief Returns the registered shader called name. The error names the
 * closest registered shader when there is one.
 */
func (ss *ShaderSystem) Shader(name string) (*Shader, error) {
	if sh, ok := ss.lookup[name]; ok {
		return sh, nil
	}

	best, bestScore := "", 0.0
	for _, sh := range ss.shaders {
		score := strutil.Similarity(name, sh.name, metrics.NewLevenshtein())
		if score > bestScore {
			best, bestScore = sh.name, score
		}
	}
	if bestScore >= 0.5 {
		return nil, fmt.Errorf("%w: %s, did you mean %s?", core.ErrShaderNotFound, name, best)
	}
	return nil, fmt.Errorf("%w: %s", core.ErrShaderNotFound, name)
}

/** @brief The registered shaders in registration order. */
func (ss *ShaderSystem) Shaders() []*Shader {
	return ss.shaders
}

/** @brief Queues every permutation of sh for the next BuildAll. */
func (ss *ShaderSystem) MarkProgramForBuilding(sh *Shader) {
	ss.queue.Enqueue(sh)
}

/**
 * @brief Builds every valid permutation of the queued shaders, in queue order.
 * The first compile or link failure stops the build and is returned.
 */
func (ss *ShaderSystem) BuildAll() error {
	clock := core.NewClock()
	clock.Start()
	ss.metrics.Reset()

	var buildErr error
	for !ss.queue.IsEmpty() {
		sh, err := ss.queue.Dequeue()
		if err != nil {
			break
		}
		if buildErr = ss.buildShaderPermutations(sh); buildErr != nil {
			ss.queue.Clear()
			break
		}
	}
	ss.metrics.Total.Add(clock.Stop())

	var ctx core.EventContext
	ctx.Data.U32[0] = uint32(ss.metrics.Programs)
	for _, name := range ss.metrics.ShaderNames() {
		ctx.Data.U32[1] += uint32(ss.metrics.Shader(name).Failed)
	}
	core.EventFire(core.EVENT_CODE_SHADERS_BUILT, ss, ctx)

	if buildErr != nil {
		return buildErr
	}
	core.LogInfo("%s", ss.metrics.Summary())
	return nil
}

func (ss *ShaderSystem) buildShaderPermutations(sh *Shader) error {
	stats := ss.metrics.Shader(sh.name)
	for i := uint32(0); i < sh.NumPermutations(); i++ {
		if _, ok := sh.GetCompileMacrosString(i, metadata.ShaderStageVertexFragment); !ok || ss.IsUnusedPermutation(sh, i) {
			stats.Unused++
			continue
		}
		if _, err := ss.BuildPermutation(sh, i, 0); err != nil {
			stats.Failed++
			return err
		}
		stats.Permutations++
	}
	return nil
}

/** @brief Deletes every program and stage and forgets the deforms. Shaders stay registered. */
func (ss *ShaderSystem) FreeAll() {
	for _, sh := range ss.shaders {
		sh.deletePrograms()
		sh.mainTexts = make(map[metadata.ShaderStage]string)
	}
	for _, p := range ss.programs {
		ss.backend.DeleteProgram(p.ID)
	}
	ss.programs = nil
	for _, d := range ss.descriptors {
		if d.ID != 0 {
			ss.backend.DeleteShader(d.ID)
		}
	}
	ss.descriptors = nil

	ss.deformLookup = make(map[string]int)
	ss.deformSteps = nil
	ss.deformCount = 0
	ss.queue.Clear()
	ss.boundProgram = 0
	ss.boundShader = nil
}

/** @brief Releases every backend object and stops watching sources. */
func (ss *ShaderSystem) Shutdown() error {
	ss.FreeAll()
	ss.shaders = nil
	ss.lookup = make(map[string]*Shader)
	return ss.source.Close()
}

/**
 * @brief Recreates the deform stage without steps after FreeAll, so that
 * programs can be built again.
 */
func (ss *ShaderSystem) Reset() error {
	ss.FreeAll()
	_, err := ss.GetDeformShaderIndex(nil)
	return err
}

/**
 * @brief Forgets everything derived from a changed source file. Shaders whose
 * main stages come from the file lose their programs; a changed insert or
 * deform file affects every shader. Programs are rebuilt on next use.
 * Returns the shaders that lost their programs.
 */
func (ss *ShaderSystem) ReloadSource(filename string) []*Shader {
	ss.source.Invalidate(filename)

	base := strings.TrimSuffix(path.Base(filename), ".glsl")
	var affected []*Shader
	for _, sh := range ss.shaders {
		for _, stage := range []metadata.ShaderStage{metadata.ShaderStageVertex, metadata.ShaderStageFragment, metadata.ShaderStageCompute} {
			if sh.stages.Has(stage) && sh.mainShaderName+stage.Postfix() == base {
				affected = append(affected, sh)
				break
			}
		}
	}
	if len(affected) == 0 {
		affected = append(affected, ss.shaders...)
	}

	for _, sh := range affected {
		core.LogInfo("Reloading shader %s after a change to %s", sh.name, filename)
		ss.dropShader(sh)
	}
	if base == "deformVertexes_vp" {
		ss.rebuildDeforms()
	}

	var ctx core.EventContext
	ctx.Data.C[0] = filename
	ctx.Data.U32[0] = uint32(len(affected))
	core.EventFire(core.EVENT_CODE_SHADER_SOURCE_CHANGED, ss, ctx)
	return affected
}

/** @brief Applies a change reported by the source watcher. */
func (ss *ShaderSystem) HandleSourceChange(ev assets.ChangeEvent) []*Shader {
	if ev.Removed {
		core.LogWarn("shader source %s was removed", ev.Name)
	}
	return ss.ReloadSource(ev.Name)
}

// dropShader deletes the programs and stages created for sh.
func (ss *ShaderSystem) dropShader(sh *Shader) {
	sh.deletePrograms()
	sh.mainTexts = make(map[metadata.ShaderStage]string)
	if ss.boundShader == sh {
		ss.boundShader = nil
	}

	kept := ss.descriptors[:0]
	for _, d := range ss.descriptors {
		if d.Main && d.Name == sh.name {
			if d.ID != 0 {
				ss.backend.DeleteShader(d.ID)
			}
			continue
		}
		kept = append(kept, d)
	}
	ss.descriptors = kept
}

// rebuildDeforms regenerates the deform stages in place, keeping their indexes.
func (ss *ShaderSystem) rebuildDeforms() {
	steps := ss.deformSteps
	kept := ss.descriptors[:0]
	for _, d := range ss.descriptors {
		if !d.Main {
			if d.ID != 0 {
				ss.backend.DeleteShader(d.ID)
			}
			continue
		}
		kept = append(kept, d)
	}
	ss.descriptors = kept
	ss.deformLookup = make(map[string]int)
	ss.deformSteps = nil
	ss.deformCount = 0

	for _, s := range steps {
		if _, err := ss.addDeformShader(s); err != nil {
			core.LogError("failed to rebuild deform shaders: %s", err.Error())
			return
		}
	}
}

/** @brief Sets up the source watcher when the configuration asks for it. */
func (ss *ShaderSystem) Watch() (<-chan assets.ChangeEvent, error) {
	if !ss.config.Watch {
		return nil, nil
	}
	if !ss.source.External() {
		return nil, errors.New("watching shader sources requires an external shader path")
	}
	return ss.source.Watch()
}
