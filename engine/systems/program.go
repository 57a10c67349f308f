package systems

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

/** @brief Describes a logical shader before its uniforms and macros are declared. */
type ShaderDefinition struct {
	/** @brief Unique name, also the name of its stage entries. */
	Name string
	/** @brief The file name prefix of the stage sources, defaults to Name. */
	MainShaderName string
	Stages         metadata.ShaderStage
	/** @brief The vertex inputs read by every permutation. */
	VertexAttribs metadata.VertexAttribute
	/** @brief Fetch material and texture data from the material system buffers. */
	UseMaterialSystem bool
}

/**
 * @brief A logical shader: a set of stages, the uniforms they read and the
 * compile macros they can be specialized by. Programs are created for each
 * used permutation and kept at the permutation index.
 */
type Shader struct {
	system *ShaderSystem

	name              string
	mainShaderName    string
	stages            metadata.ShaderStage
	vertexAttribs     metadata.VertexAttribute
	useMaterialSystem bool

	uniforms []*Uniform
	blocks   []*UniformBlock
	macros   []*CompileMacro

	activeMacros uint32

	/** @brief The packed material struct. */
	layout Layout
	/** @brief The packed push buffer groups, one per update type. */
	pushLayouts []Layout
	/** @brief Bytes of firewall needed per program. */
	uniformStorageSize uint32

	programs []*metadata.ShaderProgramDescriptor
	states   []metadata.PermutationState
	broken   bool

	/** @brief Main stage texts with inserts resolved, per stage. */
	mainTexts map[metadata.ShaderStage]string

	currentProgram *metadata.ShaderProgramDescriptor
	registered     bool
}

/** @brief Creates an empty logical shader. It must be registered before use. */
func (ss *ShaderSystem) NewShader(def ShaderDefinition) *Shader {
	mainName := def.MainShaderName
	if mainName == "" {
		mainName = def.Name
	}
	return &Shader{
		system:            ss,
		name:              def.Name,
		mainShaderName:    mainName,
		stages:            def.Stages,
		vertexAttribs:     def.VertexAttribs,
		useMaterialSystem: def.UseMaterialSystem && ss.caps.MaterialSystem,
		mainTexts:         make(map[metadata.ShaderStage]string),
	}
}

func (sh *Shader) Name() string {
	return sh.name
}

func (sh *Shader) MainShaderName() string {
	return sh.mainShaderName
}

func (sh *Shader) Stages() metadata.ShaderStage {
	return sh.stages
}

func (sh *Shader) UsesMaterialSystem() bool {
	return sh.useMaterialSystem
}

/** @brief The packed material struct, empty unless the shader uses the material system. */
func (sh *Shader) Layout() Layout {
	return sh.layout
}

func (sh *Shader) Uniforms() []*Uniform {
	return sh.uniforms
}

/** @brief Returns the uniform called name. */
func (sh *Shader) Uniform(name string) (*Uniform, error) {
	for _, u := range sh.uniforms {
		if u.name == name {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: %s in shader %s", core.ErrUnknownUniform, name, sh.name)
}

func (sh *Shader) Macros() []*CompileMacro {
	return sh.macros
}

/** @brief The number of permutations of macros, without deforms. */
func (sh *Shader) NumPermutations() uint32 {
	return 1 << uint32(len(sh.macros))
}

/** @brief Reports whether a build failure disabled the shader. */
func (sh *Shader) Broken() bool {
	return sh.broken
}

func (sh *Shader) permutationIndex(macroIndex uint32, deformIndex int) int {
	return int(macroIndex) + deformIndex<<uint32(len(sh.macros))
}

/** @brief The build state of the permutation of macros and deform. */
func (sh *Shader) PermutationState(macroIndex uint32, deformIndex int) metadata.PermutationState {
	i := sh.permutationIndex(macroIndex, deformIndex)
	if i < len(sh.states) {
		return sh.states[i]
	}
	return metadata.PermutationUnbuilt
}

func (sh *Shader) setState(i int, state metadata.PermutationState) {
	if i >= len(sh.states) {
		sh.states = append(sh.states, make([]metadata.PermutationState, i+1-len(sh.states))...)
		sh.programs = append(sh.programs, make([]*metadata.ShaderProgramDescriptor, i+1-len(sh.programs))...)
	}
	sh.states[i] = state
}

// Reports whether the stage texts carry the material system blocks.
func (sh *Shader) materialInjection() bool {
	return sh.system.caps.MaterialSystem && sh.useMaterialSystem && sh.layout.Size > 0
}

// Reports whether the stage texts carry the global uniform block.
func (sh *Shader) globalInjection() bool {
	ss := sh.system
	if ss.globalUBO == nil || sh == ss.globalUBO.Shader || sh.stages == 0 {
		return false
	}
	for _, u := range sh.uniforms {
		if u.IsGlobal() {
			return true
		}
	}
	return false
}

/** @brief The active macro names, for messages. */
func (sh *Shader) activeMacroNames() string {
	var names []string
	for _, m := range sh.macros {
		if sh.activeMacros&m.bit != 0 {
			names = append(names, m.Name())
		}
	}
	return strings.Join(names, " ")
}

/**
 * @brief Returns the native program of the active macro set and the deform.
 * The program is built on first use; later calls return the stored handle.
 */
func (sh *Shader) GetProgram(deformIndex int) (uint32, error) {
	p, err := sh.system.getProgram(sh, sh.selectProgram(), deformIndex)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

/** @brief Makes the permutation of GetProgram current. Uniform writes then target it. */
func (sh *Shader) BindProgram(deformIndex int) error {
	ss := sh.system
	p, err := ss.getProgram(sh, sh.selectProgram(), deformIndex)
	if err != nil {
		core.LogDebug("%s has no program for macros '%s'", sh.name, sh.activeMacroNames())
		return err
	}
	if ss.boundShader != nil && ss.boundShader != sh {
		ss.boundShader.currentProgram = nil
	}
	if ss.boundProgram != p.ID {
		ss.backend.UseProgram(p.ID)
		ss.boundProgram = p.ID
	}
	ss.boundShader = sh
	sh.currentProgram = p
	return nil
}

/**
 * @brief Serializes uniform shadow values into buf at their packed offsets.
 * MATERIAL writes the material struct; PUSH writes the push buffer, limited to
 * one update type unless filter is UpdateTypeAll.
 */
func (sh *Shader) WriteUniformsToBuffer(buf []uint32, mode metadata.BufferMode, filter metadata.UpdateType) {
	switch mode {
	case metadata.BufferModeMaterial:
		pos := uint32(0)
		for _, u := range sh.layout.Uniforms {
			pos = u.WriteToBuffer(buf, pos)
		}
	case metadata.BufferModePush:
		for _, l := range sh.pushLayouts {
			for _, u := range l.Uniforms {
				if filter != metadata.UpdateTypeAll && u.update != filter {
					continue
				}
				u.WriteToBuffer(buf, u.offset)
			}
		}
	}
}

/** @brief Words needed by the push buffer groups. */
func (sh *Shader) PushBufferSize() uint32 {
	var size uint32
	for _, l := range sh.pushLayouts {
		size += l.Size
	}
	return size
}

/** @brief Packs the material struct of a shader using the material system. */
func (sh *Shader) packMaterial() error {
	if !sh.useMaterialSystem {
		return nil
	}
	var members []*Uniform
	for _, u := range sh.uniforms {
		if u.update == metadata.UpdateTypeMaterialOrPush && !u.IsTexture() {
			members = append(members, u)
		}
	}
	layout, err := PackUniforms(members)
	if err != nil {
		return fmt.Errorf("failed to pack material of shader %s: %w", sh.name, err)
	}
	sh.layout = layout
	return nil
}

// deletePrograms returns the programs of every permutation to the backend.
func (sh *Shader) deletePrograms() {
	ss := sh.system
	for _, p := range sh.programs {
		if p == nil {
			continue
		}
		ss.deleteProgram(p)
	}
	sh.programs = nil
	sh.states = nil
	sh.currentProgram = nil
	sh.broken = false
}
