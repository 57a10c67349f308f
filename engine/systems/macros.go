package systems

import (
	"strings"

	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

/** @brief The most compile macros a shader can own. */
const MaxCompileMacros = 10

/**
 * @brief A boolean feature of a shader. The bit is the position of the macro
 * in the shader's list, the type identifies the feature across shaders.
 */
type CompileMacro struct {
	shader    *Shader
	macroType metadata.MacroType
	bit       uint32
}

/**
 * @brief Adds a compile macro to the shader and returns its bit. Registering
 * more than MaxCompileMacros macros is a programming error and terminates the
 * process.
 */
func (sh *Shader) RegisterMacro(macroType metadata.MacroType) uint32 {
	if len(sh.macros) >= MaxCompileMacros {
		core.LogFatal("%s: shader %s already has %d compile macros, cannot add %s", core.ErrTooManyMacros.Error(), sh.name, MaxCompileMacros, macroType.Name())
		return 0
	}
	m := &CompileMacro{
		shader:    sh,
		macroType: macroType,
		bit:       1 << uint32(len(sh.macros)),
	}
	sh.macros = append(sh.macros, m)
	return m.bit
}

func (m *CompileMacro) Name() string {
	return m.macroType.Name()
}

func (m *CompileMacro) Type() metadata.MacroType {
	return m.macroType
}

func (m *CompileMacro) Bit() uint32 {
	return m.bit
}

func (m *CompileMacro) Stages() metadata.ShaderStage {
	return m.macroType.Stages()
}

/** @brief Reports whether another macro set in permutation cannot be combined with this one. */
func (m *CompileMacro) HasConflictingMacros(permutation uint32) bool {
	for _, other := range m.shader.macros {
		if other == m || permutation&other.bit == 0 {
			continue
		}
		if metadata.MacrosConflict(m.macroType, other.macroType) {
			return true
		}
	}
	return false
}

/** @brief Reports whether the macro cannot be enabled on this driver. */
func (m *CompileMacro) MissesRequiredMacros(permutation uint32) bool {
	switch m.macroType {
	case metadata.MacroVertexSkinning:
		return !m.shader.system.caps.VertexSkinning
	}
	return false
}

/**
 * @brief Returns the effective macro mask of a permutation for the given
 * stages, one bit per macro type. Macros that conflict, miss a
 * prerequisite or do not apply to the stages are dropped.
 */
func (sh *Shader) GetUniqueCompileMacros(permutation uint32, stage metadata.ShaderStage) uint32 {
	var out uint32
	for _, m := range sh.macros {
		if permutation&m.bit == 0 {
			continue
		}
		if m.HasConflictingMacros(permutation) || m.MissesRequiredMacros(permutation) {
			continue
		}
		if m.Stages()&stage == 0 {
			continue
		}
		out |= m.macroType.Bit()
	}
	return out
}

/**
 * @brief Returns the names of the macros set in permutation, each followed by
 * a space. Unlike GetUniqueCompileMacros a macro that cannot be enabled makes
 * the whole permutation unusable.
 */
func (sh *Shader) GetCompileMacrosString(permutation uint32, stage metadata.ShaderStage) (string, bool) {
	var sb strings.Builder
	for _, m := range sh.macros {
		if permutation&m.bit == 0 {
			continue
		}
		if m.HasConflictingMacros(permutation) || m.MissesRequiredMacros(permutation) {
			return "", false
		}
		if m.Stages()&stage == 0 {
			return "", false
		}
		sb.WriteString(m.Name())
		sb.WriteByte(' ')
	}
	return sb.String(), true
}

/** @brief The macro names of permutation that change the text of stage. */
func (sh *Shader) stageMacrosString(permutation uint32, stage metadata.ShaderStage) string {
	var sb strings.Builder
	for _, m := range sh.macros {
		if permutation&m.bit == 0 || m.Stages()&stage == 0 {
			continue
		}
		sb.WriteString(m.Name())
		sb.WriteByte(' ')
	}
	return sb.String()
}

/** @brief Enables or disables a macro for the next GetProgram and BindProgram calls. */
func (sh *Shader) SetMacro(macroType metadata.MacroType, enable bool) {
	for _, m := range sh.macros {
		if m.macroType != macroType {
			continue
		}
		if enable {
			sh.activeMacros |= m.bit
		} else {
			sh.activeMacros &^= m.bit
		}
		return
	}
	core.LogDebug("shader %s has no %s macro", sh.name, macroType.Name())
}

/** @brief Reports whether the macro is part of the active set. */
func (sh *Shader) IsMacroSet(macroType metadata.MacroType) bool {
	for _, m := range sh.macros {
		if m.macroType == macroType {
			return sh.activeMacros&m.bit != 0
		}
	}
	return false
}

/** @brief The permutation index of the active macro set. */
func (sh *Shader) selectProgram() uint32 {
	return sh.activeMacros & (1<<uint32(len(sh.macros)) - 1)
}

/** @brief The vertex inputs a permutation reads. */
func (sh *Shader) RequiredVertexAttribs(permutation uint32) metadata.VertexAttribute {
	attribs := sh.vertexAttribs
	for _, m := range sh.macros {
		if permutation&m.bit != 0 {
			attribs |= m.macroType.RequiredAttributes()
		}
	}
	return attribs
}

/**
 * @brief Reports whether the configuration disables a feature of the
 * permutation, in which case it is never built.
 */
func (ss *ShaderSystem) IsUnusedPermutation(sh *Shader, permutation uint32) bool {
	cfg := ss.config
	for _, m := range sh.macros {
		if permutation&m.bit == 0 {
			continue
		}
		switch m.macroType {
		case metadata.MacroDeluxeMapping, metadata.MacroGridDeluxeMapping:
			if !cfg.DeluxeMapping {
				return true
			}
		case metadata.MacroPhysicalMapping:
			if !cfg.PhysicalMapping {
				return true
			}
		case metadata.MacroReflectiveSpecular:
			if !cfg.SpecularMapping {
				return true
			}
		case metadata.MacroReliefMapping:
			if !cfg.ReliefMapping {
				return true
			}
		case metadata.MacroHeightmapInNormalmap:
			if !cfg.ReliefMapping && !cfg.NormalMapping {
				return true
			}
		}
	}
	return false
}
