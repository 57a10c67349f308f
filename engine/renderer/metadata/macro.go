package metadata

/**
 * @brief The feature a compile macro toggles. The value is also the bit the
 * macro occupies in a stage's effective macro mask, so the order is fixed.
 */
type MacroType int

const (
	MacroBSPSurface MacroType = iota
	MacroVertexSkinning
	MacroVertexAnimation
	MacroTCGenEnvironment
	MacroTCGenLightmap
	MacroDeluxeMapping
	MacroGridLighting
	MacroGridDeluxeMapping
	MacroHeightmapInNormalmap
	MacroReliefMapping
	MacroReflectiveSpecular
	MacroLightDirectional
	MacroDepthFade
	MacroPhysicalMapping
	// MacroTypeCount is the number of macro types.
	MacroTypeCount
)

type macroInfo struct {
	name       string
	stages     ShaderStage
	attributes VertexAttribute
	conflicts  []MacroType
}

var macros = [MacroTypeCount]macroInfo{
	MacroBSPSurface: {
		name:      "USE_BSP_SURFACE",
		stages:    ShaderStageVertexFragment,
		conflicts: []MacroType{MacroGridDeluxeMapping},
	},
	MacroVertexSkinning: {
		name:       "USE_VERTEX_SKINNING",
		stages:     ShaderStageVertex,
		attributes: VertexAttributeBoneFactors,
		conflicts:  []MacroType{MacroVertexAnimation},
	},
	MacroVertexAnimation: {
		name:       "USE_VERTEX_ANIMATION",
		stages:     ShaderStageVertex,
		attributes: VertexAttributePosition2 | VertexAttributeQTangent2,
	},
	MacroTCGenEnvironment: {
		name:       "USE_TCGEN_ENVIRONMENT",
		stages:     ShaderStageVertex,
		attributes: VertexAttributeQTangent,
		conflicts:  []MacroType{MacroTCGenLightmap},
	},
	MacroTCGenLightmap: {
		name:   "USE_TCGEN_LIGHTMAP",
		stages: ShaderStageVertex,
	},
	MacroDeluxeMapping: {
		name:      "USE_DELUXE_MAPPING",
		stages:    ShaderStageVertexFragment,
		conflicts: []MacroType{MacroGridDeluxeMapping, MacroGridLighting},
	},
	MacroGridLighting: {
		name:      "USE_GRID_LIGHTING",
		stages:    ShaderStageVertexFragment,
		conflicts: []MacroType{MacroDeluxeMapping},
	},
	MacroGridDeluxeMapping: {
		name:      "USE_GRID_DELUXE_MAPPING",
		stages:    ShaderStageFragment,
		conflicts: []MacroType{MacroDeluxeMapping, MacroBSPSurface},
	},
	MacroHeightmapInNormalmap: {
		name:   "USE_HEIGHTMAP_IN_NORMALMAP",
		stages: ShaderStageFragment,
	},
	MacroReliefMapping: {
		name:   "USE_RELIEF_MAPPING",
		stages: ShaderStageFragment,
	},
	MacroReflectiveSpecular: {
		name:      "USE_REFLECTIVE_SPECULAR",
		stages:    ShaderStageFragment,
		conflicts: []MacroType{MacroPhysicalMapping},
	},
	MacroLightDirectional: {
		name:   "LIGHT_DIRECTIONAL",
		stages: ShaderStageVertexFragment,
	},
	MacroDepthFade: {
		name:   "USE_DEPTH_FADE",
		stages: ShaderStageVertexFragment,
	},
	MacroPhysicalMapping: {
		name:   "USE_PHYSICAL_MAPPING",
		stages: ShaderStageFragment,
	},
}

/** @brief The preprocessor token defined when the macro is active. */
func (m MacroType) Name() string {
	if m < 0 || m >= MacroTypeCount {
		return ""
	}
	return macros[m].name
}

func (m MacroType) String() string {
	return m.Name()
}

/** @brief The stages whose text the macro changes. */
func (m MacroType) Stages() ShaderStage {
	return macros[m].stages
}

/** @brief Extra vertex inputs needed while the macro is active. */
func (m MacroType) RequiredAttributes() VertexAttribute {
	return macros[m].attributes
}

/** @brief The bit of the macro in an effective stage mask. */
func (m MacroType) Bit() uint32 {
	return 1 << uint32(m)
}

/**
 * @brief Reports whether two macro types cannot be enabled together. The
 * declared tables are one-sided, the check looks at both sides.
 */
func MacrosConflict(a, b MacroType) bool {
	for _, c := range macros[a].conflicts {
		if c == b {
			return true
		}
	}
	for _, c := range macros[b].conflicts {
		if c == a {
			return true
		}
	}
	return false
}
