package systems

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/math"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

/**
 * @brief The owner of the uniforms every shader reads from the global buffer.
 * It has no stages; it only declares the buffer layout and holds the values
 * written into it once per map (CONST) or per frame (FRAME).
 */
type GlobalUBOProxy struct {
	*Shader

	/* CONST */
	LightGridOrigin  *Uniform
	LightGridScale   *Uniform
	FirstPortalGroup *Uniform
	TotalPortals     *Uniform

	/* FRAME */
	NumLights  *Uniform
	Frame      *Uniform
	ViewWidth  *Uniform
	ViewHeight *Uniform
	P00        *Uniform
	P11        *Uniform
}

func newGlobalUBOProxy(ss *ShaderSystem) (*GlobalUBOProxy, error) {
	sh := ss.NewShader(ShaderDefinition{Name: "proxy"})
	p := &GlobalUBOProxy{
		Shader: sh,

		LightGridOrigin:  sh.NewUniform("u_LightGridOrigin", metadata.UniformTypeVec3, metadata.UpdateTypeConst),
		LightGridScale:   sh.NewUniform("u_LightGridScale", metadata.UniformTypeVec3, metadata.UpdateTypeConst),
		FirstPortalGroup: sh.NewUniform("u_FirstPortalGroup", metadata.UniformTypeUint, metadata.UpdateTypeConst),
		TotalPortals:     sh.NewUniform("u_TotalPortals", metadata.UniformTypeUint, metadata.UpdateTypeConst),

		NumLights:  sh.NewUniform("u_numLights", metadata.UniformTypeInt, metadata.UpdateTypeFrame),
		Frame:      sh.NewUniform("u_Frame", metadata.UniformTypeUint, metadata.UpdateTypeFrame),
		ViewWidth:  sh.NewUniform("u_ViewWidth", metadata.UniformTypeUint, metadata.UpdateTypeFrame),
		ViewHeight: sh.NewUniform("u_ViewHeight", metadata.UniformTypeUint, metadata.UpdateTypeFrame),
		P00:        sh.NewUniform("u_P00", metadata.UniformTypeFloat, metadata.UpdateTypeFrame),
		P11:        sh.NewUniform("u_P11", metadata.UniformTypeFloat, metadata.UpdateTypeFrame),
	}
	if err := p.pack(); err != nil {
		return nil, err
	}
	return p, nil
}

// pack lays out each update type as its own group, CONST first, so a group
// can be uploaded without touching the other.
func (p *GlobalUBOProxy) pack() error {
	var base uint32
	for _, update := range []metadata.UpdateType{metadata.UpdateTypeConst, metadata.UpdateTypeFrame} {
		var group []*Uniform
		for _, u := range p.uniforms {
			if u.update == update {
				group = append(group, u)
			}
		}
		layout, err := PackUniforms(group)
		if err != nil {
			return fmt.Errorf("failed to pack %s globals: %w", update, err)
		}
		for _, u := range layout.Uniforms {
			u.offset += base
		}
		base += layout.Size
		p.pushLayouts = append(p.pushLayouts, layout)
	}
	return nil
}

/** @brief Sets the values that change once per map. */
func (p *GlobalUBOProxy) SetConstGlobals(gridOrigin, gridScale math.Vec3, firstPortalGroup, totalPortals uint32) {
	p.LightGridOrigin.SetVec3(gridOrigin)
	p.LightGridScale.SetVec3(gridScale)
	p.FirstPortalGroup.SetUint(firstPortalGroup)
	p.TotalPortals.SetUint(totalPortals)
}

/** @brief Sets the values that change every frame. */
func (p *GlobalUBOProxy) SetFrameGlobals(frame uint32, width, height uint32, projection math.Mat4, numLights int32) {
	p00, p11 := projection.ProjectionScale()
	p.NumLights.SetInt(numLights)
	p.Frame.SetUint(frame)
	p.ViewWidth.SetUint(width)
	p.ViewHeight.SetUint(height)
	p.P00.SetFloat(p00)
	p.P11.SetFloat(p11)
}

/** @brief Returns the word offset of the first uniform of the update type. */
func (p *GlobalUBOProxy) GroupOffset(update metadata.UpdateType) (uint32, bool) {
	var base uint32
	for _, l := range p.pushLayouts {
		if len(l.Uniforms) > 0 && l.Uniforms[0].update == update {
			return base, true
		}
		base += l.Size
	}
	return 0, false
}

/** @brief The declaration of the global block injected into shaders. */
func (p *GlobalUBOProxy) BlockText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "layout(std140, binding = %d) uniform globalUBO {\n", metadata.BufferBindGlobalData)
	for _, l := range p.pushLayouts {
		members, _ := GenerateUniformStructDefinesText(l, "")
		sb.WriteString(members)
	}
	sb.WriteString("};\n\n")
	return sb.String()
}

// checkGlobals warns about global uniforms of sh the buffer does not declare
// the same way.
func (p *GlobalUBOProxy) checkGlobals(sh *Shader) {
	for _, u := range sh.uniforms {
		if !u.IsGlobal() {
			continue
		}
		global, err := p.Uniform(u.name)
		if err != nil {
			core.LogWarn("global uniform %s of shader %s is not part of the global buffer", u.name, sh.name)
			continue
		}
		if global.uniformType != u.uniformType || global.components != u.components {
			core.LogWarn("global uniform %s of shader %s is %s, the global buffer declares %s", u.name, sh.name, u.uniformType, global.uniformType)
		}
	}
}
