package systems

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

const (
	/** @brief Words of per-material data the materials block can hold. */
	materialsBlockWords = 4096 + 2048
	/** @brief The smallest uniform block that can hold the texture bundles, in bytes. */
	minMaterialUBOSize = 16384
	maxTexBundles      = 256
	maxLightMaps       = 256
)

/**
 * @brief Concatenates the headers, a guarded define per macro token and the
 * main text of a stage.
 */
func BuildShaderText(mainText string, headers []GLHeader, macros string) string {
	size := len(mainText)
	for _, h := range headers {
		size += len(h.Text)
	}

	var sb strings.Builder
	sb.Grow(size)
	for _, h := range headers {
		sb.WriteString(h.Text)
	}
	for _, token := range strings.Fields(macros) {
		fmt.Fprintf(&sb, "#ifndef %s\n#define %s 1\n#endif\n", token, token)
	}
	sb.WriteString(mainText)
	return sb.String()
}

// splitLines splits text the way line oriented readers do, without a
// trailing empty line for a final newline.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

/**
 * @brief Replaces every "#insert name" line with the text of name.glsl. The
 * inserted text is numbered from k*10000 for the k-th insert and the main
 * text numbering resumes after it. Inserted files are not processed again.
 */
func (ss *ShaderSystem) ProcessInserts(text string) (string, error) {
	var sb strings.Builder
	insertCount := 0
	for i, line := range splitLines(text) {
		lineCount := i + 1
		position := strings.Index(line, "#insert")
		if position < 0 || len(line)-len(strings.TrimLeft(line, " \t")) != position {
			sb.WriteString(line + "\n")
			continue
		}

		path := strings.TrimSpace(line[position+len("#insert"):])
		insertCount++
		fmt.Fprintf(&sb, "#line %d // %s.glsl\n", insertCount*10000, path)

		inserted, err := ss.source.Text(path + ".glsl")
		if err != nil {
			return "", err
		}
		sb.WriteString(inserted)
		fmt.Fprintf(&sb, "#line %d\n", lineCount)
	}
	return sb.String(), nil
}

/**
 * @brief Drops the declaration lines of the named uniforms. A line is a
 * declaration when "uniform" appears before any comment and it ends a
 * statement; block declarations spanning several lines are kept.
 */
func RemoveUniformsFromShaderText(text string, names []string) string {
	if len(names) == 0 {
		return text
	}
	var sb strings.Builder
	sb.Grow(len(text))
	for _, line := range splitLines(text) {
		if isUniformDeclarationOf(line, names) {
			continue
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func isUniformDeclarationOf(line string, names []string) bool {
	code := line
	if i := strings.Index(code, "//"); i >= 0 {
		code = code[:i]
	}
	if !strings.Contains(code, "uniform") || !strings.Contains(line, ";") {
		return false
	}
	for _, name := range names {
		pos := strings.Index(line, name)
		if pos < 0 {
			continue
		}
		end := pos + len(name)
		if end >= len(line) || !isIdentifierChar(line[end]) {
			return true
		}
	}
	return false
}

func isIdentifierChar(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

/** @brief The uniform names a stage text loses to buffers. */
func (ss *ShaderSystem) removedUniforms(sh *Shader) []string {
	var names []string
	if sh.materialInjection() {
		for _, u := range sh.layout.Uniforms {
			names = append(names, u.name)
		}
		for _, u := range sh.uniforms {
			if u.update == metadata.UpdateTypeTexDataOrPush && !u.IsTexture() {
				names = append(names, u.name)
			}
		}
	}
	if sh.globalInjection() {
		for _, u := range sh.uniforms {
			if u.IsGlobal() {
				names = append(names, u.name)
			}
		}
	}
	return names
}

func (ss *ShaderSystem) materialBlocksText(sh *Shader) string {
	var sb strings.Builder

	members, defines := GenerateUniformStructDefinesText(sh.layout, "materials[baseInstance & 0xFFF]")
	sb.WriteString("#define USE_MATERIAL_SYSTEM\n")
	sb.WriteString("\nstruct Material {\n" + members + "};\n\n")

	fmt.Fprintf(&sb, "layout(std140, binding = %d) uniform materialsUBO {\n"+
		"\tMaterial materials[%d]; \n"+
		"};\n\n", metadata.BufferBindMaterials, materialsBlockWords/sh.layout.Size)

	// u_TextureMatrix is split in a vec4 and a vec2 so std140 does not pad each column
	sb.WriteString("struct TexData {\n" +
		"\tvec4 u_TextureMatrix;\n" +
		"\tvec2 u_TextureMatrix2;\n" +
		"\tuvec2 u_DiffuseMap;\n" +
		"\tuvec2 u_NormalMap;\n" +
		"\tuvec2 u_HeightMap;\n" +
		"\tuvec2 u_MaterialMap;\n" +
		"\tuvec2 u_GlowMap;\n" +
		"};\n\n")
	if ss.texDataInUBO() {
		fmt.Fprintf(&sb, "layout(std140, binding = %d) uniform texDataUBO {\n"+
			"\tTexData texData[%d]; \n"+
			"};\n\n", metadata.BufferBindTexData, maxTexBundles)
	} else {
		fmt.Fprintf(&sb, "layout(std430, binding = %d) restrict readonly buffer texDataSSBO {\n"+
			"\tTexData texData[];\n"+
			"};\n\n", metadata.BufferBindTexData)
	}

	const texData = "texData[( baseInstance >> 12 ) & 0xFFF]"
	fmt.Fprintf(&sb, "#define u_TextureMatrix mat3x2( %s.u_TextureMatrix.xy, %s.u_TextureMatrix.zw, %s.u_TextureMatrix2 )\n", texData, texData, texData)
	for _, name := range []string{"u_DiffuseMap", "u_NormalMap", "u_HeightMap", "u_MaterialMap"} {
		fmt.Fprintf(&sb, "#define %s_initial %s.%s\n", name, texData, name)
	}
	fmt.Fprintf(&sb, "#define u_GlowMap_initial %s.u_GlowMap\n\n", texData)

	const lightMapData = "lightMapData[( baseInstance >> 24 ) & 0xFF]"
	sb.WriteString("struct LightMapData {\n" +
		"\tuvec2 u_LightMap;\n" +
		"\tuvec2 u_DeluxeMap;\n" +
		"};\n\n")
	fmt.Fprintf(&sb, "layout(std140, binding = %d) uniform lightMapDataUBO {\n"+
		"\tLightMapData lightMapData[%d];\n"+
		"};\n\n", metadata.BufferBindLightmapData, maxLightMaps)
	fmt.Fprintf(&sb, "#define u_LightMap_initial %s.u_LightMap\n", lightMapData)
	fmt.Fprintf(&sb, "#define u_DeluxeMap_initial %s.u_DeluxeMap\n\n", lightMapData)

	sb.WriteString(defines)
	sb.WriteString("\n\n")
	return sb.String()
}

/** @brief Reports whether the texture bundles fit in a uniform block on this driver. */
func (ss *ShaderSystem) texDataInUBO() bool {
	return ss.caps.MaxUniformBlockSize >= minMaterialUBOSize
}

/**
 * @brief Moves the uniforms delivered through buffers out of a stage text.
 * Their declarations are removed and the generated blocks are inserted at
 * offset, right after the version declaration.
 */
func (ss *ShaderSystem) ShaderPostProcess(sh *Shader, text string, offset int) string {
	material := sh.materialInjection()
	global := sh.globalInjection()
	if !material && !global {
		return text
	}

	out := RemoveUniformsFromShaderText(text, ss.removedUniforms(sh))

	var injected strings.Builder
	if material {
		injected.WriteString(ss.materialBlocksText(sh))
	}
	if global {
		injected.WriteString(ss.globalUBO.BlockText())
	}

	if offset > len(out) {
		offset = len(out)
	}
	return out[:offset] + injected.String() + out[offset:]
}
