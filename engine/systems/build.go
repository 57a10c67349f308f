package systems

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/renderer"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

// getProgram returns the program of a permutation, building it if needed.
func (ss *ShaderSystem) getProgram(sh *Shader, macroIndex uint32, deformIndex int) (*metadata.ShaderProgramDescriptor, error) {
	if sh.broken {
		return nil, fmt.Errorf("%w: %s", core.ErrShaderBroken, sh.name)
	}

	i := sh.permutationIndex(macroIndex, deformIndex)
	if i < len(sh.programs) && sh.programs[i] != nil {
		return sh.programs[i], nil
	}
	if i < len(sh.states) && sh.states[i] == metadata.PermutationBuildFailed {
		return nil, fmt.Errorf("%w: %s", core.ErrShaderBroken, sh.name)
	}

	p, err := ss.BuildPermutation(sh, macroIndex, deformIndex)
	if err != nil {
		return nil, err
	}
	return p, nil
}

/**
 * @brief Builds the program of one permutation: resolves its stage entries,
 * then either loads it from the cache or compiles and links it. Returns
 * ErrInvalidPermutation for macro sets that cannot or need not be built.
 */
func (ss *ShaderSystem) BuildPermutation(sh *Shader, macroIndex uint32, deformIndex int) (*metadata.ShaderProgramDescriptor, error) {
	compileMacros, ok := sh.GetCompileMacrosString(macroIndex, metadata.ShaderStageVertexFragment)
	if !ok || ss.IsUnusedPermutation(sh, macroIndex) {
		return nil, fmt.Errorf("%w: shader = '%s', macros = '%s'", core.ErrInvalidPermutation, sh.name, strings.TrimSpace(sh.stageMacrosString(macroIndex, metadata.ShaderStageVertexFragment)))
	}
	if deformIndex < 0 || deformIndex >= ss.deformCount {
		return nil, fmt.Errorf("%w: shader = '%s', unknown deform %d", core.ErrInvalidPermutation, sh.name, deformIndex)
	}

	i := sh.permutationIndex(macroIndex, deformIndex)
	if i < len(sh.programs) && sh.programs[i] != nil {
		return sh.programs[i], nil
	}

	if compileMacros == "" {
		core.LogDebug("Building %s shader permutation with macro: none", sh.name)
	} else {
		core.LogDebug("Building %s shader permutation with macro: %s", sh.name, strings.TrimSpace(compileMacros))
	}

	var entries []metadata.ShaderEntry
	for _, stage := range []metadata.ShaderStage{metadata.ShaderStageVertex, metadata.ShaderStageFragment, metadata.ShaderStageCompute} {
		if !sh.stages.Has(stage) {
			continue
		}
		d, err := ss.findShader(sh, macroIndex, stage)
		if err != nil {
			ss.markBroken(sh, macroIndex, i)
			return nil, err
		}
		entries = append(entries, d.Entry())
		if stage == metadata.ShaderStageVertex {
			entries = append(entries, metadata.ShaderEntry{Name: deformShaderName(deformIndex), Macro: 0, Stage: metadata.ShaderStageVertex})
		}
	}

	sh.setState(i, metadata.PermutationCacheLookupPending)
	p, err := ss.findShaderProgram(entries, sh, i)
	if err != nil {
		ss.markBroken(sh, macroIndex, i)
		return nil, err
	}
	sh.programs[i] = p
	sh.setState(i, metadata.PermutationLinked)
	return p, nil
}

func (ss *ShaderSystem) markBroken(sh *Shader, macroIndex uint32, i int) {
	sh.setState(i, metadata.PermutationBuildFailed)
	sh.broken = true

	var ctx core.EventContext
	ctx.Data.C[0] = sh.name
	ctx.Data.U32[0] = macroIndex
	core.EventFire(core.EVENT_CODE_SHADER_BROKEN, ss, ctx)
}

// descriptor returns the stage created for entry, nil if there is none.
func (ss *ShaderSystem) descriptor(entry metadata.ShaderEntry) *metadata.ShaderDescriptor {
	for _, d := range ss.descriptors {
		if d.Matches(entry) {
			return d
		}
	}
	return nil
}

// mainText returns the source of a stage of sh with its inserts resolved.
func (ss *ShaderSystem) mainText(sh *Shader, stage metadata.ShaderStage) (string, error) {
	if text, ok := sh.mainTexts[stage]; ok {
		return text, nil
	}
	raw, err := ss.source.Text(sh.mainShaderName + stage.Postfix() + ".glsl")
	if err != nil {
		return "", err
	}
	text, err := ss.ProcessInserts(raw)
	if err != nil {
		return "", err
	}
	sh.mainTexts[stage] = text
	return text, nil
}

/**
 * @brief Returns the stage descriptor of a permutation. The text is assembled
 * only the first time the effective macro mask of the stage is seen.
 */
func (ss *ShaderSystem) findShader(sh *Shader, permutation uint32, stage metadata.ShaderStage) (*metadata.ShaderDescriptor, error) {
	entry := metadata.ShaderEntry{
		Name:  sh.name,
		Macro: sh.GetUniqueCompileMacros(permutation, stage),
		Stage: stage,
	}
	if d := ss.descriptor(entry); d != nil {
		return d, nil
	}

	start := time.Now()
	text, err := ss.mainText(sh, stage)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s shader of %s: %w", stage, sh.name, err)
	}

	headers, offset := ss.stageHeaders(stage)
	text = BuildShaderText(text, headers, sh.stageMacrosString(permutation, stage))
	text = ss.ShaderPostProcess(sh, text, offset)

	d := &metadata.ShaderDescriptor{
		Name:   entry.Name,
		Macro:  entry.Macro,
		Stage:  entry.Stage,
		Text:   text,
		Offset: offset,
		Main:   true,
	}
	ss.descriptors = append(ss.descriptors, d)
	ss.assemblies++
	ss.metrics.Init.Add(time.Since(start))
	return d, nil
}

/**
 * @brief Returns the program made of entries, creating it from the cache or
 * from the stage sources. index is the permutation of sh being built.
 */
func (ss *ShaderSystem) findShaderProgram(entries []metadata.ShaderEntry, sh *Shader, index int) (*metadata.ShaderProgramDescriptor, error) {
	for _, p := range ss.programs {
		if p.Matches(entries) {
			return p, nil
		}
	}

	sorted := append([]metadata.ShaderEntry(nil), entries...)
	slices.SortStableFunc(sorted, func(a, b metadata.ShaderEntry) int {
		return strings.Compare(a.Name, b.Name)
	})

	var combined strings.Builder
	queue := make([]*metadata.ShaderDescriptor, 0, len(sorted))
	for _, e := range sorted {
		d := ss.descriptor(e)
		if d == nil {
			err := fmt.Errorf("%w: %s %d", core.ErrShaderNotFound, e.Name, e.Macro)
			core.LogError("%s", err.Error())
			return nil, err
		}
		queue = append(queue, d)
		combined.WriteString(d.Text)
	}

	desc := &metadata.ShaderProgramDescriptor{
		Label:    uuid.New(),
		Checksum: core.BlockChecksum([]byte(combined.String())),
	}

	if !ss.LoadShaderBinary(sorted, sh.name, desc) {
		sh.setState(index, metadata.PermutationStagesCompiling)
		for _, d := range queue {
			if err := ss.buildShader(d); err != nil {
				return nil, err
			}
		}
		desc.Shaders = sorted

		sh.setState(index, metadata.PermutationLinking)
		if err := ss.buildShaderProgram(desc, queue); err != nil {
			return nil, err
		}
		ss.SaveShaderBinary(desc, sh.name)
	}
	ss.backend.ObjectLabel(desc.ID, fmt.Sprintf("%s %s", sh.name, desc.Label))

	ss.UpdateShaderProgramUniformLocations(sh, desc)
	ss.SetShaderProgramUniforms(sh, desc)

	ss.programs = append(ss.programs, desc)
	ss.metrics.Programs++
	return desc, nil
}

/** @brief Compiles a stage. A failure logs the annotated source. */
func (ss *ShaderSystem) buildShader(d *metadata.ShaderDescriptor) error {
	if d.ID != 0 {
		return nil
	}
	start := time.Now()

	shader := ss.backend.CreateShader(d.Stage)
	ss.backend.ShaderSource(shader, d.Text)
	if !ss.backend.CompileShader(shader) {
		infoLog := ss.backend.ShaderInfoLog(shader)
		ss.logShaderSource(d.Name, d.Text, infoLog)
		core.LogWarn("Compile log:\n%s", infoLog)
		ss.backend.DeleteShader(shader)

		err := fmt.Errorf("%w: couldn't compile %s shader: %s", core.ErrShaderCompile, d.Stage, d.Name)
		core.LogError("%s", err.Error())
		return err
	}

	d.ID = shader
	ss.metrics.Compile.Add(time.Since(start))
	return nil
}

/** @brief Binds the attribute names to their fixed locations. */
func (ss *ShaderSystem) BindAttribLocations(program uint32) {
	for i, name := range metadata.VertexAttributeNames {
		ss.backend.BindAttribLocation(program, uint32(i), name)
	}
}

/** @brief Links the compiled stages of queue into desc. */
func (ss *ShaderSystem) buildShaderProgram(desc *metadata.ShaderProgramDescriptor, queue []*metadata.ShaderDescriptor) error {
	if desc.ID != 0 {
		return nil
	}
	start := time.Now()

	program := ss.backend.CreateProgram()
	for _, d := range queue {
		ss.backend.AttachShader(program, d.ID)
	}
	ss.BindAttribLocations(program)

	if !ss.backend.LinkProgram(program) {
		core.LogWarn("Link log:\n%s", ss.backend.ProgramInfoLog(program))
		ss.backend.DeleteProgram(program)

		err := fmt.Errorf("%w: %s", core.ErrShaderLink, desc.Shaders)
		core.LogError("%s", err.Error())
		return err
	}

	desc.ID = program
	elapsed := time.Since(start)
	ss.metrics.Link.Add(elapsed)
	core.LogDebug("Program creation + linking: %d ms", elapsed.Milliseconds())
	return nil
}

/**
 * @brief Queries the location of every uniform and the index of every block
 * of sh in desc, binds the blocks to their binding points and allocates the
 * firewall.
 */
func (ss *ShaderSystem) UpdateShaderProgramUniformLocations(sh *Shader, desc *metadata.ShaderProgramDescriptor) {
	desc.UniformLocations = make([]int32, len(sh.uniforms))
	for _, u := range sh.uniforms {
		desc.UniformLocations[u.locationIndex] = ss.backend.GetUniformLocation(desc.ID, u.name)
	}
	desc.UniformFirewall = make([]byte, sh.uniformStorageSize)

	desc.UniformBlockIndexes = make([]uint32, len(sh.blocks))
	for _, b := range sh.blocks {
		index := ss.backend.GetUniformBlockIndex(desc.ID, b.name)
		desc.UniformBlockIndexes[b.locationIndex] = index
		if index != renderer.InvalidIndex {
			ss.backend.UniformBlockBinding(desc.ID, index, b.binding)
		}
	}
}

/**
 * @brief Assigns the fixed texture units of the samplers of sh. Bindless
 * samplers get their handles written instead.
 */
func (ss *ShaderSystem) SetShaderProgramUniforms(sh *Shader, desc *metadata.ShaderProgramDescriptor) {
	if ss.caps.BindlessTextures {
		return
	}

	ss.backend.UseProgram(desc.ID)
	for _, u := range sh.uniforms {
		if u.textureUnit < 0 {
			continue
		}
		location := desc.UniformLocations[u.locationIndex]
		if location < 0 {
			continue
		}
		ss.backend.SetUniform(location, u.uniformType, 1, []uint32{uint32(u.textureUnit)})
	}
	ss.backend.UseProgram(ss.boundProgram)
}

// deleteProgram releases a program and forgets it.
func (ss *ShaderSystem) deleteProgram(p *metadata.ShaderProgramDescriptor) {
	if p.ID == 0 {
		return
	}
	for i, other := range ss.programs {
		if other == p {
			ss.programs = append(ss.programs[:i], ss.programs[i+1:]...)
			break
		}
	}
	if ss.boundProgram == p.ID {
		ss.boundProgram = 0
	}
	ss.backend.DeleteProgram(p.ID)
	p.ID = 0
}
