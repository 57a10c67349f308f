package systems

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/math"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

/** @brief The kind of a vertex deformation step. */
type DeformType int

const (
	DeformNone DeformType = iota
	DeformWave
	DeformNormals
	DeformBulge
	DeformMove
	DeformRotGrow
)

/** @brief The periodic function driving a deformation. */
type GenFunc int

const (
	GenFuncNone GenFunc = iota
	GenFuncSin
	GenFuncSquare
	GenFuncTriangle
	GenFuncSawtooth
	GenFuncInverseSawtooth
	GenFuncNoise
)

var genFuncSteps = map[GenFunc]string{
	GenFuncNone:            "DSTEP_NONE",
	GenFuncSin:             "DSTEP_SIN",
	GenFuncSquare:          "DSTEP_SQUARE",
	GenFuncTriangle:        "DSTEP_TRIANGLE",
	GenFuncSawtooth:        "DSTEP_SAWTOOTH",
	GenFuncInverseSawtooth: "DSTEP_INV_SAWTOOTH",
	GenFuncNoise:           "DSTEP_NOISE",
}

/** @brief The step macro of the function, DSTEP_NONE for unknown values. */
func (g GenFunc) Step() string {
	if s, ok := genFuncSteps[g]; ok {
		return s
	}
	return genFuncSteps[GenFuncNone]
}

/** @brief A periodic function: base + amplitude * func(phase + frequency * t). */
type Waveform struct {
	Func      GenFunc
	Base      float32
	Amplitude float32
	Phase     float32
	Frequency float32
}

/** @brief One step of a material's vertex deformation. */
type DeformStage struct {
	Type DeformType
	Wave Waveform
	/** @brief Phase spread over the vertex position for waves. */
	Spread float32

	BulgeWidth  float32
	BulgeHeight float32
	BulgeSpeed  float32

	MoveVector math.Vec3
	/** @brief Speed, start and end of a rotgrow step. */
	RotGrow [3]float32
}

/**
 * @brief Translates deformation steps into the DEFORM_STEPS define consumed by
 * deformVertexes_vp.glsl.
 */
func BuildDeformSteps(deforms []DeformStage) string {
	var sb strings.Builder
	sb.WriteString("#define DEFORM_STEPS ")
	for _, ds := range deforms {
		switch ds.Type {
		case DeformWave:
			fmt.Fprintf(&sb, "DSTEP_LOAD_POS(1.0, 1.0, 1.0) %s(%f, %f, %f) DSTEP_LOAD_NORM(1.0, 1.0, 1.0) DSTEP_MODIFY_POS(%f, %f, 1.0) ",
				ds.Wave.Func.Step(), ds.Wave.Phase, ds.Spread, ds.Wave.Frequency, ds.Wave.Base, ds.Wave.Amplitude)
		case DeformBulge:
			fmt.Fprintf(&sb, "DSTEP_LOAD_TC(1.0, 0.0, 0.0) DSTEP_SIN(0.0, %f, %f) DSTEP_LOAD_NORM(1.0, 1.0, 1.0) DSTEP_MODIFY_POS(0.0, %f, 1.0) ",
				ds.BulgeWidth, ds.BulgeSpeed*0.001, ds.BulgeHeight)
		case DeformMove:
			fmt.Fprintf(&sb, "%s(%f, 0.0, %f) DSTEP_LOAD_VEC(%f, %f, %f) DSTEP_MODIFY_POS(%f, %f, 1.0) ",
				ds.Wave.Func.Step(), ds.Wave.Phase, ds.Wave.Frequency,
				ds.MoveVector.X, ds.MoveVector.Y, ds.MoveVector.Z,
				ds.Wave.Base, ds.Wave.Amplitude)
		case DeformNormals:
			fmt.Fprintf(&sb, "DSTEP_LOAD_POS(1.0, 1.0, 1.0) DSTEP_NOISE(0.0, 0.0, %f) DSTEP_MODIFY_NORM(0.0, %f, 1.0) ",
				ds.Wave.Frequency, 0.98*ds.Wave.Amplitude)
		case DeformRotGrow:
			fmt.Fprintf(&sb, "DSTEP_LOAD_POS(1.0, 1.0, 1.0) DSTEP_ROTGROW(%f, %f, %f) DSTEP_LOAD_COLOR(1.0, 1.0, 1.0) DSTEP_MODIFY_COLOR(-1.0, 1.0, 0.0) ",
				ds.RotGrow[0], ds.RotGrow[1], ds.RotGrow[2])
		}
	}
	return sb.String()
}

func deformShaderName(index int) string {
	return fmt.Sprintf("deformVertexes_%d", index)
}

/**
 * @brief Returns the index of the vertex stage implementing deforms, creating
 * it on first use. Equal step lists share one stage.
 */
func (ss *ShaderSystem) GetDeformShaderIndex(deforms []DeformStage) (int, error) {
	steps := BuildDeformSteps(deforms)
	if index, ok := ss.deformLookup[steps]; ok {
		return index, nil
	}
	return ss.addDeformShader(steps)
}

func (ss *ShaderSystem) addDeformShader(steps string) (int, error) {
	text, err := ss.source.Text("deformVertexes_vp.glsl")
	if err != nil {
		core.LogError("failed to load deform shader: %s", err.Error())
		return 0, err
	}

	index := ss.deformCount
	headers := []GLHeader{ss.headers.versionDeclaration, ss.headers.vertex}
	ss.descriptors = append(ss.descriptors, &metadata.ShaderDescriptor{
		Name:   deformShaderName(index),
		Macro:  0,
		Stage:  metadata.ShaderStageVertex,
		Text:   BuildShaderText(steps+"\n"+text, headers, ""),
		Offset: len(ss.headers.versionDeclaration.Text),
		Main:   false,
	})
	ss.deformLookup[steps] = index
	ss.deformSteps = append(ss.deformSteps, steps)
	ss.deformCount++
	return index, nil
}

/** @brief The number of deform stages created so far. */
func (ss *ShaderSystem) DeformCount() int {
	return ss.deformCount
}
