//go:build mage

package main

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

const dumpDir = "build/glsl"

// Builds the shaderforge binary.
func (Build) Binary() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "build/shaderforge", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Assembles every permutation and writes the stage sources to build/glsl.
func (Build) Shaders() error {
	if _, err := executeCmd("go", withArgs("run", ".", "-dump", dumpDir, "-report", "build/report.yaml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Checks the assembled sources with glslangValidator, when it is installed.
func (Build) Validate() error {
	mg.Deps(Build.Shaders)
	if _, err := exec.LookPath("glslangValidator"); err != nil {
		fmt.Println("glslangValidator not found, skipping validation")
		return nil
	}
	files, err := filepath.Glob(filepath.Join(dumpDir, "*.glsl"))
	if err != nil {
		return err
	}
	for _, f := range files {
		stage := stageOf(f)
		if stage == "" {
			continue
		}
		if _, err := executeCmd("glslangValidator", withArgs("-S", stage, f)); err != nil {
			return err
		}
	}
	return nil
}

func stageOf(file string) string {
	base := filepath.Base(file)
	switch {
	case matches(base, "*_vp.glsl"):
		return "vert"
	case matches(base, "*_fp.glsl"):
		return "frag"
	case matches(base, "*_cp.glsl"):
		return "comp"
	}
	return ""
}

func matches(name, pattern string) bool {
	ok, _ := filepath.Match(pattern, name)
	return ok
}
