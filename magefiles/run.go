//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the unit tests.
func (Run) Tests() error {
	if _, err := executeCmd("go", withArgs("test", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}

// Exports the built-in sources to shaders/ and rebuilds on every change.
func (Run) Watch() error {
	if _, err := executeCmd("go", withArgs("run", ".", "-export", "shaders")); err != nil {
		return err
	}
	fmt.Println("Watching shaders/ ...")
	if _, err := executeCmd("go", withArgs("run", ".", "-shaders", "shaders", "-watch"), withStream()); err != nil {
		return err
	}
	return nil
}
