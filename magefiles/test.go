//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs the unit tests.
func (Test) Unit() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}

// Runs the unit tests with the race detector.
func (Test) Race() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withEnv("CGO_ENABLED", "1"), withStream())
	return err
}

// Runs a short headless evaluation of a model, e.g. mage test:headless assets/fox.glb
func (Test) Headless(model string) error {
	mg.Deps(Build.Viewer)
	_, err := executeCmd("bin/skinview", withArgs("-headless", "-frames", "120", "-spin", "-model", model), withStream())
	return err
}
