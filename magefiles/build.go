//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the skinview binary into bin/.
func (Build) Viewer() error {
	_, err := executeCmd("go", withArgs("build", "-o", "bin/skinview", "./cmd/skinview"), withStream())
	return err
}

// Vets every package.
func (Build) Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}
