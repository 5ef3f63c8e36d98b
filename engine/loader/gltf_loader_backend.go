package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-skin/engine/model"
)

// gltfLoaderBackendImpl is a loaderBackend for glTF/GLB files. It delegates to the
// gltfImporter for parsing and extraction.
type gltfLoaderBackendImpl struct {
	importer gltfImporter
}

var _ loaderBackend = &gltfLoaderBackendImpl{}

func newGLTFLoaderBackend(translationOnlyOffsets bool) loaderBackend {
	return &gltfLoaderBackendImpl{
		importer: newGLTFImporter(translationOnlyOffsets),
	}
}

func (b *gltfLoaderBackendImpl) Load(path string) (*model.ImportedModel, error) {
	return b.importer.Import(path)
}

func (b *gltfLoaderBackendImpl) LoadReader(r io.Reader, isGLB bool) (*model.ImportedModel, error) {
	return b.importer.ImportReader(r, isGLB)
}
