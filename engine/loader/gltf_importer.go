package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-skin/engine/model"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	translationOnlyOffsets bool
}

// gltfImporter defines the interface for orchestrating a full glTF/GLB import.
// It combines the parser and the extractors to produce an ImportedModel.
type gltfImporter interface {
	// Import loads a glTF/GLB file and extracts its scene tree and meshes.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - *model.ImportedModel: the imported model
	//   - error: error if import fails
	Import(path string) (*model.ImportedModel, error)

	// ImportReader loads a glTF document from a reader.
	//
	// Parameters:
	//   - r: the reader providing glTF/GLB data
	//   - isGLB: true if the reader provides GLB binary data, false for glTF JSON
	//
	// Returns:
	//   - *model.ImportedModel: the imported model
	//   - error: error if import fails
	ImportReader(r io.Reader, isGLB bool) (*model.ImportedModel, error)
}

var _ gltfImporter = &gltfImporterImpl{}

func newGLTFImporter(translationOnlyOffsets bool) gltfImporter {
	return &gltfImporterImpl{translationOnlyOffsets: translationOnlyOffsets}
}

func (imp *gltfImporterImpl) Import(path string) (*model.ImportedModel, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return imp.importFromParser(parser, path)
}

func (imp *gltfImporterImpl) ImportReader(r io.Reader, isGLB bool) (*model.ImportedModel, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}
	return imp.importFromParser(parser, "")
}

func (imp *gltfImporterImpl) importFromParser(parser gltfParser, fallbackPath string) (*model.ImportedModel, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document after parsing")
	}

	root, err := newGLTFSceneExtractor(parser).ExtractScene()
	if err != nil {
		return nil, fmt.Errorf("scene extraction failed: %w", err)
	}

	meshes, err := newGLTFMeshExtractor(parser, imp.translationOnlyOffsets).ExtractAllMeshes()
	if err != nil {
		return nil, fmt.Errorf("mesh extraction failed: %w", err)
	}

	return &model.ImportedModel{
		Name:   gltfExtractModelName(doc, fallbackPath),
		Root:   root,
		Meshes: meshes,
	}, nil
}

// gltfExtractModelName derives a model name from the default scene, then the file name.
func gltfExtractModelName(doc *gltfDocument, fallbackPath string) string {
	if _, name := gltfSceneRoots(doc); name != "" {
		return name
	}
	if fallbackPath != "" {
		return strings.TrimSuffix(filepath.Base(fallbackPath), filepath.Ext(fallbackPath))
	}
	return "unnamed_model"
}
