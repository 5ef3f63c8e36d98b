package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-skin/engine/model"
)

// loaderBackend defines the generic interface for importing models from files or streams.
// Concrete implementations handle format-specific details.
type loaderBackend interface {
	// Load imports the model file at path.
	Load(path string) (*model.ImportedModel, error)

	// LoadReader imports a model from a reader stream. isGLB selects the binary container.
	LoadReader(r io.Reader, isGLB bool) (*model.ImportedModel, error)
}
