package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/model"
	"github.com/charmbracelet/log"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	modelCache map[string]*model.ImportedModel

	backendType            LoaderBackendType
	backend                loaderBackend
	translationOnlyOffsets bool
	logger                 *log.Logger
}

// Loader defines the public-facing interface for importing and caching skinned models.
// It abstracts the file format behind a backend and caches imported models by key.
type Loader interface {
	// Load imports a model file and caches the result by path.
	// If the model is already cached, the cached version is returned.
	//
	// Parameters:
	//   - path: the file path to the model file (.gltf or .glb)
	//
	// Returns:
	//   - *model.ImportedModel: the imported model
	//   - error: error if the format is unsupported or import fails
	Load(path string) (*model.ImportedModel, error)

	// LoadReader imports a model from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded model
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - *model.ImportedModel: the imported model
	//   - error: error if import fails
	LoadReader(name string, r io.Reader, isGLB bool) (*model.ImportedModel, error)

	// Get retrieves a cached model by key. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *model.ImportedModel: the cached model or nil
	Get(name string) *model.ImportedModel

	// Evict drops a cached model so the next Load re-imports it from disk.
	//
	// Parameters:
	//   - name: the cache key to drop
	//
	// Returns:
	//   - bool: true if a model was cached under name
	Evict(name string) bool

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]*model.ImportedModel: all cached models keyed by name
	Models() map[string]*model.ImportedModel
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		modelCache:  make(map[string]*model.ImportedModel),
		backendType: backendType,
		logger:      common.Logger(),
	}
	for _, option := range options {
		option(l)
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend(l.translationOnlyOffsets)
	}
	return l
}

func (l *loader) Load(path string) (*model.ImportedModel, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	imported, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	l.logStats(imported)

	l.mu.Lock()
	l.modelCache[path] = imported
	l.mu.Unlock()

	return imported, nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) (*model.ImportedModel, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}
	if l.backend == nil {
		return nil, fmt.Errorf("no loader backend for type %d", l.backendType)
	}

	imported, err := l.backend.LoadReader(r, isGLB)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	l.logStats(imported)

	l.mu.Lock()
	l.modelCache[name] = imported
	l.mu.Unlock()

	return imported, nil
}

func (l *loader) Get(name string) *model.ImportedModel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Evict(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.modelCache[name]
	delete(l.modelCache, name)
	return ok
}

func (l *loader) Models() map[string]*model.ImportedModel {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*model.ImportedModel, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v
	}
	return result
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		if l.backend != nil {
			return l.backend, nil
		}
	}
	return nil, fmt.Errorf("unsupported model format: %s", ext)
}

func (l *loader) logStats(m *model.ImportedModel) {
	l.logger.Debug("model imported", "name", m.Name, "nodes", m.Root.Count(), "meshes", len(m.Meshes))
	for _, mesh := range m.Meshes {
		var bones []string
		if mesh.Bones != nil {
			bones = mesh.Bones.Names
		}
		l.logger.Debug("mesh", "name", mesh.Name, "vertices", mesh.VertexCount(), "bones", len(bones), "names", strings.Join(bones, ","))
	}
}
