package skeleton

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/model"
)

// Registry is the flat, ordered list of known bone names and their bind-pose offset matrices.
// Bone index i is the position of a name in the list and is the only key linking offsets,
// local animation transforms and final bone matrices. A Registry is immutable after
// construction and may be read from multiple goroutines.
type Registry struct {
	names   []string
	offsets []common.Mat4
	index   map[string]int
	limits  Limits
}

// NewRegistry builds a Registry from importer-ordered bone names and offsets.
// The order is preserved exactly; nothing is reordered or deduplicated.
//
// Parameters:
//   - names: bone names in importer enumeration order
//   - offsets: per-bone bind-pose offset matrices, parallel to names
//   - options: functional options (e.g. WithRegistryLimits)
//
// Returns:
//   - *Registry: the registry
//   - error: an *ImportError if the input violates a limit or names are not unique
func NewRegistry(names []string, offsets []common.Mat4, options ...RegistryBuilderOption) (*Registry, error) {
	r := &Registry{limits: DefaultLimits()}
	for _, option := range options {
		option(r)
	}
	if err := r.limits.Validate(); err != nil {
		return nil, importErr("registry", "", err)
	}

	if len(names) != len(offsets) {
		return nil, importErr("registry", "", fmt.Errorf("%w: %d names, %d offsets", ErrMismatchedOffsets, len(names), len(offsets)))
	}
	if len(names) > r.limits.MaxBoneNames {
		return nil, importErr("registry", "", fmt.Errorf("%w: %d bone names, name table holds %d", ErrCapacityExceeded, len(names), r.limits.MaxBoneNames))
	}
	if len(names) > r.limits.MaxBones {
		return nil, importErr("registry", "", fmt.Errorf("%w: %d bones, %d matrix slots", ErrCapacityExceeded, len(names), r.limits.MaxBones))
	}

	r.index = make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			return nil, importErr("registry", fmt.Sprintf("bone_%d", i), ErrEmptyName)
		}
		if len(name) > r.limits.MaxNameLength {
			return nil, importErr("registry", name, fmt.Errorf("%w: %d bytes, limit %d", ErrNameTooLong, len(name), r.limits.MaxNameLength))
		}
		if prev, ok := r.index[name]; ok {
			return nil, importErr("registry", name, fmt.Errorf("%w: bones %d and %d", ErrDuplicateBone, prev, i))
		}
		r.index[name] = i
	}

	r.names = append([]string(nil), names...)
	r.offsets = append([]common.Mat4(nil), offsets...)
	return r, nil
}

// RegistryFromMesh builds a Registry from a mesh's skin data.
// A mesh without bones yields an empty registry.
//
// Parameters:
//   - mesh: the imported mesh
//   - options: functional options forwarded to NewRegistry
//
// Returns:
//   - *Registry: the registry
//   - error: an *ImportError if the skin data is invalid
func RegistryFromMesh(mesh *model.ImportedMesh, options ...RegistryBuilderOption) (*Registry, error) {
	if mesh == nil || mesh.Bones == nil {
		return NewRegistry(nil, nil, options...)
	}
	return NewRegistry(mesh.Bones.Names, mesh.Bones.Offsets, options...)
}

// Len returns the number of bones.
func (r *Registry) Len() int {
	return len(r.names)
}

// Name returns the name of bone i.
func (r *Registry) Name(i int) string {
	return r.names[i]
}

// Names returns a copy of the bone names in bone-index order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Offset returns the bind-pose offset matrix of bone i.
func (r *Registry) Offset(i int) common.Mat4 {
	return r.offsets[i]
}

// Offsets returns the offsets in bone-index order.
// The slice is shared with the registry and must be treated as read-only.
func (r *Registry) Offsets() []common.Mat4 {
	return r.offsets
}

// Index looks a bone up by exact, case-sensitive name.
//
// Parameters:
//   - name: the bone name
//
// Returns:
//   - int: the bone index
//   - bool: false if no bone has that name
func (r *Registry) Index(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Limits returns the limits the registry was validated against.
func (r *Registry) Limits() Limits {
	return r.limits
}
