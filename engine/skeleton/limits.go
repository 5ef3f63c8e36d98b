package skeleton

import "fmt"

// Default capacities. These are resource limits, not semantic ones.
const (
	// DefaultMaxBones is the number of bone matrix slots available to the skinning shader.
	DefaultMaxBones = 32

	// DefaultMaxBoneNames is the size of the bone name table.
	DefaultMaxBoneNames = 256

	// DefaultMaxNameLength is the longest accepted bone name in bytes.
	DefaultMaxNameLength = 64

	// DefaultMaxDepth is the deepest hierarchy accepted before it is treated as cyclic.
	DefaultMaxDepth = 256
)

// Limits holds the configurable capacities enforced while importing a skeleton.
type Limits struct {
	// MaxBones is the number of bone matrix slots.
	MaxBones int

	// MaxBoneNames is the maximum number of bone names in a registry.
	MaxBoneNames int

	// MaxNameLength is the maximum bone name length in bytes.
	MaxNameLength int

	// MaxDepth is the maximum hierarchy depth (root is depth 0).
	MaxDepth int
}

// DefaultLimits returns the default capacities.
//
// Returns:
//   - Limits: limits populated with the Default* constants
func DefaultLimits() Limits {
	return Limits{
		MaxBones:      DefaultMaxBones,
		MaxBoneNames:  DefaultMaxBoneNames,
		MaxNameLength: DefaultMaxNameLength,
		MaxDepth:      DefaultMaxDepth,
	}
}

// Validate reports whether every limit is positive.
//
// Returns:
//   - error: a description of the first non-positive limit, or nil
func (l Limits) Validate() error {
	switch {
	case l.MaxBones <= 0:
		return fmt.Errorf("max bones must be positive, got %d", l.MaxBones)
	case l.MaxBoneNames <= 0:
		return fmt.Errorf("max bone names must be positive, got %d", l.MaxBoneNames)
	case l.MaxNameLength <= 0:
		return fmt.Errorf("max name length must be positive, got %d", l.MaxNameLength)
	case l.MaxDepth <= 0:
		return fmt.Errorf("max depth must be positive, got %d", l.MaxDepth)
	}
	return nil
}
