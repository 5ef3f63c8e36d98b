package model

import (
	"github.com/Carmen-Shannon/oxy-skin/common"
)

// maxSceneDepth bounds walks over raw importer hierarchies, which are not validated for acyclicity.
const maxSceneDepth = 1024

// --- Scene Graph ---

// SceneNode is a node of the raw scene-graph hierarchy produced by an importer.
// Only the name and the ordered children are consumed by the skeleton builder.
type SceneNode struct {
	// Name is the node identifier. It is compared against bone names by exact match.
	Name string

	// Children are the node's children in import order.
	Children []*SceneNode
}

// Count returns the number of nodes in the hierarchy rooted at n, n included.
// Walks stop descending past a fixed depth so that malformed cyclic input terminates.
//
// Returns:
//   - int: the total node count, or 0 for a nil node
func (n *SceneNode) Count() int {
	return n.count(0)
}

func (n *SceneNode) count(depth int) int {
	if n == nil || depth > maxSceneDepth {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.count(depth + 1)
	}
	return total
}

// --- Skin Data ---

// BoneWeight is the influence of one bone on one vertex.
type BoneWeight struct {
	// BoneIndex indexes BoneData.Names and BoneData.Offsets.
	BoneIndex int

	// Weight is the bone's influence in [0, 1].
	Weight float32
}

// BoneData holds the skin data reported by the importer for a mesh.
// Names and Offsets are parallel and ordered exactly as the importer enumerated the bones.
type BoneData struct {
	// Names are the bone names; index i is bone index i.
	Names []string

	// Offsets are the per-bone bind-pose offset matrices (model space to bone space).
	Offsets []common.Mat4

	// VertexWeights holds, per vertex, the bones influencing it.
	// Parsed for completeness; the pose evaluator does not consume it.
	VertexWeights [][]BoneWeight
}

// --- Import Types ---

// ImportedMesh is a single mesh produced by an importer.
type ImportedMesh struct {
	// Name is the mesh identifier.
	Name string

	// Positions are the vertex positions.
	Positions [][3]float32

	// Normals are the optional vertex normals (empty when absent).
	Normals [][3]float32

	// TexCoords are the optional first UV set (empty when absent).
	TexCoords [][2]float32

	// Bones is the optional skin data (nil for static meshes).
	Bones *BoneData
}

// VertexCount returns the number of vertices in the mesh.
func (m *ImportedMesh) VertexCount() int { return len(m.Positions) }

// HasNormals reports whether the mesh carries normals.
func (m *ImportedMesh) HasNormals() bool { return len(m.Normals) > 0 }

// HasTexCoords reports whether the mesh carries UV coordinates.
func (m *ImportedMesh) HasTexCoords() bool { return len(m.TexCoords) > 0 }

// HasBones reports whether the mesh carries skin data with at least one bone.
func (m *ImportedMesh) HasBones() bool { return m.Bones != nil && len(m.Bones.Names) > 0 }

// ImportedModel is a model loaded from an external format.
type ImportedModel struct {
	// Name is the model identifier.
	Name string

	// Root is the root of the raw scene-graph hierarchy.
	Root *SceneNode

	// Meshes are the imported meshes in file order.
	Meshes []ImportedMesh
}

// SkinnedMesh returns the first mesh that has bone data.
//
// Returns:
//   - *ImportedMesh: the skinned mesh, or nil if none exists
//   - int: the mesh index, or -1 if none exists
func (m *ImportedModel) SkinnedMesh() (*ImportedMesh, int) {
	for i := range m.Meshes {
		if m.Meshes[i].HasBones() {
			return &m.Meshes[i], i
		}
	}
	return nil, -1
}
