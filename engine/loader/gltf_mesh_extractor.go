package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/model"
)

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser                 gltfParser
	translationOnlyOffsets bool
}

// gltfMeshExtractor defines the interface for extracting mesh geometry and skin data
// from a parsed glTF document.
type gltfMeshExtractor interface {
	// ExtractMesh extracts the first primitive of a mesh. When a node binds the mesh to a
	// skin, the skin's joints become the mesh's bones.
	//
	// Parameters:
	//   - meshIndex: the index of the mesh
	//
	// Returns:
	//   - model.ImportedMesh: the imported mesh
	//   - error: error if a required attribute is missing or malformed
	ExtractMesh(meshIndex int) (model.ImportedMesh, error)

	// ExtractAllMeshes extracts every mesh in document order.
	//
	// Returns:
	//   - []model.ImportedMesh: the imported meshes
	//   - error: error if any mesh fails to extract
	ExtractAllMeshes() ([]model.ImportedMesh, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

func newGLTFMeshExtractor(parser gltfParser, translationOnlyOffsets bool) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser, translationOnlyOffsets: translationOnlyOffsets}
}

func (e *gltfMeshExtractorImpl) ExtractAllMeshes() ([]model.ImportedMesh, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	meshes := make([]model.ImportedMesh, 0, len(doc.Meshes))
	for i := range doc.Meshes {
		m, err := e.ExtractMesh(i)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

func (e *gltfMeshExtractorImpl) ExtractMesh(meshIndex int) (model.ImportedMesh, error) {
	doc := e.parser.Document()
	if doc == nil {
		return model.ImportedMesh{}, fmt.Errorf("no document loaded")
	}
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return model.ImportedMesh{}, fmt.Errorf("mesh index %d out of range", meshIndex)
	}

	src := &doc.Meshes[meshIndex]
	mesh := model.ImportedMesh{Name: src.Name}
	if mesh.Name == "" {
		mesh.Name = fmt.Sprintf("mesh_%d", meshIndex)
	}
	if len(src.Primitives) == 0 {
		return mesh, nil
	}

	prim := &src.Primitives[0]
	if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
		return mesh, fmt.Errorf("unsupported primitive mode: %d (only triangles supported)", *prim.Mode)
	}

	posAccessor, ok := prim.Attributes["POSITION"]
	if !ok {
		return mesh, fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := e.parser.ReadFloats(posAccessor, gltfAccessorTypeVec3)
	if err != nil {
		return mesh, fmt.Errorf("failed to read positions: %w", err)
	}
	mesh.Positions = toVec3(positions)

	if acc, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := e.parser.ReadFloats(acc, gltfAccessorTypeVec3)
		if err != nil {
			return mesh, fmt.Errorf("failed to read normals: %w", err)
		}
		mesh.Normals = toVec3(normals)
	}

	if acc, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, err := e.parser.ReadFloats(acc, gltfAccessorTypeVec2)
		if err != nil {
			return mesh, fmt.Errorf("failed to read texcoords: %w", err)
		}
		mesh.TexCoords = make([][2]float32, len(uvs)/2)
		for i := range mesh.TexCoords {
			mesh.TexCoords[i] = [2]float32{uvs[i*2], uvs[i*2+1]}
		}
	}

	if skin := gltfSkinForMesh(doc, meshIndex); skin >= 0 {
		bones, err := e.extractBones(skin, prim, mesh.VertexCount())
		if err != nil {
			return mesh, fmt.Errorf("skin %d: %w", skin, err)
		}
		mesh.Bones = bones
	}
	return mesh, nil
}

// extractBones reads the joint names and inverse bind matrices of a skin, plus the
// per-vertex weights of the primitive.
func (e *gltfMeshExtractorImpl) extractBones(skinIndex int, prim *gltfPrimitive, vertexCount int) (*model.BoneData, error) {
	doc := e.parser.Document()
	if skinIndex >= len(doc.Skins) {
		return nil, fmt.Errorf("skin index out of range")
	}
	skin := &doc.Skins[skinIndex]

	var ibm []float32
	if skin.InverseBindMatrices != nil {
		var err error
		if ibm, err = e.parser.ReadFloats(*skin.InverseBindMatrices, gltfAccessorTypeMat4); err != nil {
			return nil, fmt.Errorf("failed to read inverse bind matrices: %w", err)
		}
	}

	bones := &model.BoneData{
		Names:   make([]string, len(skin.Joints)),
		Offsets: make([]common.Mat4, len(skin.Joints)),
	}
	for i, joint := range skin.Joints {
		if joint < 0 || joint >= len(doc.Nodes) {
			return nil, fmt.Errorf("joint %d: invalid node index %d", i, joint)
		}
		bones.Names[i] = gltfNodeName(doc, joint)

		offset := common.Identity4()
		if (i+1)*16 <= len(ibm) {
			copy(offset[:], ibm[i*16:(i+1)*16])
		}
		if e.translationOnlyOffsets {
			offset = common.TranslationOnly(offset)
		}
		bones.Offsets[i] = offset
	}

	jointsAcc, hasJoints := prim.Attributes["JOINTS_0"]
	weightsAcc, hasWeights := prim.Attributes["WEIGHTS_0"]
	if !hasJoints || !hasWeights {
		return bones, nil
	}

	joints, err := e.parser.ReadUints(jointsAcc, gltfAccessorTypeVec4)
	if err != nil {
		return nil, fmt.Errorf("failed to read joints: %w", err)
	}
	weights, err := e.parser.ReadFloats(weightsAcc, gltfAccessorTypeVec4)
	if err != nil {
		return nil, fmt.Errorf("failed to read weights: %w", err)
	}
	if len(joints) != len(weights) || len(joints) != vertexCount*4 {
		return nil, fmt.Errorf("JOINTS_0/WEIGHTS_0 cover %d/%d influences, want %d", len(joints), len(weights), vertexCount*4)
	}

	bones.VertexWeights = make([][]model.BoneWeight, vertexCount)
	for v := 0; v < vertexCount; v++ {
		for k := 0; k < 4; k++ {
			w := weights[v*4+k]
			if w == 0 {
				continue
			}
			j := int(joints[v*4+k])
			if j >= len(skin.Joints) {
				return nil, fmt.Errorf("vertex %d references joint %d of %d", v, j, len(skin.Joints))
			}
			bones.VertexWeights[v] = append(bones.VertexWeights[v], model.BoneWeight{BoneIndex: j, Weight: w})
		}
	}
	return bones, nil
}

// gltfSkinForMesh returns the skin of the first node that instantiates the mesh with a
// skin, or -1.
func gltfSkinForMesh(doc *gltfDocument, meshIndex int) int {
	for _, n := range doc.Nodes {
		if n.Mesh != nil && *n.Mesh == meshIndex && n.Skin != nil {
			return *n.Skin
		}
	}
	return -1
}

func toVec3(flat []float32) [][3]float32 {
	out := make([][3]float32, len(flat)/3)
	for i := range out {
		out[i] = [3]float32{flat[i*3], flat[i*3+1], flat[i*3+2]}
	}
	return out
}
