package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/model"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skinnedBuffer holds three vertices weighted to two joints, followed by two inverse
// bind matrices.
func skinnedBuffer(t *testing.T, ibm []common.Mat4) []byte {
	t.Helper()
	var buf bytes.Buffer
	write := func(v any) { require.NoError(t, binary.Write(&buf, binary.LittleEndian, v)) }

	// positions at 0, joints at 36, weights at 48, inverse bind matrices at 96
	write([][3]float32{{0, 0, 0}, {0, 1, 0}, {0, 2, 0}})
	write([][4]uint8{{0, 0, 0, 0}, {0, 1, 0, 0}, {1, 0, 0, 0}})
	write([][4]float32{{1, 0, 0, 0}, {0.5, 0.5, 0, 0}, {1, 0, 0, 0}})
	for _, m := range ibm {
		write(m)
	}
	return buf.Bytes()
}

func intPtr(i int) *int { return &i }

// skinnedDocument describes Scene -> Armature -> {hip -> spine, Body, <unnamed>}.
func skinnedDocument(uri string, byteLength int) gltfDocument {
	return gltfDocument{
		Asset:  gltfAsset{Version: "2.0"},
		Scene:  intPtr(0),
		Scenes: []gltfScene{{Name: "Scene", Nodes: []int{0}}},
		Nodes: []gltfNode{
			{Name: "Armature", Children: []int{1, 3, 4}},
			{Name: "hip", Children: []int{2}},
			{Name: "spine"},
			{Name: "Body", Mesh: intPtr(0), Skin: intPtr(0)},
			{},
		},
		Meshes: []gltfMesh{{
			Name: "Body",
			Primitives: []gltfPrimitive{{Attributes: map[string]int{
				"POSITION": 0, "JOINTS_0": 1, "WEIGHTS_0": 2,
			}}},
		}},
		Skins: []gltfSkin{{Joints: []int{1, 2}, InverseBindMatrices: intPtr(3)}},
		Accessors: []gltfAccessor{
			{BufferView: intPtr(0), ComponentType: gltfComponentTypeFloat, Count: 3, Type: gltfAccessorTypeVec3},
			{BufferView: intPtr(1), ComponentType: gltfComponentTypeUnsignedByte, Count: 3, Type: gltfAccessorTypeVec4},
			{BufferView: intPtr(2), ComponentType: gltfComponentTypeFloat, Count: 3, Type: gltfAccessorTypeVec4},
			{BufferView: intPtr(3), ComponentType: gltfComponentTypeFloat, Count: 2, Type: gltfAccessorTypeMat4},
		},
		BufferViews: []gltfBufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 36},
			{Buffer: 0, ByteOffset: 36, ByteLength: 12},
			{Buffer: 0, ByteOffset: 48, ByteLength: 48},
			{Buffer: 0, ByteOffset: 96, ByteLength: 128},
		},
		Buffers: []gltfBuffer{{URI: uri, ByteLength: byteLength}},
	}
}

func defaultIBM() []common.Mat4 {
	return []common.Mat4{common.Identity4(), common.Translate(0, -1, 0)}
}

func gltfJSON(t *testing.T, ibm []common.Mat4) []byte {
	t.Helper()
	bin := skinnedBuffer(t, ibm)
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(bin)
	data, err := json.Marshal(skinnedDocument(uri, len(bin)))
	require.NoError(t, err)
	return data
}

func glb(t *testing.T) []byte {
	t.Helper()
	bin := skinnedBuffer(t, defaultIBM())
	jsonData, err := json.Marshal(skinnedDocument("", len(bin)))
	require.NoError(t, err)
	for len(jsonData)%4 != 0 {
		jsonData = append(jsonData, ' ')
	}

	var out bytes.Buffer
	total := 12 + 8 + len(jsonData) + 8 + len(bin)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: uint32(total)}))
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(jsonData)), ChunkType: gltfGLBChunkJSON}))
	out.Write(jsonData)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(bin)), ChunkType: gltfGLBChunkBIN}))
	out.Write(bin)
	return out.Bytes()
}

func quietLoader(options ...LoaderBuilderOption) Loader {
	return NewLoader(BackendTypeGLTF, append([]LoaderBuilderOption{WithLogger(log.New(io.Discard))}, options...)...)
}

func assertSkinnedModel(t *testing.T, m *model.ImportedModel) {
	t.Helper()

	require.NotNil(t, m.Root)
	assert.Equal(t, "Scene", m.Name)
	assert.Equal(t, "Scene", m.Root.Name)
	require.Len(t, m.Root.Children, 1)
	armature := m.Root.Children[0]
	assert.Equal(t, "Armature", armature.Name)
	require.Len(t, armature.Children, 3)
	assert.Equal(t, "hip", armature.Children[0].Name)
	assert.Equal(t, "spine", armature.Children[0].Children[0].Name)
	assert.Equal(t, "node_4", armature.Children[2].Name)
	assert.Equal(t, 6, m.Root.Count())

	mesh, idx := m.SkinnedMesh()
	require.NotNil(t, mesh)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 3, mesh.VertexCount())
	assert.False(t, mesh.HasNormals())
	assert.Equal(t, [3]float32{0, 2, 0}, mesh.Positions[2])

	assert.Equal(t, []string{"hip", "spine"}, mesh.Bones.Names)
	assert.Equal(t, defaultIBM(), mesh.Bones.Offsets)
	assert.Equal(t, [][]model.BoneWeight{
		{{BoneIndex: 0, Weight: 1}},
		{{BoneIndex: 0, Weight: 0.5}, {BoneIndex: 1, Weight: 0.5}},
		{{BoneIndex: 1, Weight: 1}},
	}, mesh.Bones.VertexWeights)
}

func TestLoadReaderGLTF(t *testing.T) {
	l := quietLoader()
	m, err := l.LoadReader("rig", bytes.NewReader(gltfJSON(t, defaultIBM())), false)
	require.NoError(t, err)
	assertSkinnedModel(t, m)

	// Cached by name.
	again, err := l.LoadReader("rig", strings.NewReader("not json"), false)
	require.NoError(t, err)
	assert.Same(t, m, again)
	assert.Same(t, m, l.Get("rig"))
	assert.Len(t, l.Models(), 1)

	assert.True(t, l.Evict("rig"))
	assert.False(t, l.Evict("rig"))
	assert.Nil(t, l.Get("rig"))
}

func TestLoadReaderGLB(t *testing.T) {
	m, err := quietLoader().LoadReader("rig", bytes.NewReader(glb(t)), true)
	require.NoError(t, err)
	assertSkinnedModel(t, m)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rig.glb")
	require.NoError(t, os.WriteFile(path, glb(t), 0o644))

	l := quietLoader()
	m, err := l.Load(path)
	require.NoError(t, err)
	assertSkinnedModel(t, m)
	assert.Same(t, m, l.Get(path))

	_, err = l.Load(filepath.Join(dir, "rig.fbx"))
	assert.ErrorContains(t, err, "unsupported model format")

	_, err = l.Load(filepath.Join(dir, "missing.gltf"))
	assert.Error(t, err)
}

func TestTranslationOnlyOffsets(t *testing.T) {
	ibm := []common.Mat4{
		common.RotateZ(1).Mul(common.Translate(3, 0, 0)),
		common.Scale(2, 2, 2),
	}
	m, err := quietLoader(WithTranslationOnlyOffsets()).LoadReader("rig", bytes.NewReader(gltfJSON(t, ibm)), false)
	require.NoError(t, err)

	mesh, _ := m.SkinnedMesh()
	require.NotNil(t, mesh)
	assert.Equal(t, common.TranslationOnly(ibm[0]), mesh.Bones.Offsets[0])
	assert.True(t, mesh.Bones.Offsets[1].IsIdentity(0))
}

func TestImportedModelBuildsSkeleton(t *testing.T) {
	m, err := quietLoader().LoadReader("rig", bytes.NewReader(gltfJSON(t, defaultIBM())), false)
	require.NoError(t, err)

	mesh, _ := m.SkinnedMesh()
	reg, err := skeleton.RegistryFromMesh(mesh)
	require.NoError(t, err)
	skel, err := skeleton.Build(m.Root, reg, skeleton.WithLogger(log.New(io.Discard)))
	require.NoError(t, err)

	assert.Equal(t, 2, skel.BoneCount())
	hip := skel.Node(skel.Find("hip"))
	require.NotNil(t, hip)
	b, ok := hip.Bone.Get()
	assert.True(t, ok)
	assert.Equal(t, 0, b)
	assert.False(t, skel.Node(skel.Find("Armature")).Bone.IsBone())
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		isGLB bool
		want  string
	}{
		{name: "bad json", data: "{", want: "failed to parse glTF JSON"},
		{name: "version", data: `{"asset":{"version":"1.0"}}`, want: "invalid glTF version"},
		{name: "glb magic", data: "0123456789abcdef", isGLB: true, want: "invalid GLB magic"},
		{name: "glb short", data: "abc", isGLB: true, want: "too small"},
		{name: "buffer uri", data: `{"asset":{"version":"2.0"},"buffers":[{"uri":"data:foo","byteLength":1}]}`, want: "invalid buffer URI"},
		{name: "buffer size", data: `{"asset":{"version":"2.0"},"buffers":[{"uri":"data:application/octet-stream;base64,AA==","byteLength":8}]}`, want: "buffer size mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := quietLoader().LoadReader(tt.name, strings.NewReader(tt.data), tt.isGLB)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestAccessorBounds(t *testing.T) {
	tests := []struct {
		name  string
		count int
	}{
		{name: "past end", count: 100},
		{name: "negative", count: -1},
		{name: "huge", count: 1 << 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin := skinnedBuffer(t, defaultIBM())
			doc := skinnedDocument("data:application/octet-stream;base64,"+base64.StdEncoding.EncodeToString(bin), len(bin))
			doc.Accessors[0].Count = tt.count
			data, err := json.Marshal(doc)
			require.NoError(t, err)

			_, err = quietLoader().LoadReader("rig", bytes.NewReader(data), false)
			assert.ErrorIs(t, err, errAccessorBounds)
		})
	}
}

func TestSceneWithoutScenes(t *testing.T) {
	data := `{"asset":{"version":"2.0"},"nodes":[{"name":"a","children":[1]},{"name":"b"},{"name":"c"}]}`
	m, err := quietLoader().LoadReader("flat", strings.NewReader(data), false)
	require.NoError(t, err)

	assert.Equal(t, defaultRootName, m.Root.Name)
	require.Len(t, m.Root.Children, 2)
	assert.Equal(t, "a", m.Root.Children[0].Name)
	assert.Equal(t, "c", m.Root.Children[1].Name)
	assert.Empty(t, m.Meshes)
}
