package viewer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/config"
	"github.com/Carmen-Shannon/oxy-skin/engine/input"
	"github.com/Carmen-Shannon/oxy-skin/engine/model"
	"github.com/Carmen-Shannon/oxy-skin/engine/pose"
	"github.com/Carmen-Shannon/oxy-skin/engine/sink"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-5

func quietLogger() *log.Logger {
	l := log.New(os.Stderr)
	l.SetLevel(log.FatalLevel)
	return l
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Render.ProfileInterval = 0
	return cfg
}

// armModel is Armature -> hip -> spine with hip at the origin and spine one unit up.
func armModel() *model.ImportedModel {
	return &model.ImportedModel{
		Name: "arm",
		Root: &model.SceneNode{Name: "Armature", Children: []*model.SceneNode{
			{Name: "hip", Children: []*model.SceneNode{{Name: "spine"}}},
		}},
		Meshes: []model.ImportedMesh{{
			Name:      "Body",
			Positions: [][3]float32{{0, 0, 0}, {0, 1, 0}},
			Bones: &model.BoneData{
				Names:   []string{"hip", "spine"},
				Offsets: []common.Mat4{common.Identity4(), common.Translate(0, -1, 0)},
			},
		}},
	}
}

// gltfArm is the same rig as armModel stored as a glTF file with a data URI buffer.
func gltfArm(joints string) string {
	return `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"name": "Scene", "nodes": [0]}],
  "nodes": [
    {"name": "Armature", "children": [1, 3]},
    {"name": "hip", "children": [2]},
    {"name": "spine"},
    {"name": "Body", "mesh": 0, "skin": 0}
  ],
  "meshes": [{"name": "Body", "primitives": [{"attributes": {"POSITION": 0}}]}],
  "skins": [{"joints": [` + joints + `]}],
  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 1, "type": "VEC3"}],
  "bufferViews": [{"buffer": 0, "byteLength": 12}],
  "buffers": [{"uri": "data:application/octet-stream;base64,AAAAAAAAAAAAAAAA", "byteLength": 12}]
}`
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Render.Instances = 0

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestFrameNoModel(t *testing.T) {
	v, err := New(testConfig(), WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.ErrorIs(t, v.Frame(0.016), ErrNoModel)
	assert.Nil(t, v.BoneMatrices())
	assert.Nil(t, v.Skeleton())
	assert.Nil(t, v.Registry())
}

func TestFrameBindPoseUploadsIdentity(t *testing.T) {
	mem := sink.NewMemorySink(8)
	v, err := New(testConfig(), WithSink(mem), WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, v.LoadModel(armModel()))

	require.NoError(t, v.Frame(0.016))

	last := mem.Last()
	require.Len(t, last, 2)
	for i, m := range last {
		assert.True(t, m.IsIdentity(tol), "bone %d", i)
	}
	assert.Equal(t, uint64(1), mem.Frames())
	assert.Equal(t, 2, v.Registry().Len())
	assert.Equal(t, 3, v.Skeleton().Len())
}

func TestFrameKeyboardRotatesSelectedBone(t *testing.T) {
	keys := input.NewKeyState()
	cfg := testConfig()
	cfg.Input.RotationSpeed = 90
	v, err := New(cfg, WithKeyboard(keys), WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, v.LoadModel(armModel()))

	keys.Press(common.KeyQ)
	require.NoError(t, v.Frame(0.5))

	want := common.RotateZ(common.DegToRad(45))
	mats := v.BoneMatrices()
	assert.True(t, mats[0].ApproxEqual(want, tol))
	// spine inherits the hip rotation about the origin
	assert.True(t, mats[1].ApproxEqual(want, tol))
}

func TestFrameAnimationDrivesEveryInstance(t *testing.T) {
	cfg := testConfig()
	cfg.Render.Instances = 3
	var calls []int
	v, err := New(cfg, WithLogger(quietLogger()), WithAnimation(func(elapsed float64, instance int, local []common.Mat4) {
		calls = append(calls, instance)
		local[1] = common.RotateZ(float32(elapsed) * float32(instance))
	}))
	require.NoError(t, err)
	require.NoError(t, v.LoadModel(armModel()))

	require.NoError(t, v.Frame(0.25))

	assert.Equal(t, []int{0, 1, 2}, calls)
	instances := v.Instances()
	require.Len(t, instances, 3)
	assert.True(t, instances[0].BoneMats[1].IsIdentity(tol))
	assert.False(t, instances[2].BoneMats[1].IsIdentity(tol))
	for _, inst := range instances {
		assert.True(t, inst.BoneMats[0].IsIdentity(tol))
	}
}

func TestFrameFailedEvaluationReuploadsPreviousPose(t *testing.T) {
	mem := sink.NewMemorySink(8)
	v, err := New(testConfig(), WithSink(mem), WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, v.LoadModel(armModel()))

	primary := v.Instances()[0]
	primary.LocalAnim[0] = common.RotateZ(1)
	require.NoError(t, v.Frame(0.016))
	before := v.BoneMatrices()

	primary.LocalAnim = primary.LocalAnim[:1]
	err = v.Frame(0.016)
	assert.ErrorIs(t, err, pose.ErrBoneOutOfRange)

	assert.Equal(t, before, v.BoneMatrices())
	assert.Equal(t, before, mem.Last())
	assert.Equal(t, uint64(2), mem.Frames())
}

func TestLoadModelRejectsMoreBonesThanSinkHolds(t *testing.T) {
	v, err := New(testConfig(), WithSink(sink.NewMemorySink(1)), WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.ErrorIs(t, v.LoadModel(armModel()), sink.ErrCapacityExceeded)
	assert.Nil(t, v.Skeleton())
}

func TestLoadModelFailureKeepsPreviousModel(t *testing.T) {
	v, err := New(testConfig(), WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, v.LoadModel(armModel()))
	skel := v.Skeleton()

	broken := armModel()
	broken.Meshes[0].Bones.Names[1] = "hip"
	assert.Error(t, v.LoadModel(broken))

	assert.Same(t, skel, v.Skeleton())
	require.NoError(t, v.Frame(0.016))
}

func TestLoadReadsFileAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arm.gltf")
	writeFile(t, path, gltfArm("1, 2"))

	v, err := New(testConfig(), WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, v.Load(path))
	assert.Equal(t, []string{"hip", "spine"}, v.Registry().Names())

	writeFile(t, path, gltfArm("1"))
	require.NoError(t, v.Load(path))
	assert.Equal(t, []string{"hip"}, v.Registry().Names())

	writeFile(t, path, "{not json")
	assert.Error(t, v.Load(path))
	assert.Equal(t, []string{"hip"}, v.Registry().Names())
}

func TestLoadMalformedAccessorKeepsPreviousModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arm.gltf")
	writeFile(t, path, gltfArm("1, 2"))

	v, err := New(testConfig(), WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, v.Load(path))

	for _, count := range []string{`"count": -1`, `"count": 1073741824`} {
		writeFile(t, path, strings.Replace(gltfArm("1"), `"count": 1`, count, 1))
		require.NotPanics(t, func() { err = v.Load(path) })
		assert.ErrorContains(t, err, "accessor")
		assert.Equal(t, []string{"hip", "spine"}, v.Registry().Names())
	}
	require.NoError(t, v.Frame(0.016))
}

func TestLoadReportsDiagnostics(t *testing.T) {
	m := armModel()
	m.Meshes[0].Bones.Names = append(m.Meshes[0].Bones.Names, "tail")
	m.Meshes[0].Bones.Offsets = append(m.Meshes[0].Bones.Offsets, common.Identity4())

	v, err := New(testConfig(), WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, v.LoadModel(m))

	diags := v.Diagnostics()
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].String(), "tail")
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arm.gltf")
	writeFile(t, path, gltfArm("1, 2"))

	cfg := testConfig()
	cfg.Watch.DebounceMS = 10
	v, err := New(cfg, WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, v.Load(path))

	w, err := v.Watch(path)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeFile(t, path, gltfArm("1"))

	require.Eventually(t, func() bool {
		return v.Registry().Len() == 1
	}, 5*time.Second, 20*time.Millisecond)
}
