package skeleton

import (
	"io"
	"testing"

	"github.com/Carmen-Shannon/oxy-skin/engine/model"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(name string, children ...*model.SceneNode) *model.SceneNode {
	return &model.SceneNode{Name: name, Children: children}
}

func quiet() BuilderOption {
	return WithLogger(log.New(io.Discard))
}

// humanoid has a pivot root and a pivot between spine and the arms.
func humanoid() *model.SceneNode {
	return node("Scene",
		node("Armature",
			node("hip",
				node("spine",
					node("shoulders",
						node("arm.L", node("hand.L")),
						node("arm.R", node("hand.R")),
					),
					node("head"),
				),
				node("leg.L"),
				node("leg.R"),
			),
		),
		node("Camera"),
	)
}

func humanoidRegistry(t *testing.T) *Registry {
	t.Helper()
	names := []string{"hip", "spine", "arm.L", "hand.L", "arm.R", "hand.R", "head", "leg.L", "leg.R"}
	reg, err := NewRegistry(names, offsets(len(names)))
	require.NoError(t, err)
	return reg
}

func TestBuildPreservesShapeAndTagsBones(t *testing.T) {
	root := humanoid()
	reg := humanoidRegistry(t)

	skel, err := Build(root, reg, quiet())
	require.NoError(t, err)

	assert.Equal(t, root.Count(), skel.Len())
	assert.Equal(t, reg.Len(), skel.BoneCount())
	assert.Equal(t, 0, skel.Root())

	// Walk the raw tree and the skeleton in lockstep.
	var compare func(raw *model.SceneNode, idx int)
	compare = func(raw *model.SceneNode, idx int) {
		n := skel.Node(idx)
		assert.Equal(t, raw.Name, n.Name)
		require.Len(t, n.Children, len(raw.Children), "children of %s", raw.Name)

		want, isBone := reg.Index(raw.Name)
		got, ok := n.Bone.Get()
		assert.Equal(t, isBone, ok, "bone tag of %s", raw.Name)
		if isBone {
			assert.Equal(t, want, got)
		}
		for i, c := range raw.Children {
			compare(c, n.Children[i])
		}
	}
	compare(root, skel.Root())
}

func TestBuildPivotsHaveNoBone(t *testing.T) {
	skel, err := Build(humanoid(), humanoidRegistry(t), quiet())
	require.NoError(t, err)

	for _, name := range []string{"Scene", "Armature", "shoulders", "Camera"} {
		idx := skel.Find(name)
		require.GreaterOrEqual(t, idx, 0, name)
		assert.False(t, skel.Node(idx).Bone.IsBone(), name)
		assert.Equal(t, "none", skel.Node(idx).Bone.String())
	}
}

func TestBuildPreOrderArena(t *testing.T) {
	skel, err := Build(humanoid(), humanoidRegistry(t), quiet())
	require.NoError(t, err)

	var order []string
	skel.Walk(func(i, depth int, n *Node) bool {
		assert.Equal(t, len(order), i, "arena is in pre-order")
		order = append(order, n.Name)
		return true
	})
	assert.Equal(t, []string{
		"Scene", "Armature", "hip", "spine", "shoulders", "arm.L", "hand.L",
		"arm.R", "hand.R", "head", "leg.L", "leg.R", "Camera",
	}, order)
}

func TestBuildZeroBones(t *testing.T) {
	reg, err := NewRegistry(nil, nil)
	require.NoError(t, err)

	var diags []Diagnostic
	skel, err := Build(humanoid(), reg, quiet(), WithDiagnostics(&diags))
	require.NoError(t, err)
	assert.Equal(t, 13, skel.Len())
	assert.Equal(t, 0, skel.BoneCount())
	assert.Empty(t, diags)
}

func TestBuildNilInputs(t *testing.T) {
	reg := humanoidRegistry(t)

	skel, err := Build(nil, reg, quiet())
	assert.Nil(t, skel)
	assert.ErrorIs(t, err, ErrNilRoot)

	skel, err = Build(humanoid(), nil, quiet())
	assert.Nil(t, skel)
	assert.ErrorIs(t, err, ErrNilRegistry)

	skel, err = Build(node("root", nil), reg, quiet())
	assert.Nil(t, skel)
	assert.ErrorIs(t, err, ErrInvalidTree)
}

func TestBuildCapacityExceeded(t *testing.T) {
	reg := humanoidRegistry(t)
	limits := DefaultLimits()
	limits.MaxBones = reg.Len() - 1

	skel, err := Build(humanoid(), reg, quiet(), WithLimits(limits))
	assert.Nil(t, skel)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	var ie *ImportError
	assert.ErrorAs(t, err, &ie)
	assert.Equal(t, "build", ie.Op)
}

func TestBuildCycleSharedAndDepthGuards(t *testing.T) {
	reg := humanoidRegistry(t)

	loop := node("hip")
	loop.Children = []*model.SceneNode{node("spine", loop)}
	skel, err := Build(loop, reg, quiet())
	assert.Nil(t, skel)
	assert.ErrorIs(t, err, ErrCycle)

	shared := node("head")
	skel, err = Build(node("root", shared, shared), reg, quiet())
	assert.Nil(t, skel)
	assert.ErrorIs(t, err, ErrSharedNode)
	assert.NotErrorIs(t, err, ErrCycle)

	// a node reached from two branches is shared, not cyclic
	tip := node("hand")
	skel, err = Build(node("root", node("arm_l", tip), node("arm_r", tip)), reg, quiet())
	assert.Nil(t, skel)
	assert.ErrorIs(t, err, ErrSharedNode)

	deep := node("leaf")
	for i := 0; i < 10; i++ {
		deep = node("pivot", deep)
	}
	limits := DefaultLimits()
	limits.MaxDepth = 5
	skel, err = Build(deep, reg, quiet(), WithLimits(limits))
	assert.Nil(t, skel)
	assert.ErrorIs(t, err, ErrDepthExceeded)
}

func TestBuildDiagnostics(t *testing.T) {
	reg, err := NewRegistry([]string{"a", "b", "ghost"}, offsets(3))
	require.NoError(t, err)

	root := node("root", node("a", node("b")), node("a"))
	var diags []Diagnostic
	skel, err := Build(root, reg, quiet(), WithDiagnostics(&diags))
	require.NoError(t, err)

	assert.Equal(t, 2, skel.BoneCount())
	assert.ElementsMatch(t, []Diagnostic{
		{Kind: DiagnosticDuplicateNode, Node: "a", Bone: 0},
		{Kind: DiagnosticUnreachableBone, Node: "ghost", Bone: 2},
	}, diags)

	// The first "a" in pre-order keeps the bone; the later one is a pivot.
	first := skel.BoneNode(0)
	assert.Equal(t, 1, first)
	second := skel.Node(skel.Root()).Children[1]
	assert.Equal(t, "a", skel.Node(second).Name)
	assert.False(t, skel.Node(second).Bone.IsBone())
	assert.Equal(t, -1, skel.BoneNode(2))
}

func TestNewSkeleton(t *testing.T) {
	nodes := []Node{
		{Name: "root", Bone: Bone(0), Children: []int{1, 2}},
		{Name: "pivot", Children: []int{3}},
		{Name: "b", Bone: Bone(1)},
		{Name: "c", Bone: Bone(2)},
	}
	skel, err := NewSkeleton(nodes, 0, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, 4, skel.Len())
	assert.Equal(t, 3, skel.BoneCount())

	nodes[0].Children[0] = 3
	assert.Equal(t, []int{1, 2}, skel.Node(0).Children, "arena is copied")

	assert.Equal(t, skel.Nodes()[1], Node{Name: "pivot", Children: []int{3}})
}

func TestNewSkeletonRejectsMalformedArenas(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		root  int
		want  error
	}{
		{"empty", nil, 0, ErrNilRoot},
		{"root out of range", []Node{{Name: "a"}}, 3, ErrInvalidTree},
		{"child out of range", []Node{{Name: "a", Children: []int{5}}}, 0, ErrInvalidTree},
		{"self cycle", []Node{{Name: "a", Children: []int{0}}}, 0, ErrCycle},
		{"back edge", []Node{{Name: "a", Children: []int{1}}, {Name: "b", Children: []int{0}}}, 0, ErrCycle},
		{"shared child", []Node{{Name: "a", Children: []int{1, 1}}, {Name: "b"}}, 0, ErrSharedNode},
		{"orphan", []Node{{Name: "a"}, {Name: "b"}}, 0, ErrInvalidTree},
		{"duplicate bone", []Node{{Name: "a", Bone: Bone(0), Children: []int{1}}, {Name: "b", Bone: Bone(0)}}, 0, ErrDuplicateBone},
		{"bone slot", []Node{{Name: "a", Bone: Bone(DefaultMaxBones)}}, 0, ErrCapacityExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skel, err := NewSkeleton(tt.nodes, tt.root, DefaultLimits())
			assert.Nil(t, skel)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSceneNodeCount(t *testing.T) {
	assert.Equal(t, 0, (*model.SceneNode)(nil).Count())
	assert.Equal(t, 13, humanoid().Count())
}
