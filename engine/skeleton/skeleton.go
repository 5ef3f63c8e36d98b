package skeleton

import (
	"fmt"
	"strconv"
)

// BoneIndex is an optional bone index. The zero value means "not a bone".
type BoneIndex struct {
	index int
	valid bool
}

// Bone returns a BoneIndex holding i.
func Bone(i int) BoneIndex {
	return BoneIndex{index: i, valid: true}
}

// NoBone returns the absent BoneIndex used by pivot nodes.
func NoBone() BoneIndex {
	return BoneIndex{}
}

// Get returns the index and whether it is present.
func (b BoneIndex) Get() (int, bool) {
	return b.index, b.valid
}

// IsBone reports whether the index is present.
func (b BoneIndex) IsBone() bool {
	return b.valid
}

func (b BoneIndex) String() string {
	if !b.valid {
		return "none"
	}
	return strconv.Itoa(b.index)
}

// Node is one node of a Skeleton. Nodes live in the skeleton's arena and reference
// their children by arena index.
type Node struct {
	// Name matches the scene-graph node name; it is not necessarily a bone name.
	Name string

	// Bone is the registry index when the node is a weighted bone, absent for pivots.
	Bone BoneIndex

	// Children are arena indices of the node's children, in import order.
	Children []int
}

// Skeleton is an immutable tree of Nodes stored as a flat arena. The arena is in
// pre-order, so the root is always index 0 for trees produced by Build.
type Skeleton struct {
	nodes     []Node
	root      int
	boneCount int
	maxDepth  int
}

// NewSkeleton assembles a Skeleton from an explicit arena, for hand-built or deserialized trees.
// The arena must form a single tree rooted at root: every child index in range, every node
// reachable exactly once, depth within limits.MaxDepth, and no bone index used twice.
//
// Parameters:
//   - nodes: the node arena (copied)
//   - root: the arena index of the root
//   - limits: the capacities to enforce
//
// Returns:
//   - *Skeleton: the skeleton
//   - error: an *ImportError describing the first structural fault
func NewSkeleton(nodes []Node, root int, limits Limits) (*Skeleton, error) {
	if err := limits.Validate(); err != nil {
		return nil, importErr("tree", "", err)
	}
	if len(nodes) == 0 {
		return nil, importErr("tree", "", ErrNilRoot)
	}
	if root < 0 || root >= len(nodes) {
		return nil, importErr("tree", "", fmt.Errorf("%w: root %d out of range", ErrInvalidTree, root))
	}

	arena := make([]Node, len(nodes))
	for i, n := range nodes {
		arena[i] = Node{Name: n.Name, Bone: n.Bone, Children: append([]int(nil), n.Children...)}
	}

	const (
		unseen = iota
		onPath
		done
	)
	visited := make([]int, len(arena))
	bones := make(map[int]string)
	var visit func(i, depth int) error
	visit = func(i, depth int) error {
		n := &arena[i]
		if depth > limits.MaxDepth {
			return importErr("tree", n.Name, fmt.Errorf("%w: depth %d, limit %d", ErrDepthExceeded, depth, limits.MaxDepth))
		}
		switch visited[i] {
		case onPath:
			return importErr("tree", n.Name, ErrCycle)
		case done:
			return importErr("tree", n.Name, ErrSharedNode)
		}
		visited[i] = onPath

		if b, ok := n.Bone.Get(); ok {
			if b < 0 || b >= limits.MaxBones {
				return importErr("tree", n.Name, fmt.Errorf("%w: bone %d, %d slots", ErrCapacityExceeded, b, limits.MaxBones))
			}
			if other, dup := bones[b]; dup {
				return importErr("tree", n.Name, fmt.Errorf("%w: bone %d also tagged on %q", ErrDuplicateBone, b, other))
			}
			bones[b] = n.Name
		}

		for _, c := range n.Children {
			if c < 0 || c >= len(arena) {
				return importErr("tree", n.Name, fmt.Errorf("%w: child index %d out of range", ErrInvalidTree, c))
			}
			if err := visit(c, depth+1); err != nil {
				return err
			}
		}
		visited[i] = done
		return nil
	}
	if err := visit(root, 0); err != nil {
		return nil, err
	}
	for i, state := range visited {
		if state == unseen {
			return nil, importErr("tree", arena[i].Name, fmt.Errorf("%w: node %d unreachable from root", ErrInvalidTree, i))
		}
	}

	return &Skeleton{nodes: arena, root: root, boneCount: len(bones), maxDepth: limits.MaxDepth}, nil
}

// Root returns the arena index of the root node.
func (s *Skeleton) Root() int {
	return s.root
}

// Len returns the total number of nodes, bones and pivots alike.
func (s *Skeleton) Len() int {
	return len(s.nodes)
}

// BoneCount returns the number of nodes carrying a bone index.
func (s *Skeleton) BoneCount() int {
	return s.boneCount
}

// MaxDepth returns the depth ceiling the skeleton was validated against.
func (s *Skeleton) MaxDepth() int {
	return s.maxDepth
}

// Node returns the node at arena index i. The returned value must not be modified.
func (s *Skeleton) Node(i int) *Node {
	return &s.nodes[i]
}

// Nodes returns a deep copy of the arena, suitable for serialization or NewSkeleton.
func (s *Skeleton) Nodes() []Node {
	out := make([]Node, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = Node{Name: n.Name, Bone: n.Bone, Children: append([]int(nil), n.Children...)}
	}
	return out
}

// Walk visits the tree depth-first in pre-order, children in insertion order.
// Returning false from fn skips the node's subtree.
//
// Parameters:
//   - fn: callback receiving the arena index, depth (root = 0) and node
func (s *Skeleton) Walk(fn func(index, depth int, n *Node) bool) {
	var walk func(i, depth int)
	walk = func(i, depth int) {
		n := &s.nodes[i]
		if !fn(i, depth, n) {
			return
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(s.root, 0)
}

// Find returns the arena index of the first node in pre-order with the given name.
//
// Parameters:
//   - name: the exact node name
//
// Returns:
//   - int: the arena index, or -1 if not found
func (s *Skeleton) Find(name string) int {
	found := -1
	s.Walk(func(i, _ int, n *Node) bool {
		if found >= 0 {
			return false
		}
		if n.Name == name {
			found = i
			return false
		}
		return true
	})
	return found
}

// BoneNode returns the arena index of the node tagged with bone b.
//
// Returns:
//   - int: the arena index, or -1 if no node carries b
func (s *Skeleton) BoneNode(b int) int {
	for i := range s.nodes {
		if idx, ok := s.nodes[i].Bone.Get(); ok && idx == b {
			return i
		}
	}
	return -1
}
