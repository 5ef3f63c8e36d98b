package pose

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
)

// rig is the read-only data shared by every evaluation of one skeleton.
type rig struct {
	skel       *skeleton.Skeleton
	offsets    []common.Mat4
	inverses   []common.Mat4
	invertible []bool
	maxDepth   int
}

// newRig precomputes the inverse of every offset. Singular offsets are only reported
// when a reachable bone uses them.
func newRig(skel *skeleton.Skeleton, offsets []common.Mat4, maxDepth int) *rig {
	r := &rig{
		skel:       skel,
		offsets:    offsets,
		inverses:   make([]common.Mat4, len(offsets)),
		invertible: make([]bool, len(offsets)),
		maxDepth:   maxDepth,
	}
	for i, o := range offsets {
		r.inverses[i], r.invertible[i] = o.Inverse()
	}
	return r
}

// state is the per-caller scratch space of an evaluation. It must not be shared
// between concurrent evaluations.
type state struct {
	scratch []common.Mat4
	visited []uint32
	stamp   uint32
}

func (s *state) reset(nodes, bones int) {
	if cap(s.scratch) < bones {
		s.scratch = make([]common.Mat4, bones)
	}
	s.scratch = s.scratch[:bones]
	common.FillIdentity(s.scratch)

	if len(s.visited) < nodes {
		s.visited = make([]uint32, nodes)
		s.stamp = 0
	}
	s.stamp++
	if s.stamp == 0 {
		clear(s.visited)
		s.stamp = 1
	}
}

// Evaluate computes final bone matrices for skel in a single depth-first, pre-order pass.
// For a node tagged with bone i it computes
//
//	world = parentWorld * inverse(offsets[i]) * localAnim[i] * offsets[i]
//
// and stores it in boneMats[i]; pivot nodes pass parentWorld through unchanged. Every
// entry of boneMats is reset to identity first, so bones that no node reaches never keep
// stale data. On error boneMats is not modified.
//
// Parameters:
//   - skel: the skeleton tree
//   - offsets: bind-pose offsets in bone-index order
//   - parentWorld: the transform applied above the root (usually identity)
//   - localAnim: per-bone local animation transforms, identity meaning "bind pose"
//   - boneMats: destination, overwritten in full on success
//
// Returns:
//   - error: an *EvaluationError if a bone index is out of range, an offset is singular,
//     or the traversal exceeds the skeleton's depth ceiling or revisits a node
func Evaluate(skel *skeleton.Skeleton, offsets []common.Mat4, parentWorld common.Mat4, localAnim, boneMats []common.Mat4) error {
	if skel == nil {
		return &EvaluationError{Bone: -1, Err: ErrNilSkeleton}
	}
	r := newRig(skel, offsets, skel.MaxDepth())
	var s state
	return r.evaluate(&s, parentWorld, localAnim, boneMats)
}

func (r *rig) evaluate(s *state, parentWorld common.Mat4, localAnim, boneMats []common.Mat4) error {
	s.reset(r.skel.Len(), len(boneMats))
	if r.skel.Len() > 0 {
		if err := r.visit(s, r.skel.Root(), 0, parentWorld, localAnim); err != nil {
			return err
		}
	}
	copy(boneMats, s.scratch)
	return nil
}

func (r *rig) visit(s *state, idx, depth int, parentWorld common.Mat4, localAnim []common.Mat4) error {
	n := r.skel.Node(idx)
	if depth > r.maxDepth {
		return &EvaluationError{Node: n.Name, Bone: -1, Err: fmt.Errorf("%w: depth %d, limit %d", ErrDepthExceeded, depth, r.maxDepth)}
	}
	if s.visited[idx] == s.stamp {
		return &EvaluationError{Node: n.Name, Bone: -1, Err: ErrCycle}
	}
	s.visited[idx] = s.stamp

	world := parentWorld
	if i, ok := n.Bone.Get(); ok {
		if i < 0 || i >= len(r.offsets) || i >= len(localAnim) || i >= len(s.scratch) {
			return &EvaluationError{Node: n.Name, Bone: i, Err: fmt.Errorf("%w: %d offsets, %d local transforms, %d outputs",
				ErrBoneOutOfRange, len(r.offsets), len(localAnim), len(s.scratch))}
		}
		if !r.invertible[i] {
			return &EvaluationError{Node: n.Name, Bone: i, Err: ErrSingularOffset}
		}
		// The inverse offset maps the accumulated transform into the bone's bind-relative
		// frame, where localAnim applies; the offset maps the result back to model space.
		world = parentWorld.Mul(r.inverses[i]).Mul(localAnim[i]).Mul(r.offsets[i])
		s.scratch[i] = world
	}

	for _, c := range n.Children {
		if err := r.visit(s, c, depth+1, world, localAnim); err != nil {
			return err
		}
	}
	return nil
}
