package pose

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/charmbracelet/log"
)

// evaluator is the implementation of the Evaluator interface.
type evaluator struct {
	mu *sync.Mutex

	rig      *rig
	reg      *skeleton.Registry
	root     common.Mat4
	maxDepth int
	logger   *log.Logger

	state state
}

// Evaluator defines the public interface for per-frame pose evaluation of one skeleton.
//
// An Evaluator binds a Skeleton to the bone Registry it was built from and precomputes
// the inverse of every bone offset. Calls to Evaluate are serialized; use a Batch to
// evaluate many instances of the same skeleton in parallel.
type Evaluator interface {
	// Evaluate computes final bone matrices from per-bone local animation transforms,
	// starting from the evaluator's root transform.
	// On error boneMats is left unmodified.
	//
	// Parameters:
	//   - localAnim: local animation transforms in bone-index order
	//   - boneMats: destination slice, fully overwritten on success
	//
	// Returns:
	//   - error: an *EvaluationError describing the first fault found
	Evaluate(localAnim, boneMats []common.Mat4) error

	// EvaluateFrom is Evaluate with an explicit transform above the root.
	//
	// Parameters:
	//   - parentWorld: the transform applied above the root node
	//   - localAnim: local animation transforms in bone-index order
	//   - boneMats: destination slice, fully overwritten on success
	//
	// Returns:
	//   - error: an *EvaluationError describing the first fault found
	EvaluateFrom(parentWorld common.Mat4, localAnim, boneMats []common.Mat4) error

	// BoneCount returns the number of bones in the registry.
	//
	// Returns:
	//   - int: the bone count
	BoneCount() int

	// Skeleton returns the skeleton tree being evaluated.
	//
	// Returns:
	//   - *skeleton.Skeleton: the skeleton
	Skeleton() *skeleton.Skeleton

	// Registry returns the bone registry supplying the offsets.
	//
	// Returns:
	//   - *skeleton.Registry: the registry
	Registry() *skeleton.Registry

	// NewLocalPose allocates a local animation slice sized for the registry and filled
	// with identity, which reproduces the bind pose.
	//
	// Returns:
	//   - []common.Mat4: the identity-filled slice
	NewLocalPose() []common.Mat4

	// NewBoneMatrices allocates a bone matrix slice sized for the registry and filled
	// with identity.
	//
	// Returns:
	//   - []common.Mat4: the identity-filled slice
	NewBoneMatrices() []common.Mat4
}

var _ Evaluator = &evaluator{}

// NewEvaluator creates a new Evaluator for the given skeleton and registry.
//
// Parameters:
//   - skel: the skeleton built from reg
//   - reg: the registry holding the bone offsets
//   - options: functional options such as WithRootTransform or WithMaxDepth
//
// Returns:
//   - Evaluator: the created evaluator
//   - error: ErrNilSkeleton or skeleton.ErrNilRegistry if an input is missing
func NewEvaluator(skel *skeleton.Skeleton, reg *skeleton.Registry, options ...EvaluatorBuilderOption) (Evaluator, error) {
	if skel == nil {
		return nil, &EvaluationError{Bone: -1, Err: ErrNilSkeleton}
	}
	if reg == nil {
		return nil, &EvaluationError{Bone: -1, Err: skeleton.ErrNilRegistry}
	}

	e := &evaluator{
		mu:       &sync.Mutex{},
		reg:      reg,
		root:     common.Identity4(),
		maxDepth: skel.MaxDepth(),
		logger:   common.Logger(),
	}
	for _, opt := range options {
		opt(e)
	}
	e.rig = newRig(skel, reg.Offsets(), e.maxDepth)

	for i, ok := range e.rig.invertible {
		if !ok {
			e.logger.Warn("bone offset is singular", "bone", i, "name", reg.Name(i))
		}
	}
	return e, nil
}

func (e *evaluator) Evaluate(localAnim, boneMats []common.Mat4) error {
	return e.EvaluateFrom(e.root, localAnim, boneMats)
}

func (e *evaluator) EvaluateFrom(parentWorld common.Mat4, localAnim, boneMats []common.Mat4) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.rig.evaluate(&e.state, parentWorld, localAnim, boneMats); err != nil {
		e.logger.Debug("pose evaluation failed", "err", err)
		return err
	}
	return nil
}

func (e *evaluator) BoneCount() int {
	return e.reg.Len()
}

func (e *evaluator) Skeleton() *skeleton.Skeleton {
	return e.rig.skel
}

func (e *evaluator) Registry() *skeleton.Registry {
	return e.reg
}

func (e *evaluator) NewLocalPose() []common.Mat4 {
	m := make([]common.Mat4, e.reg.Len())
	common.FillIdentity(m)
	return m
}

func (e *evaluator) NewBoneMatrices() []common.Mat4 {
	return e.NewLocalPose()
}
