package pose

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by EvaluationError.
var (
	ErrNilSkeleton     = errors.New("skeleton is nil")
	ErrBoneOutOfRange  = errors.New("bone index out of range")
	ErrSingularOffset  = errors.New("bone offset matrix is not invertible")
	ErrDepthExceeded   = errors.New("traversal depth exceeds limit")
	ErrCycle           = errors.New("traversal revisited a node")
	ErrUnknownInstance = errors.New("unknown skeleton instance")
)

// EvaluationError reports a fault found while evaluating a pose. The caller's bone
// matrices are left exactly as they were before the call, so rendering can continue
// with the previous frame's pose.
type EvaluationError struct {
	// Node is the name of the skeleton node being evaluated.
	Node string

	// Bone is the bone index involved, or -1.
	Bone int

	// Err is the underlying cause.
	Err error
}

func (e *EvaluationError) Error() string {
	if e.Bone >= 0 {
		return fmt.Sprintf("pose evaluation at %q (bone %d): %v", e.Node, e.Bone, e.Err)
	}
	return fmt.Sprintf("pose evaluation at %q: %v", e.Node, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
