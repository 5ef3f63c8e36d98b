package skeleton

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by ImportError. Match them with errors.Is.
var (
	ErrNilRoot           = errors.New("scene root is nil")
	ErrNilRegistry       = errors.New("bone registry is nil")
	ErrCapacityExceeded  = errors.New("bone capacity exceeded")
	ErrNameTooLong       = errors.New("bone name exceeds maximum length")
	ErrEmptyName         = errors.New("bone name is empty")
	ErrDuplicateBone     = errors.New("duplicate bone name")
	ErrMismatchedOffsets = errors.New("bone names and offsets differ in length")
	ErrDepthExceeded     = errors.New("hierarchy depth exceeds limit")
	ErrCycle             = errors.New("hierarchy contains a cycle")
	ErrSharedNode        = errors.New("node has more than one parent")
	ErrInvalidTree       = errors.New("invalid skeleton tree")
)

// ImportError reports a structural fault in the imported skeleton data.
// It is not retriable: no skeleton or registry is produced when one is returned.
type ImportError struct {
	// Op names the failing operation ("registry", "build", "tree").
	Op string

	// Node is the scene node or bone name involved, if any.
	Node string

	// Err is the underlying cause, usually one of the package sentinels.
	Err error
}

func (e *ImportError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("skeleton import (%s) at %q: %v", e.Op, e.Node, e.Err)
	}
	return fmt.Sprintf("skeleton import (%s): %v", e.Op, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

func importErr(op, node string, err error) error {
	return &ImportError{Op: op, Node: node, Err: err}
}
