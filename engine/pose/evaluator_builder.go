package pose

import (
	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/charmbracelet/log"
)

// EvaluatorBuilderOption is a functional option for configuring an Evaluator.
type EvaluatorBuilderOption func(*evaluator)

// WithRootTransform is an option builder that sets the transform applied above the root
// node by Evaluate. Defaults to identity.
//
// Parameters:
//   - m: the root transform
//
// Returns:
//   - EvaluatorBuilderOption: a function that applies the root transform
func WithRootTransform(m common.Mat4) EvaluatorBuilderOption {
	return func(e *evaluator) {
		e.root = m
	}
}

// WithMaxDepth is an option builder that overrides the traversal depth ceiling.
// Values below one are ignored.
//
// Parameters:
//   - depth: the deepest node level evaluation may reach
//
// Returns:
//   - EvaluatorBuilderOption: a function that applies the depth ceiling
func WithMaxDepth(depth int) EvaluatorBuilderOption {
	return func(e *evaluator) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithLogger is an option builder that sets the logger used for evaluation warnings.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - EvaluatorBuilderOption: a function that applies the logger
func WithLogger(l *log.Logger) EvaluatorBuilderOption {
	return func(e *evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}
