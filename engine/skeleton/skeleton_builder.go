package skeleton

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/model"
	"github.com/charmbracelet/log"
)

// DiagnosticKind classifies a non-fatal import finding.
type DiagnosticKind int

const (
	// DiagnosticDuplicateNode marks a scene node whose name matches a bone already claimed
	// by an earlier node in pre-order. The later node is demoted to a pivot.
	DiagnosticDuplicateNode DiagnosticKind = iota

	// DiagnosticUnreachableBone marks a registry bone that no scene node matched.
	// Its final matrix is reset to identity on every evaluation.
	DiagnosticUnreachableBone
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagnosticDuplicateNode:
		return "duplicate-node"
	case DiagnosticUnreachableBone:
		return "unreachable-bone"
	default:
		return "unknown"
	}
}

// Diagnostic is a warning-level finding reported while building a skeleton.
type Diagnostic struct {
	Kind DiagnosticKind
	Node string
	Bone int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: node %q bone %d", d.Kind, d.Node, d.Bone)
}

// builder holds the state of a single Build call.
type builder struct {
	limits      Limits
	logger      *log.Logger
	diagnostics *[]Diagnostic

	reg     *Registry
	nodes   []Node
	// visited maps each entered node to whether it is still on the current path.
	visited map[*model.SceneNode]bool
	claimed map[int]string
	found   []Diagnostic
}

// BuilderOption is a functional option for configuring Build.
type BuilderOption func(*builder)

// WithLimits is an option builder that overrides the capacities enforced during the build.
//
// Parameters:
//   - limits: the capacities to enforce
//
// Returns:
//   - BuilderOption: a function that applies the limits
func WithLimits(limits Limits) BuilderOption {
	return func(b *builder) {
		b.limits = limits
	}
}

// WithLogger is an option builder that sets the logger diagnostics are written to.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - BuilderOption: a function that applies the logger
func WithLogger(l *log.Logger) BuilderOption {
	return func(b *builder) {
		b.logger = l
	}
}

// WithDiagnostics is an option builder that collects the build's diagnostics into out.
// out is only written when the build succeeds.
//
// Parameters:
//   - out: destination for the diagnostics
//
// Returns:
//   - BuilderOption: a function that applies the collector
func WithDiagnostics(out *[]Diagnostic) BuilderOption {
	return func(b *builder) {
		b.diagnostics = out
	}
}

// Build produces a Skeleton mirroring the raw scene hierarchy exactly in shape and child order.
// Each node whose name exactly matches a registry bone name is tagged with that bone index;
// every other node is a pivot. The whole hierarchy is visited regardless of whether a node is a
// bone, since pivots can have bone descendants. Build is atomic: on error no skeleton is returned.
//
// Parameters:
//   - root: the importer's root scene node
//   - reg: the bone registry
//   - options: functional options (WithLimits, WithLogger, WithDiagnostics)
//
// Returns:
//   - *Skeleton: the skeleton, whose arena is in pre-order with the root at index 0
//   - error: an *ImportError on nil input, capacity overflow, excessive depth, cycles or shared nodes
func Build(root *model.SceneNode, reg *Registry, options ...BuilderOption) (*Skeleton, error) {
	b := &builder{
		limits: DefaultLimits(),
		logger: common.Logger(),
	}
	for _, option := range options {
		option(b)
	}
	if err := b.limits.Validate(); err != nil {
		return nil, importErr("build", "", err)
	}

	if root == nil {
		return nil, importErr("build", "", ErrNilRoot)
	}
	if reg == nil {
		return nil, importErr("build", "", ErrNilRegistry)
	}
	if reg.Len() > b.limits.MaxBoneNames {
		return nil, importErr("build", "", fmt.Errorf("%w: %d bone names, name table holds %d", ErrCapacityExceeded, reg.Len(), b.limits.MaxBoneNames))
	}
	if reg.Len() > b.limits.MaxBones {
		return nil, importErr("build", "", fmt.Errorf("%w: %d bones, %d matrix slots", ErrCapacityExceeded, reg.Len(), b.limits.MaxBones))
	}

	b.reg = reg
	b.visited = make(map[*model.SceneNode]bool)
	b.claimed = make(map[int]string, reg.Len())

	if _, err := b.visit(root, 0); err != nil {
		return nil, err
	}

	for i := 0; i < reg.Len(); i++ {
		if _, ok := b.claimed[i]; !ok {
			b.found = append(b.found, Diagnostic{Kind: DiagnosticUnreachableBone, Node: reg.Name(i), Bone: i})
		}
	}
	for _, d := range b.found {
		b.logger.Warn("skeleton import diagnostic", "kind", d.Kind, "node", d.Node, "bone", d.Bone)
	}
	if b.diagnostics != nil {
		*b.diagnostics = b.found
	}

	return &Skeleton{
		nodes:     b.nodes,
		root:      0,
		boneCount: len(b.claimed),
		maxDepth:  b.limits.MaxDepth,
	}, nil
}

// visit appends raw and its subtree to the arena in pre-order and returns raw's arena index.
func (b *builder) visit(raw *model.SceneNode, depth int) (int, error) {
	if raw == nil {
		return 0, importErr("build", "", fmt.Errorf("%w: nil child at depth %d", ErrInvalidTree, depth))
	}
	if depth > b.limits.MaxDepth {
		return 0, importErr("build", raw.Name, fmt.Errorf("%w: depth %d, limit %d", ErrDepthExceeded, depth, b.limits.MaxDepth))
	}
	if onPath, seen := b.visited[raw]; seen {
		if onPath {
			return 0, importErr("build", raw.Name, ErrCycle)
		}
		return 0, importErr("build", raw.Name, ErrSharedNode)
	}
	b.visited[raw] = true

	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{Name: raw.Name})

	if bone, ok := b.reg.Index(raw.Name); ok {
		if _, taken := b.claimed[bone]; taken {
			b.found = append(b.found, Diagnostic{Kind: DiagnosticDuplicateNode, Node: raw.Name, Bone: bone})
		} else {
			b.claimed[bone] = raw.Name
			b.nodes[idx].Bone = Bone(bone)
		}
	}

	if len(raw.Children) > 0 {
		children := make([]int, 0, len(raw.Children))
		for _, child := range raw.Children {
			c, err := b.visit(child, depth+1)
			if err != nil {
				return 0, err
			}
			children = append(children, c)
		}
		b.nodes[idx].Children = children
	}
	b.visited[raw] = false

	return idx, nil
}
