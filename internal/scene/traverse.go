package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/heliumproject/editor-go/internal/linear"
	"github.com/heliumproject/editor-go/internal/metrics"
)

// TraversalAction is a visitor's instruction after visiting a node.
type TraversalAction uint8

const (
	// Continue descends into the node's children.
	Continue TraversalAction = iota
	// Prune skips the node's children; siblings are still visited.
	Prune
	// Abort stops the whole traversal.
	Abort
)

func (a TraversalAction) String() string {
	switch a {
	case Prune:
		return "prune"
	case Abort:
		return "abort"
	}
	return "continue"
}

// VisitorKind is the closed set of traversal consumers.
type VisitorKind uint8

const (
	VisitorCollect VisitorKind = iota
	VisitorRender
	VisitorPick
)

func (k VisitorKind) String() string {
	switch k {
	case VisitorRender:
		return "render"
	case VisitorPick:
		return "pick"
	}
	return "collect"
}

// HierarchyVisitor is called once per reached hierarchy node.
type HierarchyVisitor interface {
	Kind() VisitorKind
	VisitHierarchyNode(n *Node, state *TraversalState) TraversalAction
}

// WalkStarter is implemented by visitors that collect across a walk.
// Scene.Render and Scene.Pick call BeginWalk before traversing.
type WalkStarter interface {
	BeginWalk()
}

// TraversalState is owned by the caller. While a node is visited, Matrix
// is View times the global matrix of the nearest Transform; it is restored
// when the traversal leaves the node.
type TraversalState struct {
	View   mgl64.Mat4
	Matrix mgl64.Mat4
	Depth  int
}

// NewTraversalState starts a traversal from the given view matrix.
func NewTraversalState(view mgl64.Mat4) *TraversalState {
	return &TraversalState{View: view, Matrix: view}
}

// Traverse walks the hierarchy below root in child order, root included.
// It returns Abort when the visitor aborted and Continue otherwise.
func Traverse(root *Node, v HierarchyVisitor, state *TraversalState) TraversalAction {
	metrics.Traversals.WithLabelValues(v.Kind().String()).Inc()
	if state == nil {
		state = NewTraversalState(linear.Identity())
	}
	return traverse(root, v, state)
}

func traverse(n *Node, v HierarchyVisitor, state *TraversalState) TraversalAction {
	if n == nil || n.hier == nil {
		return Continue
	}
	saved := state.Matrix
	defer func() { state.Matrix = saved }()
	if n.xform != nil {
		state.Matrix = state.View.Mul4(n.xform.global)
	}

	switch v.VisitHierarchyNode(n, state) {
	case Abort:
		return Abort
	case Prune:
		return Continue
	}

	state.Depth++
	defer func() { state.Depth-- }()
	for _, c := range n.Children() {
		if traverse(c, v, state) == Abort {
			return Abort
		}
	}
	return Continue
}

// ChildCollector gathers the direct children of the traversal root.
type ChildCollector struct {
	Children []*Node
}

func (c *ChildCollector) Kind() VisitorKind { return VisitorCollect }

func (c *ChildCollector) VisitHierarchyNode(n *Node, state *TraversalState) TraversalAction {
	if state.Depth == 0 {
		return Continue
	}
	c.Children = append(c.Children, n)
	return Prune
}
