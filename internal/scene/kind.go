// Package scene is the dependency-graph evaluation engine behind the editor.
//
// Nodes live in an arena owned by a Scene and refer to each other by ID.
// Two structures connect them: the dependency graph (ancestors and
// descendants, which decides evaluation order and dirty propagation) and
// the hierarchy tree (parent and ordered children). SetParent keeps the two
// in sync: a hierarchy child always depends on its parent.
package scene

// ID identifies a node for its whole lifetime, including across undo.
type ID = string

// Kind is the closed set of node variants.
type Kind uint8

const (
	KindNode Kind = iota
	KindHierarchy
	KindTransform
	KindLayer
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindHierarchy:
		return "hierarchy"
	case KindTransform:
		return "transform"
	case KindLayer:
		return "layer"
	}
	return "unknown"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k := KindNode; k < kindCount; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// IsHierarchy reports whether nodes of this kind take part in the tree.
func (k Kind) IsHierarchy() bool {
	return k == KindHierarchy || k == KindTransform
}

// Direction selects which way evaluation walks the dependency graph.
type Direction uint8

const (
	// Downstream evaluates a node after everything it depends on.
	Downstream Direction = iota
	// Upstream evaluates a node after everything that depends on it.
	Upstream
)

func (d Direction) String() string {
	if d == Upstream {
		return "upstream"
	}
	return "downstream"
}

// EvalState is a node's evaluation state in one direction.
type EvalState uint8

const (
	StateDirty EvalState = iota
	StateEvaluating
	StateClean
)

func (s EvalState) String() string {
	switch s {
	case StateEvaluating:
		return "evaluating"
	case StateClean:
		return "clean"
	}
	return "dirty"
}

// DirtyFlags reports which directions a call to Dirty changed.
type DirtyFlags uint8

const (
	DirtyNone       DirtyFlags = 0
	DirtyDownstream DirtyFlags = 1
	DirtyUpstream   DirtyFlags = 2
)

// Has reports whether every bit of o is set.
func (f DirtyFlags) Has(o DirtyFlags) bool { return f&o == o }
