package scene

import (
	"errors"
	"strings"
)

var (
	ErrNodeNotFound      = errors.New("node not found")
	ErrUnknownType       = errors.New("unknown node type")
	ErrDuplicateType     = errors.New("node type already registered")
	ErrDuplicateID       = errors.New("node id already in scene")
	ErrNotInScene        = errors.New("node is not in this scene")
	ErrInScene           = errors.New("node is already in a scene")
	ErrRootNode          = errors.New("operation not allowed on the root node")
	ErrHasChildren       = errors.New("node still has children")
	ErrDependencyExists  = errors.New("dependency already exists")
	ErrDependencyMissing = errors.New("dependency does not exist")
	ErrSelfDependency    = errors.New("node cannot depend on itself")
	ErrSelfParent        = errors.New("node cannot be its own parent")
	ErrParentVetoed      = errors.New("parent change vetoed")
	ErrWrongKind         = errors.New("operation not supported by node kind")
	ErrLayerIsolated     = errors.New("layer is isolated")
	ErrStateMismatch     = errors.New("state belongs to another node")
	ErrCycle             = errors.New("dependency cycle")
)

// CycleError reports a dependency or hierarchy cycle. Path lists the nodes
// on the cycle in walk order; the first and last entries are the same node.
type CycleError struct {
	Path []ID
}

func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Path, " -> ")
}

func (e *CycleError) Unwrap() error { return ErrCycle }
