package scene

import (
	"fmt"
	"log/slog"

	"github.com/heliumproject/editor-go/internal/typeid"
	"github.com/heliumproject/editor-go/internal/undo"
)

// Node is the atomic evaluable unit. Hierarchy, Transform and Layer nodes
// carry the matching optional part; kind-specific methods report
// ErrWrongKind on nodes without it.
type Node struct {
	id    ID
	name  string
	typ   *NodeType
	kind  Kind
	scene *Scene

	// ancestors are the nodes this node depends on, descendants the nodes
	// that depend on it. Both sides are always updated together.
	ancestors   idSet
	descendants idSet

	state     [2]EvalState
	visitedID uint64
	transient bool

	hier  *hierarchyPart
	xform *transformPart
	layer *layerPart
}

func newNode(t *NodeType, id ID, name string) *Node {
	n := &Node{
		id:    id,
		name:  name,
		typ:   t,
		kind:  t.Kind,
		state: [2]EvalState{StateDirty, StateDirty},
	}
	if t.Kind.IsHierarchy() {
		n.hier = newHierarchyPart()
	}
	if t.Kind == KindTransform {
		n.xform = newTransformPart()
	}
	if t.Kind == KindLayer {
		n.layer = newLayerPart()
	}
	return n
}

func newID(k Kind) ID {
	switch k {
	case KindHierarchy:
		return typeid.NewHierarchyID()
	case KindTransform:
		return typeid.NewTransformID()
	case KindLayer:
		return typeid.NewLayerID()
	}
	return typeid.NewNodeID()
}

func (n *Node) ID() ID          { return n.id }
func (n *Node) Name() string    { return n.name }
func (n *Node) Type() *NodeType { return n.typ }
func (n *Node) Kind() Kind      { return n.kind }

// Scene returns the owning scene, or nil while the node is not inserted.
func (n *Node) Scene() *Scene { return n.scene }

func (n *Node) IsTransient() bool { return n.transient }

// SetTransient marks the node as a temporary helper: it is left out of
// snapshots and does not raise add/remove notifications.
func (n *Node) SetTransient(v bool) { n.transient = v }

func (n *Node) IsHierarchy() bool { return n.hier != nil }
func (n *Node) IsTransform() bool { return n.xform != nil }
func (n *Node) IsLayer() bool     { return n.layer != nil }

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.name, n.id)
}

// SetName renames the node.
func (n *Node) SetName(name string) undo.Command {
	return undo.NewPropertyCommandValue(n.Name, func(v string) { n.name = v }, name).Named("rename")
}

func (n *Node) State(dir Direction) EvalState { return n.state[dir] }
func (n *Node) IsDirty(dir Direction) bool    { return n.state[dir] == StateDirty }

// Ancestors returns the IDs this node depends on, in insertion order.
func (n *Node) Ancestors() []ID { return n.ancestors.Slice() }

// Descendants returns the IDs depending on this node, in insertion order.
func (n *Node) Descendants() []ID { return n.descendants.Slice() }

func (n *Node) HasDependency(ancestor *Node) bool {
	return ancestor != nil && n.ancestors.Has(ancestor.id)
}

func (n *Node) lookup(id ID) *Node {
	if n.scene == nil || id == "" {
		return nil
	}
	return n.scene.nodes[id]
}

func (n *Node) wrongKind(op string) error {
	return fmt.Errorf("%s on %s %s: %w", op, n.kind, n.id, ErrWrongKind)
}

// Dirty marks both directions dirty. Every transitive descendant is marked
// dirty in both directions and every transitive ancestor is marked
// upstream dirty. A node already dirty in both directions is left alone.
func (n *Node) Dirty() DirtyFlags {
	var flags DirtyFlags
	if n.state[Downstream] != StateDirty {
		n.state[Downstream] = StateDirty
		flags |= DirtyDownstream
	}
	if n.state[Upstream] != StateDirty {
		n.state[Upstream] = StateDirty
		flags |= DirtyUpstream
	}
	if flags == DirtyNone {
		return flags
	}
	n.propagateDirty()
	return flags
}

func (n *Node) forceDirty() {
	n.state = [2]EvalState{StateDirty, StateDirty}
	n.propagateDirty()
}

func (n *Node) propagateDirty() {
	for _, id := range n.descendants.order {
		if d := n.lookup(id); d != nil {
			d.Dirty()
		}
	}
	for _, id := range n.ancestors.order {
		if a := n.lookup(id); a != nil {
			a.dirtyUpstream()
		}
	}
}

func (n *Node) dirtyUpstream() {
	if n.state[Upstream] == StateDirty {
		return
	}
	n.state[Upstream] = StateDirty
	for _, id := range n.ancestors.order {
		if a := n.lookup(id); a != nil {
			a.dirtyUpstream()
		}
	}
}

// CreateDependency makes n depend on ancestor and dirties n.
func (n *Node) CreateDependency(ancestor *Node) error {
	switch {
	case ancestor == nil:
		return fmt.Errorf("create dependency of %s: %w", n.id, ErrNodeNotFound)
	case ancestor == n:
		return fmt.Errorf("create dependency of %s: %w", n.id, ErrSelfDependency)
	case n.scene == nil || ancestor.scene != n.scene:
		return fmt.Errorf("create dependency %s -> %s: %w", ancestor.id, n.id, ErrNotInScene)
	case n.ancestors.Has(ancestor.id):
		return fmt.Errorf("create dependency %s -> %s: %w", ancestor.id, n.id, ErrDependencyExists)
	}
	n.link(ancestor)
	return nil
}

// RemoveDependency removes the edge created by CreateDependency.
func (n *Node) RemoveDependency(ancestor *Node) error {
	if ancestor == nil || !n.ancestors.Has(ancestor.id) {
		return fmt.Errorf("remove dependency of %s: %w", n.id, ErrDependencyMissing)
	}
	n.unlink(ancestor)
	return nil
}

func (n *Node) link(ancestor *Node) {
	n.ancestors.Add(ancestor.id)
	ancestor.descendants.Add(n.id)
	n.Dirty()
	ancestor.dirtyUpstream()
}

func (n *Node) unlink(ancestor *Node) {
	n.ancestors.Remove(ancestor.id)
	ancestor.descendants.Remove(n.id)
	n.Dirty()
	ancestor.dirtyUpstream()
}

type evaluator func(n *Node)

var evaluators = [kindCount][2]evaluator{
	KindHierarchy: {Downstream: evaluateHierarchy, Upstream: evaluateHierarchyBounds},
	KindTransform: {Downstream: evaluateTransform, Upstream: evaluateHierarchyBounds},
}

// Evaluate recomputes the node's cached state for one direction. It never
// changes dependency edges and may be called repeatedly.
func (n *Node) Evaluate(dir Direction) {
	if f := evaluators[n.kind][dir]; f != nil {
		f(n)
	}
}

// Prune takes the node out of the active graph: its neighbors forget it,
// but the node keeps its own ancestor and descendant sets so Insert can
// restore the same shape. A hierarchy node also leaves its parent's child
// list; its parent and position are remembered.
func (n *Node) Prune(pruned *[]ID) {
	for _, id := range n.ancestors.order {
		if a := n.lookup(id); a != nil {
			a.descendants.Remove(n.id)
			a.dirtyUpstream()
		}
	}
	for _, id := range n.descendants.order {
		if d := n.lookup(id); d != nil {
			d.ancestors.Remove(n.id)
			d.Dirty()
		}
	}
	if n.hier != nil {
		if p := n.lookup(n.hier.parent); p != nil && p.hier != nil {
			n.hier.prunedIndex = p.removeChild(n.id)
		}
	}
	if pruned != nil {
		*pruned = append(*pruned, n.id)
	}
}

// Insert reverses Prune. Neighbors that no longer resolve are logged and
// dropped from the node's sets.
func (n *Node) Insert(inserted *[]ID) {
	for _, id := range n.ancestors.Slice() {
		a := n.lookup(id)
		if a == nil {
			slog.Warn("dropping unresolved dependency", "node", n.id, "ref", id)
			n.ancestors.Remove(id)
			continue
		}
		a.descendants.Add(n.id)
	}
	for _, id := range n.descendants.Slice() {
		d := n.lookup(id)
		if d == nil {
			slog.Warn("dropping unresolved dependent", "node", n.id, "ref", id)
			n.descendants.Remove(id)
			continue
		}
		d.ancestors.Add(n.id)
	}
	if n.hier != nil {
		n.attachRecordedParent()
	}
	n.forceDirty()
	if inserted != nil {
		*inserted = append(*inserted, n.id)
	}
}
