package scene

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/heliumproject/editor-go/internal/linear"
	"github.com/heliumproject/editor-go/internal/metrics"
	"github.com/heliumproject/editor-go/internal/undo"
)

type hierarchyPart struct {
	parent   ID
	children []ID
	// prunedIndex is the child position held before the last Prune, -1
	// when none is recorded.
	prunedIndex int

	objectBounds    linear.Box
	hierarchyBounds linear.Box

	hidden bool
	live   bool

	visible     bool
	selectable  bool
	highlighted bool
	reactive    bool
}

func newHierarchyPart() *hierarchyPart {
	return &hierarchyPart{
		prunedIndex:     -1,
		objectBounds:    linear.EmptyBox(),
		hierarchyBounds: linear.EmptyBox(),
		visible:         true,
		selectable:      true,
	}
}

// ParentChange describes a reparent for listeners.
type ParentChange struct {
	Node *Node
	Old  *Node
	New  *Node
}

// Parent returns the hierarchy parent, or nil.
func (n *Node) Parent() *Node {
	if n.hier == nil {
		return nil
	}
	return n.lookup(n.hier.parent)
}

// ParentID returns the recorded parent ID even while the node is pruned.
func (n *Node) ParentID() ID {
	if n.hier == nil {
		return ""
	}
	return n.hier.parent
}

// Children returns the children in order.
func (n *Node) Children() []*Node {
	if n.hier == nil {
		return nil
	}
	out := make([]*Node, 0, len(n.hier.children))
	for _, id := range n.hier.children {
		if c := n.lookup(id); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) ChildIDs() []ID {
	if n.hier == nil {
		return nil
	}
	return slices.Clone(n.hier.children)
}

// ChildIndex returns the position among the parent's children, or -1.
func (n *Node) ChildIndex() int {
	p := n.Parent()
	if p == nil {
		return -1
	}
	return slices.Index(p.hier.children, n.id)
}

// Next returns the following sibling.
func (n *Node) Next() *Node {
	p := n.Parent()
	i := n.ChildIndex()
	if p == nil || i < 0 || i+1 >= len(p.hier.children) {
		return nil
	}
	return n.lookup(p.hier.children[i+1])
}

// Previous returns the preceding sibling.
func (n *Node) Previous() *Node {
	p := n.Parent()
	i := n.ChildIndex()
	if p == nil || i <= 0 {
		return nil
	}
	return n.lookup(p.hier.children[i-1])
}

// IsAncestorOf reports whether n is other or one of its hierarchy parents.
func (n *Node) IsAncestorOf(other *Node) bool {
	for p := other; p != nil; p = p.Parent() {
		if p == n {
			return true
		}
	}
	return false
}

// Layer returns the layer the node belongs to, if any.
func (n *Node) Layer() *Node {
	for _, id := range n.ancestors.order {
		if a := n.lookup(id); a != nil && a.layer != nil {
			return a
		}
	}
	return nil
}

func (n *Node) Hidden() bool      { return n.hier != nil && n.hier.hidden }
func (n *Node) Live() bool        { return n.hier != nil && n.hier.live }
func (n *Node) Visible() bool     { return n.hier != nil && n.hier.visible }
func (n *Node) Selectable() bool  { return n.hier != nil && n.hier.selectable }
func (n *Node) Highlighted() bool { return n.hier != nil && n.hier.highlighted }
func (n *Node) Reactive() bool    { return n.hier != nil && n.hier.reactive }

// ObjectBounds returns the node's own bounds in object space.
func (n *Node) ObjectBounds() linear.Box {
	if n.hier == nil {
		return linear.EmptyBox()
	}
	return n.hier.objectBounds
}

// ObjectHierarchyBounds returns the bounds of the node and its subtree in
// object space, as of the last upstream evaluation.
func (n *Node) ObjectHierarchyBounds() linear.Box {
	if n.hier == nil {
		return linear.EmptyBox()
	}
	return n.hier.hierarchyBounds
}

// GlobalMatrix returns the global matrix of the nearest Transform, the node
// itself included, or identity.
func (n *Node) GlobalMatrix() mgl64.Mat4 {
	for p := n; p != nil; p = p.Parent() {
		if p.xform != nil {
			return p.xform.global
		}
	}
	return linear.Identity()
}

func (n *Node) GetGlobalBounds() linear.Box {
	return n.ObjectBounds().Transform(n.GlobalMatrix())
}

func (n *Node) GetGlobalHierarchyBounds() linear.Box {
	return n.ObjectHierarchyBounds().Transform(n.GlobalMatrix())
}

func (n *Node) SetHidden(hidden bool) (undo.Command, error) {
	if n.hier == nil {
		return nil, n.wrongKind("set hidden")
	}
	return undo.NewPropertyCommandValue(n.Hidden, func(v bool) {
		n.hier.hidden = v
		n.Dirty()
	}, hidden).Named("hidden " + n.name), nil
}

func (n *Node) SetLive(live bool) (undo.Command, error) {
	if n.hier == nil {
		return nil, n.wrongKind("set live")
	}
	return undo.NewPropertyCommandValue(n.Live, func(v bool) {
		n.hier.live = v
		n.Dirty()
	}, live).Named("live " + n.name), nil
}

func (n *Node) SetObjectBounds(b linear.Box) (undo.Command, error) {
	if n.hier == nil {
		return nil, n.wrongKind("set bounds")
	}
	return undo.NewPropertyCommandValue(n.ObjectBounds, n.applyObjectBounds, b).Named("bounds " + n.name), nil
}

func (n *Node) applyObjectBounds(b linear.Box) {
	n.hier.objectBounds = b
	n.Dirty()
}

// SetParent moves the node under parent, appending it to the children.
// A nil parent detaches the node.
func (n *Node) SetParent(parent *Node) error {
	return n.SetParentAt(parent, -1)
}

// SetParentAt moves the node under parent at child position index (append
// when out of range). The tree and the dependency edge change together:
// nothing is modified when validation fails or a listener vetoes.
func (n *Node) SetParentAt(parent *Node, index int) error {
	if n.hier == nil {
		return n.wrongKind("set parent")
	}
	if parent != nil {
		if parent == n {
			return fmt.Errorf("set parent of %s: %w", n.id, ErrSelfParent)
		}
		if parent.hier == nil {
			return parent.wrongKind("adopt child")
		}
		if n.scene == nil || parent.scene != n.scene {
			return fmt.Errorf("set parent of %s: %w", n.id, ErrNotInScene)
		}
		if n.IsAncestorOf(parent) {
			metrics.CycleErrors.Inc()
			return &CycleError{Path: n.pathTo(parent)}
		}
	}

	old := n.Parent()
	if old == parent && (index < 0 || index == n.ChildIndex()) {
		return nil
	}
	change := ParentChange{Node: n, Old: old, New: parent}
	if n.scene != nil && !n.scene.parentChanging(change) {
		return fmt.Errorf("set parent of %s: %w", n.id, ErrParentVetoed)
	}

	if old != nil {
		old.removeChild(n.id)
		if n.ancestors.Has(old.id) {
			n.unlink(old)
		}
	}
	n.hier.parent = ""
	n.hier.prunedIndex = -1
	if parent != nil {
		n.hier.parent = parent.id
		parent.insertChild(n.id, index)
		if !n.ancestors.Has(parent.id) {
			n.link(parent)
		}
	}
	n.Dirty()

	if n.scene != nil {
		n.scene.parentChanged(change)
	}
	return nil
}

// pathTo returns the hierarchy path n -> ... -> descendant -> n.
func (n *Node) pathTo(descendant *Node) []ID {
	var up []ID
	for p := descendant; p != nil && p != n; p = p.Parent() {
		up = append(up, p.id)
	}
	path := []ID{n.id}
	for i := len(up) - 1; i >= 0; i-- {
		path = append(path, up[i])
	}
	return append(path, n.id)
}

func (n *Node) insertChild(id ID, index int) {
	if index < 0 || index > len(n.hier.children) {
		n.hier.children = append(n.hier.children, id)
	} else {
		n.hier.children = slices.Insert(n.hier.children, index, id)
	}
	n.dirtyUpstream()
}

func (n *Node) removeChild(id ID) int {
	i := slices.Index(n.hier.children, id)
	if i >= 0 {
		n.hier.children = slices.Delete(n.hier.children, i, i+1)
		n.dirtyUpstream()
	}
	return i
}

// attachRecordedParent puts a re-inserted node back under the parent it
// had when it was pruned or duplicated.
func (n *Node) attachRecordedParent() {
	if n.hier.parent == "" {
		return
	}
	p := n.lookup(n.hier.parent)
	if p == nil || p.hier == nil {
		slog.Warn("dropping unresolved parent", "node", n.id, "ref", n.hier.parent)
		n.ancestors.Remove(n.hier.parent)
		n.hier.parent = ""
		n.hier.prunedIndex = -1
		return
	}
	if !slices.Contains(p.hier.children, n.id) {
		p.insertChild(n.id, n.hier.prunedIndex)
	}
	n.hier.prunedIndex = -1
	if !n.ancestors.Has(p.id) {
		n.ancestors.Add(p.id)
		p.descendants.Add(n.id)
	}
}

func evaluateHierarchy(n *Node) {
	h := n.hier
	visible := !h.hidden
	selectable := true
	reactive := h.live
	if p := n.Parent(); p != nil {
		visible = visible && p.hier.visible
		selectable = p.hier.selectable
		reactive = reactive || p.hier.reactive
	}
	if l := n.Layer(); l != nil {
		visible = visible && l.layer.visible
		selectable = selectable && l.layer.selectable
	}
	h.visible = visible
	h.selectable = selectable && visible
	h.reactive = reactive
	h.highlighted = n.scene != nil && n.scene.highlighted.Has(n.id)
}

func evaluateHierarchyBounds(n *Node) {
	b := n.hier.objectBounds
	for _, id := range n.hier.children {
		c := n.lookup(id)
		if c == nil || c.hier == nil {
			continue
		}
		cb := c.hier.hierarchyBounds
		switch {
		case c.xform == nil:
		case c.xform.inherit:
			cb = cb.Transform(c.xform.object)
		default:
			// The child is placed in world space; bring it into this frame.
			cb = cb.Transform(linear.Invert(n.GlobalMatrix()).Mul4(c.xform.global))
		}
		b = b.Union(cb)
	}
	n.hier.hierarchyBounds = b
}
