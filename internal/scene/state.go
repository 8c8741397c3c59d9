package scene

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/heliumproject/editor-go/internal/linear"
)

// NodeState is the persisted form of a node. Derived flags and evaluation
// state are not part of it.
type NodeState struct {
	ID        ID              `msgpack:"id"`
	Type      string          `msgpack:"type"`
	Name      string          `msgpack:"name"`
	Ancestors []ID            `msgpack:"ancestors"`
	Hierarchy *HierarchyState `msgpack:"hierarchy,omitempty"`
	Transform *TransformState `msgpack:"transform,omitempty"`
	Layer     *LayerState     `msgpack:"layer,omitempty"`
}

type HierarchyState struct {
	Parent          ID         `msgpack:"parent"`
	Children        []ID       `msgpack:"children"`
	Hidden          bool       `msgpack:"hidden"`
	Live            bool       `msgpack:"live"`
	ObjectBounds    linear.Box `msgpack:"objectBounds"`
	HierarchyBounds linear.Box `msgpack:"hierarchyBounds"`
}

type TransformState struct {
	Components linear.Components `msgpack:"components"`
	Inherit    bool              `msgpack:"inherit"`
	Explicit   bool              `msgpack:"explicit"`
	Object     mgl64.Mat4        `msgpack:"object"`
	Global     mgl64.Mat4        `msgpack:"global"`
}

type LayerState struct {
	Visible    bool       `msgpack:"visible"`
	Selectable bool       `msgpack:"selectable"`
	Color      mgl64.Vec4 `msgpack:"color"`
}

// NodeState captures the node's current state.
func (n *Node) NodeState() NodeState {
	st := NodeState{
		ID:        n.id,
		Type:      n.typ.Name,
		Name:      n.name,
		Ancestors: n.ancestors.Sorted(),
	}
	if h := n.hier; h != nil {
		st.Hierarchy = &HierarchyState{
			Parent:          h.parent,
			Children:        slices.Clone(h.children),
			Hidden:          h.hidden,
			Live:            h.live,
			ObjectBounds:    h.objectBounds,
			HierarchyBounds: h.hierarchyBounds,
		}
	}
	if t := n.xform; t != nil {
		st.Transform = &TransformState{
			Components: t.components,
			Inherit:    t.inherit,
			Explicit:   t.explicitObject,
			Object:     t.object,
			Global:     t.global,
		}
	}
	if l := n.layer; l != nil {
		st.Layer = &LayerState{Visible: l.visible, Selectable: l.selectable, Color: l.color}
	}
	return st
}

// GetState returns the node's state as an opaque msgpack blob.
func (n *Node) GetState() ([]byte, error) {
	data, err := msgpack.Marshal(n.NodeState())
	if err != nil {
		return nil, fmt.Errorf("encode state of %s: %w", n.id, err)
	}
	return data, nil
}

// SetState applies a blob produced by GetState for the same node. Only
// properties are restored; edges and tree links are left unchanged.
func (n *Node) SetState(data []byte) error {
	var st NodeState
	if err := msgpack.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decode state of %s: %w", n.id, err)
	}
	if st.ID != n.id {
		return fmt.Errorf("apply state of %s to %s: %w", st.ID, n.id, ErrStateMismatch)
	}
	n.applyState(&st)
	n.Dirty()
	return nil
}

func (n *Node) applyState(st *NodeState) {
	n.name = st.Name
	if h, hs := n.hier, st.Hierarchy; h != nil && hs != nil {
		h.hidden = hs.Hidden
		h.live = hs.Live
		h.objectBounds = hs.ObjectBounds
		h.hierarchyBounds = hs.HierarchyBounds
	}
	if t, ts := n.xform, st.Transform; t != nil && ts != nil {
		t.components = ts.Components
		t.inherit = ts.Inherit
		t.explicitObject = ts.Explicit
		t.object = ts.Object
		t.inverseObject = linear.Invert(ts.Object)
		t.global = ts.Global
		t.inverseGlobal = linear.Invert(ts.Global)
		t.bindDirty = true
	}
	if l, ls := n.layer, st.Layer; l != nil && ls != nil {
		l.visible = ls.Visible
		l.selectable = ls.Selectable
		l.color = ls.Color
	}
}

// Snapshot is the persisted form of a whole scene. Nodes are sorted by ID
// so equal scenes encode to equal bytes.
type Snapshot struct {
	SceneID ID          `msgpack:"sceneId"`
	Root    ID          `msgpack:"root"`
	Nodes   []NodeState `msgpack:"nodes"`
}

// Snapshot captures every non-transient node.
func (s *Scene) Snapshot() *Snapshot {
	snap := &Snapshot{SceneID: s.id, Root: s.root.id}
	ids := s.order.Sorted()
	for _, id := range ids {
		n := s.nodes[id]
		if n.transient {
			continue
		}
		snap.Nodes = append(snap.Nodes, n.NodeState())
	}
	return snap
}

func (snap *Snapshot) Marshal() ([]byte, error) {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Restore replaces the scene's content with the snapshot and clears the
// undo queue. Unknown types, dependencies and children that do not resolve
// are logged and skipped; the affected node is left unlinked.
func (s *Scene) Restore(snap *Snapshot) error {
	built := make(map[ID]*Node, len(snap.Nodes))
	var nodes []*Node
	for i := range snap.Nodes {
		st := &snap.Nodes[i]
		t, ok := s.types.Lookup(st.Type)
		if !ok {
			slog.Warn("skipping node of unknown type", "node", st.ID, "type", st.Type)
			continue
		}
		n := newNode(t, st.ID, st.Name)
		n.applyState(st)
		built[n.id] = n
		nodes = append(nodes, n)
	}
	root := built[snap.Root]
	if root == nil || root.xform == nil {
		return fmt.Errorf("restore root %s: %w", snap.Root, ErrNodeNotFound)
	}

	for _, n := range s.nodes {
		n.typ.instances.Remove(n.id)
		n.scene = nil
	}
	s.queue.Reset()
	s.nodes = make(map[ID]*Node, len(nodes))
	s.order.Clear()
	s.highlighted.Clear()
	if snap.SceneID != "" {
		s.id = snap.SceneID
	}
	s.root = root
	for _, n := range nodes {
		n.scene = s
		s.nodes[n.id] = n
		s.order.Add(n.id)
		n.typ.instances.Add(n.id)
	}

	for i := range snap.Nodes {
		st := &snap.Nodes[i]
		n := built[st.ID]
		if n == nil {
			continue
		}
		for _, ref := range st.Ancestors {
			a := s.nodes[ref]
			if a == nil {
				slog.Warn("dropping unresolved dependency", "node", n.id, "ref", ref)
				continue
			}
			n.ancestors.Add(a.id)
			a.descendants.Add(n.id)
		}
		if st.Hierarchy == nil || n.hier == nil {
			continue
		}
		for _, ref := range st.Hierarchy.Children {
			c := s.nodes[ref]
			if c == nil || c.hier == nil {
				slog.Warn("dropping unresolved child", "node", n.id, "ref", ref)
				continue
			}
			n.hier.children = append(n.hier.children, c.id)
			c.hier.parent = n.id
		}
	}

	for _, n := range nodes {
		if n.hier == nil {
			continue
		}
		p := n.lookup(n.hier.parent)
		if p == nil {
			if st := snapState(snap, n.id); st != nil && st.Hierarchy != nil && st.Hierarchy.Parent != "" {
				slog.Warn("dropping unresolved parent", "node", n.id, "ref", st.Hierarchy.Parent)
			}
			continue
		}
		if !n.ancestors.Has(p.id) {
			n.ancestors.Add(p.id)
			p.descendants.Add(n.id)
		}
	}
	for _, n := range nodes {
		n.state = [2]EvalState{StateDirty, StateDirty}
	}
	return nil
}

func snapState(snap *Snapshot, id ID) *NodeState {
	for i := range snap.Nodes {
		if snap.Nodes[i].ID == id {
			return &snap.Nodes[i]
		}
	}
	return nil
}
