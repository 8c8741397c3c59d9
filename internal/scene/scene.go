package scene

import (
	"fmt"

	"github.com/heliumproject/editor-go/internal/typeid"
	"github.com/heliumproject/editor-go/internal/undo"
)

// RootName is the display name of every scene's root Transform.
const RootName = "Root"

// Scene owns the node table, the evaluation graph, the root Transform, the
// undo queue and the type registry. It is not safe for concurrent use: one
// goroutine owns a Scene and runs every operation to completion.
type Scene struct {
	id    ID
	nodes map[ID]*Node
	order idSet
	graph *Graph
	root  *Node
	queue *undo.Queue
	types *TypeRegistry

	highlighted idSet
	events      listeners
}

// New creates an empty scene holding only its root. undoMaxLength bounds
// the undo stack (0 = unbounded).
func New(undoMaxLength int) *Scene {
	s := &Scene{
		id:    typeid.NewSceneID(),
		nodes: make(map[ID]*Node),
		graph: &Graph{},
		queue: undo.NewQueue(undoMaxLength),
		types: NewTypeRegistry(),
	}
	t, _ := s.types.Lookup(TypeTransform)
	s.root = newNode(t, newID(KindTransform), RootName)
	if err := s.insert(s.root); err != nil {
		panic(err)
	}
	return s
}

func (s *Scene) ID() ID                { return s.id }
func (s *Scene) Root() *Node           { return s.root }
func (s *Scene) Types() *TypeRegistry  { return s.types }
func (s *Scene) Graph() *Graph         { return s.graph }
func (s *Scene) Queue() *undo.Queue    { return s.queue }
func (s *Scene) Len() int              { return len(s.nodes) }
func (s *Scene) Contains(n *Node) bool { return n != nil && s.nodes[n.id] == n }

func (s *Scene) Lookup(id ID) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Nodes returns every node in insertion order.
func (s *Scene) Nodes() []*Node {
	out := make([]*Node, 0, len(s.order.order))
	for _, id := range s.order.order {
		out = append(out, s.nodes[id])
	}
	return out
}

// NewNode creates an unattached node of a registered type. An empty name
// is replaced by the type's next default name.
func (s *Scene) NewNode(typeName, name string) (*Node, error) {
	t, ok := s.types.Lookup(typeName)
	if !ok {
		return nil, fmt.Errorf("new node %q: %w", typeName, ErrUnknownType)
	}
	if name == "" {
		name = t.nextName()
	}
	return newNode(t, newID(t.Kind), name), nil
}

// AddNode inserts an unattached node. A hierarchy node goes under the
// parent it records (see AddNodeUnder), or under the root.
func (s *Scene) AddNode(n *Node) (undo.Command, error) {
	if n == nil {
		return nil, fmt.Errorf("add node: %w", ErrNodeNotFound)
	}
	if n.scene != nil {
		return nil, fmt.Errorf("add node %s: %w", n.id, ErrInScene)
	}
	cmd, err := undo.NewExistenceCommand(undo.ActionAdd,
		func() error { return s.insert(n) },
		func() error { return s.remove(n) },
	)
	if err != nil {
		return nil, fmt.Errorf("add node %s: %w", n.id, err)
	}
	return cmd.Named(n.name), nil
}

// AddNodeUnder inserts an unattached hierarchy node as the last child of
// parent (the root when nil).
func (s *Scene) AddNodeUnder(n, parent *Node) (undo.Command, error) {
	if n == nil {
		return nil, fmt.Errorf("add node: %w", ErrNodeNotFound)
	}
	if n.hier == nil {
		return nil, n.wrongKind("add under parent")
	}
	if parent != nil {
		if parent.scene != s {
			return nil, fmt.Errorf("add node %s under %s: %w", n.id, parent.id, ErrNotInScene)
		}
		if parent.hier == nil {
			return nil, parent.wrongKind("adopt child")
		}
		n.hier.parent = parent.id
		n.hier.prunedIndex = -1
	}
	return s.AddNode(n)
}

// Create builds a node of typeName named name and adds it under parent.
// Non-hierarchy nodes ignore parent.
func (s *Scene) Create(typeName, name string, parent *Node) (*Node, undo.Command, error) {
	n, err := s.NewNode(typeName, name)
	if err != nil {
		return nil, nil, err
	}
	var cmd undo.Command
	if n.hier != nil {
		cmd, err = s.AddNodeUnder(n, parent)
	} else {
		cmd, err = s.AddNode(n)
	}
	if err != nil {
		return nil, nil, err
	}
	return n, cmd, nil
}

func (s *Scene) insert(n *Node) error {
	if n.scene != nil {
		return fmt.Errorf("insert %s: %w", n.id, ErrInScene)
	}
	if _, ok := s.nodes[n.id]; ok {
		return fmt.Errorf("insert %s: %w", n.id, ErrDuplicateID)
	}
	n.scene = s
	s.nodes[n.id] = n
	s.order.Add(n.id)
	n.typ.instances.Add(n.id)

	if n.layer != nil && n.layer.isolated {
		// Edges come back on Restore.
		n.forceDirty()
	} else {
		n.Insert(nil)
	}
	if n.hier != nil && n != s.root && n.hier.parent == "" {
		n.hier.parent = s.root.id
		s.root.insertChild(n.id, -1)
		n.link(s.root)
	}
	s.nodeAdded(n)
	return nil
}

func (s *Scene) remove(n *Node) error {
	if s.nodes[n.id] != n {
		return fmt.Errorf("remove %s: %w", n.id, ErrNotInScene)
	}
	if n == s.root {
		return fmt.Errorf("remove %s: %w", n.id, ErrRootNode)
	}
	if n.hier != nil && len(n.hier.children) > 0 {
		return fmt.Errorf("remove %s: %w", n.id, ErrHasChildren)
	}
	n.Prune(nil)
	s.highlighted.Remove(n.id)
	delete(s.nodes, n.id)
	s.order.Remove(n.id)
	n.typ.instances.Remove(n.id)
	n.scene = nil
	s.nodeRemoved(n)
	return nil
}

// RemoveNode removes n and its whole subtree, children first. Undo puts
// every node back with the same ID, edges and child position.
func (s *Scene) RemoveNode(n *Node) (undo.Command, error) {
	if n == nil || n.scene != s {
		return nil, fmt.Errorf("remove node: %w", ErrNotInScene)
	}
	if n == s.root {
		return nil, fmt.Errorf("remove node %s: %w", n.id, ErrRootNode)
	}
	batch := undo.NewBatchCommand()
	for _, m := range postOrder(n, nil) {
		cmd, err := undo.NewExistenceCommand(undo.ActionRemove,
			func() error { return s.insert(m) },
			func() error { return s.remove(m) },
		)
		if err != nil {
			if uerr := batch.Undo(); uerr != nil {
				return nil, fmt.Errorf("remove node %s: %w (rollback: %v)", m.id, err, uerr)
			}
			return nil, fmt.Errorf("remove node %s: %w", m.id, err)
		}
		batch.Push(cmd.Named(m.name))
	}
	if batch.Len() == 1 {
		return batch.Commands()[0], nil
	}
	return batch, nil
}

func postOrder(n *Node, out []*Node) []*Node {
	for _, c := range n.Children() {
		out = postOrder(c, out)
	}
	return append(out, n)
}

// Reparent moves n under parent (the root when nil). Undo restores the old
// parent and child position.
func (s *Scene) Reparent(n, parent *Node) (undo.Command, error) {
	if n == nil || n.scene != s {
		return nil, fmt.Errorf("reparent: %w", ErrNotInScene)
	}
	if parent == nil {
		parent = s.root
	}
	old := n.Parent()
	oldIndex := n.ChildIndex()
	if err := n.SetParent(parent); err != nil {
		return nil, err
	}
	newIndex := n.ChildIndex()
	return undo.NewFuncCommand("reparent "+n.name,
		func() error { return n.SetParentAt(old, oldIndex) },
		func() error { return n.SetParentAt(parent, newIndex) },
	), nil
}

// Subtree is a detached deep copy produced by Duplicate. Nodes is in
// pre-order; Root is Nodes[0].
type Subtree struct {
	Root  *Node
	Nodes []*Node
}

// Duplicate copies n and its subtree into new unattached nodes with fresh
// IDs and no dependency edges. The copy records n's parent, so AddSubtree
// places it next to the original.
func (s *Scene) Duplicate(n *Node) (*Subtree, error) {
	if n == nil || n.scene != s {
		return nil, fmt.Errorf("duplicate: %w", ErrNotInScene)
	}
	if n == s.root {
		return nil, fmt.Errorf("duplicate %s: %w", n.id, ErrRootNode)
	}
	st := &Subtree{}
	st.Root = clone(n, n.ParentID(), st)
	return st, nil
}

func clone(n *Node, parent ID, st *Subtree) *Node {
	c := newNode(n.typ, newID(n.kind), n.typ.nextName())
	c.transient = n.transient
	if n.hier != nil {
		h := *n.hier
		h.parent = parent
		h.children = nil
		h.prunedIndex = -1
		c.hier = &h
	}
	if n.xform != nil {
		t := *n.xform
		t.bindDirty = true
		c.xform = &t
	}
	if n.layer != nil {
		l := *n.layer
		l.isolated = false
		c.layer = &l
	}
	st.Nodes = append(st.Nodes, c)
	for _, child := range n.Children() {
		clone(child, c.id, st)
	}
	return c
}

// AddSubtree inserts a duplicated subtree as one undo step.
func (s *Scene) AddSubtree(st *Subtree) (undo.Command, error) {
	batch := undo.NewBatchCommand()
	for _, n := range st.Nodes {
		cmd, err := s.AddNode(n)
		if err != nil {
			if uerr := batch.Undo(); uerr != nil {
				return nil, fmt.Errorf("add subtree: %w (rollback: %v)", err, uerr)
			}
			return nil, fmt.Errorf("add subtree: %w", err)
		}
		batch.Push(cmd)
	}
	return batch, nil
}

// SetHighlighted adds or removes n from the highlight set.
func (s *Scene) SetHighlighted(n *Node, on bool) {
	var changed bool
	if on {
		changed = s.highlighted.Add(n.id)
	} else {
		changed = s.highlighted.Remove(n.id)
	}
	if changed {
		n.Dirty()
	}
}

func (s *Scene) Highlighted() []ID { return s.highlighted.Slice() }

// Push records an already applied command.
func (s *Scene) Push(cmd undo.Command) bool { return s.queue.Push(cmd) }

// Apply pushes the command returned by an edit method unless the edit
// failed. It is meant to wrap the edit call directly:
//
//	err := s.Apply(node.SetTranslate(v))
func (s *Scene) Apply(cmd undo.Command, err error) error {
	if err != nil {
		return err
	}
	if cmd != nil {
		s.queue.Push(cmd)
	}
	return nil
}

func (s *Scene) Undo() error      { return s.queue.Undo() }
func (s *Scene) Redo() error      { return s.queue.Redo() }
func (s *Scene) BeginBatch()      { s.queue.BeginBatch() }
func (s *Scene) EndBatch() error  { return s.queue.EndBatch() }
func (s *Scene) CanUndo() bool    { return s.queue.CanUndo() }
func (s *Scene) CanRedo() bool    { return s.queue.CanRedo() }
func (s *Scene) IsBatching() bool { return s.queue.IsBatching() }

// Evaluate evaluates every node not clean in dir.
func (s *Scene) Evaluate(dir Direction) error {
	var pending []*Node
	for _, id := range s.order.order {
		if n := s.nodes[id]; n.state[dir] != StateClean {
			pending = append(pending, n)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	if err := s.graph.Evaluate(pending, dir); err != nil {
		return fmt.Errorf("evaluate %s: %w", dir, err)
	}
	return nil
}

// Execute brings the scene up to date: flags and matrices downstream, then
// bounds upstream.
func (s *Scene) Execute() error {
	if err := s.Evaluate(Downstream); err != nil {
		return err
	}
	return s.Evaluate(Upstream)
}

// Render executes the scene and walks it with a render visitor.
func (s *Scene) Render(v HierarchyVisitor, state *TraversalState) error {
	return s.walk(v, state)
}

// Pick executes the scene and walks it with a pick visitor.
func (s *Scene) Pick(v HierarchyVisitor, state *TraversalState) error {
	return s.walk(v, state)
}

func (s *Scene) walk(v HierarchyVisitor, state *TraversalState) error {
	if err := s.Execute(); err != nil {
		return err
	}
	if w, ok := v.(WalkStarter); ok {
		w.BeginWalk()
	}
	Traverse(s.root, v, state)
	return nil
}
