package session

import (
	"fmt"

	"github.com/heliumproject/editor-go/internal/scene"
)

// applyOperation translates op into scene edits. Each edit lands on the
// undo queue as one command. It returns the ID of the node the operation
// created or targeted.
func (h *Hub) applyOperation(op Operation) (string, error) {
	switch op.Type {
	case OpNodeCreate:
		return h.applyCreate(op)
	case OpNodeDelete:
		return h.applyDelete(op)
	case OpNodeReparent:
		return h.applyReparent(op)
	case OpNodeTransform:
		return h.applyTransform(op)
	case OpNodeVisibility:
		return h.applyVisibility(op)
	case OpNodeSelect:
		return "", h.applySelect(op)
	case OpBatchBegin:
		h.scene.BeginBatch()
		return "", nil
	case OpBatchEnd:
		return "", h.scene.EndBatch()
	case OpUndo:
		return "", h.scene.Undo()
	case OpRedo:
		return "", h.scene.Redo()
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownOperation, op.Type)
	}
}

func (h *Hub) node(id string) (*scene.Node, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing node id", ErrBadOperation)
	}
	n, ok := h.scene.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, scene.ErrNodeNotFound)
	}
	return n, nil
}

// parent resolves a parent reference. Empty means the root.
func (h *Hub) parent(id string) (*scene.Node, error) {
	if id == "" {
		return h.scene.Root(), nil
	}
	return h.node(id)
}

func (h *Hub) applyCreate(op Operation) (string, error) {
	if op.NodeType == "" {
		return "", fmt.Errorf("%w: missing node type", ErrBadOperation)
	}
	parent, err := h.parent(op.ParentID)
	if err != nil {
		return "", err
	}
	n, cmd, err := h.scene.Create(op.NodeType, op.Name, parent)
	if err != nil {
		return "", err
	}
	h.scene.Push(cmd)
	return n.ID(), nil
}

func (h *Hub) applyDelete(op Operation) (string, error) {
	n, err := h.node(op.NodeID)
	if err != nil {
		return "", err
	}
	return n.ID(), h.scene.Apply(h.scene.RemoveNode(n))
}

func (h *Hub) applyReparent(op Operation) (string, error) {
	n, err := h.node(op.NodeID)
	if err != nil {
		return "", err
	}
	parent, err := h.parent(op.ParentID)
	if err != nil {
		return "", err
	}
	return n.ID(), h.scene.Apply(h.scene.Reparent(n, parent))
}

// applyTransform sets any of translate, rotate and scale as one undo step.
func (h *Hub) applyTransform(op Operation) (string, error) {
	n, err := h.node(op.NodeID)
	if err != nil {
		return "", err
	}
	if !n.IsTransform() {
		return "", fmt.Errorf("transform %s: %w", n.ID(), scene.ErrWrongKind)
	}
	if op.Translate == nil && op.Rotate == nil && op.Scale == nil {
		return "", fmt.Errorf("%w: no transform components", ErrBadOperation)
	}

	s := h.scene
	s.BeginBatch()
	if op.Translate != nil {
		err = s.Apply(n.SetTranslate(*op.Translate))
	}
	if err == nil && op.Rotate != nil {
		err = s.Apply(n.SetRotate(*op.Rotate))
	}
	if err == nil && op.Scale != nil {
		err = s.Apply(n.SetScale(*op.Scale))
	}
	if endErr := s.EndBatch(); err == nil {
		err = endErr
	}
	return n.ID(), err
}

func (h *Hub) applyVisibility(op Operation) (string, error) {
	n, err := h.node(op.NodeID)
	if err != nil {
		return "", err
	}
	if op.Hidden == nil {
		return "", fmt.Errorf("%w: missing hidden flag", ErrBadOperation)
	}
	return n.ID(), h.scene.Apply(n.SetHidden(*op.Hidden))
}

// applySelect replaces the render selection. It is not an undoable edit.
func (h *Hub) applySelect(op Operation) error {
	ids := make([]scene.ID, 0, len(op.NodeIDs))
	for _, id := range op.NodeIDs {
		n, err := h.node(id)
		if err != nil {
			return err
		}
		ids = append(ids, n.ID())
	}
	h.renderer.SetSelection(ids)
	return nil
}
