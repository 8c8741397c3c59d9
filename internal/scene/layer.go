package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/heliumproject/editor-go/internal/undo"
)

type layerPart struct {
	visible    bool
	selectable bool
	color      mgl64.Vec4
	isolated   bool
}

func newLayerPart() *layerPart {
	return &layerPart{visible: true, selectable: true, color: mgl64.Vec4{1, 1, 1, 1}}
}

func (n *Node) LayerVisible() bool    { return n.layer != nil && n.layer.visible }
func (n *Node) LayerSelectable() bool { return n.layer != nil && n.layer.selectable }
func (n *Node) IsIsolated() bool      { return n.layer != nil && n.layer.isolated }

func (n *Node) Color() mgl64.Vec4 {
	if n.layer == nil {
		return mgl64.Vec4{1, 1, 1, 1}
	}
	return n.layer.color
}

// Members returns the hierarchy nodes assigned to the layer, in order.
func (n *Node) Members() []*Node {
	if n.layer == nil {
		return nil
	}
	var out []*Node
	for _, id := range n.descendants.order {
		if m := n.lookup(id); m != nil && m.hier != nil {
			out = append(out, m)
		}
	}
	return out
}

func (n *Node) SetLayerVisible(v bool) (undo.Command, error) {
	if n.layer == nil {
		return nil, n.wrongKind("set layer visible")
	}
	return undo.NewPropertyCommandValue(n.LayerVisible, func(v bool) {
		n.layer.visible = v
		n.Dirty()
	}, v).Named("layer visible " + n.name), nil
}

func (n *Node) SetLayerSelectable(v bool) (undo.Command, error) {
	if n.layer == nil {
		return nil, n.wrongKind("set layer selectable")
	}
	return undo.NewPropertyCommandValue(n.LayerSelectable, func(v bool) {
		n.layer.selectable = v
		n.Dirty()
	}, v).Named("layer selectable " + n.name), nil
}

func (n *Node) SetColor(c mgl64.Vec4) (undo.Command, error) {
	if n.layer == nil {
		return nil, n.wrongKind("set color")
	}
	return undo.NewPropertyCommandValue(n.Color, func(v mgl64.Vec4) {
		n.layer.color = v
		n.Dirty()
	}, c).Named("color " + n.name), nil
}

// AddMember assigns a hierarchy node to the layer, moving it out of any
// previous layer. The member depends on the layer, so layer edits dirty it.
func (n *Node) AddMember(member *Node) (undo.Command, error) {
	if n.layer == nil {
		return nil, n.wrongKind("add member")
	}
	if member == nil || member.hier == nil {
		return nil, fmt.Errorf("add member to %s: %w", n.id, ErrWrongKind)
	}
	if n.layer.isolated {
		return nil, fmt.Errorf("add member to %s: %w", n.id, ErrLayerIsolated)
	}
	prev := member.Layer()
	if prev == n {
		return nil, fmt.Errorf("add member %s to %s: %w", member.id, n.id, ErrDependencyExists)
	}
	if prev != nil {
		member.unlink(prev)
	}
	if err := member.CreateDependency(n); err != nil {
		if prev != nil {
			member.link(prev)
		}
		return nil, err
	}
	return undo.NewFuncCommand("add member "+member.name,
		func() error {
			if err := member.RemoveDependency(n); err != nil {
				return err
			}
			if prev != nil {
				return member.CreateDependency(prev)
			}
			return nil
		},
		func() error {
			if prev != nil {
				if err := member.RemoveDependency(prev); err != nil {
					return err
				}
			}
			return member.CreateDependency(n)
		},
	), nil
}

// RemoveMember takes a node out of the layer.
func (n *Node) RemoveMember(member *Node) (undo.Command, error) {
	if n.layer == nil {
		return nil, n.wrongKind("remove member")
	}
	if member == nil || member.Layer() != n {
		return nil, fmt.Errorf("remove member from %s: %w", n.id, ErrDependencyMissing)
	}
	if err := member.RemoveDependency(n); err != nil {
		return nil, err
	}
	return undo.NewFuncCommand("remove member "+member.name,
		func() error { return member.CreateDependency(n) },
		func() error { return member.RemoveDependency(n) },
	), nil
}

// Isolate prunes the layer from the graph so its members evaluate as if it
// did not exist. Restore reinserts it with the same members.
func (n *Node) Isolate() error {
	if n.layer == nil {
		return n.wrongKind("isolate")
	}
	if n.layer.isolated {
		return nil
	}
	n.Prune(nil)
	n.layer.isolated = true
	return nil
}

func (n *Node) Restore() error {
	if n.layer == nil {
		return n.wrongKind("restore")
	}
	if !n.layer.isolated {
		return nil
	}
	n.Insert(nil)
	n.layer.isolated = false
	return nil
}
