package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/heliumproject/editor-go/internal/linear"
	"github.com/heliumproject/editor-go/internal/undo"
)

type transformPart struct {
	components linear.Components
	inherit    bool

	object        mgl64.Mat4
	inverseObject mgl64.Mat4
	global        mgl64.Mat4
	inverseGlobal mgl64.Mat4

	// explicitObject is set when the object matrix was assigned directly
	// and must survive evaluation until ComputeObjectComponents runs.
	explicitObject bool

	bind        mgl64.Mat4
	inverseBind mgl64.Mat4
	bindDirty   bool
}

func newTransformPart() *transformPart {
	id := linear.Identity()
	return &transformPart{
		components:    linear.IdentityComponents(),
		inherit:       true,
		object:        id,
		inverseObject: id,
		global:        id,
		inverseGlobal: id,
		bind:          id,
		inverseBind:   id,
		bindDirty:     true,
	}
}

// Placement is the authored state of a Transform that commands swap as one
// value.
type Placement struct {
	Components linear.Components
	Object     mgl64.Mat4
	Explicit   bool
}

func (n *Node) placement() Placement {
	return Placement{
		Components: n.xform.components,
		Object:     n.xform.object,
		Explicit:   n.xform.explicitObject,
	}
}

func (n *Node) setPlacement(p Placement) {
	t := n.xform
	t.components = p.Components
	t.explicitObject = p.Explicit
	if p.Explicit {
		t.object = p.Object
		t.inverseObject = linear.Invert(p.Object)
	}
	n.Dirty()
}

// Components returns the authored scale, rotate and translate values.
func (n *Node) Components() linear.Components {
	if n.xform == nil {
		return linear.IdentityComponents()
	}
	return n.xform.components
}

func (n *Node) Scale() mgl64.Vec3     { return n.Components().Scale }
func (n *Node) Rotate() mgl64.Vec3    { return n.Components().Rotate }
func (n *Node) Translate() mgl64.Vec3 { return n.Components().Translate }

func (n *Node) InheritTransform() bool { return n.xform != nil && n.xform.inherit }

func (n *Node) ObjectTransform() mgl64.Mat4 {
	if n.xform == nil {
		return linear.Identity()
	}
	return n.xform.object
}

func (n *Node) InverseObjectTransform() mgl64.Mat4 {
	if n.xform == nil {
		return linear.Identity()
	}
	return n.xform.inverseObject
}

func (n *Node) GlobalTransform() mgl64.Mat4 {
	if n.xform == nil {
		return linear.Identity()
	}
	return n.xform.global
}

func (n *Node) InverseGlobalTransform() mgl64.Mat4 {
	if n.xform == nil {
		return linear.Identity()
	}
	return n.xform.inverseGlobal
}

// GetParentTransform returns the matrix that maps the node's local space
// to world: global * inverse(object).
func (n *Node) GetParentTransform() mgl64.Mat4 {
	return n.GlobalTransform().Mul4(n.InverseObjectTransform())
}

// GetInverseParentTransform returns object * inverse(global).
func (n *Node) GetInverseParentTransform() mgl64.Mat4 {
	return n.ObjectTransform().Mul4(n.InverseGlobalTransform())
}

// BindTransform returns the global matrix captured at bind time. It is
// recaptured on first use after DirtyBindTransform.
func (n *Node) BindTransform() mgl64.Mat4 {
	if n.xform == nil {
		return linear.Identity()
	}
	n.refreshBind()
	return n.xform.bind
}

func (n *Node) InverseBindTransform() mgl64.Mat4 {
	if n.xform == nil {
		return linear.Identity()
	}
	n.refreshBind()
	return n.xform.inverseBind
}

func (n *Node) DirtyBindTransform() {
	if n.xform != nil {
		n.xform.bindDirty = true
	}
}

func (n *Node) refreshBind() {
	t := n.xform
	if !t.bindDirty {
		return
	}
	t.bind = t.global
	t.inverseBind = t.inverseGlobal
	t.bindDirty = false
}

// parentTransform returns the nearest Transform above n in the tree.
func (n *Node) parentTransform() *Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.xform != nil {
			return p
		}
	}
	return nil
}

func (n *Node) parentGlobal() mgl64.Mat4 {
	if !n.xform.inherit {
		return linear.Identity()
	}
	if p := n.parentTransform(); p != nil {
		return p.xform.global
	}
	return linear.Identity()
}

func (n *Node) setComponent(name string, get func(linear.Components) mgl64.Vec3, set func(*linear.Components, mgl64.Vec3), v mgl64.Vec3) (undo.Command, error) {
	if n.xform == nil {
		return nil, n.wrongKind("set " + name)
	}
	getter := func() mgl64.Vec3 { return get(n.xform.components) }
	setter := func(v mgl64.Vec3) {
		set(&n.xform.components, v)
		n.xform.explicitObject = false
		n.Dirty()
	}
	return undo.NewPropertyCommandValue(getter, setter, v).Named(name + " " + n.name), nil
}

func (n *Node) SetScale(v mgl64.Vec3) (undo.Command, error) {
	return n.setComponent("scale",
		func(c linear.Components) mgl64.Vec3 { return c.Scale },
		func(c *linear.Components, v mgl64.Vec3) { c.Scale = v }, v)
}

func (n *Node) SetScalePivot(v mgl64.Vec3) (undo.Command, error) {
	return n.setComponent("scale pivot",
		func(c linear.Components) mgl64.Vec3 { return c.ScalePivot },
		func(c *linear.Components, v mgl64.Vec3) { c.ScalePivot = v }, v)
}

// SetRotate sets the Euler angles in radians, applied X then Y then Z.
func (n *Node) SetRotate(v mgl64.Vec3) (undo.Command, error) {
	return n.setComponent("rotate",
		func(c linear.Components) mgl64.Vec3 { return c.Rotate },
		func(c *linear.Components, v mgl64.Vec3) { c.Rotate = v }, v)
}

func (n *Node) SetRotatePivot(v mgl64.Vec3) (undo.Command, error) {
	return n.setComponent("rotate pivot",
		func(c linear.Components) mgl64.Vec3 { return c.RotatePivot },
		func(c *linear.Components, v mgl64.Vec3) { c.RotatePivot = v }, v)
}

func (n *Node) SetTranslate(v mgl64.Vec3) (undo.Command, error) {
	return n.setComponent("translate",
		func(c linear.Components) mgl64.Vec3 { return c.Translate },
		func(c *linear.Components, v mgl64.Vec3) { c.Translate = v }, v)
}

func (n *Node) SetTranslatePivot(v mgl64.Vec3) (undo.Command, error) {
	return n.setComponent("translate pivot",
		func(c linear.Components) mgl64.Vec3 { return c.TranslatePivot },
		func(c *linear.Components, v mgl64.Vec3) { c.TranslatePivot = v }, v)
}

func (n *Node) SetInheritTransform(inherit bool) (undo.Command, error) {
	if n.xform == nil {
		return nil, n.wrongKind("set inherit transform")
	}
	return undo.NewPropertyCommandValue(n.InheritTransform, func(v bool) {
		n.xform.inherit = v
		n.Dirty()
	}, inherit).Named("inherit " + n.name), nil
}

// SetComponents replaces every component at once.
func (n *Node) SetComponents(c linear.Components) (undo.Command, error) {
	if n.xform == nil {
		return nil, n.wrongKind("set components")
	}
	return n.placementCommand("components", Placement{Components: c, Object: c.Matrix()}), nil
}

func (n *Node) placementCommand(name string, p Placement) undo.Command {
	return undo.NewPropertyCommandValue(n.placement, n.setPlacement, p).Named(name + " " + n.name)
}

// SetObjectTransform assigns the object matrix directly. The matrix and its
// inverse are kept until ComputeObjectComponents folds them back into
// components.
func (n *Node) SetObjectTransform(m mgl64.Mat4) (undo.Command, error) {
	if n.xform == nil {
		return nil, n.wrongKind("set object transform")
	}
	return n.placementCommand("object transform", Placement{
		Components: n.xform.components,
		Object:     m,
		Explicit:   true,
	}), nil
}

// SetGlobalTransform places the node in world space by deriving the object
// matrix from the parent transform.
func (n *Node) SetGlobalTransform(m mgl64.Mat4) (undo.Command, error) {
	if n.xform == nil {
		return nil, n.wrongKind("set global transform")
	}
	object := linear.Invert(n.parentGlobal()).Mul4(m)
	cmd := n.placementCommand("global transform", Placement{
		Components: n.xform.components,
		Object:     object,
		Explicit:   true,
	})
	n.xform.global = m
	n.xform.inverseGlobal = linear.Invert(m)
	return cmd, nil
}

// ComputeObjectComponents decomposes the current object matrix into
// components with zero pivots.
func (n *Node) ComputeObjectComponents() (undo.Command, error) {
	if n.xform == nil {
		return nil, n.wrongKind("compute object components")
	}
	c := linear.Decompose(n.xform.object)
	return n.placementCommand("compute components", Placement{Components: c, Object: c.Matrix()}), nil
}

// ResetTransform returns the node to identity components.
func (n *Node) ResetTransform() (undo.Command, error) {
	if n.xform == nil {
		return nil, n.wrongKind("reset transform")
	}
	c := linear.IdentityComponents()
	return n.placementCommand("reset", Placement{Components: c, Object: c.Matrix()}), nil
}

// CenterTransform moves the node's origin to the center of its hierarchy
// bounds while every child keeps its world placement. It returns nil when
// the bounds are empty or already centered.
func (n *Node) CenterTransform() (undo.Command, error) {
	if n.xform == nil {
		return nil, n.wrongKind("center transform")
	}
	bounds := n.hier.hierarchyBounds
	if bounds.IsEmpty() {
		return nil, nil
	}
	c := bounds.Center()
	if c.ApproxEqualThreshold(mgl64.Vec3{}, linear.Epsilon) {
		return nil, nil
	}

	batch := undo.NewBatchCommand()
	// O' = O * T(c): move the origin, keeping pivots, rotation and scale.
	if n.xform.explicitObject {
		batch.Push(n.placementCommand("center", Placement{
			Components: n.xform.components,
			Object:     n.xform.object.Mul4(linear.Translate(c)),
			Explicit:   true,
		}))
	} else {
		comps := n.xform.components
		comps.Translate = comps.Translate.Add(linear.TransformVector(comps.Matrix(), c))
		batch.Push(n.placementCommand("center", Placement{Components: comps, Object: comps.Matrix()}))
	}

	shift := c.Mul(-1)
	n.shiftContent(shift, batch)
	return batch, nil
}

// shiftContent moves everything expressed in n's object space by v:
// its own bounds, non-transform children recursively, and the translation
// of transform children.
func (n *Node) shiftContent(v mgl64.Vec3, batch *undo.BatchCommand) {
	if !n.hier.objectBounds.IsEmpty() {
		batch.Push(undo.NewPropertyCommandValue(n.ObjectBounds, n.applyObjectBounds, n.hier.objectBounds.Translate(v)))
	}
	for _, c := range n.Children() {
		if c.xform == nil {
			c.shiftContent(v, batch)
			continue
		}
		if c.xform.explicitObject {
			batch.Push(c.placementCommand("center child", Placement{
				Components: c.xform.components,
				Object:     linear.Translate(v).Mul4(c.xform.object),
				Explicit:   true,
			}))
			continue
		}
		comps := c.xform.components
		comps.Translate = comps.Translate.Add(v)
		batch.Push(c.placementCommand("center child", Placement{Components: comps, Object: comps.Matrix()}))
	}
}

func evaluateTransform(n *Node) {
	evaluateHierarchy(n)
	t := n.xform
	if !t.explicitObject {
		t.object = t.components.Matrix()
		t.inverseObject = linear.Invert(t.object)
	}
	t.global = n.parentGlobal().Mul4(t.object)
	t.inverseGlobal = linear.Invert(t.global)
}
