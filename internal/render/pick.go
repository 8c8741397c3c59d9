package render

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/heliumproject/editor-go/internal/linear"
	"github.com/heliumproject/editor-go/internal/metrics"
	"github.com/heliumproject/editor-go/internal/scene"
)

// PickHit is a node reported by a pick pass with the view matrix in effect
// when it was visited.
type PickHit struct {
	Node     *scene.Node
	Matrix   mgl64.Mat4
	Distance float64
}

// PickVisitor tests a world-space ray or box against the hierarchy. Whole
// subtrees are skipped when their hierarchy bounds miss; selectable nodes
// are then tested against their own bounds in object space.
type PickVisitor struct {
	ray    linear.Ray
	box    linear.Box
	useBox bool
	hits   []PickHit
}

// NewRayPick picks along r. Hit distances are ray parameters.
func NewRayPick(r linear.Ray) *PickVisitor {
	return &PickVisitor{ray: r}
}

// NewBoxPick picks everything overlapping b. Hit distances are squared
// distances between the box centers.
func NewBoxPick(b linear.Box) *PickVisitor {
	return &PickVisitor{box: b, useBox: true}
}

func (p *PickVisitor) Kind() scene.VisitorKind { return scene.VisitorPick }

func (p *PickVisitor) VisitHierarchyNode(n *scene.Node, state *scene.TraversalState) scene.TraversalAction {
	if !n.Visible() {
		return scene.Prune
	}
	if !p.coarse(n.GetGlobalHierarchyBounds()) {
		return scene.Prune
	}
	if !n.Selectable() || n.ObjectBounds().IsEmpty() {
		return scene.Continue
	}
	if d, ok := p.fine(n); ok {
		p.hits = append(p.hits, PickHit{Node: n, Matrix: state.Matrix, Distance: d})
		metrics.PickHits.Inc()
	}
	return scene.Continue
}

func (p *PickVisitor) coarse(b linear.Box) bool {
	if p.useBox {
		return p.box.Intersects(b)
	}
	_, ok := p.ray.IntersectBox(b)
	return ok
}

func (p *PickVisitor) fine(n *scene.Node) (float64, bool) {
	if p.useBox {
		b := n.GetGlobalBounds()
		if !p.box.Intersects(b) {
			return 0, false
		}
		d := b.Center().Sub(p.box.Center())
		return d.Dot(d), true
	}
	local := p.ray.Transform(linear.Invert(n.GlobalMatrix()))
	return local.IntersectBox(n.ObjectBounds())
}

// Hits returns the hits sorted nearest first. Equal distances keep
// traversal order.
func (p *PickVisitor) BeginWalk() {
	clear(p.hits)
	p.hits = p.hits[:0]
}

func (p *PickVisitor) Hits() []PickHit {
	out := slices.Clone(p.hits)
	slices.SortStableFunc(out, func(a, b PickHit) int { return cmp.Compare(a.Distance, b.Distance) })
	return out
}
