package render

import (
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/heliumproject/editor-go/internal/linear"
	"github.com/heliumproject/editor-go/internal/metrics"
	"github.com/heliumproject/editor-go/internal/scene"
)

type visited struct {
	node   *scene.Node
	matrix mgl64.Mat4
	funcs  DrawFuncs
}

// RenderVisitor collects the visible, unculled nodes that have registered
// draw functions. Draw turns them into sorted entries and draws them.
type RenderVisitor struct {
	renderer *Renderer
	view     View
	visited  []visited
	pool     entryPool
	entries  []*RenderEntry
}

func NewRenderVisitor(r *Renderer, view View) *RenderVisitor {
	return &RenderVisitor{renderer: r, view: view}
}

func (v *RenderVisitor) Kind() scene.VisitorKind { return scene.VisitorRender }

func (v *RenderVisitor) VisitHierarchyNode(n *scene.Node, state *scene.TraversalState) scene.TraversalAction {
	if !n.Visible() {
		return scene.Prune
	}
	if !v.view.IntersectsBounds(n.GetGlobalHierarchyBounds()) {
		return scene.Prune
	}
	if f, ok := v.renderer.Lookup(n.Type().Name); ok && f.Draw != nil {
		v.visited = append(v.visited, visited{node: n, matrix: state.Matrix, funcs: f})
	}
	return scene.Continue
}

// BeginWalk drops the nodes collected by a previous walk.
func (v *RenderVisitor) BeginWalk() {
	clear(v.visited)
	v.visited = v.visited[:0]
}

// Entries returns the entries of the last Draw in draw order.
func (v *RenderVisitor) Entries() []*RenderEntry {
	return v.entries
}

// Draw snapshots the collected nodes into entries, sorts them and draws
// them on d. Setup runs when the setup pass changes; ObjectReset and Reset
// run when the node or the setup pass is left; d is reset once at the end.
func (v *RenderVisitor) Draw(d Device) DrawArgs {
	var args DrawArgs

	start := time.Now()
	v.pool.reset()
	v.entries = v.entries[:0]
	eye := v.view.Position()
	for _, vn := range v.visited {
		e := v.pool.get()
		e.Node = vn.node
		e.World = vn.node.GlobalMatrix()
		e.Matrix = vn.matrix
		e.Setup = vn.funcs.Setup
		e.Draw = vn.funcs.Draw
		e.Reset = vn.funcs.Reset
		e.ObjectReset = vn.funcs.ObjectReset
		if vn.funcs.DistanceSort {
			e.Flags |= EntryDistanceSort
			e.Distance = distanceSq(eye, e)
		}
		if v.renderer.IsSelected(vn.node) {
			e.Flags |= EntrySelected
		}
		v.entries = append(v.entries, e)
	}
	args.Entries = len(v.entries)

	sortStart := time.Now()
	slices.SortFunc(v.entries, compareEntries)
	args.SortTime = time.Since(sortStart)

	drawStart := time.Now()
	var prev *RenderEntry
	for _, e := range v.entries {
		nodeChanged := prev == nil || prev.Node != e.Node
		setupChanged := prev == nil || prev.Setup != e.Setup
		if prev != nil {
			if nodeChanged {
				prev.ObjectReset.call(d, prev)
			}
			if setupChanged {
				prev.Reset.call(d, prev)
			}
		}
		if nodeChanged {
			d.SetObject(e.Node.ID())
			args.NodeChanges++
		}
		if setupChanged {
			e.Setup.call(d, e)
			args.SetupChanges++
		}
		e.Draw.call(d, e)
		args.DrawCalls++
		prev = e
	}
	if prev != nil {
		prev.ObjectReset.call(d, prev)
		prev.Reset.call(d, prev)
	}
	d.Reset()
	args.DrawTime = time.Since(drawStart)

	metrics.RenderEntries.Observe(float64(args.Entries))
	observePhase("snapshot", sortStart.Sub(start))
	observePhase("sort", args.SortTime)
	observePhase("draw", args.DrawTime)
	return args
}

// distanceSq is the squared distance from eye to the center of the node's
// world bounds, or to its origin when it has none.
func distanceSq(eye mgl64.Vec3, e *RenderEntry) float64 {
	p := linear.Translation(e.World)
	if b := e.Node.GetGlobalBounds(); !b.IsEmpty() {
		p = b.Center()
	}
	d := p.Sub(eye)
	return d.Dot(d)
}

func observePhase(phase string, d time.Duration) {
	metrics.RenderPhaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}
