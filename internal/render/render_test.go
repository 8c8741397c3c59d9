package render

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heliumproject/editor-go/internal/linear"
	"github.com/heliumproject/editor-go/internal/scene"
)

var unitBox = linear.NewBox(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1})

func place(t *testing.T, s *scene.Scene, typeName, name string, parent *scene.Node, at mgl64.Vec3) *scene.Node {
	t.Helper()
	n, cmd, err := s.Create(typeName, name, parent)
	require.NoError(t, err)
	s.Push(cmd)
	if n.IsTransform() {
		require.NoError(t, s.Apply(n.SetTranslate(at)))
	}
	require.NoError(t, s.Apply(n.SetObjectBounds(unitBox)))
	return n
}

func TestCompareEntries_DistanceGroup(t *testing.T) {
	s := scene.New(0)
	mk := func(name string, flags EntryFlags, dist float64) *RenderEntry {
		n, err := s.NewNode(scene.TypeTransform, name)
		require.NoError(t, err)
		return &RenderEntry{Node: n, Flags: flags, Distance: dist}
	}
	entries := []*RenderEntry{
		mk("d5", EntryDistanceSort, 5),
		mk("d1", EntryDistanceSort, 1),
		mk("plain", 0, 100),
		mk("d3", EntryDistanceSort, 3),
	}
	slices.SortFunc(entries, compareEntries)

	var names []string
	for _, e := range entries {
		names = append(names, e.Node.Name())
	}
	assert.Equal(t, []string{"plain", "d5", "d3", "d1"}, names)
}

func TestCompareEntries_Ties(t *testing.T) {
	s := scene.New(0)
	n, err := s.NewNode(scene.TypeTransform, "n")
	require.NoError(t, err)
	other, err := s.NewNode(scene.TypeTransform, "other")
	require.NoError(t, err)
	setupA, setupB := NewPass("a", nil), NewPass("b", nil)
	drawA, drawB := NewPass("a", nil), NewPass("b", nil)

	selected := &RenderEntry{Node: other, Flags: EntrySelected}
	plain := &RenderEntry{Node: n}
	assert.Negative(t, compareEntries(selected, plain), "selected first")

	first, second := n, other
	if other.ID() < n.ID() {
		first, second = other, n
	}
	assert.Negative(t, compareEntries(&RenderEntry{Node: first}, &RenderEntry{Node: second}))

	assert.Negative(t, compareEntries(&RenderEntry{Node: n, Setup: setupA, Draw: drawB}, &RenderEntry{Node: n, Setup: setupB, Draw: drawA}))
	assert.Negative(t, compareEntries(&RenderEntry{Node: n, Setup: setupA, Draw: drawA}, &RenderEntry{Node: n, Setup: setupA, Draw: drawB}))
	assert.Zero(t, compareEntries(&RenderEntry{Node: n, Setup: setupA, Draw: drawA}, &RenderEntry{Node: n, Setup: setupA, Draw: drawA}))
}

type callLog struct{ calls []string }

func (l *callLog) pass(name string, withNode bool) *Pass {
	return NewPass(name, func(_ Device, e *RenderEntry) {
		if withNode {
			l.calls = append(l.calls, name+":"+e.Node.Name())
			return
		}
		l.calls = append(l.calls, name)
	})
}

func TestRenderVisitor_Draw(t *testing.T) {
	s := scene.New(0)
	_, err := s.Types().Register("Opaque", scene.KindTransform, 10)
	require.NoError(t, err)
	_, err = s.Types().Register("Glass", scene.KindTransform, 11)
	require.NoError(t, err)

	log := &callLog{}
	r := NewRenderer()
	r.Register(scene.TypeTransform, DrawFuncs{})
	draw := log.pass("draw", true)
	r.Register("Opaque", DrawFuncs{Setup: log.pass("setupO", false), Draw: draw, Reset: log.pass("resetO", false)})
	r.Register("Glass", DrawFuncs{Setup: log.pass("setupG", false), Draw: draw, Reset: log.pass("resetG", false), DistanceSort: true})

	place(t, s, "Opaque", "oA", nil, mgl64.Vec3{-1, 0, 0})
	oB := place(t, s, "Opaque", "oB", nil, mgl64.Vec3{1, 0, 0})
	place(t, s, "Glass", "g1", nil, mgl64.Vec3{0, 0, -5})
	place(t, s, "Glass", "g2", nil, mgl64.Vec3{0, 0, -1})
	place(t, s, "Glass", "g3", nil, mgl64.Vec3{0, 0, -3})
	hidden := place(t, s, "Glass", "hidden", nil, mgl64.Vec3{0, 0, 2})
	place(t, s, "Glass", "hiddenChild", hidden, mgl64.Vec3{})
	require.NoError(t, s.Apply(hidden.SetHidden(true)))
	place(t, s, "Opaque", "far", nil, mgl64.Vec3{50, 0, 0})

	cam := NewCamera(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{})
	cam.Cull = linear.NewBox(mgl64.Vec3{-5, -5, -10}, mgl64.Vec3{5, 5, 10})
	r.SetSelection([]scene.ID{oB.ID()})

	rec := NewRecorder()
	args, err := r.Frame(s, cam, rec)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"setupO", "draw:oB", "draw:oA", "resetO",
		"setupG", "draw:g1", "draw:g3", "draw:g2", "resetG",
	}, log.calls)
	assert.Equal(t, 5, args.Entries)
	assert.Equal(t, 5, args.DrawCalls)
	assert.Equal(t, 2, args.SetupChanges)
	assert.Equal(t, 5, args.NodeChanges)
	assert.Equal(t, []string{"reset"}, rec.Ops(), "custom passes leave the device alone")
}

func TestRenderVisitor_PoolReuse(t *testing.T) {
	s := scene.New(0)
	place(t, s, scene.TypeTransform, "a", nil, mgl64.Vec3{})
	r := NewRenderer()
	cam := NewCamera(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{})

	v := NewRenderVisitor(r, cam)
	require.NoError(t, s.Render(v, scene.NewTraversalState(cam.ViewMatrix())))
	v.Draw(NewRecorder())
	first := v.Entries()[0]
	v.Draw(NewRecorder())
	assert.Same(t, first, v.Entries()[0])
	assert.Len(t, v.pool.entries, 2, "root and a")
}

func TestRenderVisitor_ReusedAcrossWalks(t *testing.T) {
	s := scene.New(0)
	place(t, s, scene.TypeTransform, "a", nil, mgl64.Vec3{})
	r := NewRenderer()
	cam := NewCamera(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{})

	v := NewRenderVisitor(r, cam)
	require.NoError(t, s.Render(v, scene.NewTraversalState(cam.ViewMatrix())))
	v.Draw(NewRecorder())
	first := len(v.Entries())

	require.NoError(t, s.Render(v, scene.NewTraversalState(cam.ViewMatrix())))
	v.Draw(NewRecorder())
	assert.Len(t, v.Entries(), first)

	p := NewRayPick(linear.Ray{Origin: mgl64.Vec3{0, 0, 10}, Direction: mgl64.Vec3{0, 0, -1}})
	_, err := Pick(s, cam, p)
	require.NoError(t, err)
	hits, err := Pick(s, cam, p)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestRecorder_DefaultDrawFuncs(t *testing.T) {
	s := scene.New(0)
	a := place(t, s, scene.TypeTransform, "a", nil, mgl64.Vec3{2, 0, 0})
	g := place(t, s, scene.TypeHierarchyNode, "g", a, mgl64.Vec3{})
	cam := NewCamera(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{})

	rec := NewRecorder()
	_, err := NewRenderer().Frame(s, cam, rec)
	require.NoError(t, err)

	ops := rec.Ops()
	require.NotEmpty(t, ops)
	assert.Equal(t, "color", ops[0], "one setup for the whole wire run")
	assert.Equal(t, 1, countOp(ops, "color"))
	assert.Equal(t, 2, countOp(ops, "axes"), "root and a")
	assert.Equal(t, "reset", ops[len(ops)-1])

	var boxes []DrawCommand
	for _, c := range rec.Commands {
		if c.Op == "box" {
			boxes = append(boxes, c)
		}
	}
	require.Len(t, boxes, 2)
	assert.ElementsMatch(t, []string{a.ID(), g.ID()}, []string{boxes[0].ObjectID, boxes[1].ObjectID})

	data, err := rec.JSON()
	require.NoError(t, err)
	var decoded []DrawCommand
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, len(rec.Commands))

	empty, err := NewRecorder().JSON()
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(empty))
}

func countOp(ops []string, op string) int {
	n := 0
	for _, o := range ops {
		if o == op {
			n++
		}
	}
	return n
}

func pickScene(t *testing.T) (*scene.Scene, map[string]*scene.Node) {
	t.Helper()
	s := scene.New(0)
	nodes := map[string]*scene.Node{
		"near": place(t, s, scene.TypeTransform, "near", nil, mgl64.Vec3{0, 0, 0}),
		"far":  place(t, s, scene.TypeTransform, "far", nil, mgl64.Vec3{0, 0, -5}),
	}
	nodes["hidden"] = place(t, s, scene.TypeTransform, "hidden", nil, mgl64.Vec3{0, 0, 3})
	require.NoError(t, s.Apply(nodes["hidden"].SetHidden(true)))
	nodes["aside"] = place(t, s, scene.TypeTransform, "aside", nil, mgl64.Vec3{20, 0, 0})
	nodes["big"] = place(t, s, scene.TypeTransform, "big", nodes["aside"], mgl64.Vec3{3, 0, 0})
	require.NoError(t, s.Apply(nodes["big"].SetScale(mgl64.Vec3{2, 2, 2})))
	return s, nodes
}

func TestPick_RayNearestFirst(t *testing.T) {
	s, nodes := pickScene(t)
	cam := NewCamera(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{})

	hits, err := Pick(s, cam, NewRayPick(linear.Ray{Origin: mgl64.Vec3{0, 0, 10}, Direction: mgl64.Vec3{0, 0, -1}}))
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Same(t, nodes["near"], hits[0].Node)
	assert.InDelta(t, 9, hits[0].Distance, 1e-9)
	assert.Same(t, nodes["far"], hits[1].Node)
	assert.InDelta(t, 14, hits[1].Distance, 1e-9)
	assert.True(t, cam.ViewMatrix().Mul4(nodes["far"].GlobalTransform()).ApproxEqualThreshold(hits[1].Matrix, 1e-9))

	hits, err = Pick(s, cam, NewRayPick(linear.Ray{Origin: mgl64.Vec3{23, 0, 10}, Direction: mgl64.Vec3{0, 0, -1}}))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Same(t, nodes["big"], hits[0].Node)
	assert.InDelta(t, 8, hits[0].Distance, 1e-9, "scaled bounds are tested in object space")
}

func TestPick_NonInheritingChild(t *testing.T) {
	s := scene.New(0)
	parent := place(t, s, scene.TypeTransform, "parent", nil, mgl64.Vec3{100, 0, 0})
	child := place(t, s, scene.TypeTransform, "child", parent, mgl64.Vec3{})
	require.NoError(t, s.Apply(child.SetInheritTransform(false)))
	cam := NewCamera(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{})

	hits, err := Pick(s, cam, NewRayPick(linear.Ray{Origin: mgl64.Vec3{0, 0, 10}, Direction: mgl64.Vec3{0, 0, -1}}))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Same(t, child, hits[0].Node)
	assert.InDelta(t, 9, hits[0].Distance, 1e-9)
}

func TestPick_Box(t *testing.T) {
	s, nodes := pickScene(t)
	cam := NewCamera(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{})

	hits, err := Pick(s, cam, NewBoxPick(linear.NewBox(mgl64.Vec3{-0.5, -0.5, -0.5}, mgl64.Vec3{0.5, 0.5, 3.5})))
	require.NoError(t, err)
	require.Len(t, hits, 1, "hidden nodes are never picked")
	assert.Same(t, nodes["near"], hits[0].Node)

	hits, err = Pick(s, cam, NewBoxPick(linear.NewBox(mgl64.Vec3{-1, -1, -10}, mgl64.Vec3{1, 1, 1})))
	require.NoError(t, err)
	require.Len(t, hits, 2)
	// ordered by distance to the center of the pick box at z = -4.5
	assert.Equal(t, []*scene.Node{nodes["far"], nodes["near"]}, []*scene.Node{hits[0].Node, hits[1].Node})
}
