// Package render turns an evaluated scene into sorted draw work and pick
// hits. Drawing goes through a Device; the package never talks to a
// graphics API itself.
package render

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/heliumproject/editor-go/internal/scene"
)

var (
	highlightColor = mgl64.Vec4{1, 0.8, 0, 1}
	selectedColor  = mgl64.Vec4{0.2, 0.6, 1, 1}

	wireSetup = NewPass("wire", func(d Device, e *RenderEntry) {
		d.SetColor(entryColor(e))
	})
	boundsDraw = NewPass("bounds", func(d Device, e *RenderEntry) {
		d.SetTransform(e.Matrix)
		d.DrawBox(e.Node.ObjectBounds())
	})
	axesDraw = NewPass("axes", func(d Device, e *RenderEntry) {
		d.SetTransform(e.Matrix)
		d.DrawAxes(1)
		d.DrawBox(e.Node.ObjectBounds())
	})
)

func entryColor(e *RenderEntry) mgl64.Vec4 {
	switch {
	case e.Flags.Has(EntrySelected):
		return selectedColor
	case e.Node.Highlighted():
		return highlightColor
	}
	if l := e.Node.Layer(); l != nil {
		return l.Color()
	}
	return mgl64.Vec4{1, 1, 1, 1}
}

// Renderer resolves draw functions by node type name and tracks the
// selection used for sorting.
type Renderer struct {
	funcs     map[string]DrawFuncs
	selection map[scene.ID]struct{}
}

// NewRenderer returns a renderer with wireframe draw functions for the
// built-in hierarchy types.
func NewRenderer() *Renderer {
	r := &Renderer{
		funcs:     make(map[string]DrawFuncs),
		selection: make(map[scene.ID]struct{}),
	}
	r.Register(scene.TypeHierarchyNode, DrawFuncs{Setup: wireSetup, Draw: boundsDraw})
	r.Register(scene.TypeTransform, DrawFuncs{Setup: wireSetup, Draw: axesDraw})
	return r
}

// Register sets the draw functions for a node type, replacing any previous.
func (r *Renderer) Register(typeName string, f DrawFuncs) {
	r.funcs[typeName] = f
}

// RegisterType draws hierarchy nodes of t with the wireframe functions of
// its kind. Other kinds have nothing to draw.
func (r *Renderer) RegisterType(t *scene.NodeType, distanceSort bool) {
	if !t.Kind.IsHierarchy() {
		return
	}
	f := DrawFuncs{Setup: wireSetup, Draw: boundsDraw, DistanceSort: distanceSort}
	if t.Kind == scene.KindTransform {
		f.Draw = axesDraw
	}
	r.Register(t.Name, f)
}

func (r *Renderer) Lookup(typeName string) (DrawFuncs, bool) {
	f, ok := r.funcs[typeName]
	return f, ok
}

// SetSelection replaces the selected node set.
func (r *Renderer) SetSelection(ids []scene.ID) {
	clear(r.selection)
	for _, id := range ids {
		r.selection[id] = struct{}{}
	}
}

func (r *Renderer) IsSelected(n *scene.Node) bool {
	_, ok := r.selection[n.ID()]
	return ok
}

// Frame executes the scene, walks it from view and draws the result on d.
func (r *Renderer) Frame(s *scene.Scene, view View, d Device) (DrawArgs, error) {
	v := NewRenderVisitor(r, view)
	start := time.Now()
	if err := s.Render(v, scene.NewTraversalState(view.ViewMatrix())); err != nil {
		return DrawArgs{}, err
	}
	walk := time.Since(start)
	args := v.Draw(d)
	args.WalkTime = walk
	observePhase("walk", walk)
	return args, nil
}

// Pick executes the scene and returns the hits of p, nearest first.
func Pick(s *scene.Scene, view View, p *PickVisitor) ([]PickHit, error) {
	if err := s.Pick(p, scene.NewTraversalState(view.ViewMatrix())); err != nil {
		return nil, err
	}
	return p.Hits(), nil
}
