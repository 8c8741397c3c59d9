package document

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/heliumproject/editor-go/internal/linear"
	"github.com/heliumproject/editor-go/internal/render"
	"github.com/heliumproject/editor-go/internal/scene"
	"github.com/heliumproject/editor-go/internal/undo"
)

// Built maps description keys to the nodes created for them.
type Built map[string]*scene.Node

// Build creates the described nodes in s as one undo step. Unknown types
// and unresolved parent or layer references are logged and skipped: such
// nodes end up under the root or outside any layer. Build refuses to run
// inside an open batch since a failure could not be rolled back.
func (d *Description) Build(s *scene.Scene) (Built, error) {
	if s.IsBatching() {
		return nil, fmt.Errorf("build %q: %w", d.Name, undo.ErrBatchOpen)
	}
	for _, t := range d.Types {
		if err := registerType(s, t); err != nil {
			return nil, err
		}
	}

	depth := s.Queue().UndoLen()
	s.BeginBatch()
	built, err := d.build(s)
	if endErr := s.EndBatch(); err == nil {
		err = endErr
	}
	if err != nil {
		// Roll back the partial batch.
		if s.Queue().UndoLen() > depth {
			if uerr := s.Undo(); uerr != nil {
				slog.Warn("rolling back failed build", "description", d.Name, "error", uerr)
			}
		}
		return nil, fmt.Errorf("build %q: %w", d.Name, err)
	}
	return built, nil
}

func registerType(s *scene.Scene, t TypeDef) error {
	kind, ok := scene.ParseKind(t.Kind)
	if !ok {
		return fmt.Errorf("register type %q: kind %q: %w", t.Name, t.Kind, scene.ErrUnknownType)
	}
	if existing, ok := s.Types().Lookup(t.Name); ok {
		if existing.Kind != kind {
			return fmt.Errorf("register type %q as %s: %w", t.Name, kind, scene.ErrDuplicateType)
		}
		return nil
	}
	_, err := s.Types().Register(t.Name, kind, t.Image)
	return err
}

type builder struct {
	s       *scene.Scene
	objects map[string]*Object
	nodes   Built
	state   map[string]int // 1 = adding, 2 = added
}

func (d *Description) build(s *scene.Scene) (Built, error) {
	b := &builder{
		s:       s,
		objects: make(map[string]*Object, len(d.Objects)),
		nodes:   make(Built, len(d.Objects)),
		state:   make(map[string]int, len(d.Objects)),
	}
	for i := range d.Objects {
		o := &d.Objects[i]
		if _, dup := b.objects[o.Key]; dup {
			return nil, fmt.Errorf("object %q: %w", o.Key, scene.ErrDuplicateID)
		}
		n, err := s.NewNode(o.Type, o.Name)
		if errors.Is(err, scene.ErrUnknownType) {
			slog.Warn("skipping object of unknown type", "node", o.Key, "type", o.Type)
			continue
		}
		if err != nil {
			return nil, err
		}
		b.objects[o.Key] = o
		b.nodes[o.Key] = n
	}

	for i := range d.Objects {
		if err := b.add(d.Objects[i].Key); err != nil {
			return nil, err
		}
	}
	for i := range d.Objects {
		if err := b.configure(&d.Objects[i]); err != nil {
			return nil, err
		}
	}
	return b.nodes, nil
}

// add inserts the object after its parent. A parent that is missing or
// part of a parent cycle is dropped and the object goes under the root.
func (b *builder) add(key string) error {
	n := b.nodes[key]
	if n == nil || b.state[key] == 2 {
		return nil
	}
	b.state[key] = 1
	o := b.objects[key]

	var parent *scene.Node
	if o.Parent != nil && n.IsHierarchy() {
		pk := *o.Parent
		switch p := b.nodes[pk]; {
		case p == nil:
			slog.Warn("dropping unresolved parent", "node", key, "ref", pk)
		case !p.IsHierarchy():
			slog.Warn("dropping parent that cannot hold children", "node", key, "ref", pk)
		case b.state[pk] == 1:
			slog.Warn("dropping cyclic parent", "node", key, "ref", pk)
		default:
			if err := b.add(pk); err != nil {
				return err
			}
			parent = p
		}
	}

	if n.IsHierarchy() {
		if err := b.s.Apply(b.s.AddNodeUnder(n, parent)); err != nil {
			return err
		}
	} else if err := b.s.Apply(b.s.AddNode(n)); err != nil {
		return err
	}
	b.state[key] = 2
	return nil
}

func (b *builder) configure(o *Object) error {
	n := b.nodes[o.Key]
	if n == nil {
		return nil
	}
	s := b.s
	if t := o.Transform; t != nil && n.IsTransform() {
		c := linear.IdentityComponents()
		c.Translate = t.Translate
		c.Rotate = t.Rotate
		if t.Scale != (mgl64.Vec3{}) {
			c.Scale = t.Scale
		}
		if err := s.Apply(n.SetComponents(c)); err != nil {
			return err
		}
	}
	if o.Bounds != nil && n.IsHierarchy() {
		if err := s.Apply(n.SetObjectBounds(linear.NewBox(o.Bounds.Min, o.Bounds.Max))); err != nil {
			return err
		}
	}
	if o.Hidden {
		if err := s.Apply(n.SetHidden(true)); err != nil {
			return err
		}
	}
	if o.Live {
		if err := s.Apply(n.SetLive(true)); err != nil {
			return err
		}
	}
	if o.Color != nil && n.IsLayer() {
		if err := s.Apply(n.SetColor(*o.Color)); err != nil {
			return err
		}
	}
	if o.Layer != nil {
		l := b.nodes[*o.Layer]
		if l == nil || !l.IsLayer() {
			slog.Warn("dropping unresolved layer", "node", o.Key, "ref", *o.Layer)
			return nil
		}
		if err := s.Apply(l.AddMember(n)); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDrawing gives r draw functions for every declared type that s
// knows about.
func (d *Description) RegisterDrawing(s *scene.Scene, r *render.Renderer) {
	for _, td := range d.Types {
		if t, ok := s.Types().Lookup(td.Name); ok {
			r.RegisterType(t, td.DistanceSort)
		}
	}
}
