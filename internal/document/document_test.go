package document

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heliumproject/editor-go/internal/linear"
	"github.com/heliumproject/editor-go/internal/render"
	"github.com/heliumproject/editor-go/internal/scene"
	"github.com/heliumproject/editor-go/internal/undo"
)

func TestBuildSample(t *testing.T) {
	s := scene.New(0)
	built, err := NewSampleDescription().Build(s)
	require.NoError(t, err)
	require.NoError(t, s.Execute())

	assert.Len(t, built, 7)
	assert.Equal(t, 8, s.Len(), "seven objects plus the root")
	assert.Equal(t, 1, s.Queue().UndoLen(), "the whole build is one undo step")

	floor, table, lamp, shade := built["floor"], built["table"], built["lamp"], built["shade"]
	assert.Same(t, s.Root(), floor.Parent())
	assert.Same(t, floor, table.Parent())
	assert.Same(t, table, lamp.Parent())
	assert.Same(t, lamp, shade.Parent())
	assert.Same(t, s.Root(), built["window"].Parent())
	assert.Equal(t, GlassType, built["window"].Type().Name)

	assert.Same(t, built["props"], table.Layer())
	assert.Same(t, built["props"], built["chair"].Layer())
	assert.Nil(t, lamp.Layer())
	assert.Equal(t, mgl64.Vec4{0.91, 0.27, 0.38, 1}, built["props"].Color())

	assert.True(t, mgl64.Vec3{1, 1, 0}.ApproxEqual(linear.Translation(lamp.GlobalTransform())))
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, table.Scale(), "zero scale means unit")
	assert.False(t, floor.GetGlobalHierarchyBounds().IsEmpty())

	require.NoError(t, s.Undo())
	assert.Equal(t, 1, s.Len())
	require.NoError(t, s.Redo())
	assert.Equal(t, 8, s.Len())
}

func TestBuild_UnresolvedReferences(t *testing.T) {
	d := &Description{
		Name: "broken",
		Objects: []Object{
			{Key: "a", Type: scene.TypeTransform, Name: "a", Parent: ref("missing")},
			{Key: "b", Type: scene.TypeTransform, Name: "b", Layer: ref("a")},
			{Key: "ghost", Type: "Nope", Name: "ghost"},
			{Key: "c", Type: scene.TypeTransform, Name: "c", Parent: ref("ghost")},
			{Key: "x", Type: scene.TypeTransform, Name: "x", Parent: ref("y")},
			{Key: "y", Type: scene.TypeTransform, Name: "y", Parent: ref("x")},
			{Key: "n", Type: scene.TypeSceneNode, Name: "n"},
			{Key: "d", Type: scene.TypeTransform, Name: "d", Parent: ref("n")},
		},
	}
	s := scene.New(0)
	built, err := d.Build(s)
	require.NoError(t, err)

	assert.NotContains(t, built, "ghost")
	assert.Same(t, s.Root(), built["a"].Parent())
	assert.Nil(t, built["b"].Layer())
	assert.Same(t, s.Root(), built["c"].Parent())
	assert.Same(t, s.Root(), built["d"].Parent())
	assert.Nil(t, built["n"].Parent())
	assert.True(t, s.Contains(built["n"]))

	// x is added first; its parent y then finds x mid-insert and goes to the root.
	assert.Same(t, built["y"], built["x"].Parent())
	assert.Same(t, s.Root(), built["y"].Parent())
	require.NoError(t, s.Execute())
}

func TestBuild_DuplicateKeyRollsBack(t *testing.T) {
	d := &Description{
		Name: "dup",
		Objects: []Object{
			{Key: "a", Type: scene.TypeTransform, Name: "a"},
			{Key: "a", Type: scene.TypeTransform, Name: "again"},
		},
	}
	s := scene.New(0)
	_, err := d.Build(s)
	assert.ErrorIs(t, err, scene.ErrDuplicateID)
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.CanUndo())
}

func TestBuild_RefusesOpenBatch(t *testing.T) {
	s := scene.New(0)
	s.BeginBatch()
	_, err := NewSampleDescription().Build(s)
	assert.ErrorIs(t, err, undo.ErrBatchOpen)
	assert.Equal(t, 1, s.Len())
	_, ok := s.Types().Lookup(GlassType)
	assert.False(t, ok, "nothing is registered")

	require.NoError(t, s.EndBatch())
	assert.False(t, s.CanUndo())
}

func TestBuild_TypeConflicts(t *testing.T) {
	s := scene.New(0)
	d := &Description{Types: []TypeDef{{Name: scene.TypeTransform, Kind: "layer"}}}
	_, err := d.Build(s)
	assert.ErrorIs(t, err, scene.ErrDuplicateType)

	d = &Description{Types: []TypeDef{{Name: "Thing", Kind: "gizmo"}}}
	_, err = d.Build(s)
	assert.ErrorIs(t, err, scene.ErrUnknownType)

	d = &Description{Types: []TypeDef{{Name: scene.TypeTransform, Kind: "transform"}}}
	_, err = d.Build(s)
	assert.NoError(t, err, "redeclaring a type with the same kind is allowed")
}

func TestParse_RoundTrip(t *testing.T) {
	d := NewSampleDescription()
	data, err := d.JSON()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, d, parsed)

	_, err = Parse([]byte("{"))
	assert.Error(t, err)
}

func TestRegisterDrawing(t *testing.T) {
	s := scene.New(0)
	d := NewSampleDescription()
	_, err := d.Build(s)
	require.NoError(t, err)

	r := render.NewRenderer()
	_, ok := r.Lookup(GlassType)
	assert.False(t, ok)

	d.RegisterDrawing(s, r)
	f, ok := r.Lookup(GlassType)
	require.True(t, ok)
	assert.True(t, f.DistanceSort)
	assert.NotNil(t, f.Draw)
}
