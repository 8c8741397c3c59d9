package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDependency_Symmetric(t *testing.T) {
	s := New(0)
	a := create(t, s, TypeSceneNode, "a", nil)
	b := create(t, s, TypeSceneNode, "b", nil)

	require.NoError(t, a.CreateDependency(b))
	assert.Contains(t, a.Ancestors(), b.ID())
	assert.Contains(t, b.Descendants(), a.ID())
	assert.True(t, a.HasDependency(b))

	assert.ErrorIs(t, a.CreateDependency(b), ErrDependencyExists)
	assert.ErrorIs(t, a.CreateDependency(a), ErrSelfDependency)

	require.NoError(t, a.RemoveDependency(b))
	assert.NotContains(t, a.Ancestors(), b.ID())
	assert.NotContains(t, b.Descendants(), a.ID())

	assert.ErrorIs(t, a.RemoveDependency(b), ErrDependencyMissing)
}

func TestCreateDependency_RequiresSameScene(t *testing.T) {
	s := New(0)
	a := create(t, s, TypeSceneNode, "a", nil)
	loose, err := s.NewNode(TypeSceneNode, "loose")
	require.NoError(t, err)

	assert.ErrorIs(t, a.CreateDependency(loose), ErrNotInScene)
	assert.ErrorIs(t, loose.CreateDependency(a), ErrNotInScene)
	assert.ErrorIs(t, a.CreateDependency(New(0).Root()), ErrNotInScene)
}

func TestDirty_PropagatesToDescendants(t *testing.T) {
	s := New(0)
	a := create(t, s, TypeSceneNode, "a", nil)
	b := create(t, s, TypeSceneNode, "b", nil)
	c := create(t, s, TypeSceneNode, "c", nil)
	unrelated := create(t, s, TypeSceneNode, "u", nil)
	require.NoError(t, b.CreateDependency(a))
	require.NoError(t, c.CreateDependency(b))

	require.NoError(t, s.Execute())
	for _, n := range []*Node{a, b, c, unrelated} {
		require.Equal(t, StateClean, n.State(Downstream))
		require.Equal(t, StateClean, n.State(Upstream))
	}

	flags := a.Dirty()
	assert.True(t, flags.Has(DirtyDownstream|DirtyUpstream))
	for _, n := range []*Node{a, b, c} {
		assert.True(t, n.IsDirty(Downstream), n.Name())
		assert.True(t, n.IsDirty(Upstream), n.Name())
	}
	assert.False(t, unrelated.IsDirty(Downstream))

	assert.Equal(t, DirtyNone, a.Dirty(), "dirtying a dirty node is a no-op")
}

func TestDirty_MarksAncestorsUpstream(t *testing.T) {
	s := New(0)
	a := create(t, s, TypeSceneNode, "a", nil)
	b := create(t, s, TypeSceneNode, "b", nil)
	require.NoError(t, b.CreateDependency(a))
	require.NoError(t, s.Execute())

	b.Dirty()
	assert.True(t, a.IsDirty(Upstream))
	assert.False(t, a.IsDirty(Downstream))
}

func TestGraphEvaluate_CleansAncestors(t *testing.T) {
	s := New(0)
	a := create(t, s, TypeSceneNode, "a", nil)
	b := create(t, s, TypeSceneNode, "b", nil)
	c := create(t, s, TypeSceneNode, "c", nil)
	require.NoError(t, b.CreateDependency(a))
	require.NoError(t, c.CreateDependency(b))

	require.NoError(t, s.Graph().Evaluate([]*Node{c}, Downstream))
	for _, n := range []*Node{a, b, c} {
		assert.Equal(t, StateClean, n.State(Downstream), n.Name())
		assert.True(t, n.IsDirty(Upstream), n.Name())
	}

	require.NoError(t, s.Graph().Evaluate([]*Node{a}, Upstream))
	for _, n := range []*Node{a, b, c} {
		assert.Equal(t, StateClean, n.State(Upstream), n.Name())
	}
}

func TestGraphEvaluate_CleanNodeIsNoop(t *testing.T) {
	s := New(0)
	a := create(t, s, TypeSceneNode, "a", nil)
	require.NoError(t, s.Execute())
	before := s.Graph().TraversalID()

	require.NoError(t, s.Graph().Evaluate([]*Node{a}, Downstream))
	assert.Equal(t, before+1, s.Graph().TraversalID())
	assert.Equal(t, StateClean, a.State(Downstream))
}

func TestGraphEvaluate_DetectsCycle(t *testing.T) {
	s := New(0)
	a := create(t, s, TypeSceneNode, "a", nil)
	b := create(t, s, TypeSceneNode, "b", nil)
	require.NoError(t, b.CreateDependency(a))
	require.NoError(t, a.CreateDependency(b))

	err := s.Evaluate(Downstream)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCycle)

	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	require.GreaterOrEqual(t, len(cycle.Path), 3)
	assert.Equal(t, cycle.Path[0], cycle.Path[len(cycle.Path)-1])
	assert.Subset(t, cycle.Path, []ID{a.ID(), b.ID()})

	assert.True(t, a.IsDirty(Downstream), "nodes on a cycle stay dirty")
	assert.True(t, b.IsDirty(Downstream))

	require.NoError(t, a.RemoveDependency(b))
	require.NoError(t, s.Evaluate(Downstream), "evaluation succeeds once the cycle is broken")
}

func TestPruneInsert_RestoresShape(t *testing.T) {
	s := New(0)
	a := create(t, s, TypeSceneNode, "a", nil)
	b := create(t, s, TypeSceneNode, "b", nil)
	c := create(t, s, TypeSceneNode, "c", nil)
	require.NoError(t, b.CreateDependency(a))
	require.NoError(t, c.CreateDependency(b))

	var pruned []ID
	b.Prune(&pruned)
	assert.Equal(t, []ID{b.ID()}, pruned)
	assert.NotContains(t, a.Descendants(), b.ID())
	assert.NotContains(t, c.Ancestors(), b.ID())
	assert.Contains(t, b.Ancestors(), a.ID(), "the pruned node keeps its own edges")
	assert.Contains(t, b.Descendants(), c.ID())

	var inserted []ID
	b.Insert(&inserted)
	assert.Equal(t, []ID{b.ID()}, inserted)
	assert.Contains(t, a.Descendants(), b.ID())
	assert.Contains(t, c.Ancestors(), b.ID())
	assert.True(t, c.IsDirty(Downstream))
}

func TestTypeRegistry(t *testing.T) {
	s := New(0)
	mesh, err := s.Types().Register("Mesh", KindTransform, 7)
	require.NoError(t, err)
	_, err = s.Types().Register("Mesh", KindTransform, 7)
	assert.ErrorIs(t, err, ErrDuplicateType)
	_, err = s.NewNode("Nope", "")
	assert.ErrorIs(t, err, ErrUnknownType)

	m1 := create(t, s, "Mesh", "", nil)
	m2 := create(t, s, "Mesh", "", nil)
	assert.Equal(t, "Mesh1", m1.Name())
	assert.Equal(t, "Mesh2", m2.Name())
	assert.True(t, m1.IsTransform())
	assert.Equal(t, []ID{m1.ID(), m2.ID()}, mesh.Instances())

	require.NoError(t, s.Apply(s.RemoveNode(m1)))
	assert.Equal(t, 1, mesh.InstanceCount())
	require.NoError(t, s.Undo())
	assert.Equal(t, 2, mesh.InstanceCount())
}
