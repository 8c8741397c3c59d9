package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

// create adds a node of typeName under parent and pushes the command.
func create(t *testing.T, s *Scene, typeName, name string, parent *Node) *Node {
	t.Helper()
	n, cmd, err := s.Create(typeName, name, parent)
	require.NoError(t, err)
	s.Push(cmd)
	return n
}

func transform(t *testing.T, s *Scene, name string, parent *Node) *Node {
	t.Helper()
	return create(t, s, TypeTransform, name, parent)
}

func assertVec(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	assert.True(t, want.ApproxEqualThreshold(got, tolerance), "want %v, got %v", want, got)
}

func assertMat(t *testing.T, want, got mgl64.Mat4) {
	t.Helper()
	assert.True(t, want.ApproxEqualThreshold(got, tolerance), "want\n%v\ngot\n%v", want, got)
}

func ids(nodes []*Node) []ID {
	out := make([]ID, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	return out
}

func snapshotBytes(t *testing.T, s *Scene) []byte {
	t.Helper()
	data, err := s.Snapshot().Marshal()
	require.NoError(t, err)
	return data
}
