package engine

import (
	"encoding/json"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heliumproject/editor-go/internal/render"
	"github.com/heliumproject/editor-go/internal/scene"
	"github.com/heliumproject/editor-go/internal/session"
)

func sampleEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine()
	require.NoError(t, e.LoadSampleDocument())
	t.Cleanup(e.Close)
	return e
}

func sceneNodes(t *testing.T, e *Engine) map[string]session.NodeInfo {
	t.Helper()
	raw, err := e.GetScene()
	require.NoError(t, err)
	var nodes []session.NodeInfo
	require.NoError(t, json.Unmarshal([]byte(raw), &nodes))
	out := make(map[string]session.NodeInfo, len(nodes))
	for _, n := range nodes {
		out[n.Name] = n
	}
	return out
}

func TestEngine_NoScene(t *testing.T) {
	e := NewEngine()
	out, err := e.Render()
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
	assert.ErrorIs(t, e.Undo(), ErrNoScene)

	id, err := e.HitTest(mgl64.Vec3{}, mgl64.Vec3{0, 0, -1})
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestEngine_RenderAndHitTest(t *testing.T) {
	e := sampleEngine(t)
	nodes := sceneNodes(t, e)

	out, err := e.Render()
	require.NoError(t, err)
	var cmds []render.DrawCommand
	require.NoError(t, json.Unmarshal([]byte(out), &cmds))
	assert.NotEmpty(t, cmds)

	id, err := e.HitTest(mgl64.Vec3{0, 2, 10}, mgl64.Vec3{0, 0, -1})
	require.NoError(t, err)
	assert.Equal(t, nodes["Window"].ID, id)

	id, err = e.HitTest(mgl64.Vec3{0, 50, 10}, mgl64.Vec3{0, 0, -1})
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestEngine_SubmitUndoRedo(t *testing.T) {
	e := sampleEngine(t)
	before := sceneNodes(t, e)
	lamp, root := before["Lamp"], before[scene.RootName]

	op, _ := json.Marshal(session.Operation{Type: session.OpNodeReparent, NodeID: lamp.ID})
	ack, err := e.Submit(string(op))
	require.NoError(t, err)
	assert.Contains(t, ack, lamp.ID)
	assert.Equal(t, root.ID, sceneNodes(t, e)["Lamp"].ParentID)

	require.NoError(t, e.Undo())
	assert.Equal(t, lamp.ParentID, sceneNodes(t, e)["Lamp"].ParentID)
	require.NoError(t, e.Redo())

	_, err = e.Submit("{")
	assert.Error(t, err)
}

func TestEngine_Selection(t *testing.T) {
	e := sampleEngine(t)
	chair := sceneNodes(t, e)["Chair"]

	assert.Equal(t, "[]", e.GetSelection())
	require.NoError(t, e.SetSelection([]string{chair.ID}))
	assert.JSONEq(t, `["`+chair.ID+`"]`, e.GetSelection())

	assert.Error(t, e.SetSelection([]string{"xform_missing"}))
	assert.JSONEq(t, `["`+chair.ID+`"]`, e.GetSelection())
}

func TestEngine_LoadDocument(t *testing.T) {
	e := NewEngine()
	t.Cleanup(e.Close)

	require.NoError(t, e.LoadDocument(`{"name":"tiny","objects":[{"key":"a","type":"Transform","name":"Solo"}]}`))
	nodes := sceneNodes(t, e)
	assert.Len(t, nodes, 2)
	assert.Contains(t, nodes, "Solo")

	assert.Error(t, e.LoadDocument("not json"))
	assert.Contains(t, sceneNodes(t, e), "Solo", "a failed load keeps the current scene")
}
