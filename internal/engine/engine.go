// Package engine is the in-process editor facade used by the browser build.
// Commands and queries take and return JSON strings so a JavaScript host
// can call them directly.
package engine

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/heliumproject/editor-go/internal/document"
	"github.com/heliumproject/editor-go/internal/linear"
	"github.com/heliumproject/editor-go/internal/render"
	"github.com/heliumproject/editor-go/internal/scene"
	"github.com/heliumproject/editor-go/internal/session"
)

// LocalUser is the subject recorded for edits made through the engine.
const LocalUser = "local"

var ErrNoScene = errors.New("no scene loaded")

// Engine owns one editing session at a time and the camera used to view it.
// It is driven from a single goroutine, like the JavaScript host calling it.
type Engine struct {
	hub    *session.Hub
	camera *render.Camera

	// Selection state (backend owns this)
	selection []string
}

func NewEngine() *Engine {
	return &Engine{
		camera: render.NewCamera(mgl64.Vec3{0, 5, 10}, mgl64.Vec3{}),
	}
}

// --- Commands (frontend → backend) ---

// LoadDocument replaces the session with a scene built from a description.
func (e *Engine) LoadDocument(jsonData string) error {
	d, err := document.Parse([]byte(jsonData))
	if err != nil {
		return err
	}
	return e.load(d)
}

// LoadSampleDocument replaces the session with the sample room.
func (e *Engine) LoadSampleDocument() error {
	return e.load(document.NewSampleDescription())
}

func (e *Engine) load(d *document.Description) error {
	s := scene.New(0)
	if _, err := d.Build(s); err != nil {
		return err
	}
	r := render.NewRenderer()
	d.RegisterDrawing(s, r)

	e.Close()
	e.hub = session.NewHub(s, r, session.Options{Camera: e.camera})
	go e.hub.Run()
	e.selection = nil
	return nil
}

// Close stops the current session.
func (e *Engine) Close() {
	if e.hub != nil {
		e.hub.Stop()
		e.hub = nil
	}
}

// SetCamera moves the view used by Render and HitTest.
func (e *Engine) SetCamera(eye, center mgl64.Vec3) {
	e.camera.Eye = eye
	e.camera.Center = center
}

// Submit applies an operation given as JSON and returns the ack as JSON.
func (e *Engine) Submit(opJSON string) (string, error) {
	var op session.Operation
	if err := json.Unmarshal([]byte(opJSON), &op); err != nil {
		return "", err
	}
	ack, err := e.submit(op)
	if err != nil {
		return "", err
	}
	return marshal(ack), nil
}

func (e *Engine) submit(op session.Operation) (session.OperationAckPayload, error) {
	if e.hub == nil {
		return session.OperationAckPayload{}, ErrNoScene
	}
	return e.hub.Submit(context.Background(), LocalUser, op)
}

func (e *Engine) Undo() error {
	_, err := e.submit(session.Operation{Type: session.OpUndo})
	return err
}

func (e *Engine) Redo() error {
	_, err := e.submit(session.Operation{Type: session.OpRedo})
	return err
}

// SetSelection selects the given node IDs for rendering.
func (e *Engine) SetSelection(ids []string) error {
	if _, err := e.submit(session.Operation{Type: session.OpNodeSelect, NodeIDs: ids}); err != nil {
		return err
	}
	e.selection = ids
	return nil
}

// --- Queries (frontend ← backend) ---

// Render returns the draw commands for the current camera as JSON.
func (e *Engine) Render() (string, error) {
	if e.hub == nil {
		return "[]", nil
	}
	cmds, _, err := e.hub.Render(context.Background(), e.camera)
	if err != nil {
		return "", err
	}
	if cmds == nil {
		return "[]", nil
	}
	return marshal(cmds), nil
}

// HitTest returns the ID of the nearest node along the ray, or "".
func (e *Engine) HitTest(origin, dir mgl64.Vec3) (string, error) {
	if e.hub == nil {
		return "", nil
	}
	hits, err := e.hub.Pick(context.Background(), linear.Ray{Origin: origin, Direction: dir})
	if err != nil || len(hits) == 0 {
		return "", err
	}
	return hits[0].NodeID, nil
}

// GetScene returns the node list as JSON.
func (e *Engine) GetScene() (string, error) {
	if e.hub == nil {
		return "[]", nil
	}
	nodes, err := e.hub.Nodes(context.Background())
	if err != nil {
		return "", err
	}
	return marshal(nodes), nil
}

func (e *Engine) GetSelection() string {
	if e.selection == nil {
		return "[]"
	}
	return marshal(e.selection)
}

func marshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}
