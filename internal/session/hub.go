// Package session serves one scene to editing clients. A Hub goroutine owns
// the scene; HTTP handlers and websocket clients hand it work over channels
// and every request runs to completion before the next starts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/heliumproject/editor-go/internal/linear"
	"github.com/heliumproject/editor-go/internal/metrics"
	"github.com/heliumproject/editor-go/internal/render"
	"github.com/heliumproject/editor-go/internal/scene"
	"github.com/heliumproject/editor-go/internal/typeid"
	"github.com/heliumproject/editor-go/internal/undo"
)

var (
	ErrHubStopped       = errors.New("session hub stopped")
	ErrUnknownOperation = errors.New("unknown operation type")
	ErrBadOperation     = errors.New("malformed operation")
)

const saveTimeout = 10 * time.Second

// SnapshotSaver persists encoded scene snapshots.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, sceneID string, data []byte) (int, error)
}

type Options struct {
	// Camera is used when a request does not supply a view.
	Camera *render.Camera
	// Saver, when set, receives a snapshot every Interval while the scene
	// has unsaved edits, and once more on Stop.
	Saver    SnapshotSaver
	Interval time.Duration
}

type request struct {
	fn   func()
	done chan struct{}
}

type Hub struct {
	scene    *scene.Scene
	renderer *render.Renderer
	camera   *render.Camera
	saver    SnapshotSaver
	interval time.Duration

	clients    map[string]*Client // clientID -> client
	register   chan *Client
	unregister chan *Client
	requests   chan request
	stop       chan struct{}
	stopOnce   sync.Once
	done       chan struct{}

	seq   int64
	dirty bool
}

// NewHub takes ownership of s. After Run starts, s must only be touched
// through the hub.
func NewHub(s *scene.Scene, r *render.Renderer, opts Options) *Hub {
	cam := opts.Camera
	if cam == nil {
		cam = render.NewCamera(mgl64.Vec3{0, 5, 10}, mgl64.Vec3{})
	}
	h := &Hub{
		scene:      s,
		renderer:   r,
		camera:     cam,
		saver:      opts.Saver,
		interval:   opts.Interval,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		requests:   make(chan request),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	h.listen()
	return h
}

func (h *Hub) listen() {
	s := h.scene
	s.OnNodeAdded(func(n *scene.Node) {
		h.broadcast(TypeNodeAdded, nodeInfo(n))
	})
	s.OnNodeRemoved(func(n *scene.Node) {
		h.broadcast(TypeNodeRemoved, nodeInfo(n))
	})
	s.OnParentChanged(func(c scene.ParentChange) {
		p := ParentChangedPayload{NodeID: c.Node.ID()}
		if c.Old != nil {
			p.OldParentID = c.Old.ID()
		}
		if c.New != nil {
			p.NewParentID = c.New.ID()
		}
		h.broadcast(TypeParentChanged, p)
	})
	q := s.Queue()
	q.OnPushed(func(cmd undo.Command) { h.undoEvent(TypeUndoPushed, cmd) })
	q.OnUndone(func(cmd undo.Command) { h.undoEvent(TypeUndoUndone, cmd) })
	q.OnRedone(func(cmd undo.Command) { h.undoEvent(TypeUndoRedone, cmd) })
}

func (h *Hub) undoEvent(typ string, cmd undo.Command) {
	h.dirty = true
	h.broadcast(typ, UndoPayload{
		Command: undo.Describe(cmd),
		CanUndo: h.scene.CanUndo(),
		CanRedo: h.scene.CanRedo(),
	})
}

// Run processes requests until Stop is called.
func (h *Hub) Run() {
	defer close(h.done)

	var tick <-chan time.Time
	if h.saver != nil && h.interval > 0 {
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case req := <-h.requests:
			req.fn()
			close(req.done)
		case <-tick:
			h.persist()
		case <-h.stop:
			h.persist()
			return
		}
	}
}

// Stop ends Run after saving unsaved edits. It blocks until Run returns.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// do runs fn on the hub goroutine and waits for it.
func (h *Hub) do(ctx context.Context, fn func()) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case h.requests <- req:
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-req.done
	return nil
}

func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.clients[client.ClientID] = client
	metrics.SessionClients.Inc()

	client.Send(h.message(TypeWelcome, WelcomePayload{
		SceneID: h.scene.ID(),
		Nodes:   h.scene.Len(),
		CanUndo: h.scene.CanUndo(),
		CanRedo: h.scene.CanRedo(),
	}))

	slog.Info("client joined", "user", client.UserID, "client", client.ClientID)
}

func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client.ClientID]; !ok {
		return
	}
	delete(h.clients, client.ClientID)
	close(client.send)
	metrics.SessionClients.Dec()

	slog.Info("client left", "user", client.UserID, "client", client.ClientID)
}

func (h *Hub) message(typ string, payload any) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal payload", "type", typ, "error", err)
		data = []byte("null")
	}
	return &Message{Type: typ, Seq: h.seq, Payload: data}
}

func (h *Hub) broadcast(typ string, payload any) {
	if len(h.clients) == 0 {
		return
	}
	msg := h.message(typ, payload)
	for _, c := range h.clients {
		c.Send(msg)
	}
}

func (h *Hub) persist() {
	if h.saver == nil || !h.dirty {
		return
	}
	data, err := h.scene.Snapshot().Marshal()
	if err != nil {
		slog.Error("encode snapshot", "scene", h.scene.ID(), "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	version, err := h.saver.SaveSnapshot(ctx, h.scene.ID(), data)
	if err != nil {
		slog.Warn("save snapshot", "scene", h.scene.ID(), "error", err)
		return
	}
	h.dirty = false
	slog.Info("saved snapshot", "scene", h.scene.ID(), "version", version, "bytes", len(data))
}

// Submit applies op on behalf of userID.
func (h *Hub) Submit(ctx context.Context, userID string, op Operation) (OperationAckPayload, error) {
	var (
		ack OperationAckPayload
		err error
	)
	if derr := h.do(ctx, func() { ack, err = h.apply(userID, op) }); derr != nil {
		return ack, derr
	}
	return ack, err
}

func (h *Hub) apply(userID string, op Operation) (OperationAckPayload, error) {
	if op.ID == "" {
		op.ID = typeid.NewOpID()
	}
	nodeID, err := h.applyOperation(op)
	if err != nil {
		slog.Debug("operation rejected", "op", op.Type, "user", userID, "error", err)
		return OperationAckPayload{OperationID: op.ID}, fmt.Errorf("%s: %w", op.Type, err)
	}
	h.seq++
	return OperationAckPayload{
		OperationID: op.ID,
		ServerSeq:   h.seq,
		NodeID:      nodeID,
		CanUndo:     h.scene.CanUndo(),
		CanRedo:     h.scene.CanRedo(),
	}, nil
}

// Render draws the scene from view, or from the hub camera when view is nil.
func (h *Hub) Render(ctx context.Context, view render.View) ([]render.DrawCommand, render.DrawArgs, error) {
	var (
		cmds []render.DrawCommand
		args render.DrawArgs
		err  error
	)
	derr := h.do(ctx, func() {
		if view == nil {
			view = h.camera
		}
		rec := render.NewRecorder()
		args, err = h.renderer.Frame(h.scene, view, rec)
		cmds = rec.Commands
	})
	if derr != nil {
		return nil, args, derr
	}
	return cmds, args, err
}

// Pick returns the nodes hit by the world-space ray, nearest first.
func (h *Hub) Pick(ctx context.Context, ray linear.Ray) ([]PickResult, error) {
	var (
		out []PickResult
		err error
	)
	derr := h.do(ctx, func() {
		var hits []render.PickHit
		hits, err = render.Pick(h.scene, h.camera, render.NewRayPick(ray))
		for _, hit := range hits {
			out = append(out, PickResult{NodeID: hit.Node.ID(), Name: hit.Node.Name(), Distance: hit.Distance})
		}
	})
	if derr != nil {
		return nil, derr
	}
	return out, err
}

// Nodes lists every node in insertion order.
func (h *Hub) Nodes(ctx context.Context) ([]NodeInfo, error) {
	var out []NodeInfo
	err := h.do(ctx, func() {
		for _, n := range h.scene.Nodes() {
			out = append(out, nodeInfo(n))
		}
	})
	return out, err
}

// Snapshot returns the encoded scene snapshot.
func (h *Hub) Snapshot(ctx context.Context) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if derr := h.do(ctx, func() { data, err = h.scene.Snapshot().Marshal() }); derr != nil {
		return nil, derr
	}
	return data, err
}

func nodeInfo(n *scene.Node) NodeInfo {
	return NodeInfo{
		ID:       n.ID(),
		Type:     n.Type().Name,
		Kind:     n.Kind().String(),
		Name:     n.Name(),
		ParentID: n.ParentID(),
		Hidden:   n.Hidden(),
	}
}
