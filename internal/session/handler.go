package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/coder/websocket"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/heliumproject/editor-go/internal/auth"
	"github.com/heliumproject/editor-go/internal/linear"
	"github.com/heliumproject/editor-go/internal/render"
	"github.com/heliumproject/editor-go/internal/scene"
	"github.com/heliumproject/editor-go/internal/undo"
)

// TokenValidator resolves a bearer token to a subject.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

type Handler struct {
	hub     *Hub
	tokens  TokenValidator
	origins []string
}

// NewHandler serves hub over HTTP. A nil tokens lets websocket clients
// connect anonymously.
func NewHandler(hub *Hub, tokens TokenValidator, origins []string) *Handler {
	return &Handler{hub: hub, tokens: tokens, origins: origins}
}

type renderResponse struct {
	Commands []render.DrawCommand `json:"commands"`
	Stats    render.DrawArgs      `json:"stats"`
}

// Render handles GET /scene/render. Optional ex,ey,ez and cx,cy,cz query
// parameters place the camera eye and target.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	eye, hasEye, err := vec3Param(q, "e")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	center, hasCenter, err := vec3Param(q, "c")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var view render.View
	if hasEye || hasCenter {
		view = render.NewCamera(eye, center)
	}
	cmds, args, err := h.hub.Render(r.Context(), view)
	if err != nil {
		handleError(w, err)
		return
	}
	if cmds == nil {
		cmds = []render.DrawCommand{}
	}
	writeJSON(w, http.StatusOK, renderResponse{Commands: cmds, Stats: args})
}

// Pick handles GET /scene/pick?ox=..&oy=..&oz=..&dx=..&dy=..&dz=..
func (h *Handler) Pick(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	origin, _, err := vec3Param(q, "o")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	dir, ok, err := vec3Param(q, "d")
	if err != nil || !ok || dir.Len() == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "pick needs a ray direction dx, dy, dz"})
		return
	}

	hits, err := h.hub.Pick(r.Context(), linear.Ray{Origin: origin, Direction: dir})
	if err != nil {
		handleError(w, err)
		return
	}
	if hits == nil {
		hits = []PickResult{}
	}
	writeJSON(w, http.StatusOK, hits)
}

// SubmitOp handles POST /scene/ops.
func (h *Handler) SubmitOp(w http.ResponseWriter, r *http.Request) {
	var op Operation
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ack, err := h.hub.Submit(r.Context(), auth.SubjectFromContext(r.Context()), op)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

// Nodes handles GET /scene/nodes.
func (h *Handler) Nodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.hub.Nodes(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}

// Snapshot handles GET /scene/snapshot with the msgpack-encoded scene.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	data, err := h.hub.Snapshot(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/msgpack")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// WebSocket handles GET /ws/scene. Browsers cannot set headers on the
// upgrade request, so the token travels as a query parameter.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	var userID string
	if h.tokens == nil {
		userID = "anon-" + uuid.New().String()[:8]
	} else {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		var err error
		userID, err = h.tokens.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(h.hub, conn, userID, uuid.New().String())
	if err := h.hub.Register(client); err != nil {
		conn.Close(websocket.StatusGoingAway, "session closed")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

func vec3Param(q url.Values, prefix string) (mgl64.Vec3, bool, error) {
	var v mgl64.Vec3
	found := false
	for i, axis := range []string{"x", "y", "z"} {
		key := prefix + axis
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return v, false, fmt.Errorf("invalid %s: %q", key, raw)
		}
		v[i] = f
		found = true
	}
	return v, found, nil
}

func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scene.ErrNodeNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrUnknownOperation), errors.Is(err, ErrBadOperation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrHubStopped):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "session closed"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "request cancelled"})
	case errors.Is(err, scene.ErrCycle),
		errors.Is(err, scene.ErrSelfParent),
		errors.Is(err, scene.ErrWrongKind),
		errors.Is(err, scene.ErrRootNode),
		errors.Is(err, scene.ErrUnknownType),
		errors.Is(err, scene.ErrParentVetoed),
		errors.Is(err, undo.ErrNothingToUndo),
		errors.Is(err, undo.ErrNothingToRedo),
		errors.Is(err, undo.ErrBatchOpen),
		errors.Is(err, undo.ErrNotBatching):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		slog.Error("session error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
