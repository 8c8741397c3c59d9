package session

import (
	"encoding/json"

	"github.com/go-gl/mathgl/mgl64"
)

type Message struct {
	Type     string          `json:"type"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	TypeError = "error"

	// Connection
	TypeWelcome = "welcome"

	// Operation message types
	TypeOpSubmit = "op.submit"
	TypeOpAck    = "op.ack"
	TypeOpNack   = "op.nack"

	// Scene notifications
	TypeNodeAdded     = "node.added"
	TypeNodeRemoved   = "node.removed"
	TypeParentChanged = "parent.changed"
	TypeUndoPushed    = "undo.pushed"
	TypeUndoUndone    = "undo.undone"
	TypeUndoRedone    = "undo.redone"
)

// Operation kinds
const (
	OpNodeCreate     = "node.create"
	OpNodeDelete     = "node.delete"
	OpNodeReparent   = "node.reparent"
	OpNodeTransform  = "node.transform"
	OpNodeVisibility = "node.visibility"
	OpNodeSelect     = "node.select"
	OpBatchBegin     = "batch.begin"
	OpBatchEnd       = "batch.end"
	OpUndo           = "undo"
	OpRedo           = "redo"
)

// Operation is an edit request. Which fields apply depends on Type.
type Operation struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	NodeID string `json:"nodeId,omitempty"`

	// For node.create
	NodeType string `json:"nodeType,omitempty"`
	Name     string `json:"name,omitempty"`

	// For node.create / node.reparent; empty means the root
	ParentID string `json:"parentId,omitempty"`

	// For node.transform
	Translate *mgl64.Vec3 `json:"translate,omitempty"`
	Rotate    *mgl64.Vec3 `json:"rotate,omitempty"`
	Scale     *mgl64.Vec3 `json:"scale,omitempty"`

	// For node.visibility
	Hidden *bool `json:"hidden,omitempty"`

	// For node.select
	NodeIDs []string `json:"nodeIds,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages and the response
// body of POST /scene/ops.
type OperationAckPayload struct {
	OperationID string `json:"operationId"`
	ServerSeq   int64  `json:"serverSeq"`
	NodeID      string `json:"nodeId,omitempty"`
	CanUndo     bool   `json:"canUndo"`
	CanRedo     bool   `json:"canRedo"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

type WelcomePayload struct {
	SceneID string `json:"sceneId"`
	Nodes   int    `json:"nodes"`
	CanUndo bool   `json:"canUndo"`
	CanRedo bool   `json:"canRedo"`
}

// NodeInfo describes a node in notifications and listings.
type NodeInfo struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
	Hidden   bool   `json:"hidden,omitempty"`
}

type ParentChangedPayload struct {
	NodeID      string `json:"nodeId"`
	OldParentID string `json:"oldParentId,omitempty"`
	NewParentID string `json:"newParentId,omitempty"`
}

type UndoPayload struct {
	Command string `json:"command"`
	CanUndo bool   `json:"canUndo"`
	CanRedo bool   `json:"canRedo"`
}

// PickResult is one hit returned by GET /scene/pick.
type PickResult struct {
	NodeID   string  `json:"nodeId"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}
