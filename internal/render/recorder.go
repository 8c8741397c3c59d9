package render

import (
	"encoding/json"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/heliumproject/editor-go/internal/linear"
)

// Device is the graphics collaborator the draw functions talk to.
type Device interface {
	// SetObject names the node whose draws follow.
	SetObject(id string)
	SetTransform(m mgl64.Mat4)
	SetColor(c mgl64.Vec4)
	DrawBox(b linear.Box)
	DrawAxes(length float64)
	// Reset restores the default device state.
	Reset()
}

// DrawCommand is a single recorded device operation. A client replays the
// list in order.
type DrawCommand struct {
	Op        string    `json:"op"`                  // "transform", "color", "box", "axes", "reset"
	ObjectID  string    `json:"objectId,omitempty"`  // For hit correlation
	Transform []float64 `json:"transform,omitempty"` // Column-major 4x4
	Color     []float64 `json:"color,omitempty"`     // RGBA
	Min       []float64 `json:"min,omitempty"`
	Max       []float64 `json:"max,omitempty"`
	Length    float64   `json:"length,omitempty"`
}

// Recorder is a Device that records draw commands instead of issuing them.
type Recorder struct {
	Commands []DrawCommand
	object   string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) SetObject(id string) { r.object = id }

func (r *Recorder) SetTransform(m mgl64.Mat4) {
	r.Commands = append(r.Commands, DrawCommand{Op: "transform", ObjectID: r.object, Transform: linear.ToSlice(m)})
}

func (r *Recorder) SetColor(c mgl64.Vec4) {
	r.Commands = append(r.Commands, DrawCommand{Op: "color", ObjectID: r.object, Color: c[:]})
}

func (r *Recorder) DrawBox(b linear.Box) {
	if b.IsEmpty() {
		return
	}
	r.Commands = append(r.Commands, DrawCommand{Op: "box", ObjectID: r.object, Min: b.Min[:], Max: b.Max[:]})
}

func (r *Recorder) DrawAxes(length float64) {
	r.Commands = append(r.Commands, DrawCommand{Op: "axes", ObjectID: r.object, Length: length})
}

func (r *Recorder) Reset() {
	r.object = ""
	r.Commands = append(r.Commands, DrawCommand{Op: "reset"})
}

// Ops returns the recorded op names in order.
func (r *Recorder) Ops() []string {
	out := make([]string, len(r.Commands))
	for i, c := range r.Commands {
		out[i] = c.Op
	}
	return out
}

// JSON serializes the recorded commands.
func (r *Recorder) JSON() ([]byte, error) {
	if r.Commands == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Commands)
}
