package render

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/heliumproject/editor-go/internal/linear"
)

// View is the viewport collaborator: it supplies the active view matrix,
// the camera position used for distance sorting and the culling test.
type View interface {
	ViewMatrix() mgl64.Mat4
	Position() mgl64.Vec3
	IntersectsBounds(b linear.Box) bool
}

// Camera is a look-at view with an optional world-space cull box. An empty
// cull box disables culling.
type Camera struct {
	Eye    mgl64.Vec3
	Center mgl64.Vec3
	Up     mgl64.Vec3
	Cull   linear.Box
}

// NewCamera returns a camera at eye looking at center with +Y up and no
// culling.
func NewCamera(eye, center mgl64.Vec3) *Camera {
	return &Camera{Eye: eye, Center: center, Up: mgl64.Vec3{0, 1, 0}, Cull: linear.EmptyBox()}
}

func (c *Camera) ViewMatrix() mgl64.Mat4 {
	return mgl64.LookAtV(c.Eye, c.Center, c.Up)
}

func (c *Camera) Position() mgl64.Vec3 { return c.Eye }

func (c *Camera) IntersectsBounds(b linear.Box) bool {
	if c.Cull.IsEmpty() {
		return true
	}
	return c.Cull.Intersects(b)
}

// DrawArgs accumulates counts and timings for one frame.
type DrawArgs struct {
	Entries      int           `json:"entries"`
	DrawCalls    int           `json:"drawCalls"`
	SetupChanges int           `json:"setupChanges"`
	NodeChanges  int           `json:"nodeChanges"`
	WalkTime     time.Duration `json:"walkTime"`
	SortTime     time.Duration `json:"sortTime"`
	DrawTime     time.Duration `json:"drawTime"`
}
