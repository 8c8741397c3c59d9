package linear

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ray is a half-line used for picking. Direction need not be normalized;
// hit parameters are expressed in units of Direction.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// At returns the point at parameter t.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Transform maps the ray into the space described by m. The hit parameter
// of an intersection is preserved under affine maps.
func (r Ray) Transform(m mgl64.Mat4) Ray {
	return Ray{
		Origin:    TransformPoint(m, r.Origin),
		Direction: TransformVector(m, r.Direction),
	}
}

// IntersectBox returns the entry parameter of the ray into the box using
// the slab method. A ray starting inside the box hits at t = 0.
func (r Ray) IntersectBox(b Box) (float64, bool) {
	if b.IsEmpty() {
		return 0, false
	}
	tmin, tmax := 0.0, math.Inf(1)
	for i := 0; i < 3; i++ {
		if math.Abs(r.Direction[i]) < Epsilon {
			if r.Origin[i] < b.Min[i] || r.Origin[i] > b.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / r.Direction[i]
		t1 := (b.Min[i] - r.Origin[i]) * inv
		t2 := (b.Max[i] - r.Origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}
