package linear

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Components are the authoring values of an affine placement.
// Each of scale and rotate has its own pivot. The translate pivot is a
// manipulator reference point only and does not contribute to the matrix.
type Components struct {
	Scale          mgl64.Vec3 `msgpack:"scale" json:"scale"`
	ScalePivot     mgl64.Vec3 `msgpack:"scalePivot" json:"scalePivot"`
	Rotate         mgl64.Vec3 `msgpack:"rotate" json:"rotate"`
	RotatePivot    mgl64.Vec3 `msgpack:"rotatePivot" json:"rotatePivot"`
	Translate      mgl64.Vec3 `msgpack:"translate" json:"translate"`
	TranslatePivot mgl64.Vec3 `msgpack:"translatePivot" json:"translatePivot"`
}

// IdentityComponents returns unit scale, no rotation and no translation.
func IdentityComponents() Components {
	return Components{Scale: mgl64.Vec3{1, 1, 1}}
}

// Matrix composes the components into an object matrix:
//
//	T(translate) * T(rotatePivot) * R * T(-rotatePivot) * T(scalePivot) * S * T(-scalePivot)
func (c Components) Matrix() mgl64.Mat4 {
	m := Translate(c.Translate)
	m = m.Mul4(Translate(c.RotatePivot))
	m = m.Mul4(RotateEuler(c.Rotate))
	m = m.Mul4(Translate(c.RotatePivot.Mul(-1)))
	m = m.Mul4(Translate(c.ScalePivot))
	m = m.Mul4(Scale(c.Scale))
	m = m.Mul4(Translate(c.ScalePivot.Mul(-1)))
	return m
}

// ScaleComponent returns the scale part including its pivot.
func (c Components) ScaleComponent() mgl64.Mat4 {
	return Translate(c.ScalePivot).Mul4(Scale(c.Scale)).Mul4(Translate(c.ScalePivot.Mul(-1)))
}

// RotateComponent returns the rotation part including its pivot.
func (c Components) RotateComponent() mgl64.Mat4 {
	return Translate(c.RotatePivot).Mul4(RotateEuler(c.Rotate)).Mul4(Translate(c.RotatePivot.Mul(-1)))
}

// TranslateComponent returns the translation part.
func (c Components) TranslateComponent() mgl64.Mat4 {
	return Translate(c.Translate)
}

// ApproxEqual compares every component within epsilon.
func (c Components) ApproxEqual(o Components, eps float64) bool {
	return c.Scale.ApproxEqualThreshold(o.Scale, eps) &&
		c.ScalePivot.ApproxEqualThreshold(o.ScalePivot, eps) &&
		c.Rotate.ApproxEqualThreshold(o.Rotate, eps) &&
		c.RotatePivot.ApproxEqualThreshold(o.RotatePivot, eps) &&
		c.Translate.ApproxEqualThreshold(o.Translate, eps) &&
		c.TranslatePivot.ApproxEqualThreshold(o.TranslatePivot, eps)
}

// Decompose splits an affine matrix into scale, Euler rotation (X, Y, Z
// order) and translation. Pivots of the result are zero. Shear is dropped.
func Decompose(m mgl64.Mat4) Components {
	cols := [3]mgl64.Vec3{m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()}

	var scale mgl64.Vec3
	for i, col := range cols {
		scale[i] = col.Len()
	}
	// A mirrored basis is folded into a negative X scale.
	if cols[0].Cross(cols[1]).Dot(cols[2]) < 0 {
		scale[0] = -scale[0]
	}

	var r [3]mgl64.Vec3
	axes := [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i := range cols {
		if math.Abs(scale[i]) < Epsilon {
			r[i] = axes[i]
			continue
		}
		r[i] = cols[i].Mul(1 / scale[i])
	}

	// r[col][row]; R = Rz * Ry * Rx
	r20 := r[0][2]
	var rot mgl64.Vec3
	rot[1] = math.Asin(clamp(-r20, -1, 1))
	if math.Abs(math.Cos(rot[1])) > 1e-6 {
		rot[0] = math.Atan2(r[1][2], r[2][2])
		rot[2] = math.Atan2(r[0][1], r[0][0])
	} else {
		// Gimbal lock: fold Z into X.
		rot[0] = math.Atan2(-r[2][1], r[1][1])
		rot[2] = 0
	}

	return Components{
		Scale:     scale,
		Rotate:    rot,
		Translate: Translation(m),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
