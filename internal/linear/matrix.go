// Package linear holds the affine math used by scene transforms: component
// composition, decomposition, bounding boxes and pick rays.
//
// Matrices are mgl64 column-major 4x4 matrices applied to column vectors, so
// a composed placement reads right to left: parent * local applies local
// first.
package linear

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the tolerance used for degenerate scale and identity checks.
const Epsilon = 1e-10

// Identity returns the identity matrix.
func Identity() mgl64.Mat4 {
	return mgl64.Ident4()
}

// Translate returns a translation matrix.
func Translate(v mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(v[0], v[1], v[2])
}

// Scale returns a scale matrix.
func Scale(v mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Scale3D(v[0], v[1], v[2])
}

// RotateEuler returns the rotation for Euler angles (radians) applied in
// X, Y, Z order: Rz * Ry * Rx.
func RotateEuler(r mgl64.Vec3) mgl64.Mat4 {
	return mgl64.HomogRotate3DZ(r[2]).
		Mul4(mgl64.HomogRotate3DY(r[1])).
		Mul4(mgl64.HomogRotate3DX(r[0]))
}

// Invert returns the inverse of the matrix, or Identity if not invertible.
func Invert(m mgl64.Mat4) mgl64.Mat4 {
	if math.Abs(m.Det()) < Epsilon {
		return mgl64.Ident4()
	}
	return m.Inv()
}

// TransformPoint applies the matrix to a point.
func TransformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(p, m)
}

// TransformVector applies the matrix to a direction, ignoring translation.
func TransformVector(m mgl64.Mat4, v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformNormal(v, m)
}

// Translation returns the translation column of the matrix.
func Translation(m mgl64.Mat4) mgl64.Vec3 {
	return m.Col(3).Vec3()
}

// IsIdentity checks if this is the identity matrix (within epsilon).
func IsIdentity(m mgl64.Mat4) bool {
	return m.ApproxEqualThreshold(mgl64.Ident4(), Epsilon)
}

// ToSlice returns the matrix as a float64 slice for JSON serialization.
func ToSlice(m mgl64.Mat4) []float64 {
	out := make([]float64, len(m))
	copy(out, m[:])
	return out
}
