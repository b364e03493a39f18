package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Aliases keep call sites short and let callers use mgl64 methods directly.
type (
	Vec3 = mgl64.Vec3
	Vec4 = mgl64.Vec4
	Quat = mgl64.Quat
	Mat4 = mgl64.Mat4
)

// Common axes.
var (
	Origin = Vec3{0, 0, 0}
	UnitX  = Vec3{1, 0, 0}
	UnitY  = Vec3{0, 1, 0}
	UnitZ  = Vec3{0, 0, 1}
)

// Epsilon is the tolerance used when comparing geometry in this package.
const Epsilon = 1e-9

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 { return deg * math.Pi / 180 }

// LookAt returns the rotation matrix whose local +Z axis points from target to eye.
//
// The basis is z = normalize(eye - target), x = normalize(up × z), y = z × x.
// When eye and target coincide z falls back to +Z, and when z is parallel to up
// it is nudged so that the cross product is well defined.
func LookAt(eye, target, up Vec3) Mat4 {
	z := eye.Sub(target)
	if z.Len() < Epsilon {
		z = UnitZ
	}
	z = z.Normalize()

	x := up.Cross(z)
	if x.Len() < Epsilon {
		if math.Abs(up.Z()) == 1 {
			z[0] += 0.0001
		} else {
			z[2] += 0.0001
		}
		z = z.Normalize()
		x = up.Cross(z)
	}
	x = x.Normalize()
	y := z.Cross(x)

	return Mat4{
		x[0], x[1], x[2], 0,
		y[0], y[1], y[2], 0,
		z[0], z[1], z[2], 0,
		0, 0, 0, 1,
	}
}

// LookAtQuat is [LookAt] expressed as a unit quaternion.
func LookAtQuat(eye, target, up Vec3) Quat {
	return mgl64.Mat4ToQuat(LookAt(eye, target, up)).Normalize()
}

// AxisAngle returns the rotation of angle radians about axis.
func AxisAngle(axis Vec3, angle float64) Quat {
	return mgl64.QuatRotate(angle, axis.Normalize())
}

// EulerXYZ returns the rotation for intrinsic X, then Y, then Z angles in radians.
func EulerXYZ(x, y, z float64) Quat {
	qx := mgl64.QuatRotate(x, UnitX)
	qy := mgl64.QuatRotate(y, UnitY)
	qz := mgl64.QuatRotate(z, UnitZ)
	return qx.Mul(qy).Mul(qz)
}

// Identity returns the identity rotation.
func Identity() Quat { return mgl64.QuatIdent() }

// Transform is a decomposed affine transform.
type Transform struct {
	Position Vec3
	Rotation Quat
	Scale    Vec3
}

// NewTransform returns the identity transform.
func NewTransform() Transform {
	return Transform{Rotation: Identity(), Scale: Vec3{1, 1, 1}}
}

// Matrix composes translation * rotation * scale.
func (t Transform) Matrix() Mat4 {
	m := mgl64.Translate3D(t.Position[0], t.Position[1], t.Position[2])
	m = m.Mul4(t.Rotation.Normalize().Mat4())
	return m.Mul4(mgl64.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// TransformPoint applies m to p with w = 1.
func TransformPoint(m Mat4, p Vec3) Vec3 {
	v := m.Mul4x1(p.Vec4(1))
	if v[3] != 0 && v[3] != 1 {
		return v.Vec3().Mul(1 / v[3])
	}
	return v.Vec3()
}

// TransformDir applies m to d with w = 0.
func TransformDir(m Mat4, d Vec3) Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// MatrixPosition extracts the translation column of m.
func MatrixPosition(m Mat4) Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// ApproxVec reports whether a and b differ by less than eps per component.
func ApproxVec(a, b Vec3, eps float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

// ApproxQuat reports whether a and b describe the same rotation within eps.
// q and -q are treated as equal.
func ApproxQuat(a, b Quat, eps float64) bool {
	d := math.Abs(a.Dot(b))
	return math.Abs(d-1) <= eps
}
