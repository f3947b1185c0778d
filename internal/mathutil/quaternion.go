package mathutil

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ScreenDepthAxis is the axis pointing out of the screen towards the viewer.
var ScreenDepthAxis = mgl64.Vec3{0, 0, 1}

// ShortestArc returns the minimal rotation taking unit vector u onto unit vector v.
//
// Built as q = (u·v, u×v), then w += |q| and renormalised, which halves the
// angle without any trigonometry. When the result has zero length (u or v
// zero, or u = -v) the identity is returned.
func ShortestArc(u, v mgl64.Vec3) mgl64.Quat {
	q := mgl64.Quat{W: u.Dot(v), V: u.Cross(v)}
	q.W += q.Len()

	l := q.Len()
	if l < 1e-12 {
		return mgl64.QuatIdent()
	}
	return mgl64.Quat{W: q.W / l, V: q.V.Mul(1 / l)}
}

// AxisAngle builds a rotation of angle radians about axis. The axis does not
// need to be normalised.
func AxisAngle(axis mgl64.Vec3, angle float64) mgl64.Quat {
	return mgl64.QuatRotate(angle, NormalizeOrZero(axis))
}

// TwistAngle returns the signed rotation angle of q about axis, in (-π, π].
// Any swing component of q is ignored.
func TwistAngle(q mgl64.Quat, axis mgl64.Vec3) float64 {
	a := NormalizeOrZero(axis)
	p := q.V.Dot(a)
	if p == 0 && q.W == 0 {
		return 0
	}
	return WrapAngle(2 * math.Atan2(p, q.W))
}

// ClampTwist keeps only the twist of q about axis, limited to [lo, hi] radians.
func ClampTwist(q mgl64.Quat, axis mgl64.Vec3, lo, hi float64) mgl64.Quat {
	angle := TwistAngle(q, axis)
	angle = math.Min(hi, math.Max(lo, angle))
	return AxisAngle(axis, angle)
}

// QuatEqual reports whether a and b represent the same rotation within eps.
// q and -q are treated as equal.
func QuatEqual(a, b mgl64.Quat, eps float64) bool {
	if a.ApproxEqualThreshold(b, eps) {
		return true
	}
	return a.ApproxEqualThreshold(mgl64.Quat{W: -b.W, V: b.V.Mul(-1)}, eps)
}
