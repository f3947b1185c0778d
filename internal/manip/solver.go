package manip

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/floats/scalar"

	"rig-poser/internal/mathutil"
	"rig-poser/internal/models"
	"rig-poser/internal/skeleton"
)

const sampleEpsilon = 1e-12

// DragDelta converts one smoothed pointer step into a rotation.
//
// prev and next are (screen x, screen y, depth) samples. Both are taken
// relative to pivot, screen Y is flipped to point up, and the depth change
// scaled by orientation becomes the z component of the target direction.
// The result is the shortest arc between the two directions.
func DragDelta(prev, next mgl64.Vec3, pivot mgl64.Vec2, orientation float64) mgl64.Quat {
	if sameSample(prev, next) {
		return mgl64.QuatIdent()
	}
	from := mgl64.Vec3{prev[0] - pivot[0], -(prev[1] - pivot[1]), 0}
	to := mgl64.Vec3{next[0] - pivot[0], -(next[1] - pivot[1]), (prev[2] - next[2]) * orientation}
	return mathutil.ShortestArc(mathutil.NormalizeOrZero(from), mathutil.NormalizeOrZero(to))
}

func sameSample(a, b mgl64.Vec3) bool {
	for i := range a {
		if !scalar.EqualWithinAbs(a[i], b[i], sampleEpsilon) {
			return false
		}
	}
	return true
}

// NudgeDelta is a keyboard rotation of deg degrees about the screen depth axis.
func NudgeDelta(deg float64) mgl64.Quat {
	return mathutil.AxisAngle(mathutil.ScreenDepthAxis, mathutil.Deg2Rad(deg))
}

// ComposeLocal re-expresses a world-space delta as a new local rotation of
// bone:
//
//	new = P⁻¹ · M⁻¹ · delta · M · P · old
//
// where P is the accumulated rotation of the bone's ancestors and M the
// rotation of the whole mesh.
func ComposeLocal(skel *skeleton.Skeleton, bone int, mesh, delta mgl64.Quat) (mgl64.Quat, error) {
	chain, err := skel.Ancestors(bone)
	if err != nil {
		return mgl64.Quat{}, err
	}

	parents, parentsInv := mgl64.QuatIdent(), mgl64.QuatIdent()
	for _, p := range chain {
		r := skel.LocalRotation(p)
		parents = r.Mul(parents)
		parentsInv = parentsInv.Mul(r.Inverse())
	}

	old := skel.LocalRotation(bone)
	q := parentsInv.Mul(mesh.Inverse()).Mul(delta).Mul(mesh).Mul(parents).Mul(old)
	return q.Normalize(), nil
}

// Constrain applies a model's twist limit. A nil constraint returns q.
func Constrain(q mgl64.Quat, c *models.Constraint) mgl64.Quat {
	if c == nil {
		return q
	}
	return mathutil.ClampTwist(q, c.AxisVec(), mathutil.Deg2Rad(c.MinDeg), mathutil.Deg2Rad(c.MaxDeg))
}
