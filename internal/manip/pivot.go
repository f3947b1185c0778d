package manip

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"rig-poser/internal/mathutil"
	"rig-poser/internal/skeleton"
)

// EstimatePivot returns the screen point the drag rotates around.
//
// It is the midpoint of the projected marker and the projected parent
// centroid, shifted by the offset between the marker and the point the
// operator actually grabbed. The parent is the handle bone's parent; when
// that parent has no skinned vertices the nearest weighted ancestor is used.
func EstimatePivot(proj Projector, skel *skeleton.Skeleton, centers []mgl64.Vec3, h BoneHandle, grab mgl64.Vec2) (mgl64.Vec2, error) {
	parent := skel.Parent(h.Bone)
	if parent == skeleton.NoParent {
		return mgl64.Vec2{}, errors.Wrapf(ErrRootHandle, "handle %q", h.Name)
	}
	for depth := 0; depth < skeleton.MaxDepth && mathutil.IsZero(centers[parent]); depth++ {
		up := skel.Parent(parent)
		if up == skeleton.NoParent {
			break
		}
		parent = up
	}

	marker := proj.Project(centers[h.HandleBone])
	base := proj.Project(centers[parent])
	shift := marker.Sub(grab)
	return marker.Add(base).Mul(0.5).Sub(shift), nil
}
