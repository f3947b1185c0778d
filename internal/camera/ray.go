package camera

import "github.com/go-gl/mathgl/mgl64"

// Ray is a half-line with a unit Direction.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// At returns the point t units along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// PlaneIntersectPoint returns where the ray's line crosses the plane with the
// given normal through point. A ray parallel to the plane returns its origin.
func (r Ray) PlaneIntersectPoint(normal, point mgl64.Vec3) mgl64.Vec3 {
	denom := normal.Dot(r.Direction)
	if denom == 0 {
		return r.Origin
	}
	t := normal.Dot(point.Sub(r.Origin)) / denom
	return r.At(t)
}

// MissDistance is the distance between p and the ray's line, measured in the
// plane through p perpendicular to the ray.
func (r Ray) MissDistance(p mgl64.Vec3) (float64, mgl64.Vec3) {
	hit := r.PlaneIntersectPoint(r.Direction, p)
	return hit.Sub(p).Len(), hit
}
