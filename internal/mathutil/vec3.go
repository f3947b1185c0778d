package mathutil

import "github.com/go-gl/mathgl/mgl64"

// NormalizeOrZero returns v scaled to unit length, or the zero vector when v
// is too short to normalise.
func NormalizeOrZero(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// FromFloat32 widens a float32 triple, the layout used by mesh buffers.
func FromFloat32(v [3]float32) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

// IsZero reports whether all components are exactly zero.
func IsZero(v mgl64.Vec3) bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}
