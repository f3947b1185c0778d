// Package camera maps between world space and window pixels for a
// perspective camera. Window coordinates have their origin at the top-left
// corner with Y growing downwards, matching pointer events.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Viewport is the window rectangle the camera renders into, in pixels.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// Camera is a look-at perspective camera.
type Camera struct {
	Eye    mgl64.Vec3
	Target mgl64.Vec3
	Up     mgl64.Vec3

	FovY      float64 // degrees
	Near, Far float64

	Viewport Viewport
}

// New returns the editor's default camera: placed at (3,3,3) looking at the
// origin with a 90° vertical field of view.
func New(width, height int) *Camera {
	return &Camera{
		Eye:      mgl64.Vec3{3, 3, 3},
		Target:   mgl64.Vec3{0, 0, 0},
		Up:       mgl64.Vec3{0, 1, 0},
		FovY:     90,
		Near:     0.1,
		Far:      100,
		Viewport: Viewport{Width: width, Height: height},
	}
}

// Orbit places the eye on a sphere around target.
// Pitch rotates about X, yaw about Y, both in degrees.
func (c *Camera) Orbit(target mgl64.Vec3, distance, pitch, yaw float64) {
	p, y := mgl64.DegToRad(pitch), mgl64.DegToRad(yaw)
	c.Target = target
	c.Eye = mgl64.Vec3{
		distance * math.Cos(p) * math.Sin(y),
		distance * math.Sin(p),
		distance * math.Cos(p) * math.Cos(y),
	}.Add(target)
}

// View returns the world-to-camera matrix.
func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Eye, c.Target, c.Up)
}

// Projection returns the perspective matrix for the current viewport.
func (c *Camera) Projection() mgl64.Mat4 {
	aspect := 1.0
	if c.Viewport.Height > 0 {
		aspect = float64(c.Viewport.Width) / float64(c.Viewport.Height)
	}
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// Project maps a world-space point to window pixels.
func (c *Camera) Project(world mgl64.Vec3) mgl64.Vec2 {
	vp := c.Viewport
	win := mgl64.Project(world, c.View(), c.Projection(), vp.X, vp.Y, vp.Width, vp.Height)
	return mgl64.Vec2{win[0], c.flipY(win[1])}
}

// Ray returns the ray from the near plane through the window point.
func (c *Camera) Ray(screen mgl64.Vec2) Ray {
	vp := c.Viewport
	view, proj := c.View(), c.Projection()
	y := c.flipY(screen[1])

	near, errNear := mgl64.UnProject(mgl64.Vec3{screen[0], y, 0}, view, proj, vp.X, vp.Y, vp.Width, vp.Height)
	far, errFar := mgl64.UnProject(mgl64.Vec3{screen[0], y, 1}, view, proj, vp.X, vp.Y, vp.Width, vp.Height)
	dir := far.Sub(near)
	if errNear != nil || errFar != nil || dir.Len() < 1e-12 {
		return Ray{Origin: c.Eye, Direction: c.Target.Sub(c.Eye).Normalize()}
	}
	return Ray{Origin: near, Direction: dir.Normalize()}
}

// flipY converts between bottom-up GL window Y and top-down pointer Y.
// The mapping is its own inverse.
func (c *Camera) flipY(y float64) float64 {
	vp := c.Viewport
	return float64(2*vp.Y+vp.Height) - y
}

// Frame points the camera at the centroid of points, pulled back far
// enough to see all of them, and fits the clip planes around them.
func (c *Camera) Frame(points []mgl64.Vec3) {
	if len(points) == 0 {
		return
	}
	var sum mgl64.Vec3
	for _, p := range points {
		sum = sum.Add(p)
	}
	center := sum.Mul(1 / float64(len(points)))

	radius := 0.0
	for _, p := range points {
		radius = math.Max(radius, p.Sub(center).Len())
	}
	if radius < 1e-6 {
		radius = 1
	}

	dist := radius / math.Tan(mgl64.DegToRad(c.FovY)/2) * 1.6
	c.Orbit(center, dist, 15, 0)
	c.Near = dist / 100
	c.Far = dist + radius*4
}
