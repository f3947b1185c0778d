package manip

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// MouseDepth is the constant depth reported for mouse and touch samples.
const MouseDepth = 100

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// Key identifies the keys the engine reacts to.
type Key int

const (
	KeyOther Key = iota
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyControl
)

// Event is one input event. The concrete types are PointerDown,
// PointerMove, PointerUp, KeyDown and KeyUp.
type Event interface {
	isEvent()
}

// Pointer is the shared payload of pointer events. Pos is in window pixels
// with the origin at the top-left; Depth is the sensor depth, or MouseDepth.
type Pointer struct {
	Time   time.Time
	Pos    mgl64.Vec2
	Depth  float64
	Button Button
}

// Sample returns the (x, y, depth) vector fed to the smoother.
func (p Pointer) Sample() mgl64.Vec3 {
	return mgl64.Vec3{p.Pos[0], p.Pos[1], p.Depth}
}

type (
	PointerDown struct{ Pointer }
	PointerMove struct{ Pointer }
	PointerUp   struct{ Pointer }
	KeyDown     struct{ Key Key }
	KeyUp       struct{ Key Key }
)

func (PointerDown) isEvent() {}
func (PointerMove) isEvent() {}
func (PointerUp) isEvent()   {}
func (KeyDown) isEvent()     {}
func (KeyUp) isEvent()       {}

// MouseTiming records where and when a button went down.
type MouseTiming struct {
	Time time.Time
	Pos  mgl64.Vec2
}

// Click thresholds.
const (
	DefaultClickMaxDuration = 200 * time.Millisecond
	DefaultClickMaxDistance = 3
)

// IsClick reports whether a press/release pair is a click: released within
// maxDur and strictly less than maxDist pixels away.
func IsClick(down, up MouseTiming, maxDur time.Duration, maxDist float64) bool {
	return up.Time.Sub(down.Time) < maxDur && up.Pos.Sub(down.Pos).Len() < maxDist
}
