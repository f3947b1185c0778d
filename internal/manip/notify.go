package manip

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"rig-poser/internal/monitoring"
)

// PinchEvent describes the start or end of a pinch session.
type PinchEvent struct {
	Time       time.Time
	Sample     mgl64.Vec3 // (x, y, depth) pointer sample
	Handle     int
	Bone       int
	HandleBone int
	Name       string
}

// Notifier receives pinch boundaries. Calls are made from the goroutine
// driving the Engine.
type Notifier interface {
	PinchStarted(ev PinchEvent)
	PinchEnded(ev PinchEvent)
}

// Notifiers fans out to every notifier in order.
type Notifiers []Notifier

func (ns Notifiers) PinchStarted(ev PinchEvent) {
	for _, n := range ns {
		n.PinchStarted(ev)
	}
}

func (ns Notifiers) PinchEnded(ev PinchEvent) {
	for _, n := range ns {
		n.PinchEnded(ev)
	}
}

// LogNotifier writes pinch boundaries to the process logger.
type LogNotifier struct{}

func (LogNotifier) PinchStarted(ev PinchEvent) {
	monitoring.Logf("pinch start: %s (bone %d) at %.1f,%.1f depth %.1f", ev.Name, ev.Bone, ev.Sample[0], ev.Sample[1], ev.Sample[2])
}

func (LogNotifier) PinchEnded(ev PinchEvent) {
	monitoring.Logf("pinch end: %s (bone %d) at %.1f,%.1f depth %.1f", ev.Name, ev.Bone, ev.Sample[0], ev.Sample[1], ev.Sample[2])
}

type nopNotifier struct{}

func (nopNotifier) PinchStarted(PinchEvent) {}
func (nopNotifier) PinchEnded(PinchEvent)   {}
