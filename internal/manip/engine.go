// Package manip turns pointer and keyboard input into bone rotations of a
// skinned model: picking a handle, tracking a pinch, estimating a pivot and
// composing the resulting rotation into the bone hierarchy.
package manip

import (
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"rig-poser/internal/camera"
	"rig-poser/internal/models"
	"rig-poser/internal/monitoring"
	"rig-poser/internal/skeleton"
)

// Projector maps between world space and window pixels.
type Projector interface {
	Project(world mgl64.Vec3) mgl64.Vec2
	Ray(screen mgl64.Vec2) camera.Ray
}

// Classifier decides whether a press at pos may start a pinch without the
// capture modifier being held.
type Classifier interface {
	IsBoneTarget(pos mgl64.Vec2) bool
}

// Options tunes an Engine. Zero fields take the package defaults.
type Options struct {
	Tolerance        float64
	SmoothingDepth   int
	ClickMaxDuration time.Duration
	ClickMaxDistance float64
	NudgeDeg         float64
	Sensitivity      float64 // model rotation, degrees per pixel
	DepthOrientation float64 // sign of the depth term, +1 or -1

	// PickOnPress lets a press directly over a handle start a pinch.
	// Ignored when Classifier is set.
	PickOnPress bool
	Classifier  Classifier
	Notifier    Notifier
}

func (o *Options) withDefaults() {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.SmoothingDepth <= 0 {
		o.SmoothingDepth = DefaultSmoothingDepth
	}
	if o.ClickMaxDuration <= 0 {
		o.ClickMaxDuration = DefaultClickMaxDuration
	}
	if o.ClickMaxDistance <= 0 {
		o.ClickMaxDistance = DefaultClickMaxDistance
	}
	if o.NudgeDeg == 0 {
		o.NudgeDeg = 2.5
	}
	if o.Sensitivity <= 0 {
		o.Sensitivity = 1
	}
	if o.DepthOrientation == 0 {
		o.DepthOrientation = 1
	}
	if o.Notifier == nil {
		o.Notifier = nopNotifier{}
	}
}

// State of the gesture machine.
type State int

const (
	Idle State = iota
	Tracking
)

func (s State) String() string {
	if s == Tracking {
		return "tracking"
	}
	return "idle"
}

// Effect reports what handling one event did.
type Effect struct {
	Consumed bool
	Started  *PinchEvent
	Ended    *PinchEvent
	Rotated  bool
	Err      error
}

type session struct {
	prev    mgl64.Vec3 // last smoothed sample
	grab    mgl64.Vec2 // where the pinch started on screen
	pivot   mgl64.Vec2
	pivotOK bool
}

// Engine is the bone manipulation state machine.
//
// Handle, Update and Reset must be called from a single goroutine, normally
// the frame loop draining a Queue. Target and State may be read from any
// goroutine.
type Engine struct {
	opts       Options
	model      *skeleton.Model
	proj       Projector
	profile    models.ID
	constraint *models.Constraint
	handles    []BoneHandle
	smoother   *Smoother

	target atomic.Int32 // handle index, -1 when idle
	dirty  atomic.Bool  // pivot must be recomputed

	capture  bool
	down     MouseTiming
	rotating bool
	rotPrev  mgl64.Vec2
	session  session
}

// New builds an Engine for model using the handle bones of profile.
// A profile that does not match the skeleton yields a *ConfigError.
func New(model *skeleton.Model, proj Projector, profile models.Profile, opts Options) (*Engine, error) {
	opts.withDefaults()
	handles, err := NewHandles(profile.ID, model.Skeleton, model.BoneWeights(), profile.Bones)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		opts:       opts,
		model:      model,
		proj:       proj,
		profile:    profile.ID,
		constraint: profile.Constraint,
		handles:    handles,
		smoother:   NewSmoother(opts.SmoothingDepth),
	}
	if e.opts.Classifier == nil && e.opts.PickOnPress {
		e.opts.Classifier = e
	}
	e.target.Store(-1)
	placeMarkers(e.handles, model.BoneCenters())
	return e, nil
}

// Model returns the manipulated model.
func (e *Engine) Model() *skeleton.Model { return e.model }

// Handles returns a copy of the handles with their current markers.
func (e *Engine) Handles() []BoneHandle {
	return append([]BoneHandle(nil), e.handles...)
}

// Target returns the index of the tracked handle, or -1.
func (e *Engine) Target() int { return int(e.target.Load()) }

// State returns Tracking while a pinch is active.
func (e *Engine) State() State {
	if e.Target() >= 0 {
		return Tracking
	}
	return Idle
}

// Capture reports whether the capture modifier is held.
func (e *Engine) Capture() bool { return e.capture }

// Pivot returns the current rotation centre, if one has been estimated.
func (e *Engine) Pivot() (mgl64.Vec2, bool) {
	return e.session.pivot, e.State() == Tracking && e.session.pivotOK
}

// IsBoneTarget reports whether a handle lies under pos.
func (e *Engine) IsBoneTarget(pos mgl64.Vec2) bool {
	_, ok := SelectHandle(e.proj.Ray(pos), e.handles, e.opts.Tolerance)
	return ok
}

// Handle applies one input event.
func (e *Engine) Handle(ev Event) Effect {
	switch ev := ev.(type) {
	case PointerDown:
		return e.pointerDown(ev.Pointer)
	case PointerMove:
		if e.rotating {
			return e.rotateModel(ev.Pos)
		}
		if e.State() == Tracking {
			return e.movePinch(ev.Pointer)
		}
	case PointerUp:
		return e.pointerUp(ev.Pointer)
	case KeyDown:
		return e.keyDown(ev.Key)
	case KeyUp:
		if ev.Key == KeyControl {
			e.capture = false
			return Effect{Consumed: true}
		}
	}
	return Effect{}
}

func (e *Engine) pointerDown(p Pointer) Effect {
	if p.Button == ButtonSecondary {
		e.rotating = true
		e.rotPrev = p.Pos
		return Effect{Consumed: true}
	}

	var eff Effect
	if e.capture || (e.opts.Classifier != nil && e.opts.Classifier.IsBoneTarget(p.Pos)) {
		eff = e.startPinch(p)
		eff.Consumed = true
	}
	e.down = MouseTiming{Time: p.Time, Pos: p.Pos}
	return eff
}

func (e *Engine) pointerUp(p Pointer) Effect {
	if p.Button == ButtonSecondary {
		e.rotating = false
		return Effect{Consumed: true}
	}

	up := MouseTiming{Time: p.Time, Pos: p.Pos}
	if IsClick(e.down, up, e.opts.ClickMaxDuration, e.opts.ClickMaxDistance) {
		if e.State() == Tracking {
			return e.endPinch(p.Time, p.Sample())
		}
		eff := e.startPinch(p)
		eff.Consumed = eff.Started != nil
		return eff
	}
	if e.State() == Tracking {
		return e.endPinch(p.Time, p.Sample())
	}
	return Effect{}
}

func (e *Engine) keyDown(k Key) Effect {
	var deg float64
	switch k {
	case KeyControl:
		e.capture = true
		return Effect{Consumed: true}
	case KeyArrowUp, KeyArrowRight:
		deg = e.opts.NudgeDeg
	case KeyArrowDown, KeyArrowLeft:
		deg = -e.opts.NudgeDeg
	default:
		return Effect{}
	}
	if e.State() != Tracking {
		return Effect{}
	}
	err := e.rotateTarget(NudgeDelta(deg))
	return Effect{Consumed: true, Rotated: err == nil, Err: err}
}

// startPinch picks the handle under p. A pinch already in progress is
// discarded without an end notification.
func (e *Engine) startPinch(p Pointer) Effect {
	if prev := e.Target(); prev >= 0 {
		e.handles[prev].Highlighted = false
	}

	sel, ok := SelectHandle(e.proj.Ray(p.Pos), e.handles, e.opts.Tolerance)
	if !ok {
		e.target.Store(-1)
		e.dirty.Store(false)
		e.smoother.Reset()
		return Effect{}
	}

	sample := p.Sample()
	e.smoother.Seed(sample)
	e.session = session{prev: sample, grab: p.Pos}
	e.handles[sel.Handle].Highlighted = true
	e.target.Store(int32(sel.Handle))
	e.dirty.Store(true)

	pe := e.pinchEvent(p.Time, sample, sel.Handle)
	e.opts.Notifier.PinchStarted(pe)
	return Effect{Started: &pe}
}

func (e *Engine) movePinch(p Pointer) Effect {
	mean, ok := e.smoother.Push(p.Sample())
	if !ok {
		return Effect{Consumed: true}
	}
	if err := e.ensurePivot(); err != nil {
		return Effect{Consumed: true, Err: err}
	}
	if !e.session.pivotOK {
		e.session.prev = mean
		return Effect{Consumed: true}
	}

	delta := DragDelta(e.session.prev, mean, e.session.pivot, e.opts.DepthOrientation)
	e.session.prev = mean
	err := e.rotateTarget(delta)
	return Effect{Consumed: true, Rotated: err == nil, Err: err}
}

// endPinch leaves Tracking. Calling it while idle does nothing.
func (e *Engine) endPinch(t time.Time, sample mgl64.Vec3) Effect {
	idx := int(e.target.Swap(-1))
	if idx < 0 {
		return Effect{}
	}
	e.dirty.Store(false)
	e.handles[idx].Highlighted = false
	e.smoother.Reset()
	e.session.pivotOK = false

	pe := e.pinchEvent(t, sample, idx)
	e.opts.Notifier.PinchEnded(pe)
	return Effect{Consumed: true, Ended: &pe}
}

// Reset ends any active pinch at time t and stops a model rotation drag.
func (e *Engine) Reset(t time.Time) Effect {
	e.rotating = false
	e.capture = false
	return e.endPinch(t, e.session.prev)
}

// Update refreshes the handle markers from the current pose and computes
// the pivot of a freshly started pinch. Call once per frame.
func (e *Engine) Update() error {
	placeMarkers(e.handles, e.model.BoneCenters())
	return e.ensurePivot()
}

// Frame drains q and then runs Update, so events queued before a frame are
// always applied before its update.
func (e *Engine) Frame(q *Queue) ([]Effect, error) {
	effects := q.Drain(e)
	return effects, e.Update()
}

func (e *Engine) ensurePivot() error {
	if !e.dirty.CompareAndSwap(true, false) {
		return nil
	}
	idx := e.Target()
	if idx < 0 {
		return nil
	}

	h := e.handles[idx]
	pivot, err := EstimatePivot(e.proj, e.model.Skeleton, e.model.BoneCenters(), h, e.session.grab)
	if err != nil {
		e.session.pivotOK = false
		monitoring.Logf("manip: %s: pivot for %q: %v", e.profile, h.Name, err)
		return err
	}
	e.session.pivot = pivot
	e.session.pivotOK = true
	return nil
}

func (e *Engine) rotateTarget(delta mgl64.Quat) error {
	idx := e.Target()
	if idx < 0 {
		return nil
	}
	bone := e.handles[idx].Bone
	skel := e.model.Skeleton

	q, err := ComposeLocal(skel, bone, e.model.Rotation, delta)
	if err != nil {
		return err
	}
	skel.SetLocalRotation(bone, Constrain(q, e.constraint))
	e.model.ApplyBoneMotion()
	return nil
}

func (e *Engine) rotateModel(pos mgl64.Vec2) Effect {
	d := pos.Sub(e.rotPrev)
	e.rotPrev = pos
	e.model.Yaw(d[0] * e.opts.Sensitivity)
	e.model.Pitch(d[1] * e.opts.Sensitivity)
	e.model.ApplyBoneMotion()
	return Effect{Consumed: true, Rotated: true}
}

func (e *Engine) pinchEvent(t time.Time, sample mgl64.Vec3, idx int) PinchEvent {
	h := e.handles[idx]
	return PinchEvent{
		Time:       t,
		Sample:     sample,
		Handle:     idx,
		Bone:       h.Bone,
		HandleBone: h.HandleBone,
		Name:       h.Name,
	}
}
