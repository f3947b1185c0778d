package manip

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rig-poser/internal/mathutil"
	"rig-poser/internal/models"
)

var armAndTail = models.Profile{Bones: []string{"arm", "tail"}}

func TestEngineClickToggles(t *testing.T) {
	t.Parallel()

	e, n := newTestEngine(t, armAndTail)

	// Without capture a press alone does nothing.
	assert.False(t, e.Handle(down(0, 20, 0)).Consumed)
	eff := e.Handle(up(50, 20, 0))
	require.NotNil(t, eff.Started)
	assert.True(t, eff.Consumed)
	assert.Equal(t, Tracking, e.State())
	assert.Equal(t, 0, e.Target())
	assert.True(t, e.Handles()[0].Highlighted)

	require.Len(t, n.starts, 1)
	assert.Equal(t, "arm", n.starts[0].Name)
	assert.Equal(t, 1, n.starts[0].Bone)
	assert.Equal(t, 2, n.starts[0].HandleBone)
	assert.Equal(t, mgl64.Vec3{20, 0, 100}, n.starts[0].Sample)
	assert.Equal(t, at(50), n.starts[0].Time)

	e.Handle(down(100, 20, 0))
	eff = e.Handle(up(150, 21, 0))
	require.NotNil(t, eff.Ended)
	assert.Equal(t, Idle, e.State())
	assert.False(t, e.Handles()[0].Highlighted)
	require.Len(t, n.ends, 1)
	assert.Equal(t, at(150), n.ends[0].Time)
}

func TestEngineEndIsIdempotent(t *testing.T) {
	t.Parallel()

	e, n := newTestEngine(t, armAndTail)
	e.Handle(KeyDown{Key: KeyControl})
	require.NotNil(t, e.Handle(down(0, 20, 0)).Started)

	assert.NotNil(t, e.Reset(at(700)).Ended)
	assert.Nil(t, e.Reset(at(800)).Ended)
	assert.Nil(t, e.Handle(up(900, 90, 90)).Ended)
	require.Len(t, n.ends, 1)
	assert.Equal(t, at(700), n.ends[0].Time)
	assert.Equal(t, Idle, e.State())
}

func TestEngineMiss(t *testing.T) {
	t.Parallel()

	e, n := newTestEngine(t, armAndTail)
	e.Handle(down(0, 200, 200))
	eff := e.Handle(up(20, 200, 200))
	assert.Nil(t, eff.Started)
	assert.False(t, eff.Consumed)
	assert.Equal(t, Idle, e.State())
	assert.Empty(t, n.starts)
}

func TestEngineCaptureDrag(t *testing.T) {
	t.Parallel()

	e, n := newTestEngine(t, armAndTail)
	m := e.Model()
	handBefore := m.Meshes[0].World[2]

	assert.True(t, e.Handle(KeyDown{Key: KeyControl}).Consumed)
	assert.True(t, e.Capture())
	require.NotNil(t, e.Handle(down(0, 20, 0)).Started)

	// The first move computes the pivot itself: no Update has run yet.
	eff := e.Handle(move(10, 20, 10))
	require.NoError(t, eff.Err)
	assert.True(t, eff.Consumed)
	assert.True(t, eff.Rotated)

	pivot, ok := e.Pivot()
	require.True(t, ok)
	assert.InDelta(t, 10, pivot[0], 1e-12)
	assert.InDelta(t, -5, pivot[1], 1e-12)

	assert.False(t, mathutil.QuatEqual(mgl64.QuatIdent(), m.Skeleton.LocalRotation(1), 1e-9))
	assert.False(t, handBefore.ApproxEqualThreshold(m.Meshes[0].World[2], 1e-9))
	// Only the handled bone is rotated.
	assert.Equal(t, mgl64.QuatIdent(), m.Skeleton.LocalRotation(0))
	assert.Equal(t, mgl64.QuatIdent(), m.Skeleton.LocalRotation(2))

	require.NoError(t, e.Update())
	assert.NotEqual(t, mgl64.Vec3{20, 0, 0}, e.Handles()[0].Marker)

	eff = e.Handle(up(500, 20, 30))
	require.NotNil(t, eff.Ended)
	assert.Len(t, n.ends, 1)

	e.Handle(KeyUp{Key: KeyControl})
	assert.False(t, e.Capture())
	assert.False(t, e.Handle(move(600, 40, 40)).Consumed)
}

func TestEngineRootHandle(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, models.Profile{Bones: []string{"root"}})
	e.Handle(KeyDown{Key: KeyControl})
	require.NotNil(t, e.Handle(down(0, 20, 0)).Started)

	eff := e.Handle(move(10, 25, 5))
	require.Error(t, eff.Err)
	assert.True(t, errors.Is(eff.Err, ErrRootHandle))
	assert.Equal(t, Tracking, e.State())

	eff = e.Handle(move(20, 30, 10))
	assert.NoError(t, eff.Err)
	assert.False(t, eff.Rotated)
	assert.Equal(t, mgl64.QuatIdent(), e.Model().Skeleton.LocalRotation(0))

	_, ok := e.Pivot()
	assert.False(t, ok)
}

func TestEngineNudge(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, armAndTail)
	assert.False(t, e.Handle(KeyDown{Key: KeyArrowUp}).Consumed)

	e.Handle(down(0, 20, 0))
	require.NotNil(t, e.Handle(up(10, 20, 0)).Started)

	eff := e.Handle(KeyDown{Key: KeyArrowUp})
	assert.True(t, eff.Rotated)
	arm := e.Model().Skeleton.LocalRotation(1)
	assert.True(t, mathutil.QuatEqual(NudgeDelta(2.5), arm, 1e-9))

	e.Handle(KeyDown{Key: KeyArrowLeft})
	arm = e.Model().Skeleton.LocalRotation(1)
	assert.True(t, mathutil.QuatEqual(mgl64.QuatIdent(), arm, 1e-9))

	assert.False(t, e.Handle(KeyDown{Key: KeyOther}).Consumed)
}

func TestEngineConstraint(t *testing.T) {
	t.Parallel()

	profile := models.Profile{
		Bones:      []string{"arm"},
		Constraint: &models.Constraint{Axis: [3]float64{0, 0, 1}, MinDeg: -90, MaxDeg: 60},
	}
	e, _ := newTestEngine(t, profile)
	e.Handle(down(0, 20, 0))
	require.NotNil(t, e.Handle(up(10, 20, 0)).Started)

	for i := 0; i < 40; i++ {
		e.Handle(KeyDown{Key: KeyArrowRight})
	}
	twist := mathutil.TwistAngle(e.Model().Skeleton.LocalRotation(1), mgl64.Vec3{0, 0, 1})
	assert.InDelta(t, 60, mathutil.Rad2Deg(twist), 1e-6)
}

func TestEngineModelRotation(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, armAndTail)
	press := down(0, 0, 0)
	press.Button = ButtonSecondary
	assert.True(t, e.Handle(press).Consumed)

	eff := e.Handle(move(10, 10, 0))
	assert.True(t, eff.Rotated)
	want := mgl64.QuatRotate(mgl64.DegToRad(10), mgl64.Vec3{0, 1, 0})
	assert.True(t, mathutil.QuatEqual(want, e.Model().Rotation, 1e-9))

	release := up(20, 10, 0)
	release.Button = ButtonSecondary
	e.Handle(release)
	assert.False(t, e.Handle(move(30, 50, 0)).Consumed)
	assert.Equal(t, Idle, e.State())
}

func TestEngineRestartDiscardsSession(t *testing.T) {
	t.Parallel()

	e, n := newTestEngine(t, armAndTail)
	e.Handle(KeyDown{Key: KeyControl})
	require.NotNil(t, e.Handle(down(0, 20, 0)).Started)
	require.NotNil(t, e.Handle(down(10, 0, -10)).Started)

	assert.Equal(t, 1, e.Target())
	assert.Len(t, n.starts, 2)
	assert.Empty(t, n.ends)
	hs := e.Handles()
	assert.False(t, hs[0].Highlighted)
	assert.True(t, hs[1].Highlighted)

	// A press that misses drops the session silently.
	assert.Nil(t, e.Handle(down(20, 300, 300)).Started)
	assert.Equal(t, Idle, e.State())
	assert.Empty(t, n.ends)
	assert.False(t, e.Handles()[1].Highlighted)
}

func TestEnginePickOnPress(t *testing.T) {
	t.Parallel()

	e, err := New(testModel(t), orthoProjector{}, models.Profile{ID: "test", Bones: []string{"arm"}}, Options{PickOnPress: true})
	require.NoError(t, err)
	assert.True(t, e.IsBoneTarget(mgl64.Vec2{22, 1}))
	assert.False(t, e.IsBoneTarget(mgl64.Vec2{60, 60}))

	eff := e.Handle(down(0, 22, 1))
	require.NotNil(t, eff.Started)
	eff = e.Handle(move(30, 40, 40))
	assert.True(t, eff.Rotated)
	assert.NotNil(t, e.Handle(up(300, 40, 40)).Ended)
}

func TestNewConfigError(t *testing.T) {
	t.Parallel()

	_, err := New(testModel(t), orthoProjector{}, models.Profile{ID: "dog", Bones: []string{"尻尾1"}}, Options{})
	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, models.ID("dog"), cerr.Model)
}

func TestEngineTargetReadableDuringHandle(t *testing.T) {
	t.Parallel()

	e, n := newTestEngine(t, armAndTail)
	e.Handle(KeyDown{Key: KeyControl})

	var (
		wg      sync.WaitGroup
		stop    atomic.Bool
		reads   atomic.Int64
		invalid atomic.Int64
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			if target := e.Target(); target < -1 || target >= len(armAndTail.Bones) {
				invalid.Add(1)
			}
			_ = e.State()
			reads.Add(1)
			if stop.Load() {
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		ms := i * 1000
		e.Handle(down(ms, 20, 0))
		e.Handle(move(ms+16, 20, 0))
		e.Handle(up(ms+400, 20, 0))
	}
	stop.Store(true)
	wg.Wait()

	assert.Zero(t, invalid.Load())
	assert.Positive(t, reads.Load())
	assert.Len(t, n.starts, 200)
	assert.Len(t, n.ends, 200)
	assert.Equal(t, -1, e.Target())
}
