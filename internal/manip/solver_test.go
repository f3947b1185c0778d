package manip

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rig-poser/internal/mathutil"
	"rig-poser/internal/models"
	"rig-poser/internal/skeleton"
)

func TestDragDelta(t *testing.T) {
	t.Parallel()

	pivot := mgl64.Vec2{0, 0}

	t.Run("identical samples give identity", func(t *testing.T) {
		t.Parallel()
		p := mgl64.Vec3{10, 4, 100}
		assert.Equal(t, mgl64.QuatIdent(), DragDelta(p, p, pivot, 1))
	})

	t.Run("quarter turn on screen", func(t *testing.T) {
		t.Parallel()
		// Screen Y grows downwards, so (0,-10) is straight above the pivot.
		q := DragDelta(mgl64.Vec3{10, 0, 100}, mgl64.Vec3{0, -10, 100}, pivot, 1)
		got := q.Rotate(mgl64.Vec3{1, 0, 0})
		want := mgl64.Vec3{0, 1, 0}
		for i := range want {
			assert.InDelta(t, want[i], got[i], 1e-9, "got %v", got)
		}
	})

	t.Run("depth term follows orientation", func(t *testing.T) {
		t.Parallel()
		prev, next := mgl64.Vec3{10, 0, 100}, mgl64.Vec3{10, 0, 90}
		towards := DragDelta(prev, next, pivot, 1).Rotate(mgl64.Vec3{1, 0, 0})
		away := DragDelta(prev, next, pivot, -1).Rotate(mgl64.Vec3{1, 0, 0})
		assert.Greater(t, towards[2], 0.0)
		assert.Less(t, away[2], 0.0)
	})

	t.Run("sample on the pivot", func(t *testing.T) {
		t.Parallel()
		q := DragDelta(mgl64.Vec3{0, 0, 100}, mgl64.Vec3{5, 5, 100}, pivot, 1)
		assert.Equal(t, mgl64.QuatIdent(), q)
	})
}

func TestNudgeDelta(t *testing.T) {
	t.Parallel()

	q := NudgeDelta(2.5)
	assert.InDelta(t, mathutil.Deg2Rad(2.5), mathutil.TwistAngle(q, mathutil.ScreenDepthAxis), 1e-12)
	assert.InDelta(t, -mathutil.Deg2Rad(2.5), mathutil.TwistAngle(NudgeDelta(-2.5), mathutil.ScreenDepthAxis), 1e-12)
}

func TestComposeLocal(t *testing.T) {
	t.Parallel()

	skel, err := skeleton.New([]skeleton.Bone{
		{Name: "root", Parent: skeleton.NoParent, Rotation: eulerXYZ(0.3, 0, 0)},
		{Name: "mid", Parent: 0, Rotation: eulerXYZ(0, 0.7, 0.1)},
		{Name: "leaf", Parent: 1, Rotation: eulerXYZ(0.2, -0.4, 0.9)},
	})
	require.NoError(t, err)

	mesh := eulerXYZ(0, 1.1, 0)
	delta := mathutil.AxisAngle(mgl64.Vec3{1, 2, 3}, 0.5)

	world := func(leaf mgl64.Quat) mgl64.Quat {
		return mesh.Mul(skel.LocalRotation(0)).Mul(skel.LocalRotation(1)).Mul(leaf)
	}

	before := world(skel.LocalRotation(2))
	q, err := ComposeLocal(skel, 2, mesh, delta)
	require.NoError(t, err)
	after := world(q)

	assert.True(t, mathutil.QuatEqual(delta.Mul(before), after, 1e-9))
	assert.InDelta(t, 1, q.Len(), 1e-12)

	t.Run("identity delta keeps the rotation", func(t *testing.T) {
		t.Parallel()
		q, err := ComposeLocal(skel, 2, mesh, mgl64.QuatIdent())
		require.NoError(t, err)
		assert.True(t, mathutil.QuatEqual(skel.LocalRotation(2), q, 1e-9))
	})
}

func TestConstrain(t *testing.T) {
	t.Parallel()

	c := &models.Constraint{Axis: [3]float64{0, 0, 1}, MinDeg: -90, MaxDeg: 60}
	z := mgl64.Vec3{0, 0, 1}

	cases := []struct {
		name  string
		in    mgl64.Quat
		wantD float64
	}{
		{"half turn clamps to max", mgl64.QuatRotate(math.Pi, z), 60},
		{"inside the range", mgl64.QuatRotate(mathutil.Deg2Rad(30), z), 30},
		{"below the range", mgl64.QuatRotate(mathutil.Deg2Rad(-120), z), -90},
		{"swing is dropped", eulerXYZ(0.5, 0, mathutil.Deg2Rad(20)), 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Constrain(tc.in, c)
			want := mgl64.QuatRotate(mathutil.Deg2Rad(tc.wantD), z)
			assert.True(t, mathutil.QuatEqual(want, got, 1e-9), "got %v want %v", got, want)
		})
	}

	q := eulerXYZ(0.1, 0.2, 0.3)
	assert.Equal(t, q, Constrain(q, nil))
}
