package manip

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"rig-poser/internal/camera"
	"rig-poser/internal/models"
	"rig-poser/internal/skeleton"
)

// orthoProjector looks down -Z with world units equal to pixels.
type orthoProjector struct{}

func (orthoProjector) Project(w mgl64.Vec3) mgl64.Vec2 { return mgl64.Vec2{w[0], w[1]} }

func (orthoProjector) Ray(s mgl64.Vec2) camera.Ray {
	return camera.Ray{Origin: mgl64.Vec3{s[0], s[1], 100}, Direction: mgl64.Vec3{0, 0, -1}}
}

// eulerXYZ builds the rotation Rz·Ry·Rx from radians.
func eulerXYZ(rx, ry, rz float64) mgl64.Quat {
	cx, sx := math.Cos(rx*0.5), math.Sin(rx*0.5)
	cy, sy := math.Cos(ry*0.5), math.Sin(ry*0.5)
	cz, sz := math.Cos(rz*0.5), math.Sin(rz*0.5)
	return mgl64.Quat{
		W: cx*cy*cz + sx*sy*sz,
		V: mgl64.Vec3{
			sx*cy*cz - cx*sy*sz,
			cx*sy*cz + sx*cy*sz,
			cx*cy*sz - sx*sy*cz,
		},
	}
}

// testModel is root -> arm -> hand plus an unskinned root -> tail.
// Bone centers: root (0,-10,0), arm (5,0,0), hand (20,0,0), tail zero.
func testModel(t *testing.T) *skeleton.Model {
	t.Helper()
	skel, err := skeleton.New([]skeleton.Bone{
		{Name: "root", Parent: skeleton.NoParent},
		{Name: "arm", Parent: 0},
		{Name: "hand", Parent: 1, BindPosition: mgl64.Vec3{10, 0, 0}},
		{Name: "tail", Parent: 0},
	})
	require.NoError(t, err)

	one := func(bone int) [4]skeleton.Influence {
		return [4]skeleton.Influence{{Bone: bone, Weight: 1}}
	}
	mesh := skeleton.Mesh{
		Name:       "body",
		Bind:       []mgl64.Vec3{{0, -10, 0}, {5, 0, 0}, {15, 0, 0}, {25, 0, 0}},
		Influences: [][4]skeleton.Influence{one(0), one(1), one(2), one(2)},
	}
	return skeleton.NewModel("test", skel, []skeleton.Mesh{mesh})
}

type recordingNotifier struct {
	starts []PinchEvent
	ends   []PinchEvent
}

func (r *recordingNotifier) PinchStarted(ev PinchEvent) { r.starts = append(r.starts, ev) }
func (r *recordingNotifier) PinchEnded(ev PinchEvent)   { r.ends = append(r.ends, ev) }

func newTestEngine(t *testing.T, profile models.Profile) (*Engine, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	if profile.ID == "" {
		profile.ID = "test"
	}
	e, err := New(testModel(t), orthoProjector{}, profile, Options{Notifier: n})
	require.NoError(t, err)
	return e, n
}

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return epoch.Add(time.Duration(ms) * time.Millisecond) }

func down(ms int, x, y float64) PointerDown {
	return PointerDown{Pointer{Time: at(ms), Pos: mgl64.Vec2{x, y}, Depth: MouseDepth}}
}

func move(ms int, x, y float64) PointerMove {
	return PointerMove{Pointer{Time: at(ms), Pos: mgl64.Vec2{x, y}, Depth: MouseDepth}}
}

func up(ms int, x, y float64) PointerUp {
	return PointerUp{Pointer{Time: at(ms), Pos: mgl64.Vec2{x, y}, Depth: MouseDepth}}
}
