package manip

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"rig-poser/internal/camera"
)

// DefaultTolerance is the maximum miss distance of a pick, in world units.
const DefaultTolerance = 10

// Selection is the result of a handle pick.
type Selection struct {
	Handle int        // index into the handle slice
	Miss   float64    // perpendicular distance between ray and marker
	Hit    mgl64.Vec3 // ray point closest to the marker
}

// SelectHandle returns the handle whose marker lies nearest to ray, as long
// as the miss distance is strictly below tolerance. On ties the earlier
// handle wins.
func SelectHandle(ray camera.Ray, handles []BoneHandle, tolerance float64) (Selection, bool) {
	best := Selection{Handle: -1, Miss: math.Inf(1)}
	for i := range handles {
		miss, hit := ray.MissDistance(handles[i].Marker)
		if miss < math.Min(tolerance, best.Miss) {
			best = Selection{Handle: i, Miss: miss, Hit: hit}
		}
	}
	return best, best.Handle >= 0
}
