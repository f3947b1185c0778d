package manip

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"

	"rig-poser/internal/models"
	"rig-poser/internal/skeleton"
)

// Marker colours. The active handle is drawn fully saturated.
var (
	MarkerIdle   = color.NRGBA{R: 204, G: 128, B: 128, A: 204}
	MarkerActive = color.NRGBA{R: 255, G: 128, B: 128, A: 204}
)

// BoneHandle is a pickable marker bound to one named bone.
//
// Bone is the bone the handle rotates. HandleBone is the bone whose skinned
// centroid positions the marker: the deepest first-child descendant of
// Bone, or the nearest ancestor of it with skinned vertices.
type BoneHandle struct {
	Name        string
	Bone        int
	HandleBone  int
	Marker      mgl64.Vec3
	Highlighted bool
}

// Color returns the marker colour for the handle's highlight state.
func (h BoneHandle) Color() color.NRGBA {
	if h.Highlighted {
		return MarkerActive
	}
	return MarkerIdle
}

// NewHandles resolves the profile's bone names against skel. weights holds
// the total skin weight per bone. Handles are returned in profile order.
func NewHandles(id models.ID, skel *skeleton.Skeleton, weights []float64, names []string) ([]BoneHandle, error) {
	if len(names) == 0 {
		return nil, &ConfigError{Model: id, Reason: "no handle bones configured"}
	}

	handles := make([]BoneHandle, 0, len(names))
	for _, name := range names {
		bone, ok := skel.BoneByName(name)
		if !ok {
			return nil, &ConfigError{Model: id, Bone: name, Reason: "bone not found in skeleton"}
		}

		hb := skel.DeepestFirstChild(bone)
		for depth := 0; weightOf(weights, hb) <= 0; depth++ {
			hb = skel.Parent(hb)
			if hb == skeleton.NoParent || depth >= skeleton.MaxDepth {
				return nil, &ConfigError{Model: id, Bone: name, Reason: "no skinned vertices on bone chain"}
			}
		}

		handles = append(handles, BoneHandle{Name: name, Bone: bone, HandleBone: hb})
	}
	return handles, nil
}

func weightOf(weights []float64, id int) float64 {
	if id < 0 || id >= len(weights) {
		return 0
	}
	return weights[id]
}

// placeMarkers moves each marker onto its handle bone's centroid.
func placeMarkers(handles []BoneHandle, centers []mgl64.Vec3) {
	for i := range handles {
		if hb := handles[i].HandleBone; hb < len(centers) {
			handles[i].Marker = centers[hb]
		}
	}
}
