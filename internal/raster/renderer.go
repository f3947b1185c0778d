// Package raster draws pose snapshots: the skinned vertices, the bone
// chains and the handle markers of a model, seen through a camera.
package raster

import (
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl64"

	"rig-poser/internal/camera"
	"rig-poser/internal/manip"
	"rig-poser/internal/skeleton"
)

// Marker is a handle marker to draw on top of the figure.
type Marker struct {
	Pos   mgl64.Vec3
	Color color.NRGBA
}

// Style holds the snapshot colours and sizes, in output pixels.
type Style struct {
	Background color.NRGBA
	Vertex     color.NRGBA
	Bone       color.NRGBA
	VertexSize float64
	BoneWidth  float64
	MarkerSize float64
}

// DefaultStyle draws on a transparent background.
func DefaultStyle() Style {
	return Style{
		Vertex:     color.NRGBA{R: 160, G: 160, B: 170, A: 255},
		Bone:       color.NRGBA{R: 90, G: 200, B: 120, A: 255},
		VertexSize: 2,
		BoneWidth:  1.5,
		MarkerSize: 5,
	}
}

// RenderPose renders m as seen by cam into a size×size image. The scene is
// drawn at size*supersample and then downsampled.
func RenderPose(m *skeleton.Model, cam camera.Camera, markers []Marker, size, supersample int, st Style) *image.NRGBA {
	if supersample < 1 {
		supersample = 1
	}
	renderSize := size * supersample
	ss := float64(supersample)

	cam.Viewport = camera.Viewport{Width: renderSize, Height: renderSize}
	fb := NewFrameBuffer(renderSize, renderSize)
	if st.Background.A > 0 {
		fb.Fill(st.Background)
	}

	near, far := depthRange(m, cam.Eye)
	depth := func(p mgl64.Vec3) float64 { return p.Sub(cam.Eye).Len() }

	for _, mesh := range m.Meshes {
		for _, v := range mesh.World {
			s := cam.Project(v)
			z := depth(v)
			Disc(fb, s[0], s[1], st.VertexSize*ss/2, z, Shade(st.Vertex, near, far, z))
		}
	}

	// Bones and markers are overlays: they ignore the mesh depth.
	joints := m.BoneWorldPositions()
	for i, b := range m.Skeleton.Bones {
		if b.Parent == skeleton.NoParent {
			continue
		}
		a, c := cam.Project(joints[b.Parent]), cam.Project(joints[i])
		Line(fb, a[0], a[1], near-2, c[0], c[1], near-2, st.BoneWidth*ss, st.Bone)
	}
	for _, mk := range markers {
		s := cam.Project(mk.Pos)
		Disc(fb, s[0], s[1], st.MarkerSize*ss, near-3, mk.Color)
	}

	img := fb.Image()
	if supersample > 1 {
		img = Downsample(img, size, size)
	}
	return img
}

func depthRange(m *skeleton.Model, eye mgl64.Vec3) (float64, float64) {
	near, far := 0.0, 0.0
	first := true
	for _, mesh := range m.Meshes {
		for _, v := range mesh.World {
			d := v.Sub(eye).Len()
			if first || d < near {
				near = d
			}
			if first || d > far {
				far = d
			}
			first = false
		}
	}
	return near, far
}

// Bounds returns the pixel rectangle covered by non-transparent pixels.
func Bounds(img *image.NRGBA) image.Rectangle {
	b := img.Bounds()
	r := image.Rectangle{}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.Pix[img.PixOffset(x, y)+3] == 0 {
				continue
			}
			r = r.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return r
}

// HandleMarkers converts engine handles to snapshot markers.
func HandleMarkers(hs []manip.BoneHandle) []Marker {
	out := make([]Marker, len(hs))
	for i, h := range hs {
		out[i] = Marker{Pos: h.Marker, Color: h.Color()}
	}
	return out
}
