package raster

import (
	"image/color"
	"math"
)

// Disc fills a circle of radius r centred on (cx, cy) at depth z.
func Disc(fb *FrameBuffer, cx, cy, r, z float64, c color.NRGBA) {
	minX, maxX := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	minY, maxY := int(math.Floor(cy-r)), int(math.Ceil(cy+r))
	r2 := r * r
	for y := minY; y <= maxY; y++ {
		dy := float64(y) + 0.5 - cy
		for x := minX; x <= maxX; x++ {
			dx := float64(x) + 0.5 - cx
			if dx*dx+dy*dy <= r2 {
				fb.Plot(x, y, z, c)
			}
		}
	}
}

// Line draws a segment of the given width, interpolating depth.
func Line(fb *FrameBuffer, x0, y0, z0, x1, y1, z1, width float64, c color.NRGBA) {
	dx, dy := x1-x0, y1-y0
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		Disc(fb, x0, y0, width/2, z0, c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		Disc(fb, x0+dx*t, y0+dy*t, width/2, z0+(z1-z0)*t, c)
	}
}

// Shade darkens c by depth: near points keep their colour, far ones fade to
// 40% brightness.
func Shade(c color.NRGBA, near, far, z float64) color.NRGBA {
	if far <= near {
		return c
	}
	t := (z - near) / (far - near)
	t = math.Min(1, math.Max(0, t))
	k := 1 - 0.6*t
	return color.NRGBA{R: uint8(float64(c.R)*k + 0.5), G: uint8(float64(c.G)*k + 0.5), B: uint8(float64(c.B)*k + 0.5), A: c.A}
}
