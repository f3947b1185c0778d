package raster

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample scales img down to w×h in premultiplied alpha, so transparent
// background pixels do not bleed dark fringes into the figure.
// Images already within w×h are returned unchanged.
func Downsample(img *image.NRGBA, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= w && b.Dy() <= h {
		return img
	}

	src := premultiply(img)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return unpremultiply(dst)
}

func premultiply(img *image.NRGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si, di := img.PixOffset(x, y), out.PixOffset(x, y)
			a := float64(img.Pix[si+3]) / 255
			for k := 0; k < 3; k++ {
				out.Pix[di+k] = uint8(float64(img.Pix[si+k])*a + 0.5)
			}
			out.Pix[di+3] = img.Pix[si+3]
		}
	}
	return out
}

func unpremultiply(img *image.RGBA) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si, di := img.PixOffset(x, y), out.PixOffset(x, y)
			if a := float64(img.Pix[si+3]); a > 1 {
				for k := 0; k < 3; k++ {
					out.Pix[di+k] = clamp8(float64(img.Pix[si+k]) * 255 / a)
				}
			}
			out.Pix[di+3] = img.Pix[si+3]
		}
	}
	return out
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
