package render

import (
	"image"
	"image/color"
	"math"
)

type pointF struct {
	X float64
	Y float64
}

func fillQuad(img *image.RGBA, p0, p1, p2, p3 pointF, clr color.Color) {
	fillTriangle(img, p0, p1, p2, clr)
	fillTriangle(img, p0, p2, p3, clr)
}

func fillTriangle(img *image.RGBA, a, b, c pointF, clr color.Color) {
	minX := int(math.Floor(math.Min(a.X, math.Min(b.X, c.X))))
	maxX := int(math.Ceil(math.Max(a.X, math.Max(b.X, c.X))))
	minY := int(math.Floor(math.Min(a.Y, math.Min(b.Y, c.Y))))
	maxY := int(math.Ceil(math.Max(a.Y, math.Max(b.Y, c.Y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if inTriangle(float64(x)+0.5, float64(y)+0.5, a, b, c) {
				blendPixel(img, x, y, clr)
			}
		}
	}
}

func inTriangle(x, y float64, a, b, c pointF) bool {
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if denom == 0 {
		return false
	}
	alpha := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / denom
	beta := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / denom
	return alpha >= 0 && beta >= 0 && 1-alpha-beta >= 0
}

// blendPixel composites clr over the pixel at x,y (source-over).
func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	dst := img.RGBAAt(x, y)
	inv := 0xffff - sa
	mix := func(s uint32, d uint8) uint8 {
		return uint8((s + uint32(d)*0x101*inv/0xffff) >> 8)
	}
	img.SetRGBA(x, y, color.RGBA{
		R: mix(sr, dst.R),
		G: mix(sg, dst.G),
		B: mix(sb, dst.B),
		A: mix(sa, dst.A),
	})
}
