package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"
)

// capSegments controls how many chords approximate the round caps and joins
// of stroked polylines.
const capSegments = 12

// fillPolygon rasterises a closed ring onto dst with the non-zero winding
// rule. Points are device-space coordinate pairs.
func fillPolygon(dst *image.NRGBA, pts [][2]float64, c color.NRGBA) {
	if len(pts) < 3 {
		return
	}

	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.MoveTo(float32(pts[0][0]), float32(pts[0][1]))
	for _, p := range pts[1:] {
		z.LineTo(float32(p[0]), float32(p[1]))
	}
	z.ClosePath()
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// strokePolyline draws a polyline with the given stroke width, round caps
// and round joins. Each segment contributes a quad subpath and each vertex a
// polygonal disc; all subpaths share one rasteriser so overlaps at joins do
// not double-blend.
func strokePolyline(dst *image.NRGBA, pts [][2]float64, width float64, c color.NRGBA) {
	if len(pts) < 2 || width <= 0 {
		return
	}

	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	r := width / 2

	for i := 0; i+1 < len(pts); i++ {
		x0, y0 := pts[i][0], pts[i][1]
		x1, y1 := pts[i+1][0], pts[i+1][1]

		dx, dy := x1-x0, y1-y0
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		// Unit normal, scaled to half the stroke width.
		nx, ny := -dy/length*r, dx/length*r

		z.MoveTo(float32(x0+nx), float32(y0+ny))
		z.LineTo(float32(x1+nx), float32(y1+ny))
		z.LineTo(float32(x1-nx), float32(y1-ny))
		z.LineTo(float32(x0-nx), float32(y0-ny))
		z.ClosePath()
	}

	for _, p := range pts {
		appendDisc(z, p[0], p[1], r)
	}

	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// appendDisc adds a regular polygon approximating a filled circle as a
// subpath, wound counter-clockwise like the segment quads.
func appendDisc(z *vector.Rasterizer, cx, cy, r float64) {
	if r <= 0 {
		return
	}
	z.MoveTo(float32(cx+r), float32(cy))
	for i := 1; i < capSegments; i++ {
		a := 2 * math.Pi * float64(i) / capSegments
		z.LineTo(float32(cx+r*math.Cos(a)), float32(cy+r*math.Sin(a)))
	}
	z.ClosePath()
}

// blendPixel composites src (with the given alpha) over the pixel at (x, y)
// using standard source-over blending on non-premultiplied values.
func blendPixel(dst *image.NRGBA, x, y int, c color.NRGBA, alpha uint8) {
	if alpha == 0 {
		return
	}
	i := dst.PixOffset(x, y)
	s := dst.Pix[i : i+4 : i+4]

	a := float64(alpha) / 255
	inv := 1 - a

	s[0] = uint8(math.Min(float64(c.R)*a+float64(s[0])*inv, 255))
	s[1] = uint8(math.Min(float64(c.G)*a+float64(s[1])*inv, 255))
	s[2] = uint8(math.Min(float64(c.B)*a+float64(s[2])*inv, 255))
	s[3] = uint8(math.Min(float64(alpha)+float64(s[3])*inv, 255))
}
