package render

import (
	"image"

	"github.com/posterforge/posterforge/internal/core/domain"
)

// gradientBand is the fraction of canvas height covered by each fade.
const gradientBand = 0.25

// ApplyGradients composites a vertical alpha ramp of the theme gradient
// color over the top and bottom quarter of the canvas. Alpha is zero at the
// inner boundary of each band and full at the image edge, blended over the
// already-drawn layers beneath so existing content is darkened or lightened,
// never replaced.
func ApplyGradients(img *image.NRGBA, theme *domain.Theme) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	band := int(float64(h) * gradientBand)
	if band <= 0 {
		return
	}

	c := theme.Gradient

	// Top fade: full opacity at row 0, zero at row band.
	for y := 0; y < band; y++ {
		alpha := uint8((1 - float64(y)/float64(band)) * 255)
		for x := 0; x < w; x++ {
			blendPixel(img, b.Min.X+x, b.Min.Y+y, c, alpha)
		}
	}

	// Bottom fade: full opacity at the last row, falling to zero toward the
	// inner boundary of the band.
	for y := h - band; y < h; y++ {
		alpha := uint8((1 - float64(h-1-y)/float64(band)) * 255)
		for x := 0; x < w; x++ {
			blendPixel(img, b.Min.X+x, b.Min.Y+y, c, alpha)
		}
	}
}
