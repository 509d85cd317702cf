package render

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/posterforge/posterforge/internal/core/domain"
)

const osmAttribution = "Map data © OpenStreetMap"

// Vertical anchors for the caption block, as fractions of canvas height.
// Positions are canvas-relative so output stays proportionally identical
// across resolutions.
const (
	cityAnchor    = 0.86
	ruleAnchor    = 0.875
	countryAnchor = 0.90
	coordsAnchor  = 0.93
	attribAnchor  = 0.98
)

// DrawTypography renders the caption block: city name, decorative rule,
// country, coordinate string and attribution.
func (r *Renderer) DrawTypography(img *image.NRGBA, theme *domain.Theme, city, country string, center domain.GeoPoint) error {
	b := img.Bounds()
	w := float64(b.Dx())
	h := float64(b.Dy())
	cx := w / 2

	citySize := h * 0.04
	cityFace, err := r.fonts.face(r.fonts.Bold, citySize)
	if err != nil {
		return err
	}
	defer cityFace.Close()
	drawString(img, strings.ToUpper(city), cityFace, theme.Text, cx, h*cityAnchor, true, citySize*0.3)

	drawRule(img, theme, h*ruleAnchor, 0.2, 2)

	countrySize := h * 0.015
	countryFace, err := r.fonts.face(r.fonts.Regular, countrySize)
	if err != nil {
		return err
	}
	defer countryFace.Close()
	drawString(img, strings.ToUpper(country), countryFace, theme.Text, cx, h*countryAnchor, true, countrySize*0.2)

	coordsSize := h * 0.01
	coordsFace, err := r.fonts.face(r.fonts.Regular, coordsSize)
	if err != nil {
		return err
	}
	defer coordsFace.Close()
	drawString(img, center.FormatDMS(), coordsFace, theme.Text, cx, h*coordsAnchor, true, 0)

	attribSize := h * 0.006
	attribFace, err := r.fonts.face(r.fonts.Regular, attribSize)
	if err != nil {
		return err
	}
	defer attribFace.Close()
	attribW := measureString(attribFace, osmAttribution, 0)
	drawString(img, osmAttribution, attribFace, theme.Text, w*attribAnchor-attribW, h*attribAnchor, false, 0)

	return nil
}

// measureString returns the advance width of s including letter spacing.
func measureString(face font.Face, s string, letterSpacing float64) float64 {
	var total float64
	for _, r := range s {
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			continue
		}
		total += float64(adv) / 64
		total += letterSpacing
	}
	return total
}

// drawString draws s with its baseline at y. When centered, x is the center
// of the rendered text; otherwise it is the left edge. Glyphs are placed one
// at a time so letter spacing can be applied between them.
func drawString(img *image.NRGBA, s string, face font.Face, c color.NRGBA, x, y float64, centered bool, letterSpacing float64) {
	startX := x
	if centered {
		startX = x - measureString(face, s, letterSpacing)/2
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: floatToFixed(startX), Y: floatToFixed(y)},
	}

	for _, r := range s {
		d.DrawString(string(r))
		d.Dot.X += floatToFixed(letterSpacing)
	}
}

// drawRule draws the centered horizontal separator line.
func drawRule(img *image.NRGBA, theme *domain.Theme, y float64, widthRatio float64, thickness int) {
	b := img.Bounds()
	w := b.Dx()

	lineW := int(float64(w) * widthRatio)
	x0 := (w - lineW) / 2
	y0 := int(y)

	for py := y0; py < y0+thickness && py < b.Max.Y; py++ {
		for px := x0; px < x0+lineW; px++ {
			img.SetNRGBA(b.Min.X+px, py, theme.Text)
		}
	}
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
