package render

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"sort"

	"github.com/posterforge/posterforge/internal/core/domain"
)

// Poster aspect: 12x16 inches.
const (
	posterWidthInches  = 12
	posterHeightInches = 16
	referenceDPI       = 300
	referenceDistance  = 15000.0
)

// Options fixes the output raster geometry.
type Options struct {
	Width  int
	Height int
	DPI    int
}

// PosterOptions returns the canvas geometry for a 12x16 inch poster at the
// given DPI (3600x4800 at 300).
func PosterOptions(dpi int) Options {
	if dpi <= 0 {
		dpi = referenceDPI
	}
	return Options{
		Width:  posterWidthInches * dpi,
		Height: posterHeightInches * dpi,
		DPI:    dpi,
	}
}

// Renderer composes feature sets into poster rasters. Rendering is a pure
// function of (feature set, theme, city, country): identical inputs produce
// byte-identical PNG output for a fixed font set and canvas size. The canvas
// produced by each call is owned exclusively by the caller.
type Renderer struct {
	fonts *FontSet
	opts  Options
}

// New creates a renderer with the given fonts and canvas geometry.
func New(fonts *FontSet, opts Options) *Renderer {
	return &Renderer{fonts: fonts, opts: opts}
}

// Options returns the renderer's canvas geometry.
func (r *Renderer) Options() Options { return r.opts }

// DrawMap renders the geographic layers back to front: background fill,
// water polygons, park polygons, then road segments in ascending z-priority.
func (r *Renderer) DrawMap(fs *domain.FeatureSet, theme *domain.Theme) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, r.opts.Width, r.opts.Height))
	fillBackground(canvas, theme)

	proj := newProjector(fs.Center, fs.Radius, r.opts.Width, r.opts.Height)

	for _, f := range fs.Water {
		fillPolygon(canvas, projectRing(proj, f.Ring), theme.Water)
	}
	for _, f := range fs.Parks {
		fillPolygon(canvas, projectRing(proj, f.Ring), theme.Parks)
	}

	r.drawRoads(canvas, proj, fs, theme)
	return canvas
}

// drawRoads groups segments by resolved z-priority and strokes them in
// ascending order so wider road groups land on top.
func (r *Renderer) drawRoads(canvas *image.NRGBA, proj *projector, fs *domain.FeatureSet, theme *domain.Theme) {
	type styled struct {
		seg   *domain.RoadSegment
		style RoadStyle
	}

	styledSegs := make([]styled, 0, len(fs.Roads))
	for i := range fs.Roads {
		seg := &fs.Roads[i]
		if len(seg.Points) < 2 {
			continue
		}
		styledSegs = append(styledSegs, styled{seg: seg, style: ResolveRoadStyle(seg.Class, theme)})
	}

	// Stable sort keeps fetch order within a priority band so output stays
	// deterministic for identical inputs.
	sort.SliceStable(styledSegs, func(i, j int) bool {
		return styledSegs[i].style.Priority < styledSegs[j].style.Priority
	})

	base := r.baseStrokeWidth(fs.Radius)
	for _, s := range styledSegs {
		strokePolyline(canvas, projectRing(proj, s.seg.Points), s.style.Width*base, s.style.Color)
	}
}

// baseStrokeWidth scales the relative width table to pixels: larger map
// radii render thinner lines, and the whole table scales with resolution.
func (r *Renderer) baseStrokeWidth(radius int) float64 {
	return 2 * math.Sqrt(referenceDistance/float64(radius)) * float64(r.opts.DPI) / referenceDPI
}

func fillBackground(img *image.NRGBA, theme *domain.Theme) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetNRGBA(x, y, theme.Background)
		}
	}
}

func projectRing(proj *projector, ring []domain.GeoPoint) [][2]float64 {
	out := make([][2]float64, len(ring))
	for i, pt := range ring {
		x, y := proj.project(pt)
		out[i] = [2]float64{x, y}
	}
	return out
}

// EncodePNG serialises the canvas. The stdlib encoder is deterministic, so
// equal rasters yield byte-identical files.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
