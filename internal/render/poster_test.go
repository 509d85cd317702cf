package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/posterforge/posterforge/internal/core/domain"
)

func testRenderer(t *testing.T, w, h int) *Renderer {
	t.Helper()
	fonts, err := LoadFonts(t.TempDir())
	if err != nil {
		t.Fatalf("load fonts: %v", err)
	}
	return New(fonts, Options{Width: w, Height: h, DPI: 72})
}

func testFeatureSet() *domain.FeatureSet {
	center := domain.GeoPoint{Lat: 43.263, Lon: -2.935}
	d := 0.02
	return &domain.FeatureSet{
		Center: center,
		Radius: 15000,
		Roads: []domain.RoadSegment{
			{Class: domain.RoadMotorway, Points: []domain.GeoPoint{
				{Lat: center.Lat - d, Lon: center.Lon - d}, {Lat: center.Lat + d, Lon: center.Lon + d},
			}},
			{Class: domain.RoadResidential, Points: []domain.GeoPoint{
				{Lat: center.Lat, Lon: center.Lon - d}, {Lat: center.Lat, Lon: center.Lon + d},
			}},
		},
		Water: []domain.AreaFeature{{Kind: domain.AreaWater, Ring: []domain.GeoPoint{
			{Lat: center.Lat + d/2, Lon: center.Lon + d/2},
			{Lat: center.Lat + d, Lon: center.Lon + d/2},
			{Lat: center.Lat + d, Lon: center.Lon + d},
			{Lat: center.Lat + d/2, Lon: center.Lon + d},
		}}},
	}
}

func fullTestTheme() *domain.Theme {
	return &domain.Theme{
		Name:       "test",
		Background: color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF},
		Text:       color.NRGBA{0x00, 0x00, 0x00, 0xFF},
		Gradient:   color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF},
		Water:      color.NRGBA{0x00, 0x00, 0xFF, 0xFF},
		Parks:      color.NRGBA{0x00, 0xFF, 0x00, 0xFF},
		Roads: map[domain.RoadClass]color.NRGBA{
			domain.RoadMotorway:    {0x0A, 0x0A, 0x0A, 0xFF},
			domain.RoadResidential: {0x4A, 0x4A, 0x4A, 0xFF},
		},
		RoadDefault: color.NRGBA{0x3A, 0x3A, 0x3A, 0xFF},
	}
}

func TestPosterOptions_Geometry(t *testing.T) {
	opts := PosterOptions(300)
	if opts.Width != 3600 || opts.Height != 4800 {
		t.Errorf("geometry at 300 DPI = %dx%d, want 3600x4800", opts.Width, opts.Height)
	}
	opts = PosterOptions(0)
	if opts.Width != 3600 || opts.Height != 4800 || opts.DPI != 300 {
		t.Errorf("zero DPI did not default to 300: %+v", opts)
	}
}

func TestDrawMap_CanvasGeometry(t *testing.T) {
	r := testRenderer(t, 120, 160)
	img := r.DrawMap(testFeatureSet(), fullTestTheme())
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 160 {
		t.Errorf("canvas = %dx%d, want 120x160", b.Dx(), b.Dy())
	}
}

func TestDrawMap_BackgroundFilled(t *testing.T) {
	r := testRenderer(t, 120, 160)
	theme := fullTestTheme()
	img := r.DrawMap(&domain.FeatureSet{Center: domain.GeoPoint{Lat: 0, Lon: 0}, Radius: 15000}, theme)

	for _, pt := range []image.Point{{0, 0}, {60, 80}, {119, 159}} {
		if got := img.NRGBAAt(pt.X, pt.Y); got != theme.Background {
			t.Errorf("pixel %v = %v, want background %v", pt, got, theme.Background)
		}
	}
}

func TestDrawMap_DrawsFeatures(t *testing.T) {
	r := testRenderer(t, 120, 160)
	theme := fullTestTheme()
	img := r.DrawMap(testFeatureSet(), theme)

	water, roads := 0, 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			got := img.NRGBAAt(x, y)
			if got == theme.Water {
				water++
				continue
			}
			// At this geometry road strokes are narrower than a pixel,
			// so their coverage shows up as gray blends with the white
			// background rather than the exact theme color.
			if got != theme.Background && got.R == got.G && got.G == got.B {
				roads++
			}
		}
	}
	if water == 0 {
		t.Error("no water pixels drawn")
	}
	if roads == 0 {
		t.Error("no road pixels drawn")
	}
}

func TestRender_Deterministic(t *testing.T) {
	r := testRenderer(t, 120, 160)
	theme := fullTestTheme()
	fs := testFeatureSet()

	renderOnce := func() []byte {
		img := r.DrawMap(fs, theme)
		ApplyGradients(img, theme)
		if err := r.DrawTypography(img, theme, "Bilbao", "Spain", fs.Center); err != nil {
			t.Fatalf("typography: %v", err)
		}
		data, err := EncodePNG(img)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		return data
	}

	first := renderOnce()
	second := renderOnce()
	if !bytes.Equal(first, second) {
		t.Error("identical inputs produced different PNG bytes")
	}
}

func TestRender_InputsNotMutated(t *testing.T) {
	r := testRenderer(t, 120, 160)
	theme := fullTestTheme()
	fs := testFeatureSet()
	nRoads, nPts := len(fs.Roads), len(fs.Roads[0].Points)
	first := fs.Roads[0].Points[0]

	_ = r.DrawMap(fs, theme)

	if len(fs.Roads) != nRoads || len(fs.Roads[0].Points) != nPts || fs.Roads[0].Points[0] != first {
		t.Error("feature set mutated by rendering")
	}
}

func TestEncodePNG_Decodes(t *testing.T) {
	r := testRenderer(t, 60, 80)
	img := r.DrawMap(testFeatureSet(), fullTestTheme())
	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 60 || b.Dy() != 80 {
		t.Errorf("decoded size = %dx%d, want 60x80", b.Dx(), b.Dy())
	}
}

func TestDrawTypography_MarksCanvas(t *testing.T) {
	r := testRenderer(t, 200, 260)
	theme := fullTestTheme()
	img := r.DrawMap(&domain.FeatureSet{Center: domain.GeoPoint{Lat: 43.263, Lon: -2.935}, Radius: 15000}, theme)

	before := make([]uint8, len(img.Pix))
	copy(before, img.Pix)

	if err := r.DrawTypography(img, theme, "Bilbao", "Spain", domain.GeoPoint{Lat: 43.263, Lon: -2.935}); err != nil {
		t.Fatalf("typography: %v", err)
	}
	if bytes.Equal(before, img.Pix) {
		t.Error("typography pass did not change the canvas")
	}
}
