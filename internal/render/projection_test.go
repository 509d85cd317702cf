package render

import (
	"math"
	"testing"

	"github.com/posterforge/posterforge/internal/core/domain"
)

func TestProjector_CenterMapsToCanvasCenter(t *testing.T) {
	center := domain.GeoPoint{Lat: 43.263, Lon: -2.935}
	p := newProjector(center, 15000, 200, 260)

	x, y := p.project(center)
	if math.Abs(x-100) > 1e-9 || math.Abs(y-130) > 1e-9 {
		t.Errorf("center projected to (%v, %v), want (100, 130)", x, y)
	}
}

func TestProjector_AxisOrientation(t *testing.T) {
	center := domain.GeoPoint{Lat: 40, Lon: -74}
	p := newProjector(center, 15000, 200, 200)

	_, yNorth := p.project(domain.GeoPoint{Lat: 40.01, Lon: -74})
	_, yCenter := p.project(center)
	if yNorth >= yCenter {
		t.Errorf("north point y=%v not above center y=%v", yNorth, yCenter)
	}

	xEast, _ := p.project(domain.GeoPoint{Lat: 40, Lon: -73.99})
	xCenter, _ := p.project(center)
	if xEast <= xCenter {
		t.Errorf("east point x=%v not right of center x=%v", xEast, xCenter)
	}
}

func TestProjector_RadiusSpansHalfShortSide(t *testing.T) {
	center := domain.GeoPoint{Lat: 0, Lon: 0}
	radius := 15000
	p := newProjector(center, radius, 200, 300)

	// A point exactly one radius due north lands on the top edge of the
	// short-side square around the center.
	north := domain.GeoPoint{Lat: float64(radius) / metersPerDegree, Lon: 0}
	_, y := p.project(north)
	if math.Abs(y-(150-100)) > 1e-6 {
		t.Errorf("radius point y = %v, want 50", y)
	}
}

func TestProjector_MeridianConvergence(t *testing.T) {
	// At 60 degrees north a degree of longitude is half as long as at the
	// equator, so the same lon offset moves half as far in x.
	pEquator := newProjector(domain.GeoPoint{Lat: 0, Lon: 0}, 15000, 200, 200)
	pNorth := newProjector(domain.GeoPoint{Lat: 60, Lon: 0}, 15000, 200, 200)

	xe, _ := pEquator.project(domain.GeoPoint{Lat: 0, Lon: 0.01})
	xn, _ := pNorth.project(domain.GeoPoint{Lat: 60, Lon: 0.01})

	de := xe - 100
	dn := xn - 100
	if math.Abs(dn-de/2) > 1e-6 {
		t.Errorf("offset at 60N = %v, want half of equator offset %v", dn, de)
	}
}

func TestProjector_PolarLatitudeClamped(t *testing.T) {
	pClamped := newProjector(domain.GeoPoint{Lat: 89.9, Lon: 0}, 15000, 200, 200)
	pLimit := newProjector(domain.GeoPoint{Lat: maxProjectionLat, Lon: 0}, 15000, 200, 200)

	if pClamped.cosLat != pLimit.cosLat {
		t.Errorf("cosLat at 89.9N = %v, want clamped to %v", pClamped.cosLat, pLimit.cosLat)
	}

	pSouth := newProjector(domain.GeoPoint{Lat: -89.9, Lon: 0}, 15000, 200, 200)
	if pSouth.cosLat != pLimit.cosLat {
		t.Errorf("cosLat at 89.9S = %v, want clamped to %v", pSouth.cosLat, pLimit.cosLat)
	}

	// Projection output stays finite under the clamp.
	x, y := pClamped.project(domain.GeoPoint{Lat: 89.9, Lon: 0.01})
	if math.IsInf(x, 0) || math.IsNaN(x) || math.IsInf(y, 0) || math.IsNaN(y) {
		t.Errorf("polar projection not finite: (%v, %v)", x, y)
	}
}
