package render

import (
	"math"

	"github.com/posterforge/posterforge/internal/core/domain"
)

// metersPerDegree is the length of one degree of latitude, and of one degree
// of longitude at the equator.
const metersPerDegree = 111320.0

// maxProjectionLat bounds the latitude used for the meridian-convergence
// correction. The local equirectangular approximation is only valid for
// bounded radii; near the poles cos(lat) collapses and the correction is
// clamped instead of blowing up the horizontal scale.
const maxProjectionLat = 85.0

// projector maps geographic coordinates into canvas pixel space using a
// local equirectangular approximation centred on a feature set's center:
// longitude is scaled by cos(center latitude), both axes are scaled uniformly
// so the map radius spans half of the canvas' short side, and the center
// point lands on the canvas center.
type projector struct {
	center   domain.GeoPoint
	cosLat   float64
	pxPerM   float64
	halfW    float64
	halfH    float64
}

func newProjector(center domain.GeoPoint, radiusMeters, width, height int) *projector {
	lat := center.Lat
	if lat > maxProjectionLat {
		lat = maxProjectionLat
	} else if lat < -maxProjectionLat {
		lat = -maxProjectionLat
	}

	short := width
	if height < short {
		short = height
	}

	return &projector{
		center: center,
		cosLat: math.Cos(lat * math.Pi / 180),
		pxPerM: float64(short) / 2 / float64(radiusMeters),
		halfW:  float64(width) / 2,
		halfH:  float64(height) / 2,
	}
}

// project converts a geographic point to canvas pixels. Canvas y grows
// downward while latitude grows northward, so the vertical axis is flipped.
func (p *projector) project(pt domain.GeoPoint) (x, y float64) {
	east := (pt.Lon - p.center.Lon) * metersPerDegree * p.cosLat
	north := (pt.Lat - p.center.Lat) * metersPerDegree

	x = p.halfW + east*p.pxPerM
	y = p.halfH - north*p.pxPerM
	return x, y
}
