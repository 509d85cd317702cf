package domain

import "fmt"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// FormatDMS renders a coordinate pair for the poster caption,
// e.g. "40.7128° N, 74.0060° W".
func (p GeoPoint) FormatDMS() string {
	latDir, lonDir := "N", "E"
	if p.Lat < 0 {
		latDir = "S"
	}
	if p.Lon < 0 {
		lonDir = "W"
	}
	return fmt.Sprintf("%.4f° %s, %.4f° %s", abs(p.Lat), latDir, abs(p.Lon), lonDir)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Location is one candidate match from a free-text place search.
type Location struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	City        string  `json:"city,omitempty"`
	Country     string  `json:"country,omitempty"`
}

// RoadClass is the semantic category of a road segment (OSM highway tag).
type RoadClass string

const (
	RoadMotorway      RoadClass = "motorway"
	RoadMotorwayLink  RoadClass = "motorway_link"
	RoadTrunk         RoadClass = "trunk"
	RoadPrimary       RoadClass = "primary"
	RoadPrimaryLink   RoadClass = "primary_link"
	RoadSecondary     RoadClass = "secondary"
	RoadSecondaryLink RoadClass = "secondary_link"
	RoadTertiary      RoadClass = "tertiary"
	RoadTertiaryLink  RoadClass = "tertiary_link"
	RoadResidential   RoadClass = "residential"
	RoadLivingStreet  RoadClass = "living_street"
	RoadService       RoadClass = "service"
	RoadUnclassified  RoadClass = "unclassified"
	RoadOther         RoadClass = "other"
)

// ParseRoadClass maps a raw highway tag to a known class,
// falling back to RoadOther for anything unrecognised.
func ParseRoadClass(tag string) RoadClass {
	switch RoadClass(tag) {
	case RoadMotorway, RoadMotorwayLink, RoadTrunk, RoadPrimary, RoadPrimaryLink,
		RoadSecondary, RoadSecondaryLink, RoadTertiary, RoadTertiaryLink,
		RoadResidential, RoadLivingStreet, RoadService, RoadUnclassified:
		return RoadClass(tag)
	default:
		return RoadOther
	}
}

// RoadSegment is an ordered polyline of at least two points with its
// classification. Produced once by the fetch step and never mutated.
type RoadSegment struct {
	Points []GeoPoint `json:"points"`
	Class  RoadClass  `json:"class"`
}

// AreaKind distinguishes filled polygon layers.
type AreaKind string

const (
	AreaWater AreaKind = "water"
	AreaPark  AreaKind = "park"
)

// AreaFeature is a closed polygon ring (water or park).
type AreaFeature struct {
	Ring []GeoPoint `json:"ring"`
	Kind AreaKind   `json:"kind"`
}

// FeatureSet holds all geographic vector data for one location and radius.
// It is owned by the job that fetched it and shared read-only through the
// feature cache afterwards.
type FeatureSet struct {
	Center GeoPoint      `json:"center"`
	Radius int           `json:"radius"` // meters, always > 0
	Roads  []RoadSegment `json:"roads"`
	Water  []AreaFeature `json:"water"`
	Parks  []AreaFeature `json:"parks"`
}
