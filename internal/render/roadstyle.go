package render

import (
	"image/color"

	"github.com/posterforge/posterforge/internal/core/domain"
)

// RoadStyle is the resolved draw parameters for one road class under one
// theme. It is derived deterministically and never cached independently of
// the theme it came from.
type RoadStyle struct {
	Width    float64
	Color    color.NRGBA
	Priority int
}

// Relative stroke widths per road group. The table is fixed and independent
// of theme; an unknown class falls back to the tertiary width.
const (
	widthMotorway    = 1.2
	widthPrimary     = 1.0
	widthSecondary   = 0.8
	widthTertiary    = 0.6
	widthResidential = 0.4
	widthService     = 0.3
)

// ResolveRoadStyle maps a road classification and theme to its style.
// Priority follows width rank: wider (higher-hierarchy) roads get a higher
// priority and are drawn later, so major roads are never occluded by minor
// ones within the road layer.
func ResolveRoadStyle(class domain.RoadClass, theme *domain.Theme) RoadStyle {
	var width float64
	var priority int
	var colorClass domain.RoadClass

	switch class {
	case domain.RoadMotorway, domain.RoadMotorwayLink:
		width, priority, colorClass = widthMotorway, 6, domain.RoadMotorway
	case domain.RoadTrunk, domain.RoadPrimary, domain.RoadPrimaryLink:
		width, priority, colorClass = widthPrimary, 5, domain.RoadPrimary
	case domain.RoadSecondary, domain.RoadSecondaryLink:
		width, priority, colorClass = widthSecondary, 4, domain.RoadSecondary
	case domain.RoadTertiary, domain.RoadTertiaryLink:
		width, priority, colorClass = widthTertiary, 3, domain.RoadTertiary
	case domain.RoadResidential, domain.RoadLivingStreet:
		width, priority, colorClass = widthResidential, 2, domain.RoadResidential
	case domain.RoadService, domain.RoadUnclassified:
		width, priority, colorClass = widthService, 1, domain.RoadResidential
	default:
		width, priority, colorClass = widthTertiary, 3, domain.RoadOther
	}

	return RoadStyle{
		Width:    width,
		Color:    theme.RoadColor(colorClass),
		Priority: priority,
	}
}
