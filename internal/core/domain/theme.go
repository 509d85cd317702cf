package domain

import (
	"fmt"
	"image/color"
	"strconv"
)

// Theme is the color palette consumed by styling. Every road class resolves
// to a color: either a specific table entry or RoadDefault. Absence of a
// specific entry is not an error.
type Theme struct {
	Name        string
	Description string
	Background  color.NRGBA
	Text        color.NRGBA
	Gradient    color.NRGBA
	Water       color.NRGBA
	Parks       color.NRGBA
	Roads       map[RoadClass]color.NRGBA
	RoadDefault color.NRGBA
}

// RoadColor resolves the draw color for a road class.
func (t *Theme) RoadColor(class RoadClass) color.NRGBA {
	if c, ok := t.Roads[class]; ok {
		return c
	}
	return t.RoadDefault
}

// ParseHexColor parses "#RRGGBB" (leading '#' optional) into an opaque NRGBA.
func ParseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", hex)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xFF,
	}, nil
}
