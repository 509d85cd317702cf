package render

import (
	"image/color"
	"testing"

	"github.com/posterforge/posterforge/internal/core/domain"
)

func styleTheme() *domain.Theme {
	return &domain.Theme{
		Roads: map[domain.RoadClass]color.NRGBA{
			domain.RoadMotorway:    {0x0A, 0x0A, 0x0A, 0xFF},
			domain.RoadPrimary:     {0x1A, 0x1A, 0x1A, 0xFF},
			domain.RoadSecondary:   {0x2A, 0x2A, 0x2A, 0xFF},
			domain.RoadTertiary:    {0x3A, 0x3A, 0x3A, 0xFF},
			domain.RoadResidential: {0x4A, 0x4A, 0x4A, 0xFF},
		},
		RoadDefault: color.NRGBA{0x5A, 0x5A, 0x5A, 0xFF},
	}
}

func TestResolveRoadStyle_WidthTable(t *testing.T) {
	theme := styleTheme()
	cases := []struct {
		class domain.RoadClass
		width float64
	}{
		{domain.RoadMotorway, 1.2},
		{domain.RoadMotorwayLink, 1.2},
		{domain.RoadTrunk, 1.0},
		{domain.RoadPrimary, 1.0},
		{domain.RoadPrimaryLink, 1.0},
		{domain.RoadSecondary, 0.8},
		{domain.RoadSecondaryLink, 0.8},
		{domain.RoadTertiary, 0.6},
		{domain.RoadTertiaryLink, 0.6},
		{domain.RoadResidential, 0.4},
		{domain.RoadLivingStreet, 0.4},
		{domain.RoadService, 0.3},
		{domain.RoadUnclassified, 0.3},
	}
	for _, tc := range cases {
		if got := ResolveRoadStyle(tc.class, theme).Width; got != tc.width {
			t.Errorf("%s width = %v, want %v", tc.class, got, tc.width)
		}
	}
}

func TestResolveRoadStyle_UnknownClassFallsBack(t *testing.T) {
	theme := styleTheme()
	s := ResolveRoadStyle(domain.RoadClass("bridleway"), theme)
	if s.Width != 0.6 {
		t.Errorf("unknown class width = %v, want tertiary 0.6", s.Width)
	}
	if s.Color != theme.RoadDefault {
		t.Errorf("unknown class color = %v, want theme default %v", s.Color, theme.RoadDefault)
	}
}

func TestResolveRoadStyle_PriorityFollowsHierarchy(t *testing.T) {
	theme := styleTheme()
	order := []domain.RoadClass{
		domain.RoadService,
		domain.RoadResidential,
		domain.RoadTertiary,
		domain.RoadSecondary,
		domain.RoadPrimary,
		domain.RoadMotorway,
	}
	prev := 0
	for _, class := range order {
		p := ResolveRoadStyle(class, theme).Priority
		if p <= prev {
			t.Errorf("%s priority = %d, not above %d", class, p, prev)
		}
		prev = p
	}
}

func TestResolveRoadStyle_MissingThemeEntryUsesDefault(t *testing.T) {
	theme := &domain.Theme{RoadDefault: color.NRGBA{0x11, 0x22, 0x33, 0xFF}}
	s := ResolveRoadStyle(domain.RoadMotorway, theme)
	if s.Color != theme.RoadDefault {
		t.Errorf("color = %v, want default when theme has no per-class entry", s.Color)
	}
}
