// Package themes implements ports.ThemeSource on top of a directory of
// JSON palette files (<name>.json).
package themes

import (
	"encoding/json"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/posterforge/posterforge/internal/core/domain"
)

// themeFile is the on-disk palette format.
type themeFile struct {
	Description     string `json:"description,omitempty"`
	BG              string `json:"bg"`
	Text            string `json:"text"`
	GradientColor   string `json:"gradient_color"`
	Water           string `json:"water"`
	Parks           string `json:"parks"`
	RoadMotorway    string `json:"road_motorway,omitempty"`
	RoadPrimary     string `json:"road_primary,omitempty"`
	RoadSecondary   string `json:"road_secondary,omitempty"`
	RoadTertiary    string `json:"road_tertiary,omitempty"`
	RoadResidential string `json:"road_residential,omitempty"`
	RoadDefault     string `json:"road_default,omitempty"`
}

// DefaultThemeName is always resolvable, even with an empty themes
// directory.
const DefaultThemeName = "feature_based"

func defaultTheme() *domain.Theme {
	return &domain.Theme{
		Name:        DefaultThemeName,
		Description: "Different shades for different road types and features with clear hierarchy",
		Background:  color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF},
		Text:        color.NRGBA{0x00, 0x00, 0x00, 0xFF},
		Gradient:    color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF},
		Water:       color.NRGBA{0xC0, 0xC0, 0xC0, 0xFF},
		Parks:       color.NRGBA{0xF0, 0xF0, 0xF0, 0xFF},
		Roads: map[domain.RoadClass]color.NRGBA{
			domain.RoadMotorway:    {0x0A, 0x0A, 0x0A, 0xFF},
			domain.RoadPrimary:     {0x1A, 0x1A, 0x1A, 0xFF},
			domain.RoadSecondary:   {0x2A, 0x2A, 0x2A, 0xFF},
			domain.RoadTertiary:    {0x3A, 0x3A, 0x3A, 0xFF},
			domain.RoadResidential: {0x4A, 0x4A, 0x4A, 0xFF},
		},
		RoadDefault: color.NRGBA{0x3A, 0x3A, 0x3A, 0xFF},
	}
}

// Loader reads themes from a directory.
type Loader struct {
	dir string
	log *slog.Logger
}

// NewLoader creates a theme loader rooted at dir.
func NewLoader(dir string, log *slog.Logger) *Loader {
	return &Loader{dir: dir, log: log}
}

// Load reads a single theme by name. It wraps domain.ErrNotFound when no
// file with that name exists.
func (l *Loader) Load(name string) (*domain.Theme, error) {
	if strings.ContainsAny(name, `/\.`) {
		return nil, fmt.Errorf("theme %q: %w", name, domain.ErrNotFound)
	}

	path := filepath.Join(l.dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if name == DefaultThemeName {
				return defaultTheme(), nil
			}
			return nil, fmt.Errorf("theme %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read theme %q: %w", name, err)
	}

	return parseTheme(name, data)
}

// List returns all loadable themes sorted by name. Unparseable files are
// skipped with a warning rather than failing the listing.
func (l *Loader) List() ([]*domain.Theme, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read themes dir: %w", err)
	}

	var out []*domain.Theme
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		t, err := l.Load(name)
		if err != nil {
			l.log.Warn("skipping unparseable theme", "theme", name, "error", err)
			continue
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func parseTheme(name string, data []byte) (*domain.Theme, error) {
	var f themeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse theme %q: %w", name, err)
	}

	t := &domain.Theme{
		Name:        name,
		Description: f.Description,
		Background:  parseOr(f.BG, color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}),
		Text:        parseOr(f.Text, color.NRGBA{0x00, 0x00, 0x00, 0xFF}),
		Water:       parseOr(f.Water, color.NRGBA{0xC0, 0xC0, 0xC0, 0xFF}),
		Parks:       parseOr(f.Parks, color.NRGBA{0xF0, 0xF0, 0xF0, 0xFF}),
		RoadDefault: parseOr(f.RoadDefault, color.NRGBA{0x3A, 0x3A, 0x3A, 0xFF}),
		Roads:       map[domain.RoadClass]color.NRGBA{},
	}
	// The gradient defaults to the background so a theme without an explicit
	// gradient color fades into its own background.
	t.Gradient = parseOr(f.GradientColor, t.Background)

	roadEntries := map[domain.RoadClass]string{
		domain.RoadMotorway:    f.RoadMotorway,
		domain.RoadPrimary:     f.RoadPrimary,
		domain.RoadSecondary:   f.RoadSecondary,
		domain.RoadTertiary:    f.RoadTertiary,
		domain.RoadResidential: f.RoadResidential,
	}
	for class, hex := range roadEntries {
		if hex == "" {
			continue
		}
		c, err := domain.ParseHexColor(hex)
		if err != nil {
			return nil, fmt.Errorf("theme %q road color: %w", name, err)
		}
		t.Roads[class] = c
	}

	return t, nil
}

func parseOr(hex string, fallback color.NRGBA) color.NRGBA {
	if hex == "" {
		return fallback
	}
	c, err := domain.ParseHexColor(hex)
	if err != nil {
		return fallback
	}
	return c
}
