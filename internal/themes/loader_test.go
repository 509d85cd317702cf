package themes

import (
	"errors"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/posterforge/posterforge/internal/core/domain"
)

func testLoader(t *testing.T, files map[string]string) *Loader {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return NewLoader(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const noirJSON = `{
  "description": "dark",
  "bg": "#0D0D0D",
  "text": "#F5F5F5",
  "gradient_color": "#0D0D0D",
  "water": "#1F1F1F",
  "parks": "#161616",
  "road_motorway": "#FFFFFF",
  "road_default": "#A0A0A0"
}`

func TestLoader_Load(t *testing.T) {
	l := testLoader(t, map[string]string{"noir.json": noirJSON})

	theme, err := l.Load("noir")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if theme.Name != "noir" || theme.Description != "dark" {
		t.Errorf("identity: %q / %q", theme.Name, theme.Description)
	}
	if theme.Background != (color.NRGBA{0x0D, 0x0D, 0x0D, 0xFF}) {
		t.Errorf("background = %v", theme.Background)
	}
	if theme.Roads[domain.RoadMotorway] != (color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("motorway color = %v", theme.Roads[domain.RoadMotorway])
	}
	if theme.RoadColor(domain.RoadSecondary) != theme.RoadDefault {
		t.Error("missing road class did not fall back to default")
	}
}

func TestLoader_LoadUnknown(t *testing.T) {
	l := testLoader(t, nil)
	if _, err := l.Load("vaporwave"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestLoader_LoadRejectsPathTraversal(t *testing.T) {
	l := testLoader(t, nil)
	for _, name := range []string{"../noir", "a/b", `a\b`, "noir.json"} {
		if _, err := l.Load(name); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Load(%q) err = %v, want not found", name, err)
		}
	}
}

func TestLoader_BuiltinDefaultTheme(t *testing.T) {
	l := testLoader(t, nil)
	theme, err := l.Load(DefaultThemeName)
	if err != nil {
		t.Fatalf("default theme must always load: %v", err)
	}
	if theme.Background != (color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("default background = %v", theme.Background)
	}
	if len(theme.Roads) != 5 {
		t.Errorf("default road palette has %d entries, want 5", len(theme.Roads))
	}
}

func TestLoader_ListSkipsBroken(t *testing.T) {
	l := testLoader(t, map[string]string{
		"noir.json":   noirJSON,
		"alpha.json":  noirJSON,
		"broken.json": "{not json",
		"notes.txt":   "ignore me",
	})

	themes, err := l.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(themes) != 2 {
		t.Fatalf("listed %d themes, want 2", len(themes))
	}
	if themes[0].Name != "alpha" || themes[1].Name != "noir" {
		t.Errorf("order = %q, %q; want alphabetical", themes[0].Name, themes[1].Name)
	}
}

func TestLoader_GradientDefaultsToBackground(t *testing.T) {
	l := testLoader(t, map[string]string{"plain.json": `{"bg": "#123456", "text": "#FFFFFF", "water": "#000000", "parks": "#000000"}`})
	theme, err := l.Load("plain")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if theme.Gradient != theme.Background {
		t.Errorf("gradient = %v, want background %v", theme.Gradient, theme.Background)
	}
}
