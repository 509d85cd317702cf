package render

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontSet holds the parsed fonts used by the typography layer. It is loaded
// once at process start and shared read-only across all jobs.
type FontSet struct {
	Bold    *opentype.Font
	Regular *opentype.Font
}

// LoadFonts builds a FontSet. When dir contains Roboto-Bold.ttf and
// Roboto-Regular.ttf those are used; otherwise the embedded Go fonts serve
// as fallback so the renderer works without any font assets on disk.
func LoadFonts(dir string) (*FontSet, error) {
	bold, err := loadFontFile(filepath.Join(dir, "Roboto-Bold.ttf"), gobold.TTF)
	if err != nil {
		return nil, err
	}
	regular, err := loadFontFile(filepath.Join(dir, "Roboto-Regular.ttf"), goregular.TTF)
	if err != nil {
		return nil, err
	}
	return &FontSet{Bold: bold, Regular: regular}, nil
}

func loadFontFile(path string, fallback []byte) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		data = fallback
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}

// face builds a font.Face at the given pixel size. Faces are cheap relative
// to a render and are not shared, keeping the renderer free of mutable state.
func (fs *FontSet) face(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
