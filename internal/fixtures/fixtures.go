// Package fixtures builds synthetic photographs for tests.
package fixtures

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Colors used by the synthetic photos.
var (
	// Skin has OpenCV HSV (11, 102, 200), inside the skin range.
	Skin = color.NRGBA{R: 200, G: 150, B: 120, A: 255}
	// Blue has hue 120, outside the skin range.
	Blue = color.NRGBA{R: 0, G: 0, B: 255, A: 255}
	// Gray has zero saturation, outside the skin range.
	Gray = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
)

// Solid returns a w x h image filled with c.
func Solid(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

// WithPatch returns a w x h image of bg with the rectangle r filled with fg.
func WithPatch(w, h int, bg, fg color.NRGBA, r image.Rectangle) *image.NRGBA {
	img := imaging.New(w, h, bg)
	patch := imaging.New(r.Dx(), r.Dy(), fg)
	return imaging.Paste(img, patch, r.Min)
}

// Save writes img into dir as a lossless PNG and returns its path.
func Save(dir, name string, img image.Image) (string, error) {
	path := filepath.Join(dir, name)
	if filepath.Ext(path) != ".png" {
		path += ".png"
	}
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("save fixture %s: %w", name, err)
	}
	return path, nil
}

// SaveCorrupt writes a file with an image extension and non-image contents.
func SaveCorrupt(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		return "", fmt.Errorf("save corrupt fixture %s: %w", name, err)
	}
	return path, nil
}
