// Package report renders annotated debug copies of analyzed photos.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/ayusman/skintone/internal/palette"
	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// Drawing constants.
const (
	// FaceThickness is the outline width of the face rectangle in pixels.
	FaceThickness = 2
)

var (
	// FaceColor outlines the detected face.
	FaceColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	// SwatchRect is where the base skin tone is painted.
	SwatchRect = image.Rect(10, 10, 50, 50)
)

// ErrEmptySource is returned when there is nothing to annotate.
var ErrEmptySource = errors.New("report: empty source image")

// Annotate draws the face outline and a filled base-color swatch on a copy
// of src, a BGR image, and returns the copy as an image.Image of the same size.
// src is not modified.
func Annotate(src gocv.Mat, face image.Rectangle, base palette.RGB) (image.Image, error) {
	if src.Empty() {
		return nil, ErrEmptySource
	}

	canvas := src.Clone()
	defer canvas.Close()

	gocv.Rectangle(&canvas, face, FaceColor, FaceThickness)
	gocv.Rectangle(&canvas, SwatchRect, color.RGBA{R: base.R, G: base.G, B: base.B, A: 0}, -1)

	img, err := canvas.ToImage()
	if err != nil {
		return nil, fmt.Errorf("report: convert to image: %w", err)
	}
	return img, nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode report image: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes img to path; the format follows the file extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save report image: %w", err)
	}
	return nil
}
