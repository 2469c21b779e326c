// Package capture loads still photographs into OpenCV matrices using GoCV.
package capture

import (
	"errors"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
)

// ErrEmptyImage is returned when a file exists but OpenCV could not decode it.
var ErrEmptyImage = errors.New("image is empty or could not be decoded")

// ErrConversion is returned when a color conversion produced no data.
var ErrConversion = errors.New("color conversion failed")

// Photo is a decoded image in OpenCV's BGR channel order.
type Photo struct {
	Path   string
	Mat    gocv.Mat
	Width  int
	Height int

	closed bool
}

// LoadPhoto reads the image at path. Any format OpenCV can decode is accepted.
// The caller is responsible for closing the returned Photo.
func LoadPhoto(path string) (*Photo, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("could not read image at %s: %w", path, err)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("could not read image at %s: %w", path, ErrEmptyImage)
	}

	return &Photo{
		Path:   path,
		Mat:    mat,
		Width:  mat.Cols(),
		Height: mat.Rows(),
	}, nil
}

// Gray returns a single-channel grayscale copy. The caller closes it.
func (p *Photo) Gray() (gocv.Mat, error) {
	return p.convert(gocv.ColorBGRToGray)
}

// RGB returns a copy with channels in RGB order. The caller closes it.
func (p *Photo) RGB() (gocv.Mat, error) {
	return p.convert(gocv.ColorBGRToRGB)
}

// Bounds returns the photo's pixel rectangle anchored at the origin.
func (p *Photo) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.Width, p.Height)
}

// Close releases the underlying Mat. Closing twice is safe.
func (p *Photo) Close() error {
	if p == nil || p.closed {
		return nil
	}
	p.closed = true
	return p.Mat.Close()
}

func (p *Photo) convert(code gocv.ColorConversionCode) (gocv.Mat, error) {
	if p.closed || p.Mat.Empty() {
		return gocv.Mat{}, fmt.Errorf("convert: %w", ErrEmptyImage)
	}

	dst := gocv.NewMat()
	gocv.CvtColor(p.Mat, &dst, code)
	if dst.Empty() {
		dst.Close()
		return gocv.Mat{}, ErrConversion
	}
	return dst, nil
}
