// Package skin selects likely-skin pixels with a fixed HSV threshold and
// summarizes them into a single color.
package skin

import (
	"errors"
	"fmt"

	"github.com/ayusman/skintone/internal/palette"
	"gocv.io/x/gocv"
)

// ErrNotRGB is returned when the input is not a non-empty 3-channel image.
var ErrNotRGB = errors.New("expected non-empty 3-channel RGB image")

// Range is an inclusive bound on OpenCV's 8-bit HSV encoding
// (H in [0,180), S and V in [0,255]).
type Range struct {
	Lower gocv.Scalar
	Upper gocv.Scalar
}

// DefaultRange returns H in [0,20], S in [20,255], V in [70,255].
func DefaultRange() Range {
	return Range{
		Lower: gocv.NewScalar(0, 20, 70, 0),
		Upper: gocv.NewScalar(20, 255, 255, 0),
	}
}

// Mask converts an RGB image to HSV and returns a single-channel mask that is
// 255 where the pixel falls inside r and 0 elsewhere. The caller closes it.
func Mask(rgb gocv.Mat, r Range) (gocv.Mat, error) {
	if rgb.Empty() || rgb.Channels() != 3 {
		return gocv.Mat{}, ErrNotRGB
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(rgb, &hsv, gocv.ColorRGBToHSV)
	if hsv.Empty() {
		return gocv.Mat{}, fmt.Errorf("skin: HSV conversion produced no data")
	}

	mask := gocv.NewMat()
	gocv.InRangeWithScalar(hsv, r.Lower, r.Upper, &mask)
	if mask.Empty() {
		mask.Close()
		return gocv.Mat{}, fmt.Errorf("skin: in-range threshold produced no data")
	}
	return mask, nil
}

// MeanColor returns the per-channel mean of the masked pixels, truncated to
// integers, and the number of pixels that passed the mask. When no pixel
// passes, the color is zero and the count is 0.
func MeanColor(rgb gocv.Mat, r Range) (palette.RGB, int, error) {
	mask, err := Mask(rgb, r)
	if err != nil {
		return palette.RGB{}, 0, err
	}
	defer mask.Close()

	n := gocv.CountNonZero(mask)
	if n == 0 {
		return palette.RGB{}, 0, nil
	}

	mean := rgb.MeanWithMask(mask)
	return palette.RGB{
		R: truncate(mean.Val1),
		G: truncate(mean.Val2),
		B: truncate(mean.Val3),
	}, n, nil
}

// Sample is MeanColor with palette.DefaultSample substituted when no pixel
// passes the mask. measured reports whether the color came from the image.
func Sample(rgb gocv.Mat, r Range) (c palette.RGB, measured bool, err error) {
	c, n, err := MeanColor(rgb, r)
	if err != nil {
		return palette.RGB{}, false, err
	}
	if n == 0 {
		return palette.DefaultSample, false, nil
	}
	return c, true, nil
}

func truncate(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
