// Package palette derives the fixed three-swatch palette reported for a skin tone sample.
package palette

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Swatch weights and channel multipliers. The weights are constants, not
// measured coverage.
const (
	BaseWeight    = 0.6
	DarkerWeight  = 0.25
	LighterWeight = 0.15

	DarkerFactor  = 0.8
	LighterFactor = 1.2
)

// DegradedTone is the skin tone reported when analysis fails.
const DegradedTone = "#E6B76D"

// DefaultSample is used when no pixel in the face region passes the skin mask.
var DefaultSample = RGB{R: 210, G: 170, B: 120}

// RGB is an 8-bit color sample.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Swatch is a color plus a display weight.
type Swatch struct {
	Color   string  `json:"color"`
	Percent float64 `json:"percent"`
}

// Hex returns the color as lowercase "#rrggbb".
func (c RGB) Hex() string {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}.Hex()
}

// NRGBA returns the color as an opaque color.NRGBA.
func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// ParseHex parses "#rrggbb" in either case.
func ParseHex(s string) (RGB, error) {
	col, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := col.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// Scale multiplies each channel by factor, clamps to [0,255] and truncates.
func Scale(c RGB, factor float64) RGB {
	return RGB{
		R: scaleChannel(c.R, factor),
		G: scaleChannel(c.G, factor),
		B: scaleChannel(c.B, factor),
	}
}

func scaleChannel(v uint8, factor float64) uint8 {
	f := float64(v) * factor
	f = math.Max(0, math.Min(255, f))
	return uint8(f)
}

// Derive returns base, darker and lighter swatches for a sample, in that order.
func Derive(c RGB) []Swatch {
	return []Swatch{
		{Color: c.Hex(), Percent: BaseWeight},
		{Color: Scale(c, DarkerFactor).Hex(), Percent: DarkerWeight},
		{Color: Scale(c, LighterFactor).Hex(), Percent: LighterWeight},
	}
}

// Degraded returns the constant swatches reported alongside DegradedTone.
func Degraded() []Swatch {
	return []Swatch{
		{Color: DegradedTone, Percent: BaseWeight},
		{Color: "#D99559", Percent: DarkerWeight},
		{Color: "#C27A46", Percent: LighterWeight},
	}
}
