// Package detector provides frontal face detection backends for still photos.
package detector

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Backend names accepted by Config.Backend.
const (
	BackendHaar = "haar"
	BackendPigo = "pigo"
)

// ErrUnknownBackend is returned by Open for an unrecognized Config.Backend.
var ErrUnknownBackend = errors.New("unknown detector backend")

// Detector defines the interface for face detection implementations.
type Detector interface {
	// Detect finds faces in a single-channel grayscale image.
	// Returns an empty slice if no faces are detected. The order of the
	// rectangles is whatever the backend produces.
	Detect(gray gocv.Mat) ([]image.Rectangle, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for face detection.
type Config struct {
	// Backend selects the implementation: "haar" (default) or "pigo".
	Backend string

	// CascadePath is the Haar cascade XML file. If empty, the default
	// frontal face cascade is searched for in well-known locations.
	CascadePath string

	// ScaleFactor is the Haar image pyramid scale step (default: 1.3).
	ScaleFactor float64

	// MinNeighbors is the Haar candidate retention threshold (default: 5).
	MinNeighbors int

	// PigoCascadePath is the pigo "facefinder" cascade file.
	PigoCascadePath string

	// PigoMinSize and PigoMaxSize bound the face size in pixels.
	PigoMinSize int
	PigoMaxSize int

	// PigoQuality is the minimum detection score kept (default: 5.0).
	PigoQuality float32
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendHaar,
		ScaleFactor:  1.3,
		MinNeighbors: 5,
		PigoMinSize:  20,
		PigoMaxSize:  1000,
		PigoQuality:  5.0,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Backend == "" {
		c.Backend = d.Backend
	}
	if c.ScaleFactor <= 1.0 {
		c.ScaleFactor = d.ScaleFactor
	}
	if c.MinNeighbors <= 0 {
		c.MinNeighbors = d.MinNeighbors
	}
	if c.PigoMinSize <= 0 {
		c.PigoMinSize = d.PigoMinSize
	}
	if c.PigoMaxSize <= 0 {
		c.PigoMaxSize = d.PigoMaxSize
	}
	if c.PigoQuality <= 0 {
		c.PigoQuality = d.PigoQuality
	}
	return c
}

// Open constructs the detector selected by cfg.Backend, loading its model
// file. The caller must Close the returned detector.
func Open(cfg Config) (Detector, error) {
	cfg = cfg.withDefaults()

	switch cfg.Backend {
	case BackendHaar:
		return NewHaarDetector(cfg)
	case BackendPigo:
		return NewPigoDetector(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
