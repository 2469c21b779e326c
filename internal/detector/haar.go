package detector

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// HaarDetector implements Detector with an OpenCV Haar cascade classifier.
type HaarDetector struct {
	classifier   gocv.CascadeClassifier
	path         string
	scaleFactor  float64
	minNeighbors int
	mu           sync.Mutex
	closed       bool
}

// NewHaarDetector loads the cascade named by cfg.CascadePath, or the default
// frontal face cascade when the path is empty.
func NewHaarDetector(cfg Config) (*HaarDetector, error) {
	cfg = cfg.withDefaults()

	path, err := FindCascade(cfg.CascadePath, FrontalFaceCascade)
	if err != nil {
		return nil, fmt.Errorf("haar: %w", err)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("haar: %w: %s", ErrCascadeLoad, path)
	}

	return &HaarDetector{
		classifier:   classifier,
		path:         path,
		scaleFactor:  cfg.ScaleFactor,
		minNeighbors: cfg.MinNeighbors,
	}, nil
}

// Path returns the cascade file the detector was loaded from.
func (d *HaarDetector) Path() string {
	return d.path
}

// Detect runs multi-scale detection over a grayscale image.
func (d *HaarDetector) Detect(gray gocv.Mat) ([]image.Rectangle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, fmt.Errorf("haar: detector is closed")
	}
	if gray.Empty() {
		return nil, fmt.Errorf("haar: empty input image")
	}

	rects := d.classifier.DetectMultiScaleWithParams(
		gray, d.scaleFactor, d.minNeighbors, 0, image.Point{}, image.Point{},
	)
	return rects, nil
}

// Close releases the classifier.
func (d *HaarDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.classifier.Close()
}
