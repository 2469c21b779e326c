package detector

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
	"gocv.io/x/gocv"
)

// Pigo detection parameters
const (
	pigoShiftFactor  = 0.1 // Shift factor for detection window
	pigoScaleFactor  = 1.1 // Scale factor for image pyramid
	pigoIoUThreshold = 0.2 // IoU threshold for clustering
)

// PigoDetector implements Detector with the pure-Go pigo cascade.
type PigoDetector struct {
	classifier *pigo.Pigo
	minSize    int
	maxSize    int
	quality    float32
}

// NewPigoDetector reads and unpacks the facefinder cascade.
func NewPigoDetector(cfg Config) (*PigoDetector, error) {
	cfg = cfg.withDefaults()

	path, err := FindCascade(cfg.PigoCascadePath, PigoFaceFinder)
	if err != nil {
		return nil, fmt.Errorf("pigo: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pigo: failed to read cascade file: %w", err)
	}

	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("pigo: %w: %v", ErrCascadeLoad, err)
	}

	return &PigoDetector{
		classifier: classifier,
		minSize:    cfg.PigoMinSize,
		maxSize:    cfg.PigoMaxSize,
		quality:    cfg.PigoQuality,
	}, nil
}

// Detect runs the cascade over a grayscale image and clusters overlapping hits.
func (d *PigoDetector) Detect(gray gocv.Mat) ([]image.Rectangle, error) {
	if d.classifier == nil {
		return nil, fmt.Errorf("pigo: detector is closed")
	}
	if gray.Empty() || gray.Channels() != 1 {
		return nil, fmt.Errorf("pigo: expected non-empty single-channel image")
	}

	rows, cols := gray.Rows(), gray.Cols()
	pixels := gray.ToBytes()
	if len(pixels) != rows*cols {
		return nil, fmt.Errorf("pigo: unexpected pixel buffer size %d for %dx%d", len(pixels), cols, rows)
	}

	params := pigo.CascadeParams{
		MinSize:     d.minSize,
		MaxSize:     d.maxSize,
		ShiftFactor: pigoShiftFactor,
		ScaleFactor: pigoScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, pigoIoUThreshold)

	return toRectangles(dets, d.quality, image.Rect(0, 0, cols, rows)), nil
}

// Close drops the unpacked cascade.
func (d *PigoDetector) Close() error {
	d.classifier = nil
	return nil
}

// toRectangles converts pigo's (row, col, scale) detections into bounding
// boxes clipped to bounds, dropping detections below minQuality.
func toRectangles(dets []pigo.Detection, minQuality float32, bounds image.Rectangle) []image.Rectangle {
	rects := make([]image.Rectangle, 0, len(dets))
	for _, det := range dets {
		if det.Q < minQuality {
			continue
		}

		// Scale is the detection diameter.
		half := det.Scale / 2
		r := image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half).Intersect(bounds)
		if r.Empty() {
			continue
		}
		rects = append(rects, r)
	}
	return rects
}
