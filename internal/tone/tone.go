// Package tone provides the fallback skin tone estimator.
//
// The estimator locates the first frontal face in a photo, averages the
// pixels inside it that fall in a fixed HSV skin range and reports that
// color with a darker and a lighter variation. It never fails: unreadable
// photos and processing errors produce a constant degraded payload, and a
// photo without a face produces an empty face list.
package tone

import (
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/ayusman/skintone/internal/capture"
	"github.com/ayusman/skintone/internal/detector"
	"github.com/ayusman/skintone/internal/palette"
	"github.com/ayusman/skintone/internal/report"
	"github.com/ayusman/skintone/internal/skin"
	"github.com/google/uuid"
)

// Tone palettes recognized by richer classifiers. The fallback accepts any
// name and does not use it.
const (
	PalettePerla        = "perla"
	PaletteYadonOstfeld = "yadon-ostfeld"
	PaletteProder       = "proder"
	PaletteDefault      = "default"
)

// DefaultSwatchCount is the number of swatches every face entry carries.
const DefaultSwatchCount = 3

// ErrFaceOutOfBounds is reported when the detected face does not overlap the photo.
var ErrFaceOutOfBounds = errors.New("detected face lies outside the image")

// Options are the per-call analysis arguments.
type Options struct {
	// TonePalette is accepted for compatibility with richer classifiers and
	// is unused by this fallback.
	TonePalette string

	// NDominantColors is accepted for compatibility and unused; three
	// swatches are always returned.
	NDominantColors int

	// ReturnReportImage attaches an annotated copy of the photo under
	// ReportImages["face"].
	ReturnReportImage bool
}

// DefaultOptions returns the options used when a caller passes none.
func DefaultOptions() Options {
	return Options{
		TonePalette:     PalettePerla,
		NDominantColors: DefaultSwatchCount,
	}
}

// KnownPalette reports whether name is one of the recognized palette names.
func KnownPalette(name string) bool {
	switch name {
	case PalettePerla, PaletteYadonOstfeld, PaletteProder, PaletteDefault:
		return true
	}
	return false
}

// Config holds estimator configuration.
type Config struct {
	Detector  detector.Config
	SkinRange skin.Range
}

// DefaultConfig returns a Config with the default Haar detector and skin range.
func DefaultConfig() Config {
	return Config{
		Detector:  detector.DefaultConfig(),
		SkinRange: skin.DefaultRange(),
	}
}

// DetectorFactory opens a face detector for a single analysis.
type DetectorFactory func(cfg detector.Config) (detector.Detector, error)

// Option customizes an Estimator.
type Option func(*Estimator)

// WithDetectorFactory replaces the function used to open a detector per call.
func WithDetectorFactory(f DetectorFactory) Option {
	return func(e *Estimator) {
		if f != nil {
			e.openDetector = f
		}
	}
}

// Estimator is the fallback skin tone classifier. It holds no mutable state
// and is safe for concurrent use; every call opens its own photo and detector.
type Estimator struct {
	config       Config
	openDetector DetectorFactory
}

// New creates an Estimator. A zero SkinRange selects the default range.
func New(config Config, opts ...Option) *Estimator {
	if config.SkinRange == (skin.Range{}) {
		config.SkinRange = skin.DefaultRange()
	}

	e := &Estimator{
		config:       config,
		openDetector: detector.Open,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEstimator = New(DefaultConfig())

// Analyze runs the default Estimator with positional arguments.
func Analyze(imagePath, tonePalette string, nDominantColors int, returnReportImage bool) Result {
	return defaultEstimator.Analyze(imagePath, Options{
		TonePalette:       tonePalette,
		NDominantColors:   nDominantColors,
		ReturnReportImage: returnReportImage,
	})
}

// Analyze estimates the skin tone of the first face in the photo at
// imagePath. It never returns an error: failures are logged and mapped to
// the degraded payload.
func (e *Estimator) Analyze(imagePath string, opts Options) Result {
	callID := uuid.NewString()[:8]

	o := e.run(imagePath, opts)
	switch o.kind {
	case outcomeDegraded:
		log.Printf("[%s] Error in skin tone analysis: %v", callID, o.reason)
	case outcomeNoFace:
		log.Printf("[%s] No face detected in %s", callID, imagePath)
	}

	return o.flatten()
}

// run performs one linear pass over the photo. Panics raised by the image
// library are converted into a degraded outcome.
func (e *Estimator) run(imagePath string, opts Options) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = degradedOutcome(fmt.Errorf("panic: %v", r))
		}
	}()

	photo, err := capture.LoadPhoto(imagePath)
	if err != nil {
		return degradedOutcome(err)
	}
	defer photo.Close()

	face, found, err := e.locateFace(photo)
	if err != nil {
		return degradedOutcome(err)
	}
	if !found {
		return noFaceOutcome()
	}

	sample, err := e.sampleSkin(photo, face)
	if err != nil {
		return degradedOutcome(err)
	}

	entry := FaceEntry{
		FaceID:         0,
		SkinTone:       sample.Hex(),
		DominantColors: palette.Derive(sample),
	}

	var reportImage image.Image
	if opts.ReturnReportImage {
		reportImage, err = report.Annotate(photo.Mat, face, sample)
		if err != nil {
			return degradedOutcome(err)
		}
	}

	return okOutcome(entry, reportImage)
}

// locateFace returns the first detected face clipped to the photo bounds.
func (e *Estimator) locateFace(photo *capture.Photo) (image.Rectangle, bool, error) {
	gray, err := photo.Gray()
	if err != nil {
		return image.Rectangle{}, false, fmt.Errorf("grayscale: %w", err)
	}
	defer gray.Close()

	det, err := e.openDetector(e.config.Detector)
	if err != nil {
		return image.Rectangle{}, false, fmt.Errorf("open detector: %w", err)
	}
	defer det.Close()

	faces, err := det.Detect(gray)
	if err != nil {
		return image.Rectangle{}, false, fmt.Errorf("detect faces: %w", err)
	}
	if len(faces) == 0 {
		return image.Rectangle{}, false, nil
	}

	face := faces[0].Canon().Intersect(photo.Bounds())
	if face.Empty() {
		return image.Rectangle{}, false, fmt.Errorf("%w: %v", ErrFaceOutOfBounds, faces[0])
	}
	return face, true, nil
}

// sampleSkin averages the skin-colored pixels of the face region.
func (e *Estimator) sampleSkin(photo *capture.Photo, face image.Rectangle) (palette.RGB, error) {
	rgb, err := photo.RGB()
	if err != nil {
		return palette.RGB{}, fmt.Errorf("rgb: %w", err)
	}
	defer rgb.Close()

	crop := rgb.Region(face)
	defer crop.Close()

	sample, _, err := skin.Sample(crop, e.config.SkinRange)
	if err != nil {
		return palette.RGB{}, fmt.Errorf("skin sample: %w", err)
	}
	return sample, nil
}
